package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/dgallion1/templify/internal/detect"
	"github.com/dgallion1/templify/internal/doctree"
	"github.com/dgallion1/templify/internal/domain"
	"github.com/dgallion1/templify/internal/schema"
)

func testSchema(id string) *schema.Schema {
	return &schema.Schema{
		ID:         id,
		Domain:     "resume",
		Confidence: 0.82,
		Slots: []schema.Slot{
			{ID: "slot-000-title", Role: detect.RoleTitle, Cardinality: domain.One, Count: 1,
				Style: doctree.Style{StyleID: "Title", SizeHalfPoints: 56, Bold: true}, Ordinal: 0, Confidence: 0.9},
			{ID: "slot-001-body", Role: detect.RoleBody, Cardinality: domain.Repeatable, Count: 2,
				Style: doctree.Style{StyleID: "Normal", SizeHalfPoints: 22}, Ordinal: 1, Confidence: 0.7},
		},
		BuiltAt: time.Now().UTC().Truncate(time.Second),
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := testSchema("abc123")

	if err := store.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := store.Load("abc123")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestInvalidID(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
		if _, err := store.Load(id); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Load(%q) should reject the id, got %v", id, err)
		}
	}
}

func TestListAndDelete(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"zz", "aa"} {
		if err := store.Save(testSchema(id)); err != nil {
			t.Fatalf("Save(%s) failed: %v", id, err)
		}
	}

	list, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "aa" || list[1].ID != "zz" {
		t.Fatalf("unexpected listing: %+v", list)
	}
	if list[0].Domain != "resume" || list[0].Slots != 2 {
		t.Errorf("summary fields wrong: %+v", list[0])
	}

	if err := store.Delete("aa"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete("aa"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should report ErrNotFound, got %v", err)
	}
	list, err = store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "zz" {
		t.Errorf("unexpected listing after delete: %+v", list)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Save(testSchema("tidy")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("temp files left behind: %v", matches)
	}
	if _, err := os.Stat(filepath.Join(dir, "tidy.json")); err != nil {
		t.Errorf("schema file missing: %v", err)
	}
}
