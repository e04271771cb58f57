package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/templify/internal/score"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	h1 := ContentHashHex([]byte("aaa"))
	h2 := ContentHashHex([]byte("bbb"))
	if h1 == h2 {
		t.Error("expected different hashes for different inputs")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusExtracting, "extracting features"},
		{StatusScoring, "scoring domains"},
		{StatusMatching, "matching roles"},
		{StatusAggregating, "aggregating"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		job.SetStatus(tr.status, tr.phase)
		snap := job.Snapshot()
		if snap.Status != tr.status {
			t.Errorf("status = %q, want %q", snap.Status, tr.status)
		}
		if snap.Phase != tr.phase {
			t.Errorf("phase = %q, want %q", snap.Phase, tr.phase)
		}
	}
}

func TestJob_SnapshotCarriesResultAndRanking(t *testing.T) {
	job := &Job{ID: "test-2", Status: StatusQueued, Filename: "resume.docx"}
	job.SetRanking(score.Ranking{
		{Domain: "resume", Score: 0.81},
		{Domain: "report", Score: 0.55, Missing: 1},
	})
	job.SetResult("schema-1", "resume", 0.81)
	job.SetStatus(StatusCompleted, "done")

	snap := job.Snapshot()
	if snap.SchemaID != "schema-1" || snap.Domain != "resume" || snap.Confidence != 0.81 {
		t.Errorf("result fields wrong: %+v", snap)
	}
	if len(snap.Ranking) != 2 {
		t.Fatalf("ranking length = %d, want 2", len(snap.Ranking))
	}
	if snap.Ranking[0].Domain != "resume" || snap.Ranking[1].Missing != 1 {
		t.Errorf("ranking content wrong: %+v", snap.Ranking)
	}
	if snap.Errors == nil {
		t.Errorf("errors should serialize as an empty list, not null")
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "test-3"}
	job.AddError("parse: bad zip")
	job.AddError("save: disk full")
	snap := job.Snapshot()
	if len(snap.Errors) != 2 || snap.Errors[0] != "parse: bad zip" {
		t.Errorf("unexpected errors: %+v", snap.Errors)
	}
}

func TestJobStore_PutGetCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	fresh := &Job{ID: "fresh", UpdatedAt: time.Now()}
	stale := &Job{ID: "stale", UpdatedAt: time.Now().Add(-time.Minute)}
	store.Put(fresh)
	store.Put(stale)

	if store.Get("fresh") == nil || store.Get("stale") == nil {
		t.Fatalf("both jobs should be present before cleanup")
	}

	store.Cleanup()

	if store.Get("fresh") == nil {
		t.Errorf("fresh job evicted too early")
	}
	if store.Get("stale") != nil {
		t.Errorf("stale job survived cleanup")
	}
	if store.Get("missing") != nil {
		t.Errorf("unknown id should return nil")
	}
}
