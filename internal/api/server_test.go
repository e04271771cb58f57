package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/templify/internal/config"
	"github.com/dgallion1/templify/internal/detect"
	"github.com/dgallion1/templify/internal/doctree"
	"github.com/dgallion1/templify/internal/domain"
	"github.com/dgallion1/templify/internal/pipeline"
	"github.com/dgallion1/templify/internal/schema"
	"github.com/dgallion1/templify/internal/workspace"
)

const testAPIKey = "test-key"

func newTestServer(t *testing.T) (*Server, *workspace.Store) {
	t.Helper()
	cfg := config.Config{
		APIKey:         testAPIKey,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		ScoreFloor:     0.30,
		WindowSize:     2,
		JobTTL:         time.Minute,
	}
	store, err := workspace.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, domain.Builtin(), store, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg), store
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	return req
}

func multipartFile(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealthIsPublic(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schemas", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing auth status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/schemas", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad key status = %d, want 401", rec.Code)
	}
}

func TestBuildRejectsNonDocx(t *testing.T) {
	srv, _ := newTestServer(t)
	body, ctype := multipartFile(t, "file", "notes.txt", []byte("hello"))
	req := authed(httptest.NewRequest(http.MethodPost, "/api/schemas", body))
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBuildBadDocxFailsJob(t *testing.T) {
	srv, _ := newTestServer(t)
	body, ctype := multipartFile(t, "file", "broken.docx", []byte("not a zip archive"))
	req := authed(httptest.NewRequest(http.MethodPost, "/api/schemas", body))
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var accepted struct {
		JobID string `json:"job_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/schemas/jobs/"+accepted.JobID, nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("job status code = %d", rec.Code)
		}
		var snap pipeline.JobSnapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Status == pipeline.StatusFailed {
			if len(snap.Errors) == 0 {
				t.Errorf("failed job should surface its error")
			}
			return
		}
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusNoDomain {
			t.Fatalf("broken docx should fail, got %q", snap.Status)
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %q", snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestJobNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/schemas/jobs/nope", nil)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func storedSchema() *schema.Schema {
	return &schema.Schema{
		ID:         "sch1",
		Domain:     "letter",
		Confidence: 0.7,
		Slots: []schema.Slot{
			{ID: "slot-000-title", Role: detect.RoleTitle, Cardinality: domain.One, Count: 1,
				Style: doctree.Style{StyleID: "Title", SizeHalfPoints: 56, Bold: true}, Ordinal: 0, Confidence: 0.9},
			{ID: "slot-001-body", Role: detect.RoleBody, Cardinality: domain.Repeatable, Count: 3,
				Style: doctree.Style{StyleID: "Normal", SizeHalfPoints: 22}, Ordinal: 1, Confidence: 0.8},
		},
		BuiltAt: time.Now().UTC(),
	}
}

func TestSchemaCRUD(t *testing.T) {
	srv, store := newTestServer(t)
	if err := store.Save(storedSchema()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/schemas", nil)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "sch1") {
		t.Errorf("list failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/schemas/sch1", nil)))
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d, want 200", rec.Code)
	}
	var got schema.Schema
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	if got.Domain != "letter" || len(got.Slots) != 2 {
		t.Errorf("unexpected schema: %+v", got)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodDelete, "/api/schemas/sch1", nil)))
	if rec.Code != http.StatusOK {
		t.Errorf("delete status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/schemas/sch1", nil)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestRunSchemaJSON(t *testing.T) {
	srv, store := newTestServer(t)
	if err := store.Save(storedSchema()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	content := "My Letter Title\n\nFirst paragraph.\nSecond paragraph.\n"
	body, ctype := multipartFile(t, "file", "content.txt", []byte(content))
	req := authed(httptest.NewRequest(http.MethodPost, "/api/schemas/sch1/run", body))
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		SchemaID string                 `json:"schema_id"`
		Units    []doctree.RenderedUnit `json:"units"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode run response: %v", err)
	}
	if resp.SchemaID != "sch1" {
		t.Errorf("schema_id = %q", resp.SchemaID)
	}
	if len(resp.Units) != 3 {
		t.Fatalf("units = %d, want 3: %+v", len(resp.Units), resp.Units)
	}
	if resp.Units[0].Text != "My Letter Title" || !resp.Units[0].Style.Bold {
		t.Errorf("title unit wrong: %+v", resp.Units[0])
	}
}

func TestRunSchemaTxt(t *testing.T) {
	srv, store := newTestServer(t)
	if err := store.Save(storedSchema()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	body, ctype := multipartFile(t, "file", "content.txt", []byte("Title Line\n\nBody line.\n"))
	req := authed(httptest.NewRequest(http.MethodPost, "/api/schemas/sch1/run?format=txt", body))
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("run status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("content type = %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Title Line") {
		t.Errorf("txt output missing content: %q", rec.Body.String())
	}
}

func TestRunSchemaNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	body, ctype := multipartFile(t, "file", "content.txt", []byte("x"))
	req := authed(httptest.NewRequest(http.MethodPost, "/api/schemas/missing/run", body))
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
