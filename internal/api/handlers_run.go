package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dgallion1/templify/internal/intake"
	"github.com/dgallion1/templify/internal/render"
	"github.com/dgallion1/templify/internal/runner"
	"github.com/dgallion1/templify/internal/workspace"
	"github.com/go-chi/chi/v5"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleRunSchema fills a stored schema with uploaded content and renders
// the result. The format query selects the output: json (default), txt,
// or docx.
func (s *Server) handleRunSchema(w http.ResponseWriter, r *http.Request) {
	schemaID := chi.URLParam(r, "schemaID")
	sc, err := s.orchestrator.Store().Load(schemaID)
	if errors.Is(err, workspace.ErrNotFound) {
		jsonError(w, "schema not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load schema: "+err.Error(), http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !intake.IsSupportedContent(filename) {
		jsonError(w, fmt.Sprintf("unsupported content type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	src, err := intake.ForContentFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pdfSrc, ok := src.(*intake.PDFSource); ok {
		pdfSrc.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	limited := io.LimitReader(file, s.cfg.MaxUploadBytes+1)
	blocks, err := src.Blocks(limited, filename)
	if err != nil {
		jsonError(w, "failed to parse content: "+err.Error(), http.StatusBadRequest)
		return
	}

	policy := runner.DefaultPolicy()
	policy.SplitOnBlankLine = s.cfg.SplitOnBlankLine
	if v := r.URL.Query().Get("split"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			policy.SplitOnBlankLine = b
		}
	}

	result := runner.Run(sc, blocks, policy)
	s.log.Info("schema run",
		"schema_id", sc.ID,
		"domain", sc.Domain,
		"blocks", len(blocks),
		"units", len(result.Units),
		"unfilled", len(result.Diagnostics.Unfilled),
		"overflow", result.Diagnostics.Overflow,
	)

	switch r.URL.Query().Get("format") {
	case "docx":
		w.Header().Set("Content-Type", docxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+schemaID+`.docx"`)
		if err := render.Docx(result.Units, w); err != nil {
			s.log.Error("docx render failed", "schema_id", sc.ID, "error", err)
		}
	case "txt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, render.Text(result.Units))
	default:
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"schema_id":   sc.ID,
			"domain":      sc.Domain,
			"units":       result.Units,
			"diagnostics": result.Diagnostics,
		})
	}
}
