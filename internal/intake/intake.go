// Package intake converts source material into the pipeline's in-memory
// forms: .docx documents become structural unit sequences for schema
// building, and plain content files become content blocks for schema runs.
package intake

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/templify/internal/doctree"
)

// ContentSource turns raw content bytes into ordered content blocks.
type ContentSource interface {
	Blocks(r io.Reader, filename string) ([]doctree.ContentBlock, error)
}

// SupportedContentExtensions lists content formats accepted for schema runs.
var SupportedContentExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".csv":      true,
}

// ForContentFile returns the content source matching a filename.
func ForContentFile(filename string) (ContentSource, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return &TextSource{}, nil
	case ".md", ".markdown":
		return &MarkdownSource{}, nil
	case ".html", ".htm":
		return &HTMLSource{}, nil
	case ".pdf":
		return &PDFSource{}, nil
	case ".csv":
		return &CSVSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported content extension: %s", filepath.Ext(filename))
	}
}

// IsSupportedContent checks a filename against the content formats.
func IsSupportedContent(filename string) bool {
	return SupportedContentExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsDocx checks for the one schema-source format.
func IsDocx(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".docx")
}
