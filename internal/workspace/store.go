// Package workspace persists built schemas as JSON documents on disk.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/templify/internal/schema"
)

// ErrNotFound is returned when no schema exists under the given ID.
var ErrNotFound = errors.New("schema not found")

var idRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Store is a directory of schema JSON files, one file per schema ID.
type Store struct {
	dir string
}

// NewStore opens (creating if needed) a schema workspace at dir.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) (string, error) {
	if !idRe.MatchString(id) {
		return "", fmt.Errorf("invalid schema id: %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Save writes the schema atomically: a temp file in the same directory,
// then rename over the final path.
func (s *Store) Save(sc *schema.Schema) error {
	path, err := s.path(sc.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+sc.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write schema: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename schema: %w", err)
	}
	return nil
}

// Load reads one schema by ID.
func (s *Store) Load(id string) (*schema.Schema, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	var sc schema.Schema
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", id, err)
	}
	return &sc, nil
}

// Summary is the listing view of a stored schema.
type Summary struct {
	ID         string  `json:"id"`
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
	Slots      int     `json:"slots"`
}

// List returns summaries of all stored schemas, sorted by ID. Files that
// fail to decode are skipped rather than failing the whole listing.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read workspace dir: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		sc, err := s.Load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		out = append(out, Summary{
			ID:         sc.ID,
			Domain:     sc.Domain,
			Confidence: sc.Confidence,
			Slots:      len(sc.Slots),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes one schema by ID.
func (s *Store) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete schema: %w", err)
	}
	return nil
}
