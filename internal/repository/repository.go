// Package repository persists harvested manuscripts and run summaries as
// JSON files under the configured output directory.
package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vellum/internal/review"
)

// Repository writes one JSON document per manuscript plus one summary per
// run, laid out as <root>/<journal>/<manuscript-id>.json. Writes go through
// a temp file so an interrupted run never leaves a truncated document.
type Repository struct {
	root string
}

// New returns a repository rooted at outputDir.
func New(outputDir string) *Repository {
	return &Repository{root: outputDir}
}

// SaveManuscript writes or replaces the JSON document for one manuscript.
// Re-running a harvest overwrites the previous version in place.
func (r *Repository) SaveManuscript(m *review.Manuscript) (string, error) {
	if m.ID == "" {
		return "", fmt.Errorf("manuscript has no identifier")
	}
	path := filepath.Join(r.journalDir(m.JournalCode), fileNameFor(m.ID)+".json")
	if err := r.writeJSON(path, m); err != nil {
		return "", err
	}
	return path, nil
}

// SaveRunSummary writes the run-level summary next to the manuscripts,
// keyed by run ID so successive runs stay inspectable.
func (r *Repository) SaveRunSummary(summary *review.RunSummary) (string, error) {
	path := filepath.Join(r.journalDir(summary.JournalCode), "runs", fileNameFor(summary.RunID)+".json")
	if err := r.writeJSON(path, summary); err != nil {
		return "", err
	}
	return path, nil
}

// LoadManuscript reads a previously saved manuscript back, mainly for the
// CLI inspection commands.
func (r *Repository) LoadManuscript(journalCode, manuscriptID string) (*review.Manuscript, error) {
	path := filepath.Join(r.journalDir(journalCode), fileNameFor(manuscriptID)+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manuscript document: %w", err)
	}
	var m review.Manuscript
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manuscript document: %w", err)
	}
	return &m, nil
}

func (r *Repository) journalDir(code string) string {
	if code == "" {
		code = "unassigned"
	}
	return filepath.Join(r.root, fileNameFor(code))
}

func (r *Repository) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// fileNameFor maps an identifier onto a filesystem-safe name. Manuscript IDs
// routinely contain characters like '/' on some platforms.
func fileNameFor(id string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, id)
	if mapped == "" {
		return "unnamed"
	}
	return mapped
}
