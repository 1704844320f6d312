// Package pagestore keeps the per-document working files of a conversion:
// the uploaded PDF, rendered page images and recognized page text.
//
// Files are left on disk after a failed run so the next run of the same
// document can pick up where the previous one stopped.
package pagestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Workspace is the directory tree for one document.
type Workspace struct {
	dir string
}

// Open returns the workspace for docID under root, creating it if needed.
func Open(root, docID string) (*Workspace, error) {
	w := &Workspace{dir: filepath.Join(root, docID)}
	for _, d := range []string{w.dir, w.imagesDir(), w.textDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace: %w", err)
		}
	}
	return w, nil
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string {
	return w.dir
}

// SourcePath is where the uploaded PDF is kept.
func (w *Workspace) SourcePath() string {
	return filepath.Join(w.dir, "source.pdf")
}

// WriteSource stores the uploaded PDF, replacing any previous copy. Like
// page text it is written atomically: concurrent jobs for the same document
// and interrupted runs never leave a truncated source behind.
func (w *Workspace) WriteSource(data []byte) error {
	if err := writeAtomic(w.SourcePath(), data); err != nil {
		return fmt.Errorf("write source: %w", err)
	}
	return nil
}

// ImagePath returns the rendered image path of a physical page (1-based).
func (w *Workspace) ImagePath(page int) string {
	return filepath.Join(w.imagesDir(), fmt.Sprintf("page_%04d.png", page))
}

// HasImage reports whether the page image has already been rendered.
func (w *Workspace) HasImage(page int) bool {
	info, err := os.Stat(w.ImagePath(page))
	return err == nil && info.Size() > 0
}

// Text returns the page text store of the workspace.
func (w *Workspace) Text() *Store {
	return NewStore(w.textDir())
}

func (w *Workspace) imagesDir() string {
	return filepath.Join(w.dir, "images")
}

func (w *Workspace) textDir() string {
	return filepath.Join(w.dir, "text")
}

// Store maps physical page numbers to recognized text files.
type Store struct {
	dir string
}

// NewStore returns a Store over an existing directory.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) path(page int) string {
	return filepath.Join(s.dir, fmt.Sprintf("page_%04d.txt", page))
}

// Put writes the text of page, replacing any previous version. The write is
// atomic so an interrupted run never leaves a truncated page behind.
func (s *Store) Put(page int, text string) error {
	if err := writeAtomic(s.path(page), []byte(text)); err != nil {
		return fmt.Errorf("store page %d: %w", page, err)
	}
	return nil
}

// Has reports whether text exists for page.
func (s *Store) Has(page int) bool {
	_, err := os.Stat(s.path(page))
	return err == nil
}

// Get returns the stored text of page.
func (s *Store) Get(page int) (string, error) {
	data, err := os.ReadFile(s.path(page))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("page %d: %w", page, fs.ErrNotExist)
		}
		return "", fmt.Errorf("read page %d: %w", page, err)
	}
	return string(data), nil
}

// PageText implements assemble.PageTextProvider. Any read failure counts
// as a missing page.
func (s *Store) PageText(page int) (string, bool) {
	text, err := s.Get(page)
	if err != nil {
		return "", false
	}
	return text, true
}

// writeAtomic writes data to a temp file in the destination directory and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
