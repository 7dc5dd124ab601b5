// Package folder creates and, on compensation, removes the on-disk
// directories that hold request and response artifacts.
package folder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"municipal-portal/internal/domain/submission"
)

var ErrOutsideRoot = errors.New("path outside storage root")

type Materializer struct {
	root string
}

func NewMaterializer(root string) *Materializer {
	return &Materializer{root: filepath.Clean(root)}
}

func (m *Materializer) Root() string { return m.root }

// Ensure creates path and any missing ancestors. created is false when the
// directory was already there. Losing a race to another creator is not an
// error.
func (m *Materializer) Ensure(path string) (created bool, err error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, fmt.Errorf("%w: %s exists and is not a directory", submission.ErrIO, path)
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("%w: stat %s: %w", submission.ErrIO, path, err)
	}

	if err := os.MkdirAll(path, 0o750); err != nil {
		return false, fmt.Errorf("%w: mkdir %s: %w", submission.ErrIO, path, err)
	}
	return true, nil
}

// EnsureChain runs Ensure over dirs in order and returns the ones this call
// created, also when it stops early on an error.
func (m *Materializer) EnsureChain(dirs []string) (created []string, err error) {
	for _, d := range dirs {
		ok, err := m.Ensure(d)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, d)
		}
	}
	return created, nil
}

func (m *Materializer) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Remove deletes path recursively. Only strict descendants of the root
// may be removed.
func (m *Materializer) Remove(path string) error {
	if err := m.inside(path); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("%w: remove %s: %w", submission.ErrIO, path, err)
	}
	return nil
}

// RemoveEmpty deletes path only if it is an empty directory. A directory
// that is gone or that another submission has written into is left alone.
func (m *Materializer) RemoveEmpty(path string) error {
	if err := m.inside(path); err != nil {
		return err
	}
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: read %s: %w", submission.ErrIO, path, err)
	}
	if len(entries) > 0 {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) && !isNotEmpty(path) {
		return fmt.Errorf("%w: remove %s: %w", submission.ErrIO, path, err)
	}
	return nil
}

func isNotEmpty(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// RemoveFile deletes a single file under the root. A missing file is not
// an error.
func (m *Materializer) RemoveFile(path string) error {
	if err := m.inside(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove %s: %w", submission.ErrIO, path, err)
	}
	return nil
}

func (m *Materializer) inside(path string) error {
	rel, err := filepath.Rel(m.root, filepath.Clean(path))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return nil
}
