package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"press-pass/core/pass"

	"github.com/spf13/afero"
)

// DefaultFileName is the collection file used when none is configured.
const DefaultFileName = "press_passes.json"

// FileStore keeps the collection in one JSON file.
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore creates a FileStore at path on fsys.
func NewFileStore(fsys afero.Fs, path string) *FileStore {
	if path == "" {
		path = DefaultFileName
	}
	return &FileStore{fs: fsys, path: path}
}

// NewMemoryStore creates a FileStore on an in-memory filesystem. Its content
// lives as long as the process.
func NewMemoryStore() *FileStore {
	return NewFileStore(afero.NewMemMapFs(), DefaultFileName)
}

// Load reads the collection. A missing file is an empty collection.
func (s *FileStore) Load(_ context.Context) ([]pass.Record, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return decodeCollection(data)
}

// Save replaces the collection. The file is written beside the target and
// renamed over it so a crash never leaves half a collection.
func (s *FileStore) Save(_ context.Context, recs []pass.Record) error {
	data, err := encodeCollection(recs)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
