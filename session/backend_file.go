package session

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend is a durable tier persisted to a single file. Writes go
// through a temp file and rename so a crash mid-write leaves either the old
// bundle or the new one, never a torn file.
type FileBackend struct {
	path string
	name string
}

// NewFileBackend creates a file-backed tier at path. The parent directory is
// created on first write.
func NewFileBackend(name, path string) (*FileBackend, error) {
	if path == "" {
		return nil, errors.New("file backend requires a path")
	}
	if name == "" {
		name = "file"
	}
	return &FileBackend{path: path, name: name}, nil
}

func (b *FileBackend) Name() string {
	return b.name
}

func (b *FileBackend) Get(context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

func (b *FileBackend) Set(_ context.Context, data []byte) error {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file backend rename: %w", err)
	}
	return nil
}

func (b *FileBackend) Delete(context.Context) error {
	err := os.Remove(b.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
