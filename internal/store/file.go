package store

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region file-store
// FileStore keeps a single world in one JSON file. It has no history;
// Save overwrites the file through a rename so readers never see a
// partial write.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path. The file need not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load decodes the world file.
func (s *FileStore) Load(ctx context.Context) (world.World, error) {
	return ReadWorldFile(s.path)
}

// Save writes w and returns a fresh id for the write.
func (s *FileStore) Save(ctx context.Context, w world.World, meta Meta) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := WriteWorldFile(s.path, w); err != nil {
		return "", err
	}
	return uuid.New().String(), nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// #endregion file-store

// #region file-io
// ReadWorldFile decodes and validates a world JSON file.
func ReadWorldFile(path string) (world.World, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return world.World{}, fmt.Errorf("open %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return world.World{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w, err := world.Decode(bufio.NewReader(f))
	if err != nil {
		return world.World{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := world.Validate(w); err != nil {
		return world.World{}, fmt.Errorf("validate %s: %w", path, err)
	}
	return w, nil
}

// WriteWorldFile encodes w to a temp file next to path and renames it over path.
func WriteWorldFile(path string, w world.World) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriter(tmp)
	if err := world.Encode(buf, w); err != nil {
		tmp.Close()
		return fmt.Errorf("encode world: %w", err)
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush world: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename world file: %w", err)
	}
	return nil
}

// #endregion file-io
