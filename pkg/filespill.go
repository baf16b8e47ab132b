// Package pkg holds small storage utilities that are independent of the fuzzer domain.
package pkg

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrReadOnly is returned by Append on a spill opened for reading.
var ErrReadOnly = errors.New("filespill is read-only")

// FileSpill is a gob-encoded sequence of items of type T kept on disk.
type FileSpill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type fileSpillImpl[T any] struct {
	// path is where items are read from. While a created spill is open it
	// points at the staging file; Close moves it to target.
	path    string
	target  string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// Append implements FileSpill.
func (f *fileSpillImpl[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.encoder == nil {
		return ErrReadOnly
	}

	if err := f.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", f.path, "index", f.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	f.length++

	return nil
}

// Path implements FileSpill.
func (f *fileSpillImpl[T]) Path() string {
	return f.target
}

// AppendBatch implements FileSpill.
func (f *fileSpillImpl[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := f.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Close implements FileSpill. A created spill is synced and atomically
// renamed onto its target path, replacing any previous content.
func (f *fileSpillImpl[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	file := f.file
	f.file = nil
	f.encoder = nil

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to sync %s: %w", f.path, err)
	}

	if err := file.Close(); err != nil {
		slog.Error("failed to close file", "path", f.path, "error", err)
		return err
	}

	if err := os.Rename(f.path, f.target); err != nil {
		return fmt.Errorf("failed to move spill into place: %w", err)
	}

	f.path = f.target
	slog.Debug("committed filespill", "path", f.target, "length", f.length)

	return nil
}

// Get implements FileSpill.
func (f *fileSpillImpl[T]) Get(index uint64) (T, error) {
	var found T

	err := f.Range(func(i uint64, item T) error {
		if i == index {
			found = item
			return io.EOF
		}

		return nil
	})

	switch {
	case errors.Is(err, io.EOF):
		return found, nil
	case err != nil:
		var zero T
		return zero, err
	default:
		var zero T
		return zero, fmt.Errorf("index %d out of bounds (length %d)", index, f.Len())
	}
}

// Len implements FileSpill.
func (f *fileSpillImpl[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// Range implements FileSpill.
func (f *fileSpillImpl[T]) Range(fn func(index uint64, item T) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		slog.Error("failed to open file for range", "path", f.path, "error", err)
		return fmt.Errorf("failed to open file: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close file", "path", f.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := range f.length {
		var item T
		if err := decoder.Decode(&item); err != nil {
			slog.Error("failed to decode item during range", "path", f.path, "index", i, "error", err)
			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, item); err != nil {
			return err
		}
	}

	return nil
}

// CreateFileSpill starts a new spill for path. Items are staged in a sibling
// file until Close, so readers of path never observe a partial write.
func CreateFileSpill[T any](path string) (FileSpill[T], error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		slog.Error("failed to create spill directory", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}

	file, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		slog.Error("failed to create staging file", "path", dir, "error", err)
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	return &fileSpillImpl[T]{
		path:    file.Name(),
		target:  path,
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// OpenFileSpill opens an existing spill for reading. It returns an error
// wrapping os.ErrNotExist when there is nothing at path.
func OpenFileSpill[T any](path string) (FileSpill[T], error) {
	// #nosec G304 - spill paths come from operator configuration
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spill: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := gob.NewDecoder(file)

	var length uint64

	for {
		var item T

		err := decoder.Decode(&item)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to decode item at index %d: %w", length, err)
		}

		length++
	}

	return &fileSpillImpl[T]{path: path, target: path, length: length}, nil
}
