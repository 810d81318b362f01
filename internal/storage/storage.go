// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jeranaias/castchat/internal/util"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the durable opaque-blob contract. Implementations must make Set
// atomic: a reader never observes a partially written value.
type Store interface {
	// Get returns the blob stored under key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set durably stores the blob under key, replacing any prior value.
	Set(key string, data []byte) error

	// Close releases underlying resources.
	Close() error
}

// ErrKeyNotFound is returned when a key has no stored value.
// Use errors.Is(err, ErrKeyNotFound) to check for this error.
var ErrKeyNotFound = &StoreError{Message: "key not found"}

// StoreError represents a storage-related error.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// Backend names a Store implementation in configuration.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendBadger Backend = "badger"
)

// Open creates the configured Store implementation rooted at dir.
func Open(backend Backend, dir string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(dir)
	case BackendBadger:
		return NewBadgerStore(filepath.Join(dir, "badger"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// =============================================================================
// FILE STORE
// =============================================================================

// FileStore keeps one JSON file per key in a base directory. Writes go
// through an atomic temp-file-and-rename, so a crash mid-write leaves the
// previous snapshot intact.
type FileStore struct {
	baseDir string
}

// NewFileStore creates a file-backed store rooted at baseDir.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Get returns the blob stored under key.
func (s *FileStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return data, nil
}

// Set durably stores the blob under key.
func (s *FileStore) Set(key string, data []byte) error {
	return util.AtomicWriteFile(s.filePath(key), data, 0644)
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}

// filePath returns the file path for a key.
func (s *FileStore) filePath(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}
