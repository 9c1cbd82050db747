// Package infile provides data types and methods for local file storage operations.
package infile

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/danilovkiri/dk_go_qr_forge/internal/service/secretary"
	"github.com/danilovkiri/dk_go_qr_forge/internal/storage"
	storageErrors "github.com/danilovkiri/dk_go_qr_forge/internal/storage/errors"
)

// Check interface implementation explicitly
var (
	_ storage.KeyValue = (*Storage)(nil)
)

// Storage struct defines data structure handling and provides support for adding new implementations.
// Values are kept in memory and the whole map is rewritten to Path on every change.
type Storage struct {
	mu   sync.Mutex
	Path string
	DB   map[string]string
	sec  secretary.Secretary
}

// InitStorage initializes a Storage object backed by the file at path and restores its content.
// When sec is not nil, values are sealed before being written and opened after being read.
func InitStorage(path string, sec secretary.Secretary) (*Storage, error) {
	st := Storage{
		Path: path,
		DB:   make(map[string]string),
		sec:  sec,
	}
	if err := st.restore(); err != nil {
		return nil, err
	}
	return &st, nil
}

// Get returns the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) (value string, err error) {
	if err := ctx.Err(); err != nil {
		return "", &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.DB[key]
	if !ok {
		return "", &storageErrors.NotFoundError{Key: key}
	}
	return v, nil
}

// Set stores value under key and persists the storage file.
func (s *Storage) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DB[key] = value
	return s.persist()
}

// Remove deletes key and persists the storage file.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.DB[key]; !ok {
		return nil
	}
	delete(s.DB, key)
	return s.persist()
}

// Close is a no-op since every change is already persisted.
func (s *Storage) Close() error {
	return nil
}

// restore fills the in-memory map from the storage file, if it exists.
func (s *Storage) restore() error {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &storageErrors.FileReadError{Err: err}
	}
	if len(b) == 0 {
		return nil
	}
	var entries map[string]string
	if err := json.Unmarshal(b, &entries); err != nil {
		return &storageErrors.FileReadError{Err: err}
	}
	for key, v := range entries {
		if s.sec != nil {
			opened, err := s.sec.Decode(v)
			if err != nil {
				// a value sealed with another key is unusable; drop it instead of failing start-up
				log.Println("Restoring storage: dropping", key, err)
				continue
			}
			v = opened
		}
		s.DB[key] = v
	}
	log.Print("Client storage was restored")
	return nil
}

// persist writes the whole map to a temporary file and renames it over Path.
func (s *Storage) persist() error {
	entries := make(map[string]string, len(s.DB))
	for key, v := range s.DB {
		if s.sec != nil {
			sealed, err := s.sec.Encode(v)
			if err != nil {
				return &storageErrors.SealError{Key: key, Err: err}
			}
			v = sealed
		}
		entries[key] = v
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return &storageErrors.FileWriteError{Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return &storageErrors.FileWriteError{Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return &storageErrors.FileWriteError{Err: err}
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &storageErrors.FileWriteError{Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &storageErrors.FileWriteError{Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		os.Remove(tmp.Name())
		return &storageErrors.FileWriteError{Err: err}
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		os.Remove(tmp.Name())
		return &storageErrors.FileWriteError{Err: err}
	}
	return nil
}
