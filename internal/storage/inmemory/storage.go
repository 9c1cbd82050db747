// Package inmemory provides functionality for keeping client key-value pairs in a map.
package inmemory

import (
	"context"
	"log"
	"sync"

	"github.com/danilovkiri/dk_go_qr_forge/internal/storage"
	storageErrors "github.com/danilovkiri/dk_go_qr_forge/internal/storage/errors"
)

// Check interface implementation explicitly
var (
	_ storage.KeyValue = (*Storage)(nil)
)

// Storage struct defines data structure handling and provides support for adding new implementations.
type Storage struct {
	mu sync.Mutex
	DB map[string]string
}

// InitStorage initializes a Storage object and sets its attributes.
func InitStorage() *Storage {
	db := make(map[string]string)
	return &Storage{DB: db}
}

// Get returns the value stored under key.
func (s *Storage) Get(ctx context.Context, key string) (value string, err error) {
	// create channels for listening to the go routine result
	getDone := make(chan string, 1)
	getError := make(chan error, 1)
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		v, ok := s.DB[key]
		if !ok {
			getError <- &storageErrors.NotFoundError{Key: key}
			return
		}
		getDone <- v
	}()

	// wait for the first channel to retrieve a value
	select {
	case <-ctx.Done():
		log.Println("Getting value:", ctx.Err())
		return "", &storageErrors.ContextTimeoutExceededError{Err: ctx.Err()}
	case gErr := <-getError:
		return "", gErr
	case v := <-getDone:
		return v, nil
	}
}

// Set stores value under key, replacing any previous value.
func (s *Storage) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DB[key] = value
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Storage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return &storageErrors.ContextTimeoutExceededError{Err: err}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.DB, key)
	return nil
}

// Close is a no-op for the map storage.
func (s *Storage) Close() error {
	return nil
}
