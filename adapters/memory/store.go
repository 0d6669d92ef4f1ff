// Package memory provides an in-memory data source backed by an owned,
// mutable map. Each store instance exclusively owns its entries; every
// operation is atomic with respect to concurrent callers.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/pathsource/core/datasource"
	"github.com/artpar/pathsource/ports"
)

// Store is a memory-backed data source over string keys.
type Store[V any] struct {
	mu       sync.RWMutex
	entries  map[string]V
	ids      ports.IDGenerator
	validate func(V) error
}

// Option configures a Store.
type Option[V any] func(*Store[V])

// WithIDGenerator injects the identifier generator used by Create.
// Without one, Create is unsupported.
func WithIDGenerator[V any](g ports.IDGenerator) Option[V] {
	return func(s *Store[V]) { s.ids = g }
}

// WithValidator injects a value validator. Invalid values fail the
// call before any mutation.
func WithValidator[V any](fn func(V) error) Option[V] {
	return func(s *Store[V]) { s.validate = fn }
}

// WithEntries seeds the store with initial entries.
func WithEntries[V any](entries map[string]V) Option[V] {
	return func(s *Store[V]) {
		for k, v := range entries {
			s.entries[k] = v
		}
	}
}

// NewStore creates an empty in-memory store.
func NewStore[V any](opts ...Option[V]) *Store[V] {
	s := &Store[V]{entries: make(map[string]V)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve returns the value stored under key.
func (s *Store[V]) Retrieve(ctx context.Context, key string) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, datasource.ErrNotFound
	}
	return v, nil
}

// Keys returns all keys in sorted order, so derived operations iterate
// deterministically.
func (s *Store[V]) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Create validates the value, generates a key and stores the entry.
// Without an injected ID generator, creation is unsupported.
func (s *Store[V]) Create(ctx context.Context, value V) (string, error) {
	if s.ids == nil {
		return "", &datasource.UnsupportedError{Op: "create"}
	}
	if err := s.check(value); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.ids.New()
	for {
		if _, exists := s.entries[key]; !exists {
			break
		}
		key = s.ids.New()
	}
	s.entries[key] = value
	return key, nil
}

// Update replaces the value under key. It reports false without error
// when the key is absent.
func (s *Store[V]) Update(ctx context.Context, key string, value V) (bool, error) {
	if err := s.check(value); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	s.entries[key] = value
	return true, nil
}

// Remove deletes the entry under key. It reports false without error
// when the key is absent.
func (s *Store[V]) Remove(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// Len returns the number of stored entries.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store[V]) check(value V) error {
	if s.validate == nil {
		return nil
	}
	if err := s.validate(value); err != nil {
		return &datasource.InvalidValueError{Cause: err}
	}
	return nil
}

// Capabilities exposes the store as a data-source capability record.
func (s *Store[V]) Capabilities() datasource.Capabilities[string, V] {
	caps := datasource.Capabilities[string, V]{
		Retrieve: s.Retrieve,
		Keys:     s.Keys,
		Update:   s.Update,
		Remove:   s.Remove,
	}
	if s.ids != nil {
		caps.Create = s.Create
	}
	return caps
}

// DataSource wraps the store in a normalized data source.
func (s *Store[V]) DataSource() (*datasource.DataSource[string, V], error) {
	return datasource.New(s.Capabilities())
}
