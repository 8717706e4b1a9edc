// Package memstore is an in-process blobstore.Store.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
)

type Store struct {
	mu    sync.RWMutex
	blobs map[string]map[string][]byte
	reads int
}

func New() *Store {
	return &Store{blobs: make(map[string]map[string][]byte)}
}

func (s *Store) Put(ctx context.Context, key string, data []byte, collection string) (blobstore.Location, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.blobs[collection]
	if !ok {
		c = make(map[string][]byte)
		s.blobs[collection] = c
	}
	c[key] = append([]byte(nil), data...)
	return blobstore.Location(fmt.Sprintf("memory://%s", blobstore.ObjectName(key, collection))), nil
}

func (s *Store) Get(ctx context.Context, key, collection string) ([]byte, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++

	data, ok := s.blobs[collection][key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := blobstore.ValidateCollection(collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.blobs[collection]))
	for k := range s.blobs[collection] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key, collection string) (bool, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[collection][key]; !ok {
		return false, nil
	}
	delete(s.blobs[collection], key)
	return true, nil
}

// Reads returns how many Get calls reached the store.
func (s *Store) Reads() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reads
}

func (s *Store) Close() error { return nil }
