// Package fsstore keeps blobs as files: <root>/<collection>/<key>.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/filex"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

type Store struct {
	root string
}

// New opens (creating if needed) a store rooted at root.
func New(root string) (*Store, error) {
	abs, err := filex.EnsureDir(root, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) path(parts ...string) string {
	return filepath.Join(append([]string{s.root}, parts...)...)
}

func (s *Store) Put(ctx context.Context, key string, data []byte, collection string) (blobstore.Location, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return "", err
	}
	dir, err := filex.EnsureDir(s.path(filepath.FromSlash(collection)), dirPerm)
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, key)
	if err := filex.WriteFileAtomic(p, data, filePerm); err != nil {
		return "", fmt.Errorf("write %s: %w", p, err)
	}
	return blobstore.Location("file://" + filepath.ToSlash(p)), nil
}

func (s *Store) Get(ctx context.Context, key, collection string) ([]byte, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return nil, err
	}
	b, ok, err := filex.ReadFileIfExists(s.path(filepath.FromSlash(collection), key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrorNotFound
	}
	return b, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := blobstore.ValidateCollection(collection); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.path(filepath.FromSlash(collection)))
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		// skip sub-collections and in-flight temp files
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		keys = append(keys, e.Name())
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key, collection string) (bool, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return false, err
	}
	err := os.Remove(s.path(filepath.FromSlash(collection), key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Close() error { return nil }
