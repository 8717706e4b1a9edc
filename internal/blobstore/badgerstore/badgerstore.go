// Package badgerstore keeps blobs in an embedded badger database keyed by
// "<collection>/<key>".
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Backend blobstore.BadgerBackend
	// Logger receives badger's internal messages. A warn-level logger is
	// created when nil.
	Logger *logrus.Logger
}

type Store struct {
	db *badger.DB
}

func New(cfg Config) (*Store, error) {
	if err := cfg.Backend.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
		cfg.Logger.SetLevel(logrus.WarnLevel)
	}

	opts := badger.DefaultOptions(cfg.Backend.Dir)
	if cfg.Backend.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = cfg.Logger
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %w", common.ErrStoreUnavailable, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, collection string) (blobstore.Location, error) {
	if _, err := s.PutBatch(ctx, []blobstore.Blob{{Key: key, Collection: collection, Data: data}}); err != nil {
		return "", err
	}
	return location(key, collection), nil
}

// PutBatch writes all blobs in one badger transaction.
func (s *Store) PutBatch(ctx context.Context, blobs []blobstore.Blob) ([]blobstore.Location, error) {
	for _, b := range blobs {
		if err := blobstore.Validate(b.Key, b.Collection); err != nil {
			return nil, err
		}
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for _, b := range blobs {
			data := b.Data
			if data == nil {
				data = []byte{}
			}
			if err := txn.Set([]byte(blobstore.ObjectName(b.Key, b.Collection)), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger write: %w", err)
	}

	locs := make([]blobstore.Location, 0, len(blobs))
	for _, b := range blobs {
		locs = append(locs, location(b.Key, b.Collection))
	}
	return locs, nil
}

func location(key, collection string) blobstore.Location {
	return blobstore.Location("badger://" + blobstore.ObjectName(key, collection))
}

func (s *Store) Get(ctx context.Context, key, collection string) ([]byte, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(blobstore.ObjectName(key, collection)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger read: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := blobstore.ValidateCollection(collection); err != nil {
		return nil, err
	}

	keys := []string{}
	prefix := []byte(collection + "/")
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			if k := blobstore.ChildName(string(it.Item().Key()), collection); k != "" {
				keys = append(keys, k)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key, collection string) (bool, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return false, err
	}

	k := []byte(blobstore.ObjectName(key, collection))
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		existed = true
		return txn.Delete(k)
	})
	if err != nil {
		return false, fmt.Errorf("badger delete: %w", err)
	}
	return existed, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
