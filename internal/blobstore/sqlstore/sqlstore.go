// Package sqlstore keeps blobs in a single "blobs" table on PostgreSQL (pgx)
// or SQLite (modernc). The schema is applied with goose when the store opens.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

var sqlOpen = sql.Open

var now = func() time.Time { return time.Now().UTC() }

type Store struct {
	db *sql.DB
	d  dialect
}

// OpenPostgres connects with the pgx driver and migrates the schema.
func OpenPostgres(ctx context.Context, b blobstore.PostgresBackend) (*Store, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return open(ctx, postgres, b.DSN)
}

// OpenSQLite opens (creating if needed) a database file and migrates the
// schema.
func OpenSQLite(ctx context.Context, b blobstore.SQLiteBackend) (*Store, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	s, err := open(ctx, sqlite, b.Path)
	if err != nil {
		return nil, err
	}
	// single writer
	s.db.SetMaxOpenConns(1)
	return s, nil
}

func open(ctx context.Context, d dialect, dsn string) (*Store, error) {
	db, err := sqlOpen(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: db open error: %w", common.ErrStoreUnavailable, err)
	}
	s := &Store{db: db, d: d}
	if err := s.RunMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: migration error: %w", common.ErrStoreUnavailable, err)
	}
	return s, nil
}

// NewWithDB wraps an already migrated connection. dialectName is "postgres"
// or "sqlite".
func NewWithDB(db *sql.DB, dialectName string) (*Store, error) {
	switch dialectName {
	case postgres.name:
		return &Store{db: db, d: postgres}, nil
	case sqlite.name:
		return &Store{db: db, d: sqlite}, nil
	default:
		return nil, fmt.Errorf("unknown sql dialect %q", dialectName)
	}
}

// RunMigrations applies the embedded schema for the store's dialect.
func (s *Store) RunMigrations(ctx context.Context) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(s.d.migrations)
	if err := goose.SetDialect(s.d.gooseName); err != nil {
		return err
	}
	return gooseUpContext(ctx, s.db, s.d.migDir)
}

func (s *Store) location(key, collection string) blobstore.Location {
	return blobstore.Location(fmt.Sprintf("%s://blobs/%s", s.d.name, blobstore.ObjectName(key, collection)))
}

func (s *Store) put(ctx context.Context, db dbx.DBTX, key string, data []byte, collection string) error {
	if data == nil {
		data = []byte{}
	}
	if _, err := db.ExecContext(ctx, s.d.put, collection, key, data, now()); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, collection string) (blobstore.Location, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return "", err
	}
	if err := s.put(ctx, s.db, key, data, collection); err != nil {
		return "", err
	}
	return s.location(key, collection), nil
}

// PutBatch writes all blobs in one transaction.
func (s *Store) PutBatch(ctx context.Context, blobs []blobstore.Blob) ([]blobstore.Location, error) {
	for _, b := range blobs {
		if err := blobstore.Validate(b.Key, b.Collection); err != nil {
			return nil, err
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, b := range blobs {
			if err := s.put(ctx, tx, b.Key, b.Data, b.Collection); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	locs := make([]blobstore.Location, 0, len(blobs))
	for _, b := range blobs {
		locs = append(locs, s.location(b.Key, b.Collection))
	}
	return locs, nil
}

func (s *Store) Get(ctx context.Context, key, collection string) ([]byte, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, s.d.get, collection, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select blob: %w", err)
	}
	return data, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := blobstore.ValidateCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.d.list, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list blobs: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// database collation may differ from byte order
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Delete(ctx context.Context, key, collection string) (bool, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, s.d.delete, collection, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete blob: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
