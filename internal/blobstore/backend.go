package blobstore

import (
	"errors"
	"fmt"
)

// Kind names a backend family.
type Kind string

const (
	KindMemory     Kind = "memory"
	KindFilesystem Kind = "filesystem"
	KindS3         Kind = "s3"
	KindPostgres   Kind = "postgres"
	KindSQLite     Kind = "sqlite"
	KindBadger     Kind = "badger"
	KindRemote     Kind = "remote"
)

// Backend is the closed set of store configurations. Only types in this
// package implement it.
type Backend interface {
	Kind() Kind
	Validate() error
	backend()
}

var ErrInvalidBackend = errors.New("invalid backend configuration")

func invalid(k Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidBackend, k, fmt.Sprintf(format, args...))
}

// MemoryBackend keeps blobs in process memory.
type MemoryBackend struct{}

func (MemoryBackend) Kind() Kind      { return KindMemory }
func (MemoryBackend) Validate() error { return nil }
func (MemoryBackend) backend()        {}

// FilesystemBackend stores blobs as files under Root.
type FilesystemBackend struct {
	Root string
}

func (FilesystemBackend) Kind() Kind { return KindFilesystem }
func (b FilesystemBackend) Validate() error {
	if b.Root == "" {
		return invalid(KindFilesystem, "root directory is required")
	}
	return nil
}
func (FilesystemBackend) backend() {}

// S3Backend stores blobs as objects in an S3-compatible bucket.
type S3Backend struct {
	Bucket          string
	Region          string
	BaseEndpoint    string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

func (S3Backend) Kind() Kind { return KindS3 }
func (b S3Backend) Validate() error {
	if b.Bucket == "" {
		return invalid(KindS3, "bucket is required")
	}
	if b.Region == "" {
		return invalid(KindS3, "region is required")
	}
	if (b.AccessKeyID == "") != (b.SecretAccessKey == "") {
		return invalid(KindS3, "access key id and secret access key must be set together")
	}
	return nil
}
func (S3Backend) backend() {}

// PostgresBackend stores blobs in a PostgreSQL table.
type PostgresBackend struct {
	DSN string
}

func (PostgresBackend) Kind() Kind { return KindPostgres }
func (b PostgresBackend) Validate() error {
	if b.DSN == "" {
		return invalid(KindPostgres, "dsn is required")
	}
	return nil
}
func (PostgresBackend) backend() {}

// SQLiteBackend stores blobs in a SQLite database file.
type SQLiteBackend struct {
	Path string
}

func (SQLiteBackend) Kind() Kind { return KindSQLite }
func (b SQLiteBackend) Validate() error {
	if b.Path == "" {
		return invalid(KindSQLite, "database path is required")
	}
	return nil
}
func (SQLiteBackend) backend() {}

// BadgerBackend stores blobs in an embedded badger database.
type BadgerBackend struct {
	Dir      string
	InMemory bool
}

func (BadgerBackend) Kind() Kind { return KindBadger }
func (b BadgerBackend) Validate() error {
	if b.Dir == "" && !b.InMemory {
		return invalid(KindBadger, "directory is required unless in-memory")
	}
	return nil
}
func (BadgerBackend) backend() {}

// RemoteBackend talks to a blobd server over gRPC.
type RemoteBackend struct {
	Address     string
	AccessToken string
}

func (RemoteBackend) Kind() Kind { return KindRemote }
func (b RemoteBackend) Validate() error {
	if b.Address == "" {
		return invalid(KindRemote, "address is required")
	}
	if b.AccessToken == "" {
		return invalid(KindRemote, "access token is required")
	}
	return nil
}
func (RemoteBackend) backend() {}
