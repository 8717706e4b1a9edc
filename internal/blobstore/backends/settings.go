package backends

import (
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
)

// Settings is the flat, file- and flag-friendly form of a backend choice.
// Only the fields of the selected Kind are used.
type Settings struct {
	Kind string `json:"storage_backend" yaml:"storage_backend"`

	StorageRoot string `json:"storage_root" yaml:"storage_root"`

	S3AccessKeyID     string `json:"s3_access_key_id" yaml:"s3_access_key_id"`
	S3SecretAccessKey string `json:"s3_secret_access_key" yaml:"s3_secret_access_key"`
	S3Bucket          string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region          string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint    string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3UsePathStyle    bool   `json:"s3_use_path_style" yaml:"s3_use_path_style"`

	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`
	SQLitePath  string `json:"sqlite_path" yaml:"sqlite_path"`

	BadgerDir      string `json:"badger_dir" yaml:"badger_dir"`
	BadgerInMemory bool   `json:"badger_in_memory" yaml:"badger_in_memory"`

	RemoteAddress     string `json:"remote_address" yaml:"remote_address"`
	RemoteAccessToken string `json:"remote_access_token" yaml:"remote_access_token"`
}

// Backend converts s into the typed union and validates it.
func (s Settings) Backend() (blobstore.Backend, error) {
	var b blobstore.Backend
	switch blobstore.Kind(s.Kind) {
	case blobstore.KindMemory:
		b = blobstore.MemoryBackend{}
	case blobstore.KindFilesystem:
		b = blobstore.FilesystemBackend{Root: s.StorageRoot}
	case blobstore.KindS3:
		b = blobstore.S3Backend{
			Bucket:          s.S3Bucket,
			Region:          s.S3Region,
			BaseEndpoint:    s.S3BaseEndpoint,
			AccessKeyID:     s.S3AccessKeyID,
			SecretAccessKey: s.S3SecretAccessKey,
			UsePathStyle:    s.S3UsePathStyle,
		}
	case blobstore.KindPostgres:
		b = blobstore.PostgresBackend{DSN: s.DatabaseDSN}
	case blobstore.KindSQLite:
		b = blobstore.SQLiteBackend{Path: s.SQLitePath}
	case blobstore.KindBadger:
		b = blobstore.BadgerBackend{Dir: s.BadgerDir, InMemory: s.BadgerInMemory}
	case blobstore.KindRemote:
		b = blobstore.RemoteBackend{Address: s.RemoteAddress, AccessToken: s.RemoteAccessToken}
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", blobstore.ErrInvalidBackend, s.Kind)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Overlay copies every non-zero field of o onto s.
func (s *Settings) Overlay(o Settings) {
	setString(&s.Kind, o.Kind)
	setString(&s.StorageRoot, o.StorageRoot)
	setString(&s.S3AccessKeyID, o.S3AccessKeyID)
	setString(&s.S3SecretAccessKey, o.S3SecretAccessKey)
	setString(&s.S3Bucket, o.S3Bucket)
	setString(&s.S3Region, o.S3Region)
	setString(&s.S3BaseEndpoint, o.S3BaseEndpoint)
	s.S3UsePathStyle = s.S3UsePathStyle || o.S3UsePathStyle
	setString(&s.DatabaseDSN, o.DatabaseDSN)
	setString(&s.SQLitePath, o.SQLitePath)
	setString(&s.BadgerDir, o.BadgerDir)
	s.BadgerInMemory = s.BadgerInMemory || o.BadgerInMemory
	setString(&s.RemoteAddress, o.RemoteAddress)
	setString(&s.RemoteAccessToken, o.RemoteAccessToken)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
