package blobstore

import (
	"testing"

	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		collection string
		wantErr    bool
	}{
		{"ok", "key-u1.json", "encryption/c1", false},
		{"single segment collection", "k", "c", false},
		{"empty key", "", "encryption/c1", true},
		{"key with slash", "a/b", "encryption/c1", true},
		{"dotdot key", "..", "encryption/c1", true},
		{"empty collection", "k", "", true},
		{"absolute collection", "k", "/etc", true},
		{"dotdot collection", "k", "encryption/../x", true},
		{"trailing slash", "k", "encryption/", true},
		{"backslash", "k", `encryption\c1`, true},
		{"control char", "k\n", "encryption/c1", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.key, tt.collection)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSegment(t *testing.T) {
	assert.NoError(t, ValidateSegment("channel-1"))
	assert.ErrorIs(t, ValidateSegment("a/b"), common.ErrInvalidIdentifier)
	assert.ErrorIs(t, ValidateSegment("."), common.ErrInvalidIdentifier)
	assert.ErrorIs(t, ValidateSegment(""), common.ErrInvalidIdentifier)
}

func TestChildName(t *testing.T) {
	assert.Equal(t, "k.json", ChildName("encryption/c1/k.json", "encryption/c1"))
	assert.Equal(t, "", ChildName("encryption/c1/sub/k.json", "encryption/c1"))
	assert.Equal(t, "", ChildName("encryption/c10/k.json", "encryption/c1"))
	assert.Equal(t, "", ChildName("encryption/c1/", "encryption/c1"))
	assert.Equal(t, "encryption/c1/k", ObjectName("k", "encryption/c1"))
}

func TestBackend_Validate(t *testing.T) {
	tests := []struct {
		name    string
		b       Backend
		kind    Kind
		wantErr bool
	}{
		{"memory", MemoryBackend{}, KindMemory, false},
		{"fs ok", FilesystemBackend{Root: "/tmp/x"}, KindFilesystem, false},
		{"fs missing root", FilesystemBackend{}, KindFilesystem, true},
		{"s3 ok", S3Backend{Bucket: "b", Region: "us-east-1"}, KindS3, false},
		{"s3 no bucket", S3Backend{Region: "us-east-1"}, KindS3, true},
		{"s3 no region", S3Backend{Bucket: "b"}, KindS3, true},
		{"s3 half credentials", S3Backend{Bucket: "b", Region: "r", AccessKeyID: "id"}, KindS3, true},
		{"postgres", PostgresBackend{DSN: "postgres://x"}, KindPostgres, false},
		{"postgres no dsn", PostgresBackend{}, KindPostgres, true},
		{"sqlite", SQLiteBackend{Path: "a.db"}, KindSQLite, false},
		{"sqlite no path", SQLiteBackend{}, KindSQLite, true},
		{"badger dir", BadgerBackend{Dir: "/tmp/b"}, KindBadger, false},
		{"badger memory", BadgerBackend{InMemory: true}, KindBadger, false},
		{"badger empty", BadgerBackend{}, KindBadger, true},
		{"remote", RemoteBackend{Address: "localhost:1", AccessToken: "t"}, KindRemote, false},
		{"remote no token", RemoteBackend{Address: "localhost:1"}, KindRemote, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.b.Kind())
			err := tt.b.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidBackend)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
