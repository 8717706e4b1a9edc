// Package backends opens a blobstore.Store for any configured backend.
package backends

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/badgerstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/fsstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/memstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/remotestore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/s3store"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/sqlstore"
	"github.com/dmitrijs2005/chankeys/internal/logging"
	"github.com/sirupsen/logrus"
)

// Open validates b and returns the matching store.
func Open(ctx context.Context, b blobstore.Backend, logger logging.Logger) (blobstore.Store, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: no backend", blobstore.ErrInvalidBackend)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	logger = logger.With("module", "blobstore", "backend", string(b.Kind()))

	var (
		s   blobstore.Store
		err error
	)
	switch cfg := b.(type) {
	case blobstore.MemoryBackend:
		s = memstore.New()
	case blobstore.FilesystemBackend:
		s, err = fsstore.New(cfg.Root)
	case blobstore.S3Backend:
		s, err = s3store.New(ctx, cfg)
	case blobstore.PostgresBackend:
		s, err = sqlstore.OpenPostgres(ctx, cfg)
	case blobstore.SQLiteBackend:
		s, err = sqlstore.OpenSQLite(ctx, cfg)
	case blobstore.BadgerBackend:
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		s, err = badgerstore.New(badgerstore.Config{Backend: cfg, Logger: l})
	case blobstore.RemoteBackend:
		s, err = remotestore.New(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported backend %T", blobstore.ErrInvalidBackend, b)
	}
	if err != nil {
		logger.Error(ctx, "open blob store failed", "error", err)
		return nil, err
	}

	logger.Debug(ctx, "blob store opened")
	return s, nil
}
