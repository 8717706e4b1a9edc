// Package session wires the key manager, content cipher and blob store for
// one CLI invocation.
package session

import (
	"context"
	"io"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/backends"
	"github.com/dmitrijs2005/chankeys/internal/channelkeys"
	"github.com/dmitrijs2005/chankeys/internal/client/config"
	"github.com/dmitrijs2005/chankeys/internal/contentcipher"
	"github.com/dmitrijs2005/chankeys/internal/identity"
	"github.com/dmitrijs2005/chankeys/internal/keycache"
	"github.com/dmitrijs2005/chankeys/internal/logging"
)

type Session struct {
	Config   *config.Config
	Logger   logging.Logger
	Identity *identity.Local
	Store    blobstore.Store
	Keys     *channelkeys.Manager
	Cipher   *contentcipher.Cipher
}

// NewLogger builds the CLI logger writing to w.
func NewLogger(cfg *config.Config, w io.Writer) (logging.Logger, error) {
	return logging.New(w, cfg.LogLevel, cfg.LogFormat)
}

// OpenIdentity returns the local identity without touching the store.
func OpenIdentity(cfg *config.Config, passphrase []byte) (*identity.Local, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return identity.NewLocal(cfg.KeysDir, cfg.UserID, identity.WithPassphrase(passphrase))
}

// Open validates cfg, opens the configured blob store and builds a key
// manager with an empty cache.
func Open(ctx context.Context, cfg *config.Config, passphrase []byte, logger logging.Logger) (*Session, error) {
	id, err := OpenIdentity(cfg, passphrase)
	if err != nil {
		return nil, err
	}
	b, err := cfg.Backend()
	if err != nil {
		return nil, err
	}
	store, err := backends.Open(ctx, b, logger)
	if err != nil {
		return nil, err
	}

	keys := channelkeys.NewManager(id, store, keycache.New(), logger)
	logger.Debug(ctx, "session opened", "user_id", cfg.UserID, "backend", string(b.Kind()))

	return &Session{
		Config:   cfg,
		Logger:   logger,
		Identity: id,
		Store:    store,
		Keys:     keys,
		Cipher:   contentcipher.New(keys, logger),
	}, nil
}

// Close wipes cached keys and releases the store.
func (s *Session) Close() error {
	s.Keys.Close()
	return s.Store.Close()
}
