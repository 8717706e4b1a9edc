// Package server initializes and runs blobd: it opens the configured blob
// store backend, serves it over gRPC and shuts down gracefully on signals.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/backends"
	"github.com/dmitrijs2005/chankeys/internal/logging"
	"github.com/dmitrijs2005/chankeys/internal/server/auth"
	"github.com/dmitrijs2005/chankeys/internal/server/config"

	gs "github.com/dmitrijs2005/chankeys/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  blobstore.Store
	kind   blobstore.Kind
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	b, err := c.Backend()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	store, err := backends.Open(ctx, b, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	return &App{config: c, logger: logger, store: store, kind: b.Kind()}, nil
}

// IssueToken signs an access token for clientID with the configured secret
// and validity. No store is opened.
func IssueToken(c *config.Config, clientID string) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	return auth.GenerateToken(clientID, []byte(c.SecretKey), c.TokenValidityDuration)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.store, app.kind, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", string(app.kind))

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "close store", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
