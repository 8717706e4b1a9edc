package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/server/auth"
	"github.com/dmitrijs2005/chankeys/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.Storage.StorageRoot = filepath.Join(t.TempDir(), "blobs")
	c.LogLevel = "error"
	return c
}

func TestIssueToken(t *testing.T) {
	c := testConfig(t)
	tok, err := IssueToken(c, "laptop")
	require.NoError(t, err)

	id, err := auth.GetClientIDFromToken(tok, []byte(c.SecretKey))
	require.NoError(t, err)
	assert.Equal(t, "laptop", id)
}

func TestNewApp_RunStopsOnCancel(t *testing.T) {
	c := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	app, err := NewApp(ctx, c)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}

func TestNewApp_BadLogLevel(t *testing.T) {
	c := testConfig(t)
	c.LogLevel = "loud"
	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_BadBackend(t *testing.T) {
	c := testConfig(t)
	c.Storage.Kind = "tape"
	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}
