package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/memstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/remotestore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/storetest"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/logging"
	"github.com/dmitrijs2005/chankeys/internal/server/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", nopLogger{}, memstore.New(), "memory", "secret")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", nopLogger{}, memstore.New(), "memory", "secret")
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

// startBufconn serves a fresh memstore and returns a dialer for it.
func startBufconn(t *testing.T, secret string) func(token string) *remotestore.Store {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer("", nopLogger{}, memstore.New(), "memory", secret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return func(token string) *remotestore.Store {
		s, err := remotestore.New(
			blobstore.RemoteBackend{Address: "passthrough:///bufnet", AccessToken: token},
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
		)
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	}
}

func TestRemoteStore_Contract(t *testing.T) {
	secret := "secret"
	tok, err := auth.GenerateToken("test-client", []byte(secret), time.Hour)
	require.NoError(t, err)

	storetest.Run(t, func(t *testing.T) blobstore.Store {
		return startBufconn(t, secret)(tok)
	})
}

func TestRemoteStore_Ping(t *testing.T) {
	dial := startBufconn(t, "secret")
	s := dial("anything")

	kind, err := s.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "memory", kind)
}

func TestRemoteStore_BadToken(t *testing.T) {
	dial := startBufconn(t, "secret")
	tok, err := auth.GenerateToken("c", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	s := dial(tok)

	_, err = s.Get(context.Background(), "k", "c")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}
