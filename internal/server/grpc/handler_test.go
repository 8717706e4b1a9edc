package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/chankeys/internal/blobrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestPing_ReportsBackend(t *testing.T) {
	s := newTestServer("k")
	resp, err := s.Ping(context.Background(), &blobrpc.PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "memory", resp.Backend)
}

func TestHandlers_RoundTrip(t *testing.T) {
	s := newTestServer("k")
	ctx := context.Background()

	put, err := s.Put(ctx, &blobrpc.PutRequest{Collection: "encryption/c1", Key: "key-u1.json", Data: []byte("{}")})
	require.NoError(t, err)
	assert.Equal(t, "memory://encryption/c1/key-u1.json", put.Location)

	get, err := s.Get(ctx, &blobrpc.GetRequest{Collection: "encryption/c1", Key: "key-u1.json"})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(get.Data))

	list, err := s.List(ctx, &blobrpc.ListRequest{Collection: "encryption/c1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"key-u1.json"}, list.Keys)

	del, err := s.Delete(ctx, &blobrpc.DeleteRequest{Collection: "encryption/c1", Key: "key-u1.json"})
	require.NoError(t, err)
	assert.True(t, del.Deleted)
}

func TestHandlers_ErrorCodes(t *testing.T) {
	s := newTestServer("k")
	ctx := context.Background()

	_, err := s.Get(ctx, &blobrpc.GetRequest{Collection: "c", Key: "missing"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = s.Put(ctx, &blobrpc.PutRequest{Collection: "../c", Key: "k"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.List(ctx, &blobrpc.ListRequest{Collection: ""})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
