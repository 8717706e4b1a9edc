// Package remotestore is a blobstore.Store backed by a blobd server.
package remotestore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/blobrpc"
	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type Store struct {
	conn        *grpc.ClientConn
	client      *blobrpc.BlobStoreClient
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *Store) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, s.accessToken), method, req, reply, cc, opts...)
}

// New creates a client for b. Extra dial options are appended after the
// defaults (insecure transport, token interceptor).
func New(b blobstore.RemoteBackend, opts ...grpc.DialOption) (*Store, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	s := &Store{accessToken: b.AccessToken}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(b.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	s.conn = conn
	s.client = blobrpc.NewBlobStoreClient(conn)
	return s, nil
}

// mapError keeps the common sentinels visible to callers and marks transport
// failures as store unavailability.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if st, ok := status.FromError(err); ok && (st.Code() == codes.Unavailable || st.Code() == codes.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", common.ErrStoreUnavailable, st.Message())
	}
	return blobrpc.FromStatus(err)
}

// Ping checks connectivity and returns the server's backend kind.
func (s *Store) Ping(ctx context.Context) (string, error) {
	resp, err := s.client.Ping(ctx, &blobrpc.PingRequest{})
	if err != nil {
		return "", mapError(err)
	}
	return resp.Backend, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, collection string) (blobstore.Location, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return "", err
	}
	resp, err := s.client.Put(ctx, &blobrpc.PutRequest{Collection: collection, Key: key, Data: data})
	if err != nil {
		return "", mapError(err)
	}
	return blobstore.Location(resp.Location), nil
}

func (s *Store) Get(ctx context.Context, key, collection string) ([]byte, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return nil, err
	}
	resp, err := s.client.Get(ctx, &blobrpc.GetRequest{Collection: collection, Key: key})
	if err != nil {
		return nil, mapError(err)
	}
	if resp.Data == nil {
		return []byte{}, nil
	}
	return resp.Data, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]string, error) {
	if err := blobstore.ValidateCollection(collection); err != nil {
		return nil, err
	}
	resp, err := s.client.List(ctx, &blobrpc.ListRequest{Collection: collection})
	if err != nil {
		return nil, mapError(err)
	}
	if resp.Keys == nil {
		return []string{}, nil
	}
	return resp.Keys, nil
}

func (s *Store) Delete(ctx context.Context, key, collection string) (bool, error) {
	if err := blobstore.Validate(key, collection); err != nil {
		return false, err
	}
	resp, err := s.client.Delete(ctx, &blobrpc.DeleteRequest{Collection: collection, Key: key})
	if err != nil {
		return false, mapError(err)
	}
	return resp.Deleted, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}
