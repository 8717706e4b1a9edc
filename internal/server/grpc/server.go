// Package grpc serves a blobstore.Store over the BlobStore gRPC service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/chankeys/internal/blobrpc"
	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/logging"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	store     blobstore.Store
	backend   blobstore.Kind
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, store blobstore.Store, backend blobstore.Kind, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		store:     store,
		backend:   backend,
		jwtSecret: []byte(secretKey),
	}
}

// NewServer builds a *grpc.Server with the service and auth interceptor
// registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(s.accessTokenInterceptor)}, opts...)
	srv := grpc.NewServer(opts...)
	blobrpc.RegisterBlobStoreServer(srv, s)
	return srv
}

// Run listens on the configured address until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String(), "backend", string(s.backend))

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
