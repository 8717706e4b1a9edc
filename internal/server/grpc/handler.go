package grpc

import (
	"context"

	"github.com/dmitrijs2005/chankeys/internal/blobrpc"
)

func (s *GRPCServer) Put(ctx context.Context, req *blobrpc.PutRequest) (*blobrpc.PutResponse, error) {
	loc, err := s.store.Put(ctx, req.Key, req.Data, req.Collection)
	if err != nil {
		s.logger.Error(ctx, "put failed", "client_id", clientIDFromContext(ctx), "collection", req.Collection, "key", req.Key, "error", err)
		return nil, blobrpc.ToStatus(err)
	}
	s.logger.Info(ctx, "put", "client_id", clientIDFromContext(ctx), "collection", req.Collection, "key", req.Key, "size", len(req.Data))
	return &blobrpc.PutResponse{Location: string(loc)}, nil
}

func (s *GRPCServer) Get(ctx context.Context, req *blobrpc.GetRequest) (*blobrpc.GetResponse, error) {
	data, err := s.store.Get(ctx, req.Key, req.Collection)
	if err != nil {
		s.logger.Debug(ctx, "get failed", "client_id", clientIDFromContext(ctx), "collection", req.Collection, "key", req.Key, "error", err)
		return nil, blobrpc.ToStatus(err)
	}
	return &blobrpc.GetResponse{Data: data}, nil
}

func (s *GRPCServer) List(ctx context.Context, req *blobrpc.ListRequest) (*blobrpc.ListResponse, error) {
	keys, err := s.store.List(ctx, req.Collection)
	if err != nil {
		s.logger.Error(ctx, "list failed", "client_id", clientIDFromContext(ctx), "collection", req.Collection, "error", err)
		return nil, blobrpc.ToStatus(err)
	}
	return &blobrpc.ListResponse{Keys: keys}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *blobrpc.DeleteRequest) (*blobrpc.DeleteResponse, error) {
	ok, err := s.store.Delete(ctx, req.Key, req.Collection)
	if err != nil {
		s.logger.Error(ctx, "delete failed", "client_id", clientIDFromContext(ctx), "collection", req.Collection, "key", req.Key, "error", err)
		return nil, blobrpc.ToStatus(err)
	}
	s.logger.Info(ctx, "delete", "client_id", clientIDFromContext(ctx), "collection", req.Collection, "key", req.Key, "deleted", ok)
	return &blobrpc.DeleteResponse{Deleted: ok}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *blobrpc.PingRequest) (*blobrpc.PingResponse, error) {
	return &blobrpc.PingResponse{Backend: string(s.backend)}, nil
}
