package blobrpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "chankeys.blobstore.BlobStore"

// Full method names, as seen by interceptors.
const (
	MethodPut    = "/" + ServiceName + "/Put"
	MethodGet    = "/" + ServiceName + "/Get"
	MethodList   = "/" + ServiceName + "/List"
	MethodDelete = "/" + ServiceName + "/Delete"
	MethodPing   = "/" + ServiceName + "/Ping"
)

// BlobStoreServer is implemented by blobd.
type BlobStoreServer interface {
	Put(context.Context, *PutRequest) (*PutResponse, error)
	Get(context.Context, *GetRequest) (*GetResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

func RegisterBlobStoreServer(s grpc.ServiceRegistrar, srv BlobStoreServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req any, Resp any](fullMethod string, call func(BlobStoreServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BlobStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BlobStoreServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BlobStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Put", Handler: unary(MethodPut, BlobStoreServer.Put)},
		{MethodName: "Get", Handler: unary(MethodGet, BlobStoreServer.Get)},
		{MethodName: "List", Handler: unary(MethodList, BlobStoreServer.List)},
		{MethodName: "Delete", Handler: unary(MethodDelete, BlobStoreServer.Delete)},
		{MethodName: "Ping", Handler: unary(MethodPing, BlobStoreServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blobstore.json",
}

// BlobStoreClient is a typed client for the service.
type BlobStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewBlobStoreClient(cc grpc.ClientConnInterface) *BlobStoreClient {
	return &BlobStoreClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BlobStoreClient) Put(ctx context.Context, in *PutRequest, opts ...grpc.CallOption) (*PutResponse, error) {
	return invoke[PutResponse](ctx, c.cc, MethodPut, in, opts)
}

func (c *BlobStoreClient) Get(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*GetResponse, error) {
	return invoke[GetResponse](ctx, c.cc, MethodGet, in, opts)
}

func (c *BlobStoreClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.cc, MethodList, in, opts)
}

func (c *BlobStoreClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, MethodDelete, in, opts)
}

func (c *BlobStoreClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}
