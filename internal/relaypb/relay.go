// Package relaypb is the gRPC contract between clients and the relay peer.
// Every request and response body is a google.protobuf.Struct; the field
// names used by each method are listed next to the method constants.
package relaypb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "victory.relay.Relay"

const (
	MethodPing           = "Ping"           // {} -> {status}
	MethodGet            = "Get"            // {path} -> {found, value}
	MethodPut            = "Put"            // {path, value} -> {}
	MethodAdd            = "Add"            // {set, key, ref} -> {}
	MethodRemove         = "Remove"         // {set, key} -> {}
	MethodList           = "List"           // {set} -> {entries}
	MethodCreate         = "Create"         // {alias, password} -> {pub}
	MethodAuth           = "Auth"           // {alias, password} -> {alias, pub, handle}
	MethodChangePassword = "ChangePassword" // {alias, old, new} -> {}
	MethodRecall         = "Recall"         // {handle} -> {alias, pub, handle}
	MethodLeave          = "Leave"          // {} -> {}
	MethodPutPrivate     = "PutPrivate"     // {key, value} -> {}, handle in metadata
)

// FullMethod returns the method name as it appears on the wire.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type RelayServer interface {
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Get(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Put(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Add(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Remove(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Auth(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Recall(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Leave(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PutPrivate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type call func(RelayServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, fn call) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(RelayServer)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*structpb.Struct))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelayServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, RelayServer.Ping),
		unary(MethodGet, RelayServer.Get),
		unary(MethodPut, RelayServer.Put),
		unary(MethodAdd, RelayServer.Add),
		unary(MethodRemove, RelayServer.Remove),
		unary(MethodList, RelayServer.List),
		unary(MethodCreate, RelayServer.Create),
		unary(MethodAuth, RelayServer.Auth),
		unary(MethodChangePassword, RelayServer.ChangePassword),
		unary(MethodRecall, RelayServer.Recall),
		unary(MethodLeave, RelayServer.Leave),
		unary(MethodPutPrivate, RelayServer.PutPrivate),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "relay",
}

func RegisterRelayServer(s grpc.ServiceRegistrar, srv RelayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// RelayClient invokes relay methods over any client connection.
type RelayClient struct {
	cc grpc.ClientConnInterface
}

func NewRelayClient(cc grpc.ClientConnInterface) *RelayClient {
	return &RelayClient{cc: cc}
}

func (c *RelayClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
