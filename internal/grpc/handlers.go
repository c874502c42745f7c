package grpc

import (
	"context"
	"encoding/json"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeJamon/goEscrow/internal/rpc/rpc_types"
)

const (
	// QueryServiceName is the fully qualified gateway service name.
	QueryServiceName = "escrowd.v1.Query"

	// InvokeMethod is the full method name clients call.
	InvokeMethod = "/" + QueryServiceName + "/Invoke"
)

// QueryServer is the gateway service.
type QueryServer interface {
	Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func registerQueryServer(s *grpc.Server, srv QueryServer) {
	s.RegisterService(&queryServiceDesc, srv)
}

func queryInvokeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).Invoke(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: InvokeMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).Invoke(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var queryServiceDesc = grpc.ServiceDesc{
	ServiceName: QueryServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Invoke",
			Handler:    queryInvokeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "escrowd/v1/query.proto",
}

// Invoke runs one JSON-RPC method. The request is {method, params} where
// params is the positional parameter list; the response is {result}.
func (s *Server) Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	method := fields["method"].GetStringValue()
	if method == "" {
		return nil, status.Error(codes.InvalidArgument, "missing method")
	}

	var params json.RawMessage
	if v, ok := fields["params"]; ok {
		raw, err := v.MarshalJSON()
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid params: %v", err)
		}
		params = raw
	}

	rpcCtx := &rpc_types.RpcContext{
		Context:  ctx,
		Role:     s.roleFor(ctx),
		ClientIP: peerIP(ctx),
		Services: s.services,
	}
	result, rpcErr := s.registry.Execute(rpcCtx, method, params)
	if rpcErr != nil {
		return nil, toStatus(rpcErr)
	}

	value, err := toValue(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{"result": value}}, nil
}

func (s *Server) roleFor(ctx context.Context) rpc_types.Role {
	if s.config.AdminAll {
		return rpc_types.RoleAdmin
	}
	if ip := net.ParseIP(peerIP(ctx)); ip != nil && ip.IsLoopback() {
		return rpc_types.RoleAdmin
	}
	return rpc_types.RoleGuest
}

func peerIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}
