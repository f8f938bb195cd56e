package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "siteadmin.v1.AdminAuth"

const (
	LoginMethod  = "/" + ServiceName + "/Login"
	WhoAmIMethod = "/" + ServiceName + "/WhoAmI"
)

// AdminAuthServer is implemented by GRPCServer. Messages are
// google.protobuf.Struct values:
//
//	Login:  {email, password} -> {message, token}
//	WhoAmI: {}                -> {id}
type AdminAuthServer interface {
	Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	WhoAmI(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// AdminAuthServiceDesc describes the service for grpc.Server.RegisterService.
var AdminAuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdminAuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: unaryHandler(LoginMethod, AdminAuthServer.Login)},
		{MethodName: "WhoAmI", Handler: unaryHandler(WhoAmIMethod, AdminAuthServer.WhoAmI)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "siteadmin/v1/admin_auth.proto",
}

func unaryHandler(fullMethod string, call func(AdminAuthServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AdminAuthServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AdminAuthServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AdminAuthClient calls the AdminAuth service.
type AdminAuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminAuthClient(cc grpc.ClientConnInterface) *AdminAuthClient {
	return &AdminAuthClient{cc: cc}
}

func (c *AdminAuthClient) Login(ctx context.Context, email, password string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, LoginMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminAuthClient) WhoAmI(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, WhoAmIMethod, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
