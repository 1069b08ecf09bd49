package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "workly.v1.AuthService"

	methodRegister   = "/" + ServiceName + "/Register"
	methodLogin      = "/" + ServiceName + "/Login"
	methodRefresh    = "/" + ServiceName + "/Refresh"
	methodLogout     = "/" + ServiceName + "/Logout"
	methodGetProfile = "/" + ServiceName + "/GetProfile"
)

// AuthServiceServer is implemented by GRPCServer.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*UserResponse, error)
	Login(context.Context, *LoginRequest) (*SessionResponse, error)
	Refresh(context.Context, *RefreshRequest) (*SessionResponse, error)
	Logout(context.Context, *LogoutRequest) (*Empty, error)
	GetProfile(context.Context, *GetProfileRequest) (*UserResponse, error)
}

// unaryHandler adapts a typed method to grpc.MethodHandler.
func unaryHandler[Req any, Resp any](method string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(methodRegister, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(methodLogin, AuthServiceServer.Login)},
		{MethodName: "Refresh", Handler: unaryHandler(methodRefresh, AuthServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unaryHandler(methodLogout, AuthServiceServer.Logout)},
		{MethodName: "GetProfile", Handler: unaryHandler(methodGetProfile, AuthServiceServer.GetProfile)},
	},
	Streams: []grpc.StreamDesc{},
}
