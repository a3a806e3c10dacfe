package user

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The directory service exposes the identity predicates other services need.
// Messages are protobuf well-known wrappers, so no generated code is involved.
const (
	directoryServiceName = "konki.user.Directory"
	validateUserMethod   = "/konki.user.Directory/ValidateUser"
	isAdminMethod        = "/konki.user.Directory/IsAdmin"
)

type DirectoryServer interface {
	ValidateUser(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	IsAdmin(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// Directory implements DirectoryServer on top of the user Service.
type Directory struct {
	svc *Service
}

func NewDirectory(svc *Service) *Directory { return &Directory{svc: svc} }

func (d *Directory) ValidateUser(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	ok, err := d.svc.Exists(ctx, in.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "validate error: %v", err)
	}
	return wrapperspb.Bool(ok), nil
}

func (d *Directory) IsAdmin(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if in.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	ok, err := d.svc.IsAdmin(ctx, in.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "admin check error: %v", err)
	}
	return wrapperspb.Bool(ok), nil
}

func RegisterDirectoryServer(s grpc.ServiceRegistrar, srv DirectoryServer) {
	s.RegisterService(&directoryServiceDesc, srv)
}

func unaryHandler(method string, call func(DirectoryServer, context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DirectoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DirectoryServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var directoryServiceDesc = grpc.ServiceDesc{
	ServiceName: directoryServiceName,
	HandlerType: (*DirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ValidateUser",
			Handler:    unaryHandler(validateUserMethod, DirectoryServer.ValidateUser),
		},
		{
			MethodName: "IsAdmin",
			Handler:    unaryHandler(isAdminMethod, DirectoryServer.IsAdmin),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "konki/user/directory",
}

// DirectoryClient calls the directory service over a client connection.
type DirectoryClient struct {
	cc grpc.ClientConnInterface
}

func NewDirectoryClient(cc grpc.ClientConnInterface) *DirectoryClient {
	return &DirectoryClient{cc: cc}
}

func (c *DirectoryClient) ValidateUser(ctx context.Context, id string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, validateUserMethod, wrapperspb.String(id), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *DirectoryClient) IsAdmin(ctx context.Context, id string) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, isAdminMethod, wrapperspb.String(id), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
