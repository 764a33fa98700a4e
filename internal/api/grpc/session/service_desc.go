package session

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "proximityalarm.v1.SessionService"

// Full method names.
const (
	StartFullMethodName          = "/" + ServiceName + "/Start"
	StopFullMethodName           = "/" + ServiceName + "/Stop"
	GetStatusFullMethodName      = "/" + ServiceName + "/GetStatus"
	ReportLocationFullMethodName = "/" + ServiceName + "/ReportLocation"
	WatchStatusFullMethodName    = "/" + ServiceName + "/WatchStatus"
)

// SessionServiceServer is the server API for the session service.
type SessionServiceServer interface {
	Start(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Stop(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	ReportLocation(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	WatchStatus(req *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

// ServiceDesc describes the session service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Start",
			Handler:    startHandler,
		},
		{
			MethodName: "Stop",
			Handler:    stopHandler,
		},
		{
			MethodName: "GetStatus",
			Handler:    getStatusHandler,
		},
		{
			MethodName: "ReportLocation",
			Handler:    reportLocationHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchStatus",
			Handler:       watchStatusHandler,
			ServerStreams: true,
		},
	},
	Metadata: "proximityalarm/v1/session.proto",
}

// RegisterSessionServiceServer registers srv on registrar.
func RegisterSessionServiceServer(registrar grpc.ServiceRegistrar, srv SessionServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts one unary method to the grpc.MethodDesc handler shape.
func unaryHandler[Req any, PReq interface {
	*Req
}, Resp any](
	fullMethod string,
	call func(srv SessionServiceServer, ctx context.Context, req PReq) (Resp, error),
) grpc.MethodHandler {
	return func(
		srv any,
		ctx context.Context,
		dec func(any) error,
		interceptor grpc.UnaryServerInterceptor,
	) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(SessionServiceServer), ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SessionServiceServer), ctx, req.(PReq)) //nolint:forcetypeassert // Guaranteed by dec.
		}

		return interceptor(ctx, in, info, handler)
	}
}

//nolint:gochecknoglobals // Handlers referenced by ServiceDesc.
var (
	startHandler = unaryHandler[structpb.Struct](StartFullMethodName,
		func(srv SessionServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
			return srv.Start(ctx, req)
		})
	stopHandler = unaryHandler[emptypb.Empty](StopFullMethodName,
		func(srv SessionServiceServer, ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
			return srv.Stop(ctx, req)
		})
	getStatusHandler = unaryHandler[emptypb.Empty](GetStatusFullMethodName,
		func(srv SessionServiceServer, ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
			return srv.GetStatus(ctx, req)
		})
	reportLocationHandler = unaryHandler[structpb.Struct](ReportLocationFullMethodName,
		func(srv SessionServiceServer, ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
			return srv.ReportLocation(ctx, req)
		})
)

func watchStatusHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	return srv.(SessionServiceServer).WatchStatus( //nolint:forcetypeassert // Guaranteed by HandlerType.
		in,
		&grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream},
	)
}

// SessionServiceClient is the client API for the session service.
type SessionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSessionServiceClient creates a client over cc.
func NewSessionServiceClient(cc grpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

// Start invokes Start.
func (c *SessionServiceClient) Start(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, StartFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Stop invokes Stop.
func (c *SessionServiceClient) Stop(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, StopFullMethodName, in, new(emptypb.Empty), opts...)
}

// GetStatus invokes GetStatus.
func (c *SessionServiceClient) GetStatus(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusFullMethodName, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// ReportLocation invokes ReportLocation.
func (c *SessionServiceClient) ReportLocation(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, ReportLocationFullMethodName, in, new(emptypb.Empty), opts...)
}

// WatchStatus opens the status stream.
func (c *SessionServiceClient) WatchStatus(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], WatchStatusFullMethodName, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err = x.SendMsg(in); err != nil {
		return nil, err
	}

	if err = x.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}
