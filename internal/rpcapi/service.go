package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the gRPC full service name, matching the
// "<package>.<Service>" convention protoc-gen-go-grpc would have produced
// from a perfkit.proto.
const ServiceName = "perfkit.Control"

// ControlServer is the set of RPCs the daemon implements. internal/rpc.Server
// wraps *manager.Manager to satisfy this interface.
type ControlServer interface {
	CreateChannel(context.Context, *CreateChannelRequest) (*ChannelReply, error)
	StartChannel(context.Context, *ChannelIDRequest) (*ChannelStateReply, error)
	StopChannel(context.Context, *ChannelIDRequest) (*ChannelStateReply, error)
	RemoveChannel(context.Context, *ChannelIDRequest) (*Empty, error)

	AddSource(context.Context, *AddSourceRequest) (*SourceReply, error)
	RemoveSource(context.Context, *SourceIDRequest) (*Empty, error)

	CreateSubscription(context.Context, *CreateSubscriptionRequest) (*SubscriptionReply, error)
	RemoveSubscription(context.Context, *RemoveSubscriptionRequest) (*Empty, error)
	MuteSubscription(context.Context, *MuteRequest) (*Empty, error)
	UnmuteSubscription(context.Context, *SubscriptionReply) (*Empty, error)

	Stats(context.Context, *Empty) (*StatsReply, error)
	Ping(context.Context, *Empty) (*PingReply, error)
	Version(context.Context, *Empty) (*VersionReply, error)
	ListPlugins(context.Context, *Empty) (*ListPluginsReply, error)

	Subscribe(*SubscribeRequest, ControlSubscribeServer) error
}

// ControlSubscribeServer is the server-side stream handle for Subscribe,
// mirroring the shape protoc-gen-go-grpc emits for a server-streaming RPC.
type ControlSubscribeServer interface {
	Send(*Event) error
	grpc.ServerStream
}

type controlSubscribeServer struct {
	grpc.ServerStream
}

func (s *controlSubscribeServer) Send(e *Event) error {
	return s.ServerStream.SendMsg(e)
}

func _Control_CreateChannel_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateChannelRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).CreateChannel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/CreateChannel"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).CreateChannel(ctx, req.(*CreateChannelRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_StartChannel_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ChannelIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).StartChannel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/StartChannel"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).StartChannel(ctx, req.(*ChannelIDRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_StopChannel_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ChannelIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).StopChannel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/StopChannel"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).StopChannel(ctx, req.(*ChannelIDRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_RemoveChannel_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ChannelIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).RemoveChannel(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/RemoveChannel"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).RemoveChannel(ctx, req.(*ChannelIDRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_AddSource_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AddSourceRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).AddSource(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/AddSource"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).AddSource(ctx, req.(*AddSourceRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_RemoveSource_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SourceIDRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).RemoveSource(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/RemoveSource"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).RemoveSource(ctx, req.(*SourceIDRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_CreateSubscription_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateSubscriptionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).CreateSubscription(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/CreateSubscription"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).CreateSubscription(ctx, req.(*CreateSubscriptionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_RemoveSubscription_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RemoveSubscriptionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).RemoveSubscription(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/RemoveSubscription"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).RemoveSubscription(ctx, req.(*RemoveSubscriptionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_MuteSubscription_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(MuteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).MuteSubscription(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/MuteSubscription"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).MuteSubscription(ctx, req.(*MuteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_UnmuteSubscription_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SubscriptionReply)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).UnmuteSubscription(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/UnmuteSubscription"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).UnmuteSubscription(ctx, req.(*SubscriptionReply))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_Stats_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Stats"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Stats(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_Ping_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Ping(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Ping"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Ping(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_Version_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).Version(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Version"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).Version(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_ListPlugins_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ControlServer).ListPlugins(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/ListPlugins"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ControlServer).ListPlugins(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Control_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	in := new(SubscribeRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ControlServer).Subscribe(in, &controlSubscribeServer{stream})
}

// ServiceDesc is the hand-written equivalent of the grpc.ServiceDesc a
// perfkit.proto would generate via protoc-gen-go-grpc.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateChannel", Handler: _Control_CreateChannel_Handler},
		{MethodName: "StartChannel", Handler: _Control_StartChannel_Handler},
		{MethodName: "StopChannel", Handler: _Control_StopChannel_Handler},
		{MethodName: "RemoveChannel", Handler: _Control_RemoveChannel_Handler},
		{MethodName: "AddSource", Handler: _Control_AddSource_Handler},
		{MethodName: "RemoveSource", Handler: _Control_RemoveSource_Handler},
		{MethodName: "CreateSubscription", Handler: _Control_CreateSubscription_Handler},
		{MethodName: "RemoveSubscription", Handler: _Control_RemoveSubscription_Handler},
		{MethodName: "MuteSubscription", Handler: _Control_MuteSubscription_Handler},
		{MethodName: "UnmuteSubscription", Handler: _Control_UnmuteSubscription_Handler},
		{MethodName: "Stats", Handler: _Control_Stats_Handler},
		{MethodName: "Ping", Handler: _Control_Ping_Handler},
		{MethodName: "Version", Handler: _Control_Version_Handler},
		{MethodName: "ListPlugins", Handler: _Control_ListPlugins_Handler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Subscribe", Handler: _Control_Subscribe_Handler, ServerStreams: true},
	},
	Metadata: "perfkit.proto",
}
