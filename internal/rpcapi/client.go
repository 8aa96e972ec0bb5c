package rpcapi

import (
	"context"

	"google.golang.org/grpc"
)

// ControlClient is the hand-written equivalent of the client stub
// protoc-gen-go-grpc would emit for ControlServer.
type ControlClient interface {
	CreateChannel(ctx context.Context, in *CreateChannelRequest) (*ChannelReply, error)
	StartChannel(ctx context.Context, in *ChannelIDRequest) (*ChannelStateReply, error)
	StopChannel(ctx context.Context, in *ChannelIDRequest) (*ChannelStateReply, error)
	RemoveChannel(ctx context.Context, in *ChannelIDRequest) (*Empty, error)

	AddSource(ctx context.Context, in *AddSourceRequest) (*SourceReply, error)
	RemoveSource(ctx context.Context, in *SourceIDRequest) (*Empty, error)

	CreateSubscription(ctx context.Context, in *CreateSubscriptionRequest) (*SubscriptionReply, error)
	RemoveSubscription(ctx context.Context, in *RemoveSubscriptionRequest) (*Empty, error)
	MuteSubscription(ctx context.Context, in *MuteRequest) (*Empty, error)
	UnmuteSubscription(ctx context.Context, in *SubscriptionReply) (*Empty, error)

	Stats(ctx context.Context, in *Empty) (*StatsReply, error)
	Ping(ctx context.Context, in *Empty) (*PingReply, error)
	Version(ctx context.Context, in *Empty) (*VersionReply, error)
	ListPlugins(ctx context.Context, in *Empty) (*ListPluginsReply, error)

	Subscribe(ctx context.Context, in *SubscribeRequest) (ControlSubscribeClient, error)
}

// ControlSubscribeClient is the client-side stream handle for Subscribe.
type ControlSubscribeClient interface {
	Recv() (*Event, error)
	grpc.ClientStream
}

type controlClient struct {
	cc *grpc.ClientConn
}

// NewControlClient wraps cc, dispatching every call through the JSON codec
// via grpc.CallContentSubtype so the gRPC wire carries no protobuf bytes.
func NewControlClient(cc *grpc.ClientConn) ControlClient {
	return &controlClient{cc: cc}
}

func (c *controlClient) callOpts() []grpc.CallOption {
	return []grpc.CallOption{grpc.CallContentSubtype(Name)}
}

func (c *controlClient) CreateChannel(ctx context.Context, in *CreateChannelRequest) (*ChannelReply, error) {
	out := new(ChannelReply)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/CreateChannel", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) StartChannel(ctx context.Context, in *ChannelIDRequest) (*ChannelStateReply, error) {
	out := new(ChannelStateReply)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/StartChannel", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) StopChannel(ctx context.Context, in *ChannelIDRequest) (*ChannelStateReply, error) {
	out := new(ChannelStateReply)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/StopChannel", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) RemoveChannel(ctx context.Context, in *ChannelIDRequest) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/RemoveChannel", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) AddSource(ctx context.Context, in *AddSourceRequest) (*SourceReply, error) {
	out := new(SourceReply)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/AddSource", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) RemoveSource(ctx context.Context, in *SourceIDRequest) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/RemoveSource", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) CreateSubscription(ctx context.Context, in *CreateSubscriptionRequest) (*SubscriptionReply, error) {
	out := new(SubscriptionReply)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/CreateSubscription", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) RemoveSubscription(ctx context.Context, in *RemoveSubscriptionRequest) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/RemoveSubscription", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) MuteSubscription(ctx context.Context, in *MuteRequest) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/MuteSubscription", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) UnmuteSubscription(ctx context.Context, in *SubscriptionReply) (*Empty, error) {
	out := new(Empty)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/UnmuteSubscription", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) Stats(ctx context.Context, in *Empty) (*StatsReply, error) {
	out := new(StatsReply)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Stats", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) Ping(ctx context.Context, in *Empty) (*PingReply, error) {
	out := new(PingReply)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Ping", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) Version(ctx context.Context, in *Empty) (*VersionReply, error) {
	out := new(VersionReply)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/Version", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) ListPlugins(ctx context.Context, in *Empty) (*ListPluginsReply, error) {
	out := new(ListPluginsReply)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/ListPlugins", in, out, c.callOpts()...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *controlClient) Subscribe(ctx context.Context, in *SubscribeRequest) (ControlSubscribeClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/Subscribe", c.callOpts()...)
	if err != nil {
		return nil, err
	}
	cs := &controlSubscribeClient{stream}
	if err := cs.SendMsg(in); err != nil {
		return nil, err
	}
	if err := cs.CloseSend(); err != nil {
		return nil, err
	}
	return cs, nil
}

type controlSubscribeClient struct {
	grpc.ClientStream
}

func (c *controlSubscribeClient) Recv() (*Event, error) {
	m := new(Event)
	if err := c.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
