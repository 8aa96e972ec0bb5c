package rpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/perfkit/agent/internal/rpcapi"
)

// Client is the CLI-facing wrapper cmd/ talks to: a thin veneer over
// rpcapi.ControlClient that dials the daemon's Unix-domain socket.
type Client struct {
	conn   *grpc.ClientConn
	client rpcapi.ControlClient
}

// NewClient dials socketPath, blocking up to 3s for the connection to come
// up (the daemon may still be starting).
func NewClient(socketPath string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		ctx,
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(rpcapi.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("rpc: connect to daemon at %s: %w", socketPath, err)
	}

	return &Client{conn: conn, client: rpcapi.NewControlClient(conn)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Ping returns the daemon's uptime and current instant.
func (c *Client) Ping(ctx context.Context) (uptime time.Duration, at string, err error) {
	reply, err := c.client.Ping(ctx, &rpcapi.Empty{})
	if err != nil {
		return 0, "", err
	}
	return time.Duration(reply.UptimeMS) * time.Millisecond, reply.At, nil
}

// Version returns the daemon's version and hostname.
func (c *Client) Version(ctx context.Context) (version, hostname string, err error) {
	reply, err := c.client.Version(ctx, &rpcapi.Empty{})
	if err != nil {
		return "", "", err
	}
	return reply.Version, reply.Hostname, nil
}

// Stats returns the current channel/source/subscription registry sizes.
func (c *Client) Stats(ctx context.Context) (*rpcapi.StatsReply, error) {
	return c.client.Stats(ctx, &rpcapi.Empty{})
}

// ListPlugins returns the registered source/encoder kinds.
func (c *Client) ListPlugins(ctx context.Context) ([]rpcapi.PluginInfo, error) {
	reply, err := c.client.ListPlugins(ctx, &rpcapi.Empty{})
	if err != nil {
		return nil, err
	}
	return reply.Plugins, nil
}

// CreateChannel registers a new channel and returns its id.
func (c *Client) CreateChannel(ctx context.Context, req *rpcapi.CreateChannelRequest) (int, error) {
	reply, err := c.client.CreateChannel(ctx, req)
	if err != nil {
		return 0, err
	}
	return reply.ChannelID, nil
}

// StartChannel starts channelID and returns its post-start state.
func (c *Client) StartChannel(ctx context.Context, channelID int) (*rpcapi.ChannelStateReply, error) {
	return c.client.StartChannel(ctx, &rpcapi.ChannelIDRequest{ChannelID: channelID})
}

// StopChannel stops channelID and returns its post-stop state.
func (c *Client) StopChannel(ctx context.Context, channelID int) (*rpcapi.ChannelStateReply, error) {
	return c.client.StopChannel(ctx, &rpcapi.ChannelIDRequest{ChannelID: channelID})
}

// AddSource binds a named source kind to channelID.
func (c *Client) AddSource(ctx context.Context, kind string, channelID int) (int, error) {
	reply, err := c.client.AddSource(ctx, &rpcapi.AddSourceRequest{Kind: kind, ChannelID: channelID})
	if err != nil {
		return 0, err
	}
	return reply.SourceID, nil
}

// CreateSubscription attaches a new, muted subscription to channelID.
func (c *Client) CreateSubscription(ctx context.Context, req *rpcapi.CreateSubscriptionRequest) (int, error) {
	reply, err := c.client.CreateSubscription(ctx, req)
	if err != nil {
		return 0, err
	}
	return reply.SubscriptionID, nil
}

// Subscribe opens the streaming feed for a subscription's delivered buffers.
func (c *Client) Subscribe(ctx context.Context, subscriptionID int) (rpcapi.ControlSubscribeClient, error) {
	return c.client.Subscribe(ctx, &rpcapi.SubscribeRequest{SubscriptionID: subscriptionID})
}
