// Package rpc is the one concrete transport binding shipped in this repo:
// a gRPC server over a Unix-domain socket, carrying the hand-written
// messages in internal/rpcapi over a JSON codec instead of protobuf wire
// bytes (see internal/rpcapi/codec.go). Server implements both
// rpcapi.ControlServer (the CLI-facing control RPCs) and listener.Listener
// (the Manager's push-delivery contract), so every subscription's buffers
// reach a connected Subscribe stream the moment the pipeline produces them.
package rpc

import (
	"context"
	"net"
	"os"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/perfkit/agent/internal/log"
	"github.com/perfkit/agent/internal/manager"
	"github.com/perfkit/agent/internal/procinfo"
	"github.com/perfkit/agent/internal/rpcapi"
)

// Server adapts a *manager.Manager to the gRPC control service and fans
// delivered buffers out to any Subscribe streams watching a subscription.
type Server struct {
	mgr        *manager.Manager
	socketPath string

	grpcServer *grpc.Server
	listener   net.Listener

	mu      sync.Mutex
	streams map[int][]chan *rpcapi.Event
}

// NewServer constructs a Server bound to mgr; Start opens socketPath and
// begins serving.
func NewServer(mgr *manager.Manager, socketPath string) *Server {
	return &Server{
		mgr:        mgr,
		socketPath: socketPath,
		streams:    make(map[int][]chan *rpcapi.Event),
	}
}

var _ rpcapi.ControlServer = (*Server)(nil)

// Start opens the Unix-domain socket and begins serving in a background
// goroutine. Implements listener.Listener.
func (s *Server) Start() error {
	_ = os.Remove(s.socketPath)
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	s.listener = ln

	s.grpcServer = grpc.NewServer()
	s.grpcServer.RegisterService(&rpcapi.ServiceDesc, s)

	go func() {
		if err := s.grpcServer.Serve(ln); err != nil {
			log.GetLogger().WithError(err).Warn("rpc: serve exited")
		}
	}()
	return nil
}

// Stop gracefully drains in-flight RPCs and removes the socket file.
// Implements listener.Listener.
func (s *Server) Stop() error {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
	return os.Remove(s.socketPath)
}

func (s *Server) ChannelAdded(channelID int)   { log.GetLogger().WithField("channel_id", channelID).Debug("rpc: channel added") }
func (s *Server) ChannelRemoved(channelID int) { log.GetLogger().WithField("channel_id", channelID).Debug("rpc: channel removed") }
func (s *Server) SourceAdded(sourceID int)     { log.GetLogger().WithField("source_id", sourceID).Debug("rpc: source added") }
func (s *Server) SourceRemoved(sourceID int)   { log.GetLogger().WithField("source_id", sourceID).Debug("rpc: source removed") }

func (s *Server) SubscriptionAdded(subscriptionID int) {
	log.GetLogger().WithField("subscription_id", subscriptionID).Debug("rpc: subscription added")
}

// SubscriptionRemoved closes and drops every Subscribe stream fan-out
// channel registered for subscriptionID.
func (s *Server) SubscriptionRemoved(subscriptionID int) {
	s.mu.Lock()
	chans := s.streams[subscriptionID]
	delete(s.streams, subscriptionID)
	s.mu.Unlock()
	for _, ch := range chans {
		close(ch)
	}
}

// DeliverManifest fans buf out to every stream watching subscriptionID.
// Implements listener.Listener.
func (s *Server) DeliverManifest(subscriptionID int, buf []byte) {
	s.fanOut(subscriptionID, rpcapi.EventManifest, buf)
}

// DeliverSample fans buf out to every stream watching subscriptionID.
// Implements listener.Listener.
func (s *Server) DeliverSample(subscriptionID int, buf []byte) {
	s.fanOut(subscriptionID, rpcapi.EventSample, buf)
}

func (s *Server) fanOut(subscriptionID int, kind rpcapi.EventKind, buf []byte) {
	s.mu.Lock()
	chans := s.streams[subscriptionID]
	s.mu.Unlock()

	ev := &rpcapi.Event{Kind: kind, SubscriptionID: subscriptionID, Payload: buf}
	for _, ch := range chans {
		select {
		case ch <- ev:
		default:
			log.GetLogger().WithField("subscription_id", subscriptionID).Warn("rpc: subscribe stream slow, dropping event")
		}
	}
}

func (s *Server) register(subscriptionID int) chan *rpcapi.Event {
	ch := make(chan *rpcapi.Event, 64)
	s.mu.Lock()
	s.streams[subscriptionID] = append(s.streams[subscriptionID], ch)
	s.mu.Unlock()
	return ch
}

func (s *Server) unregister(subscriptionID int, ch chan *rpcapi.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.streams[subscriptionID]
	for i, c := range list {
		if c == ch {
			s.streams[subscriptionID] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

// Subscribe streams every buffer delivered to a subscription until the
// client disconnects or the subscription is removed.
func (s *Server) Subscribe(req *rpcapi.SubscribeRequest, stream rpcapi.ControlSubscribeServer) error {
	ch := s.register(req.SubscriptionID)
	defer s.unregister(req.SubscriptionID, ch)

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.Send(ev); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

func (s *Server) CreateChannel(ctx context.Context, in *rpcapi.CreateChannelRequest) (*rpcapi.ChannelReply, error) {
	id := s.mgr.CreateChannel(procinfo.SpawnInfo{
		PID:        in.PID,
		Target:     in.Target,
		Args:       in.Args,
		Env:        in.Env,
		WorkingDir: in.WorkingDir,
		InheritEnv: in.InheritEnv,
		KillOnStop: in.KillOnStop,
	})
	return &rpcapi.ChannelReply{ChannelID: id}, nil
}

func (s *Server) channelState(channelID int) (*rpcapi.ChannelStateReply, error) {
	c, err := s.mgr.Channel(channelID)
	if err != nil {
		return nil, err
	}
	reply := &rpcapi.ChannelStateReply{State: c.State().String(), PID: c.Pid()}
	if code, ok := c.ExitStatus(); ok {
		reply.Exited = true
		reply.ExitCode = code
	}
	return reply, nil
}

func (s *Server) StartChannel(ctx context.Context, in *rpcapi.ChannelIDRequest) (*rpcapi.ChannelStateReply, error) {
	c, err := s.mgr.Channel(in.ChannelID)
	if err != nil {
		return nil, err
	}
	if err := c.Start(); err != nil {
		return nil, err
	}
	return s.channelState(in.ChannelID)
}

func (s *Server) StopChannel(ctx context.Context, in *rpcapi.ChannelIDRequest) (*rpcapi.ChannelStateReply, error) {
	c, err := s.mgr.Channel(in.ChannelID)
	if err != nil {
		return nil, err
	}
	if err := c.Stop(); err != nil {
		return nil, err
	}
	return s.channelState(in.ChannelID)
}

func (s *Server) RemoveChannel(ctx context.Context, in *rpcapi.ChannelIDRequest) (*rpcapi.Empty, error) {
	s.mgr.RemoveChannel(in.ChannelID)
	return &rpcapi.Empty{}, nil
}

func (s *Server) AddSource(ctx context.Context, in *rpcapi.AddSourceRequest) (*rpcapi.SourceReply, error) {
	id, err := s.mgr.AddSource(in.Kind, in.ChannelID)
	if err != nil {
		return nil, err
	}
	return &rpcapi.SourceReply{SourceID: id}, nil
}

func (s *Server) RemoveSource(ctx context.Context, in *rpcapi.SourceIDRequest) (*rpcapi.Empty, error) {
	if err := s.mgr.RemoveSource(in.SourceID); err != nil {
		return nil, err
	}
	return &rpcapi.Empty{}, nil
}

func (s *Server) CreateSubscription(ctx context.Context, in *rpcapi.CreateSubscriptionRequest) (*rpcapi.SubscriptionReply, error) {
	id, err := s.mgr.CreateSubscription(in.ChannelID, in.BufferMax, time.Duration(in.BufferTimeoutMS)*time.Millisecond, in.EncoderKind)
	if err != nil {
		return nil, err
	}
	return &rpcapi.SubscriptionReply{SubscriptionID: id}, nil
}

func (s *Server) RemoveSubscription(ctx context.Context, in *rpcapi.RemoveSubscriptionRequest) (*rpcapi.Empty, error) {
	if err := s.mgr.RemoveSubscription(in.SubscriptionID, in.Drain); err != nil {
		return nil, err
	}
	return &rpcapi.Empty{}, nil
}

func (s *Server) MuteSubscription(ctx context.Context, in *rpcapi.MuteRequest) (*rpcapi.Empty, error) {
	sub, err := s.mgr.Subscription(in.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub.Mute(in.Drain)
	return &rpcapi.Empty{}, nil
}

func (s *Server) UnmuteSubscription(ctx context.Context, in *rpcapi.SubscriptionReply) (*rpcapi.Empty, error) {
	sub, err := s.mgr.Subscription(in.SubscriptionID)
	if err != nil {
		return nil, err
	}
	sub.Unmute()
	return &rpcapi.Empty{}, nil
}

func (s *Server) Stats(ctx context.Context, in *rpcapi.Empty) (*rpcapi.StatsReply, error) {
	st := s.mgr.Stats()
	return &rpcapi.StatsReply{Channels: st.Channels, Sources: st.Sources, Subscriptions: st.Subscriptions}, nil
}

func (s *Server) Ping(ctx context.Context, in *rpcapi.Empty) (*rpcapi.PingReply, error) {
	uptime, at := s.mgr.Ping()
	return &rpcapi.PingReply{UptimeMS: uptime.Milliseconds(), At: at}, nil
}

func (s *Server) Version(ctx context.Context, in *rpcapi.Empty) (*rpcapi.VersionReply, error) {
	return &rpcapi.VersionReply{Version: s.mgr.Version(), Hostname: s.mgr.Hostname()}, nil
}

func (s *Server) ListPlugins(ctx context.Context, in *rpcapi.Empty) (*rpcapi.ListPluginsReply, error) {
	plugins := s.mgr.ListPlugins()
	out := make([]rpcapi.PluginInfo, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, rpcapi.PluginInfo{
			Name:        p.Name,
			Version:     p.Version,
			Copyright:   p.Copyright,
			Description: p.Description,
			Kind:        string(p.Kind),
		})
	}
	return &rpcapi.ListPluginsReply{Plugins: out}, nil
}
