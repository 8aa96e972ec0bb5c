// Package manager implements the process-wide registry of channels,
// sources, and subscriptions described in spec.md §4.1: creation/removal
// operations, factory-based source/encoder construction, and listener
// notification fan-out.
package manager

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/perfkit/agent/internal/channel"
	"github.com/perfkit/agent/internal/listener"
	"github.com/perfkit/agent/internal/log"
	"github.com/perfkit/agent/internal/perrors"
	"github.com/perfkit/agent/internal/procinfo"
	"github.com/perfkit/agent/internal/source"
	"github.com/perfkit/agent/internal/subscription"
)

const version = "0.1.0"

var idSeq int64

func allocID() int { return int(atomic.AddInt64(&idSeq, 1)) }

// Stats is a point-in-time snapshot of registry sizes, surfaced to the CLI
// status subcommand and the gRPC Status RPC.
type Stats struct {
	Channels      int
	Sources       int
	Subscriptions int
}

// sourceRecord pairs a bound source with the channel id and kind name it
// was constructed under, so remove_source can look up its owner.
type sourceRecord struct {
	src       source.Source
	channelID int
	kind      string
}

// Manager owns the process-wide registries and drives listener
// notifications. Zero value is not usable; construct with New.
type Manager struct {
	registry *Registry

	mu            sync.RWMutex
	channels      map[int]*channel.Channel
	sources       map[int]*sourceRecord
	subscriptions map[int]*subscription.Subscription
	subChannel    map[int]int // subscription id -> owning channel id

	listenersMu sync.RWMutex
	listeners   []listener.Listener

	hostname string
	started  time.Time
}

// New constructs an empty Manager backed by registry for source/encoder
// factory lookups.
func New(registry *Registry) *Manager {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return &Manager{
		registry:      registry,
		channels:      make(map[int]*channel.Channel),
		sources:       make(map[int]*sourceRecord),
		subscriptions: make(map[int]*subscription.Subscription),
		subChannel:    make(map[int]int),
		hostname:      hostname,
		started:       time.Now(),
	}
}

// AddListener registers a listener for topology and delivery notifications.
func (m *Manager) AddListener(l listener.Listener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) notify(fn func(listener.Listener)) {
	m.listenersMu.RLock()
	defer m.listenersMu.RUnlock()
	for _, l := range m.listeners {
		fn(l)
	}
}

// CreateChannel allocates a channel in Ready and notifies listeners.
func (m *Manager) CreateChannel(info procinfo.SpawnInfo) int {
	id := allocID()
	c := channel.New(id, info)

	m.mu.Lock()
	m.channels[id] = c
	m.mu.Unlock()

	m.notify(func(l listener.Listener) { l.ChannelAdded(id) })
	return id
}

// RemoveChannel stops the channel (draining best-effort per spec.md §4.2)
// and removes it from the registry. Returns false if the id is unknown.
func (m *Manager) RemoveChannel(channelID int) bool {
	m.mu.Lock()
	c, ok := m.channels[channelID]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.channels, channelID)
	m.mu.Unlock()

	if err := c.Stop(); err != nil {
		log.GetLogger().WithError(err).Warnf("channel %d: stop during removal", channelID)
	}

	m.notify(func(l listener.Listener) { l.ChannelRemoved(channelID) })
	return true
}

// Channel looks up a channel by id.
func (m *Manager) Channel(channelID int) (*channel.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("manager: channel %d: %w", channelID, perrors.ErrNotFound)
	}
	return c, nil
}

// ListChannels returns a snapshot of registered channel ids.
func (m *Manager) ListChannels() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, 0, len(m.channels))
	for id := range m.channels {
		out = append(out, id)
	}
	return out
}

// AddSource constructs a source of the given kind via the registry,
// binds it to channelID, and notifies listeners. Fails with ErrInvalidKind
// if kind is unregistered, or ErrNotFound if channelID is unknown.
func (m *Manager) AddSource(kind string, channelID int) (int, error) {
	c, err := m.Channel(channelID)
	if err != nil {
		return 0, err
	}

	src, err := m.registry.NewSource(kind)
	if err != nil {
		return 0, err
	}

	if err := c.AddSource(src); err != nil {
		return 0, err
	}

	id := src.ID()
	m.mu.Lock()
	m.sources[id] = &sourceRecord{src: src, channelID: channelID, kind: kind}
	m.mu.Unlock()

	m.notify(func(l listener.Listener) { l.SourceAdded(id) })
	return id, nil
}

// RemoveSource stops a source and drops it from the Manager's registry.
// The owning channel's source list still holds it. Fails if the owning
// channel is Running, matching spec.md §4.1.
func (m *Manager) RemoveSource(sourceID int) error {
	m.mu.Lock()
	rec, ok := m.sources[sourceID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("manager: source %d: %w", sourceID, perrors.ErrNotFound)
	}
	m.mu.Unlock()

	c, err := m.Channel(rec.channelID)
	if err == nil && c.State() == channel.Running {
		return fmt.Errorf("manager: remove_source %d: %w", sourceID, perrors.ErrInvalidState)
	}

	if err := rec.src.Stop(); err != nil {
		log.GetLogger().WithError(err).Warnf("source %d: stop during removal", sourceID)
	}

	m.mu.Lock()
	delete(m.sources, sourceID)
	m.mu.Unlock()

	m.notify(func(l listener.Listener) { l.SourceRemoved(sourceID) })
	return nil
}

// ListSources returns a snapshot of registered source ids.
func (m *Manager) ListSources() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, 0, len(m.sources))
	for id := range m.sources {
		out = append(out, id)
	}
	return out
}

// CreateSubscription attaches a new, muted subscription to channelID.
// encoderKind selects the encoding via the registry; "" resolves to the
// "default" kind every Registry registers in NewRegistry.
func (m *Manager) CreateSubscription(channelID int, bufferMax int, bufferTimeout time.Duration, encoderKind string) (int, error) {
	c, err := m.Channel(channelID)
	if err != nil {
		return 0, err
	}

	if encoderKind == "" {
		encoderKind = DefaultEncoderKind
	}
	enc, err := m.registry.NewEncoder(encoderKind)
	if err != nil {
		return 0, err
	}

	sub := subscription.New(subscription.Config{
		Encoder:       enc,
		BufferMax:     bufferMax,
		BufferTimeout: bufferTimeout,
	})

	id := sub.ID()
	sub.SetHandlers(
		func(buf []byte) { m.notify(func(l listener.Listener) { l.DeliverSample(id, buf) }) },
		func(buf []byte) { m.notify(func(l listener.Listener) { l.DeliverManifest(id, buf) }) },
	)

	c.AddSubscription(sub)

	m.mu.Lock()
	m.subscriptions[id] = sub
	m.subChannel[id] = channelID
	m.mu.Unlock()

	m.notify(func(l listener.Listener) { l.SubscriptionAdded(id) })
	return id, nil
}

// RemoveSubscription detaches and releases a subscription. If drain is
// true, a final flush is performed before removal (by muting with drain).
func (m *Manager) RemoveSubscription(subscriptionID int, drain bool) error {
	m.mu.Lock()
	sub, ok := m.subscriptions[subscriptionID]
	channelID, hasChannel := m.subChannel[subscriptionID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("manager: subscription %d: %w", subscriptionID, perrors.ErrNotFound)
	}
	delete(m.subscriptions, subscriptionID)
	delete(m.subChannel, subscriptionID)
	m.mu.Unlock()

	sub.Mute(drain)
	sub.Close()

	if hasChannel {
		if c, err := m.Channel(channelID); err == nil {
			c.RemoveSubscription(subscriptionID)
		}
	}

	m.notify(func(l listener.Listener) { l.SubscriptionRemoved(subscriptionID) })
	return nil
}

// Subscription looks up a subscription by id.
func (m *Manager) Subscription(subscriptionID int) (*subscription.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("manager: subscription %d: %w", subscriptionID, perrors.ErrNotFound)
	}
	return sub, nil
}

// ListSubscriptions returns a snapshot of registered subscription ids.
func (m *Manager) ListSubscriptions() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, 0, len(m.subscriptions))
	for id := range m.subscriptions {
		out = append(out, id)
	}
	return out
}

// ListPlugins surfaces the registry's introspectable source/encoder catalog.
func (m *Manager) ListPlugins() []PluginInfo {
	return m.registry.ListPlugins()
}

// Ping returns the process's monotonic uptime and the current wall-clock
// instant in ISO-8601, letting a transport compute round-trip latency.
func (m *Manager) Ping() (uptime time.Duration, at string) {
	return time.Since(m.started), time.Now().Format(time.RFC3339Nano)
}

// Version returns the daemon's version string.
func (m *Manager) Version() string { return version }

// Hostname returns the cached local hostname.
func (m *Manager) Hostname() string { return m.hostname }

// Stats returns current registry sizes.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{
		Channels:      len(m.channels),
		Sources:       len(m.sources),
		Subscriptions: len(m.subscriptions),
	}
}
