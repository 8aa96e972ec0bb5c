package manager

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perfkit/agent/internal/channel"
	"github.com/perfkit/agent/internal/listener"
	"github.com/perfkit/agent/internal/procinfo"
	"github.com/perfkit/agent/internal/source"
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/pkg/sample"
)

// recordingListener captures every buffer delivered to it, so tests can
// assert the Manager->Subscription->Listener delivery path actually fires.
type recordingListener struct {
	mu        sync.Mutex
	manifests [][]byte
	samples   [][]byte
}

var _ listener.Listener = (*recordingListener)(nil)

func (l *recordingListener) Start() error { return nil }
func (l *recordingListener) Stop() error  { return nil }

func (l *recordingListener) ChannelAdded(int)        {}
func (l *recordingListener) ChannelRemoved(int)      {}
func (l *recordingListener) SourceAdded(int)         {}
func (l *recordingListener) SourceRemoved(int)       {}
func (l *recordingListener) SubscriptionAdded(int)   {}
func (l *recordingListener) SubscriptionRemoved(int) {}

func (l *recordingListener) DeliverManifest(subscriptionID int, buf []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.manifests = append(l.manifests, buf)
}

func (l *recordingListener) DeliverSample(subscriptionID int, buf []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.samples = append(l.samples, buf)
}

func newTestManager() *Manager {
	reg := NewRegistry(nil)
	reg.RegisterSource(PluginInfo{Name: "noop", Version: "1.0.0"}, func(sch *source.SharedScheduler) source.Source {
		return source.NewSimple(source.Config{Frequency: time.Hour, SharedScheduler: source.NewSharedScheduler(nil, nil)})
	})
	return New(reg)
}

func TestCreateChannelIsReady(t *testing.T) {
	m := newTestManager()
	id := m.CreateChannel(procinfo.SpawnInfo{})
	c, err := m.Channel(id)
	require.NoError(t, err)
	require.Equal(t, channel.Ready, c.State())
}

func TestChannelNotFound(t *testing.T) {
	m := newTestManager()
	_, err := m.Channel(9999)
	require.Error(t, err)
}

// S5 — Spawn-on-start: no source declares needs_spawn, the channel forks
// target directly.
func TestStart_SpawnOnStart(t *testing.T) {
	m := newTestManager()
	id := m.CreateChannel(procinfo.SpawnInfo{Target: "/bin/true", KillOnStop: true})
	c, err := m.Channel(id)
	require.NoError(t, err)

	require.NoError(t, c.Start())
	require.Equal(t, channel.Running, c.State())
	require.Greater(t, c.Pid(), 0)

	require.Eventually(t, func() bool {
		_, ok := c.ExitStatus()
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Stop())
	require.Equal(t, channel.Stopped, c.State())
	status, ok := c.ExitStatus()
	require.True(t, ok)
	require.Equal(t, 0, status)
}

func TestAddSourceInvalidKind(t *testing.T) {
	m := newTestManager()
	id := m.CreateChannel(procinfo.SpawnInfo{})
	_, err := m.AddSource("does-not-exist", id)
	require.Error(t, err)
}

func TestAddSourceBindsToChannel(t *testing.T) {
	m := newTestManager()
	chID := m.CreateChannel(procinfo.SpawnInfo{})
	srcID, err := m.AddSource("noop", chID)
	require.NoError(t, err)
	require.Contains(t, m.ListSources(), srcID)
}

func TestRemoveSourceFailsWhileRunning(t *testing.T) {
	m := newTestManager()
	chID := m.CreateChannel(procinfo.SpawnInfo{Target: "/bin/sleep", Args: []string{"5"}, KillOnStop: true})
	srcID, err := m.AddSource("noop", chID)
	require.NoError(t, err)

	c, err := m.Channel(chID)
	require.NoError(t, err)
	require.NoError(t, c.Start())

	err = m.RemoveSource(srcID)
	require.Error(t, err)

	require.NoError(t, c.Stop())
}

func TestCreateSubscriptionDefaultEncoder(t *testing.T) {
	m := newTestManager()
	chID := m.CreateChannel(procinfo.SpawnInfo{})
	subID, err := m.CreateSubscription(chID, 0, 0, "")
	require.NoError(t, err)
	require.Contains(t, m.ListSubscriptions(), subID)
}

func TestStats(t *testing.T) {
	m := newTestManager()
	chID := m.CreateChannel(procinfo.SpawnInfo{})
	_, err := m.AddSource("noop", chID)
	require.NoError(t, err)
	_, err = m.CreateSubscription(chID, 0, 0, "")
	require.NoError(t, err)

	s := m.Stats()
	require.Equal(t, 1, s.Channels)
	require.Equal(t, 1, s.Sources)
	require.Equal(t, 1, s.Subscriptions)
}

// TestSubscriptionDeliveryReachesListener exercises the path a registered
// listener's DeliverSample/DeliverManifest depend on: CreateSubscription
// must wire the new subscription's handlers so a flush actually reaches
// every listener the Manager knows about, not just update the registries.
func TestSubscriptionDeliveryReachesListener(t *testing.T) {
	m := newTestManager()
	rec := &recordingListener{}
	m.AddListener(rec)

	chID := m.CreateChannel(procinfo.SpawnInfo{})
	subID, err := m.CreateSubscription(chID, 0, 0, "")
	require.NoError(t, err)

	sub, err := m.Subscription(subID)
	require.NoError(t, err)
	sub.Unmute()

	mf := manifest.NewBuilder()
	_, err = mf.Append("value", manifest.TypeU64)
	require.NoError(t, err)
	mf.SetTimestamp(time.Now())
	mf.Publish()
	sub.DeliverManifest(mf)

	sub.DeliverSample(sample.New([]byte{1, 2, 3, 4}))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.manifests, 1, "manifest flush must reach every registered listener")
	require.Len(t, rec.samples, 1, "sample flush must reach every registered listener")
}

func TestPingAndVersion(t *testing.T) {
	m := newTestManager()
	uptime, at := m.Ping()
	require.GreaterOrEqual(t, uptime, time.Duration(0))
	require.NotEmpty(t, at)
	require.NotEmpty(t, m.Version())
	require.NotEmpty(t, m.Hostname())
}

func TestListPlugins(t *testing.T) {
	m := newTestManager()
	plugins := m.ListPlugins()
	names := make([]string, 0, len(plugins))
	for _, p := range plugins {
		names = append(names, p.Name)
	}
	require.Contains(t, names, "noop")
	require.Contains(t, names, DefaultEncoderKind)
}
