// Package channel implements the per-target orchestrator: a state machine
// that owns the sources sampling one process, drives its spawn/lifecycle,
// and fans out delivered samples and manifests to its subscriptions.
package channel

import (
	"fmt"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/perfkit/agent/internal/log"
	"github.com/perfkit/agent/internal/perrors"
	"github.com/perfkit/agent/internal/procinfo"
	"github.com/perfkit/agent/internal/source"
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/pkg/sample"
)

// State is the channel's lifecycle state, following spec's Ready -> Running
// -> {Muted <-> Running} -> Stopped graph, with Failed reachable only from
// a spawn/start error during Start.
type State int

const (
	Ready State = iota
	Running
	Muted
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Muted:
		return "muted"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// subscriber is the fan-out target a Channel delivers to. Subscription
// implements this; kept as a local interface so channel never imports the
// subscription package's concrete type, only its delivery surface.
type subscriber interface {
	ID() int
	DeliverSample(s *sample.Sample)
	DeliverManifest(m *manifest.Manifest)
}

// Channel is the per-target orchestrator described in spec.md §4.2.
type Channel struct {
	mu sync.RWMutex // guards state transitions and the source/subscription lists

	id   int
	spawnInfo procinfo.SpawnInfo
	state State

	sources []source.Source
	subs    []subscriber

	pid        int
	spawned    bool
	exitStatus int
	exited     bool

	cmd *exec.Cmd
}

// New constructs a Channel in the Ready state.
func New(id int, info procinfo.SpawnInfo) *Channel {
	return &Channel{
		id:        id,
		spawnInfo: info,
		state:     Ready,
	}
}

// ID returns the channel's process-unique identifier.
func (c *Channel) ID() int { return c.id }

// State returns the channel's current lifecycle state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Pid returns the channel's target process id, 0 until spawned or attached.
func (c *Channel) Pid() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pid
}

// SetPid attaches to an already-running process by pid. No-op once the
// channel has spawned its own child, matching the C implementation's
// "no side effects if spawned" rule.
func (c *Channel) SetPid(pid int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.spawned {
		c.pid = pid
	}
}

// ExitStatus returns the target process's exit code, valid only after the
// channel has observed the spawned child exit.
func (c *Channel) ExitStatus() (status int, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.exitStatus, c.exited
}

// Target returns the spawn target path.
func (c *Channel) Target() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spawnInfo.Target
}

// SetTarget sets the spawn target path. No-op once spawned, matching the
// original's "no side effects if the process has already been spawned".
func (c *Channel) SetTarget(target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.spawned {
		c.spawnInfo.Target = target
	}
}

// Args returns a copy of the spawn argument vector.
func (c *Channel) Args() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.spawnInfo.Args))
	copy(out, c.spawnInfo.Args)
	return out
}

// SetArgs replaces the spawn argument vector. No-op once spawned.
func (c *Channel) SetArgs(args []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.spawned {
		c.spawnInfo.Args = append([]string(nil), args...)
	}
}

// Env returns a copy of the spawn environment overlay.
func (c *Channel) Env() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.spawnInfo.Env))
	copy(out, c.spawnInfo.Env)
	return out
}

// SetEnv replaces the spawn environment overlay. No-op once spawned.
func (c *Channel) SetEnv(env []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.spawned {
		c.spawnInfo.Env = append([]string(nil), env...)
	}
}

// WorkingDir returns the spawn working directory.
func (c *Channel) WorkingDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spawnInfo.WorkingDir
}

// SetWorkingDir sets the spawn working directory. No-op once spawned.
func (c *Channel) SetWorkingDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.spawned {
		c.spawnInfo.WorkingDir = dir
	}
}

// KillOnStop returns whether Stop signals a spawned child.
func (c *Channel) KillOnStop() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.spawnInfo.KillOnStop
}

// SetKillOnStop sets whether Stop signals a spawned child.
func (c *Channel) SetKillOnStop(kill bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spawnInfo.KillOnStop = kill
}

// Sources returns a snapshot of the channel's current source list.
func (c *Channel) Sources() []source.Source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]source.Source, len(c.sources))
	copy(out, c.sources)
	return out
}

// AddSource appends a source to the channel and binds its back-reference.
// Valid only in Ready, matching spec.md §4.2.
func (c *Channel) AddSource(s source.Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return fmt.Errorf("channel %d: add_source: %w", c.id, perrors.ErrInvalidState)
	}
	s.Bind(c.id, c)
	c.sources = append(c.sources, s)
	return nil
}

// AddSubscription registers a subscriber for this channel's fan-out.
func (c *Channel) AddSubscription(sub subscriber) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, sub)
}

// RemoveSubscription detaches a subscriber by id.
func (c *Channel) RemoveSubscription(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subs {
		if s.ID() == id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// Start scans the sources for exactly one spawner, delegates process
// creation to it, or forks/execs spawn_info directly, then starts every
// source in order. On any error the channel transitions to Failed.
func (c *Channel) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Ready {
		return fmt.Errorf("channel %d: start: %w", c.id, perrors.ErrInvalidState)
	}

	logger := log.GetLogger().WithField("channel_id", c.id)

	if c.pid == 0 {
		var spawner source.Source
		for _, s := range c.sources {
			if s.NeedsSpawn() {
				spawner = s
				break
			}
		}

		var err error
		spawning := true
		if spawner != nil {
			err = spawner.Spawn(&c.spawnInfo)
			if err == nil {
				c.pid = c.spawnInfo.PID
			}
		} else if c.spawnInfo.HasTarget() {
			err = c.doSpawn()
		} else if c.spawnInfo.HasPID() {
			c.pid = c.spawnInfo.PID
			spawning = false
		} else {
			c.state = Failed
			return fmt.Errorf("channel %d: start: %w", c.id, perrors.ErrNoTarget)
		}

		if err != nil {
			c.state = Failed
			return fmt.Errorf("channel %d: start: %w: %v", c.id, perrors.ErrSpawnFailed, err)
		}
		c.spawned = spawning
	}

	for _, s := range c.sources {
		if err := s.Start(); err != nil {
			c.state = Failed
			return fmt.Errorf("channel %d: start source %d: %w", c.id, s.ID(), err)
		}
	}

	c.state = Running
	logger.Infof("channel %d started, pid=%d", c.id, c.pid)
	return nil
}

// doSpawn forks/execs the channel's own target when no source claims
// NeedsSpawn, redirecting stdout/stderr to the null device like the
// original's G_SPAWN_STDOUT_TO_DEV_NULL | G_SPAWN_STDERR_TO_DEV_NULL.
func (c *Channel) doSpawn() error {
	cmd := exec.Command(c.spawnInfo.Target, c.spawnInfo.Args...)
	cmd.Dir = c.spawnInfo.WorkingDir
	if c.spawnInfo.InheritEnv {
		cmd.Env = append(os.Environ(), c.spawnInfo.Env...)
	} else {
		cmd.Env = c.spawnInfo.Env
	}
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		devNull.Close()
		return err
	}

	c.cmd = cmd
	c.pid = cmd.Process.Pid

	go func() {
		err := cmd.Wait()
		devNull.Close()
		c.mu.Lock()
		c.exited = true
		if exitErr, ok := err.(*exec.ExitError); ok {
			c.exitStatus = exitErr.ExitCode()
		} else {
			c.exitStatus = 0
		}
		c.mu.Unlock()
	}()

	return nil
}

// Mute transitions Running -> Muted; sources keep producing but samples are
// not forwarded to subscribers.
func (c *Channel) Mute() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running {
		return fmt.Errorf("channel %d: mute: %w", c.id, perrors.ErrInvalidState)
	}
	c.state = Muted
	return nil
}

// Unmute transitions Muted -> Running.
func (c *Channel) Unmute() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Muted {
		return fmt.Errorf("channel %d: unmute: %w", c.id, perrors.ErrInvalidState)
	}
	c.state = Running
	return nil
}

// Stop stops every source best-effort (errors logged, not propagated), and
// if spawn_info.KillOnStop and this channel spawned the process, signals
// it. Transitions to Stopped; terminal.
func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Ready, Running, Muted:
	default:
		return fmt.Errorf("channel %d: stop: %w", c.id, perrors.ErrInvalidState)
	}

	logger := log.GetLogger().WithField("channel_id", c.id)

	for _, s := range c.sources {
		if err := s.Stop(); err != nil {
			logger.Warnf("source %d stop failed: %v", s.ID(), err)
		}
	}

	// KillOnStop applies whenever this channel spawned the target process,
	// regardless of whether doSpawn or a NeedsSpawn source did the
	// spawning — a spawner source reports the resulting PID back through
	// c.pid but does not own teardown of the process it started.
	if c.spawnInfo.KillOnStop && c.spawned && c.pid != 0 {
		if err := unix.Kill(c.pid, unix.SIGTERM); err != nil {
			logger.Warnf("channel %d: failed to signal pid %d: %v", c.id, c.pid, err)
		}
	}

	c.state = Stopped
	logger.Infof("channel %d stopped", c.id)
	return nil
}

// DeliverSample implements source.Deliverer. It stamps the sample with its
// source id and fans it out to every subscriber under a read lock, unless
// the channel is muted. A panic or error from one subscriber never affects
// the others.
func (c *Channel) DeliverSample(sourceID int, s *sample.Sample) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.state == Muted {
		return
	}

	s.SetSourceID(sourceID)
	for _, sub := range c.subs {
		c.deliverSafely(sub, s)
	}
}

func (c *Channel) deliverSafely(sub subscriber, s *sample.Sample) {
	defer func() {
		if r := recover(); r != nil {
			log.GetLogger().Errorf("channel %d: subscription %d panicked delivering sample: %v", c.id, sub.ID(), r)
		}
	}()
	sub.DeliverSample(s)
}

// PublishManifest implements source.Deliverer. It stamps the manifest with
// its source id and fans it out to every subscriber.
func (c *Channel) PublishManifest(sourceID int, m *manifest.Manifest) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m.SetSourceID(sourceID)
	for _, sub := range c.subs {
		c.publishSafely(sub, m)
	}
}

func (c *Channel) publishSafely(sub subscriber, m *manifest.Manifest) {
	defer func() {
		if r := recover(); r != nil {
			log.GetLogger().Errorf("channel %d: subscription %d panicked delivering manifest: %v", c.id, sub.ID(), r)
		}
	}()
	sub.DeliverManifest(m)
}
