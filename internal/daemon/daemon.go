// Package daemon wires the pipeline (Manager, Registry, RPC transport,
// config hot-reload) into the foreground process lifecycle perfkitd runs:
// PID file, signal handling, and SIGHUP-triggered reload.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/perfkit/agent/internal/config"
	"github.com/perfkit/agent/internal/log"
	"github.com/perfkit/agent/internal/manager"
	"github.com/perfkit/agent/internal/procinfo"
	"github.com/perfkit/agent/internal/rpc"
	"github.com/perfkit/agent/internal/source"
	"github.com/perfkit/agent/plugins"
)

// Daemon owns the pipeline's process-lifetime state: the Manager, its RPC
// listener, and the config watcher that drives hot reload.
type Daemon struct {
	config     *config.GlobalConfig
	configPath string
	pidFile    string

	registry  *manager.Registry
	scheduler *source.SharedScheduler
	mgr       *manager.Manager
	server    *rpc.Server
	watcher   *config.Watcher

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownChan chan struct{}
	sigChan      chan os.Signal
}

// New loads configPath and constructs a Daemon ready for Start.
func New(configPath string) (*Daemon, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("daemon: load config: %w", err)
	}

	scheduler := source.NewSharedScheduler(nil, log.GetLogger())
	registry := manager.NewRegistry(scheduler)
	plugins.Apply(registry)

	d := &Daemon{
		config:       cfg,
		configPath:   configPath,
		pidFile:      cfg.Control.PIDFile,
		registry:     registry,
		scheduler:    scheduler,
		mgr:          manager.New(registry),
		shutdownChan: make(chan struct{}),
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d, nil
}

// Start initializes logging, the control-plane RPC server, statically
// declared channels, and the config watcher.
func (d *Daemon) Start() error {
	log.Init(&d.config.Log)
	logger := log.GetLogger()
	logger.WithField("socket", d.config.Control.Socket).Info("daemon: starting")

	if err := d.writePIDFile(); err != nil {
		return fmt.Errorf("daemon: write pid file: %w", err)
	}

	d.server = rpc.NewServer(d.mgr, d.config.Control.Socket)
	d.mgr.AddListener(d.server)
	if err := d.server.Start(); err != nil {
		return fmt.Errorf("daemon: start rpc server: %w", err)
	}

	if err := d.startStaticChannels(); err != nil {
		logger.WithError(err).Warn("daemon: one or more static channels failed to start")
	}

	watcher, err := config.NewWatcher(d.configPath, d.onConfigChanged)
	if err != nil {
		logger.WithError(err).Warn("daemon: config hot-reload disabled, watcher failed to start")
	} else {
		d.watcher = watcher
	}

	logger.Info("daemon: started")
	return nil
}

// startStaticChannels spawns/attaches every channel declared in config,
// binds its configured sources, and starts it when auto_start is set.
func (d *Daemon) startStaticChannels() error {
	logger := log.GetLogger()
	var firstErr error
	for _, chCfg := range d.config.Channels {
		info := procinfo.SpawnInfo{
			PID:        chCfg.PID,
			Target:     chCfg.Target,
			Args:       chCfg.Args,
			Env:        chCfg.Env,
			WorkingDir: chCfg.WorkingDir,
			InheritEnv: chCfg.InheritEnv,
			KillOnStop: chCfg.KillOnStop,
		}
		channelID := d.mgr.CreateChannel(info)
		chLogger := logger.WithField("channel", chCfg.Name)

		for _, kind := range chCfg.Sources {
			if _, err := d.mgr.AddSource(kind, channelID); err != nil {
				chLogger.WithError(err).WithField("kind", kind).Warn("daemon: static source failed to attach")
				if firstErr == nil {
					firstErr = err
				}
			}
		}

		if chCfg.AutoStart {
			ch, err := d.mgr.Channel(channelID)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if err := ch.Start(); err != nil {
				chLogger.WithError(err).Warn("daemon: static channel failed to auto-start")
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// onConfigChanged is the config.Watcher callback: it only adopts the
// hot-reloadable subset (logging) and logs a warning for anything that
// names a change requiring a restart (control socket, statically declared
// channels). A change to the declared channels is detected by their count
// only; edits that keep the count the same are not reported.
func (d *Daemon) onConfigChanged(newCfg *config.GlobalConfig) {
	logger := log.GetLogger()
	old := d.config
	d.config = newCfg

	if newCfg.Log != old.Log {
		log.Init(&newCfg.Log)
		logger.Info("daemon: log configuration reloaded")
	}
	if newCfg.Control != old.Control {
		logger.Warn("daemon: control socket/pid_file changed, restart required to take effect")
	}
	if len(newCfg.Channels) != len(old.Channels) {
		logger.Warn("daemon: channel list changed, restart required to take effect")
	}
}

// Reload reloads configPath and applies the hot-reloadable subset, warning
// about anything that names a change requiring a restart.
func (d *Daemon) Reload() error {
	newCfg, err := config.Load(d.configPath)
	if err != nil {
		return fmt.Errorf("daemon: reload: %w", err)
	}
	d.onConfigChanged(newCfg)
	return nil
}

// Run blocks handling OS signals until shutdown: SIGTERM/SIGINT stop the
// daemon, SIGHUP reloads configuration, matching perfkitd's documented
// signal contract.
func (d *Daemon) Run() error {
	d.sigChan = make(chan os.Signal, 1)
	signal.Notify(d.sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	logger := log.GetLogger()

	for {
		select {
		case sig := <-d.sigChan:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				logger.WithField("signal", sig.String()).Info("daemon: received shutdown signal")
				d.Stop()
				return nil
			case syscall.SIGHUP:
				logger.Info("daemon: received reload signal")
				if err := d.Reload(); err != nil {
					logger.WithError(err).Error("daemon: reload failed")
				}
			}
		case <-d.shutdownChan:
			logger.Info("daemon: shutdown requested")
			d.Stop()
			return nil
		case <-d.ctx.Done():
			d.Stop()
			return d.ctx.Err()
		}
	}
}

// TriggerShutdown requests an orderly stop from outside the signal loop
// (e.g. an RPC-driven shutdown command), without panicking if Run has
// already returned.
func (d *Daemon) TriggerShutdown() {
	select {
	case d.shutdownChan <- struct{}{}:
	default:
	}
}

// Stop tears every component down in dependency order: the config watcher
// first, then the RPC server (no new control-plane requests), then every
// channel, then process-local cleanup.
func (d *Daemon) Stop() {
	logger := log.GetLogger()
	logger.Info("daemon: stopping")

	if d.watcher != nil {
		d.watcher.Close()
	}
	if d.server != nil {
		d.server.Stop()
	}
	for _, channelID := range d.mgr.ListChannels() {
		ch, err := d.mgr.Channel(channelID)
		if err != nil {
			continue
		}
		if err := ch.Stop(); err != nil {
			logger.WithError(err).WithField("channel", channelID).Warn("daemon: error stopping channel")
		}
	}

	d.scheduler.Close()
	d.cancel()
	if d.sigChan != nil {
		signal.Stop(d.sigChan)
	}
	if err := d.removePIDFile(); err != nil {
		logger.WithError(err).Warn("daemon: error removing pid file")
	}
	logger.Info("daemon: stopped")
}

func (d *Daemon) writePIDFile() error {
	if d.pidFile == "" {
		return nil
	}
	return os.WriteFile(d.pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}

func (d *Daemon) removePIDFile() error {
	if d.pidFile == "" {
		return nil
	}
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
