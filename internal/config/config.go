// Package config loads the daemon's static configuration using viper,
// mirroring the teacher's mapstructure-tagged GlobalConfig + Load(path)
// pattern, adapted to Perfkit's control-socket/channel/buffer-policy shape.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/perfkit/agent/internal/log"
)

// GlobalConfig is the top-level static configuration, mapped from the
// `perfkit:` root key in YAML.
type GlobalConfig struct {
	Control   ControlConfig      `mapstructure:"control"`
	Buffer    BufferPolicyConfig `mapstructure:"buffer"`
	Scheduler SchedulerConfig    `mapstructure:"scheduler"`
	Log       log.LoggerConfig   `mapstructure:"log"`
	Channels  []ChannelConfig    `mapstructure:"channels"`
}

// ControlConfig is the daemon's control-plane binding.
type ControlConfig struct {
	Socket  string `mapstructure:"socket"`
	PIDFile string `mapstructure:"pid_file"`
}

// BufferPolicyConfig is the default subscription buffer policy, overridable
// per-subscription at creation time (spec.md §3's buffer_max/buffer_timeout).
type BufferPolicyConfig struct {
	Max       int `mapstructure:"max"`
	TimeoutMS int `mapstructure:"timeout_ms"`
}

// Timeout returns the configured buffer timeout as a time.Duration.
func (b BufferPolicyConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutMS) * time.Millisecond
}

// SchedulerConfig holds the shared scheduler's tick setting. TickMS is
// loaded and defaulted, but no component reads it: the shared scheduler
// wakes on each source's next deadline.
type SchedulerConfig struct {
	TickMS int `mapstructure:"tick_ms"`
}

// ChannelConfig is one statically pre-declared channel, spawned (or
// attached) at daemon startup — the same shape as the teacher's `roles:`
// template section, adapted from a per-role TaskConfig to a per-target
// spawn description.
type ChannelConfig struct {
	Name       string   `mapstructure:"name"`
	PID        int      `mapstructure:"pid"`
	Target     string   `mapstructure:"target"`
	Args       []string `mapstructure:"args"`
	Env        []string `mapstructure:"env"`
	WorkingDir string   `mapstructure:"working_dir"`
	InheritEnv bool     `mapstructure:"inherit_env"`
	KillOnStop bool     `mapstructure:"kill_on_stop"`
	Sources    []string `mapstructure:"sources"` // registered source kinds to attach
	AutoStart  bool     `mapstructure:"auto_start"`
}

// configRoot is the top-level wrapper matching the YAML structure `perfkit: ...`.
type configRoot struct {
	Perfkit GlobalConfig `mapstructure:"perfkit"`
}

// Load reads and validates configuration from path.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg := root.Perfkit

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("perfkit.control.socket", "/var/run/perfkitd.sock")
	v.SetDefault("perfkit.control.pid_file", "/var/run/perfkitd.pid")

	v.SetDefault("perfkit.buffer.max", 4096)
	v.SetDefault("perfkit.buffer.timeout_ms", 1000)

	v.SetDefault("perfkit.scheduler.tick_ms", 10)

	v.SetDefault("perfkit.log.level", "info")
	v.SetDefault("perfkit.log.pattern", "%time [%level] %field%msg\n")
	v.SetDefault("perfkit.log.time", "2006-01-02T15:04:05.000Z07:00")
}

// Validate checks structural invariants that can't be expressed as viper
// defaults: a statically declared channel may not set both pid and target
// (they are mutually exclusive; setting neither is accepted).
func (cfg *GlobalConfig) Validate() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log.level: %s", cfg.Log.Level)
	}
	for _, ch := range cfg.Channels {
		if ch.PID != 0 && ch.Target != "" {
			return fmt.Errorf("channel %q: pid and target are mutually exclusive", ch.Name)
		}
	}
	return nil
}
