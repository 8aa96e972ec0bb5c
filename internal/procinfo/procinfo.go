// Package procinfo holds the target-process description shared between a
// channel and the sources it owns, kept in its own package so neither side
// has to import the other just to see this struct.
package procinfo

// SpawnInfo describes how a channel's target process is attached to or
// spawned. Exactly one of PID or Target must resolve to a real process by
// the time Start is called: either the caller pre-attaches by PID, a
// source claims NeedsSpawn and spawns the target itself, or the channel
// forks/execs Target directly.
type SpawnInfo struct {
	PID         int      // 0 means unset; attach to an already-running process
	Target      string   // path to the executable to spawn; "" means unset
	Args        []string
	Env         []string // KEY=VALUE pairs appended to (or replacing) the inherited environment
	WorkingDir  string
	InheritEnv  bool // if true, Env is appended to the current process's environment
	KillOnStop  bool // if true and this channel spawned the process, stop() signals it
}

// HasPID reports whether a PID has already been assigned.
func (s SpawnInfo) HasPID() bool { return s.PID != 0 }

// HasTarget reports whether a spawn target path has been set.
func (s SpawnInfo) HasTarget() bool { return s.Target != "" }
