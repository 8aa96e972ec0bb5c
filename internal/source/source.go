// Package source implements the pipeline's producer side: the abstract
// Source capability and its concrete periodic variant, SimpleSource, which
// schedules itself on either a process-wide shared timer or a dedicated
// per-source goroutine.
package source

import (
	"github.com/perfkit/agent/internal/procinfo"
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/pkg/sample"
)

// Deliverer is the callback surface a source routes its output through. A
// Channel implements this; the source package never imports the channel
// package, avoiding an import cycle for what is logically a back-reference.
type Deliverer interface {
	DeliverSample(sourceID int, s *sample.Sample)
	PublishManifest(sourceID int, m *manifest.Manifest)
}

// Source is the abstract producer capability every concrete source kind
// implements. SimpleSource below is the one concrete kind this core ships;
// other kinds (e.g. a spawn-wrapping tracer) are additional variants behind
// the same interface.
type Source interface {
	ID() int
	// NeedsSpawn reports whether this source must be the one that spawns
	// the channel's target process (at most one source per channel may
	// answer true; the channel picks the first in iteration order).
	NeedsSpawn() bool
	// Spawn performs the spawn when NeedsSpawn is true, optionally
	// wrapping the child, and reports the resulting PID by setting
	// info.PID; the channel adopts that value as its target pid.
	Spawn(info *procinfo.SpawnInfo) error
	Start() error
	Stop() error
	Mute()
	Unmute()
	// Bind attaches the source to its owning channel. Called at most once,
	// before Start, by the Manager when constructing the source.
	Bind(channelID int, d Deliverer)
	Manifest() *manifest.Manifest
}
