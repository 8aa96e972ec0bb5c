// Package plugins is the process-wide catalog of source-kind registrars,
// populated at init() time by the concrete kind packages under
// plugins/source/..., mirroring the teacher's plugins/init.go blank-import
// pattern. Unlike the teacher's pkg/plugin (a package-level singleton
// registry), internal/manager.Registry is owned per-Manager so tests can
// build isolated registries — so registration here is two-phase: kind
// packages register a closure during init() (before any Registry exists),
// and the daemon calls Apply against its concrete Registry at startup.
package plugins

import "github.com/perfkit/agent/internal/manager"

type sourceRegistration struct {
	info    manager.PluginInfo
	factory manager.SourceFactory
}

var sourceRegistrations []sourceRegistration

// RegisterSource records a source kind to be applied to every Registry built
// with Apply. Called from the init() of each plugins/source/<kind> package.
func RegisterSource(info manager.PluginInfo, factory manager.SourceFactory) {
	sourceRegistrations = append(sourceRegistrations, sourceRegistration{info: info, factory: factory})
}

// Apply registers every source kind recorded by RegisterSource onto r. The
// daemon calls this once, right after constructing its Registry.
func Apply(r *manager.Registry) {
	for _, reg := range sourceRegistrations {
		r.RegisterSource(reg.info, reg.factory)
	}
}
