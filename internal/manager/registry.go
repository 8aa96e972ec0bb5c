package manager

import (
	"fmt"
	"sort"
	"sync"

	"github.com/perfkit/agent/internal/perrors"
	"github.com/perfkit/agent/internal/source"
	"github.com/perfkit/agent/pkg/encoder"
)

// PluginKind distinguishes the two factory catalogs the Manager exposes to
// a transport's plugin-introspection call (spec.md §6.3's get_plugin_type).
type PluginKind string

const (
	KindSource  PluginKind = "source"
	KindEncoder PluginKind = "encoder"
)

// DefaultEncoderKind is the name every Manager registers the identity wire
// encoder under; CreateSubscription falls back to it when the caller
// doesn't name an encoder kind explicitly.
const DefaultEncoderKind = "default"

// PluginInfo is the introspectable metadata a factory is registered with,
// modeled on pkd-source-info.c/pkd-encoder-info.c's get_name/get_version/
// get_copyright/get_description/get_plugin_type.
type PluginInfo struct {
	Name        string
	Version     string
	Copyright   string
	Description string
	Kind        PluginKind
}

// SourceFactory constructs a new, unbound source.Source instance. sch is
// the Manager's single process-wide SharedScheduler; a factory that wants
// shared (non-dedicated-thread) scheduling passes it into source.Config.
type SourceFactory func(sch *source.SharedScheduler) source.Source

// EncoderFactory constructs a new encoder.Encoder instance.
type EncoderFactory func() encoder.Encoder

type sourceEntry struct {
	info    PluginInfo
	factory SourceFactory
}

type encoderEntry struct {
	info    PluginInfo
	factory EncoderFactory
}

// Registry is a catalog of source and encoder kinds, owned per Manager.
// Plugin packages record their registrars at init() time and plugins.Apply
// copies them onto a Registry once it exists. Like the teacher's
// pkg/plugin registry, it panics on duplicate registration (a compile-time
// wiring bug) and errors on unknown lookup.
type Registry struct {
	mu        sync.RWMutex
	sources   map[string]sourceEntry
	encoders  map[string]encoderEntry
	scheduler *source.SharedScheduler
}

// NewRegistry returns a Registry pre-populated with the identity wire
// encoder under DefaultEncoderKind; source kinds are registered separately
// by the plugin packages that provide them (matching the teacher's
// plugins/init.go pattern of blank-importing each kind's package). sch is
// the single process-wide SharedScheduler handed to every source factory
// that opts into shared (non-dedicated-thread) scheduling; nil is valid
// for tests that only exercise dedicated-thread sources.
func NewRegistry(sch *source.SharedScheduler) *Registry {
	r := &Registry{
		sources:   make(map[string]sourceEntry),
		encoders:  make(map[string]encoderEntry),
		scheduler: sch,
	}
	r.RegisterEncoder(PluginInfo{
		Name:        DefaultEncoderKind,
		Version:     "1.0.0",
		Description: "native-endian identity wire encoder",
	}, func() encoder.Encoder { return encoder.DefaultEncoder{} })
	return r
}

// RegisterSource registers a source factory under info.Name. Panics if the
// name is already registered.
func (r *Registry) RegisterSource(info PluginInfo, factory SourceFactory) {
	if info.Name == "" {
		panic("manager: source plugin name cannot be empty")
	}
	if factory == nil {
		panic("manager: source factory cannot be nil")
	}
	info.Kind = KindSource

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sources[info.Name]; exists {
		panic(fmt.Sprintf("manager: source kind %q already registered", info.Name))
	}
	r.sources[info.Name] = sourceEntry{info: info, factory: factory}
}

// RegisterEncoder registers an encoder factory under info.Name. Panics if
// the name is already registered.
func (r *Registry) RegisterEncoder(info PluginInfo, factory EncoderFactory) {
	if info.Name == "" {
		panic("manager: encoder plugin name cannot be empty")
	}
	if factory == nil {
		panic("manager: encoder factory cannot be nil")
	}
	info.Kind = KindEncoder

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.encoders[info.Name]; exists {
		panic(fmt.Sprintf("manager: encoder kind %q already registered", info.Name))
	}
	r.encoders[info.Name] = encoderEntry{info: info, factory: factory}
}

// NewSource constructs a source of the given kind. Returns ErrInvalidKind
// if no factory is registered under that name.
func (r *Registry) NewSource(kind string) (source.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sources[kind]
	if !ok {
		return nil, fmt.Errorf("manager: source kind %q: %w", kind, perrors.ErrInvalidKind)
	}
	return entry.factory(r.scheduler), nil
}

// NewEncoder constructs an encoder of the given kind. Returns
// ErrInvalidKind if no factory is registered under that name.
func (r *Registry) NewEncoder(kind string) (encoder.Encoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.encoders[kind]
	if !ok {
		return nil, fmt.Errorf("manager: encoder kind %q: %w", kind, perrors.ErrInvalidKind)
	}
	return entry.factory(), nil
}

// ListPlugins returns the introspectable metadata for every registered
// source and encoder kind, sorted by name within each kind.
func (r *Registry) ListPlugins() []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]PluginInfo, 0, len(r.sources)+len(r.encoders))
	for _, e := range r.sources {
		out = append(out, e.info)
	}
	for _, e := range r.encoders {
		out = append(out, e.info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Name < out[j].Name
	})
	return out
}
