// Package cpu is a built-in source kind that samples process-wide CPU
// utilization via gopsutil, registered under the kind name "cpu".
package cpu

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	gopsutilcpu "github.com/shirou/gopsutil/v4/cpu"

	"github.com/perfkit/agent/internal/manager"
	"github.com/perfkit/agent/internal/source"
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/plugins"
)

// Kind is the name this source is registered under.
const Kind = "cpu"

func init() {
	plugins.RegisterSource(manager.PluginInfo{
		Name:        Kind,
		Version:     "1.0.0",
		Description: "host-wide CPU utilization percentage, sampled via gopsutil",
	}, New)
}

// New constructs a dedicated-thread SimpleSource sampling total CPU percent
// once per second. The manifest publishes a single f64-as-u64-bits row
// named "percent"; buildSample packs the current reading into it.
func New(sch *source.SharedScheduler) source.Source {
	var current *manifest.Manifest

	cfg := source.Config{
		Frequency:          time.Second,
		UseDedicatedThread: true,
		Callback: func(s *source.SimpleSource) {
			if current == nil {
				current = manifest.NewBuilder()
				current.Append("percent", manifest.TypeU64)
				current.SetResolution(manifest.Millis)
				current.SetTimestamp(time.Now())
				current.Publish()
				s.PublishManifest(current)
			}
			percents, err := gopsutilcpu.Percent(0, false)
			if err != nil || len(percents) == 0 {
				return
			}
			s.EmitSample(encodePercent(percents[0]))
		},
	}
	return source.NewSimple(cfg)
}

func encodePercent(p float64) []byte {
	var buf bytes.Buffer
	var bits [8]byte
	binary.NativeEndian.PutUint64(bits[:], math.Float64bits(p))
	buf.Write(bits[:])
	return buf.Bytes()
}
