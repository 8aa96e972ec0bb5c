// Package mem is a built-in source kind that samples host memory usage via
// gopsutil, registered under the kind name "mem".
package mem

import (
	"bytes"
	"context"
	"encoding/binary"
	"time"

	gopsutilmem "github.com/shirou/gopsutil/v4/mem"

	"github.com/perfkit/agent/internal/manager"
	"github.com/perfkit/agent/internal/source"
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/plugins"
)

// Kind is the name this source is registered under.
const Kind = "mem"

func init() {
	plugins.RegisterSource(manager.PluginInfo{
		Name:        Kind,
		Version:     "1.0.0",
		Description: "host memory used/total in bytes, sampled via gopsutil",
	}, New)
}

// New constructs a SimpleSource sampling virtual memory stats once per
// second on the process-wide shared scheduler. The manifest publishes
// "used_bytes" and "total_bytes", both u64.
func New(sch *source.SharedScheduler) source.Source {
	var current *manifest.Manifest

	cfg := source.Config{
		Frequency:       time.Second,
		SharedScheduler: sch,
		Callback: func(s *source.SimpleSource) {
			if current == nil {
				current = manifest.NewBuilder()
				current.Append("used_bytes", manifest.TypeU64)
				current.Append("total_bytes", manifest.TypeU64)
				current.SetResolution(manifest.Millis)
				current.SetTimestamp(time.Now())
				current.Publish()
				s.PublishManifest(current)
			}
			vm, err := gopsutilmem.VirtualMemoryWithContext(context.Background())
			if err != nil {
				return
			}
			s.EmitSample(encodeUsage(vm.Used, vm.Total))
		},
	}
	return source.NewSimple(cfg)
}

func encodeUsage(used, total uint64) []byte {
	var buf bytes.Buffer
	var bits [16]byte
	binary.NativeEndian.PutUint64(bits[0:8], used)
	binary.NativeEndian.PutUint64(bits[8:16], total)
	buf.Write(bits[:])
	return buf.Bytes()
}
