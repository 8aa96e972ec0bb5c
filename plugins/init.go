// Package plugins registers all built-in source kinds. Blank-importing
// this package (as main does) runs every kind package's init(), which
// calls RegisterSource; the daemon then calls Apply against its concrete
// Registry once it's constructed.
package plugins

import (
	_ "github.com/perfkit/agent/plugins/source/cpu"
	_ "github.com/perfkit/agent/plugins/source/mem"
)
