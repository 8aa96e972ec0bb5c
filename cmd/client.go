package cmd

import (
	"context"
	"time"

	"github.com/perfkit/agent/internal/rpc"
)

// dial connects to the daemon's control socket with a bounded timeout,
// shared by every thin-client subcommand.
func dial() (*rpc.Client, error) {
	return rpc.NewClient(socketPath)
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
