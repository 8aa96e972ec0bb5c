// Package cmd implements perfkitd's command-line surface: a foreground
// `daemon` entry point plus a set of thin gRPC-client subcommands that talk
// to an already-running daemon over its Unix-domain control socket.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	socketPath string
	pidFile    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "perfkitd",
	Short: "perfkitd is the Perfkit local performance-data collection agent",
	Long: `perfkitd samples one or more target processes (spawned or attached by
PID) through a pipeline of pluggable sources, multiplexes samples through
channels, and streams encoded buffers to subscribers over a gRPC control
socket.

Run "perfkitd daemon" to start the agent in the foreground; every other
subcommand is a thin client against an already-running daemon.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "/var/run/perfkitd.sock", "control socket path")
	rootCmd.PersistentFlags().StringVar(&pidFile, "pid-file", "/var/run/perfkitd.pid", "pid file path")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/perfkit/perfkit.yaml", "config file path")
}

// Execute runs the command tree, exiting with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
