package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perfkit/agent/internal/daemon"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "run perfkitd in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New(configPath)
		if err != nil {
			return fmt.Errorf("construct daemon: %w", err)
		}
		if err := d.Start(); err != nil {
			return fmt.Errorf("start daemon: %w", err)
		}
		return d.Run()
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
