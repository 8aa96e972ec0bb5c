package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "check whether the daemon is reachable and report its uptime",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := withTimeout()
		defer cancel()
		uptime, at, err := c.Ping(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("pong: uptime=%s at=%s\n", uptime, at)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
