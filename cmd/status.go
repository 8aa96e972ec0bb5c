package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print channel/source/subscription registry sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := withTimeout()
		defer cancel()
		stats, err := c.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("channels=%d sources=%d subscriptions=%d\n", stats.Channels, stats.Sources, stats.Subscriptions)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
