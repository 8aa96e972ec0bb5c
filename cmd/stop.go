package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop <channel-id>",
	Short: "stop a channel (signal its target if kill_on_stop, tear down its sources)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid channel id %q: %w", args[0], err)
		}

		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := withTimeout()
		defer cancel()
		state, err := c.StopChannel(ctx, channelID)
		if err != nil {
			return err
		}
		fmt.Printf("channel %d stopped: state=%s\n", channelID, state.State)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
