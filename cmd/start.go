package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <channel-id>",
	Short: "start a channel (spawn or attach its target and arm its sources)",
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
		state, err := c.StartChannel(ctx, channelID)
		if err != nil {
			return err
		}
		fmt.Printf("channel %d started: state=%s pid=%d\n", channelID, state.State, state.PID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
