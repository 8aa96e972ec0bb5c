package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var sourceCmd = &cobra.Command{
	Use:   "source",
	Short: "manage sources bound to a channel",
}

var sourceAddCmd = &cobra.Command{
	Use:   "add <channel-id> <kind>",
	Short: "attach a registered source kind to a channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid channel id %q: %w", args[0], err)
		}
		kind := args[1]

		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := withTimeout()
		defer cancel()
		sourceID, err := c.AddSource(ctx, kind, channelID)
		if err != nil {
			return err
		}
		fmt.Printf("source %d (%s) attached to channel %d\n", sourceID, kind, channelID)
		return nil
	},
}

func init() {
	sourceCmd.AddCommand(sourceAddCmd)
	rootCmd.AddCommand(sourceCmd)
}
