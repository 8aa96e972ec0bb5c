package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perfkit/agent/internal/rpcapi"
)

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "manage channels on the running daemon",
}

var (
	channelPID        int
	channelTarget     string
	channelArgs       []string
	channelWorkingDir string
	channelInheritEnv bool
	channelKillOnStop bool
)

var channelCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "create a channel attached to an existing pid or a spawned target",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := withTimeout()
		defer cancel()
		req := &rpcapi.CreateChannelRequest{
			PID:        channelPID,
			Target:     channelTarget,
			Args:       channelArgs,
			WorkingDir: channelWorkingDir,
			InheritEnv: channelInheritEnv,
			KillOnStop: channelKillOnStop,
		}
		channelID, err := c.CreateChannel(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("channel %d created\n", channelID)
		return nil
	},
}

func init() {
	channelCreateCmd.Flags().IntVar(&channelPID, "pid", 0, "attach to an existing pid (mutually exclusive with --target)")
	channelCreateCmd.Flags().StringVar(&channelTarget, "target", "", "spawn this executable (mutually exclusive with --pid)")
	channelCreateCmd.Flags().StringArrayVar(&channelArgs, "arg", nil, "argument to pass the spawned target, repeatable")
	channelCreateCmd.Flags().StringVar(&channelWorkingDir, "working-dir", "", "working directory for the spawned target")
	channelCreateCmd.Flags().BoolVar(&channelInheritEnv, "inherit-env", true, "inherit the daemon's environment when spawning")
	channelCreateCmd.Flags().BoolVar(&channelKillOnStop, "kill-on-stop", true, "signal the target on channel stop")

	channelCmd.AddCommand(channelCreateCmd)
	rootCmd.AddCommand(channelCmd)
}
