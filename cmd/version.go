package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the running daemon's version and hostname",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := withTimeout()
		defer cancel()
		version, hostname, err := c.Version(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("perfkitd %s (%s)\n", version, hostname)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
