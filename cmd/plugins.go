package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "list the source and encoder kinds registered with the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()

		ctx, cancel := withTimeout()
		defer cancel()
		list, err := c.ListPlugins(ctx)
		if err != nil {
			return err
		}
		for _, p := range list {
			fmt.Printf("%s\t%s\t%s\t%s\n", p.Kind, p.Name, p.Version, p.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
