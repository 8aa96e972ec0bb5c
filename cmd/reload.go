package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "signal the daemon (via its pid file) to reload its config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(pidFile)
		if err != nil {
			return fmt.Errorf("read pid file %s: %w", pidFile, err)
		}
		pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			return fmt.Errorf("parse pid file %s: %w", pidFile, err)
		}
		if err := unix.Kill(pid, unix.SIGHUP); err != nil {
			return fmt.Errorf("signal pid %d: %w", pid, err)
		}
		fmt.Printf("sent SIGHUP to pid %d\n", pid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}
