package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/perfkit/agent/internal/rpcapi"
)

var (
	subBufferMax     int
	subBufferTimeout int
	subEncoderKind   string
)

var subscriptionCmd = &cobra.Command{
	Use:   "subscription",
	Short: "manage subscriptions on a channel",
}

var subscriptionCreateCmd = &cobra.Command{
	Use:   "create <channel-id>",
	Short: "create a muted subscription on a channel",
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
		subID, err := c.CreateSubscription(ctx, &rpcapi.CreateSubscriptionRequest{
			ChannelID:       channelID,
			BufferMax:       subBufferMax,
			BufferTimeoutMS: subBufferTimeout,
			EncoderKind:     subEncoderKind,
		})
		if err != nil {
			return err
		}
		fmt.Printf("subscription %d created\n", subID)
		return nil
	},
}

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <subscription-id>",
	Short: "stream a subscription's delivered manifests and samples until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		subID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid subscription id %q: %w", args[0], err)
		}

		c, err := dial()
		if err != nil {
			return err
		}
		defer c.Close()

		stream, err := c.Subscribe(context.Background(), subID)
		if err != nil {
			return err
		}

		for {
			ev, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s %s\t%d bytes\n", time.Now().Format(time.RFC3339), ev.Kind, len(ev.Payload))
		}
	},
}

func init() {
	subscriptionCreateCmd.Flags().IntVar(&subBufferMax, "buffer-max", 4096, "subscription buffer size in bytes before a forced flush")
	subscriptionCreateCmd.Flags().IntVar(&subBufferTimeout, "buffer-timeout-ms", 1000, "time-based flush timeout in milliseconds (0 disables)")
	subscriptionCreateCmd.Flags().StringVar(&subEncoderKind, "encoder", "default", "wire encoder kind")

	subscriptionCmd.AddCommand(subscriptionCreateCmd)
	rootCmd.AddCommand(subscriptionCmd)
	rootCmd.AddCommand(subscribeCmd)
}
