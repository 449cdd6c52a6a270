// ABOUTME: ping command measuring protocol round-trip time to the gateway
// ABOUTME: Connects, sends a burst of pings, and prints per-ping latency

package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-mcp/internal/protocol"
)

func newPingCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check gateway reachability and round-trip time",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			c, _ := buildClient(cfg)
			ctx := cmd.Context()
			if err := c.Connect(ctx); err != nil {
				return err
			}
			defer c.Disconnect()

			green := color.New(color.FgGreen)
			if info := c.ServerInfo(); info != nil {
				green.Printf("connected to %s %s\n", info.Name, info.Version)
			}

			for i := 0; i < count; i++ {
				start := time.Now()
				var pong protocol.PingResult
				if err := c.Call(ctx, protocol.MethodPing, nil, &pong); err != nil {
					return fmt.Errorf("ping %d: %w", i+1, err)
				}
				fmt.Printf("pong %d/%d in %s\n", i+1, count, time.Since(start).Round(time.Microsecond))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 3, "number of pings to send")
	return cmd
}
