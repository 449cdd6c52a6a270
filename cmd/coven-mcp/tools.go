// ABOUTME: serve-tools command exposing local tools to the gateway
// ABOUTME: Registers the built-in tool set and serves calls until interrupted

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-mcp/internal/client"
)

func newServeToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-tools",
		Short: "Serve the built-in tools over the gateway connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			printBanner()
			warnIfTokenExpired(cfg.Auth.Token)

			c, m := buildClient(cfg)
			serveMetrics(cfg.Metrics, m)

			for _, tool := range builtinTools() {
				if err := c.RegisterTool(tool); err != nil {
					return fmt.Errorf("registering %s: %w", tool.Name, err)
				}
			}

			ctx := cmd.Context()
			if err := c.Connect(ctx); err != nil {
				return err
			}
			defer c.Disconnect()

			green := color.New(color.FgGreen)
			green.Printf("serving %d tools\n", len(c.Tools()))
			for _, name := range c.Tools() {
				fmt.Fprintf(os.Stderr, "  - %s\n", name)
			}

			<-ctx.Done()
			return nil
		},
	}
}

func builtinTools() []client.Tool {
	return []client.Tool{
		{
			Name:        "echo",
			Description: "Returns its input unchanged",
			Parameters:  json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}}}`),
			Handler: func(ctx context.Context, params json.RawMessage) (any, error) {
				var in struct {
					Text string `json:"text"`
				}
				if err := json.Unmarshal(params, &in); err != nil {
					return nil, fmt.Errorf("invalid params: %w", err)
				}
				return map[string]string{"text": in.Text}, nil
			},
		},
		{
			Name:        "current_time",
			Description: "Returns the current time in RFC 3339 format",
			Handler: func(ctx context.Context, params json.RawMessage) (any, error) {
				return map[string]string{"time": time.Now().Format(time.RFC3339)}, nil
			},
		},
		{
			Name:        "hostname",
			Description: "Returns the hostname of the machine serving tools",
			Handler: func(ctx context.Context, params json.RawMessage) (any, error) {
				host, err := os.Hostname()
				if err != nil {
					return nil, err
				}
				return map[string]string{"hostname": host}, nil
			},
		},
	}
}
