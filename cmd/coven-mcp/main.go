// ABOUTME: Entry point for the coven-mcp command line client
// ABOUTME: Wires config, logging, and metrics into the MCP client commands

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-mcp/internal/client"
	"github.com/2389/coven-mcp/internal/config"
	"github.com/2389/coven-mcp/internal/metrics"
	"github.com/2389/coven-mcp/internal/protocol"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  ___ _____   _____ _ __        _ __ ___   ___ _ __
 / __/ _ \ \ / / _ \ '_ \ _____| '_ ' _ \ / __| '_ \
| (_| (_) \ V /  __/ | | |_____| | | | | | (__| |_) |
 \___\___/ \_/ \___|_| |_|     |_| |_| |_|\___| .__/
                                              |_|
`

var configPath string

// defaultConfigPath resolves the config file location.
// Priority: COVEN_MCP_CONFIG env var > XDG_CONFIG_HOME/coven/mcp.yaml > ~/.config/coven/mcp.yaml
func defaultConfigPath() string {
	if envPath := os.Getenv("COVEN_MCP_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "mcp.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "coven", "mcp.yaml")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := &cobra.Command{
		Use:           "coven-mcp",
		Short:         "MCP client for the coven gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	root.AddCommand(
		newChatCmd(),
		newServeToolsCmd(),
		newPingCmd(),
		newTokenCmd(),
		newVersionCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = defaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// buildClient assembles a Client from the loaded config. The returned
// metrics instance is nil when the metrics endpoint is disabled.
func buildClient(cfg *config.Config) (*client.Client, *metrics.Metrics) {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	clientCfg := client.Config{
		URL:           cfg.Server.URL,
		Token:         cfg.Auth.Token,
		ClientName:    "coven-mcp",
		ClientVersion: version,
		Capabilities: protocol.Capabilities{
			Tools:     true,
			Context:   true,
			Streaming: true,
		},
		PingInterval:         cfg.Timing.PingInterval,
		RequestTimeout:       cfg.Timing.RequestTimeout,
		Reconnect:            cfg.Timing.Reconnect,
		ReconnectInterval:    cfg.Timing.ReconnectInterval,
		MaxReconnectAttempts: cfg.Timing.MaxReconnectAttempts,
	}

	logger := setupLogger(cfg.Logging)
	return client.New(clientCfg, logger, m), m
}

// serveMetrics starts the metrics endpoint in the background.
func serveMetrics(cfg config.MetricsConfig, m *metrics.Metrics) {
	if m == nil {
		return
	}
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	go func() {
		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "metrics endpoint failed: %v\n", err)
		}
	}()
}

func printBanner() {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the client version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("coven-mcp %s\n", version)
		},
	}
}
