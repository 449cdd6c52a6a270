// ABOUTME: token command for generating and inspecting gateway tokens
// ABOUTME: Also warns interactive commands when the configured token is stale

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/coven-mcp/internal/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate or inspect gateway tokens",
	}
	cmd.AddCommand(newTokenGenerateCmd(), newTokenInspectCmd())
	return cmd
}

func newTokenGenerateCmd() *cobra.Command {
	var (
		secret  string
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a signed token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("COVEN_MCP_SECRET")
			}
			if secret == "" {
				return fmt.Errorf("a signing secret is required (--secret or COVEN_MCP_SECRET)")
			}

			verifier := auth.NewJWTVerifier([]byte(secret))
			token, err := verifier.Generate(subject, ttl)
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret")
	cmd.Flags().StringVar(&subject, "subject", "coven-mcp", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func newTokenInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <token>",
		Short: "Show a token's subject and expiry without verifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := auth.Inspect(args[0])
			if err != nil {
				return fmt.Errorf("inspecting token: %w", err)
			}

			fmt.Printf("subject: %s\n", info.Subject)
			if info.ExpiresAt.IsZero() {
				fmt.Println("expires: never")
			} else {
				fmt.Printf("expires: %s\n", info.ExpiresAt.Format(time.RFC3339))
			}
			if info.Expired() {
				color.New(color.FgYellow).Println("token is expired")
			}
			return nil
		},
	}
}

// warnIfTokenExpired prints a warning when the configured token is already
// past its expiry. Connecting would fail at the authenticate step anyway;
// the warning just makes the cause obvious up front.
func warnIfTokenExpired(token string) {
	if token == "" {
		return
	}
	info, err := auth.Inspect(token)
	if err != nil {
		return
	}
	if info.Expired() {
		yellow := color.New(color.FgYellow)
		yellow.Fprintf(os.Stderr, "warning: configured token expired at %s\n", info.ExpiresAt.Format(time.RFC3339))
	}
}
