// ABOUTME: Interactive chat command streaming responses from the gateway
// ABOUTME: Each line of input becomes one streaming exchange on a shared conversation

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/2389/coven-mcp/internal/protocol"
)

func newChatCmd() *cobra.Command {
	var conversationID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			printBanner()
			warnIfTokenExpired(cfg.Auth.Token)

			c, m := buildClient(cfg)
			serveMetrics(cfg.Metrics, m)

			ctx := cmd.Context()
			if err := c.Connect(ctx); err != nil {
				return err
			}
			defer c.Disconnect()

			if info := c.ServerInfo(); info != nil {
				green := color.New(color.FgGreen)
				green.Printf("connected to %s %s\n", info.Name, info.Version)
			}

			if conversationID == "" {
				conversationID = uuid.New().String()
			}

			gray := color.New(color.FgHiBlack)
			gray.Println("type a message and press enter; ctrl-d to quit")

			scanner := bufio.NewScanner(os.Stdin)
			prompt := color.New(color.FgCyan)
			for {
				prompt.Print("> ")
				if !scanner.Scan() {
					break
				}
				line := scanner.Text()
				if line == "" {
					continue
				}

				_, err := c.SendStreamingMessage(ctx, line, conversationID, nil, func(chunk protocol.StreamChunk) {
					if chunk.Delta != "" {
						fmt.Print(chunk.Delta)
					} else if chunk.Content != "" {
						fmt.Print(chunk.Content)
					}
					if chunk.Done {
						fmt.Println()
					}
				})
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					fmt.Fprintf(os.Stderr, "stream failed: %v\n", err)
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "conversation id to continue")
	return cmd
}
