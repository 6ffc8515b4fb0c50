// Package main provides feedlanectl, the operator CLI for the Feedlane backend.
// Commands:
//   - migrate up|down: Apply or roll back database migrations
//   - webhook preview: Print the payload a destination would receive
//   - webhook test: Deliver a sample feedback to a URL
//   - webhook add: Register a webhook for an organization
//   - config: Print the effective configuration
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "feedlanectl",
		Short:         "Feedlane operator CLI",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
	}
	migrateCmd.AddCommand(migrateUpCmd())
	migrateCmd.AddCommand(migrateDownCmd())

	webhookCmd := &cobra.Command{
		Use:   "webhook",
		Short: "Webhook commands",
	}
	webhookCmd.AddCommand(webhookPreviewCmd())
	webhookCmd.AddCommand(webhookTestCmd())
	webhookCmd.AddCommand(webhookAddCmd())

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(webhookCmd)
	rootCmd.AddCommand(configCmd())

	return rootCmd
}
