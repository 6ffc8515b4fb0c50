package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/feedlane/feedlane-backend/config"
	"github.com/feedlane/feedlane-backend/db"
	"github.com/feedlane/feedlane-backend/internal/store/postgres"
	"github.com/feedlane/feedlane-backend/internal/webhook"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/feedlane/feedlane-backend/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// sampleProject stands in for a stored project when no --project is given.
func sampleProject() *types.Project {
	org := &types.Organization{ID: "00000000-0000-0000-0000-000000000000", Name: "Feedlane"}
	return &types.Project{
		ID:             "00000000-0000-0000-0000-000000000000",
		Name:           "Feedlane CLI",
		OrganizationID: org.ID,
		Organization:   org,
	}
}

// loadConfig reads configuration the same way the server does.
func loadConfig() (*config.Config, error) {
	logger.InitLogger()
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := config.PostgresPoolConfig(&cfg.Database)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// --- Migrate commands ---

func migrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := db.RunMigrations(cfg.Database.URL()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func migrateDownCmd() *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return errors.New("--steps must be at least 1")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := db.RollbackMigrations(cfg.Database.URL(), steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	return cmd
}

// --- Webhook commands ---

func webhookPreviewCmd() *cobra.Command {
	var (
		destURL  string
		provider string
		fbType   string
		message  string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the payload a destination would receive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if destURL == "" {
				return errors.New("--url is required")
			}

			dest := webhook.Destination{URL: destURL, Provider: webhook.ParseProvider(provider, destURL)}
			project := sampleProject()
			fb := webhook.SampleFeedback(project, time.Now().UTC())
			if fbType != "" {
				t := types.FeedbackType(strings.ToUpper(fbType))
				if !t.IsValid() {
					return fmt.Errorf("unknown feedback type %q", fbType)
				}
				fb.Type = t
			}
			if message != "" {
				fb.Message = message
			}

			payload, err := webhook.FormatPayload(dest, fb, project, project.Organization, false)
			if err != nil {
				return err
			}

			var pretty any
			if err := json.Unmarshal(payload, &pretty); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(pretty)
		},
	}

	cmd.Flags().StringVar(&destURL, "url", "", "Destination URL")
	cmd.Flags().StringVar(&provider, "provider", "", "Force a provider (slack, discord, telegram, generic)")
	cmd.Flags().StringVar(&fbType, "type", "", "Feedback type (BUG, INQUIRY, FEATURE)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "Feedback message")
	return cmd
}

func webhookTestCmd() *cobra.Command {
	var (
		destURL   string
		projectID string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Deliver a sample feedback to a URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if destURL == "" {
				return errors.New("--url is required")
			}

			project := sampleProject()
			if projectID != "" {
				loaded, err := loadProject(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				project = loaded
			}

			client := webhook.NewClient(webhook.WithTimeout(timeout), webhook.WithUserAgent("feedlanectl/"+version))
			dispatcher := webhook.NewDispatcher(nil, client, 0, 1)
			result := dispatcher.SendTest(cmd.Context(), destURL, project, project.Organization)

			out := cmd.OutOrStdout()
			if !result.Success {
				fmt.Fprintf(out, "FAILED provider=%s status=%d error=%s\n", result.Provider, result.Status, result.Error)
				return errors.New("test delivery failed")
			}
			fmt.Fprintf(out, "OK provider=%s status=%d\n", result.Provider, result.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&destURL, "url", "", "Destination URL")
	cmd.Flags().StringVar(&projectID, "project", "", "Render with a stored project instead of the sample one")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Delivery timeout")
	return cmd
}

func loadProject(ctx context.Context, projectID string) (*types.Project, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	project, err := postgres.NewProjectStore(pool).GetProjectWithOrganization(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading project %s: %w", projectID, err)
	}
	return project, nil
}

func webhookAddCmd() *cobra.Command {
	var (
		orgID    string
		destURL  string
		disabled bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a webhook for an organization",
		RunE: func(cmd *cobra.Command, args []string) error {
			if orgID == "" || destURL == "" {
				return errors.New("--org and --url are required")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			created, err := postgres.NewWebhookStore(pool).CreateWebhook(cmd.Context(), &types.Webhook{
				OrganizationID: orgID,
				URL:            destURL,
				Enabled:        !disabled,
				Provider:       webhook.DetectProvider(destURL),
			})
			if err != nil {
				return fmt.Errorf("creating webhook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created webhook %s (%s) for %s\n",
				created.ID, created.Provider, logger.MaskURL(created.URL))
			return nil
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "Organization ID")
	cmd.Flags().StringVar(&destURL, "url", "", "Destination URL")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Store the webhook disabled")
	return cmd
}

// --- Config command ---

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration (secrets omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return writeConfig(cmd, cfg)
		},
	}
}

func writeConfig(cmd *cobra.Command, cfg *config.Config) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg)
}
