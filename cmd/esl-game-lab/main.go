package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/esl-game-lab/internal/auth"
	"github.com/terra-clan/esl-game-lab/internal/config"
	"github.com/terra-clan/esl-game-lab/internal/logging"
	"github.com/terra-clan/esl-game-lab/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("esl-game-lab failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "esl-game-lab",
		Short:         "ESL Game Lab backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
	root.AddCommand(newServeCmd(), newCreateClientCmd(), newIssueTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

// loadConfig loads and validates the configuration and installs the logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.New(cfg.Log)
	return cfg, nil
}

func newCreateClientCmd() *cobra.Command {
	var permissions string
	cmd := &cobra.Command{
		Use:   "create-client <name>",
		Short: "Create an admin API client and print its key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if err := storage.MigrateFromDSN(ctx, cfg.Database.DSN, migrations(cfg)); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{DSN: cfg.Database.DSN, MaxOpenConns: 2})
			if err != nil {
				return fmt.Errorf("failed to create database repository: %w", err)
			}
			defer repo.Close()

			client, err := repo.CreateAPIClient(ctx, args[0], strings.Split(permissions, ","))
			if err != nil {
				return err
			}
			slog.Info("api client created", "id", client.ID, "name", client.Name, "permissions", client.Permissions)
			fmt.Fprintln(cmd.OutOrStdout(), client.APIKey)
			return nil
		},
	}
	cmd.Flags().StringVar(&permissions, "permissions", "catalog:read", "comma-separated permissions, e.g. catalog:read,catalog:write")
	return cmd
}

func newIssueTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Issue a bearer token for favorites and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("AUTH_JWT_SECRET is not set")
			}

			token, err := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL).Issue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
