// Package main implements fliqkctl, the operator CLI for a fliqk database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"fliqk/internal/config"
	"fliqk/internal/db"
)

var (
	// databaseURL overrides DATABASE_URL
	databaseURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fliqkctl",
	Short: "Operator commands for a fliqk database",
	Long: `fliqkctl runs maintenance tasks directly against the fliqk database:
schema migrations, invite token generation and device resets.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(usersCmd)
}

// connString resolves the database URL from the flag or the environment.
func connString() string {
	if databaseURL != "" {
		return databaseURL
	}
	return config.Load().DatabaseURL
}

// withDB opens the database for the duration of fn.
func withDB(fn func(ctx context.Context, database *db.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	database, err := db.New(ctx, connString())
	if err != nil {
		return err
	}
	defer database.Close()

	return fn(ctx, database)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(_ context.Context, database *db.DB) error {
			if err := database.RunMigrations(connString()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations up to date")
			return nil
		})
	},
}
