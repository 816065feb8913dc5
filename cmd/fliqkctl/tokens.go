package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fliqk/internal/db"
	"fliqk/internal/models"
	"fliqk/internal/tokens"
)

var (
	tokenCount int
	tokenRole  string
)

func init() {
	tokensCreateCmd.Flags().IntVarP(&tokenCount, "count", "n", 1, "Number of tokens to generate (max 100)")
	tokensCreateCmd.Flags().StringVar(&tokenRole, "role", models.RoleUser, "Role granted by the tokens (user, tester, admin)")

	tokensCmd.AddCommand(tokensCreateCmd)
	tokensCmd.AddCommand(tokensListCmd)
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage invite tokens",
}

var tokensCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate invite tokens",
	Long: `Generate single-use invite tokens and print them, one per line.

Examples:
  # One user token
  fliqkctl tokens create

  # Ten tester tokens
  fliqkctl tokens create -n 10 --role tester`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateTokenFlags(tokenCount, tokenRole); err != nil {
			return err
		}
		return withDB(func(ctx context.Context, database *db.DB) error {
			created, err := tokens.CreateBatch(ctx, database, tokenCount, tokenRole, nil)
			for _, t := range created {
				fmt.Fprintln(cmd.OutOrStdout(), t.Token)
			}
			return err
		})
	},
}

var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invite tokens",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, database *db.DB) error {
			list, err := database.ListInviteTokens(ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOKEN\tROLE\tUSED BY\tCREATED")
			for _, t := range list {
				usedBy := "-"
				if t.Used {
					usedBy = t.UsedByNickname
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Token, t.GrantsRole, usedBy, t.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		})
	},
}

func validateTokenFlags(count int, role string) error {
	if count < 1 || count > tokens.MaxBatch {
		return fmt.Errorf("--count must be between 1 and %d", tokens.MaxBatch)
	}
	if !models.IsValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	return nil
}
