package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fliqk/internal/db"
)

func init() {
	usersCmd.AddCommand(usersResetDeviceCmd)
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersResetDeviceCmd = &cobra.Command{
	Use:   "reset-device <nickname>",
	Short: "Clear a user's device binding",
	Long: `Clear the device an account is bound to, so the user can sign in
from a new device. The next login binds the account again.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(ctx context.Context, database *db.DB) error {
			user, err := database.GetUserByNickname(ctx, args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if err := database.ResetDevice(ctx, user.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "device binding cleared for %s\n", user.Nickname)
			return nil
		})
	},
}
