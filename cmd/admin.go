/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tgdash/dashclient/internal/state"
)

// adminCmd represents the admin command. The backend rejects these
// calls for non-admin users; no check happens client-side.
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin operations (backend enforces authorization)",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		users, err := client.AdminUsers(cmd.Context())
		if err != nil {
			return err
		}
		for _, user := range users {
			banned := ""
			if user.IsBanned {
				banned = "  BANNED"
			}
			fmt.Printf("%d  @%s  %s  %s%s\n", user.ID, user.Username, user.Role, user.Balance.String(), banned)
		}
		return nil
	},
}

var adminBanCmd = &cobra.Command{
	Use:   "ban <id>",
	Short: "Toggle a user's banned flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id %q", args[0])
		}
		client, err := newClient()
		if err != nil {
			return err
		}

		users, err := client.AdminUsers(cmd.Context())
		if err != nil {
			return err
		}
		for _, user := range users {
			if user.ID != id {
				continue
			}
			controller := state.NewController(client)
			if err := controller.ToggleBan(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Printf("user %d banned=%t\n", id, !user.IsBanned)
			return nil
		}
		return errors.New("user not found")
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminBanCmd)
}
