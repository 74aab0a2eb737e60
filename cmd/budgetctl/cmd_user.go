package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"budgetdesk/internal/backend"
	"budgetdesk/internal/core"
)

var (
	userEmail    string
	userName     string
	userRole     string
	userPassword string
)

// userCmd groups user administration
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API users",
}

// userAddCmd provisions a user, typically the first admin of a new install
var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user",
	Long: `Create a user that can log in through POST /api/auth/login.

The password may also be given through BUDGETCTL_PASSWORD so it does not
end up in shell history.`,
	RunE: runUserAdd,
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "Login email (required)")
	userAddCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userAddCmd.Flags().StringVar(&userRole, "role", string(core.RoleViewer), "Role: admin, manager or viewer")
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "Password (or set BUDGETCTL_PASSWORD)")
	_ = userAddCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userAddCmd)
}

func runUserAdd(cmd *cobra.Command, args []string) error {
	if appCfg.DataBackend != string(backend.SQLiteBackend) {
		return errors.New("user add needs a persistent store: set DATA_BACKEND=sqlite")
	}
	password := userPassword
	if password == "" {
		password = os.Getenv("BUDGETCTL_PASSWORD")
	}
	role := core.Role(strings.ToLower(userRole))
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q", userRole)
	}

	return withServices(cmd, func(ctx context.Context, _ *backend.BackendResult, svc *backend.Services) error {
		u := core.User{
			Email:  strings.TrimSpace(userEmail),
			Name:   strings.TrimSpace(userName),
			Role:   role,
			Active: true,
		}
		if err := svc.Auth.CreateUser(ctx, &u, password); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		logger.Info("User created", "user_id", u.ID, "role", string(u.Role))
		fmt.Fprintf(cmd.OutOrStdout(), "created user %d <%s> as %s\n", u.ID, u.Email, u.Role)
		return nil
	})
}
