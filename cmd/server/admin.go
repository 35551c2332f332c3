package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/marketplace/internal/config"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/db"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

func newAdminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}
	admin.AddCommand(
		setAdminCmd("promote", "Grant administrator rights to a user", true),
		setAdminCmd("demote", "Revoke administrator rights from a user", false),
	)
	return admin
}

func setAdminCmd(use, short string, grant bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := logging.IntoContext(cmd.Context(), logging.New(cfg.LogLevel))

			gdb, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			users := &service.UserService{Repo: repo.New(gdb)}
			if err := users.SetAdmin(ctx, args[0], grant); err != nil {
				if msg := service.Message(err); msg != "" {
					return fmt.Errorf("%s %s: %s", use, args[0], msg)
				}
				return fmt.Errorf("%s %s: %w", use, args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: is_admin=%t\n", args[0], grant)
			return nil
		},
	}
}
