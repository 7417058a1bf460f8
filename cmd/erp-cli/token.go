package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/college-erp-api/internal/models"
	"github.com/noah-isme/college-erp-api/internal/service"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a short lived access token for scripted imports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			userID, _ := cmd.Flags().GetString("user")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			auth := service.NewAuthService(logr, service.AuthConfig{Secret: cfg.JWT.Secret})
			token, expires, err := auth.IssueToken(models.User{ID: userID, Role: models.UserRole(role)}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s\n", token, expires.Format(time.RFC3339))
			return nil
		},
	}
	f := cmd.Flags()
	f.String("user", "", "User id placed in the token")
	f.String("role", string(models.RoleAdmin), "Role placed in the token")
	f.Duration("ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
