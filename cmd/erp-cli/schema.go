package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/college-erp-api/db"
	"github.com/noah-isme/college-erp-api/pkg/database"
)

func schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Apply the target schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			conn, err := database.NewPostgres(cfg.Database, 0)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer conn.Close()

			if err := db.Apply(cmd.Context(), conn); err != nil {
				return err
			}
			logr.Info("schema applied")
			return nil
		},
	}
}
