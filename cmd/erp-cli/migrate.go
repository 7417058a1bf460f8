package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/noah-isme/college-erp-api/internal/app"
	"github.com/noah-isme/college-erp-api/internal/models"
)

func migrateLegacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate-legacy",
		Short: "Copy admissions from the legacy MySQL database",
		RunE:  runMigrateLegacy,
	}
	f := cmd.Flags()
	f.Int("shift", 0, "Legacy shift id to migrate (defaults to LEGACY_SHIFT_ID)")
	f.Int("batch-size", 0, "Records fetched per page (0 uses LEGACY_BATCH_SIZE)")
	f.Int("limit", 0, "Stop after this many records (0 migrates everything)")
	return cmd
}

func runMigrateLegacy(cmd *cobra.Command, _ []string) error {
	var req models.LegacyMigrationRequest
	if cmd.Flags().Changed("shift") {
		shift, _ := cmd.Flags().GetInt("shift")
		req.ShiftID = &shift
	}
	req.BatchSize, _ = cmd.Flags().GetInt("batch-size")
	req.Limit, _ = cmd.Flags().GetInt("limit")

	return withContainer(app.Options{}, func(c *app.Container) error {
		if c.Legacy == nil {
			return errors.New("LEGACY_DB_HOST is not set")
		}
		result, err := c.Legacy.Migrate(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), result)
	})
}
