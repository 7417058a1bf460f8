package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/college-erp-api/internal/service"
)

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Print the canonical form and lookup key of identifiers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registration, _ := cmd.Flags().GetString("registration")
			roll, _ := cmd.Flags().GetString("roll")
			if registration == "" && roll == "" {
				return errors.New("pass --registration or --roll")
			}
			out := cmd.OutOrStdout()
			if registration != "" {
				fmt.Fprintf(out, "registration: %s\n", service.NormalizeRegistration(registration))
			}
			if roll != "" {
				fmt.Fprintf(out, "roll: %s (key %s)\n", service.NormalizeRoll(roll), service.RollKey(roll))
			}
			return nil
		},
	}
	cmd.Flags().String("registration", "", "Registration number")
	cmd.Flags().String("roll", "", "Roll number")
	return cmd
}
