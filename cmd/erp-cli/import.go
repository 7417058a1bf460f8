package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/noah-isme/college-erp-api/internal/app"
	"github.com/noah-isme/college-erp-api/internal/models"
	"github.com/noah-isme/college-erp-api/internal/service"
	"github.com/noah-isme/college-erp-api/pkg/export"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import marksheet rows from a JSON file and grade them",
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.StringP("file", "f", "", "JSON file holding an array of rows or {\"rows\": [...]} (- for stdin)")
	f.String("failures", "", "Write failed student groups as CSV to this path")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	failuresPath, _ := cmd.Flags().GetString("failures")

	rows, err := readRows(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	return withContainer(app.Options{}, func(c *app.Container) error {
		result, err := c.Imports.Run(cmd.Context(), service.ImportRun{
			JobID: uuid.NewString(),
			Rows:  rows,
			Sink:  c.Progress,
		})
		if err != nil {
			return err
		}
		if failuresPath != "" && result.PartiallyFailed() {
			body, err := service.RenderFailures(export.NewCSVExporter(), result.Failed)
			if err != nil {
				return err
			}
			if err := os.WriteFile(failuresPath, body, 0o644); err != nil {
				return fmt.Errorf("write failures: %w", err)
			}
		}
		return printResult(cmd.OutOrStdout(), result)
	})
}

// readRows accepts either a bare JSON array of rows or an import request.
func readRows(stdin io.Reader, path string) ([]models.MarksheetRow, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var req models.ImportRequest
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return nil, fmt.Errorf("decode rows: %w", err)
		}
		return req.Rows, nil
	}
	var rows []models.MarksheetRow
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

func printResult(w io.Writer, result *models.ImportResult) error {
	fmt.Fprintf(w, "succeeded: %d, failed: %d, skipped rows: %d\n", len(result.Succeeded), len(result.Failed), result.Skipped)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
