package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/college-erp-api/internal/app"
	"github.com/noah-isme/college-erp-api/pkg/config"
	"github.com/noah-isme/college-erp-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "erp-cli",
		Short:        "Operator tools for marksheet imports and legacy migrations",
		SilenceUsage: true,
	}
	root.AddCommand(importCmd(), migrateLegacyCmd(), normalizeCmd(), tokenCmd(), schemaCmd())
	return root
}

// bootstrap loads configuration and a CLI tagged logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg, "erp-cli")
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}

// withContainer runs fn against a fully wired container and releases it.
func withContainer(opts app.Options, fn func(c *app.Container) error) error {
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	container, err := app.New(cfg, logr, opts)
	if err != nil {
		return err
	}
	defer container.Close()
	return fn(container)
}
