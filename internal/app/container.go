// Package app wires configuration, storage and services for the ERP binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/college-erp-api/internal/repository"
	"github.com/noah-isme/college-erp-api/internal/service"
	"github.com/noah-isme/college-erp-api/pkg/cache"
	"github.com/noah-isme/college-erp-api/pkg/config"
	"github.com/noah-isme/college-erp-api/pkg/database"
	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
	"github.com/noah-isme/college-erp-api/pkg/export"
	"github.com/noah-isme/college-erp-api/pkg/jobs"
	"github.com/noah-isme/college-erp-api/pkg/storage"
)

// Options selects the optional backends a binary needs.
type Options struct {
	// Redis enables the job snapshot mirror and progress pub/sub.
	Redis bool
	// Queue starts the background import queue.
	Queue bool
}

// Container holds every long lived dependency.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	DB       *sqlx.DB
	LegacyDB *sqlx.DB
	Redis    *redis.Client
	Cache    *repository.CacheRepository

	Metrics    *service.MetricsService
	Auth       *service.AuthService
	Identity   *service.StudentIdentityService
	Marksheets *service.MarksheetService
	Imports    *service.ImportService
	Legacy     *service.LegacyMigrationService
	Jobs       *service.ImportJobService
	Worker     *service.ImportWorker
	Downloads  *service.DownloadService
	Progress   service.ProgressSink

	queue *jobs.Queue
}

// New opens the databases and builds the service graph. The legacy MySQL
// database is optional: without it unknown roll numbers cannot be migrated
// and legacy migrations are rejected.
func New(cfg *config.Config, logger *zap.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: logger, Metrics: service.NewMetricsService()}

	writers := cfg.Imports.Workers * cfg.Imports.QueueWorkers
	if cfg.LegacyDatabase.Host != "" {
		writers += cfg.Legacy.Workers
	}
	db, err := database.NewPostgres(cfg.Database, writers)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.DB = db

	if cfg.LegacyDatabase.Host != "" {
		legacyDB, err := database.NewLegacyMySQL(cfg.LegacyDatabase)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect legacy mysql: %w", err)
		}
		c.LegacyDB = legacyDB
	}

	c.Progress = service.NewLogProgressSink(logger.Named("progress"))
	if opts.Redis {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Redis = client
		c.Cache = repository.NewCacheRepository(client, logger)
		c.Progress = service.NewRedisProgressSink(c.Cache, logger.Named("progress"))
	}

	artifacts, err := storage.NewArtifactStore(cfg.Downloads.StorageDir)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("prepare downloads: %w", err)
	}
	signer := storage.NewLinkSigner(cfg.Downloads.SignedURLSecret, cfg.Downloads.SignedURLTTL)
	c.Downloads = service.NewDownloadService(artifacts, signer, cfg.APIPrefix, logger.Named("downloads"))

	students := repository.NewStudentRepository(db)
	streams := repository.NewStreamRepository(db)
	marksheets := repository.NewMarksheetRepository(db)

	var legacyRepo *repository.LegacyRepository
	if c.LegacyDB != nil {
		legacyRepo = repository.NewLegacyRepository(c.LegacyDB)
		c.Identity = service.NewStudentIdentityService(students, legacyRepo, logger.Named("identity"))
	} else {
		c.Identity = service.NewStudentIdentityService(students, nil, logger.Named("identity"))
	}

	metadataRepo := repository.NewSubjectMetadataRepository(db)
	metadata := service.NewSubjectMetadataService(metadataRepo, logger.Named("subject_metadata"))
	c.Marksheets = service.NewMarksheetService(marksheets, streams, c.Identity, metadata, service.DefaultGradePolicy(), logger.Named("marksheet"), export.NewPDFExporter(), c.Downloads)
	c.Imports = service.NewImportService(streams, metadataRepo, c.Marksheets, cfg.Imports.Workers, c.Metrics, nil, logger.Named("import"))
	c.Auth = service.NewAuthService(logger.Named("auth"), service.AuthConfig{Secret: cfg.JWT.Secret})

	if legacyRepo != nil {
		c.Legacy = service.NewLegacyMigrationService(service.LegacyMigrationDeps{
			Legacy:     legacyRepo,
			References: repository.NewReferenceRepository(db),
			Profiles:   repository.NewProfileRepository(db),
			Admissions: repository.NewAdmissionRepository(db),
			Users:      repository.NewUserRepository(db),
			Streams:    streams,
			Identity:   c.Identity,
		}, cfg.Legacy, c.Metrics, logger.Named("legacy"))
	}

	store := service.NewImportJobStore(nil, cfg.Imports.ResultTTL, logger.Named("jobs"))
	if c.Cache != nil {
		store = service.NewImportJobStore(c.Cache, cfg.Imports.ResultTTL, logger.Named("jobs"))
	}
	if c.Legacy != nil {
		c.Worker = service.NewImportWorker(store, c.Imports, c.Legacy, c.Progress, c.Downloads, logger.Named("worker"))
	} else {
		c.Worker = service.NewImportWorker(store, c.Imports, nil, c.Progress, c.Downloads, logger.Named("worker"))
	}

	if opts.Queue {
		c.queue = jobs.NewQueue("imports", c.Worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Imports.QueueWorkers,
			BufferSize: cfg.Imports.QueueBuffer,
			MaxRetries: 1,
			RetryDelay: 5 * time.Second,
			Retryable:  retryable,
			Logger:     logger.Named("queue"),
		})
		c.Jobs = service.NewImportJobService(store, c.queue, nil, logger.Named("jobs"), export.NewCSVExporter(), c.Downloads)
	}
	return c, nil
}

// retryable retries only infrastructure failures. Validation and mapping
// errors fail the same way on every attempt.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return appErrors.FromError(err).Status >= 500
}

// Start launches the background queue, if any, and the sweep of expired
// download artifacts.
func (c *Container) Start(ctx context.Context) {
	if c.queue != nil {
		c.queue.Start(ctx)
	}
	c.Downloads.StartCleanup(ctx, c.Config.Downloads.CleanupInterval)
}

// Close stops the queue and releases every connection.
func (c *Container) Close() {
	if c.queue != nil {
		c.queue.Stop()
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			c.Logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if c.LegacyDB != nil {
		_ = c.LegacyDB.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

// Ping checks the backends a running server depends on, keyed by name.
func (c *Container) Ping(ctx context.Context) map[string]error {
	failed := make(map[string]error)
	if err := c.DB.PingContext(ctx); err != nil {
		failed["postgres"] = err
	}
	if c.LegacyDB != nil {
		if err := c.LegacyDB.PingContext(ctx); err != nil {
			failed["legacy_mysql"] = err
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx).Err(); err != nil {
			failed["redis"] = err
		}
	}
	return failed
}
