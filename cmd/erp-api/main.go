package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/college-erp-api/api/swagger"
	"github.com/noah-isme/college-erp-api/internal/app"
	"github.com/noah-isme/college-erp-api/internal/handler"
	"github.com/noah-isme/college-erp-api/internal/middleware"
	"github.com/noah-isme/college-erp-api/internal/models"
	"github.com/noah-isme/college-erp-api/pkg/config"
	"github.com/noah-isme/college-erp-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/college-erp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/college-erp-api/pkg/middleware/requestid"
)

// @title College ERP API
// @version 0.1.0
// @description Marksheet grade computation and legacy admissions migration
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "erp-api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := app.New(cfg, logr, app.Options{Redis: true, Queue: true})
	if err != nil {
		logr.Fatal("failed to build services", zap.Error(err))
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	container.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(container.Metrics))

	metricsHandler := handler.NewMetricsHandler(container.Metrics, container)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	importHandler := handler.NewImportHandler(container.Jobs)
	marksheetHandler := handler.NewMarksheetHandler(container.Marksheets)
	downloadHandler := handler.NewDownloadHandler(container.Downloads)
	audit := logr.Named("audit")
	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	r.GET(cfg.APIPrefix+"/downloads/:token", downloadHandler.Download)

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(container.Auth), middleware.RequireRoles(middleware.Staff...))
	{
		api.POST("/marksheets/imports", admins, middleware.Audit(audit, "marksheet.import"), importHandler.CreateImport)
		api.GET("/marksheets/imports/:id", importHandler.ImportStatus)
		api.GET("/marksheets/imports/:id/failures.csv", importHandler.ImportFailures)
		api.GET("/marksheets/imports/:id/failures/link", importHandler.ImportFailuresLink)
		api.GET("/marksheets/:id", marksheetHandler.Get)
		api.GET("/marksheets/:id/pdf", marksheetHandler.PDF)
		api.GET("/marksheets/:id/pdf/link", marksheetHandler.PDFLink)
		api.GET("/students/:id/marksheets", marksheetHandler.ListByStudent)
		api.POST("/legacy/migrations", admins, middleware.Audit(audit, "legacy.migrate"), importHandler.CreateMigration)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("server shutdown", "error", err)
	}
	logr.Info("server stopped")
}
