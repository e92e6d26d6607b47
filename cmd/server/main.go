// Command server runs the lineage aggregation HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"lineagehub/internal/api"
	"lineagehub/internal/config"
	internaldb "lineagehub/internal/db"
	"lineagehub/internal/db/repository"
	"lineagehub/internal/lineage/graph"
	"lineagehub/internal/middleware"
	"lineagehub/internal/service"
	"lineagehub/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metastore
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, cfg.ReadPoolSize)
	if err != nil {
		return err
	}
	defer func() {
		_ = readDB.Close()
		_ = writeDB.Close()
	}()
	if err := internaldb.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Blob store for raw uploads
	store, err := storage.New(ctx, storage.Config{
		Backend:          cfg.Storage.Backend,
		Dir:              cfg.Storage.LocalDir,
		S3Endpoint:       cfg.Storage.S3Endpoint,
		S3Region:         cfg.Storage.S3Region,
		S3KeyID:          cfg.Storage.S3KeyID,
		S3Secret:         cfg.Storage.S3Secret,
		S3Bucket:         cfg.Storage.S3Bucket,
		GCSKeyFilePath:   cfg.Storage.GCSKeyFilePath,
		GCSBucket:        cfg.Storage.GCSBucket,
		AzureAccountName: cfg.Storage.AzureAccountName,
		AzureAccountKey:  cfg.Storage.AzureAccountKey,
		AzureContainer:   cfg.Storage.AzureContainer,
	})
	if err != nil {
		return fmt.Errorf("init %s storage: %w", cfg.Storage.Backend, err)
	}

	// Repositories and services
	fileRepo := repository.NewFileRepo(writeDB, readDB)
	factRepo := repository.NewFactRepo(writeDB, readDB)

	lineageSvc := service.NewLineageService(fileRepo, factRepo, cfg.GraphCacheLen, logger)
	fileSvc := service.NewFileService(fileRepo, factRepo, store, lineageSvc, logger)
	analyticsSvc := service.NewAnalyticsService(lineageSvc, graph.NewEngine(cfg.GraphCacheLen))
	exportSvc := service.NewExportService(lineageSvc)

	retentionSvc := service.NewRetentionService(fileRepo, store, cfg.RetentionWindow, logger)
	if err := retentionSvc.Start(cfg.RetentionSchedule); err != nil {
		return fmt.Errorf("start retention sweep: %w", err)
	}
	defer retentionSvc.Stop()

	// Token validation
	var validator middleware.JWTValidator
	if cfg.Auth.OIDCEnabled() {
		validator, err = middleware.NewOIDCValidator(ctx, cfg.Auth.IssuerURL, cfg.Auth.Audience)
		if err != nil {
			return fmt.Errorf("init oidc validator: %w", err)
		}
	} else {
		validator, err = middleware.NewHS256Validator(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
	}

	handler := api.NewHandler(fileSvc, lineageSvc, analyticsSvc, exportSvc, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		Validator: validator,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", "addr", cfg.ListenAddr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
