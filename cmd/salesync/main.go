package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	bigqueryadapter "github.com/ksuzuki/salesync/internal/adapter/driven/bigquery"
	"github.com/ksuzuki/salesync/internal/adapter/driven/salesforce"
	sqliteadapter "github.com/ksuzuki/salesync/internal/adapter/driven/sqlite"
	httphandler "github.com/ksuzuki/salesync/internal/adapter/driving/http"
	"github.com/ksuzuki/salesync/internal/application"
	"github.com/ksuzuki/salesync/internal/config"
	"github.com/ksuzuki/salesync/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"sweep_interval", cfg.SweepInterval,
		"bigquery_project", cfg.BigQueryProject,
		"bigquery_dataset", cfg.BigQueryDataset,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire stores.
	jobStore := sqliteadapter.NewJobRepo(db)
	connectionStore := sqliteadapter.NewConnectionRepo(db, cfg.SecretKey)
	if cfg.SecretKey == nil {
		slog.Warn("no secret key configured, tokens are stored in plaintext")
	}

	// 6. Wire the source and warehouse adapters.
	clientFactory := salesforce.NewFactory()

	warehouse, err := bigqueryadapter.NewLoader(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.CredentialsFile)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := warehouse.Close(); closeErr != nil {
			slog.Error("error closing bigquery client", "error", closeErr)
		}
	}()

	// 7. Create OAuth client (nil when no credentials are configured; the
	// OAuth endpoints then report unavailable).
	var authClient driven.AuthClient
	if cfg.HasOAuthCredentials() {
		authClient = salesforce.NewOAuthClient(cfg.LoginURL, cfg.ClientKey, cfg.ClientSecret)
		slog.Info("oauth client created", "login_url", cfg.LoginURL)
	} else {
		slog.Info("no oauth credentials configured, account connection disabled")
	}

	// 8. Create and start the sync service.
	syncSvc := application.NewSyncService(jobStore, connectionStore, clientFactory, warehouse, cfg.SweepInterval)
	go syncSvc.Start(ctx)

	// 9. Create HTTP handler and register API routes.
	apiHandler := httphandler.NewHandler(jobStore, connectionStore, authClient, syncSvc, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// 10. Log startup complete.
	slog.Info("salesync started",
		"listen_addr", cfg.ListenAddr,
		"sweep_interval", cfg.SweepInterval,
	)

	// 11. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 12. Graceful shutdown with 10s timeout for HTTP server drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
