package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/api"
	"github.com/beesaferoot/officelease/internal/backup"
	"github.com/beesaferoot/officelease/internal/documents"
	"github.com/beesaferoot/officelease/internal/drive"
	"github.com/beesaferoot/officelease/internal/metrics"
	"github.com/beesaferoot/officelease/internal/receipt"
)

// driveBackup builds the Drive backup target from the stored token. It
// returns drive.ErrNotAuthorized until "backup drive auth" has been run.
func (a *app) driveBackup(ctx context.Context, db *gorm.DB, counter *prometheus.CounterVec) (*backup.DriveBackup, error) {
	conf, err := drive.OAuthConfig(a.cfg.Drive)
	if err != nil {
		return nil, err
	}
	httpClient, err := drive.HTTPClient(ctx, conf, drive.TokenStore{Path: a.cfg.Drive.TokenPath})
	if err != nil {
		return nil, err
	}
	client, err := drive.NewGoogleClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	return backup.NewDriveBackup(client, a.cfg.Drive.FolderName, db, counter, a.logger), nil
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the backup scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetInt("port"); port != 0 {
				a.cfg.Server.Port = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 0, "Override the configured server port")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	db, closeDB, err := a.openMigrated(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()

	svc, rec := a.services(db)
	m := metrics.New(metrics.Namespace)
	local := backup.NewLocalStore(cfg.Storage.BackupDir, db, logger)

	deps := api.Deps{
		DB:        db,
		Services:  svc,
		Receipts:  receipt.NewService(db, cfg.Receipts, cfg.Storage.ReceiptsDir, rec, logger),
		Documents: documents.NewService(db, cfg.Storage.DocumentsDir, rec, logger),
		Backups:   local,
		Metrics:   m,
		Logger:    logger,
	}
	// an unauthorized Drive leaves deps.Drive nil so the routes answer 503
	if remote, err := a.driveBackup(ctx, db, m.Backups); err == nil {
		deps.Drive = remote
	} else {
		logger.Info("google drive backups disabled", zap.Error(err))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.New(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	var scheduler *backup.Scheduler
	if cfg.Backup.Schedule != "" {
		scheduler = backup.NewScheduler(local, cfg.Backup.Schedule, cfg.Backup.Keep, m.Backups, logger)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", server.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("database", cfg.Database.Driver),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		if err := server.Close(); err != nil {
			logger.Error("server close failed", zap.Error(err))
		}
		return err
	}
	logger.Info("server stopped")
	return nil
}
