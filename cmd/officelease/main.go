package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/beesaferoot/officelease/internal/audit"
	"github.com/beesaferoot/officelease/internal/config"
	"github.com/beesaferoot/officelease/internal/database"
	"github.com/beesaferoot/officelease/internal/logging"
	_ "github.com/beesaferoot/officelease/internal/migrations"
	"github.com/beesaferoot/officelease/internal/models"
	"github.com/beesaferoot/officelease/internal/service"
	"github.com/beesaferoot/officelease/migration"
	"github.com/beesaferoot/officelease/migration/commands"
)

func init() {
	migration.GlobalModelRegistry = models.Registry{}
}

// app carries what every command needs once the persistent flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := logging.New(cfg.Log.Level, cfg.App.Environment)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// open connects to the database without touching the schema.
func (a *app) open(ctx context.Context) (*gorm.DB, func() error, error) {
	db, err := database.Open(ctx, a.cfg.Database, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return db, func() error { return database.Close(db) }, nil
}

// openMigrated connects and applies pending migrations first.
func (a *app) openMigrated(ctx context.Context) (*gorm.DB, func() error, error) {
	db, closeDB, err := a.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	applied, err := migration.NewMigrator(db).Up(ctx)
	if err != nil {
		_ = closeDB()
		return nil, nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, m := range applied {
		a.logger.Info("migration applied", zap.String("version", m.Version), zap.String("name", m.Name))
	}
	return db, closeDB, nil
}

func (a *app) services(db *gorm.DB) (*service.Services, *audit.Recorder) {
	rec := audit.NewRecorder(a.logger)
	return service.New(db, rec, a.logger), rec
}

// withDB runs fn against a migrated database and closes it afterwards.
func (a *app) withDB(cmd *cobra.Command, fn func(ctx context.Context, db *gorm.DB) error) error {
	ctx := cmd.Context()
	db, closeDB, err := a.openMigrated(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = closeDB() }()
	return fn(ctx, db)
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "officelease",
		Short:         "Office rental management: buildings, leases, payments and receipts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" && cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				return nil
			}
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to the config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(
		serveCmd(a),
		commands.MigrateCmd(a.open),
		seedCmd(a),
		queryCmd(a),
		backupCmd(a),
		receiptCmd(a),
		configCmd(a),
	)
	return rootCmd
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
