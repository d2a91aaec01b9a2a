package main

// Run database migrations:
//   go run ./cmd/migrate [up|down|status]

import (
	"context"
	"os"

	"go.uber.org/zap"

	"review-analyzer/internal/shared/config"
	"review-analyzer/internal/shared/storage/db"
	"review-analyzer/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	logger, err := telemetry.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	telemetry.SetLogger(logger)

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx := context.Background()
	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	opts.Driver = cfg.DBDriver
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		logger.Error("failed to connect database", zap.Error(err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch command {
	case "up":
		err = db.RunMigrations(ctx, sqlDB)
	case "down":
		err = db.RollbackMigration(ctx, sqlDB)
	case "status":
		err = db.MigrationStatus(ctx, sqlDB)
	default:
		logger.Error("unknown command", zap.String("command", command))
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migration failed", zap.String("command", command), zap.Error(err))
		sqlDB.Close()
		os.Exit(1)
	}
	logger.Info("migration complete", zap.String("command", command))
}
