package main

// Apply schema migrations against DATABASE_URL:
//   go run ./cmd/migrate

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"careercoach-backend/internal/shared/config"
	"careercoach-backend/internal/shared/storage/db"
	"careercoach-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Configure(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.DatabaseURL); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", nil)
}

func run(ctx context.Context, databaseURL string) error {
	sqlDB, err := db.Connect(ctx, databaseURL, db.OptionsFor(db.ProfileMigrate))
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return db.RunMigrations(ctx, sqlDB)
}
