package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/repository"
	"github.com/joseph-ayodele/gym-slots/internal/server"
)

func main() {
	pingOnly := flag.Bool("ping", false, "only check connectivity")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if cfg.Database.DSN == "" {
		logger.Error("DB_URL env var is required")
		os.Exit(1)
	}
	// migrations run below, explicitly
	cfg.Database.AutoMigrate = false

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	logger.Info("DB health OK", "driver", db.Dialect())
	if *pingOnly {
		return
	}

	if err := repository.Migrate(ctx, db, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
	v, err := repository.MigrationVersion(ctx, db)
	if err != nil {
		logger.Error("failed to read schema version", "error", err)
		os.Exit(1)
	}
	logger.Info("schema up to date", "version", v)
}
