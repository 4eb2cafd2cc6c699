// Package main implements the entry point for the ShareMe API server,
// which serves projects, tasks, private notes and task attachments.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tasksphere/shareme-api/internal/config"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run a migration command (up|down|status|reset|version) and exit")
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("shareme-api: %v", err)
	}
}

// run loads configuration, then either executes a migration command or
// serves HTTP until SIGINT or SIGTERM.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("upload_dir", cfg.Server.UploadDir))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := setupDatabase(ctx, cfg.Database, l)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer closeDatabase(db, l)
		return runMigrations(ctx, db, migrateCmd, l)
	}

	redisClient, err := setupRedis(ctx, cfg.Redis, l)
	if err != nil {
		closeDatabase(db, l)
		return err
	}

	app, err := newApplication(cfg, l, db, redisClient)
	if err != nil {
		closeDatabase(db, l)
		_ = redisClient.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
