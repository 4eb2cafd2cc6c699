package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/tasksphere/shareme-api/internal/platform/postgres"
)

const migrationsDir = "migrations"

var migrationCommands = map[string]struct{}{
	"up": {}, "down": {}, "status": {}, "reset": {}, "version": {},
}

// slogGooseLogger forwards goose output to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Printf(format string, v ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Fatalf logs at error level and leaves exiting to main.
func (l *slogGooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// runMigrations applies command against the embedded migration set.
func runMigrations(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	if _, ok := migrationCommands[command]; !ok {
		return fmt.Errorf("unknown migration command %q: expected up, down, status, reset or version", command)
	}

	log := logger.With(slog.String("component", "migrations"), slog.String("command", command))
	goose.SetBaseFS(postgres.Migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&slogGooseLogger{logger: log})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	log.Info("running migrations")
	if err := goose.RunContext(ctx, command, db, migrationsDir); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	log.Info("migrations finished")
	return nil
}
