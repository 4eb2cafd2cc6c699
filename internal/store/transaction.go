package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/tasksphere/shareme-api/internal/platform/logger"
)

// TxFn is a unit of work executed inside a database transaction.
// Returning an error rolls the transaction back; returning nil commits it.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// RunInTransaction runs fn inside a transaction on db.
//
// Services use it for every check-then-mutate flow: the access check reads
// rows with a ...ForUpdate method on a WithTx store, so the check and the
// write see the same locked state. A panic inside fn rolls back and is re-raised.
func RunInTransaction(ctx context.Context, db *sql.DB, fn TxFn) error {
	log := logger.FromContext(ctx)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to roll back transaction after panic",
					slog.String("error", rbErr.Error()),
					slog.Any("panic", p))
			} else {
				log.Error("rolled back transaction after panic", slog.Any("panic", p))
			}
			// ALLOW-PANIC: propagating the caller's panic after rollback
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return rollback(log, tx, err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Debug("transaction committed")
	return nil
}

// rollback aborts tx after cause and returns cause unchanged unless the
// rollback itself fails.
func rollback(log *slog.Logger, tx *sql.Tx, cause error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		log.Error("failed to roll back transaction",
			slog.String("rollback_error", rbErr.Error()),
			slog.String("original_error", cause.Error()))
		return fmt.Errorf("error rolling back transaction: %v (original error: %w)", rbErr, cause)
	}
	log.Debug("rolled back transaction", slog.String("error", cause.Error()))
	return cause
}
