package postgres

import "github.com/jackc/pgx/v5/pgconn"

func newTestPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{Code: code, Message: "constraint violated", ConstraintName: "test_constraint"}
}
