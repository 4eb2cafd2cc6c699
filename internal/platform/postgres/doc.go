// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx stdlib driver, and embeds the goose
// schema migrations.
package postgres
