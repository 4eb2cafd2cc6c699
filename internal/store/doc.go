// Package store defines the persistence interfaces of the task manager.
// Services depend only on these interfaces; PostgreSQL, Redis and
// filesystem implementations live under internal/platform.
package store
