// Package redisstore keeps short-lived credentials in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/store"
)

const resetKeyPrefix = "password_reset:"

// ResetTokenStore implements store.ResetTokenStore. Each token hash maps to
// the user ID it was issued for and expires with the key.
type ResetTokenStore struct {
	client redis.Cmdable
	logger *slog.Logger
}

var _ store.ResetTokenStore = (*ResetTokenStore)(nil)

// NewResetTokenStore creates a reset token store on client.
func NewResetTokenStore(client redis.Cmdable, logger *slog.Logger) *ResetTokenStore {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResetTokenStore{
		client: client,
		logger: logger.With(slog.String("component", "reset_token_store")),
	}
}

// Save implements store.ResetTokenStore.Save.
func (s *ResetTokenStore) Save(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	if tokenHash == "" {
		return fmt.Errorf("token hash cannot be empty")
	}
	if ttl <= 0 {
		return fmt.Errorf("reset token ttl must be positive, got %s", ttl)
	}

	if err := s.client.Set(ctx, resetKey(tokenHash), userID.String(), ttl).Err(); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to store reset token",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

// Consume implements store.ResetTokenStore.Consume. The key is read and
// deleted atomically, so a token can be used once.
func (s *ResetTokenStore) Consume(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	value, err := s.client.GetDel(ctx, resetKey(tokenHash)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, store.ErrResetTokenNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to consume reset token",
			slog.String("error", err.Error()))
		return uuid.Nil, fmt.Errorf("failed to consume reset token: %w", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt reset token entry: %w", err)
	}
	return userID, nil
}

func resetKey(tokenHash string) string {
	return resetKeyPrefix + tokenHash
}
