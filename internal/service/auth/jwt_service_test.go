package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasksphere/shareme-api/internal/config"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var (
	fixedTime       = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	accessLifetime  = 60 * time.Minute
	refreshLifetime = 24 * time.Hour
)

func newTestService(secret string, at time.Time) *hmacJWTService {
	return newHMACJWTService(secret, accessLifetime, refreshLifetime, func() time.Time { return at })
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{
		JWTSecret:                   "short",
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 120,
	})
	assert.Error(t, err)

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:                   testSecret,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 120,
	})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(testSecret, fixedTime)
	userID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(accessLifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	issue := func(secret string) string {
		token, err := newTestService(secret, fixedTime).GenerateToken(context.Background(), userID)
		require.NoError(t, err)
		return token
	}
	refresh, err := newTestService(testSecret, fixedTime).GenerateRefreshToken(context.Background(), userID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		at      time.Time
		wantErr error
	}{
		{"valid token", issue(testSecret), fixedTime, nil},
		{"within clock skew", issue(testSecret), fixedTime.Add(accessLifetime + time.Minute), nil},
		{"expired token", issue(testSecret), fixedTime.Add(accessLifetime + time.Hour), ErrExpiredToken},
		{"invalid signature", issue(wrongSecret), fixedTime, ErrInvalidToken},
		{"malformed token", "this.is.not.a.valid.jwt.token", fixedTime, ErrInvalidToken},
		{"empty token", "", fixedTime, ErrInvalidToken},
		{"refresh token used as access", refresh, fixedTime, ErrWrongTokenType},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := newTestService(testSecret, tt.at).ValidateToken(context.Background(), tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newTestService(testSecret, fixedTime)

	refresh, err := svc.GenerateRefreshToken(context.Background(), userID)
	require.NoError(t, err)
	access, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(context.Background(), refresh)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Equal(t, fixedTime.Add(refreshLifetime).Unix(), claims.ExpiresAt.Unix())

	_, err = svc.ValidateRefreshToken(context.Background(), access)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	later := newTestService(testSecret, fixedTime.Add(refreshLifetime+time.Hour))
	_, err = later.ValidateRefreshToken(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrExpiredRefreshToken)

	_, err = newTestService(wrongSecret, fixedTime).ValidateRefreshToken(context.Background(), refresh)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestGeneratedTokensAreUnique(t *testing.T) {
	t.Parallel()

	svc := newTestService(testSecret, fixedTime)
	userID := uuid.New()

	first, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	second, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
