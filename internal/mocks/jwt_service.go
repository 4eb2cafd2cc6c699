package mocks

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing.
// Without Fn overrides, tokens are "access:<uuid>" and "refresh:<uuid>" and
// validate back to the embedded user id.
type MockJWTService struct {
	// GenerateTokenFn allows test cases to mock the GenerateToken behavior
	GenerateTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateTokenFn allows test cases to mock the ValidateToken behavior
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// GenerateRefreshTokenFn allows test cases to mock the GenerateRefreshToken behavior
	GenerateRefreshTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateRefreshTokenFn allows test cases to mock the ValidateRefreshToken behavior
	ValidateRefreshTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Err fails token generation when set
	Err error
}

var _ auth.JWTService = (*MockJWTService)(nil)

// GenerateToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID)
	}

	return fakeToken(auth.TokenTypeAccess, userID, m.Err)
}

// ValidateToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateToken(
	ctx context.Context,
	tokenString string,
) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}

	return parseFakeToken(auth.TokenTypeAccess, tokenString, auth.ErrInvalidToken)
}

// GenerateRefreshToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateRefreshToken(
	ctx context.Context,
	userID uuid.UUID,
) (string, error) {
	if m.GenerateRefreshTokenFn != nil {
		return m.GenerateRefreshTokenFn(ctx, userID)
	}

	return fakeToken(auth.TokenTypeRefresh, userID, m.Err)
}

// ValidateRefreshToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateRefreshToken(
	ctx context.Context,
	tokenString string,
) (*auth.Claims, error) {
	if m.ValidateRefreshTokenFn != nil {
		return m.ValidateRefreshTokenFn(ctx, tokenString)
	}

	return parseFakeToken(auth.TokenTypeRefresh, tokenString, auth.ErrInvalidRefreshToken)
}

func fakeToken(tokenType string, userID uuid.UUID, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return tokenType + ":" + userID.String(), nil
}

func parseFakeToken(tokenType, token string, invalid error) (*auth.Claims, error) {
	raw, ok := strings.CutPrefix(token, tokenType+":")
	if !ok {
		return nil, invalid
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalid
	}
	return &auth.Claims{UserID: userID, TokenType: tokenType, Subject: userID.String()}, nil
}
