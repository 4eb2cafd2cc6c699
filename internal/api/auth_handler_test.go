package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasksphere/shareme-api/internal/api/shared"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/service"
	"github.com/tasksphere/shareme-api/internal/service/auth"
	"github.com/tasksphere/shareme-api/internal/store"
)

func testUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		FirstName: "Ana",
		LastName:  "Ortiz",
		Email:     "ana@example.com",
		Role:      domain.RoleMember,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAuthHandler_Signup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payload    map[string]any
		serviceErr error
		wantStatus int
		wantFields []string
	}{
		{
			name: "valid signup",
			payload: map[string]any{
				"first_name": "Ana", "last_name": "Ortiz",
				"email": "ana@example.com", "password": "secret1",
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "invalid email and short password",
			payload: map[string]any{
				"first_name": "Ana", "last_name": "Ortiz",
				"email": "not-an-email", "password": "123",
			},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"email", "password"},
		},
		{
			name:       "missing names",
			payload:    map[string]any{"email": "ana@example.com", "password": "secret1"},
			wantStatus: http.StatusBadRequest,
			wantFields: []string{"first_name", "last_name"},
		},
		{
			name: "email taken",
			payload: map[string]any{
				"first_name": "Ana", "last_name": "Ortiz",
				"email": "ana@example.com", "password": "secret1",
			},
			serviceErr: store.ErrEmailExists,
			wantStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.SignupInput
			svc := &mockAuthService{
				signupFn: func(_ context.Context, in service.SignupInput) (*domain.User, error) {
					got = in
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					u := testUser()
					u.Email = in.Email
					return u, nil
				},
			}
			handler := NewAuthHandler(svc)

			rec := httptest.NewRecorder()
			handler.Signup(rec, newAPIRequest(t, http.MethodPost, "/api/auth/signup", tt.payload, uuid.Nil, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			switch {
			case tt.wantStatus == http.StatusCreated:
				var user UserResponse
				decodeBody(t, rec, &user)
				assert.Equal(t, "ana@example.com", user.Email)
				assert.Equal(t, "secret1", got.Password)
				assert.NotContains(t, rec.Body.String(), "password")
			case tt.wantFields != nil:
				var body shared.ErrorResponse
				decodeBody(t, rec, &body)
				assert.Equal(t, shared.ValidationFailedMessage, body.Error)
				for _, f := range tt.wantFields {
					assert.Contains(t, body.Fields, f)
				}
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	user := testUser()
	expires := time.Now().Add(time.Hour).UTC()

	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantError  string
	}{
		{"success", nil, http.StatusOK, ""},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockAuthService{
				loginFn: func(_ context.Context, email, password string) (*service.AuthTokens, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &service.AuthTokens{
						AccessToken:  "access-token",
						RefreshToken: "refresh-token",
						ExpiresAt:    expires,
						User:         user,
					}, nil
				},
			}
			handler := NewAuthHandler(svc)

			payload := map[string]any{"email": user.Email, "password": "secret1"}
			rec := httptest.NewRecorder()
			handler.Login(rec, newAPIRequest(t, http.MethodPost, "/api/auth/login", payload, uuid.Nil, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				var body shared.ErrorResponse
				decodeBody(t, rec, &body)
				assert.Equal(t, tt.wantError, body.Error)
				return
			}

			var resp AuthResponse
			decodeBody(t, rec, &resp)
			assert.Equal(t, "access-token", resp.AccessToken)
			assert.Equal(t, "refresh-token", resp.RefreshToken)
			assert.Equal(t, expires.Format(time.RFC3339), resp.ExpiresAt)
			assert.Equal(t, user.ID, resp.User.ID)
		})
	}
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	t.Parallel()

	svc := &mockAuthService{
		refreshTokenFn: func(_ context.Context, token string) (*service.AuthTokens, error) {
			if token == "expired" {
				return nil, auth.ErrExpiredRefreshToken
			}
			return &service.AuthTokens{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: time.Now(), User: testUser()}, nil
		},
	}
	handler := NewAuthHandler(svc)

	rec := httptest.NewRecorder()
	handler.RefreshToken(rec, newAPIRequest(t, http.MethodPost, "/api/auth/refresh",
		map[string]any{"refresh_token": "valid"}, uuid.Nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "r2", resp.RefreshToken)

	rec = httptest.NewRecorder()
	handler.RefreshToken(rec, newAPIRequest(t, http.MethodPost, "/api/auth/refresh",
		map[string]any{"refresh_token": "expired"}, uuid.Nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.RefreshToken(rec, newAPIRequest(t, http.MethodPost, "/api/auth/refresh",
		map[string]any{}, uuid.Nil, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Me(t *testing.T) {
	t.Parallel()

	user := testUser()
	svc := &mockAuthService{
		currentUserFn: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			if id != user.ID {
				return nil, store.ErrUserNotFound
			}
			return user, nil
		},
	}
	handler := NewAuthHandler(svc)

	rec := httptest.NewRecorder()
	handler.Me(rec, newAPIRequest(t, http.MethodGet, "/api/auth/me", nil, user.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp UserResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, user.ID, resp.ID)

	rec = httptest.NewRecorder()
	handler.Me(rec, newAPIRequest(t, http.MethodGet, "/api/auth/me", nil, uuid.Nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.Me(rec, newAPIRequest(t, http.MethodGet, "/api/auth/me", nil, uuid.New(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	t.Parallel()

	var forgotEmail string
	svc := &mockAuthService{
		forgotPasswordFn: func(_ context.Context, email string) error {
			forgotEmail = email
			return nil
		},
		resetPasswordFn: func(_ context.Context, token, _ string) error {
			if token != "good-token" {
				return service.ErrInvalidResetToken
			}
			return nil
		},
	}
	handler := NewAuthHandler(svc)

	rec := httptest.NewRecorder()
	handler.ForgotPassword(rec, newAPIRequest(t, http.MethodPost, "/api/auth/forgot",
		map[string]any{"email": "nobody@example.com"}, uuid.Nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var msg MessageResponse
	decodeBody(t, rec, &msg)
	assert.Equal(t, forgotPasswordMessage, msg.Message)
	assert.Equal(t, "nobody@example.com", forgotEmail)

	rec = httptest.NewRecorder()
	handler.ResetPassword(rec, newAPIRequest(t, http.MethodPost, "/api/auth/reset",
		map[string]any{"token": "good-token", "new_password": "secret2"}, uuid.Nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ResetPassword(rec, newAPIRequest(t, http.MethodPost, "/api/auth/reset",
		map[string]any{"token": "used-token", "new_password": "secret2"}, uuid.Nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ResetPassword(rec, newAPIRequest(t, http.MethodPost, "/api/auth/reset",
		map[string]any{"token": "good-token", "new_password": "123"}, uuid.Nil, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
