package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/config"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/service/auth"
	"github.com/tasksphere/shareme-api/internal/store"
)

// SignupInput carries the fields of a new account.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthTokens is the result of a successful login or refresh.
type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *domain.User
}

// ResetNotifier delivers a raw password reset token to its owner.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, user *domain.User, token string) error
}

// AuthService provides account, login and password reset operations.
type AuthService interface {
	// Signup creates a MEMBER account. A taken email yields store.ErrEmailExists.
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)

	// Login verifies credentials and issues an access/refresh token pair.
	// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*AuthTokens, error)

	// RefreshToken exchanges a valid refresh token for a new token pair.
	RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error)

	// CurrentUser returns the account of userID.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// ForgotPassword issues a one-time reset token when email belongs to an
	// account. It reports success either way so callers cannot discover which accounts exist.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword consumes token and sets a new password.
	// Unknown, expired or reused tokens yield ErrInvalidResetToken.
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authServiceImpl struct {
	db          *sql.DB
	users       store.UserStore
	resetTokens store.ResetTokenStore
	jwt         auth.JWTService
	verifier    auth.PasswordVerifier
	notifier    ResetNotifier
	tokenTTL    time.Duration
	resetTTL    time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(
	db *sql.DB,
	users store.UserStore,
	resetTokens store.ResetTokenStore,
	jwtService auth.JWTService,
	verifier auth.PasswordVerifier,
	notifier ResetNotifier,
	cfg config.AuthConfig,
	logger *slog.Logger,
) (AuthService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if resetTokens == nil {
		return nil, domain.NewValidationError("resetTokens", "cannot be nil", domain.ErrValidation)
	}
	if jwtService == nil {
		return nil, domain.NewValidationError("jwtService", "cannot be nil", domain.ErrValidation)
	}
	if verifier == nil {
		return nil, domain.NewValidationError("verifier", "cannot be nil", domain.ErrValidation)
	}
	if notifier == nil {
		return nil, domain.NewValidationError("notifier", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &authServiceImpl{
		db:          db,
		users:       users,
		resetTokens: resetTokens,
		jwt:         jwtService,
		verifier:    verifier,
		notifier:    notifier,
		tokenTTL:    time.Duration(cfg.TokenLifetimeMinutes) * time.Minute,
		resetTTL:    time.Duration(cfg.ResetTokenTTLMinutes) * time.Minute,
		logger:      logger.With(slog.String("component", "auth_service")),
		now:         time.Now,
	}, nil
}

// Signup implements AuthService.Signup.
func (s *authServiceImpl) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(in.FirstName, in.LastName, in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.users.WithTx(tx).Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("signup with existing email rejected")
		} else {
			log.Error("failed to create user", slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user signed up", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login implements AuthService.Login.
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login with wrong password", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken implements AuthService.RefreshToken.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	claims, err := s.jwt.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return s.issueTokens(ctx, user)
}

// CurrentUser implements AuthService.CurrentUser.
func (s *authServiceImpl) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// ForgotPassword implements AuthService.ForgotPassword.
func (s *authServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	if err := s.resetTokens.Save(ctx, auth.HashResetToken(token), user.ID, s.resetTTL); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	if err := s.notifier.NotifyPasswordReset(ctx, user, token); err != nil {
		return fmt.Errorf("failed to deliver reset token: %w", err)
	}

	log.Info("password reset token issued", slog.String("user_id", user.ID.String()))
	return nil
}

// ResetPassword implements AuthService.ResetPassword.
// The new password is checked before the token is consumed.
func (s *authServiceImpl) ResetPassword(ctx context.Context, token, newPassword string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if msg := domain.PasswordProblem(newPassword); msg != "" {
		return domain.NewValidationError("password", msg, domain.ErrValidation)
	}
	if token == "" {
		return ErrInvalidResetToken
	}

	userID, err := s.resetTokens.Consume(ctx, auth.HashResetToken(token))
	if err != nil {
		if errors.Is(err, store.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newPassword); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Info("password reset", slog.String("user_id", userID.String()))
	return nil
}

func (s *authServiceImpl) issueTokens(ctx context.Context, user *domain.User) (*AuthTokens, error) {
	access, err := s.jwt.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &AuthTokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    s.now().UTC().Add(s.tokenTTL),
		User:         user,
	}, nil
}

// LogResetNotifier writes the reset link to the log at debug level.
// It stands in for mail delivery.
type LogResetNotifier struct {
	baseURL string
	logger  *slog.Logger
}

var _ ResetNotifier = (*LogResetNotifier)(nil)

// NewLogResetNotifier creates a notifier that builds links on baseURL.
func NewLogResetNotifier(baseURL string, logger *slog.Logger) *LogResetNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogResetNotifier{baseURL: baseURL, logger: logger.With(slog.String("component", "reset_notifier"))}
}

// NotifyPasswordReset implements ResetNotifier.
func (n *LogResetNotifier) NotifyPasswordReset(ctx context.Context, user *domain.User, token string) error {
	link, err := ResetLink(n.baseURL, token)
	if err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx, n.logger).Debug("password reset link",
		slog.String("user_id", user.ID.String()),
		slog.String("link", link))
	return nil
}

// ResetLink appends token as the "token" query parameter of baseURL.
func ResetLink(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid reset url base: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
