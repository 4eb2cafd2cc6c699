package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tasksphere/shareme-api/internal/domain"
	"github.com/tasksphere/shareme-api/internal/platform/logger"
	"github.com/tasksphere/shareme-api/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, first_name, last_name, email, hashed_password, role, created_at, updated_at`

// PostgresUserStore implements store.UserStore on PostgreSQL.
type PostgresUserStore struct {
	db         store.DBTX
	logger     *slog.Logger
	bcryptCost int
}

var _ store.UserStore = (*PostgresUserStore)(nil)

// NewPostgresUserStore creates a user store. Out-of-range bcrypt costs fall
// back to bcrypt.DefaultCost.
func NewPostgresUserStore(db store.DBTX, logger *slog.Logger, bcryptCost int) *PostgresUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &PostgresUserStore{
		db:         db,
		logger:     logger.With(slog.String("component", "user_store")),
		bcryptCost: bcryptCost,
	}
}

// WithTx implements store.UserStore.WithTx.
func (s *PostgresUserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &PostgresUserStore{db: tx, logger: s.logger, bcryptCost: s.bcryptCost}
}

// Create implements store.UserStore.Create.
// The plaintext password is hashed and then cleared from user.
func (s *PostgresUserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user.Email = domain.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create", slog.String("error", err.Error()))
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), s.bcryptCost)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.HashedPassword = string(hash)
	user.Password = ""

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.FirstName, user.LastName, user.Email, user.HashedPassword,
		string(user.Role), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("email already registered", slog.String("user_id", user.ID.String()))
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, s.lookupError(ctx, err, slog.String("user_id", id.String()))
	}
	return user, nil
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`,
		domain.NormalizeEmail(email),
	)
	user, err := scanUser(row)
	if err != nil {
		// The address itself is not logged.
		return nil, s.lookupError(ctx, err)
	}
	return user, nil
}

// UpdatePassword implements store.UserStore.UpdatePassword.
func (s *PostgresUserStore) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if msg := domain.PasswordProblem(password); msg != "" {
		return domain.NewValidationError("password", msg, domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET hashed_password = $1, updated_at = $2 WHERE id = $3`,
		string(hash), time.Now().UTC(), id,
	)
	if err != nil {
		log.Error("failed to update password",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	log.Info("password updated", slog.String("user_id", id.String()))
	return nil
}

func (s *PostgresUserStore) lookupError(ctx context.Context, err error, attrs ...any) error {
	mapped := mapEntityError(err, store.ErrUserNotFound)
	if !errors.Is(mapped, store.ErrUserNotFound) {
		log := logger.FromContextOrDefault(ctx, s.logger)
		log.Error("failed to load user", append(attrs, slog.String("error", err.Error()))...)
	}
	return mapped
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.HashedPassword,
		&role, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// summaryDest receives the five user summary columns
// (id, first_name, last_name, email, role) of a joined user.
type summaryDest struct {
	id                       uuid.UUID
	first, last, email, role string
}

func (d *summaryDest) targets() []any {
	return []any{&d.id, &d.first, &d.last, &d.email, &d.role}
}

func (d *summaryDest) summary() domain.UserSummary {
	return domain.UserSummary{
		ID:        d.id,
		FirstName: d.first,
		LastName:  d.last,
		Email:     d.email,
		Role:      domain.Role(d.role),
	}
}

// nullSummaryDest is summaryDest for a LEFT JOINed user.
type nullSummaryDest struct {
	id                       uuid.NullUUID
	first, last, email, role sql.NullString
}

func (d *nullSummaryDest) targets() []any {
	return []any{&d.id, &d.first, &d.last, &d.email, &d.role}
}

func (d *nullSummaryDest) summary() *domain.UserSummary {
	if !d.id.Valid {
		return nil
	}
	return &domain.UserSummary{
		ID:        d.id.UUID,
		FirstName: d.first.String,
		LastName:  d.last.String,
		Email:     d.email.String,
		Role:      domain.Role(d.role.String),
	}
}
