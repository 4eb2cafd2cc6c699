package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field limits for users.
const (
	MaxNameLength     = 80
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's practical input limit.
	MaxPasswordLength = 72
)

// Role is the coarse permission level of a user.
type Role string

// Known roles.
const (
	RoleMember Role = "MEMBER"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole parses a role case-insensitively. A blank value yields RoleMember.
func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return RoleMember, nil
	case string(RoleMember):
		return RoleMember, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	default:
		return "", NewValidationError("role", "must be one of MEMBER, ADMIN", ErrInvalidRole)
	}
}

// User represents a registered user of the application.
// Only the password hash and the role may change after creation.
type User struct {
	ID             uuid.UUID `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during signup/reset
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// UserSummary is the public view of a user embedded in other entities
// (project owner and members, task creator and assignee, attachment uploader).
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
}

// NewUser creates a new User with a fresh ID and the MEMBER role.
// The plaintext password is kept on the struct; the store hashes it.
func NewUser(firstName, lastName, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Email:     NormalizeEmail(email),
		Password:  password,
		Role:      RoleMember,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Summary returns the public view of the user.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}

// Validate checks every user field and reports all violations at once.
func (u *User) Validate() error {
	var errs ValidationErrors

	if u.ID == uuid.Nil {
		errs.Add("id", "is required")
	}

	validateName(&errs, "first_name", u.FirstName)
	validateName(&errs, "last_name", u.LastName)

	if u.Email == "" {
		errs.Add("email", "is required")
	} else if !IsValidEmail(u.Email) {
		errs.Add("email", "must be a valid email address")
	}

	if u.Password != "" {
		if msg := PasswordProblem(u.Password); msg != "" {
			errs.Add("password", msg)
		}
	} else if u.HashedPassword == "" {
		// Existing users loaded from the store carry only the hash.
		errs.Add("password", "is required")
	}

	if u.Role != RoleMember && u.Role != RoleAdmin {
		errs.Add("role", "must be one of MEMBER, ADMIN")
	}

	return errs.Err()
}

// PasswordProblem returns a description of why password is unacceptable,
// or an empty string if it is fine.
func PasswordProblem(password string) string {
	switch {
	case password == "":
		return "is required"
	case len(password) < MinPasswordLength:
		return "must be at least 6 characters"
	case len(password) > MaxPasswordLength:
		return "must be at most 72 characters"
	default:
		return ""
	}
}

// NormalizeEmail lower-cases and trims an email address so that
// uniqueness checks are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether email is a bare address (no display name).
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@")+1:], ".")
}

func validateName(errs *ValidationErrors, field, value string) {
	switch {
	case strings.TrimSpace(value) == "":
		errs.Add(field, "is required")
	case len([]rune(value)) > MaxNameLength:
		errs.Add(field, "must be at most 80 characters")
	}
}
