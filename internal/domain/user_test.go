package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	user, err := NewUser("  Ada ", "Lovelace", "  Ada@Example.COM ", "secret123")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}
	if user.FirstName != "Ada" {
		t.Errorf("Expected trimmed first name, got %q", user.FirstName)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("Expected normalized email, got %q", user.Email)
	}
	if user.Role != RoleMember {
		t.Errorf("Expected role %s, got %s", RoleMember, user.Role)
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestNewUser_AggregatesViolations(t *testing.T) {
	t.Parallel()

	_, err := NewUser("", strings.Repeat("x", MaxNameLength+1), "not-an-email", "123")
	if err == nil {
		t.Fatal("Expected validation error, got nil")
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected error to wrap ErrValidation, got %v", err)
	}

	fields := ValidationFields(err)
	for _, field := range []string{"first_name", "last_name", "email", "password"} {
		if _, ok := fields[field]; !ok {
			t.Errorf("Expected violation for %s, got %v", field, fields)
		}
	}
}

func TestUserValidate(t *testing.T) {
	t.Parallel()

	valid := User{
		ID:             uuid.New(),
		FirstName:      "Grace",
		LastName:       "Hopper",
		Email:          "grace@example.com",
		HashedPassword: "$2a$10$hash",
		Role:           RoleAdmin,
	}

	tests := []struct {
		name      string
		mutate    func(u *User)
		wantField string
	}{
		{name: "valid with hash only", mutate: func(u *User) {}},
		{name: "missing id", mutate: func(u *User) { u.ID = uuid.Nil }, wantField: "id"},
		{name: "missing password and hash", mutate: func(u *User) { u.HashedPassword = "" }, wantField: "password"},
		{name: "password too long", mutate: func(u *User) { u.Password = strings.Repeat("p", 73) }, wantField: "password"},
		{name: "unknown role", mutate: func(u *User) { u.Role = "ROOT" }, wantField: "role"},
		{name: "email without domain dot", mutate: func(u *User) { u.Email = "grace@localhost" }, wantField: "email"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := valid
			tc.mutate(&u)
			err := u.Validate()

			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if _, ok := ValidationFields(err)[tc.wantField]; !ok {
				t.Errorf("Expected violation on %s, got %v", tc.wantField, err)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	t.Parallel()

	if r, err := ParseRole(""); err != nil || r != RoleMember {
		t.Errorf("Expected blank role to default to MEMBER, got %s, %v", r, err)
	}
	if r, err := ParseRole("admin"); err != nil || r != RoleAdmin {
		t.Errorf("Expected ADMIN, got %s, %v", r, err)
	}
	if _, err := ParseRole("owner"); !errors.Is(err, ErrInvalidRole) {
		t.Errorf("Expected ErrInvalidRole, got %v", err)
	}
}

func TestUserSummary(t *testing.T) {
	t.Parallel()

	u := &User{ID: uuid.New(), FirstName: "A", LastName: "B", Email: "a@b.io", Role: RoleMember, HashedPassword: "h"}
	s := u.Summary()
	if s.ID != u.ID || s.Email != u.Email || s.Role != u.Role {
		t.Errorf("Summary does not match user: %+v", s)
	}
}
