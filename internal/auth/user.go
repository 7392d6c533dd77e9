// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package auth

import (
	"context"
	"slices"
	"time"
)

// Role is the closed set of user roles.
type Role int

// Roles. The zero value is not a valid role.
const (
	RoleUser Role = iota + 1
	RoleManager
	RoleAdmin
)

// String returns the persisted form of the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleManager:
		return "manager"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ParseRole parses a persisted role value. Only the exact lowercase forms
// written by String are accepted.
// Unknown values are an internal error: the store holds data this build
// does not understand, and guessing a default would silently grant or
// revoke privileges.
func ParseRole(s string) (Role, error) {
	switch s {
	case "user":
		return RoleUser, nil
	case "manager":
		return RoleManager, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, kindError(KindInternal).
			With("role", s).
			Errorf("unrecognized stored role %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is a registered account.
type User struct {
	ID             int64      `json:"id"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Email          string     `json:"email"`
	ProfilePicture *string    `json:"profile_picture,omitempty"`
	PasswordHash   string     `json:"-"`
	EmailVerified  bool       `json:"email_verified"`
	Role           Role       `json:"role"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HasAnyRole reports whether the user's role is one of roles.
func (u *User) HasAnyRole(roles ...Role) bool {
	return slices.Contains(roles, u.Role)
}

// CredentialStore manages durable user records.
type CredentialStore interface {
	// Create stores a new user with RoleUser and an unverified email.
	// Returns a KindEmailAlreadyExists error when the email is taken.
	Create(ctx context.Context, firstName, lastName, email, passwordHash string) (*User, error)

	// FindByEmail retrieves a user by email (case-insensitive).
	// Returns ErrNotFound if no user has the given email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// FindByID retrieves a user by ID.
	// Returns ErrNotFound if the user doesn't exist.
	FindByID(ctx context.Context, id int64) (*User, error)

	// HasRole reports whether the user holds one of roles.
	// (false, nil) means the user exists and lacks the role; an error means
	// the answer could not be determined (ErrNotFound for a missing user).
	HasRole(ctx context.Context, userID int64, roles ...Role) (bool, error)

	// MarkEmailVerified sets the email-verified flag.
	// Returns ErrNotFound if no user has the given email.
	MarkEmailVerified(ctx context.Context, email string) error

	// UpdateLastLogin records a successful login.
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}
