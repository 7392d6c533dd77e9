// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

// Package postgres implements auth.CredentialStore on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/ecommercers/ecommercers/internal/auth"
)

// poolIface is the subset of *pgxpool.Pool used by UserRepository.
// pgxmock.PgxPoolIface satisfies it in unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, first_name, last_name, email, profile_picture, password_hash,
	       email_verified, role, last_login, created_at, updated_at`

// UserRepository implements auth.CredentialStore using PostgreSQL.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

var _ auth.CredentialStore = (*UserRepository)(nil)

// Create inserts an unverified user with the default role.
func (r *UserRepository) Create(ctx context.Context, firstName, lastName, email, passwordHash string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email, password_hash, email_verified, role)
		VALUES ($1, $2, $3, $4, FALSE, $5)
		RETURNING `+userColumns,
		firstName, lastName, email, passwordHash, auth.RoleUser.String(),
	)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, oops.Code(auth.KindEmailAlreadyExists.String()).
				With("email", email).
				With("constraint", pgErr.ConstraintName).
				Errorf("email already registered")
		}
		return nil, internal(err, "insert user", "email", email)
	}
	return user, nil
}

// FindByEmail retrieves a user by email (case-insensitive).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("email", email).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, internal(err, "get user by email", "email", email)
	}
	return user, nil
}

// FindByID retrieves a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.With("id", id).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, internal(err, "get user by id", "id", id)
	}
	return user, nil
}

// HasRole reports whether the user's stored role is one of roles.
func (r *UserRepository) HasRole(ctx context.Context, userID int64, roles ...auth.Role) (bool, error) {
	var stored string
	err := r.pool.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, oops.With("id", userID).Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return false, internal(err, "get user role", "id", userID)
	}

	role, err := auth.ParseRole(stored)
	if err != nil {
		return false, oops.With("id", userID).Wrap(err)
	}
	return slices.Contains(roles, role), nil
}

// MarkEmailVerified sets email_verified for the user with email.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email_verified = TRUE, updated_at = NOW()
		WHERE LOWER(email) = LOWER($1)
	`, email)
	if err != nil {
		return internal(err, "mark email verified", "email", email)
	}
	if tag.RowsAffected() == 0 {
		return oops.With("email", email).Wrap(auth.ErrNotFound)
	}
	return nil
}

// UpdateLastLogin records a login time.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return internal(err, "update last login", "id", id)
	}
	if tag.RowsAffected() == 0 {
		return oops.With("id", id).Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanUser scans a single row into a User.
func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		u    auth.User
		role string
	)
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.ProfilePicture,
		&u.PasswordHash,
		&u.EmailVerified,
		&role,
		&u.LastLogin,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows and *pgconn.PgError unchanged for callers to classify.
		return nil, err //nolint:wrapcheck // callers wrap with context-specific info
	}

	u.Role, err = auth.ParseRole(role)
	if err != nil {
		return nil, oops.With("id", u.ID).Wrap(err)
	}
	return &u, nil
}

func internal(err error, operation string, kv ...any) error {
	return oops.Code(auth.KindInternal.String()).
		With("operation", operation).
		With(kv...).
		Wrap(err)
}
