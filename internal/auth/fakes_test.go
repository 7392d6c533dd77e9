// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package auth_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/ecommercers/ecommercers/internal/auth"
)

// memUsers is a goroutine-safe CredentialStore for service tests.
type memUsers struct {
	mu        sync.Mutex
	nextID    int64
	byID      map[int64]*auth.User
	updateErr error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int64]*auth.User)}
}

func (m *memUsers) Create(_ context.Context, firstName, lastName, email, hash string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return nil, oops.Code(auth.KindEmailAlreadyExists.String()).Errorf("email taken")
		}
	}
	m.nextID++
	u := &auth.User{
		ID:           m.nextID,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleUser,
	}
	m.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) HasRole(_ context.Context, userID int64, roles ...auth.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[userID]
	if !ok {
		return false, auth.ErrNotFound
	}
	return u.HasAnyRole(roles...), nil
}

func (m *memUsers) MarkEmailVerified(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			u.EmailVerified = true
			return nil
		}
	}
	return auth.ErrNotFound
}

func (m *memUsers) UpdateLastLogin(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if u, ok := m.byID[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

// memSessions is a goroutine-safe SessionStore keyed by token hash.
type memSessions struct {
	mu      sync.Mutex
	records map[string]*auth.RefreshToken
	now     func() time.Time
}

func newMemSessions(now func() time.Time) *memSessions {
	return &memSessions{records: make(map[string]*auth.RefreshToken), now: now}
}

func (m *memSessions) SaveRefreshToken(_ context.Context, userID int64, token string, expiresAt time.Time) error {
	rec, err := auth.NewRefreshToken(userID, token, expiresAt)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.TokenHash] = rec
	return nil
}

func (m *memSessions) ValidateRefreshToken(_ context.Context, token string) (*auth.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[auth.HashRefreshToken(token)]
	if !ok || rec.IsExpiredAt(m.now()) {
		return nil, oops.Code(auth.KindInvalidCredentials.String()).Errorf("unknown refresh token")
	}
	cp := *rec
	return &cp, nil
}

func (m *memSessions) RemoveRefreshToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, auth.HashRefreshToken(token))
	return nil
}

func (m *memSessions) RevokeAllSessions(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, rec := range m.records {
		if rec.UserID == userID {
			delete(m.records, k)
		}
	}
	return nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// plainHasher accepts a password when the stored hash is "plain:"+password.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", auth.ErrEmptyPassword
	}
	return "plain:" + password, nil
}

func (plainHasher) Verify(password, hash string) bool {
	return hash == "plain:"+password
}

type nopNotifier struct{}

func (nopNotifier) SendVerification(context.Context, *auth.User) error { return nil }
