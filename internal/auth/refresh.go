// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
)

// Refresh token configuration.
const (
	RefreshTokenBytes = 30                  // 30 bytes = 60 hex chars
	RefreshTokenTTL   = 30 * 24 * time.Hour // 30 days
	AccessTokenTTL    = 10 * time.Minute
)

// RefreshToken is the record a SessionStore keeps for one active session.
// The plaintext token is never stored; records are keyed by its hash.
type RefreshToken struct {
	SessionID ulid.ULID `json:"session_id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRefreshToken builds the record for a freshly issued token.
func NewRefreshToken(userID int64, token string, expiresAt time.Time) (*RefreshToken, error) {
	if userID <= 0 {
		return nil, kindError(KindInternal).
			With("user_id", userID).
			Errorf("refresh token owner must be a valid user id")
	}
	if token == "" {
		return nil, kindError(KindInternal).Errorf("refresh token cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, kindError(KindInternal).Errorf("expiry time cannot be zero")
	}
	return &RefreshToken{
		SessionID: ulid.Make(),
		UserID:    userID,
		TokenHash: HashRefreshToken(token),
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// IsExpiredAt returns true if the record is expired at t.
func (r *RefreshToken) IsExpiredAt(t time.Time) bool {
	return !t.Before(r.ExpiresAt)
}

// Valid reports whether the record is structurally sound.
func (r *RefreshToken) Valid() bool {
	return r.UserID > 0 && len(r.TokenHash) == sha256.Size*2 && !r.ExpiresAt.IsZero()
}

// GenerateRefreshToken creates a cryptographically random opaque token.
func GenerateRefreshToken() (string, error) {
	tokenBytes := make([]byte, RefreshTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", kindError(KindInternal).
			With("operation", "crypto/rand.Read").
			With("requested_bytes", RefreshTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

// HashRefreshToken computes the SHA256 hash a token is stored under.
func HashRefreshToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionStore keeps refresh-token records in a TTL-bound key-value store.
type SessionStore interface {
	// SaveRefreshToken stores a record for token that expires at expiresAt.
	SaveRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error

	// ValidateRefreshToken finds the record for token.
	// Absent, expired or malformed records fail with KindInvalidCredentials.
	ValidateRefreshToken(ctx context.Context, token string) (*RefreshToken, error)

	// RemoveRefreshToken deletes the record for token. Absence is not an error.
	RemoveRefreshToken(ctx context.Context, token string) error

	// RevokeAllSessions deletes every record owned by userID.
	RevokeAllSessions(ctx context.Context, userID int64) error
}
