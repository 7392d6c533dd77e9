// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims are the claims embedded in an access token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"user_id"`
}

// TokenCodec encodes and decodes stateless access tokens.
type TokenCodec interface {
	// Encode mints a signed token for userID expiring after ttl.
	Encode(userID int64, ttl time.Duration) (string, error)

	// Decode verifies token and returns its claims.
	// Fails with KindInvalidCredentials for a bad signature or structure and
	// KindTokenExpired when the exp claim has passed.
	Decode(token string) (*AccessTokenClaims, error)
}

// JWTCodec implements TokenCodec with HS256-signed JWTs.
type JWTCodec struct {
	secret []byte
	now    func() time.Time
}

// JWTOption configures a JWTCodec.
type JWTOption func(*JWTCodec)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) JWTOption {
	return func(c *JWTCodec) {
		c.now = now
	}
}

// NewJWTCodec creates a codec signing with secret.
func NewJWTCodec(secret []byte, opts ...JWTOption) (*JWTCodec, error) {
	if len(secret) == 0 {
		return nil, kindError(KindInternal).Errorf("jwt secret cannot be empty")
	}
	c := &JWTCodec{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode mints a signed access token.
func (c *JWTCodec) Encode(userID int64, ttl time.Duration) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", kindError(KindInternal).
			With("operation", "sign access token").
			With("user_id", userID).
			Wrap(err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of token.
func (c *JWTCodec) Decode(token string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}

	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, kindError(KindTokenExpired).Errorf("access token has expired")
		}
		return nil, kindError(KindInvalidCredentials).
			With("reason", err.Error()).
			Errorf("invalid access token")
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return nil, kindError(KindInvalidCredentials).Errorf("invalid access token")
	}

	return claims, nil
}

// BearerToken strips the "Bearer " scheme from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", kindError(KindInvalidPayload).Errorf("invalid authorization header format")
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", kindError(KindInvalidPayload).Errorf("invalid authorization header format")
	}
	return token, nil
}
