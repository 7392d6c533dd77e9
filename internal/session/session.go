// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

// Package session implements auth.SessionStore on Redis and bbolt.
//
// Both backends share one layout: the primary record lives under the
// SHA-256 hash of the refresh token and a per-user index lists the hashes
// a user owns, so lookup never scans and bulk revocation never guesses.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/samber/oops"

	"github.com/ecommercers/ecommercers/internal/auth"
)

// Store is an auth.SessionStore that owns closable resources.
type Store interface {
	auth.SessionStore
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// SweepRecorder observes sweeps of expired records.
type SweepRecorder interface {
	RecordSessionsSwept(n int)
}

type options struct {
	now      func() time.Time
	logger   *slog.Logger
	recorder SweepRecorder
}

// Option configures a store.
type Option func(*options)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSweepRecorder reports swept record counts.
func WithSweepRecorder(r SweepRecorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func refreshKey(tokenHash string) string {
	return "refresh:" + tokenHash
}

func userIndexKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10) + ":refresh"
}

func encodeRecord(rec *auth.RefreshToken) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, unavailable(err, "encode session record")
	}
	return data, nil
}

// decodeRecord parses a stored record. A record that does not parse or
// fails validation is treated like an absent one.
func decodeRecord(data []byte, tokenHash string) (*auth.RefreshToken, error) {
	var rec auth.RefreshToken
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, rejected("malformed record")
	}
	if !rec.Valid() || rec.TokenHash != tokenHash {
		return nil, rejected("malformed record")
	}
	return &rec, nil
}

func rejected(reason string) error {
	return oops.Code(auth.KindInvalidCredentials.String()).
		With("reason", reason).
		Errorf("invalid refresh token")
}

func unavailable(err error, operation string) error {
	return oops.Code(auth.KindInternal.String()).
		With("operation", operation).
		Wrap(err)
}
