// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommercers/ecommercers/internal/auth"
	"github.com/ecommercers/ecommercers/internal/session"
	"github.com/ecommercers/ecommercers/pkg/errutil"
)

// seedBolt writes records directly to a bolt file and closes it so the
// command under test can open it.
func seedBolt(t *testing.T, path string, seed func(store *session.BoltStore)) {
	t.Helper()
	store, err := session.OpenBolt(path)
	require.NoError(t, err)
	seed(store)
	require.NoError(t, store.Close())
}

func newRefreshToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.GenerateRefreshToken()
	require.NoError(t, err)
	return tok
}

func TestParseUserID(t *testing.T) {
	id, err := parseUserID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-3", "abc", ""} {
		_, err := parseUserID(bad)
		errutil.AssertErrorCode(t, err, "INVALID_USER_ID")
	}
}

func TestSessionsRevoke(t *testing.T) {
	td := newTestDeps(t)
	td.db.ExpectClose()
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	mine, other := newRefreshToken(t), newRefreshToken(t)
	seedBolt(t, path, func(store *session.BoltStore) {
		require.NoError(t, store.SaveRefreshToken(ctx, 7, mine, time.Now().Add(time.Hour)))
		require.NoError(t, store.SaveRefreshToken(ctx, 8, other, time.Now().Add(time.Hour)))
	})

	out, _, err := td.run(ctx, "sessions", "revoke", "7", "--session-store", "bolt", "--bolt-path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Revoked all sessions for user 7")

	store, err := session.OpenBolt(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.ValidateRefreshToken(ctx, mine)
	errutil.AssertErrorCode(t, err, auth.KindInvalidCredentials.String())
	rec, err := store.ValidateRefreshToken(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, int64(8), rec.UserID)
}

func TestSessionsRevoke_InvalidUserID(t *testing.T) {
	td := newTestDeps(t)

	_, _, err := td.run(context.Background(), "sessions", "revoke", "nobody")

	errutil.AssertErrorCode(t, err, "INVALID_USER_ID")
}

func TestSessionsSweep_Bolt(t *testing.T) {
	td := newTestDeps(t)
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	live := newRefreshToken(t)
	seedBolt(t, path, func(store *session.BoltStore) {
		require.NoError(t, store.SaveRefreshToken(ctx, 1, newRefreshToken(t), time.Now().Add(-time.Hour)))
		require.NoError(t, store.SaveRefreshToken(ctx, 2, newRefreshToken(t), time.Now().Add(-time.Minute)))
		require.NoError(t, store.SaveRefreshToken(ctx, 3, live, time.Now().Add(time.Hour)))
	})

	out, _, err := td.run(ctx, "sessions", "sweep", "--session-store", "bolt", "--bolt-path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 expired session(s)")

	store, err := session.OpenBolt(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, err = store.ValidateRefreshToken(ctx, live)
	require.NoError(t, err)
}

func TestSessionsSweep_RedisHasNothingToSweep(t *testing.T) {
	td := newTestDeps(t)
	mr := miniredis.RunT(t)
	td.env["REDIS_URL"] = "redis://" + mr.Addr() + "/0"

	out, _, err := td.run(context.Background(), "sessions", "sweep")

	require.NoError(t, err)
	assert.Contains(t, out, "nothing to sweep")
}

func TestSessionsSweep_DoesNotNeedDatabase(t *testing.T) {
	td := newTestDeps(t)
	delete(td.env, "DATABASE_URL")
	delete(td.env, "AUTH_JWT_SECRET")

	_, _, err := td.run(context.Background(), "sessions", "sweep",
		"--session-store", "bolt", "--bolt-path", filepath.Join(t.TempDir(), "s.db"))

	require.NoError(t, err)
}
