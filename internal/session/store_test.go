// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecommercers/ecommercers/internal/auth"
	"github.com/ecommercers/ecommercers/pkg/errutil"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().UTC().Truncate(time.Millisecond)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// harness builds a fresh store for one subtest. advance moves both the
// store clock and any backend-side expiry.
type harness func(t *testing.T) (store auth.SessionStore, clock *testClock, advance func(time.Duration))

func newToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.GenerateRefreshToken()
	require.NoError(t, err)
	return tok
}

func assertRejected(t *testing.T, store auth.SessionStore, token string) {
	t.Helper()
	_, err := store.ValidateRefreshToken(context.Background(), token)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.KindInvalidCredentials.String())
}

// runStoreContract exercises behaviour every SessionStore must share.
func runStoreContract(t *testing.T, newHarness harness) {
	ctx := context.Background()

	t.Run("save then validate", func(t *testing.T) {
		store, clock, _ := newHarness(t)
		tok := newToken(t)
		expires := clock.Now().Add(time.Hour)
		require.NoError(t, store.SaveRefreshToken(ctx, 7, tok, expires))

		rec, err := store.ValidateRefreshToken(ctx, tok)
		require.NoError(t, err)
		assert.Equal(t, int64(7), rec.UserID)
		assert.Equal(t, auth.HashRefreshToken(tok), rec.TokenHash)
		assert.True(t, expires.Equal(rec.ExpiresAt))
		assert.False(t, rec.SessionID.IsZero())
	})

	t.Run("unknown token is rejected", func(t *testing.T) {
		store, _, _ := newHarness(t)
		assertRejected(t, store, newToken(t))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		store, clock, advance := newHarness(t)
		tok := newToken(t)
		require.NoError(t, store.SaveRefreshToken(ctx, 7, tok, clock.Now().Add(time.Minute)))

		advance(59 * time.Second)
		_, err := store.ValidateRefreshToken(ctx, tok)
		require.NoError(t, err)

		advance(time.Second)
		assertRejected(t, store, tok)
	})

	t.Run("remove is idempotent and scoped", func(t *testing.T) {
		store, clock, _ := newHarness(t)
		keep, drop := newToken(t), newToken(t)
		expires := clock.Now().Add(time.Hour)
		require.NoError(t, store.SaveRefreshToken(ctx, 7, keep, expires))
		require.NoError(t, store.SaveRefreshToken(ctx, 7, drop, expires))

		require.NoError(t, store.RemoveRefreshToken(ctx, drop))
		require.NoError(t, store.RemoveRefreshToken(ctx, drop))
		require.NoError(t, store.RemoveRefreshToken(ctx, newToken(t)))

		assertRejected(t, store, drop)
		_, err := store.ValidateRefreshToken(ctx, keep)
		require.NoError(t, err)
	})

	t.Run("revoke all removes only that user's sessions", func(t *testing.T) {
		store, clock, _ := newHarness(t)
		expires := clock.Now().Add(time.Hour)
		var mine []string
		for range 3 {
			tok := newToken(t)
			require.NoError(t, store.SaveRefreshToken(ctx, 7, tok, expires))
			mine = append(mine, tok)
		}
		theirs := newToken(t)
		require.NoError(t, store.SaveRefreshToken(ctx, 8, theirs, expires))

		require.NoError(t, store.RevokeAllSessions(ctx, 7))
		for _, tok := range mine {
			assertRejected(t, store, tok)
		}
		_, err := store.ValidateRefreshToken(ctx, theirs)
		require.NoError(t, err)

		require.NoError(t, store.RevokeAllSessions(ctx, 7), "revoking again is a no-op")
		require.NoError(t, store.RevokeAllSessions(ctx, 12345), "unknown user is a no-op")
	})

	t.Run("revoke all reaches sessions outliving a newer shorter one", func(t *testing.T) {
		store, clock, advance := newHarness(t)
		long, short := newToken(t), newToken(t)
		require.NoError(t, store.SaveRefreshToken(ctx, 7, long, clock.Now().Add(30*24*time.Hour)))
		require.NoError(t, store.SaveRefreshToken(ctx, 7, short, clock.Now().Add(time.Hour)))

		advance(2 * time.Hour)
		_, err := store.ValidateRefreshToken(ctx, long)
		require.NoError(t, err)

		require.NoError(t, store.RevokeAllSessions(ctx, 7))
		assertRejected(t, store, long)
		assertRejected(t, store, short)
	})

	t.Run("sessions saved after revoke survive", func(t *testing.T) {
		store, clock, _ := newHarness(t)
		expires := clock.Now().Add(time.Hour)
		require.NoError(t, store.SaveRefreshToken(ctx, 7, newToken(t), expires))
		require.NoError(t, store.RevokeAllSessions(ctx, 7))

		fresh := newToken(t)
		require.NoError(t, store.SaveRefreshToken(ctx, 7, fresh, expires))
		_, err := store.ValidateRefreshToken(ctx, fresh)
		require.NoError(t, err)
	})

	t.Run("invalid input is rejected before storage", func(t *testing.T) {
		store, clock, _ := newHarness(t)
		err := store.SaveRefreshToken(ctx, 0, newToken(t), clock.Now().Add(time.Hour))
		errutil.AssertErrorCode(t, err, auth.KindInternal.String())
		err = store.SaveRefreshToken(ctx, 7, "", clock.Now().Add(time.Hour))
		errutil.AssertErrorCode(t, err, auth.KindInternal.String())
	})

	t.Run("concurrent saves and validations", func(t *testing.T) {
		store, clock, _ := newHarness(t)
		expires := clock.Now().Add(time.Hour)

		var wg sync.WaitGroup
		tokens := make([]string, 40)
		for i := range tokens {
			tokens[i] = newToken(t)
		}
		for i, tok := range tokens {
			wg.Add(1)
			go func() {
				defer wg.Done()
				userID := int64(i%4 + 1)
				if assert.NoError(t, store.SaveRefreshToken(ctx, userID, tok, expires)) {
					rec, err := store.ValidateRefreshToken(ctx, tok)
					if assert.NoError(t, err, fmt.Sprintf("token %d", i)) {
						assert.Equal(t, userID, rec.UserID)
					}
				}
			}()
		}
		wg.Wait()

		require.NoError(t, store.RevokeAllSessions(ctx, 1))
		for i, tok := range tokens {
			_, err := store.ValidateRefreshToken(ctx, tok)
			if i%4 == 0 {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		}
	})
}
