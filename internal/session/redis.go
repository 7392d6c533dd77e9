// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/ecommercers/ecommercers/internal/auth"
)

// revokeAttempts bounds optimistic-lock retries in RevokeAllSessions.
const revokeAttempts = 5

// saveScript writes a record and indexes it in one atomic step.
// The index TTL only ever grows, so it outlives every member.
//
// KEYS: record key, index key.
// ARGV: record, record TTL ms, expiry Unix ms, token hash, now Unix ms.
var saveScript = redis.NewScript(`
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[4])
redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', '(' .. ARGV[5])
if redis.call('PTTL', KEYS[2]) < tonumber(ARGV[2]) then
  redis.call('PEXPIRE', KEYS[2], ARGV[2])
end
return 1
`)

// RedisStore keeps session records in Redis with native key expiry.
//
// Records live under refresh:<hash>. The index user:<id>:refresh is a sorted
// set of hashes scored by expiry in Unix milliseconds; entries that have
// already expired are trimmed on every save, and the index expires no
// earlier than its longest-lived member.
type RedisStore struct {
	client redis.UniversalClient
	opts   options
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. Close closes the client.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	return &RedisStore{client: client, opts: newOptions(opts)}
}

// OpenRedis parses url, connects and pings.
func OpenRedis(ctx context.Context, url string, opts ...Option) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, oops.Code("SESSION_CONFIG_INVALID").
			With("operation", "parse redis url").
			Wrap(err)
	}
	client := redis.NewClient(redisOpts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, unavailable(err, "ping redis")
	}
	return NewRedisStore(client, opts...), nil
}

// SaveRefreshToken stores the record with a TTL ending at expiresAt.
func (s *RedisStore) SaveRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	rec, err := auth.NewRefreshToken(userID, token, expiresAt)
	if err != nil {
		return err
	}
	now := s.opts.now()
	ttl := rec.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return oops.Code(auth.KindInternal.String()).
			With("user_id", userID).
			With("expires_at", rec.ExpiresAt).
			Errorf("refresh token expiry must be in the future")
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	ttlMillis := max(ttl.Milliseconds(), 1)
	err = saveScript.Run(ctx, s.client,
		[]string{refreshKey(rec.TokenHash), userIndexKey(userID)},
		data,
		ttlMillis,
		rec.ExpiresAt.UnixMilli(),
		rec.TokenHash,
		now.UnixMilli(),
	).Err()
	if err != nil {
		return unavailable(err, "save refresh token")
	}
	return nil
}

// ValidateRefreshToken returns the live record for token.
func (s *RedisStore) ValidateRefreshToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	hash := auth.HashRefreshToken(token)
	data, err := s.client.Get(ctx, refreshKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, rejected("unknown token")
	}
	if err != nil {
		return nil, unavailable(err, "get refresh token")
	}

	rec, err := decodeRecord(data, hash)
	if err != nil {
		return nil, err
	}
	if rec.IsExpiredAt(s.opts.now()) {
		return nil, rejected("expired")
	}
	return rec, nil
}

// RemoveRefreshToken deletes the record and its index entry.
func (s *RedisStore) RemoveRefreshToken(ctx context.Context, token string) error {
	hash := auth.HashRefreshToken(token)
	key := refreshKey(hash)

	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return unavailable(err, "get refresh token")
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if rec, decodeErr := decodeRecord(data, hash); decodeErr == nil {
			pipe.ZRem(ctx, userIndexKey(rec.UserID), hash)
		}
		return nil
	})
	if err != nil {
		return unavailable(err, "remove refresh token")
	}
	return nil
}

// RevokeAllSessions deletes every record in the user's index.
// The index is watched so a login racing the revocation forces a retry
// instead of leaving an orphaned record.
func (s *RedisStore) RevokeAllSessions(ctx context.Context, userID int64) error {
	index := userIndexKey(userID)

	revoke := func(tx *redis.Tx) error {
		hashes, err := tx.ZRange(ctx, index, 0, -1).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, h := range hashes {
				pipe.Del(ctx, refreshKey(h))
			}
			pipe.Del(ctx, index)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= revokeAttempts; attempt++ {
		err := s.client.Watch(ctx, revoke, index)
		if err == nil {
			return nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return oops.Code(auth.KindInternal.String()).
				With("operation", "revoke all sessions").
				With("user_id", userID).
				Wrap(err)
		}
		s.opts.logger.DebugContext(ctx, "session index changed during revoke, retrying",
			"user_id", userID, "attempt", attempt)
	}
	return oops.Code(auth.KindInternal.String()).
		With("operation", "revoke all sessions").
		With("user_id", userID).
		Errorf("session index kept changing after %d attempts", revokeAttempts)
}

// Ping checks the connection to Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable(err, "ping redis")
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		return oops.With("operation", "close redis client").Wrap(err)
	}
	return nil
}
