// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package session

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"strconv"
	"time"

	"github.com/samber/oops"
	"go.etcd.io/bbolt"

	"github.com/ecommercers/ecommercers/internal/auth"
	"github.com/ecommercers/ecommercers/internal/xdg"
)

// bbolt bucket names.
var (
	bucketTokens = []byte("refresh_tokens")
	bucketUsers  = []byte("user_tokens")
)

// BoltStore keeps session records in an embedded bbolt file for
// single-node deployments.
//
// refresh_tokens maps token hash to the JSON record. user_tokens holds one
// nested bucket per user id mapping token hash to expiry. bbolt has no key
// expiry, so expired records are rejected on read and removed by Sweep.
type BoltStore struct {
	db   *bbolt.DB
	opts options
}

var _ Store = (*BoltStore)(nil)

// OpenBolt opens (creating if needed) the database at path.
func OpenBolt(path string, opts ...Option) (*BoltStore, error) {
	if err := xdg.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, oops.Code("SESSION_OPEN_FAILED").
			With("operation", "create session db directory").
			With("path", path).
			Wrap(err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, oops.Code("SESSION_OPEN_FAILED").
			With("operation", "open session db").
			With("path", path).
			Wrap(err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketTokens, bucketUsers} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return oops.With("bucket", string(name)).Wrap(err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, oops.Code("SESSION_OPEN_FAILED").
			With("operation", "initialize buckets").
			Wrap(err)
	}

	return &BoltStore{db: db, opts: newOptions(opts)}, nil
}

func userBucketKey(userID int64) []byte {
	return []byte(strconv.FormatInt(userID, 10))
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixMilli())) //nolint:gosec // expiry is always after 1970
	return buf
}

// SaveRefreshToken stores the record and indexes it under its owner.
func (s *BoltStore) SaveRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err, "save refresh token")
	}
	rec, err := auth.NewRefreshToken(userID, token, expiresAt)
	if err != nil {
		return err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		hash := []byte(rec.TokenHash)
		if err := tx.Bucket(bucketTokens).Put(hash, data); err != nil {
			return err
		}
		users, err := tx.Bucket(bucketUsers).CreateBucketIfNotExists(userBucketKey(userID))
		if err != nil {
			return err
		}
		return users.Put(hash, encodeExpiry(rec.ExpiresAt))
	})
	if err != nil {
		return unavailable(err, "save refresh token")
	}
	return nil
}

// ValidateRefreshToken returns the live record for token.
func (s *BoltStore) ValidateRefreshToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(err, "get refresh token")
	}
	hash := auth.HashRefreshToken(token)

	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketTokens).Get([]byte(hash)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err, "get refresh token")
	}
	if data == nil {
		return nil, rejected("unknown token")
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
func (s *BoltStore) RemoveRefreshToken(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err, "remove refresh token")
	}
	hash := auth.HashRefreshToken(token)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return deleteRecord(tx, []byte(hash))
	})
	if err != nil {
		return unavailable(err, "remove refresh token")
	}
	return nil
}

// RevokeAllSessions deletes every record owned by userID.
func (s *BoltStore) RevokeAllSessions(ctx context.Context, userID int64) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err, "revoke all sessions")
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		key := userBucketKey(userID)
		idx := users.Bucket(key)
		if idx == nil {
			return nil
		}
		tokens := tx.Bucket(bucketTokens)
		if err := idx.ForEach(func(hash, _ []byte) error {
			return tokens.Delete(hash)
		}); err != nil {
			return err
		}
		return users.DeleteBucket(key)
	})
	if err != nil {
		return oops.Code(auth.KindInternal.String()).
			With("operation", "revoke all sessions").
			With("user_id", userID).
			Wrap(err)
	}
	return nil
}

// Sweep deletes expired and unreadable records and returns how many it removed.
func (s *BoltStore) Sweep(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable(err, "sweep sessions")
	}
	now := s.opts.now()

	var stale [][]byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTokens).ForEach(func(k, v []byte) error {
			rec, err := decodeRecord(v, string(k))
			if err != nil || rec.IsExpiredAt(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if err != nil {
		return 0, unavailable(err, "scan sessions")
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		for _, hash := range stale {
			if err := deleteRecord(tx, hash); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, unavailable(err, "sweep sessions")
	}

	if s.opts.recorder != nil {
		s.opts.recorder.RecordSessionsSwept(len(stale))
	}
	return len(stale), nil
}

// RunSweeper calls Sweep every interval until ctx ends.
func (s *BoltStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.opts.logger.WarnContext(ctx, "session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				s.opts.logger.InfoContext(ctx, "expired sessions swept", "count", n)
			}
		}
	}
}

// Ping checks that the database file is still open.
func (s *BoltStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err, "ping session db")
	}
	if err := s.db.View(func(*bbolt.Tx) error { return nil }); err != nil {
		return unavailable(err, "ping session db")
	}
	return nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	if err := s.db.Close(); err != nil {
		return oops.With("operation", "close session db").Wrap(err)
	}
	return nil
}

// deleteRecord removes a token record and, when it can be read, its index
// entry, dropping the user's index bucket once it is empty. Deleting an
// absent record is a no-op.
func deleteRecord(tx *bbolt.Tx, hash []byte) error {
	tokens := tx.Bucket(bucketTokens)
	data := tokens.Get(hash)
	if data == nil {
		return nil
	}
	if rec, err := decodeRecord(data, string(hash)); err == nil {
		users := tx.Bucket(bucketUsers)
		key := userBucketKey(rec.UserID)
		if idx := users.Bucket(key); idx != nil {
			if err := idx.Delete(hash); err != nil {
				return err
			}
			if k, _ := idx.Cursor().First(); k == nil {
				if err := users.DeleteBucket(key); err != nil {
					return err
				}
			}
		}
	}
	return tokens.Delete(hash)
}
