// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// Upper bounds accepted when parsing a stored hash, so a corrupt row cannot
// make Verify allocate gigabytes or spin for minutes.
const (
	maxArgon2Memory = 1024 * 1024 // 1 GB
	maxArgon2Time   = 16
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = kindError(KindInvalidPayload).Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a self-describing hash of the password with a fresh salt.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the hash.
	// Malformed hashes never match.
	Verify(password, hash string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", kindError(KindInternal).
			With("operation", "generate salt").
			Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	params, err := parseArgon2idHash(encodedHash)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), params.salt, params.time, params.memory, params.threads, uint32(len(params.key)))

	return subtle.ConstantTimeCompare(computed, params.key) == 1
}

type argon2idParams struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

// parseArgon2idHash decodes a PHC-formatted argon2id string.
func parseArgon2idHash(encodedHash string) (*argon2idParams, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, oops.Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return nil, oops.Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, oops.Wrap(err)
	}
	if version != argon2.Version {
		return nil, oops.Errorf("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, oops.Wrap(err)
	}
	if memory == 0 || memory > maxArgon2Memory || time == 0 || time > maxArgon2Time {
		return nil, oops.Errorf("argon2 parameters out of range: m=%d t=%d", memory, time)
	}
	// threads must fit in uint8 to prevent silent truncation
	if threads == 0 || threads > 255 {
		return nil, oops.Errorf("threads value %d out of range", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, oops.Wrap(err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, oops.Wrap(err)
	}
	if len(key) == 0 || len(key) > 1024 {
		return nil, oops.Errorf("invalid hash key length: %d", len(key))
	}

	return &argon2idParams{
		memory:  memory,
		time:    time,
		threads: uint8(threads),
		salt:    salt,
		key:     key,
	}, nil
}
