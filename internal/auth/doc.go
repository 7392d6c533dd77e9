// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

// Package auth provides the authentication and session core.
//
// # Ports
//
// Service depends only on interfaces declared here:
//   - CredentialStore - durable user records (see auth/postgres)
//   - SessionStore - TTL-bound refresh-token records (see internal/session)
//   - PasswordHasher - argon2id by default
//   - TokenCodec - HS256 access tokens by default
//   - Notifier - verification request hand-off (see internal/notify)
//
// # Errors
//
// Every error returned by Service carries exactly one ErrorKind as its oops
// code. Use KindOf to classify it; the wrapped cause is kept for logging.
//
// # Tokens
//
// Refresh tokens are opaque random strings. Stores key them by SHA-256 hash
// and never persist the plaintext. Access tokens are stateless and are not
// revocable before they expire.
package auth
