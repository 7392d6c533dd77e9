// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrorKind is the flat failure taxonomy exposed to callers of Service.
// Each kind doubles as the oops error code attached to returned errors.
type ErrorKind string

// Error kinds.
const (
	KindInternal           ErrorKind = "AUTH_INTERNAL_ERROR"
	KindInvalidPayload     ErrorKind = "AUTH_INVALID_PAYLOAD"
	KindInvalidCredentials ErrorKind = "AUTH_INVALID_CREDENTIALS"
	KindTokenExpired       ErrorKind = "AUTH_TOKEN_EXPIRED"
	KindEmailAlreadyExists ErrorKind = "AUTH_EMAIL_ALREADY_EXISTS"
	KindEmailNotVerified   ErrorKind = "AUTH_EMAIL_NOT_VERIFIED"
)

// String returns the code string.
func (k ErrorKind) String() string {
	return string(k)
}

// Known reports whether k is one of the declared kinds.
func (k ErrorKind) Known() bool {
	switch k {
	case KindInternal, KindInvalidPayload, KindInvalidCredentials,
		KindTokenExpired, KindEmailAlreadyExists, KindEmailNotVerified:
		return true
	}
	return false
}

// KindOf extracts the ErrorKind carried by err.
// Errors without a recognised code are reported as KindInternal.
// A nil error has no kind and yields the empty string.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return KindInternal
	}
	code, _ := oopsErr.Code().(string) //nolint:errcheck // type assertion, not an error
	kind := ErrorKind(code)
	if !kind.Known() {
		return KindInternal
	}
	return kind
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// kindError starts an oops builder coded with kind.
func kindError(kind ErrorKind) oops.OopsErrorBuilder {
	return oops.Code(string(kind))
}
