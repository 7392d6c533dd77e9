// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package auth

import "context"

// Notifier delivers account notifications. Delivery itself happens elsewhere;
// implementations only hand the request off.
type Notifier interface {
	// SendVerification requests an email-verification message for user.
	SendVerification(ctx context.Context, user *User) error
}

// OutcomeRecorder observes the result of each service operation.
type OutcomeRecorder interface {
	// RecordAuthOutcome is called once per operation with the error kind,
	// or "ok" on success.
	RecordAuthOutcome(operation, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordAuthOutcome(string, string) {}
