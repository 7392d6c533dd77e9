// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

// Package notify provides auth.Notifier implementations.
//
// Notifiers only hand a verification request off. Rendering and sending
// the email belongs to whatever consumes the request.
package notify

import (
	"context"
	"log/slog"

	"github.com/samber/oops"

	"github.com/ecommercers/ecommercers/internal/auth"
)

// LogNotifier writes verification requests to a logger. Intended for
// development, where no mail pipeline exists.
type LogNotifier struct {
	logger *slog.Logger
}

var _ auth.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier logging to logger, or slog.Default()
// when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// SendVerification logs the request.
func (n *LogNotifier) SendVerification(ctx context.Context, user *auth.User) error {
	if user == nil {
		return oops.Code(string(auth.KindInternal)).Errorf("verification requested for nil user")
	}
	n.logger.InfoContext(ctx, "email verification requested",
		"user_id", user.ID,
		"email", user.Email,
	)
	return nil
}
