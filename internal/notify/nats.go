// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/samber/oops"

	"github.com/ecommercers/ecommercers/internal/auth"
)

// DefaultSubject is the subject verification requests are published on.
const DefaultSubject = "ecommercers.email.verification"

// Publisher is the subset of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// VerificationRequest is the message body published for each registration.
type VerificationRequest struct {
	UserID      int64     `json:"user_id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	RequestedAt time.Time `json:"requested_at"`
}

// NATSNotifier publishes verification requests to a NATS subject. A mail
// worker subscribed to the subject does the actual delivery.
type NATSNotifier struct {
	pub     Publisher
	subject string
	now     func() time.Time
}

var _ auth.Notifier = (*NATSNotifier)(nil)

// NATSOption configures a NATSNotifier.
type NATSOption func(*NATSNotifier)

// WithSubject overrides DefaultSubject.
func WithSubject(subject string) NATSOption {
	return func(n *NATSNotifier) {
		if subject != "" {
			n.subject = subject
		}
	}
}

// WithClock overrides the time source for RequestedAt.
func WithClock(now func() time.Time) NATSOption {
	return func(n *NATSNotifier) {
		if now != nil {
			n.now = now
		}
	}
}

// NewNATSNotifier creates a notifier publishing through pub.
func NewNATSNotifier(pub Publisher, opts ...NATSOption) (*NATSNotifier, error) {
	if pub == nil {
		return nil, oops.Errorf("publisher cannot be nil")
	}
	n := &NATSNotifier{pub: pub, subject: DefaultSubject, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Connect dials the NATS server at url.
func Connect(url string, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, oops.Code("NOTIFY_CONNECT_FAILED").
			With("url", url).
			Wrap(err)
	}
	return conn, nil
}

// Subject returns the subject requests are published on.
func (n *NATSNotifier) Subject() string {
	return n.subject
}

// SendVerification publishes a VerificationRequest for user.
// Publishing is asynchronous on the NATS side; a nil error means the
// message was buffered, not delivered.
func (n *NATSNotifier) SendVerification(ctx context.Context, user *auth.User) error {
	if user == nil {
		return oops.Code(string(auth.KindInternal)).Errorf("verification requested for nil user")
	}
	if err := ctx.Err(); err != nil {
		return oops.Code(string(auth.KindInternal)).With("user_id", user.ID).Wrap(err)
	}

	data, err := json.Marshal(VerificationRequest{
		UserID:      user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		RequestedAt: n.now().UTC(),
	})
	if err != nil {
		return oops.Code(string(auth.KindInternal)).
			With("operation", "encode verification request").
			With("user_id", user.ID).
			Wrap(err)
	}

	if err := n.pub.Publish(n.subject, data); err != nil {
		return oops.Code(string(auth.KindInternal)).
			With("operation", "publish verification request").
			With("subject", n.subject).
			With("user_id", user.ID).
			Wrap(err)
	}
	return nil
}
