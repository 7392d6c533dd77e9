// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecommercers/ecommercers/pkg/errutil"
)

const tracerName = "github.com/ecommercers/ecommercers/internal/auth"

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User         *User  `json:"user"`
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
}

// Service provides authentication operations.
// It holds no mutable state and is safe for concurrent use when its
// dependencies are.
type Service struct {
	users      CredentialStore
	sessions   SessionStore
	hasher     PasswordHasher
	codec      TokenCodec
	notifier   Notifier
	logger     *slog.Logger
	recorder   OutcomeRecorder
	tracer     trace.Tracer
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRecorder sets the outcome recorder.
func WithRecorder(recorder OutcomeRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithTokenTTLs overrides the access and refresh token lifetimes.
// Non-positive values keep the defaults.
func WithTokenTTLs(access, refresh time.Duration) ServiceOption {
	return func(s *Service) {
		if access > 0 {
			s.accessTTL = access
		}
		if refresh > 0 {
			s.refreshTTL = refresh
		}
	}
}

// WithServiceClock overrides the time source used for refresh-token expiry.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new Service.
func NewService(
	users CredentialStore,
	sessions SessionStore,
	hasher PasswordHasher,
	codec TokenCodec,
	notifier Notifier,
	opts ...ServiceOption,
) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("credential store is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session store is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if codec == nil {
		return nil, oops.Errorf("token codec is required")
	}
	if notifier == nil {
		return nil, oops.Errorf("notifier is required")
	}

	s := &Service{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		codec:      codec,
		notifier:   notifier,
		logger:     slog.Default(),
		recorder:   noopRecorder{},
		tracer:     otel.Tracer(tracerName),
		accessTTL:  AccessTokenTTL,
		refreshTTL: RefreshTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return s, nil
}

// Register creates an unverified account and requests a verification email.
func (s *Service) Register(ctx context.Context, firstName, lastName, email, password string) (user *User, err error) {
	ctx, span := s.start(ctx, "register")
	defer func() { s.finish(ctx, span, "register", err) }()

	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	email = strings.TrimSpace(email)
	if firstName == "" || lastName == "" || email == "" {
		return nil, kindError(KindInvalidPayload).Errorf("first name, last name and email are required")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if IsKind(err, KindInvalidPayload) {
			return nil, err
		}
		return nil, recode(KindInternal, "hash password", err)
	}

	user, err = s.users.Create(ctx, firstName, lastName, email, hash)
	if err != nil {
		if IsKind(err, KindEmailAlreadyExists) {
			return nil, err
		}
		return nil, recode(KindInternal, "create user", err)
	}

	if err := s.notifier.SendVerification(ctx, user); err != nil {
		return nil, recode(KindInternal, "send verification", err, "user_id", user.ID)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates a user and opens a session.
// Uses constant-time operations to prevent timing-based account enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (result *LoginResult, err error) {
	ctx, span := s.start(ctx, "login")
	defer func() { s.finish(ctx, span, "login", err) }()

	user, lookupErr := s.users.FindByEmail(ctx, strings.TrimSpace(email))

	targetHash := dummyPasswordHash
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, recode(KindInternal, "find user by email", lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
	}

	// Always verify, even for unknown emails, so both paths cost one KDF run.
	valid := s.hasher.Verify(password, targetHash)
	if lookupErr != nil || !valid {
		return nil, kindError(KindInvalidCredentials).Errorf("invalid email or password")
	}

	if !user.EmailVerified {
		return nil, kindError(KindEmailNotVerified).
			With("user_id", user.ID).
			Errorf("email address has not been verified")
	}

	refreshToken, err := GenerateRefreshToken()
	if err != nil {
		return nil, recode(KindInternal, "generate refresh token", err)
	}

	// The session must be durable before an access token leaves this call.
	expiresAt := s.now().Add(s.refreshTTL)
	if err := s.sessions.SaveRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return nil, recode(KindInternal, "save refresh token", err)
	}

	accessToken, err := s.codec.Encode(user.ID, s.accessTTL)
	if err != nil {
		s.discardSession(ctx, user.ID, refreshToken)
		return nil, recode(KindInternal, "encode access token", err)
	}

	loginAt := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, loginAt); err != nil {
		s.logger.WarnContext(ctx, "best-effort last login update failed",
			"operation", "update_last_login",
			"user_id", user.ID,
			"error", err.Error(),
		)
	} else {
		user.LastLogin = &loginAt
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{
		User:         user,
		RefreshToken: refreshToken,
		AccessToken:  accessToken,
	}, nil
}

// RefreshToken exchanges a refresh token for a new access token.
// The refresh token itself is not rotated.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error) {
	ctx, span := s.start(ctx, "refresh")
	defer func() { s.finish(ctx, span, "refresh", err) }()

	if refreshToken == "" {
		return "", kindError(KindInvalidCredentials).Errorf("refresh token cannot be empty")
	}

	record, err := s.sessions.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		if IsKind(err, KindInvalidCredentials) {
			return "", err
		}
		return "", recode(KindInternal, "validate refresh token", err)
	}
	if record.IsExpiredAt(s.now()) {
		return "", kindError(KindInvalidCredentials).
			With("session_id", record.SessionID.String()).
			Errorf("refresh token has expired")
	}

	accessToken, err = s.codec.Encode(record.UserID, s.accessTTL)
	if err != nil {
		return "", recode(KindInternal, "encode access token", err)
	}
	return accessToken, nil
}

// Authorize resolves the user behind an access token.
// Callers strip the "Bearer " prefix first (see BearerToken).
func (s *Service) Authorize(ctx context.Context, accessToken string) (user *User, err error) {
	ctx, span := s.start(ctx, "authorize")
	defer func() { s.finish(ctx, span, "authorize", err) }()

	claims, err := s.codec.Decode(accessToken)
	if err != nil {
		switch KindOf(err) {
		case KindInvalidCredentials, KindTokenExpired:
			return nil, err
		default:
			return nil, recode(KindInternal, "decode access token", err)
		}
	}

	user, err = s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, kindError(KindInvalidCredentials).
				With("user_id", claims.UserID).
				Errorf("token subject no longer exists")
		}
		return nil, recode(KindInternal, "find user by id", err)
	}
	return user, nil
}

// Logout revokes a refresh token. Revoking an unknown token succeeds.
func (s *Service) Logout(ctx context.Context, refreshToken string) (err error) {
	ctx, span := s.start(ctx, "logout")
	defer func() { s.finish(ctx, span, "logout", err) }()

	if refreshToken == "" {
		return nil
	}
	if err := s.sessions.RemoveRefreshToken(ctx, refreshToken); err != nil {
		return recode(KindInternal, "remove refresh token", err)
	}
	return nil
}

// RevokeAllSessions removes every refresh token of a user.
func (s *Service) RevokeAllSessions(ctx context.Context, userID int64) (err error) {
	ctx, span := s.start(ctx, "revoke_all")
	defer func() { s.finish(ctx, span, "revoke_all", err) }()

	if userID <= 0 {
		return kindError(KindInvalidPayload).With("user_id", userID).Errorf("invalid user id")
	}
	if err := s.sessions.RevokeAllSessions(ctx, userID); err != nil {
		return recode(KindInternal, "revoke all sessions", err, "user_id", userID)
	}
	s.logger.InfoContext(ctx, "all sessions revoked", "user_id", userID)
	return nil
}

// HasRole reports whether a user holds one of roles. A missing user is an
// error, not a denial.
func (s *Service) HasRole(ctx context.Context, userID int64, roles ...Role) (ok bool, err error) {
	ctx, span := s.start(ctx, "has_role")
	defer func() { s.finish(ctx, span, "has_role", err) }()

	ok, err = s.users.HasRole(ctx, userID, roles...)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, kindError(KindInvalidCredentials).
				With("user_id", userID).
				Errorf("user does not exist")
		}
		return false, recode(KindInternal, "check role", err)
	}
	return ok, nil
}

// VerifyEmail marks the account registered under email as verified.
func (s *Service) VerifyEmail(ctx context.Context, email string) (err error) {
	ctx, span := s.start(ctx, "verify_email")
	defer func() { s.finish(ctx, span, "verify_email", err) }()

	email = strings.TrimSpace(email)
	if email == "" {
		return kindError(KindInvalidPayload).Errorf("email is required")
	}
	if err := s.users.MarkEmailVerified(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return kindError(KindInvalidCredentials).Errorf("unknown email address")
		}
		return recode(KindInternal, "mark email verified", err)
	}
	return nil
}

// discardSession removes a refresh token that will never reach the caller.
func (s *Service) discardSession(ctx context.Context, userID int64, refreshToken string) {
	if err := s.sessions.RemoveRefreshToken(context.WithoutCancel(ctx), refreshToken); err != nil {
		s.logger.WarnContext(ctx, "best-effort session cleanup failed",
			"operation", "discard_session",
			"user_id", userID,
			"error", err.Error(),
		)
	}
}

func (s *Service) start(ctx context.Context, operation string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "auth."+operation,
		trace.WithAttributes(attribute.String("auth.operation", operation)))
}

func (s *Service) finish(ctx context.Context, span trace.Span, operation string, err error) {
	defer span.End()

	if err == nil {
		s.recorder.RecordAuthOutcome(operation, "ok")
		return
	}

	kind := KindOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind.String())
	s.recorder.RecordAuthOutcome(operation, kind.String())

	if kind == KindInternal {
		errutil.LogErrorContext(ctx, s.logger, "auth operation failed", err)
		return
	}
	s.logger.DebugContext(ctx, "auth operation rejected",
		"operation", operation,
		"kind", kind.String(),
	)
}

// recode translates err into kind at the service boundary.
// oops reports the innermost code, so a cause that already carries a
// different code is attached as context rather than wrapped.
func recode(kind ErrorKind, operation string, err error, kv ...any) error {
	builder := kindError(kind).With("operation", operation).With(kv...)
	if code, ok := codeOf(err); ok && code != kind.String() {
		return builder.
			With("cause", err.Error()).
			With("cause_code", code).
			Errorf("%s failed", operation)
	}
	return builder.Wrap(err)
}

func codeOf(err error) (string, bool) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return "", false
	}
	code, _ := oopsErr.Code().(string) //nolint:errcheck // type assertion, not an error
	return code, code != ""
}
