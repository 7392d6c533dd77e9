// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EcommerceRS Contributors

//go:build integration

package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/redis/go-redis/v9"

	"github.com/ecommercers/ecommercers/internal/auth"
	"github.com/ecommercers/ecommercers/internal/auth/postgres"
	"github.com/ecommercers/ecommercers/internal/notify"
	"github.com/ecommercers/ecommercers/internal/session"
)

var testSecret = []byte("integration-secret-0123456789abcdef")

// recordingPublisher captures verification requests published by the
// NATS notifier.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) Publish(subject string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subjects)
}

// clock is a settable time source shared by the codec and the service.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func kindOf(err error) auth.ErrorKind {
	return auth.KindOf(err)
}

var _ = Describe("Authentication lifecycle", func() {
	var (
		ctx       context.Context
		mr        *miniredis.Miniredis
		sessions  *session.RedisStore
		publisher *recordingPublisher
		clk       *clock
		svc       *auth.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		env.truncate()

		mr = miniredis.NewMiniRedis()
		Expect(mr.Start()).To(Succeed())
		DeferCleanup(mr.Close)

		clk = &clock{now: time.Now().UTC()}
		sessions = session.NewRedisStore(
			redis.NewClient(&redis.Options{Addr: mr.Addr()}),
			session.WithClock(clk.Now),
		)
		DeferCleanup(sessions.Close)

		publisher = &recordingPublisher{}
		notifier, err := notify.NewNATSNotifier(publisher)
		Expect(err).NotTo(HaveOccurred())

		codec, err := auth.NewJWTCodec(testSecret, auth.WithClock(clk.Now))
		Expect(err).NotTo(HaveOccurred())

		svc, err = auth.NewService(
			postgres.NewUserRepository(env.pool),
			sessions,
			auth.NewArgon2idHasher(),
			codec,
			notifier,
			auth.WithServiceClock(clk.Now),
		)
		Expect(err).NotTo(HaveOccurred())
	})

	registerVerified := func(email string) *auth.User {
		user, err := svc.Register(ctx, "Ada", "Lovelace", email, "secret")
		Expect(err).NotTo(HaveOccurred())
		Expect(svc.VerifyEmail(ctx, email)).To(Succeed())
		return user
	}

	Describe("registration", func() {
		It("creates the user once and rejects the duplicate email", func() {
			user, err := svc.Register(ctx, "A", "B", "a@x.com", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(BeNumerically(">", 0))
			Expect(user.EmailVerified).To(BeFalse())
			Expect(user.Role).To(Equal(auth.RoleUser))
			Expect(publisher.count()).To(Equal(1))

			_, err = svc.Register(ctx, "A", "B", "A@X.com", "other")
			Expect(kindOf(err)).To(Equal(auth.KindEmailAlreadyExists))
			Expect(publisher.count()).To(Equal(1))
		})
	})

	Describe("login", func() {
		It("requires a verified email", func() {
			_, err := svc.Register(ctx, "A", "B", "a@x.com", "secret")
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Login(ctx, "a@x.com", "secret")
			Expect(kindOf(err)).To(Equal(auth.KindEmailNotVerified))

			Expect(svc.VerifyEmail(ctx, "a@x.com")).To(Succeed())

			result, err := svc.Login(ctx, "a@x.com", "secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.RefreshToken).NotTo(BeEmpty())
			Expect(result.AccessToken).NotTo(BeEmpty())

			stored, err := postgres.NewUserRepository(env.pool).FindByEmail(ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.LastLogin).NotTo(BeNil())
		})

		It("rejects unknown emails and wrong passwords alike", func() {
			registerVerified("a@x.com")

			_, err := svc.Login(ctx, "nobody@x.com", "secret")
			Expect(kindOf(err)).To(Equal(auth.KindInvalidCredentials))

			_, err = svc.Login(ctx, "a@x.com", "wrong")
			Expect(kindOf(err)).To(Equal(auth.KindInvalidCredentials))
		})
	})

	Describe("tokens", func() {
		It("refreshes access for the session owner and rejects unknown tokens", func() {
			user := registerVerified("a@x.com")
			result, err := svc.Login(ctx, "a@x.com", "secret")
			Expect(err).NotTo(HaveOccurred())

			access, err := svc.RefreshToken(ctx, result.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			authorized, err := svc.Authorize(ctx, access)
			Expect(err).NotTo(HaveOccurred())
			Expect(authorized.ID).To(Equal(user.ID))

			_, err = svc.RefreshToken(ctx, "not-a-real-token")
			Expect(kindOf(err)).To(Equal(auth.KindInvalidCredentials))
		})

		It("expires access tokens and rejects foreign signatures", func() {
			registerVerified("a@x.com")
			result, err := svc.Login(ctx, "a@x.com", "secret")
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Authorize(ctx, result.AccessToken)
			Expect(err).NotTo(HaveOccurred())

			clk.Advance(auth.AccessTokenTTL)
			_, err = svc.Authorize(ctx, result.AccessToken)
			Expect(kindOf(err)).To(Equal(auth.KindTokenExpired))

			foreign, err := auth.NewJWTCodec([]byte("a-completely-different-secret-value"))
			Expect(err).NotTo(HaveOccurred())
			forged, err := foreign.Encode(result.User.ID, time.Hour)
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.Authorize(ctx, forged)
			Expect(kindOf(err)).To(Equal(auth.KindInvalidCredentials))
		})

		It("lets redis expire refresh tokens", func() {
			registerVerified("a@x.com")
			result, err := svc.Login(ctx, "a@x.com", "secret")
			Expect(err).NotTo(HaveOccurred())

			mr.FastForward(auth.RefreshTokenTTL)
			clk.Advance(auth.RefreshTokenTTL)

			_, err = svc.RefreshToken(ctx, result.RefreshToken)
			Expect(kindOf(err)).To(Equal(auth.KindInvalidCredentials))
		})
	})

	Describe("logout", func() {
		It("revokes immediately and is idempotent", func() {
			registerVerified("a@x.com")
			result, err := svc.Login(ctx, "a@x.com", "secret")
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.Logout(ctx, result.RefreshToken)).To(Succeed())
			_, err = svc.RefreshToken(ctx, result.RefreshToken)
			Expect(kindOf(err)).To(Equal(auth.KindInvalidCredentials))

			Expect(svc.Logout(ctx, result.RefreshToken)).To(Succeed())
		})
	})

	Describe("concurrent sessions", func() {
		It("issues independent sessions until all are revoked", func() {
			user := registerVerified("a@x.com")

			const logins = 8
			tokens := make([]string, logins)
			var wg sync.WaitGroup
			for i := range logins {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					result, err := svc.Login(ctx, "a@x.com", "secret")
					Expect(err).NotTo(HaveOccurred())
					tokens[i] = result.RefreshToken
				}()
			}
			wg.Wait()

			unique := map[string]struct{}{}
			for _, tok := range tokens {
				unique[tok] = struct{}{}
			}
			Expect(unique).To(HaveLen(logins))

			Expect(svc.Logout(ctx, tokens[0])).To(Succeed())
			for _, tok := range tokens[1:] {
				_, err := svc.RefreshToken(ctx, tok)
				Expect(err).NotTo(HaveOccurred())
			}

			Expect(svc.RevokeAllSessions(ctx, user.ID)).To(Succeed())
			for _, tok := range tokens {
				_, err := svc.RefreshToken(ctx, tok)
				Expect(kindOf(err)).To(Equal(auth.KindInvalidCredentials))
			}
		})
	})

	Describe("roles", func() {
		It("distinguishes denied from unknown users", func() {
			user := registerVerified("a@x.com")

			ok, err := svc.HasRole(ctx, user.ID, auth.RoleAdmin)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			_, err = env.pool.Exec(ctx, "UPDATE users SET role = 'manager' WHERE id = $1", user.ID)
			Expect(err).NotTo(HaveOccurred())
			ok, err = svc.HasRole(ctx, user.ID, auth.RoleManager, auth.RoleAdmin)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())

			_, err = svc.HasRole(ctx, user.ID+1000, auth.RoleUser)
			Expect(kindOf(err)).To(Equal(auth.KindInvalidCredentials))
		})
	})
})
