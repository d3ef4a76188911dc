// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kidsask/api/internal/account"
	"github.com/kidsask/api/internal/config"
	"github.com/kidsask/api/internal/core"
	"github.com/kidsask/api/internal/metrics"
	"github.com/kidsask/api/internal/middleware"
	"github.com/kidsask/api/internal/subscription"
)

type AccountProvider interface {
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
	GetByID(ctx context.Context, id string) (*account.Account, error)
}

type ResetMailer interface {
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

type Throttle interface {
	Acquire(ctx context.Context, key string) (bool, error)
}

type CountryResolver interface {
	Country(ip string) string
}

type Service struct {
	repo     Repository
	accounts AccountProvider
	jwt      *JWTManager
	catalog  *subscription.Catalog
	mailer   ResetMailer
	throttle Throttle
	geo      CountryResolver
	cfg      config.AuthConfig
	now      func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithThrottle limits how often a reset email can go to one address.
func WithThrottle(t Throttle) Option {
	return func(s *Service) {
		s.throttle = t
	}
}

func WithCountryResolver(geo CountryResolver) Option {
	return func(s *Service) {
		s.geo = geo
	}
}

func NewService(
	repo Repository,
	accounts AccountProvider,
	jwt *JWTManager,
	catalog *subscription.Catalog,
	mailer ResetMailer,
	cfg config.AuthConfig,
	opts ...Option,
) *Service {
	s := &Service{
		repo:     repo,
		accounts: accounts,
		jwt:      jwt,
		catalog:  catalog,
		mailer:   mailer,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates by email and password. Failed attempts against an
// unlocked account count toward the cooldown lock; reaching the threshold
// locks the account for the configured duration.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	clientIP string,
) (*LoginResponse, error) {
	acc, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.BurnPasswordCheck(req.Password)
			metrics.LoginAttempts.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidCredentials
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("get account: %w", err)
	}

	now := s.now()

	switch acc.LockState(now) {
	case account.LockSuspended:
		metrics.LoginAttempts.WithLabelValues("suspended").Inc()
		return nil, ErrAccountSuspended
	case account.LockCooldown:
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return nil, ErrAccountTemporarilyLocked
	}

	if acc.HasExpiredCooldown(now) {
		if err := s.repo.ClearExpiredCooldown(ctx, acc.ID, now); err != nil {
			return nil, err
		}
		acc.LoginAttempts = 0
		acc.AccountLocked = false
		acc.LockUntil = nil
	}

	valid, newHash := core.VerifyPasswordWithRehash(req.Password, acc.PasswordHash)
	if !valid {
		return nil, s.recordFailure(ctx, acc, now)
	}

	if newHash != "" {
		if err := s.repo.UpdatePassword(ctx, acc.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed",
				"account_id", acc.ID,
				"error", err,
			)
		}
	}

	login := SuccessfulLogin{At: now, IP: clientIP}
	if s.geo != nil {
		login.Country = s.geo.Country(clientIP)
	}

	if err := s.repo.RecordSuccessfulLogin(ctx, acc.ID, login); err != nil {
		if errors.Is(err, ErrAccountSuspended) {
			metrics.LoginAttempts.WithLabelValues("suspended").Inc()
			return nil, ErrAccountSuspended
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}

	issued, err := s.jwt.IssueToken(middleware.AccessTokenClaims{
		UserID: acc.ID,
		Role:   acc.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	acc.LoginAttempts = 0
	acc.AccountLocked = false
	acc.LockUntil = nil
	acc.LastLoginDate = &now
	acc.LastLoginIP = login.IP
	acc.LastLoginCountry = login.Country

	metrics.LoginAttempts.WithLabelValues("success").Inc()

	return &LoginResponse{
		User: account.ToAccountResponse(acc, s.catalog),
		Tokens: TokenResponse{
			AccessToken: issued.Token,
			TokenType:   "Bearer",
			ExpiresIn:   int(issued.ExpiresAt.Sub(now) / time.Second),
			ExpiresAt:   issued.ExpiresAt,
		},
	}, nil
}

func (s *Service) recordFailure(
	ctx context.Context,
	acc *account.Account,
	now time.Time,
) error {
	failed, err := s.repo.RecordFailedLogin(
		ctx,
		acc.ID,
		now,
		s.cfg.MaxLoginAttempts,
		now.Add(s.cfg.LockoutDuration),
	)
	switch {
	case errors.Is(err, ErrAccountSuspended):
		metrics.LoginAttempts.WithLabelValues("suspended").Inc()
		return ErrAccountSuspended
	case errors.Is(err, ErrAccountTemporarilyLocked):
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return ErrAccountTemporarilyLocked
	case err != nil:
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginAttempts.WithLabelValues("invalid").Inc()

	if failed.Locked(now) && failed.Attempts == s.cfg.MaxLoginAttempts {
		metrics.AccountLockouts.Inc()
		slog.WarnContext(ctx, "account locked after failed logins",
			"account_id", acc.ID,
			"attempts", failed.Attempts,
			"lock_until", failed.LockUntil,
		)
	}

	return ErrInvalidCredentials
}

// RequestPasswordReset issues a reset token and mails it. The outcome is
// the same whether or not the email belongs to an account.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	acc, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get account: %w", err)
	}

	if s.throttle != nil {
		ok, err := s.throttle.Acquire(ctx, acc.ID)
		if err != nil {
			slog.WarnContext(ctx, "reset throttle unavailable", "error", err)
		} else if !ok {
			slog.InfoContext(ctx, "password reset throttled", "account_id", acc.ID)
			return nil
		}
	}

	token, err := core.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expires := s.now().Add(s.cfg.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, acc.ID, core.HashToken(token), expires); err != nil {
		slog.ErrorContext(ctx, "store reset token failed",
			"account_id", acc.ID,
			"error", err,
		)
		return nil
	}

	metrics.PasswordResets.WithLabelValues("requested").Inc()

	if err := s.mailer.SendPasswordReset(ctx, acc.Email, acc.FullName, s.resetLink(token)); err != nil {
		slog.ErrorContext(ctx, "send reset email failed",
			"account_id", acc.ID,
			"error", err,
		)
	}

	return nil
}

func (s *Service) resetLink(token string) string {
	return strings.TrimRight(s.cfg.ResetURLBase, "/") + "/" + token
}

// VerifyResetToken reports whether token matches an unexpired reset token.
func (s *Service) VerifyResetToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	return s.repo.ResetTokenValid(ctx, core.HashToken(token), s.now())
}

// ResetPassword redeems token and sets the new password. A token is valid
// for exactly one successful reset.
func (s *Service) ResetPassword(
	ctx context.Context,
	token, newPassword string,
) error {
	if err := core.ValidatePasswordStrength(newPassword); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	if token == "" {
		metrics.PasswordResets.WithLabelValues("rejected").Inc()
		return ErrInvalidOrExpiredToken
	}

	passwordHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	accountID, err := s.repo.ConsumeResetToken(ctx, core.HashToken(token), passwordHash, s.now())
	if err != nil {
		if errors.Is(err, ErrInvalidOrExpiredToken) {
			metrics.PasswordResets.WithLabelValues("rejected").Inc()
			return ErrInvalidOrExpiredToken
		}
		return err
	}

	metrics.PasswordResets.WithLabelValues("completed").Inc()
	slog.InfoContext(ctx, "password reset completed", "account_id", accountID)

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	accountID, currentPassword, newPassword string,
) error {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	if !core.VerifyPassword(currentPassword, acc.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := core.ValidatePasswordStrength(newPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, accountID, newHash)
}

func (s *Service) GetCurrentUser(
	ctx context.Context,
	accountID string,
) (*account.AccountResponse, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	resp := account.ToAccountResponse(acc, s.catalog)
	return &resp, nil
}

// PurgeExpiredResetTokens clears reset tokens that can no longer be redeemed.
func (s *Service) PurgeExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpiredResetTokens(ctx, s.now())
}
