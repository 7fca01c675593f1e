package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foreverweb/auth-api/internal/domain"
	"github.com/foreverweb/auth-api/internal/pkg/hash"
	"github.com/foreverweb/auth-api/internal/pkg/otp"
	"github.com/foreverweb/auth-api/internal/pkg/validate"
)

const updateAttempts = 3

type RequestResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CompleteResetRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTPCode     string `json:"otpCode" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type Service interface {
	// Request issues a reset OTP into the account's reset slot and emails
	// it. Delivery gates the state write: a failed send leaves the slot
	// untouched.
	Request(ctx context.Context, req RequestResetRequest) error
	// Complete consumes the OTP and replaces the password hash. Expiry
	// clears the slot; a mismatch leaves it intact for retry.
	Complete(ctx context.Context, req CompleteResetRequest) error
}

type accountStore interface {
	Get(ctx context.Context, username string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	Update(ctx context.Context, a *domain.Account) error
}

type mailer interface {
	SendOTP(to, displayName, code string) error
}

type service struct {
	accounts accountStore
	mailer   mailer
	hasher   *hash.Hasher
	otpTTL   time.Duration
}

type ServiceDeps struct {
	AccountRepo accountStore
	Mailer      mailer
	Hasher      *hash.Hasher
	OTPTTL      time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts: deps.AccountRepo,
		mailer:   deps.Mailer,
		hasher:   deps.Hasher,
		otpTTL:   deps.OTPTTL,
	}
}

func (s *service) Request(ctx context.Context, req RequestResetRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	a, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return err
	}

	ch, err := otp.Issue(s.otpTTL)
	if err != nil {
		return err
	}
	if err := s.mailer.SendOTP(a.Email, a.Username, ch.Code); err != nil {
		return fmt.Errorf("send reset otp to %s: %v: %w", a.Email, err, domain.ErrDelivery)
	}

	err = s.mutate(ctx, a.Username, func(a *domain.Account) error {
		a.ResetOTPPending = true
		a.ResetOTPCode = ch.Code
		a.ResetOTPExpiry = ch.ExpiresAt.Unix()
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("reset otp issued", "username", a.Username)
	return nil
}

func (s *service) Complete(ctx context.Context, req CompleteResetRequest) error {
	a, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if !a.ResetOTPPending {
		return fmt.Errorf("no reset in progress for %q: %w", a.Username, domain.ErrNotFound)
	}

	switch otp.Resolve(a.ResetOTPCode, time.Unix(a.ResetOTPExpiry, 0), req.OTPCode, time.Now()) {
	case otp.Expired:
		if err := s.mutate(ctx, a.Username, func(a *domain.Account) error {
			a.ClearResetOTP()
			return nil
		}); err != nil {
			return err
		}
		return fmt.Errorf("reset otp: %w", domain.ErrExpired)
	case otp.Mismatch:
		// left intact: the caller may retry until expiry
		return fmt.Errorf("reset otp: %w", domain.ErrInvalidCredential)
	}

	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	err = s.mutate(ctx, a.Username, func(cur *domain.Account) error {
		// Re-check under the optimistic lock: a concurrent Complete may have
		// consumed the code between the read above and this write.
		if !cur.ResetOTPPending {
			return fmt.Errorf("no reset in progress for %q: %w", cur.Username, domain.ErrNotFound)
		}
		if otp.Resolve(cur.ResetOTPCode, time.Unix(cur.ResetOTPExpiry, 0), req.OTPCode, time.Now()) != otp.Valid {
			return fmt.Errorf("reset otp: %w", domain.ErrInvalidCredential)
		}
		cur.PasswordHash = newHash
		cur.ClearResetOTP()
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("password reset", "username", a.Username)
	return nil
}

// mutate runs a read-modify-write cycle, retrying on optimistic-lock
// conflicts.
func (s *service) mutate(ctx context.Context, username string, fn func(*domain.Account) error) error {
	for attempt := 0; attempt < updateAttempts; attempt++ {
		a, err := s.accounts.Get(ctx, username)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		err = s.accounts.Update(ctx, a)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("account %q: update contention persisted", username)
}
