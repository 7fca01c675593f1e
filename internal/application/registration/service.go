package registration

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foreverweb/auth-api/internal/domain"
	"github.com/foreverweb/auth-api/internal/pkg/hash"
	"github.com/foreverweb/auth-api/internal/pkg/id"
	"github.com/foreverweb/auth-api/internal/pkg/otp"
	"github.com/foreverweb/auth-api/internal/pkg/validate"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ConfirmRequest struct {
	Username string `json:"username" validate:"required"`
	OTPCode  string `json:"otpCode" validate:"required"`
	Pin      string `json:"pin" validate:"omitempty,pin"`
}

type Service interface {
	// CheckUsername reports whether a username is free to register. A
	// positive answer may legitimately race a concurrent registration;
	// Confirm re-checks at commit time.
	CheckUsername(ctx context.Context, username string) error
	// Request starts a registration: validates, issues an OTP and emails it,
	// then stores the pending record. Delivery and state are one unit — a
	// failed send leaves nothing behind.
	Request(ctx context.Context, req RegisterRequest) error
	// Confirm consumes the OTP and commits the Account.
	Confirm(ctx context.Context, req ConfirmRequest) (*domain.Account, error)
	// StartReaper periodically sweeps expired pending registrations until
	// ctx is done. Hygiene only; Confirm evaluates expiry itself.
	StartReaper(ctx context.Context, interval time.Duration)
}

type accountStore interface {
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, a *domain.Account) error
}

type mailer interface {
	SendOTP(to, displayName, code string) error
}

type service struct {
	accounts accountStore
	pendings *PendingStore
	mailer   mailer
	hasher   *hash.Hasher
	otpTTL   time.Duration

	// confirmLocks serializes Confirm per username so concurrent confirms
	// cannot both consume the same pending record.
	confirmLocks sync.Map
}

type ServiceDeps struct {
	AccountRepo  accountStore
	PendingStore *PendingStore
	Mailer       mailer
	Hasher       *hash.Hasher
	OTPTTL       time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		accounts: deps.AccountRepo,
		pendings: deps.PendingStore,
		mailer:   deps.Mailer,
		hasher:   deps.Hasher,
		otpTTL:   deps.OTPTTL,
	}
}

func (s *service) CheckUsername(ctx context.Context, username string) error {
	if len(domain.NormalizeUsername(username)) < 3 {
		return fmt.Errorf("username too short: %w", domain.ErrValidation)
	}
	taken, err := s.accounts.Exists(ctx, domain.NormalizeUsername(username))
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("username taken: %w", domain.ErrConflict)
	}
	return nil
}

func (s *service) Request(ctx context.Context, req RegisterRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	username := domain.NormalizeUsername(req.Username)

	taken, err := s.accounts.Exists(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("username taken: %w", domain.ErrConflict)
	}

	ch, err := otp.Issue(s.otpTTL)
	if err != nil {
		return err
	}

	// Delivery gates the state write: only after the mail is accepted does a
	// pending record exist, so a failed send cannot orphan one.
	if err := s.mailer.SendOTP(req.Email, req.Username, ch.Code); err != nil {
		return fmt.Errorf("send otp to %s: %v: %w", req.Email, err, domain.ErrDelivery)
	}

	s.pendings.Put(&domain.PendingRegistration{
		Username:  username,
		Email:     req.Email,
		RawSecret: req.Password,
		OTPCode:   ch.Code,
		OTPExpiry: ch.ExpiresAt,
		CreatedAt: time.Now().UTC(),
	})
	slog.Info("registration pending", "username", username)
	return nil
}

func (s *service) Confirm(ctx context.Context, req ConfirmRequest) (*domain.Account, error) {
	username := domain.NormalizeUsername(req.Username)
	unlock := s.lock(username)
	defer unlock()

	pending, ok := s.pendings.Get(username)
	if !ok {
		return nil, fmt.Errorf("no registration in progress for %q: %w", username, domain.ErrNotFound)
	}

	switch otp.Resolve(pending.OTPCode, pending.OTPExpiry, req.OTPCode, time.Now()) {
	case otp.Expired:
		s.pendings.Delete(username)
		return nil, fmt.Errorf("registration otp: %w", domain.ErrExpired)
	case otp.Mismatch:
		// left intact: the caller may retry until expiry
		return nil, fmt.Errorf("registration otp: %w", domain.ErrInvalidCredential)
	}

	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}

	passwordHash, err := s.hasher.Hash(pending.RawSecret)
	if err != nil {
		return nil, err
	}
	account := &domain.Account{
		Username:     username,
		Email:        pending.Email,
		PublicID:     id.New(),
		PasswordHash: passwordHash,
		CreatedAt:    pending.CreatedAt,
	}
	if req.Pin != "" {
		pinHash, err := s.hasher.Hash(req.Pin)
		if err != nil {
			return nil, err
		}
		account.PinEnabled = true
		account.PinHash = pinHash
	}

	err = s.accounts.Create(ctx, account)
	// Any terminal outcome destroys the pending record: committed here, or
	// committed by another writer (conflict) — either way it must not linger.
	s.pendings.Delete(username)
	if err != nil {
		return nil, err
	}
	slog.Info("account created", "username", username, "uid", account.PublicID)
	return account, nil
}

func (s *service) StartReaper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := s.pendings.Sweep(now); n > 0 {
					slog.Debug("swept expired registrations", "count", n)
				}
			}
		}
	}()
}

func (s *service) lock(username string) func() {
	v, _ := s.confirmLocks.LoadOrStore(username, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
