package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foreverweb/auth-api/internal/domain"
	"github.com/foreverweb/auth-api/internal/pkg/hash"
	"github.com/foreverweb/auth-api/internal/pkg/validate"
)

// updateAttempts bounds optimistic-lock retries on read-modify-write cycles.
const updateAttempts = 3

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
	Pin      string `json:"pin"`
}

type EnablePinRequest struct {
	Username string `json:"username" validate:"required"`
	Pin      string `json:"pin" validate:"required,pin"`
}

type Service interface {
	// Login authenticates with a password or, alternatively, a PIN — the two
	// are never combined. It returns the safe profile projection; hash
	// fields never leave the service.
	Login(ctx context.Context, req LoginRequest) (*domain.PublicProfile, error)
	EnablePin(ctx context.Context, req EnablePinRequest) error
	DisablePin(ctx context.Context, username string) error
}

type accountStore interface {
	Get(ctx context.Context, username string) (*domain.Account, error)
	Update(ctx context.Context, a *domain.Account) error
}

type service struct {
	accounts accountStore
	hasher   *hash.Hasher
}

func NewService(accounts accountStore, hasher *hash.Hasher) Service {
	return &service{accounts: accounts, hasher: hasher}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*domain.PublicProfile, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	username := domain.NormalizeUsername(req.Username)

	a, err := s.accounts.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Password != "":
		if !s.hasher.Verify(req.Password, a.PasswordHash) {
			return nil, fmt.Errorf("wrong password for %q: %w", username, domain.ErrInvalidCredential)
		}
	case req.Pin != "":
		if !a.PinEnabled || !s.hasher.Verify(req.Pin, a.PinHash) {
			return nil, fmt.Errorf("pin rejected for %q: %w", username, domain.ErrInvalidCredential)
		}
	default:
		return nil, fmt.Errorf("password or pin required: %w", domain.ErrInvalidCredential)
	}

	now := time.Now().UTC()
	a.LastLogin = &now
	if err := s.accounts.Update(ctx, a); err != nil {
		// Not worth failing an authenticated login over; the timestamp is
		// advisory.
		slog.Warn("failed to record last login", "username", username, "err", err)
	}
	return a.Profile(), nil
}

func (s *service) EnablePin(ctx context.Context, req EnablePinRequest) error {
	if err := validate.Struct(&req); err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	pinHash, err := s.hasher.Hash(req.Pin)
	if err != nil {
		return err
	}
	return s.mutate(ctx, domain.NormalizeUsername(req.Username), func(a *domain.Account) error {
		a.PinEnabled = true
		a.PinHash = pinHash
		return nil
	})
}

func (s *service) DisablePin(ctx context.Context, username string) error {
	return s.mutate(ctx, domain.NormalizeUsername(username), func(a *domain.Account) error {
		a.PinEnabled = false
		a.PinHash = ""
		return nil
	})
}

// mutate runs a read-modify-write cycle, retrying on optimistic-lock
// conflicts so concurrent updates to the same account serialize instead of
// dropping writes.
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
