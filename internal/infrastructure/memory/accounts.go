package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/foreverweb/auth-api/internal/domain"
)

// AccountRepo is a mutex-guarded in-memory account store. It implements the
// same contract as the DynamoDB repo — conditional create, versioned update —
// and backs local development and tests.
type AccountRepo struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{accounts: make(map[string]domain.Account)}
}

func (r *AccountRepo) Get(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", username, domain.ErrNotFound)
	}
	return cloneAccount(&a), nil
}

func (r *AccountRepo) Exists(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.accounts[username]
	return ok, nil
}

// FindByEmail is a linear scan over all accounts, matching the store's
// documented contract. First match wins; map order is irrelevant because
// emails are not required to be unique keys here.
func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.accounts {
		if a.Email == email {
			return cloneAccount(&a), nil
		}
	}
	return nil, fmt.Errorf("no account for email: %w", domain.ErrNotFound)
}

// Create inserts the account if the username is free. At most one concurrent
// Create for a username succeeds; losers observe ErrConflict.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[a.Username]; ok {
		return fmt.Errorf("username %q taken: %w", a.Username, domain.ErrConflict)
	}
	r.accounts[a.Username] = *cloneAccount(a)
	return nil
}

// Update replaces the full record if the caller's version matches the stored
// one, then bumps the version. A stale version observes ErrConflict so
// concurrent updates cannot silently drop each other's writes.
func (r *AccountRepo) Update(ctx context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.accounts[a.Username]
	if !ok {
		return fmt.Errorf("account %q: %w", a.Username, domain.ErrNotFound)
	}
	if cur.Version != a.Version {
		return fmt.Errorf("stale account version for %q: %w", a.Username, domain.ErrConflict)
	}
	a.Version++
	r.accounts[a.Username] = *cloneAccount(a)
	return nil
}

// cloneAccount deep-copies a record so callers never share map state.
func cloneAccount(a *domain.Account) *domain.Account {
	out := *a
	if a.Preferences != nil {
		out.Preferences = make(map[string]interface{}, len(a.Preferences))
		for k, v := range a.Preferences {
			out.Preferences[k] = v
		}
	}
	if a.LastLogin != nil {
		t := *a.LastLogin
		out.LastLogin = &t
	}
	return &out
}
