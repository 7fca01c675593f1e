package http

import (
	"context"

	"github.com/foreverweb/auth-api/internal/domain"
	"github.com/foreverweb/auth-api/internal/infrastructure/smtp"
	"github.com/foreverweb/auth-api/internal/pkg/hash"
)

// AccountRepository is the credential store contract the router requires.
// Both the DynamoDB and the in-memory drivers satisfy it.
type AccountRepository interface {
	Get(ctx context.Context, username string) (*domain.Account, error)
	Exists(ctx context.Context, username string) (bool, error)
	// FindByEmail is a linear scan by contract; implementations are not
	// required to index email.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Create is conditional: at most one concurrent create per username
	// succeeds, the loser observes domain.ErrConflict.
	Create(ctx context.Context, a *domain.Account) error
	// Update is a full-record replace guarded by optimistic versioning.
	Update(ctx context.Context, a *domain.Account) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo AccountRepository
	Mailer      smtp.Mailer
	Hasher      *hash.Hasher
}
