package ports

import (
	"context"

	"github.com/apiusers/user-service/internal/core/domain"
)

// UserRepository mediates between the service layer and the record store.
// Writes are staged and only become durable when Commit succeeds.
// Lookups return (nil, nil) when nothing matches.
type UserRepository interface {
	// GetAll returns every user, active or not, in ascending id order.
	GetAll(ctx context.Context) ([]*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByEmail normalizes email before the lookup.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// Create normalizes the email and stages an insert. It returns
	// domain.ErrDuplicateEmail without staging anything when the email is taken.
	// The store-assigned id is written back into u by Commit.
	Create(ctx context.Context, u *domain.User) error
	// Update stages a full-row update of name, email and active.
	// It does not check email ownership.
	Update(ctx context.Context, u *domain.User) error
	// SoftDelete flips u.Active to false and stages the update.
	SoftDelete(ctx context.Context, u *domain.User) error

	// Commit applies every staged change in a single transaction.
	// A unique-index violation is reported as domain.ErrDuplicateEmail.
	Commit(ctx context.Context) error
}

// UserRepositoryProvider hands out a fresh, request-scoped UserRepository.
type UserRepositoryProvider interface {
	Users() UserRepository
}
