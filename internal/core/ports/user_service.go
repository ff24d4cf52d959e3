package ports

import (
	"context"

	"github.com/apiusers/user-service/internal/core/domain"
)

// CreateUserInput carries a validated create payload.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	// IdempotencyKey is optional. A repeated key replays the first result.
	IdempotencyKey string
}

// UpdateUserInput carries a validated update payload. There is no password
// field: the update path never changes it.
type UpdateUserInput struct {
	Name   string
	Email  string
	Active bool
}

// CreateUserResult is returned by UserService.Create.
type CreateUserResult struct {
	User *domain.User
	// Replayed is true when the Idempotency-Key matched an earlier create.
	Replayed bool
}

// UserService defines the use-case operations behind the HTTP surface.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, input CreateUserInput) (*CreateUserResult, error)
	Update(ctx context.Context, id int64, input UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
