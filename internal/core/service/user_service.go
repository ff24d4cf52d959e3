package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/apiusers/user-service/internal/core/domain"
	"github.com/apiusers/user-service/internal/core/ports"
)

// IdempotencyStore abstracts the Idempotency-Key record (Redis).
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (int64, bool, error)
	Remember(ctx context.Context, key string, userID int64) error
}

// UserService runs one logical request per call: it opens a request-scoped
// repository, stages the change and commits exactly once.
type UserService struct {
	users   ports.UserRepositoryProvider
	idem    IdempotencyStore
	metrics ports.UserMetrics
	logger  zerolog.Logger
}

var _ ports.UserService = (*UserService)(nil)

// NewUserService wires the service. A nil idem disables Idempotency-Key
// replay; a nil m records nothing.
func NewUserService(users ports.UserRepositoryProvider, idem IdempotencyStore, m ports.UserMetrics, logger zerolog.Logger) *UserService {
	if m == nil {
		m = nopMetrics{}
	}
	return &UserService{users: users, idem: idem, metrics: m, logger: logger}
}

type nopMetrics struct{}

func (nopMetrics) UserWritten(string)   {}
func (nopMetrics) EmailConflict(string) {}
func (nopMetrics) IdempotentReplay()    {}
func (nopMetrics) StoreError(string)    {}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.Users().GetAll(ctx)
	if err != nil {
		return nil, s.storeFailure("list", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.users.Users().GetByID(ctx, id)
	if err != nil {
		return nil, s.storeFailure("get", err)
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

// Create stages and commits a new active user. A taken email yields
// domain.ErrDuplicateEmail whether the pre-check or the unique index caught it.
func (s *UserService) Create(ctx context.Context, in ports.CreateUserInput) (*ports.CreateUserResult, error) {
	if u := s.replay(ctx, in.IdempotencyKey); u != nil {
		return &ports.CreateUserResult{User: u, Replayed: true}, nil
	}

	repo := s.users.Users()
	u := &domain.User{Name: in.Name, Email: in.Email, Password: in.Password}
	if err := repo.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			s.metrics.EmailConflict("precheck")
			return nil, domain.ErrDuplicateEmail
		}
		return nil, s.storeFailure("create", err)
	}
	if err := s.commit(ctx, repo, "create"); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", u.ID).Msg("user created")
	s.remember(ctx, in.IdempotencyKey, u.ID)

	return &ports.CreateUserResult{User: u}, nil
}

// Update replaces name, email and active on an existing user. The email may
// stay the same; it may not belong to another user.
func (s *UserService) Update(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	repo := s.users.Users()

	existing, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeFailure("update", err)
	}
	if existing == nil {
		return nil, domain.ErrUserNotFound
	}

	owner, err := repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, s.storeFailure("update", err)
	}
	if owner != nil && owner.ID != id {
		s.metrics.EmailConflict("precheck")
		return nil, domain.ErrDuplicateEmail
	}

	existing.Name = in.Name
	existing.Email = in.Email
	existing.Active = in.Active
	if err := repo.Update(ctx, existing); err != nil {
		return nil, s.storeFailure("update", err)
	}
	if err := s.commit(ctx, repo, "update"); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", id).Bool("active", existing.Active).Msg("user updated")
	return existing, nil
}

// Delete deactivates a user. Deleting an inactive user succeeds again.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	repo := s.users.Users()

	existing, err := repo.GetByID(ctx, id)
	if err != nil {
		return s.storeFailure("delete", err)
	}
	if existing == nil {
		return domain.ErrUserNotFound
	}

	if err := repo.SoftDelete(ctx, existing); err != nil {
		return s.storeFailure("delete", err)
	}
	if err := s.commit(ctx, repo, "delete"); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", id).Msg("user deactivated")
	return nil
}

func (s *UserService) commit(ctx context.Context, repo ports.UserRepository, op string) error {
	err := repo.Commit(ctx)
	switch {
	case err == nil:
		s.metrics.UserWritten(op)
		return nil
	case errors.Is(err, domain.ErrDuplicateEmail):
		s.metrics.EmailConflict("commit")
		return domain.ErrDuplicateEmail
	case errors.Is(err, domain.ErrUserNotFound):
		return domain.ErrUserNotFound
	default:
		return s.storeFailure(op, err)
	}
}

func (s *UserService) storeFailure(op string, err error) error {
	s.metrics.StoreError(op)
	return fmt.Errorf("%s user: %w", op, err)
}

// replay returns the user an earlier request with the same key created.
// Any failure is logged and treated as a miss.
func (s *UserService) replay(ctx context.Context, key string) *domain.User {
	if key == "" || s.idem == nil {
		return nil
	}

	id, found, err := s.idem.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if !found {
		return nil
	}

	u, err := s.users.Users().GetByID(ctx, id)
	if err != nil || u == nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Int64("user_id", id).Msg("idempotency record points nowhere")
		return nil
	}

	s.metrics.IdempotentReplay()
	s.logger.Info().Str("idempotency_key", key).Int64("user_id", id).Msg("idempotent replay")
	return u
}

func (s *UserService) remember(ctx context.Context, key string, id int64) {
	if key == "" || s.idem == nil {
		return
	}
	if err := s.idem.Remember(ctx, key, id); err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotency key")
	}
}
