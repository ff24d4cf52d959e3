package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiusers/user-service/internal/core/domain"
)

// newTestStore opens an in-memory SQLite store with the schema applied.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedUser(t *testing.T, s *Store, name, email string) *domain.User {
	t.Helper()
	ctx := context.Background()
	repo := s.Users()
	u := &domain.User{Name: name, Email: email, Password: "secret1"}
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.Commit(ctx))
	return u
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, "pgx", dialectFor("postgres://u:p@localhost/db").driverName())
	assert.Equal(t, "pgx", dialectFor("POSTGRESQL://localhost/db").driverName())
	assert.Equal(t, "sqlite", dialectFor("apiusers.db").driverName())
	assert.Equal(t, "sqlite", dialectFor(":memory:").driverName())
}

func TestCreate_AssignsIDOnCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Users()

	u := &domain.User{Name: "Ann", Email: "  Ann@Example.com ", Password: "secret1"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Zero(t, u.ID, "id must stay unassigned until commit")
	assert.Equal(t, "ann@example.com", u.Email)

	// staged insert is invisible before commit
	all, err := s.Users().GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, repo.Commit(ctx))
	require.NotZero(t, u.ID)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Equal(t, "secret1", got.Password)
	assert.True(t, got.Active)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetByID_Absent(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Users().GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreate_DuplicateEmailIgnoresCaseAndBlanks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "Ann", "A@x.com")

	repo := s.Users()
	err := repo.Create(ctx, &domain.User{Name: "Other", Email: "a@x.com ", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	// nothing was staged
	require.NoError(t, repo.Commit(ctx))
	all, err := s.Users().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCommit_UniqueIndexRejectsRacingCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, second := s.Users(), s.Users()
	require.NoError(t, first.Create(ctx, &domain.User{Name: "Ann", Email: "ann@example.com", Password: "secret1"}))
	require.NoError(t, second.Create(ctx, &domain.User{Name: "Ann Two", Email: "ANN@example.com", Password: "secret2"}))

	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), domain.ErrDuplicateEmail)

	all, err := s.Users().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Ann", all[0].Name)
}

func TestCommit_RollsBackWholeStage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "Taken", "taken@example.com")

	repo := s.Users()
	require.NoError(t, repo.Create(ctx, &domain.User{Name: "Fresh", Email: "fresh@example.com", Password: "secret1"}))
	// bypass the pre-check to force a failure on the second statement
	repo.(*userRepository).stage(changeInsert, &domain.User{Name: "Clash", Email: "taken@example.com", Password: "secret1", Active: true})

	assert.ErrorIs(t, repo.Commit(ctx), domain.ErrDuplicateEmail)

	exists, err := s.Users().EmailExists(ctx, "fresh@example.com")
	require.NoError(t, err)
	assert.False(t, exists, "first insert must be rolled back")
}

func TestCommit_EmptyStageIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Users().Commit(context.Background()))
}

func TestCommit_CancelledContextPersistsNothing(t *testing.T) {
	s := newTestStore(t)
	repo := s.Users()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, repo.Create(ctx, &domain.User{Name: "Ann", Email: "ann@example.com", Password: "secret1"}))
	cancel()

	assert.Error(t, repo.Commit(ctx))

	all, err := s.Users().GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdate_ChangesFieldsButNotPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "Ann", "ann@example.com")

	repo := s.Users()
	existing, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)

	existing.Name = "Ann Smith"
	existing.Email = " ANN.SMITH@example.com"
	existing.Active = false
	existing.Password = "should-not-be-written"
	require.NoError(t, repo.Update(ctx, existing))
	require.NoError(t, repo.Commit(ctx))

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann Smith", got.Name)
	assert.Equal(t, "ann.smith@example.com", got.Email)
	assert.False(t, got.Active)
	assert.Equal(t, "secret1", got.Password)
}

func TestUpdate_MissingRowFailsOnCommit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Users()

	require.NoError(t, repo.Update(ctx, &domain.User{ID: 99, Name: "Ghost", Email: "ghost@example.com"}))
	assert.ErrorIs(t, repo.Commit(ctx), domain.ErrUserNotFound)
}

func TestSoftDelete_KeepsRowAndIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "Ann", "ann@example.com")

	for i := 0; i < 2; i++ {
		repo := s.Users()
		existing, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.NoError(t, repo.SoftDelete(ctx, existing))
		assert.False(t, existing.Active)
		require.NoError(t, repo.Commit(ctx))
	}

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)

	byEmail, err := s.Users().GetByEmail(ctx, "ANN@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)

	exists, err := s.Users().EmailExists(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.True(t, exists, "inactive rows still own their email")
}

func TestGetAll_CountsCreatesAndSoftDeletes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com", "e@example.com"}
	var created []*domain.User
	for _, e := range emails {
		created = append(created, seedUser(t, s, "User "+e, e))
	}

	repo := s.Users()
	for _, u := range created[:2] {
		require.NoError(t, repo.SoftDelete(ctx, u))
	}
	require.NoError(t, repo.Commit(ctx))

	all, err := s.Users().GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(emails))

	inactive := 0
	for i, u := range all {
		if i > 0 {
			assert.Greater(t, u.ID, all[i-1].ID, "rows come back in id order")
		}
		if !u.Active {
			inactive++
		}
	}
	assert.Equal(t, 2, inactive)
}

func TestIDsAreNeverReused(t *testing.T) {
	s := newTestStore(t)
	first := seedUser(t, s, "Ann", "ann@example.com")
	second := seedUser(t, s, "Bob", "bob@example.com")
	assert.Greater(t, second.ID, first.ID)
}

func TestGetAll_StoreFailureIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newFromDB(sqlx.NewDb(db, "sqlmock"), "sqlmock")
	boom := errors.New("connection refused")
	mock.ExpectQuery(regexp.QuoteMeta(selectUsers + ` ORDER BY id`)).WillReturnError(boom)

	_, err = s.Users().GetAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrDuplicateEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommit_BeginFailureIsWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newFromDB(sqlx.NewDb(db, "sqlmock"), "sqlmock")
	repo := s.Users()
	require.NoError(t, repo.Update(context.Background(), &domain.User{ID: 1, Name: "Ann", Email: "ann@example.com"}))

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	err = repo.Commit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
	require.NoError(t, mock.ExpectationsWereMet())
}
