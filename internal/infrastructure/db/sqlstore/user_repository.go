package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apiusers/user-service/internal/core/domain"
)

const selectUsers = `SELECT id, name, email, password, active, created_at, updated_at FROM users`

type changeKind int

const (
	changeInsert changeKind = iota
	changeUpdate
)

// change is one staged write. row is a snapshot taken at staging time;
// target receives the store-assigned values once the transaction commits.
type change struct {
	kind   changeKind
	row    domain.User
	target *domain.User
}

type userRepository struct {
	db      *sqlx.DB
	dialect dialect
	staged  []change
}

func (r *userRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(selectUsers+` ORDER BY id`)); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "get user by id", selectUsers+` WHERE id = ?`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "get user by email", selectUsers+` WHERE email = ?`, domain.NormalizeEmail(email))
}

func (r *userRepository) getOne(ctx context.Context, op, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &u, nil
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := r.db.Rebind(`SELECT EXISTS (SELECT 1 FROM users WHERE email = ?)`)
	if err := r.db.GetContext(ctx, &exists, query, domain.NormalizeEmail(email)); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("create user: nil user")
	}
	u.Email = domain.NormalizeEmail(u.Email)

	exists, err := r.EmailExists(ctx, u.Email)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicateEmail
	}

	u.Active = true
	r.stage(changeInsert, u)
	return nil
}

func (r *userRepository) Update(_ context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("update user: nil user")
	}
	u.Email = domain.NormalizeEmail(u.Email)
	r.stage(changeUpdate, u)
	return nil
}

func (r *userRepository) SoftDelete(_ context.Context, u *domain.User) error {
	if u == nil {
		return errors.New("delete user: nil user")
	}
	u.Active = false
	r.stage(changeUpdate, u)
	return nil
}

func (r *userRepository) stage(kind changeKind, u *domain.User) {
	r.staged = append(r.staged, change{kind: kind, row: *u, target: u})
}

// Commit applies the stage in order inside one transaction. The stage is
// emptied whatever the outcome; on error nothing is persisted.
func (r *userRepository) Commit(ctx context.Context) (err error) {
	staged := r.staged
	r.staged = nil
	if len(staged) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range staged {
		c := &staged[i]
		c.row.UpdatedAt = now
		switch c.kind {
		case changeInsert:
			c.row.CreatedAt = now
			err = r.insert(ctx, tx, &c.row)
		case changeUpdate:
			err = r.update(ctx, tx, &c.row)
		}
		if err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return r.translate("commit", err)
	}

	for _, c := range staged {
		c.target.ID = c.row.ID
		c.target.UpdatedAt = c.row.UpdatedAt
		if c.kind == changeInsert {
			c.target.CreatedAt = c.row.CreatedAt
		}
	}
	return nil
}

func (r *userRepository) insert(ctx context.Context, tx *sqlx.Tx, u *domain.User) error {
	query := tx.Rebind(`INSERT INTO users (name, email, password, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	err := tx.QueryRowxContext(ctx, query,
		u.Name, u.Email, u.Password, u.Active, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return r.translate("insert user", err)
	}
	return nil
}

func (r *userRepository) update(ctx context.Context, tx *sqlx.Tx, u *domain.User) error {
	query := tx.Rebind(`UPDATE users SET name = ?, email = ?, active = ?, updated_at = ? WHERE id = ?`)
	res, err := tx.ExecContext(ctx, query, u.Name, u.Email, u.Active, u.UpdatedAt, u.ID)
	if err != nil {
		return r.translate("update user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) translate(op string, err error) error {
	if r.dialect.isUniqueViolation(err) {
		return domain.ErrDuplicateEmail
	}
	return fmt.Errorf("%s: %w", op, err)
}
