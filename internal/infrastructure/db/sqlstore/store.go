// Package sqlstore is the relational record store for users. SQLite is used
// for local files and PostgreSQL for postgres:// URLs; both go through sqlx.
package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/apiusers/user-service/internal/core/ports"
)

// Store owns the connection pool. It is safe for concurrent use and hands
// out request-scoped repositories through Users.
type Store struct {
	db      *sqlx.DB
	dialect dialect
}

var _ ports.UserRepositoryProvider = (*Store)(nil)

// Open connects to dsn, verifies connectivity and creates the schema when
// missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	d := dialectFor(dsn)

	db, err := sqlx.Open(d.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driverName(), err)
	}
	if err := d.configure(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driverName(), err)
	}

	s := &Store{db: db, dialect: d}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(s.dialect.schema(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Users returns a fresh repository with an empty stage.
func (s *Store) Users() ports.UserRepository {
	return &userRepository{db: s.db, dialect: s.dialect}
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DriverName is the database/sql driver in use ("sqlite" or "pgx").
func (s *Store) DriverName() string {
	return s.dialect.driverName()
}

func (s *Store) Close() error {
	return s.db.Close()
}
