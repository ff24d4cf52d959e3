package sqlstore

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

// dialect hides what differs between the supported SQL engines. Queries are
// written with '?' placeholders and rebound by sqlx for the active driver.
type dialect interface {
	// driverName is the database/sql driver registered for the engine.
	driverName() string
	// schema returns idempotent DDL for the users table and its indexes.
	schema() string
	// isUniqueViolation reports whether err came from a unique index.
	isUniqueViolation(err error) bool
	// configure applies pool settings and session pragmas after open.
	configure(db *sqlx.DB) error
}

// dialectFor picks the engine from the connection target. Anything that is
// not a PostgreSQL URL is treated as a SQLite file or DSN.
func dialectFor(dsn string) dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return postgresDialect{}
	}
	return sqliteDialect{}
}
