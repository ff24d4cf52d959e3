package sqlstore

import "github.com/jmoiron/sqlx"

// newFromDB wraps an existing handle without touching the schema.
func newFromDB(db *sqlx.DB, driverName string) *Store {
	var d dialect = sqliteDialect{}
	if driverName == (postgresDialect{}).driverName() {
		d = postgresDialect{}
	}
	return &Store{db: db, dialect: d}
}
