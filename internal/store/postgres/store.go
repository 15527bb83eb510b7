// Package postgres implements the row-store contracts with raw SQL over
// database/sql. All writes are single-statement transactions; idempotence
// comes from ON CONFLICT clauses rather than application-level locking.
package postgres

import "database/sql"

// Store implements every interface in internal/store against Postgres.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}
