package repositories

import (
	"database/sql"
	"errors"
)

// Sentinel errors shared by every repository. Services match on these
// with errors.Is and never inspect driver errors directly.
var (
	// ErrNotFound: the row asked for does not exist.
	ErrNotFound = errors.New("requested record not found")

	// ErrDuplicateKey: a unique constraint rejected the write.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrInvalidInput: a state guard in the query matched no rows,
	// e.g. fixing a rejection that is already fixed.
	ErrInvalidInput = errors.New("invalid input for database operation")

	// ErrDatabaseError wraps any other driver failure.
	ErrDatabaseError = errors.New("database error")
)

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx, so the same
// repository method works standalone or inside a service transaction.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}
