// Package db defines the backend connection contract the session bridges
// execute against. Two implementations exist: the classic-protocol driver
// backed by database/sql + go-sql-driver/mysql, and an in-memory fake used
// by the test suites. The X protocol and classic protocol are treated as
// interchangeable backends differing only in default port.
package db

import "context"

// Conn is the contract every backend implements. All layers above this
// package talk only to this interface and never import database/sql or
// the driver directly.
type Conn interface {
	// Execute runs one statement with optional positional args and
	// returns a cursor over its result blocks.
	Execute(ctx context.Context, stmt string, args ...any) (Result, error)

	// Ping verifies the server is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection. It is idempotent.
	Close() error
}

// Column describes one column of a result block. The field set mirrors the
// wire-level column metadata; fields the backend cannot supply are left at
// their zero values but are always present.
type Column struct {
	Catalog  string
	Schema   string
	Table    string
	OrgTable string
	Name     string
	OrgName  string
	Charset  string
	Length   int64
	Type     string
	Flags    string
	Decimal  int64
}

// Result is a cursor over the result blocks of one executed statement.
// Callers must Close it, even after errors; Close is idempotent.
type Result interface {
	// HasData reports whether the current block carries rows (as opposed
	// to a bare OK packet).
	HasData() bool

	// Columns returns the metadata of the current block.
	Columns() []Column

	// Next fetches one row in column order. ok is false past the end.
	Next() (row []any, ok bool, err error)

	// NextResult advances to the next result block, discarding unread
	// rows of the current one. Returns false when none remains.
	NextResult() (bool, error)

	// AffectedRows is the DML row count of the current block.
	AffectedRows() int64

	// WarningCount is the warning count of the current block.
	WarningCount() int64

	// Info is the human-readable trailer of the current block, if any.
	Info() string

	// Close discards the cursor.
	Close() error
}
