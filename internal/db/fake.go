package db

import (
	"context"
	"strings"
	"sync"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
)

// Fake is an in-memory Conn for the test suites. Statements are matched
// against registered handlers in registration order; the first handler
// whose pattern is a case-insensitive prefix of the statement wins.
// Unmatched statements fail like an unknown-syntax server error.
type Fake struct {
	mu       sync.Mutex
	handlers []fakeHandler
	closed   bool

	// Statements records every executed statement, for assertions on the
	// SQL the CRUD builders generate.
	Statements []string
	// Args records the driver args of each executed statement.
	Args [][]any
}

type fakeHandler struct {
	prefix string
	fn     func(stmt string, args []any) (*FakeResult, error)
}

// NewFake returns an empty fake connection.
func NewFake() *Fake {
	return &Fake{}
}

// Handle registers a handler for statements starting with prefix
// (case-insensitive).
func (f *Fake) Handle(prefix string, fn func(stmt string, args []any) (*FakeResult, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fakeHandler{prefix: strings.ToUpper(prefix), fn: fn})
}

// HandleOK registers a fixed OK-packet response.
func (f *Fake) HandleOK(prefix string, affected, warnings int64) {
	f.Handle(prefix, func(string, []any) (*FakeResult, error) {
		return &FakeResult{Affected: affected, Warnings: warnings}, nil
	})
}

// HandleRows registers a fixed row-bearing response.
func (f *Fake) HandleRows(prefix string, cols []Column, rows [][]any) {
	f.Handle(prefix, func(string, []any) (*FakeResult, error) {
		return &FakeResult{Cols: cols, Rows: rows, Data: true}, nil
	})
}

func (f *Fake) Execute(_ context.Context, stmt string, args ...any) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, errs.New(errs.KindSessionClosed, "", "connection is closed")
	}
	f.Statements = append(f.Statements, stmt)
	f.Args = append(f.Args, args)

	upper := strings.ToUpper(strings.TrimSpace(stmt))
	for _, h := range f.handlers {
		if strings.HasPrefix(upper, h.prefix) {
			res, err := h.fn(stmt, args)
			if err != nil {
				return nil, err
			}
			return res.cursor(), nil
		}
	}
	return nil, errs.SQL(1064, "42000", "You have an error in your SQL syntax near: "+stmt, nil)
}

func (f *Fake) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errs.New(errs.KindSessionClosed, "", "connection is closed")
	}
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// FakeResult describes one result block returned by a fake handler.
// Next chains additional blocks for multi-result statements.
type FakeResult struct {
	Data     bool
	Cols     []Column
	Rows     [][]any
	Affected int64
	Warnings int64
	Trailer  string
	Next     *FakeResult
}

func (r *FakeResult) cursor() *fakeCursor {
	return &fakeCursor{block: r}
}

type fakeCursor struct {
	block *FakeResult
	pos   int
}

func (c *fakeCursor) HasData() bool     { return c.block.Data }
func (c *fakeCursor) Columns() []Column { return c.block.Cols }

func (c *fakeCursor) Next() ([]any, bool, error) {
	if c.pos >= len(c.block.Rows) {
		return nil, false, nil
	}
	row := c.block.Rows[c.pos]
	c.pos++
	return row, true, nil
}

func (c *fakeCursor) NextResult() (bool, error) {
	if c.block.Next == nil {
		return false, nil
	}
	c.block = c.block.Next
	c.pos = 0
	return true, nil
}

func (c *fakeCursor) AffectedRows() int64 { return c.block.Affected }
func (c *fakeCursor) WarningCount() int64 { return c.block.Warnings }
func (c *fakeCursor) Info() string        { return c.block.Trailer }
func (c *fakeCursor) Close() error        { return nil }
