package mysqlx

import (
	"context"
	"fmt"

	"github.com/SandeepSethia/mysql-shell/internal/db"
	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/logger"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
	"github.com/SandeepSethia/mysql-shell/internal/uri"
)

// SessionClass distinguishes the three session flavours. They share one
// implementation; only the printed class and default port differ.
type SessionClass string

const (
	ClassXSession       SessionClass = "XSession"
	ClassNodeSession    SessionClass = "NodeSession"
	ClassClassicSession SessionClass = "ClassicSession"
)

// XProtocol reports whether the class defaults to the X plugin port.
func (c SessionClass) XProtocol() bool { return c != ClassClassicSession }

// Session owns a live server connection. It is alive from construction
// until close(); every operation afterwards fails with SessionClosed.
// Sessions track their open result so that issuing a new statement
// discards (or, in strict mode, rejects) a half-read previous result.
type Session struct {
	*shcore.MemberRegistry

	class   SessionClass
	conn    db.Conn
	parsed  *uri.Connection
	display string

	closed  bool
	strict  bool
	current *ResultSet
	schema  string
}

// NewSession wraps an open backend connection in a session bridge.
func NewSession(class SessionClass, conn db.Conn, parsed *uri.Connection) *Session {
	s := &Session{
		class:   class,
		conn:    conn,
		parsed:  parsed,
		display: parsed.Display(class.XProtocol()),
		schema:  parsed.Schema,
	}
	s.MemberRegistry = shcore.NewMemberRegistry(string(class), func() string {
		return fmt.Sprintf("<%s:%s>", s.class, s.display)
	})

	s.AddProperty("uri", func() (shcore.Value, error) {
		return shcore.StringValue(s.display), nil
	})
	s.AddMethod("sql", s.sqlMember)
	s.AddMethod("sql_one", s.sqlOneMember)
	s.AddMethod("close", s.closeMember)
	s.AddMethod("next_result", s.nextResultMember)
	s.AddMethod("getSchema", s.getSchemaMember)
	s.AddMethod("getDefaultSchema", s.getDefaultSchemaMember)
	s.AddMethod("createSchema", s.createSchemaMember)
	s.AddMethod("setCurrentSchema", s.setCurrentSchemaMember)
	s.AddMethod("dropSchema", s.dropSchemaMember)
	return s
}

// SetStrict makes a half-read result fail the next statement with
// ResultLeak instead of silently discarding it.
func (s *Session) SetStrict(strict bool) { s.strict = strict }

// URI returns the password-stripped display form.
func (s *Session) URI() string { return s.display }

// Class returns the session flavour.
func (s *Session) Class() SessionClass { return s.class }

// CurrentSchema returns the active default schema name, if any.
func (s *Session) CurrentSchema() string { return s.schema }

func (s *Session) api(name string) string {
	return string(s.class) + "." + name
}

func (s *Session) ensureOpen(api string) error {
	if s.closed {
		return errs.New(errs.KindSessionClosed, api, "The session is closed")
	}
	return nil
}

// retireCurrent discards the open result before a new statement runs.
func (s *Session) retireCurrent(api string) error {
	if s.current == nil {
		return nil
	}
	rs := s.current
	s.current = nil
	if !rs.drained() {
		rs.release()
		if s.strict {
			return errs.New(errs.KindResultLeak, api, "Previous result was discarded with unread rows")
		}
		return nil
	}
	rs.release()
	return nil
}

// Execute runs a statement with driver args and wraps the cursor in a
// result bridge. This is the entry point the CRUD builders use.
func (s *Session) Execute(stmt string, args ...any) (*ResultSet, error) {
	return s.execute("sql", stmt, args...)
}

func (s *Session) execute(apiName, stmt string, args ...any) (*ResultSet, error) {
	api := s.api(apiName)
	if err := s.ensureOpen(api); err != nil {
		return nil, err
	}
	if err := s.retireCurrent(api); err != nil {
		return nil, err
	}
	logger.Debug("executing statement")
	cur, err := s.conn.Execute(context.Background(), stmt, args...)
	if err != nil {
		return nil, err
	}
	rs := newResultSet(s, cur)
	s.current = rs
	return rs, nil
}

// Close shuts the session down, force-closing any open result. It is
// idempotent; errors from an already-closed connection are ignored.
func (s *Session) Close() {
	if s.closed {
		return
	}
	if s.current != nil {
		s.current.release()
		s.current = nil
	}
	s.closed = true
	_ = s.conn.Close()
	logger.Debug("session closed")
}

// Closed reports whether Close has run.
func (s *Session) Closed() bool { return s.closed }

// --- bridge members ---

func (s *Session) sqlMember(args []shcore.Value) (shcore.Value, error) {
	api := s.api("sql")
	if err := shcore.EnsureCount(api, args, 1, 2); err != nil {
		return shcore.UndefinedValue(), err
	}
	stmt, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	var driverArgs []any
	if len(args) == 2 {
		stmt, driverArgs, err = bindParams(api, stmt, args[1])
		if err != nil {
			return shcore.UndefinedValue(), err
		}
	}

	rs, err := s.execute("sql", stmt, driverArgs...)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	return shcore.ObjectValue(rs), nil
}

// bindParams applies positional (array) or named (map) parameters.
func bindParams(api, stmt string, params shcore.Value) (string, []any, error) {
	switch params.Type() {
	case shcore.Array:
		arr, _ := params.AsArray()
		out := make([]any, len(arr.Items))
		for i, item := range arr.Items {
			out[i] = driverFromValue(item)
		}
		return stmt, out, nil
	case shcore.Map:
		m, _ := params.AsMap()
		compiled, order := substPlaceholders(stmt)
		out := make([]any, len(order))
		for i, name := range order {
			v, ok := m.Get(name)
			if !ok {
				return "", nil, errs.Newf(errs.KindUnboundParameter, api, "The placeholder :%s has no value bound", name)
			}
			out[i] = driverFromValue(v)
		}
		return compiled, out, nil
	case shcore.Undefined, shcore.Null:
		return stmt, nil, nil
	}
	return "", nil, errs.Argument(api, 2, "map or array")
}

func (s *Session) sqlOneMember(args []shcore.Value) (shcore.Value, error) {
	api := s.api("sql_one")
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	stmt, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	rs, err := s.execute("sql_one", stmt)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	defer func() {
		rs.release()
		s.current = nil
	}()

	row, err := rs.fetchDocument()
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if row.IsNull() {
		return shcore.NullValue(), nil
	}
	// The contract promises a single row.
	extra, err := rs.fetchDocument()
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if !extra.IsNull() {
		return shcore.UndefinedValue(), errs.New(errs.KindResultShape, api, "Statement returned more than one row")
	}
	return row, nil
}

func (s *Session) closeMember(args []shcore.Value) (shcore.Value, error) {
	if err := shcore.EnsureCount(s.api("close"), args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	s.Close()
	return shcore.UndefinedValue(), nil
}

func (s *Session) nextResultMember(args []shcore.Value) (shcore.Value, error) {
	api := s.api("next_result")
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := s.ensureOpen(api); err != nil {
		return shcore.UndefinedValue(), err
	}
	obj, err := args[0].AsObject()
	if err != nil {
		return shcore.UndefinedValue(), errs.Argument(api, 1, "resultset")
	}
	rs, ok := obj.(*ResultSet)
	if !ok {
		return shcore.UndefinedValue(), errs.Argument(api, 1, "resultset")
	}
	more, err := rs.advance()
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	return shcore.BoolValue(more), nil
}

func (s *Session) getSchemaMember(args []shcore.Value) (shcore.Value, error) {
	api := s.api("getSchema")
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	name, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := s.ensureOpen(api); err != nil {
		return shcore.UndefinedValue(), err
	}
	return shcore.ObjectValue(newSchema(s, name)), nil
}

func (s *Session) getDefaultSchemaMember(args []shcore.Value) (shcore.Value, error) {
	api := s.api("getDefaultSchema")
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := s.ensureOpen(api); err != nil {
		return shcore.UndefinedValue(), err
	}
	if s.schema == "" {
		return shcore.NullValue(), nil
	}
	return shcore.ObjectValue(newSchema(s, s.schema)), nil
}

func (s *Session) createSchemaMember(args []shcore.Value) (shcore.Value, error) {
	api := s.api("createSchema")
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	name, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	rs, err := s.execute("createSchema", "CREATE SCHEMA "+quoteIdent(name))
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	rs.release()
	s.current = nil
	return shcore.ObjectValue(newSchema(s, name)), nil
}

func (s *Session) setCurrentSchemaMember(args []shcore.Value) (shcore.Value, error) {
	api := s.api("setCurrentSchema")
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	name, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	rs, err := s.execute("setCurrentSchema", "USE "+quoteIdent(name))
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	rs.release()
	s.current = nil
	s.schema = name
	return shcore.ObjectValue(newSchema(s, name)), nil
}

func (s *Session) dropSchemaMember(args []shcore.Value) (shcore.Value, error) {
	api := s.api("dropSchema")
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	name, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	rs, err := s.execute("dropSchema", "DROP SCHEMA IF EXISTS "+quoteIdent(name))
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	rs.release()
	s.current = nil
	if s.schema == name {
		s.schema = ""
	}
	return shcore.UndefinedValue(), nil
}
