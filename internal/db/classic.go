package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/logger"
	"github.com/SandeepSethia/mysql-shell/internal/uri"
)

// Options tunes a classic connection beyond what the URI carries.
type Options struct {
	ConnectTimeout time.Duration // time limit for establishing the connection
	SocketTimeout  time.Duration // per-statement read/write deadline
}

// DefaultOptions returns the timeouts applied when the shell config names
// none.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout: 10 * time.Second,
		SocketTimeout:  0, // no statement deadline
	}
}

// Classic is a classic-protocol Conn backed by database/sql and
// go-sql-driver/mysql. It holds a single connection, matching the one
// session = one server thread model of the shell.
type Classic struct {
	db   *sql.DB
	opts Options
}

// OpenClassic connects using an already-parsed connection string. The
// password argument overrides the URI password when non-empty.
func OpenClassic(ctx context.Context, conn *uri.Connection, password string, opts Options) (*Classic, error) {
	cfg := mysql.NewConfig()
	cfg.User = conn.User
	cfg.Passwd = conn.Password
	if password != "" {
		cfg.Passwd = password
	}
	if conn.Socket != "" {
		cfg.Net = "unix"
		cfg.Addr = conn.Socket
	} else {
		cfg.Net = "tcp"
		cfg.Addr = addr(conn.Host, conn.EffectivePort(false))
	}
	cfg.DBName = conn.Schema
	cfg.MultiStatements = true
	cfg.ParseTime = false
	cfg.Timeout = opts.ConnectTimeout
	cfg.ReadTimeout = opts.SocketTimeout
	cfg.WriteTimeout = opts.SocketTimeout

	handle, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, errs.Wrap(errs.KindProtocol, "invalid connection settings", err)
	}
	handle.SetMaxOpenConns(1)
	handle.SetMaxIdleConns(1)

	c := &Classic{db: handle, opts: opts}

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := c.Ping(pingCtx); err != nil {
		_ = handle.Close()
		return nil, err
	}

	logger.Debug("classic connection established")
	return c, nil
}

func addr(host string, port int) string {
	var sb strings.Builder
	if strings.Contains(host, ":") {
		sb.WriteByte('[')
		sb.WriteString(host)
		sb.WriteByte(']')
	} else {
		sb.WriteString(host)
	}
	sb.WriteByte(':')
	sb.WriteString(itoa(port))
	return sb.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func (c *Classic) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (c *Classic) Close() error {
	return c.db.Close()
}

// Execute runs one statement. Statements that produce rows go through
// Query; everything else goes through Exec so the affected-row count is
// available.
func (c *Classic) Execute(ctx context.Context, stmt string, args ...any) (Result, error) {
	if returnsRows(stmt) {
		rows, err := c.db.QueryContext(ctx, stmt, args...)
		if err != nil {
			return nil, mapError(err, "query failed")
		}
		return newClassicRows(c, rows)
	}

	res, err := c.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, mapError(err, "statement failed")
	}
	affected, _ := res.RowsAffected()
	warnings := c.warningCount(ctx)
	return &okResult{affected: affected, warnings: warnings}, nil
}

// warningCount reads @@warning_count after a DML statement. Reading the
// variable does not clear the warning list.
func (c *Classic) warningCount(ctx context.Context) int64 {
	var n int64
	if err := c.db.QueryRowContext(ctx, "SELECT @@warning_count").Scan(&n); err != nil {
		return 0
	}
	return n
}

// returnsRows classifies a statement by its leading keyword.
func returnsRows(stmt string) bool {
	s := strings.TrimSpace(stmt)
	for strings.HasPrefix(s, "/*") {
		end := strings.Index(s, "*/")
		if end < 0 {
			break
		}
		s = strings.TrimSpace(s[end+2:])
	}
	i := strings.IndexAny(s, " \t\r\n(")
	if i < 0 {
		i = len(s)
	}
	switch strings.ToUpper(s[:i]) {
	case "SELECT", "SHOW", "DESC", "DESCRIBE", "EXPLAIN", "WITH", "CALL", "TABLE", "VALUES":
		return true
	}
	return false
}

// --- row-bearing results ---

type classicRows struct {
	conn    *Classic
	rows    *sql.Rows
	columns []Column
	done    bool
}

func newClassicRows(conn *Classic, rows *sql.Rows) (*classicRows, error) {
	r := &classicRows{conn: conn, rows: rows}
	if err := r.loadColumns(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	return r, nil
}

func (r *classicRows) loadColumns() error {
	types, err := r.rows.ColumnTypes()
	if err != nil {
		return mapError(err, "failed to read column metadata")
	}
	r.columns = make([]Column, len(types))
	for i, ct := range types {
		col := Column{
			Catalog: "def",
			Name:    ct.Name(),
			OrgName: ct.Name(),
			Type:    ct.DatabaseTypeName(),
		}
		if length, ok := ct.Length(); ok {
			col.Length = length
		}
		if _, scale, ok := ct.DecimalSize(); ok {
			col.Decimal = scale
		}
		r.columns[i] = col
	}
	return nil
}

func (r *classicRows) HasData() bool     { return true }
func (r *classicRows) Columns() []Column { return r.columns }

func (r *classicRows) Next() ([]any, bool, error) {
	if r.done || !r.rows.Next() {
		r.done = true
		if err := r.rows.Err(); err != nil {
			return nil, false, mapError(err, "row fetch failed")
		}
		return nil, false, nil
	}
	dest := make([]any, len(r.columns))
	ptrs := make([]any, len(r.columns))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, false, mapError(err, "failed to scan row")
	}
	for i, v := range dest {
		if b, ok := v.([]byte); ok {
			dest[i] = string(b)
		}
	}
	return dest, true, nil
}

func (r *classicRows) NextResult() (bool, error) {
	if !r.rows.NextResultSet() {
		if err := r.rows.Err(); err != nil {
			return false, mapError(err, "failed to advance result")
		}
		return false, nil
	}
	r.done = false
	if err := r.loadColumns(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *classicRows) AffectedRows() int64 { return 0 }
func (r *classicRows) WarningCount() int64 { return 0 }
func (r *classicRows) Info() string        { return "" }
func (r *classicRows) Close() error        { return r.rows.Close() }

// --- OK-packet results ---

type okResult struct {
	affected int64
	warnings int64
	info     string
}

func (r *okResult) HasData() bool              { return false }
func (r *okResult) Columns() []Column          { return nil }
func (r *okResult) Next() ([]any, bool, error) { return nil, false, nil }
func (r *okResult) NextResult() (bool, error)  { return false, nil }
func (r *okResult) AffectedRows() int64        { return r.affected }
func (r *okResult) WarningCount() int64        { return r.warnings }
func (r *okResult) Info() string               { return r.info }
func (r *okResult) Close() error               { return nil }

// --- error mapping ---

// mapError translates go-sql-driver/mysql errors into *errs.Error.
func mapError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.KindInterrupted, msg, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return errs.SQL(mysqlErr.Number, string(mysqlErr.SQLState[:]), mysqlErr.Message, err)
	}

	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) {
		return errs.Wrap(errs.KindProtocol, msg, err)
	}

	return errs.Wrap(errs.KindProtocol, msg, err)
}
