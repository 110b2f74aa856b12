// Command mysqlsh is the interactive shell over the core: a line-oriented
// REPL with three surfaces (SQL, JavaScript, Python) sharing one global
// session and one object model.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/SandeepSethia/mysql-shell/internal/config"
	"github.com/SandeepSethia/mysql-shell/internal/db"
	"github.com/SandeepSethia/mysql-shell/internal/dba"
	"github.com/SandeepSethia/mysql-shell/internal/logger"
	"github.com/SandeepSethia/mysql-shell/internal/mysql"
	"github.com/SandeepSethia/mysql-shell/internal/mysqlx"
	"github.com/SandeepSethia/mysql-shell/internal/runtime"
	"github.com/SandeepSethia/mysql-shell/internal/runtime/jsrt"
	"github.com/SandeepSethia/mysql-shell/internal/runtime/pyrt"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
	"github.com/SandeepSethia/mysql-shell/internal/uri"
	"github.com/SandeepSethia/mysql-shell/internal/uuid"
)

type shell struct {
	cfg      *config.Config
	registry *runtime.Registry
	mysqlx   *mysqlx.Module
	session  *mysqlx.Session
}

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger.SetGlobal(logger.New(&logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: os.Stderr,
	}))

	uuid.Init(uint64(time.Now().UnixNano()))
	defer uuid.Shutdown()

	sh, err := newShell(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer sh.shutdown()

	if env := os.Getenv("MYSQL_URI"); env != "" {
		if err := sh.connect(env, os.Getenv("MYSQL_PWD")); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	sh.run(os.Stdin, os.Stdout)
}

func newShell(cfg *config.Config) (*shell, error) {
	opener := mysqlx.ClassicOpener(db.Options{
		ConnectTimeout: cfg.ConnectTimeoutDuration(),
		SocketTimeout:  cfg.SocketTimeoutDuration(),
	})

	sh := &shell{cfg: cfg, registry: runtime.NewRegistry()}
	sh.mysqlx = mysqlx.NewModule(opener)

	js := jsrt.New()
	py := pyrt.New()
	sh.registry.Register(runtime.ModeJS, js)
	sh.registry.Register(runtime.ModePython, py)

	modules := map[string]shcore.ObjectBridge{
		"mysql":  mysql.NewModule(opener),
		"mysqlx": sh.mysqlx,
		"dba":    dba.New(nil),
	}
	for _, rt := range []runtime.Runtime{js, py} {
		for name, module := range modules {
			if err := rt.InstallModule(name, module); err != nil {
				return nil, err
			}
		}
	}

	if err := sh.registry.Switch(runtime.Mode(cfg.DefaultMode)); err != nil {
		return nil, err
	}
	return sh, nil
}

// shutdown force-closes the global session on exit.
func (sh *shell) shutdown() {
	if sh.session != nil {
		sh.session.Close()
	}
}

func (sh *shell) connect(text, password string) error {
	parsed, err := uri.Parse(text)
	if err != nil {
		return err
	}
	class := mysqlx.ClassClassicSession
	if parsed.Scheme == uri.SchemeMySQLX {
		class = mysqlx.ClassNodeSession
	}
	args := []shcore.Value{shcore.StringValue(text)}
	if password != "" {
		args = append(args, shcore.StringValue(password))
	}
	session, err := sh.mysqlx.OpenSession("shell.connect", class, args)
	if err != nil {
		return err
	}
	if sh.session != nil {
		sh.session.Close()
	}
	sh.session = session
	session.SetStrict(sh.cfg.Strict)
	fmt.Printf("Connected to %s\n", session.URI())
	return nil
}

func (sh *shell) run(in *os.File, out *os.File) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	sh.prompt(out)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "\\") {
			if !sh.command(strings.TrimSpace(line), out) {
				return
			}
		} else {
			sh.feed(line, out)
		}
		sh.prompt(out)
	}
}

func (sh *shell) prompt(out *os.File) {
	cont := " "
	if sh.registry.Buffer() != "" {
		cont = "-"
	}
	fmt.Fprintf(out, "%s [%s]%s> ", sh.cfg.Prompt, sh.registry.Mode(), cont)
}

// command handles backslash directives; returns false to exit the shell.
func (sh *shell) command(line string, out *os.File) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "\\sql":
		_ = sh.registry.Switch(runtime.ModeSQL)
	case "\\js":
		_ = sh.registry.Switch(runtime.ModeJS)
	case "\\py":
		_ = sh.registry.Switch(runtime.ModePython)
	case "\\connect", "\\c":
		if err := sh.connect(strings.TrimSpace(rest), os.Getenv("MYSQL_PWD")); err != nil {
			fmt.Fprintln(out, err)
		}
	case "\\quit", "\\q", "\\exit":
		return false
	default:
		fmt.Fprintf(out, "Unknown command: %s\n", cmd)
	}
	return true
}

// feed accumulates input and dispatches complete statements.
func (sh *shell) feed(line string, out *os.File) {
	if sh.registry.Mode() == runtime.ModeSQL {
		buffer := sh.registry.Buffer()
		if buffer != "" {
			buffer += "\n"
		}
		buffer += line
		stmts, rest := splitStatements(buffer)
		sh.registry.SetBuffer(rest)
		for _, stmt := range stmts {
			sh.runSQL(stmt, out)
		}
		return
	}

	rt := sh.registry.Current()
	if rt == nil {
		fmt.Fprintln(out, "No runtime available")
		return
	}
	v, err := rt.Evaluate(line)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	if !v.IsUndefined() {
		fmt.Fprintln(out, render(v))
	}
}

func (sh *shell) runSQL(stmt string, out *os.File) {
	if sh.session == nil {
		fmt.Fprintln(out, "Not connected. Use \\connect URI first.")
		return
	}
	rs, err := sh.session.Execute(stmt)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	rows, err := rs.Call("all", nil)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	if arr, aerr := rows.AsArray(); aerr == nil && len(arr.Items) > 0 {
		for _, row := range arr.Items {
			fmt.Fprintln(out, row.Descr())
		}
		fmt.Fprintf(out, "%d rows in set\n", len(arr.Items))
		return
	}
	affected, _ := rs.GetMember("affected_rows")
	fmt.Fprintf(out, "Query OK, %s rows affected\n", affected.Descr())
}

// render prints an evaluation result: bridges by their canonical form,
// everything else by descr.
func render(v shcore.Value) string {
	if obj, err := v.AsObject(); err == nil {
		return obj.Repr()
	}
	return v.Descr()
}

// splitStatements cuts complete ';'-terminated statements off the buffer,
// respecting quoted strings and '#' / '-- ' line comments, and returns the
// remainder. Block comments (/* */) are not recognised.
func splitStatements(buffer string) ([]string, string) {
	var stmts []string
	start := 0
	for i := 0; i < len(buffer); {
		switch buffer[i] {
		case '\'', '"', '`':
			i = skipQuoted(buffer, i)
		case '#':
			i = skipLine(buffer, i)
		case '-':
			if strings.HasPrefix(buffer[i:], "-- ") {
				i = skipLine(buffer, i)
			} else {
				i++
			}
		case ';':
			stmt := strings.TrimSpace(buffer[start:i])
			if stmt != "" {
				stmts = append(stmts, stmt)
			}
			i++
			start = i
		default:
			i++
		}
	}
	return stmts, strings.TrimSpace(buffer[start:])
}

func skipQuoted(s string, start int) int {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if quote != '`' {
				i++
			}
		case quote:
			return i + 1
		}
	}
	return len(s)
}

func skipLine(s string, start int) int {
	if i := strings.IndexByte(s[start:], '\n'); i >= 0 {
		return start + i + 1
	}
	return len(s)
}
