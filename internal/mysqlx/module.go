package mysqlx

import (
	"context"

	"github.com/SandeepSethia/mysql-shell/internal/db"
	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
	"github.com/SandeepSethia/mysql-shell/internal/uri"
)

// Opener establishes a backend connection for a session factory. Tests
// inject a fake; the shell wires db.OpenClassic.
type Opener func(ctx context.Context, conn *uri.Connection, password string, xprotocol bool) (db.Conn, error)

// ClassicOpener is the production Opener over go-sql-driver/mysql. Both
// session families connect through the classic wire; they differ only in
// default port and printed class.
func ClassicOpener(opts db.Options) Opener {
	return func(ctx context.Context, conn *uri.Connection, password string, _ bool) (db.Conn, error) {
		return db.OpenClassic(ctx, conn, password, opts)
	}
}

// Module is the bridge installed as the global `mysqlx` module.
type Module struct {
	*shcore.MemberRegistry
	open Opener
}

// NewModule builds the mysqlx module surface.
func NewModule(open Opener) *Module {
	m := &Module{open: open}
	m.MemberRegistry = shcore.NewMemberRegistry("mysqlx", nil)
	m.AddMethod("getSession", func(args []shcore.Value) (shcore.Value, error) {
		return m.openSession("mysqlx.getSession", ClassXSession, args)
	})
	m.AddMethod("getNodeSession", func(args []shcore.Value) (shcore.Value, error) {
		return m.openSession("mysqlx.getNodeSession", ClassNodeSession, args)
	})
	m.AddMethod("expr", expr)
	return m
}

// OpenSession is the exported form used by the mysql module and the shell.
func (m *Module) OpenSession(api string, class SessionClass, args []shcore.Value) (*Session, error) {
	conn, password, err := connectionArgs(api, args)
	if err != nil {
		return nil, err
	}
	backend, err := m.open(context.Background(), conn, password, class.XProtocol())
	if err != nil {
		return nil, errs.WithAPI(api, err)
	}
	return NewSession(class, backend, conn), nil
}

func (m *Module) openSession(api string, class SessionClass, args []shcore.Value) (shcore.Value, error) {
	s, err := m.OpenSession(api, class, args)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	return shcore.ObjectValue(s), nil
}

// connectionArgs parses the (uri|dict [, password]) argument forms shared
// by every session factory.
func connectionArgs(api string, args []shcore.Value) (*uri.Connection, string, error) {
	if err := shcore.EnsureCount(api, args, 1, 2); err != nil {
		return nil, "", err
	}

	var conn *uri.Connection
	switch args[0].Type() {
	case shcore.String:
		text, _ := args[0].AsString()
		parsed, err := uri.Parse(text)
		if err != nil {
			return nil, "", errs.WithAPI(api, err)
		}
		conn = parsed
	case shcore.Map:
		dict, _ := args[0].AsMap()
		parsed, err := connectionFromDict(api, dict)
		if err != nil {
			return nil, "", err
		}
		conn = parsed
	default:
		return nil, "", errs.Argument(api, 1, "string or map")
	}

	password := ""
	if len(args) == 2 {
		p, err := shcore.StringAt(api, args, 2)
		if err != nil {
			return nil, "", err
		}
		password = p
	}
	return conn, password, nil
}

// connectionFromDict accepts the {host, port, schema, dbUser, dbPassword,
// socket, ssl…} map form of connection data.
func connectionFromDict(api string, dict *shcore.MapValue) (*uri.Connection, error) {
	conn := &uri.Connection{}
	str := func(v shcore.Value, key string) (string, error) {
		s, err := v.AsString()
		if err != nil {
			return "", errs.Newf(errs.KindArgument, api, "Invalid value for connection option %s: string expected", key)
		}
		return s, nil
	}
	for _, key := range dict.Keys() {
		v, _ := dict.Get(key)
		var err error
		switch key {
		case "host":
			conn.Host, err = str(v, key)
		case "port":
			var port uint64
			port, err = shcore.UintAt(api, []shcore.Value{v}, 1)
			conn.Port = int(port)
		case "schema":
			conn.Schema, err = str(v, key)
		case "dbUser", "user":
			conn.User, err = str(v, key)
		case "dbPassword", "password":
			conn.Password, err = str(v, key)
			conn.PasswordFound = err == nil
		case "socket":
			conn.Socket, err = str(v, key)
		case "ssl_ca", "sslCa":
			conn.SSLCA, err = str(v, key)
		case "ssl_cert", "sslCert":
			conn.SSLCert, err = str(v, key)
		case "ssl_key", "sslKey":
			conn.SSLKey, err = str(v, key)
		default:
			return nil, errs.Newf(errs.KindArgument, api, "Unknown connection option %s", key)
		}
		if err != nil {
			return nil, err
		}
	}
	if conn.Host == "" && conn.Socket == "" {
		return nil, errs.New(errs.KindArgument, api, "Missing host in connection data")
	}
	return conn, nil
}
