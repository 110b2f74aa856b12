// Package mysql exposes the global `mysql` module: the classic-protocol
// session factory and module help. The heavy lifting lives in the mysqlx
// package; classic sessions share its session and result machinery.
package mysql

import (
	"github.com/SandeepSethia/mysql-shell/internal/mysqlx"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// Module is the bridge installed as the global `mysql` module.
type Module struct {
	*shcore.MemberRegistry
	inner *mysqlx.Module
}

// NewModule builds the mysql module surface on top of the shared session
// factory machinery.
func NewModule(open mysqlx.Opener) *Module {
	m := &Module{inner: mysqlx.NewModule(open)}
	m.MemberRegistry = shcore.NewMemberRegistry("mysql", nil)
	m.AddMethod("getClassicSession", func(args []shcore.Value) (shcore.Value, error) {
		s, err := m.inner.OpenSession("mysql.getClassicSession", mysqlx.ClassClassicSession, args)
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		return shcore.ObjectValue(s), nil
	})
	m.AddMethod("help", func(args []shcore.Value) (shcore.Value, error) {
		if err := shcore.EnsureCount("mysql.help", args, 0, 0); err != nil {
			return shcore.UndefinedValue(), err
		}
		return shcore.StringValue(helpText), nil
	})
	return m
}

const helpText = `The mysql module gives access to classic protocol sessions.

  getClassicSession(uri[, password])  Opens a ClassicSession to the server.
  help()                              Prints this text.`
