// Package mysqlx implements the developer-API surface of the shell: X and
// node sessions, schemas, collections, tables, the fluent CRUD builders,
// result sets, and the Expression object. Everything here is exposed to the
// script runtimes through the shcore object bridge protocol.
package mysqlx

import (
	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// Expression wraps a server-side expression string so builders can tell it
// apart from a literal string value.
type Expression struct {
	*shcore.MemberRegistry
	data string
}

// NewExpression creates an Expression carrying the given text.
func NewExpression(data string) *Expression {
	e := &Expression{data: data}
	e.MemberRegistry = shcore.NewMemberRegistry("Expression", nil)
	e.AddProperty("data", func() (shcore.Value, error) {
		return shcore.StringValue(e.data), nil
	})
	return e
}

// Data returns the expression text.
func (e *Expression) Data() string { return e.data }

// expr is the factory behind mysqlx.expr(str).
func expr(args []shcore.Value) (shcore.Value, error) {
	if len(args) != 1 {
		return shcore.UndefinedValue(), errs.Arity("mysqlx.expr", 1, 1, len(args))
	}
	text, err := args[0].AsString()
	if err != nil {
		return shcore.UndefinedValue(), errs.Argument("mysqlx.expr", 1, "string")
	}
	return shcore.ObjectValue(NewExpression(text)), nil
}

// AsExpression unwraps an Object value holding an Expression bridge.
func AsExpression(v shcore.Value) (*Expression, bool) {
	obj, err := v.AsObject()
	if err != nil {
		return nil, false
	}
	e, ok := obj.(*Expression)
	return e, ok
}
