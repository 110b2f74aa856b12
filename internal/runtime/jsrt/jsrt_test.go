package jsrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SandeepSethia/mysql-shell/internal/db"
	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/mysql"
	"github.com/SandeepSethia/mysql-shell/internal/mysqlx"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
	"github.com/SandeepSethia/mysql-shell/internal/uri"
)

func fakeOpener(fake *db.Fake) mysqlx.Opener {
	return func(context.Context, *uri.Connection, string, bool) (db.Conn, error) {
		return fake, nil
	}
}

func testRuntime(t *testing.T, fake *db.Fake) *JS {
	t.Helper()
	rt := New()
	opener := fakeOpener(fake)
	require.NoError(t, rt.InstallModule("mysql", mysql.NewModule(opener)))
	require.NoError(t, rt.InstallModule("mysqlx", mysqlx.NewModule(opener)))
	return rt
}

func TestEvaluate_Scalars(t *testing.T) {
	rt := New()

	tests := []struct {
		expr string
		want string
	}{
		{"1+1", "2"},
		{"1.5", "1.5"},
		{"'a'+'b'", `"ab"`},
		{"true && false", "false"},
		{"null", "null"},
		{"undefined", "undefined"},
		{"[1,'a',true,null]", `[1,"a",true,null]`},
		{"({b: 'x', a: 1})", `{"a": 1, "b": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := rt.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Descr())
		})
	}
}

func TestModuleSurface(t *testing.T) {
	rt := testRuntime(t, db.NewFake())

	v, err := rt.Evaluate("Object.keys(mysql)")
	require.NoError(t, err)
	arr, err := v.AsArray()
	require.NoError(t, err)

	names := make([]string, 0, len(arr.Items))
	for _, item := range arr.Items {
		s, err := item.AsString()
		require.NoError(t, err)
		names = append(names, s)
	}
	assert.Contains(t, names, "getClassicSession")
	assert.Contains(t, names, "help")
}

func TestExpressionPrintedForm(t *testing.T) {
	rt := testRuntime(t, db.NewFake())

	v, err := rt.Evaluate("mysqlx.expr('5+6')")
	require.NoError(t, err)
	obj, err := v.AsObject()
	require.NoError(t, err)
	assert.Equal(t, "<Expression>", obj.Repr())

	// toString follows the canonical form too.
	v, err = rt.Evaluate("mysqlx.expr('5+6').toString()")
	require.NoError(t, err)
	assert.Equal(t, `"<Expression>"`, v.Descr())
}

func TestErrorKindsSurviveTheBoundary(t *testing.T) {
	rt := testRuntime(t, db.NewFake())

	_, err := rt.Evaluate("mysqlx.expr(5)")
	require.Error(t, err)
	assert.True(t, errs.IsArgument(err))
	assert.Contains(t, err.Error(), "mysqlx.expr: Argument #1 is expected to be a string")

	_, err = rt.Evaluate("mysqlx.expr()")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid number of arguments in mysqlx.expr, expected 1 but got 0")

	_, err = rt.Evaluate("mysql.nope")
	require.Error(t, err)
	assert.True(t, errs.IsUnknownMember(err))
}

func TestSessionThroughScript(t *testing.T) {
	fake := db.NewFake()
	fake.HandleRows("SELECT 1 AS SAMPLE",
		[]db.Column{{Catalog: "def", Name: "sample", OrgName: "sample", Type: "BIGINT"}},
		[][]any{{int64(1)}})
	rt := testRuntime(t, fake)

	_, err := rt.Evaluate("var session = mysqlx.getSession('root@localhost')")
	require.NoError(t, err)

	v, err := rt.Evaluate("session.toString()")
	require.NoError(t, err)
	assert.Equal(t, `"<XSession:root@localhost:33060>"`, v.Descr())

	v, err = rt.Evaluate("session.sql_one('select 1 as sample')")
	require.NoError(t, err)
	assert.Equal(t, `{"sample": 1}`, v.Descr())

	_, err = rt.Evaluate("session.close()")
	require.NoError(t, err)
	_, err = rt.Evaluate("session.sql('select 1')")
	require.Error(t, err)
	assert.True(t, errs.IsSessionClosed(err))
}

func TestMarshalRoundTrip(t *testing.T) {
	rt := New()

	m := shcore.NewMapValue()
	m.Set("n", shcore.IntValue(7))
	m.Set("s", shcore.StringValue("x"))
	original := shcore.NewMap(m)

	native := rt.ToNative(original)
	back, err := rt.FromNative(native)
	require.NoError(t, err)
	assert.Equal(t, original.Descr(), back.Descr())
}
