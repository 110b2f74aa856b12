package pyrt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SandeepSethia/mysql-shell/internal/db"
	"github.com/SandeepSethia/mysql-shell/internal/dba"
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

func testRuntime(t *testing.T, fake *db.Fake) *Py {
	t.Helper()
	rt := New()
	opener := fakeOpener(fake)
	require.NoError(t, rt.InstallModule("mysql", mysql.NewModule(opener)))
	require.NoError(t, rt.InstallModule("mysqlx", mysqlx.NewModule(opener)))
	require.NoError(t, rt.InstallModule("dba", dba.New(nil)))
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
		{"True and False", "false"},
		{"None", "null"},
		{"[1,'a',True,None]", `[1,"a",true,null]`},
		{"{'b': 'x', 'a': 1}", `{"a": 1, "b": "x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := rt.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Descr())
		})
	}
}

func TestEvaluate_StatementsKeepState(t *testing.T) {
	rt := New()

	_, err := rt.Evaluate("x = 40")
	require.NoError(t, err)
	_, err = rt.Evaluate("x = x + 2")
	require.NoError(t, err)

	v, err := rt.Evaluate("x")
	require.NoError(t, err)
	assert.Equal(t, "42", v.Descr())
}

func TestModuleSurface(t *testing.T) {
	rt := testRuntime(t, db.NewFake())

	v, err := rt.Evaluate("dir(mysql)")
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

func TestDbaSurface(t *testing.T) {
	rt := testRuntime(t, db.NewFake())

	v, err := rt.Evaluate("len(dir(dba))")
	require.NoError(t, err)
	assert.Equal(t, "14", v.Descr())

	for _, name := range []string{"createCluster", "verbose", "rebootClusterFromCompleteOutage"} {
		v, err := rt.Evaluate("'" + name + "' in dir(dba)")
		require.NoError(t, err)
		assert.Equal(t, "true", v.Descr(), "member %s", name)
	}
}

func TestExpressionPrintedForm(t *testing.T) {
	rt := testRuntime(t, db.NewFake())

	v, err := rt.Evaluate("str(mysqlx.expr('5+6'))")
	require.NoError(t, err)
	assert.Equal(t, `"<Expression>"`, v.Descr())
}

func TestErrorKindsSurviveTheBoundary(t *testing.T) {
	rt := testRuntime(t, db.NewFake())

	_, err := rt.Evaluate("mysqlx.expr(5)")
	require.Error(t, err)
	assert.True(t, errs.IsArgument(err))
	assert.Contains(t, err.Error(), "mysqlx.expr: Argument #1 is expected to be a string")

	_, err = rt.Evaluate("dba.createCluster('')")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Dba.createCluster: The Cluster name cannot be empty")

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

	_, err := rt.Evaluate("session = mysql.getClassicSession('root@localhost')")
	require.NoError(t, err)

	v, err := rt.Evaluate("str(session)")
	require.NoError(t, err)
	assert.Equal(t, `"<ClassicSession:root@localhost:3306>"`, v.Descr())

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

	arr := &shcore.ArrayValue{Items: []shcore.Value{
		shcore.IntValue(1),
		shcore.StringValue("x"),
		shcore.BoolValue(true),
		shcore.NullValue(),
	}}
	original := shcore.NewArray(arr)

	native := rt.ToNative(original)
	back, err := rt.FromNative(native)
	require.NoError(t, err)
	assert.Equal(t, original.Descr(), back.Descr())
}
