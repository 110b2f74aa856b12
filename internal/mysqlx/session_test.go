package mysqlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SandeepSethia/mysql-shell/internal/db"
	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/uri"
)

func testSession(t *testing.T, fake *db.Fake) *Session {
	t.Helper()
	parsed, err := uri.Parse("root:secret@localhost")
	require.NoError(t, err)
	return NewSession(ClassXSession, fake, parsed)
}

// alphaFake mimics the shell_tests.alpha fixture table.
func alphaFake() *db.Fake {
	fake := db.NewFake()
	cols := []db.Column{
		{Catalog: "def", Schema: "shell_tests", Table: "alpha", OrgTable: "alpha", Name: "idalpha", OrgName: "idalpha", Type: "INT", Length: 11},
		{Catalog: "def", Schema: "shell_tests", Table: "alpha", OrgTable: "alpha", Name: "alphacol", OrgName: "alphacol", Type: "VARCHAR", Length: 45},
	}
	fake.HandleRows("SELECT * FROM SHELL_TESTS.ALPHA", cols, [][]any{
		{int64(1), "first"},
		{int64(2), "second"},
		{int64(3), "third"},
	})
	return fake
}

func TestSession_Repr(t *testing.T) {
	s := testSession(t, db.NewFake())
	defer s.Close()

	assert.Equal(t, "<XSession:root@localhost:33060>", s.Repr())
	v, err := s.GetMember("uri")
	require.NoError(t, err)
	assert.Equal(t, `"root@localhost:33060"`, v.Descr(), "password never appears in the display form")
}

func TestSession_SqlOne(t *testing.T) {
	fake := db.NewFake()
	fake.HandleRows("SELECT 1 AS SAMPLE", []db.Column{{Catalog: "def", Name: "sample", OrgName: "sample", Type: "BIGINT"}},
		[][]any{{int64(1)}})
	s := testSession(t, fake)
	defer s.Close()

	v, err := s.Call("sql_one", []Value{Str("select 1 as sample")})
	require.NoError(t, err)
	assert.Equal(t, `{"sample": 1}`, v.Descr())
}

func TestSession_SqlOne_MoreThanOneRow(t *testing.T) {
	s := testSession(t, alphaFake())
	defer s.Close()

	_, err := s.Call("sql_one", []Value{Str("select * from shell_tests.alpha")})
	require.Error(t, err)
	assert.True(t, errs.IsResultShape(err))
}

func TestSession_AffectedRows(t *testing.T) {
	fake := db.NewFake()
	fake.HandleOK("CREATE SCHEMA", 1, 0)
	fake.HandleOK("DROP SCHEMA IF EXISTS", 0, 1)
	s := testSession(t, fake)
	defer s.Close()

	res, err := s.Call("sql", []Value{Str("create schema shell_tests")})
	require.NoError(t, err)
	rs, _ := res.AsObject()
	affected, err := rs.GetMember("affected_rows")
	require.NoError(t, err)
	assert.Equal(t, "1", affected.Descr())
	warnings, _ := rs.GetMember("warning_count")
	assert.Equal(t, "0", warnings.Descr())

	// Dropping a schema twice both report zero affected rows.
	for i := 0; i < 2; i++ {
		res, err = s.Call("sql", []Value{Str("drop schema if exists shell_tests")})
		require.NoError(t, err)
		rs, _ = res.AsObject()
		affected, _ = rs.GetMember("affected_rows")
		assert.Equal(t, "0", affected.Descr())
	}
}

func TestSession_SingleResultHasNoSecond(t *testing.T) {
	fake := db.NewFake()
	fake.HandleRows("SHOW DATABASES", []db.Column{{Catalog: "def", Name: "Database", OrgName: "Database", Type: "VARCHAR"}},
		[][]any{{"information_schema"}, {"mysql"}})
	s := testSession(t, fake)
	defer s.Close()

	res, err := s.Call("sql", []Value{Str("show databases")})
	require.NoError(t, err)

	// Via the session helper.
	more, err := s.Call("next_result", []Value{res})
	require.NoError(t, err)
	assert.Equal(t, "false", more.Descr())

	// Via the member-method alias.
	rs, _ := res.AsObject()
	more, err = rs.Call("nextResult", nil)
	require.NoError(t, err)
	assert.Equal(t, "false", more.Descr())
}

func TestResultset_FetchOne(t *testing.T) {
	s := testSession(t, alphaFake())
	defer s.Close()

	res, err := s.Call("sql", []Value{Str("select * from shell_tests.alpha")})
	require.NoError(t, err)
	rs, _ := res.AsObject()

	fetchCount := func() string {
		v, err := rs.GetMember("fetched_row_count")
		require.NoError(t, err)
		return v.Descr()
	}

	// No argument: a document is returned.
	row, err := rs.Call("next", nil)
	require.NoError(t, err)
	assert.Equal(t, `{"alphacol": "first", "idalpha": 1}`, row.Descr())
	assert.Equal(t, "1", fetchCount())

	// Explicit raw=false keeps the document form.
	row, err = rs.Call("next", []Value{BoolV(false)})
	require.NoError(t, err)
	assert.Equal(t, `{"alphacol": "second", "idalpha": 2}`, row.Descr())
	assert.Equal(t, "2", fetchCount())

	// raw=true returns the values in column order.
	row, err = rs.Call("next", []Value{BoolV(true)})
	require.NoError(t, err)
	assert.Equal(t, `[3,"third"]`, row.Descr())
	assert.Equal(t, "3", fetchCount())

	// Past the end: null, and the count stays put.
	row, err = rs.Call("next", []Value{BoolV(true)})
	require.NoError(t, err)
	assert.Equal(t, "null", row.Descr())
	assert.Equal(t, "3", fetchCount())
}

func TestResultset_FetchAll(t *testing.T) {
	s := testSession(t, alphaFake())
	defer s.Close()

	expectedDocs := `[{"alphacol": "first", "idalpha": 1},{"alphacol": "second", "idalpha": 2},{"alphacol": "third", "idalpha": 3}]`

	res, err := s.Call("sql", []Value{Str("select * from shell_tests.alpha")})
	require.NoError(t, err)
	rs, _ := res.AsObject()

	rows, err := rs.Call("all", nil)
	require.NoError(t, err)
	assert.Equal(t, expectedDocs, rows.Descr())
	count, _ := rs.GetMember("fetched_row_count")
	assert.Equal(t, "3", count.Descr())

	res, err = s.Call("sql", []Value{Str("select * from shell_tests.alpha")})
	require.NoError(t, err)
	rs, _ = res.AsObject()
	rows, err = rs.Call("all", []Value{BoolV(true)})
	require.NoError(t, err)
	assert.Equal(t, `[[1,"first"],[2,"second"],[3,"third"]]`, rows.Descr())
}

func TestResultset_ColumnMetadata(t *testing.T) {
	s := testSession(t, alphaFake())
	defer s.Close()

	res, err := s.Call("sql", []Value{Str("select * from shell_tests.alpha")})
	require.NoError(t, err)
	rs, _ := res.AsObject()

	data, err := rs.Call("getColumnMetadata", nil)
	require.NoError(t, err)
	arr, err := data.AsArray()
	require.NoError(t, err)
	require.Len(t, arr.Items, 2)

	wantKeys := []string{"catalog", "db", "table", "org_table", "name", "org_name", "charset", "length", "type", "flags", "decimal"}
	for _, item := range arr.Items {
		m, err := item.AsMap()
		require.NoError(t, err)
		assert.Equal(t, len(wantKeys), m.Len(), "exactly the eleven metadata keys")
		for _, key := range wantKeys {
			assert.True(t, m.Has(key), "missing key %s", key)
		}
	}

	first, _ := arr.Items[0].AsMap()
	catalog, _ := first.Get("catalog")
	assert.Equal(t, `"def"`, catalog.Descr())
	name, _ := first.Get("name")
	assert.Equal(t, `"idalpha"`, name.Descr())
}

func TestSession_IdempotentClose(t *testing.T) {
	s := testSession(t, db.NewFake())

	_, err := s.Call("close", nil)
	require.NoError(t, err)
	_, err = s.Call("close", nil)
	require.NoError(t, err, "close is idempotent")

	_, err = s.Call("sql", []Value{Str("select 1")})
	require.Error(t, err)
	assert.True(t, errs.IsSessionClosed(err))

	_, err = s.Call("getSchema", []Value{Str("x")})
	assert.True(t, errs.IsSessionClosed(err))
}

func TestSession_StrictResultLeak(t *testing.T) {
	s := testSession(t, alphaFake())
	defer s.Close()
	s.SetStrict(true)

	res, err := s.Call("sql", []Value{Str("select * from shell_tests.alpha")})
	require.NoError(t, err)
	rs, _ := res.AsObject()
	_, err = rs.Call("next", nil)
	require.NoError(t, err)

	// The previous result still has unread rows.
	_, err = s.Call("sql", []Value{Str("select * from shell_tests.alpha")})
	require.Error(t, err)
	assert.True(t, errs.IsResultLeak(err))
}

func TestSession_SqlParams(t *testing.T) {
	fake := db.NewFake()
	fake.HandleRows("SELECT", []db.Column{{Catalog: "def", Name: "a", OrgName: "a", Type: "BIGINT"}}, [][]any{{int64(42)}})
	s := testSession(t, fake)
	defer s.Close()

	// Positional binding via array.
	params := NewArrayOf(IntV(42), Str("x"))
	_, err := s.Call("sql", []Value{Str("select ? as a, ? as b"), params})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(42), "x"}, fake.Args[0])

	// Named binding via map rewrites :name to ? in appearance order.
	named := NewMapOf("first", IntV(1), "second", IntV(2))
	_, err = s.Call("sql", []Value{Str("select :second as a, :first as b"), named})
	require.NoError(t, err)
	assert.Equal(t, "select ? as a, ? as b", fake.Statements[1])
	assert.Equal(t, []any{int64(2), int64(1)}, fake.Args[1])

	// A missing name fails before anything executes.
	_, err = s.Call("sql", []Value{Str("select :missing"), NewMapOf()})
	require.Error(t, err)
	assert.True(t, errs.IsUnboundParameter(err))

	// Wrong params variant.
	_, err = s.Call("sql", []Value{Str("select 1"), IntV(5)})
	require.Error(t, err)
	assert.True(t, errs.IsArgument(err))
}
