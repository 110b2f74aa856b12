package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
)

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		stmt string
		want bool
	}{
		{"SELECT 1", true},
		{"  select * from t", true},
		{"SHOW DATABASES", true},
		{"describe t", true},
		{"EXPLAIN SELECT 1", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"/* hint */ SELECT 1", true},
		{"INSERT INTO t VALUES (1)", false},
		{"UPDATE t SET a = 1", false},
		{"DELETE FROM t", false},
		{"CREATE SCHEMA s", false},
		{"DROP SCHEMA IF EXISTS s", false},
		{"USE mysql", false},
	}
	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			assert.Equal(t, tt.want, returnsRows(tt.stmt))
		})
	}
}

func TestFake_Dispatch(t *testing.T) {
	fake := NewFake()
	fake.HandleOK("CREATE", 1, 0)
	fake.HandleRows("SELECT", []Column{{Name: "a"}}, [][]any{{int64(1)}, {int64(2)}})

	res, err := fake.Execute(context.Background(), "create schema s")
	require.NoError(t, err)
	assert.False(t, res.HasData())
	assert.Equal(t, int64(1), res.AffectedRows())

	res, err = fake.Execute(context.Background(), "select a from t")
	require.NoError(t, err)
	assert.True(t, res.HasData())

	row, ok, err := res.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []any{int64(1)}, row)

	_, ok, _ = res.Next()
	assert.True(t, ok)
	_, ok, _ = res.Next()
	assert.False(t, ok, "past the end")

	// Unmatched statements behave like a server syntax error.
	_, err = fake.Execute(context.Background(), "garbage")
	require.Error(t, err)
	assert.True(t, errs.IsSQL(err))

	assert.Equal(t, []string{"create schema s", "select a from t", "garbage"}, fake.Statements)
}

func TestFake_MultiResult(t *testing.T) {
	fake := NewFake()
	fake.Handle("CALL", func(string, []any) (*FakeResult, error) {
		return &FakeResult{
			Data: true,
			Cols: []Column{{Name: "whatever"}},
			Rows: [][]any{{int64(1)}},
			Next: &FakeResult{
				Data: true,
				Cols: []Column{{Name: "Database"}},
				Rows: [][]any{{"mysql"}},
				Next: &FakeResult{},
			},
		}, nil
	})

	res, err := fake.Execute(context.Background(), "call sp()")
	require.NoError(t, err)

	more, err := res.NextResult()
	require.NoError(t, err)
	assert.True(t, more)
	assert.Equal(t, "Database", res.Columns()[0].Name)

	more, _ = res.NextResult()
	assert.True(t, more, "final OK block")
	more, _ = res.NextResult()
	assert.False(t, more)
}

func TestFake_Closed(t *testing.T) {
	fake := NewFake()
	require.NoError(t, fake.Close())

	_, err := fake.Execute(context.Background(), "select 1")
	require.Error(t, err)
	assert.True(t, errs.IsSessionClosed(err))
	assert.Error(t, fake.Ping(context.Background()))
}
