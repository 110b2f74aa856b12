package mysqlx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

func TestMapTableValue_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		input Value
		want  TableValue
	}{
		{"null", NullV(), TableValue{Kind: TNull}},
		{"bool", BoolV(true), TableValue{Kind: TBool, Bool: true}},
		{"string", Str("x"), TableValue{Kind: TString, Str: "x"}},
		{"integer", IntV(-5), TableValue{Kind: TSInt64, SInt: -5}},
		{"uinteger", UintV(5), TableValue{Kind: TUInt64, UInt: 5}},
		{"float", FloatV(2.5), TableValue{Kind: TDouble, Double: 2.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapTableValue(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMapTableValue_Expression(t *testing.T) {
	// Every non-empty expression maps to an expression value carrying
	// its text.
	for _, text := range []string{"5+6", "NOW()", "a > :min"} {
		got, err := MapTableValue(shValue(NewExpression(text)))
		require.NoError(t, err)
		assert.Equal(t, TableValue{Kind: TExpression, Expr: text}, got)
	}

	// An empty expression is rejected.
	_, err := MapTableValue(shValue(NewExpression("")))
	require.Error(t, err)
	assert.True(t, errs.IsArgument(err))
	assert.Contains(t, err.Error(), "Expressions can not be empty.")
}

func TestMapTableValue_Unsupported(t *testing.T) {
	m := shcore.NewMapValue()
	m.Set("k", IntV(1))

	tests := []struct {
		name  string
		input Value
		descr string
	}{
		{"undefined", shcore.UndefinedValue(), "undefined"},
		{"array", NewArrayOf(IntV(1)), "[1]"},
		{"map", shcore.NewMap(m), `{"k": 1}`},
		{"mapref", shcore.NewMapRef(m), `{"k": 1}`},
		{"function", shcore.FuncValue(&shcore.Func{Name: "f"}), "<Function>"},
		{"non-expression object", shValue(newCluster()), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MapTableValue(tt.input)
			require.Error(t, err)
			assert.True(t, errs.IsArgument(err))
			assert.Contains(t, err.Error(), "Unsupported value received: ")
			if tt.descr != "" {
				assert.Contains(t, err.Error(), tt.descr)
			}
		})
	}
}

// newCluster builds an arbitrary non-expression bridge for the rejection
// case.
func newCluster() shcore.ObjectBridge {
	return shcore.NewMemberRegistry("Other", nil)
}
