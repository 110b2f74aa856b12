package mysqlx

import (
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// Shorthand constructors keeping the test bodies readable.

type Value = shcore.Value

func Str(s string) Value { return shcore.StringValue(s) }
func IntV(i int64) Value { return shcore.IntValue(i) }
func UintV(u uint64) Value { return shcore.UintValue(u) }
func FloatV(f float64) Value { return shcore.FloatValue(f) }
func BoolV(b bool) Value { return shcore.BoolValue(b) }
func NullV() Value { return shcore.NullValue() }

func NewArrayOf(items ...Value) Value {
	return shcore.NewArray(&shcore.ArrayValue{Items: items})
}

func shValue(o shcore.ObjectBridge) Value { return shcore.ObjectValue(o) }

// NewMapOf builds a map value from alternating key, value pairs.
func NewMapOf(pairs ...any) Value {
	m := shcore.NewMapValue()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return shcore.NewMap(m)
}
