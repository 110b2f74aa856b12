package mysqlx

import (
	"time"

	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// valueFromDriver lifts a driver-level cell into a tagged value. Numeric
// types keep their signedness; []byte cells were already converted to
// strings by the backend.
func valueFromDriver(v any) shcore.Value {
	switch t := v.(type) {
	case nil:
		return shcore.NullValue()
	case bool:
		return shcore.BoolValue(t)
	case int:
		return shcore.IntValue(int64(t))
	case int32:
		return shcore.IntValue(int64(t))
	case int64:
		return shcore.IntValue(t)
	case uint:
		return shcore.UintValue(uint64(t))
	case uint32:
		return shcore.UintValue(uint64(t))
	case uint64:
		return shcore.UintValue(t)
	case float32:
		return shcore.FloatValue(float64(t))
	case float64:
		return shcore.FloatValue(t)
	case string:
		return shcore.StringValue(t)
	case []byte:
		return shcore.StringValue(string(t))
	case time.Time:
		return shcore.StringValue(t.Format("2006-01-02 15:04:05"))
	}
	return shcore.UndefinedValue()
}

// driverFromValue lowers a tagged value to a driver argument. Only data
// variants are accepted; the caller validates beforehand.
func driverFromValue(v shcore.Value) any {
	switch v.Type() {
	case shcore.Null:
		return nil
	case shcore.Bool:
		b, _ := v.AsBool()
		return b
	case shcore.Integer:
		i, _ := v.AsInt()
		return i
	case shcore.UInteger:
		u, _ := v.AsUint()
		return u
	case shcore.Float:
		f, _ := v.AsDouble()
		return f
	case shcore.String:
		s, _ := v.AsString()
		return s
	}
	return nil
}
