package mysqlx

import (
	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// TableValueKind discriminates the typed values a table CRUD operation
// accepts.
type TableValueKind int

const (
	TNull TableValueKind = iota
	TBool
	TString
	TSInt64
	TUInt64
	TDouble
	TExpression
)

// TableValue is the narrowed, typed form of a tagged value bound into a
// table operation. Expression values carry raw SQL text and are inlined;
// every other kind travels as a driver argument.
type TableValue struct {
	Kind TableValueKind

	Bool   bool
	Str    string
	SInt   int64
	UInt   uint64
	Double float64
	Expr   string
}

// Arg returns the driver-level argument for non-expression values.
func (t TableValue) Arg() any {
	switch t.Kind {
	case TNull:
		return nil
	case TBool:
		return t.Bool
	case TString:
		return t.Str
	case TSInt64:
		return t.SInt
	case TUInt64:
		return t.UInt
	case TDouble:
		return t.Double
	}
	return nil
}

// MapTableValue narrows a tagged value to a TableValue. Objects are only
// accepted when they are Expression bridges with non-empty text; container
// and function variants are rejected outright.
func MapTableValue(source shcore.Value) (TableValue, error) {
	switch source.Type() {
	case shcore.Null:
		return TableValue{Kind: TNull}, nil
	case shcore.Bool:
		b, _ := source.AsBool()
		return TableValue{Kind: TBool, Bool: b}, nil
	case shcore.String:
		s, _ := source.AsString()
		return TableValue{Kind: TString, Str: s}, nil
	case shcore.Integer:
		i, _ := source.AsInt()
		return TableValue{Kind: TSInt64, SInt: i}, nil
	case shcore.UInteger:
		u, _ := source.AsUint()
		return TableValue{Kind: TUInt64, UInt: u}, nil
	case shcore.Float:
		f, _ := source.AsDouble()
		return TableValue{Kind: TDouble, Double: f}, nil
	case shcore.Object:
		if e, ok := AsExpression(source); ok {
			if e.Data() == "" {
				return TableValue{}, errs.New(errs.KindArgument, "", "Expressions can not be empty.")
			}
			return TableValue{Kind: TExpression, Expr: e.Data()}, nil
		}
	}
	return TableValue{}, errs.Newf(errs.KindArgument, "", "Unsupported value received: %s.", source.Descr())
}
