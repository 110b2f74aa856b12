// Package pyrt adapts the starlark-go interpreter (a Python dialect) to
// the shell's runtime contract. It mirrors the JavaScript adapter: object
// bridges surface as attribute-bearing values, and every cross-boundary
// transfer goes through the tagged value mapping.
package pyrt

import (
	"errors"
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// Py is the Python-dialect runtime adapter.
type Py struct {
	globals starlark.StringDict
	opts    *syntax.FileOptions
}

// New creates a fresh interpreter environment.
func New() *Py {
	return &Py{
		globals: make(starlark.StringDict),
		opts: &syntax.FileOptions{
			Set:             true,
			While:           true,
			TopLevelControl: true,
			GlobalReassign:  true,
			Recursion:       true,
		},
	}
}

// Evaluate implements runtime.Runtime. Expression chunks return their
// value; statement chunks run for effect and return Undefined.
func (rt *Py) Evaluate(text string) (shcore.Value, error) {
	thread := &starlark.Thread{Name: "mysqlsh"}

	if _, err := rt.opts.ParseExpr("<stdin>", text, 0); err == nil {
		v, err := starlark.EvalOptions(rt.opts, thread, "<stdin>", text, rt.globals)
		if err != nil {
			return shcore.UndefinedValue(), unwrapEvalError(err)
		}
		return rt.FromNative(v)
	}

	globals, err := starlark.ExecFileOptions(rt.opts, thread, "<stdin>", text, rt.globals)
	if err != nil {
		return shcore.UndefinedValue(), unwrapEvalError(err)
	}
	for name, v := range globals {
		rt.globals[name] = v
	}
	return shcore.UndefinedValue(), nil
}

// InstallModule implements runtime.Runtime.
func (rt *Py) InstallModule(name string, module shcore.ObjectBridge) error {
	rt.globals[name] = &bridgeValue{rt: rt, bridge: module}
	return nil
}

// unwrapEvalError recovers the original *errs.Error from a starlark eval
// error so the kind tag survives the script boundary.
func unwrapEvalError(err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return e
	}
	return errs.Wrap(errs.KindInternal, "script error", err)
}

// --- bridge wrapping ---

// bridgeValue exposes an ObjectBridge as a starlark value with attributes.
type bridgeValue struct {
	rt     *Py
	bridge shcore.ObjectBridge
}

var (
	_ starlark.Value    = (*bridgeValue)(nil)
	_ starlark.HasAttrs = (*bridgeValue)(nil)
)

func (b *bridgeValue) String() string        { return b.bridge.Repr() }
func (b *bridgeValue) Type() string          { return b.bridge.ClassName() }
func (b *bridgeValue) Freeze()               {}
func (b *bridgeValue) Truth() starlark.Bool  { return starlark.True }
func (b *bridgeValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: %s", b.Type()) }

func (b *bridgeValue) AttrNames() []string { return b.bridge.Members() }

func (b *bridgeValue) Attr(name string) (starlark.Value, error) {
	v, err := b.bridge.GetMember(name)
	if err != nil {
		return nil, err
	}
	return b.rt.toStarlark(v), nil
}

// --- marshalling ---

// ToNative implements runtime.Runtime. The returned value is always a
// starlark.Value.
func (rt *Py) ToNative(v shcore.Value) any { return rt.toStarlark(v) }

func (rt *Py) toStarlark(v shcore.Value) starlark.Value {
	switch v.Type() {
	case shcore.Undefined, shcore.Null:
		return starlark.None
	case shcore.Bool:
		b, _ := v.AsBool()
		return starlark.Bool(b)
	case shcore.Integer:
		i, _ := v.AsInt()
		return starlark.MakeInt64(i)
	case shcore.UInteger:
		u, _ := v.AsUint()
		return starlark.MakeUint64(u)
	case shcore.Float:
		f, _ := v.AsDouble()
		return starlark.Float(f)
	case shcore.String:
		s, _ := v.AsString()
		return starlark.String(s)
	case shcore.Object:
		obj, _ := v.AsObject()
		return &bridgeValue{rt: rt, bridge: obj}
	case shcore.Array:
		arr, _ := v.AsArray()
		items := make([]starlark.Value, len(arr.Items))
		for i, item := range arr.Items {
			items[i] = rt.toStarlark(item)
		}
		return starlark.NewList(items)
	case shcore.Map:
		m, _ := v.AsMap()
		dict := starlark.NewDict(m.Len())
		for _, key := range m.Keys() {
			item, _ := m.Get(key)
			_ = dict.SetKey(starlark.String(key), rt.toStarlark(item))
		}
		return dict
	case shcore.MapRef:
		return rt.toStarlark(v.Deref())
	case shcore.Function:
		fn, _ := v.AsFunc()
		return starlark.NewBuiltin(fn.Name, func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if len(kwargs) > 0 {
				return nil, errs.Newf(errs.KindArgument, fn.Name, "keyword arguments are not supported")
			}
			lifted := make([]shcore.Value, len(args))
			for i, a := range args {
				lv, err := rt.FromNative(a)
				if err != nil {
					return nil, err
				}
				lifted[i] = lv
			}
			out, err := fn.Call(lifted)
			if err != nil {
				return nil, err
			}
			return rt.toStarlark(out), nil
		})
	}
	return starlark.None
}

// FromNative implements runtime.Runtime for starlark values.
func (rt *Py) FromNative(native any) (shcore.Value, error) {
	v, ok := native.(starlark.Value)
	if !ok {
		return shcore.UndefinedValue(), errs.Newf(errs.KindInternal, "", "unexpected native value %T", native)
	}

	switch t := v.(type) {
	case starlark.NoneType:
		return shcore.NullValue(), nil
	case starlark.Bool:
		return shcore.BoolValue(bool(t)), nil
	case starlark.Int:
		if i, exact := t.Int64(); exact {
			return shcore.IntValue(i), nil
		}
		if u, exact := t.Uint64(); exact {
			return shcore.UintValue(u), nil
		}
		return shcore.UndefinedValue(), errs.New(errs.KindTypeMismatch, "", "integer value out of range")
	case starlark.Float:
		return shcore.FloatValue(float64(t)), nil
	case starlark.String:
		return shcore.StringValue(string(t)), nil
	case *bridgeValue:
		return shcore.ObjectValue(t.bridge), nil
	case *starlark.List:
		arr := &shcore.ArrayValue{Items: make([]shcore.Value, 0, t.Len())}
		for i := 0; i < t.Len(); i++ {
			item, err := rt.FromNative(t.Index(i))
			if err != nil {
				return shcore.UndefinedValue(), err
			}
			arr.Items = append(arr.Items, item)
		}
		return shcore.NewArray(arr), nil
	case starlark.Tuple:
		arr := &shcore.ArrayValue{Items: make([]shcore.Value, 0, len(t))}
		for _, item := range t {
			lifted, err := rt.FromNative(item)
			if err != nil {
				return shcore.UndefinedValue(), err
			}
			arr.Items = append(arr.Items, lifted)
		}
		return shcore.NewArray(arr), nil
	case *starlark.Dict:
		m := shcore.NewMapValue()
		for _, item := range t.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return shcore.UndefinedValue(), errs.New(errs.KindTypeMismatch, "", "only string keys can cross the script boundary")
			}
			lifted, err := rt.FromNative(item[1])
			if err != nil {
				return shcore.UndefinedValue(), err
			}
			m.Set(string(key), lifted)
		}
		return shcore.NewMap(m), nil
	case starlark.Callable:
		return rt.liftCallable(t), nil
	}
	return shcore.UndefinedValue(), errs.Newf(errs.KindInternal, "", "cannot convert script value of type %s", v.Type())
}

func (rt *Py) liftCallable(fn starlark.Callable) shcore.Value {
	return shcore.FuncValue(&shcore.Func{
		Name: fn.Name(),
		Call: func(args []shcore.Value) (shcore.Value, error) {
			thread := &starlark.Thread{Name: "mysqlsh"}
			nativeArgs := make(starlark.Tuple, len(args))
			for i, a := range args {
				nativeArgs[i] = rt.toStarlark(a)
			}
			out, err := starlark.Call(thread, fn, nativeArgs, nil)
			if err != nil {
				return shcore.UndefinedValue(), unwrapEvalError(err)
			}
			return rt.FromNative(out)
		},
	})
}
