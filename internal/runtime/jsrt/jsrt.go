// Package jsrt adapts the goja JavaScript engine to the shell's runtime
// contract. Object bridges surface as dynamic objects whose property reads
// and method calls go straight through the bridge protocol, so the same
// session object behaves identically here and in the Python adapter.
package jsrt

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// JS is the JavaScript runtime adapter.
type JS struct {
	vm *goja.Runtime
}

// New creates a fresh JavaScript runtime.
func New() *JS {
	return &JS{vm: goja.New()}
}

// Evaluate implements runtime.Runtime.
func (rt *JS) Evaluate(text string) (shcore.Value, error) {
	v, err := rt.vm.RunString(text)
	if err != nil {
		return shcore.UndefinedValue(), unwrapException(err)
	}
	return rt.FromNative(v)
}

// InstallModule implements runtime.Runtime.
func (rt *JS) InstallModule(name string, module shcore.ObjectBridge) error {
	return rt.vm.Set(name, rt.wrapBridge(module))
}

// unwrapException recovers the original *errs.Error from a goja exception
// so the kind tag survives the script boundary.
func unwrapException(err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		thrown := ex.Value()
		// NewGoError keeps the Go error on the thrown object's "value"
		// property; the object itself exports as a plain map.
		if obj, ok := thrown.(*goja.Object); ok {
			if inner := obj.Get("value"); inner != nil {
				thrown = inner
			}
		}
		if exported, ok := thrown.Export().(error); ok {
			var e *errs.Error
			if errors.As(exported, &e) {
				return e
			}
		}
	}
	return errs.Wrap(errs.KindInternal, "script error", err)
}

// throw surfaces a bridge error as a JavaScript exception.
func (rt *JS) throw(err error) {
	panic(rt.vm.NewGoError(err))
}

// --- bridge wrapping ---

// bridgeObject exposes an ObjectBridge as a goja dynamic object.
type bridgeObject struct {
	rt     *JS
	bridge shcore.ObjectBridge
}

// Bridge returns the wrapped bridge, used when lifting values back.
func (b *bridgeObject) Bridge() shcore.ObjectBridge { return b.bridge }

func (rt *JS) wrapBridge(bridge shcore.ObjectBridge) *goja.Object {
	return rt.vm.NewDynamicObject(&bridgeObject{rt: rt, bridge: bridge})
}

func (b *bridgeObject) Get(key string) goja.Value {
	if key == "toString" {
		return b.rt.vm.ToValue(func(goja.FunctionCall) goja.Value {
			return b.rt.vm.ToValue(b.bridge.Repr())
		})
	}
	v, err := b.bridge.GetMember(key)
	if err != nil {
		b.rt.throw(err)
	}
	return b.rt.ToNative(v).(goja.Value)
}

func (b *bridgeObject) Set(string, goja.Value) bool { return false }
func (b *bridgeObject) Delete(string) bool          { return false }

func (b *bridgeObject) Has(key string) bool {
	for _, name := range b.bridge.Members() {
		if name == key {
			return true
		}
	}
	return false
}

func (b *bridgeObject) Keys() []string {
	return b.bridge.Members()
}

// --- marshalling ---

// ToNative implements runtime.Runtime. The returned value is always a
// goja.Value.
func (rt *JS) ToNative(v shcore.Value) any {
	switch v.Type() {
	case shcore.Undefined:
		return goja.Undefined()
	case shcore.Null:
		return goja.Null()
	case shcore.Bool:
		b, _ := v.AsBool()
		return rt.vm.ToValue(b)
	case shcore.Integer:
		i, _ := v.AsInt()
		return rt.vm.ToValue(i)
	case shcore.UInteger:
		u, _ := v.AsUint()
		return rt.vm.ToValue(u)
	case shcore.Float:
		f, _ := v.AsDouble()
		return rt.vm.ToValue(f)
	case shcore.String:
		s, _ := v.AsString()
		return rt.vm.ToValue(s)
	case shcore.Object:
		obj, _ := v.AsObject()
		return rt.wrapBridge(obj)
	case shcore.Array:
		arr, _ := v.AsArray()
		items := make([]any, len(arr.Items))
		for i, item := range arr.Items {
			items[i] = rt.ToNative(item)
		}
		return rt.vm.NewArray(items...)
	case shcore.Map:
		m, _ := v.AsMap()
		obj := rt.vm.NewObject()
		for _, key := range m.Keys() {
			item, _ := m.Get(key)
			_ = obj.Set(key, rt.ToNative(item))
		}
		return obj
	case shcore.MapRef:
		return rt.ToNative(v.Deref())
	case shcore.Function:
		fn, _ := v.AsFunc()
		return rt.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			args := make([]shcore.Value, len(call.Arguments))
			for i, a := range call.Arguments {
				lifted, err := rt.FromNative(a)
				if err != nil {
					rt.throw(err)
				}
				args[i] = lifted
			}
			out, err := fn.Call(args)
			if err != nil {
				rt.throw(err)
			}
			return rt.ToNative(out).(goja.Value)
		})
	}
	return goja.Undefined()
}

// FromNative implements runtime.Runtime for goja values.
func (rt *JS) FromNative(native any) (shcore.Value, error) {
	v, ok := native.(goja.Value)
	if !ok {
		return shcore.UndefinedValue(), errs.Newf(errs.KindInternal, "", "unexpected native value %T", native)
	}
	if v == nil || goja.IsUndefined(v) {
		return shcore.UndefinedValue(), nil
	}
	if goja.IsNull(v) {
		return shcore.NullValue(), nil
	}

	switch exported := v.Export().(type) {
	case bool:
		return shcore.BoolValue(exported), nil
	case int64:
		return shcore.IntValue(exported), nil
	case uint64:
		return shcore.UintValue(exported), nil
	case float64:
		return shcore.FloatValue(exported), nil
	case string:
		return shcore.StringValue(exported), nil
	case *bridgeObject:
		return shcore.ObjectValue(exported.Bridge()), nil
	}

	if obj, ok := v.(*goja.Object); ok {
		if fn, isFn := goja.AssertFunction(v); isFn {
			return rt.liftFunction(fn), nil
		}
		if obj.ClassName() == "Array" {
			return rt.liftArray(obj)
		}
		return rt.liftMap(obj)
	}
	return shcore.UndefinedValue(), errs.Newf(errs.KindInternal, "", "cannot convert script value %s", v.String())
}

func (rt *JS) liftArray(obj *goja.Object) (shcore.Value, error) {
	length := int(obj.Get("length").ToInteger())
	arr := &shcore.ArrayValue{Items: make([]shcore.Value, 0, length)}
	for i := 0; i < length; i++ {
		item, err := rt.FromNative(obj.Get(fmt.Sprintf("%d", i)))
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		arr.Items = append(arr.Items, item)
	}
	return shcore.NewArray(arr), nil
}

func (rt *JS) liftMap(obj *goja.Object) (shcore.Value, error) {
	m := shcore.NewMapValue()
	for _, key := range obj.Keys() {
		item, err := rt.FromNative(obj.Get(key))
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		m.Set(key, item)
	}
	return shcore.NewMap(m), nil
}

func (rt *JS) liftFunction(fn goja.Callable) shcore.Value {
	return shcore.FuncValue(&shcore.Func{
		Name: "function",
		Call: func(args []shcore.Value) (shcore.Value, error) {
			nativeArgs := make([]goja.Value, len(args))
			for i, a := range args {
				nativeArgs[i] = rt.ToNative(a).(goja.Value)
			}
			out, err := fn(goja.Undefined(), nativeArgs...)
			if err != nil {
				return shcore.UndefinedValue(), unwrapException(err)
			}
			return rt.FromNative(out)
		},
	})
}
