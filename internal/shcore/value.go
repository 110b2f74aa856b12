// Package shcore implements the tagged value system and the object bridge
// protocol shared by the SQL, JavaScript, and Python surfaces of the shell.
//
// A Value carries exactly one variant. Scalars compare by value; Array, Map,
// Object, and Function are shared by reference, so mutations through one
// holder are visible to all. Shared containers are NOT safe for concurrent
// mutation; callers that hand a container to another goroutine must
// synchronise externally. Reads of a value that is no longer mutated are
// race-free.
package shcore

import (
	"weak"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
)

// Type is the discriminant of a Value.
type Type int

const (
	Undefined Type = iota
	Null
	Bool
	Integer
	UInteger
	Float
	String
	Object
	Array
	Map
	MapRef
	Function
)

func (t Type) String() string {
	switch t {
	case Undefined:
		return "Undefined"
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case Integer:
		return "Integer"
	case UInteger:
		return "UInteger"
	case Float:
		return "Float"
	case String:
		return "String"
	case Object:
		return "Object"
	case Array:
		return "Array"
	case Map:
		return "Map"
	case MapRef:
		return "MapRef"
	case Function:
		return "Function"
	}
	return "Undefined"
}

// ArrayValue is the shared backing store of an Array variant.
type ArrayValue struct {
	Items []Value
}

// MapValue is the shared backing store of a Map variant. Iteration follows
// insertion order; Descr emission sorts keys lexicographically.
type MapValue struct {
	keys  []string
	items map[string]Value
}

// NewMapValue returns an empty shared map.
func NewMapValue() *MapValue {
	return &MapValue{items: make(map[string]Value)}
}

// Set inserts or replaces a key. A new key is appended to the iteration
// order; replacing keeps the original position.
func (m *MapValue) Set(key string, v Value) {
	if _, ok := m.items[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.items[key] = v
}

// Get returns the value for key and whether it was present.
func (m *MapValue) Get(key string) (Value, bool) {
	v, ok := m.items[key]
	return v, ok
}

// Has reports whether key is present.
func (m *MapValue) Has(key string) bool {
	_, ok := m.items[key]
	return ok
}

// Delete removes a key, preserving the order of the remaining keys.
func (m *MapValue) Delete(key string) {
	if _, ok := m.items[key]; !ok {
		return
	}
	delete(m.items, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order. The slice is shared; callers
// must not mutate it.
func (m *MapValue) Keys() []string {
	return m.keys
}

// Len returns the number of entries.
func (m *MapValue) Len() int {
	return len(m.items)
}

// Func is a callable held by a Function variant. Bound methods produced by
// ObjectBridge.GetMember are of this shape.
type Func struct {
	Name string
	Call func(args []Value) (Value, error)
}

// Value is the universal dynamic value passed across the script boundary.
type Value struct {
	typ Type

	b   bool
	i   int64
	u   uint64
	f   float64
	s   string
	obj ObjectBridge
	arr *ArrayValue
	m   *MapValue
	ref weak.Pointer[MapValue]
	fn  *Func
}

// --- Constructors ---

func UndefinedValue() Value           { return Value{typ: Undefined} }
func NullValue() Value                { return Value{typ: Null} }
func BoolValue(b bool) Value          { return Value{typ: Bool, b: b} }
func IntValue(i int64) Value          { return Value{typ: Integer, i: i} }
func UintValue(u uint64) Value        { return Value{typ: UInteger, u: u} }
func FloatValue(f float64) Value      { return Value{typ: Float, f: f} }
func StringValue(s string) Value      { return Value{typ: String, s: s} }
func ObjectValue(o ObjectBridge) Value { return Value{typ: Object, obj: o} }
func FuncValue(fn *Func) Value        { return Value{typ: Function, fn: fn} }

// NewArray returns an Array value wrapping the given shared store.
// NewArray(nil) allocates a fresh empty array.
func NewArray(a *ArrayValue) Value {
	if a == nil {
		a = &ArrayValue{}
	}
	return Value{typ: Array, arr: a}
}

// NewMap returns a Map value wrapping the given shared store.
// NewMap(nil) allocates a fresh empty map.
func NewMap(m *MapValue) Value {
	if m == nil {
		m = NewMapValue()
	}
	return Value{typ: Map, m: m}
}

// NewMapRef returns a weak reference to the target map. The reference never
// extends the target's lifetime; once the target is collected the reference
// resolves to Undefined.
func NewMapRef(m *MapValue) Value {
	return Value{typ: MapRef, ref: weak.Make(m)}
}

// --- Inspection ---

// Type returns the discriminant.
func (v Value) Type() Type { return v.typ }

// IsUndefined reports whether the value is the Undefined variant.
func (v Value) IsUndefined() bool { return v.typ == Undefined }

// IsNull reports whether the value is the Null variant.
func (v Value) IsNull() bool { return v.typ == Null }

func (v Value) mismatch(want Type) error {
	return errs.Newf(errs.KindTypeMismatch, "", "Invalid typecast: %s expected, but value is %s", want, v.typ)
}

// AsBool extracts the Bool variant.
func (v Value) AsBool() (bool, error) {
	if v.typ != Bool {
		return false, v.mismatch(Bool)
	}
	return v.b, nil
}

// AsInt extracts the Integer variant.
func (v Value) AsInt() (int64, error) {
	if v.typ != Integer {
		return 0, v.mismatch(Integer)
	}
	return v.i, nil
}

// AsUint extracts the UInteger variant.
func (v Value) AsUint() (uint64, error) {
	if v.typ != UInteger {
		return 0, v.mismatch(UInteger)
	}
	return v.u, nil
}

// AsDouble extracts the Float variant.
func (v Value) AsDouble() (float64, error) {
	if v.typ != Float {
		return 0, v.mismatch(Float)
	}
	return v.f, nil
}

// AsString extracts the String variant.
func (v Value) AsString() (string, error) {
	if v.typ != String {
		return "", v.mismatch(String)
	}
	return v.s, nil
}

// AsObject extracts the Object variant.
func (v Value) AsObject() (ObjectBridge, error) {
	if v.typ != Object {
		return nil, v.mismatch(Object)
	}
	return v.obj, nil
}

// AsArray extracts the shared store of the Array variant.
func (v Value) AsArray() (*ArrayValue, error) {
	if v.typ != Array {
		return nil, v.mismatch(Array)
	}
	return v.arr, nil
}

// AsMap extracts the shared store of the Map variant.
func (v Value) AsMap() (*MapValue, error) {
	if v.typ != Map {
		return nil, v.mismatch(Map)
	}
	return v.m, nil
}

// AsFunc extracts the Function variant.
func (v Value) AsFunc() (*Func, error) {
	if v.typ != Function {
		return nil, v.mismatch(Function)
	}
	return v.fn, nil
}

// Deref resolves a MapRef to a Map value, or Undefined if the target has
// been released. Any other variant is returned unchanged.
func (v Value) Deref() Value {
	if v.typ != MapRef {
		return v
	}
	if m := v.ref.Value(); m != nil {
		return NewMap(m)
	}
	return UndefinedValue()
}

// Equal compares two values: scalars by value, shared variants by identity
// of the backing store. Numeric variants never compare equal across
// discriminants; widening is always an explicit conversion.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case Undefined, Null:
		return true
	case Bool:
		return v.b == o.b
	case Integer:
		return v.i == o.i
	case UInteger:
		return v.u == o.u
	case Float:
		return v.f == o.f
	case String:
		return v.s == o.s
	case Object:
		return v.obj == o.obj
	case Array:
		return v.arr == o.arr
	case Map:
		return v.m == o.m
	case MapRef:
		return v.ref.Value() == o.ref.Value()
	case Function:
		return v.fn == o.fn
	}
	return false
}
