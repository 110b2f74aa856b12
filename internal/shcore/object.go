package shcore

import (
	"github.com/SandeepSethia/mysql-shell/internal/errs"
)

// ObjectBridge is the polymorphic surface every shell object exposes to the
// script runtimes. Concrete variants include sessions, schemas, collections,
// tables, CRUD builders, result sets, expressions, and the cluster façade.
//
// GetMember on a method name returns a Function value bound to the object,
// so runtimes can treat property reads and method lookups uniformly.
// Unknown names fail with UnknownMember.
//
// Bridges are shared by reference and must be addressable from any thread
// that holds one; a call runs to completion on the invoking thread.
type ObjectBridge interface {
	// ClassName returns the type name driving the printed representation.
	ClassName() string

	// Members returns the exposed member names in registration order.
	Members() []string

	// GetMember returns the value of a data member, or a bound Function
	// for a method member.
	GetMember(name string) (Value, error)

	// Call invokes a callable member with the given arguments.
	Call(name string, args []Value) (Value, error)

	// Repr returns the printable form, e.g. "<Expression>" or
	// "<XSession:user@host:port>".
	Repr() string
}

type memberKind int

const (
	memberProperty memberKind = iota
	memberMethod
)

type member struct {
	name    string
	kind    memberKind
	get     func() (Value, error)
	call    func(args []Value) (Value, error)
	enabled bool
	called  bool
}

// MemberRegistry gives concrete bridges ordered member registration and the
// dynamic enable/disable behaviour the CRUD chains rely on. The zero value
// is not usable; embed it via NewMemberRegistry.
type MemberRegistry struct {
	class   string
	repr    func() string
	ordered []*member
	index   map[string]*member
	dynamic bool
}

// NewMemberRegistry creates a registry for the given class name. repr may be
// nil, in which case "<Class>" is printed.
func NewMemberRegistry(class string, repr func() string) *MemberRegistry {
	return &MemberRegistry{
		class: class,
		repr:  repr,
		index: make(map[string]*member),
	}
}

// ClassName implements ObjectBridge.
func (r *MemberRegistry) ClassName() string { return r.class }

// Repr implements ObjectBridge.
func (r *MemberRegistry) Repr() string {
	if r.repr != nil {
		return r.repr()
	}
	return "<" + r.class + ">"
}

// AddProperty registers a data member whose value is produced by get.
func (r *MemberRegistry) AddProperty(name string, get func() (Value, error)) {
	m := &member{name: name, kind: memberProperty, get: get, enabled: true}
	r.ordered = append(r.ordered, m)
	r.index[name] = m
}

// AddMethod registers a callable member.
func (r *MemberRegistry) AddMethod(name string, call func(args []Value) (Value, error)) {
	m := &member{name: name, kind: memberMethod, call: call, enabled: true}
	r.ordered = append(r.ordered, m)
	r.index[name] = m
}

// SetDynamic marks the registry as a CRUD-style chain: Members() lists only
// the currently enabled methods, and calling a disabled one reports
// InvalidCallOrder when it was used before on this chain.
func (r *MemberRegistry) SetDynamic() { r.dynamic = true }

// EnableOnly enables exactly the named methods, disabling every other
// method member. Properties are unaffected.
func (r *MemberRegistry) EnableOnly(names ...string) {
	allow := make(map[string]bool, len(names))
	for _, n := range names {
		allow[n] = true
	}
	for _, m := range r.ordered {
		if m.kind == memberMethod {
			m.enabled = allow[m.name]
		}
	}
}

// MarkCalled records that a chain method ran, for InvalidCallOrder
// diagnostics on repeats.
func (r *MemberRegistry) MarkCalled(name string) {
	if m, ok := r.index[name]; ok {
		m.called = true
	}
}

// Members implements ObjectBridge. For dynamic registries only enabled
// members are listed.
func (r *MemberRegistry) Members() []string {
	names := make([]string, 0, len(r.ordered))
	for _, m := range r.ordered {
		if r.dynamic && !m.enabled {
			continue
		}
		names = append(names, m.name)
	}
	return names
}

// Has reports whether name is a currently visible member.
func (r *MemberRegistry) Has(name string) bool {
	m, ok := r.index[name]
	return ok && (!r.dynamic || m.enabled)
}

// GetMember implements ObjectBridge.
func (r *MemberRegistry) GetMember(name string) (Value, error) {
	m, err := r.lookup(name)
	if err != nil {
		return UndefinedValue(), err
	}
	if m.kind == memberProperty {
		return m.get()
	}
	return FuncValue(&Func{Name: r.class + "." + name, Call: m.call}), nil
}

// Call implements ObjectBridge.
func (r *MemberRegistry) Call(name string, args []Value) (Value, error) {
	m, err := r.lookup(name)
	if err != nil {
		return UndefinedValue(), err
	}
	if m.kind != memberMethod {
		return UndefinedValue(), errs.Newf(errs.KindArgument, "", "%s.%s is not callable", r.class, name)
	}
	return m.call(args)
}

func (r *MemberRegistry) lookup(name string) (*member, error) {
	m, ok := r.index[name]
	if !ok {
		return nil, errs.UnknownMember(r.class, name)
	}
	if r.dynamic && !m.enabled {
		if m.called {
			return nil, errs.Newf(errs.KindInvalidCallOrder, "",
				"Forbidden usage of %s.%s: already used in this chain", r.class, name)
		}
		return nil, errs.UnknownMember(r.class, name)
	}
	return m, nil
}

// --- Argument helpers shared by bridge methods ---

// EnsureCount fails with the canonical arity error unless len(args) is
// between min and max inclusive.
func EnsureCount(api string, args []Value, min, max int) error {
	if len(args) < min || len(args) > max {
		return errs.Arity(api, min, max, len(args))
	}
	return nil
}

// StringAt extracts a required string argument, reporting the canonical
// argument error on mismatch. pos is 1-based.
func StringAt(api string, args []Value, pos int) (string, error) {
	s, err := args[pos-1].AsString()
	if err != nil {
		return "", errs.Argument(api, pos, "string")
	}
	return s, nil
}

// BoolAt extracts a required bool argument. pos is 1-based.
func BoolAt(api string, args []Value, pos int) (bool, error) {
	b, err := args[pos-1].AsBool()
	if err != nil {
		return false, errs.Argument(api, pos, "bool")
	}
	return b, nil
}

// UintAt extracts a non-negative integer argument accepting either integer
// variant. pos is 1-based.
func UintAt(api string, args []Value, pos int) (uint64, error) {
	switch args[pos-1].Type() {
	case Integer:
		i, _ := args[pos-1].AsInt()
		if i < 0 {
			return 0, errs.Argument(api, pos, "positive integer")
		}
		return uint64(i), nil
	case UInteger:
		u, _ := args[pos-1].AsUint()
		return u, nil
	}
	return 0, errs.Argument(api, pos, "integer")
}

// MapAt extracts a required map argument. pos is 1-based.
func MapAt(api string, args []Value, pos int) (*MapValue, error) {
	m, err := args[pos-1].AsMap()
	if err != nil {
		return nil, errs.Argument(api, pos, "map")
	}
	return m, nil
}

// StringListAt accepts either a string or an array of strings at pos and
// flattens it. pos is 1-based.
func StringListAt(api string, args []Value, pos int) ([]string, error) {
	switch args[pos-1].Type() {
	case String:
		s, _ := args[pos-1].AsString()
		return []string{s}, nil
	case Array:
		arr, _ := args[pos-1].AsArray()
		out := make([]string, 0, len(arr.Items))
		for _, item := range arr.Items {
			s, err := item.AsString()
			if err != nil {
				return nil, errs.Argument(api, pos, "list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errs.Argument(api, pos, "string or list of strings")
}
