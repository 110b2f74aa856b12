package shcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
)

// counter is a minimal bridge used to exercise the registry behaviour.
type counter struct {
	*MemberRegistry
	n int64
}

func newCounter() *counter {
	c := &counter{}
	c.MemberRegistry = NewMemberRegistry("Counter", nil)
	c.AddProperty("count", func() (Value, error) {
		return IntValue(c.n), nil
	})
	c.AddMethod("increment", func(args []Value) (Value, error) {
		if err := EnsureCount("Counter.increment", args, 0, 1); err != nil {
			return UndefinedValue(), err
		}
		step := int64(1)
		if len(args) == 1 {
			i, err := args[0].AsInt()
			if err != nil {
				return UndefinedValue(), errs.Argument("Counter.increment", 1, "integer")
			}
			step = i
		}
		c.n += step
		return IntValue(c.n), nil
	})
	return c
}

func TestMemberRegistry_Members(t *testing.T) {
	c := newCounter()
	assert.Equal(t, "Counter", c.ClassName())
	assert.Equal(t, []string{"count", "increment"}, c.Members(), "registration order is preserved")
	assert.Equal(t, "<Counter>", c.Repr())
}

func TestMemberRegistry_UnknownMember(t *testing.T) {
	c := newCounter()
	for _, name := range []string{"missing", "Increment", ""} {
		_, err := c.GetMember(name)
		require.Error(t, err)
		assert.True(t, errs.IsUnknownMember(err), "member %q", name)

		_, err = c.Call(name, nil)
		assert.True(t, errs.IsUnknownMember(err))
	}
}

func TestMemberRegistry_PropertyAndBoundMethod(t *testing.T) {
	c := newCounter()

	v, err := c.GetMember("count")
	require.NoError(t, err)
	i, err := v.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(0), i)

	// Method members surface as bound Function values.
	fn, err := c.GetMember("increment")
	require.NoError(t, err)
	require.Equal(t, Function, fn.Type())
	callable, err := fn.AsFunc()
	require.NoError(t, err)

	out, err := callable.Call([]Value{IntValue(5)})
	require.NoError(t, err)
	i, _ = out.AsInt()
	assert.Equal(t, int64(5), i)

	// The binding mutates the same object the registry reads.
	v, _ = c.GetMember("count")
	i, _ = v.AsInt()
	assert.Equal(t, int64(5), i)
}

func TestMemberRegistry_CallErrors(t *testing.T) {
	c := newCounter()

	_, err := c.Call("increment", []Value{IntValue(1), IntValue(2)})
	require.Error(t, err)
	assert.True(t, errs.IsArgument(err))
	assert.Contains(t, err.Error(), "Invalid number of arguments in Counter.increment, expected 0 to 1 but got 2")

	_, err = c.Call("increment", []Value{StringValue("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Argument #1 is expected to be a integer")

	_, err = c.Call("count", nil)
	assert.True(t, errs.IsArgument(err), "properties are not callable")
}

func TestMemberRegistry_DynamicChain(t *testing.T) {
	r := NewMemberRegistry("Chain", nil)
	r.SetDynamic()
	r.AddMethod("first", func([]Value) (Value, error) { return UndefinedValue(), nil })
	r.AddMethod("second", func([]Value) (Value, error) { return UndefinedValue(), nil })
	r.EnableOnly("first")

	assert.Equal(t, []string{"first"}, r.Members())

	// A disabled, never-called method reads as unknown.
	_, err := r.Call("second", nil)
	assert.True(t, errs.IsUnknownMember(err))

	_, err = r.Call("first", nil)
	require.NoError(t, err)
	r.MarkCalled("first")
	r.EnableOnly("second")

	// A disabled method that already ran reports a call-order violation.
	_, err = r.Call("first", nil)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidCallOrder(err))

	_, err = r.Call("second", nil)
	assert.NoError(t, err)
}
