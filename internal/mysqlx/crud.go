package mysqlx

import (
	"strings"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// crudChain is the shared machinery of the fluent builders. Each chain
// method is registered with the set of previously-called methods that make
// it legal; after every successful call the legal set is recomputed from
// the name of the method that just ran. Calling a method that is currently
// illegal fails with UnknownMember if it never ran on this chain, or
// InvalidCallOrder if it is a repeat.
type crudChain struct {
	*shcore.MemberRegistry

	enablers map[string][]string

	// Parameter binding state, shared by every operation kind.
	placeholders []string
	bound        map[string]shcore.Value
}

func newCrudChain(class string) *crudChain {
	c := &crudChain{
		enablers: make(map[string][]string),
		bound:    make(map[string]shcore.Value),
	}
	c.MemberRegistry = shcore.NewMemberRegistry(class, nil)
	c.SetDynamic()
	return c
}

// dynamic registers a chain method together with the comma-separated list
// of source methods after which it is legal ("" is the initial state).
func (c *crudChain) dynamic(name string, fn func(args []shcore.Value) (shcore.Value, error), sources string) {
	c.AddMethod(name, fn)
	var list []string
	for _, s := range strings.Split(sources, ",") {
		list = append(list, strings.TrimSpace(s))
	}
	c.enablers[name] = list
}

// update recomputes the legal method set after source ran.
func (c *crudChain) update(source string) {
	if source != "" {
		c.MarkCalled(source)
	}
	var enabled []string
	for name, sources := range c.enablers {
		for _, s := range sources {
			if s == source {
				enabled = append(enabled, name)
				break
			}
		}
	}
	c.EnableOnly(enabled...)
}

// declare records the :name placeholders of a filter or expression so
// execute can verify each one was bound.
func (c *crudChain) declare(expr string) {
	for _, name := range scanPlaceholders(expr) {
		found := false
		for _, p := range c.placeholders {
			if p == name {
				found = true
				break
			}
		}
		if !found {
			c.placeholders = append(c.placeholders, name)
		}
	}
}

// bindMember implements bind(name, value) for every chain kind.
func (c *crudChain) bindMember(api string, args []shcore.Value) (shcore.Value, error) {
	if err := shcore.EnsureCount(api, args, 2, 2); err != nil {
		return shcore.UndefinedValue(), err
	}
	name, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	switch args[1].Type() {
	case shcore.Null, shcore.Bool, shcore.Integer, shcore.UInteger, shcore.Float, shcore.String:
	default:
		return shcore.UndefinedValue(), errs.Argument(api, 2, "scalar value")
	}
	known := false
	for _, p := range c.placeholders {
		if p == name {
			known = true
			break
		}
	}
	if !known {
		return shcore.UndefinedValue(), errs.Newf(errs.KindArgument, api, "No placeholder named :%s exists", name)
	}
	c.bound[name] = args[1]
	c.update("bind")
	return shcore.UndefinedValue(), nil
}

// checkBound verifies every declared placeholder has a bound value.
func (c *crudChain) checkBound(api string) error {
	for _, name := range c.placeholders {
		if _, ok := c.bound[name]; !ok {
			return errs.Newf(errs.KindUnboundParameter, api, "The placeholder :%s was not bound before execute", name)
		}
	}
	return nil
}

// compile rewrites :name placeholders of expr to ? and returns the driver
// args in appearance order.
func (c *crudChain) compile(expr string) (string, []any) {
	compiled, order := substPlaceholders(expr)
	args := make([]any, len(order))
	for i, name := range order {
		args[i] = driverFromValue(c.bound[name])
	}
	return compiled, args
}

// sortClause joins "field [ASC|DESC]" expressions for an ORDER BY.
func sortClause(fields []string) string {
	return strings.Join(fields, ", ")
}
