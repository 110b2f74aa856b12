package mysqlx

import (
	"fmt"
	"strings"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// tableValueSQL renders a narrowed table value as a SQL fragment plus
// driver args. Expressions inline their payload; everything else binds.
func tableValueSQL(api string, v shcore.Value) (string, []any, error) {
	tv, err := MapTableValue(v)
	if err != nil {
		return "", nil, errs.WithAPI(api, err)
	}
	if tv.Kind == TExpression {
		return tv.Expr, nil, nil
	}
	return "?", []any{tv.Arg()}, nil
}

// --- Table.select ---

type tableSelect struct {
	*crudChain
	owner *Table

	columns []string
	where   string
	groupBy []string
	having  string
	orderBy []string
	limit   *uint64
	offset  *uint64
}

func newTableSelect(owner *Table) *tableSelect {
	s := &tableSelect{crudChain: newCrudChain("TableSelect"), owner: owner}
	s.dynamic("select", s.selectMember, "")
	s.dynamic("where", s.whereMember, "select")
	s.dynamic("groupBy", s.groupByMember, "select, where")
	s.dynamic("having", s.havingMember, "groupBy")
	s.dynamic("orderBy", s.orderByMember, "select, where, groupBy, having")
	s.dynamic("limit", s.limitMember, "select, where, groupBy, having, orderBy")
	s.dynamic("offset", s.offsetMember, "limit")
	s.dynamic("bind", s.bindChain, "select, where, groupBy, having, orderBy, limit, offset, bind")
	s.dynamic("execute", s.executeMember, "select, where, groupBy, having, orderBy, limit, offset, bind")
	s.update("")
	return s
}

func (s *tableSelect) self() shcore.Value { return shcore.ObjectValue(s) }

func (s *tableSelect) selectMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableSelect.select"
	if err := shcore.EnsureCount(api, args, 0, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(args) == 1 {
		cols, err := shcore.StringListAt(api, args, 1)
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		s.columns = cols
	}
	s.update("select")
	return s.self(), nil
}

func (s *tableSelect) whereMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableSelect.where"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	cond, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	s.where = cond
	s.declare(cond)
	s.update("where")
	return s.self(), nil
}

func (s *tableSelect) groupByMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableSelect.groupBy"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	cols, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(cols) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Grouping criteria can not be empty")
	}
	s.groupBy = cols
	s.update("groupBy")
	return s.self(), nil
}

func (s *tableSelect) havingMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableSelect.having"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	cond, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	s.having = cond
	s.declare(cond)
	s.update("having")
	return s.self(), nil
}

func (s *tableSelect) orderByMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableSelect.orderBy"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	cols, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(cols) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Order criteria can not be empty")
	}
	s.orderBy = cols
	s.update("orderBy")
	return s.self(), nil
}

func (s *tableSelect) limitMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableSelect.limit"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	n, err := shcore.UintAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	s.limit = &n
	s.update("limit")
	return s.self(), nil
}

func (s *tableSelect) offsetMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableSelect.offset"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	n, err := shcore.UintAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	s.offset = &n
	s.update("offset")
	return s.self(), nil
}

func (s *tableSelect) bindChain(args []shcore.Value) (shcore.Value, error) {
	if _, err := s.bindMember("TableSelect.bind", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	return s.self(), nil
}

func (s *tableSelect) executeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableSelect.execute"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := s.checkBound(api); err != nil {
		return shcore.UndefinedValue(), err
	}
	session, err := s.owner.sessionRef(api)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	var sb strings.Builder
	var execArgs []any
	sb.WriteString("SELECT ")
	if len(s.columns) > 0 {
		quoted := make([]string, len(s.columns))
		for i, c := range s.columns {
			quoted[i] = quoteIdent(c)
		}
		sb.WriteString(strings.Join(quoted, ", "))
	} else {
		sb.WriteString("*")
	}
	sb.WriteString(" FROM " + s.owner.qualified())
	if s.where != "" {
		where, whereArgs := s.compile(s.where)
		sb.WriteString(" WHERE " + where)
		execArgs = append(execArgs, whereArgs...)
	}
	if len(s.groupBy) > 0 {
		sb.WriteString(" GROUP BY " + sortClause(s.groupBy))
	}
	if s.having != "" {
		having, havingArgs := s.compile(s.having)
		sb.WriteString(" HAVING " + having)
		execArgs = append(execArgs, havingArgs...)
	}
	if len(s.orderBy) > 0 {
		sb.WriteString(" ORDER BY " + sortClause(s.orderBy))
	}
	if s.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *s.limit)
		if s.offset != nil {
			fmt.Fprintf(&sb, " OFFSET %d", *s.offset)
		}
	}

	rs, err := session.Execute(sb.String(), execArgs...)
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.ObjectValue(rs), nil
}

// --- Table.insert ---

type tableInsert struct {
	*crudChain
	owner *Table

	columns []string
	rows    []struct {
		frags []string
		args  []any
	}
}

func newTableInsert(owner *Table) *tableInsert {
	i := &tableInsert{crudChain: newCrudChain("TableInsert"), owner: owner}
	i.dynamic("insert", i.insertMember, "")
	i.dynamic("values", i.valuesMember, "insert, values")
	i.dynamic("execute", i.executeMember, "values")
	i.update("")
	return i
}

func (i *tableInsert) self() shcore.Value { return shcore.ObjectValue(i) }

func (i *tableInsert) insertMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableInsert.insert"
	if err := shcore.EnsureCount(api, args, 0, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(args) == 1 {
		cols, err := shcore.StringListAt(api, args, 1)
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		i.columns = cols
	}
	i.update("insert")
	return i.self(), nil
}

func (i *tableInsert) valuesMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableInsert.values"
	if len(args) == 0 {
		return shcore.UndefinedValue(), errs.Arity(api, 1, len(i.columns), len(args))
	}
	if len(i.columns) > 0 && len(args) != len(i.columns) {
		return shcore.UndefinedValue(), errs.Arity(api, len(i.columns), len(i.columns), len(args))
	}
	row := struct {
		frags []string
		args  []any
	}{}
	for pos, v := range args {
		frag, fragArgs, err := tableValueSQL(api, v)
		if err != nil {
			var e *errs.Error
			if errs.IsArgument(err) {
				e = errs.WithAPI(api, err)
				e.Message = fmt.Sprintf("Argument #%d: %s", pos+1, e.Message)
				return shcore.UndefinedValue(), e
			}
			return shcore.UndefinedValue(), err
		}
		row.frags = append(row.frags, frag)
		row.args = append(row.args, fragArgs...)
	}
	i.rows = append(i.rows, row)
	i.update("values")
	return i.self(), nil
}

func (i *tableInsert) executeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableInsert.execute"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	session, err := i.owner.sessionRef(api)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	var sb strings.Builder
	var execArgs []any
	sb.WriteString("INSERT INTO " + i.owner.qualified())
	if len(i.columns) > 0 {
		quoted := make([]string, len(i.columns))
		for k, c := range i.columns {
			quoted[k] = quoteIdent(c)
		}
		sb.WriteString(" (" + strings.Join(quoted, ", ") + ")")
	}
	sb.WriteString(" VALUES ")
	for k, row := range i.rows {
		if k > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(" + strings.Join(row.frags, ", ") + ")")
		execArgs = append(execArgs, row.args...)
	}

	rs, err := session.Execute(sb.String(), execArgs...)
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.ObjectValue(rs), nil
}

// --- Table.update ---

type tableUpdate struct {
	*crudChain
	owner *Table

	sets []struct {
		col  string
		frag string
		args []any
	}
	where   string
	orderBy []string
	limit   *uint64
}

func newTableUpdate(owner *Table) *tableUpdate {
	u := &tableUpdate{crudChain: newCrudChain("TableUpdate"), owner: owner}
	u.dynamic("update", u.updateMember, "")
	u.dynamic("set", u.setMember, "update, set")
	u.dynamic("where", u.whereMember, "set")
	u.dynamic("orderBy", u.orderByMember, "set, where")
	u.dynamic("limit", u.limitMember, "set, where, orderBy")
	u.dynamic("bind", u.bindChain, "set, where, orderBy, limit, bind")
	u.dynamic("execute", u.executeMember, "set, where, orderBy, limit, bind")
	u.update("")
	return u
}

func (u *tableUpdate) self() shcore.Value { return shcore.ObjectValue(u) }

func (u *tableUpdate) updateMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableUpdate.update"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	u.update("update")
	return u.self(), nil
}

func (u *tableUpdate) setMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableUpdate.set"
	if err := shcore.EnsureCount(api, args, 2, 2); err != nil {
		return shcore.UndefinedValue(), err
	}
	col, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	frag, fragArgs, err := tableValueSQL(api, args[1])
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	u.sets = append(u.sets, struct {
		col  string
		frag string
		args []any
	}{col, frag, fragArgs})
	u.update("set")
	return u.self(), nil
}

func (u *tableUpdate) whereMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableUpdate.where"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	cond, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	u.where = cond
	u.declare(cond)
	u.update("where")
	return u.self(), nil
}

func (u *tableUpdate) orderByMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableUpdate.orderBy"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	cols, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(cols) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Order criteria can not be empty")
	}
	u.orderBy = cols
	u.update("orderBy")
	return u.self(), nil
}

func (u *tableUpdate) limitMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableUpdate.limit"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	n, err := shcore.UintAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	u.limit = &n
	u.update("limit")
	return u.self(), nil
}

func (u *tableUpdate) bindChain(args []shcore.Value) (shcore.Value, error) {
	if _, err := u.bindMember("TableUpdate.bind", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	return u.self(), nil
}

func (u *tableUpdate) executeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableUpdate.execute"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(u.sets) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "No fields specified on update operation")
	}
	if err := u.checkBound(api); err != nil {
		return shcore.UndefinedValue(), err
	}
	session, err := u.owner.sessionRef(api)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	var sb strings.Builder
	var execArgs []any
	sb.WriteString("UPDATE " + u.owner.qualified() + " SET ")
	for k, set := range u.sets {
		if k > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(quoteIdent(set.col) + " = " + set.frag)
		execArgs = append(execArgs, set.args...)
	}
	if u.where != "" {
		where, whereArgs := u.compile(u.where)
		sb.WriteString(" WHERE " + where)
		execArgs = append(execArgs, whereArgs...)
	}
	if len(u.orderBy) > 0 {
		sb.WriteString(" ORDER BY " + sortClause(u.orderBy))
	}
	if u.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *u.limit)
	}

	rs, err := session.Execute(sb.String(), execArgs...)
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.ObjectValue(rs), nil
}

// --- Table.delete ---

type tableDelete struct {
	*crudChain
	owner *Table

	where   string
	orderBy []string
	limit   *uint64
}

func newTableDelete(owner *Table) *tableDelete {
	d := &tableDelete{crudChain: newCrudChain("TableDelete"), owner: owner}
	d.dynamic("delete", d.deleteMember, "")
	d.dynamic("where", d.whereMember, "delete")
	d.dynamic("orderBy", d.orderByMember, "delete, where")
	d.dynamic("limit", d.limitMember, "delete, where, orderBy")
	d.dynamic("bind", d.bindChain, "delete, where, orderBy, limit, bind")
	d.dynamic("execute", d.executeMember, "delete, where, orderBy, limit, bind")
	d.update("")
	return d
}

func (d *tableDelete) self() shcore.Value { return shcore.ObjectValue(d) }

func (d *tableDelete) deleteMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableDelete.delete"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	d.update("delete")
	return d.self(), nil
}

func (d *tableDelete) whereMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableDelete.where"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	cond, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	d.where = cond
	d.declare(cond)
	d.update("where")
	return d.self(), nil
}

func (d *tableDelete) orderByMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableDelete.orderBy"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	cols, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(cols) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Order criteria can not be empty")
	}
	d.orderBy = cols
	d.update("orderBy")
	return d.self(), nil
}

func (d *tableDelete) limitMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableDelete.limit"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	n, err := shcore.UintAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	d.limit = &n
	d.update("limit")
	return d.self(), nil
}

func (d *tableDelete) bindChain(args []shcore.Value) (shcore.Value, error) {
	if _, err := d.bindMember("TableDelete.bind", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	return d.self(), nil
}

func (d *tableDelete) executeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "TableDelete.execute"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := d.checkBound(api); err != nil {
		return shcore.UndefinedValue(), err
	}
	session, err := d.owner.sessionRef(api)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	var sb strings.Builder
	var execArgs []any
	sb.WriteString("DELETE FROM " + d.owner.qualified())
	if d.where != "" {
		where, whereArgs := d.compile(d.where)
		sb.WriteString(" WHERE " + where)
		execArgs = append(execArgs, whereArgs...)
	}
	if len(d.orderBy) > 0 {
		sb.WriteString(" ORDER BY " + sortClause(d.orderBy))
	}
	if d.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *d.limit)
	}

	rs, err := session.Execute(sb.String(), execArgs...)
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.ObjectValue(rs), nil
}
