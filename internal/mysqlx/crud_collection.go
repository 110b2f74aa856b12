package mysqlx

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
	"github.com/SandeepSethia/mysql-shell/internal/uuid"
)

// docValueSQL renders a document value as a SQL fragment plus driver args.
// Expressions are inlined; containers travel as JSON text.
func docValueSQL(api string, v shcore.Value) (string, []any, error) {
	if e, ok := AsExpression(v); ok {
		if e.Data() == "" {
			return "", nil, errs.New(errs.KindArgument, api, "Expressions can not be empty.")
		}
		return e.Data(), nil, nil
	}
	switch v.Type() {
	case shcore.Null, shcore.Bool, shcore.Integer, shcore.UInteger, shcore.Float, shcore.String:
		return "?", []any{driverFromValue(v)}, nil
	case shcore.Map, shcore.Array:
		return "CAST(? AS JSON)", []any{v.Descr()}, nil
	}
	return "", nil, errs.Newf(errs.KindArgument, api, "Unsupported value received: %s.", v.Descr())
}

// docPath normalises a document member path to a JSON path literal.
func docPath(path string) string {
	if strings.HasPrefix(path, "$") {
		return "'" + path + "'"
	}
	return "'$." + path + "'"
}

// --- Collection.find ---

type collectionFind struct {
	*crudChain
	owner *Collection

	filter  string
	fields  []string
	groupBy []string
	having  string
	sort    []string
	limit   *uint64
	offset  *uint64
}

func newCollectionFind(owner *Collection) *collectionFind {
	f := &collectionFind{crudChain: newCrudChain("CollectionFind"), owner: owner}
	f.dynamic("find", f.findMember, "")
	f.dynamic("fields", f.fieldsMember, "find")
	f.dynamic("groupBy", f.groupByMember, "find, fields")
	f.dynamic("having", f.havingMember, "groupBy")
	f.dynamic("sort", f.sortMember, "find, fields, groupBy, having")
	f.dynamic("limit", f.limitMember, "find, fields, groupBy, having, sort")
	f.dynamic("offset", f.offsetMember, "limit")
	f.dynamic("skip", f.offsetMember, "limit")
	f.dynamic("bind", f.bindChain, "find, fields, groupBy, having, sort, limit, offset, skip, bind")
	f.dynamic("execute", f.executeMember, "find, fields, groupBy, having, sort, limit, offset, skip, bind")
	f.update("")
	return f
}

func (f *collectionFind) self() shcore.Value { return shcore.ObjectValue(f) }

func (f *collectionFind) findMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionFind.find"
	if err := shcore.EnsureCount(api, args, 0, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(args) == 1 {
		filter, err := shcore.StringAt(api, args, 1)
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		f.filter = filter
		f.declare(filter)
	}
	f.update("find")
	return f.self(), nil
}

func (f *collectionFind) fieldsMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionFind.fields"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	fields, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(fields) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Field selection criteria can not be empty")
	}
	f.fields = fields
	f.update("fields")
	return f.self(), nil
}

func (f *collectionFind) groupByMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionFind.groupBy"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	fields, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(fields) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Grouping criteria can not be empty")
	}
	f.groupBy = fields
	f.update("groupBy")
	return f.self(), nil
}

func (f *collectionFind) havingMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionFind.having"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	cond, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	f.having = cond
	f.declare(cond)
	f.update("having")
	return f.self(), nil
}

func (f *collectionFind) sortMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionFind.sort"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	fields, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(fields) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Sort criteria can not be empty")
	}
	f.sort = fields
	f.update("sort")
	return f.self(), nil
}

func (f *collectionFind) limitMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionFind.limit"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	n, err := shcore.UintAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	f.limit = &n
	f.update("limit")
	return f.self(), nil
}

func (f *collectionFind) offsetMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionFind.offset"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	n, err := shcore.UintAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	f.offset = &n
	f.update("offset")
	return f.self(), nil
}

func (f *collectionFind) bindChain(args []shcore.Value) (shcore.Value, error) {
	if _, err := f.bindMember("CollectionFind.bind", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	return f.self(), nil
}

func (f *collectionFind) executeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionFind.execute"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := f.checkBound(api); err != nil {
		return shcore.UndefinedValue(), err
	}
	session, err := f.owner.sessionRef(api)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	var sb strings.Builder
	var execArgs []any

	sb.WriteString("SELECT ")
	if len(f.fields) > 0 {
		parts := make([]string, len(f.fields))
		for i, field := range f.fields {
			parts[i] = fmt.Sprintf("'%s', JSON_EXTRACT(doc, %s)", field, docPath(field))
		}
		sb.WriteString("JSON_OBJECT(" + strings.Join(parts, ", ") + ") AS doc")
	} else {
		sb.WriteString("doc")
	}
	sb.WriteString(" FROM " + f.owner.qualified())

	if f.filter != "" {
		where, whereArgs := f.compile(f.filter)
		sb.WriteString(" WHERE " + where)
		execArgs = append(execArgs, whereArgs...)
	}
	if len(f.groupBy) > 0 {
		sb.WriteString(" GROUP BY " + sortClause(f.groupBy))
	}
	if f.having != "" {
		having, havingArgs := f.compile(f.having)
		sb.WriteString(" HAVING " + having)
		execArgs = append(execArgs, havingArgs...)
	}
	if len(f.sort) > 0 {
		sb.WriteString(" ORDER BY " + sortClause(f.sort))
	}
	if f.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *f.limit)
		if f.offset != nil {
			fmt.Fprintf(&sb, " OFFSET %d", *f.offset)
		}
	}

	rs, err := session.Execute(sb.String(), execArgs...)
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.ObjectValue(rs), nil
}

// --- Collection.add ---

type collectionAdd struct {
	*crudChain
	owner *Collection

	docs []string // JSON payloads, _id already ensured
}

func newCollectionAdd(owner *Collection) *collectionAdd {
	a := &collectionAdd{crudChain: newCrudChain("CollectionAdd"), owner: owner}
	a.dynamic("add", a.addMember, ", add")
	a.dynamic("bind", a.bindChain, "add, bind")
	a.dynamic("execute", a.executeMember, "add, bind")
	a.update("")
	return a
}

func (a *collectionAdd) self() shcore.Value { return shcore.ObjectValue(a) }

// ensureID assigns a generated _id when the document carries none.
func ensureID(doc *shcore.MapValue) error {
	if doc.Has("_id") {
		return nil
	}
	id, err := uuid.Generate()
	if err != nil {
		return err
	}
	doc.Set("_id", shcore.StringValue(hex.EncodeToString(id[:])))
	return nil
}

func (a *collectionAdd) appendDoc(api string, v shcore.Value) error {
	doc, err := v.AsMap()
	if err != nil {
		return errs.Argument(api, 1, "document or list of documents")
	}
	if err := ensureID(doc); err != nil {
		return errs.WithAPI(api, err)
	}
	a.docs = append(a.docs, shcore.NewMap(doc).Descr())
	return nil
}

func (a *collectionAdd) addMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionAdd.add"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	switch args[0].Type() {
	case shcore.Map:
		if err := a.appendDoc(api, args[0]); err != nil {
			return shcore.UndefinedValue(), err
		}
	case shcore.Array:
		arr, _ := args[0].AsArray()
		for _, item := range arr.Items {
			if err := a.appendDoc(api, item); err != nil {
				return shcore.UndefinedValue(), err
			}
		}
	default:
		return shcore.UndefinedValue(), errs.Argument(api, 1, "document or list of documents")
	}
	a.update("add")
	return a.self(), nil
}

func (a *collectionAdd) bindChain(args []shcore.Value) (shcore.Value, error) {
	if _, err := a.bindMember("CollectionAdd.bind", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	return a.self(), nil
}

func (a *collectionAdd) executeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionAdd.execute"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(a.docs) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "No documents specified on add operation")
	}
	session, err := a.owner.sessionRef(api)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO " + a.owner.qualified() + " (doc) VALUES ")
	execArgs := make([]any, len(a.docs))
	for i, doc := range a.docs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(CAST(? AS JSON))")
		execArgs[i] = doc
	}

	rs, err := session.Execute(sb.String(), execArgs...)
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.ObjectValue(rs), nil
}

// --- Collection.modify ---

// docSlot marks where the folded document expression is spliced into an
// operation fragment. NUL can never appear in a SQL statement.
const docSlot = "\x00"

type docOperation struct {
	sql  string
	args []any
}

type collectionModify struct {
	*crudChain
	owner *Collection

	filter string
	ops    []docOperation
	sort   []string
	limit  *uint64
}

const modifyOps = "set, unset, merge, arrayInsert, arrayAppend, arrayDelete"

func newCollectionModify(owner *Collection) *collectionModify {
	m := &collectionModify{crudChain: newCrudChain("CollectionModify"), owner: owner}
	m.dynamic("modify", m.modifyMember, "")
	m.dynamic("set", m.setMember, "modify, operation")
	m.dynamic("unset", m.unsetMember, "modify, operation")
	m.dynamic("merge", m.mergeMember, "modify, operation")
	m.dynamic("arrayInsert", m.arrayInsertMember, "modify, operation")
	m.dynamic("arrayAppend", m.arrayAppendMember, "modify, operation")
	m.dynamic("arrayDelete", m.arrayDeleteMember, "modify, operation")
	m.dynamic("sort", m.sortMember, "operation")
	m.dynamic("limit", m.limitMember, "operation, sort")
	m.dynamic("bind", m.bindChain, "operation, sort, limit, bind")
	m.dynamic("execute", m.executeMember, "operation, sort, limit, bind")
	m.update("")
	return m
}

func (m *collectionModify) self() shcore.Value { return shcore.ObjectValue(m) }

func (m *collectionModify) modifyMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionModify.modify"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	filter, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	m.filter = filter
	m.declare(filter)
	m.update("modify")
	return m.self(), nil
}

// pathValueOp parses the (docPath, value) argument pair shared by set,
// arrayInsert, and arrayAppend.
func (m *collectionModify) pathValueOp(api, fn string, args []shcore.Value) error {
	if err := shcore.EnsureCount(api, args, 2, 2); err != nil {
		return err
	}
	path, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return err
	}
	frag, fragArgs, err := docValueSQL(api, args[1])
	if err != nil {
		return err
	}
	m.ops = append(m.ops, docOperation{
		sql:  fmt.Sprintf("%s(%s, %s, %s)", fn, docSlot, docPath(path), frag),
		args: fragArgs,
	})
	return nil
}

func (m *collectionModify) setMember(args []shcore.Value) (shcore.Value, error) {
	if err := m.pathValueOp("CollectionModify.set", "JSON_SET", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	m.update("operation")
	return m.self(), nil
}

func (m *collectionModify) unsetMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionModify.unset"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	paths, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	for _, path := range paths {
		m.ops = append(m.ops, docOperation{sql: fmt.Sprintf("JSON_REMOVE(%s, %s)", docSlot, docPath(path))})
	}
	m.update("operation")
	return m.self(), nil
}

func (m *collectionModify) mergeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionModify.merge"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	doc, err := shcore.MapAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	m.ops = append(m.ops, docOperation{
		sql:  "JSON_MERGE_PATCH(" + docSlot + ", CAST(? AS JSON))",
		args: []any{shcore.NewMap(doc).Descr()},
	})
	m.update("operation")
	return m.self(), nil
}

func (m *collectionModify) arrayInsertMember(args []shcore.Value) (shcore.Value, error) {
	if err := m.pathValueOp("CollectionModify.arrayInsert", "JSON_ARRAY_INSERT", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	m.update("operation")
	return m.self(), nil
}

func (m *collectionModify) arrayAppendMember(args []shcore.Value) (shcore.Value, error) {
	if err := m.pathValueOp("CollectionModify.arrayAppend", "JSON_ARRAY_APPEND", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	m.update("operation")
	return m.self(), nil
}

func (m *collectionModify) arrayDeleteMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionModify.arrayDelete"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	path, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	m.ops = append(m.ops, docOperation{sql: fmt.Sprintf("JSON_REMOVE(%s, %s)", docSlot, docPath(path))})
	m.update("operation")
	return m.self(), nil
}

func (m *collectionModify) sortMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionModify.sort"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	fields, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(fields) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Sort criteria can not be empty")
	}
	m.sort = fields
	m.update("sort")
	return m.self(), nil
}

func (m *collectionModify) limitMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionModify.limit"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	n, err := shcore.UintAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	m.limit = &n
	m.update("limit")
	return m.self(), nil
}

func (m *collectionModify) bindChain(args []shcore.Value) (shcore.Value, error) {
	if _, err := m.bindMember("CollectionModify.bind", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	return m.self(), nil
}

func (m *collectionModify) executeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionModify.execute"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := m.checkBound(api); err != nil {
		return shcore.UndefinedValue(), err
	}
	session, err := m.owner.sessionRef(api)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	// Fold the operations into one nested doc expression, innermost first.
	docExpr := "doc"
	var execArgs []any
	for _, op := range m.ops {
		docExpr = strings.Replace(op.sql, docSlot, docExpr, 1)
		execArgs = append(execArgs, op.args...)
	}

	var sb strings.Builder
	sb.WriteString("UPDATE " + m.owner.qualified() + " SET doc = " + docExpr)
	if m.filter != "" {
		where, whereArgs := m.compile(m.filter)
		sb.WriteString(" WHERE " + where)
		execArgs = append(execArgs, whereArgs...)
	}
	if len(m.sort) > 0 {
		sb.WriteString(" ORDER BY " + sortClause(m.sort))
	}
	if m.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *m.limit)
	}

	rs, err := session.Execute(sb.String(), execArgs...)
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.ObjectValue(rs), nil
}

// --- Collection.remove ---

type collectionRemove struct {
	*crudChain
	owner *Collection

	filter string
	sort   []string
	limit  *uint64
}

func newCollectionRemove(owner *Collection) *collectionRemove {
	r := &collectionRemove{crudChain: newCrudChain("CollectionRemove"), owner: owner}
	r.dynamic("remove", r.removeMember, "")
	r.dynamic("sort", r.sortMember, "remove")
	r.dynamic("limit", r.limitMember, "remove, sort")
	r.dynamic("bind", r.bindChain, "remove, sort, limit, bind")
	r.dynamic("execute", r.executeMember, "remove, sort, limit, bind")
	r.update("")
	return r
}

func (r *collectionRemove) self() shcore.Value { return shcore.ObjectValue(r) }

func (r *collectionRemove) removeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionRemove.remove"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	filter, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	r.filter = filter
	r.declare(filter)
	r.update("remove")
	return r.self(), nil
}

func (r *collectionRemove) sortMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionRemove.sort"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	fields, err := shcore.StringListAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if len(fields) == 0 {
		return shcore.UndefinedValue(), errs.New(errs.KindArgument, api, "Sort criteria can not be empty")
	}
	r.sort = fields
	r.update("sort")
	return r.self(), nil
}

func (r *collectionRemove) limitMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionRemove.limit"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	n, err := shcore.UintAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	r.limit = &n
	r.update("limit")
	return r.self(), nil
}

func (r *collectionRemove) bindChain(args []shcore.Value) (shcore.Value, error) {
	if _, err := r.bindMember("CollectionRemove.bind", args); err != nil {
		return shcore.UndefinedValue(), err
	}
	return r.self(), nil
}

func (r *collectionRemove) executeMember(args []shcore.Value) (shcore.Value, error) {
	const api = "CollectionRemove.execute"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	if err := r.checkBound(api); err != nil {
		return shcore.UndefinedValue(), err
	}
	session, err := r.owner.sessionRef(api)
	if err != nil {
		return shcore.UndefinedValue(), err
	}

	var sb strings.Builder
	var execArgs []any
	sb.WriteString("DELETE FROM " + r.owner.qualified())
	if r.filter != "" {
		where, whereArgs := r.compile(r.filter)
		sb.WriteString(" WHERE " + where)
		execArgs = append(execArgs, whereArgs...)
	}
	if len(r.sort) > 0 {
		sb.WriteString(" ORDER BY " + sortClause(r.sort))
	}
	if r.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %d", *r.limit)
	}

	rs, err := session.Execute(sb.String(), execArgs...)
	if err != nil {
		return shcore.UndefinedValue(), errs.WithAPI(api, err)
	}
	return shcore.ObjectValue(rs), nil
}
