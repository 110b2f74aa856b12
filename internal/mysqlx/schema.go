package mysqlx

import (
	"fmt"
	"weak"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// Schema is the bridge over one database schema. It holds its session
// weakly; a schema object kept alive after the session is gone fails with
// SessionClosed instead of pinning the connection.
type Schema struct {
	*shcore.MemberRegistry

	session weak.Pointer[Session]
	name    string
}

func newSchema(s *Session, name string) *Schema {
	sc := &Schema{session: weak.Make(s), name: name}
	sc.MemberRegistry = shcore.NewMemberRegistry("Schema", func() string {
		return fmt.Sprintf("<Schema:%s>", sc.name)
	})
	sc.AddProperty("name", func() (shcore.Value, error) {
		return shcore.StringValue(sc.name), nil
	})
	sc.AddMethod("getCollection", sc.getCollectionMember)
	sc.AddMethod("getTable", sc.getTableMember)
	sc.AddMethod("getCollections", sc.getCollectionsMember)
	sc.AddMethod("getTables", sc.getTablesMember)
	return sc
}

// Name returns the schema name.
func (sc *Schema) Name() string { return sc.name }

func (sc *Schema) sessionRef(api string) (*Session, error) {
	s := sc.session.Value()
	if s == nil || s.Closed() {
		return nil, errs.New(errs.KindSessionClosed, api, "The session is closed")
	}
	return s, nil
}

func (sc *Schema) getCollectionMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Schema.getCollection"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	name, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	return shcore.ObjectValue(newCollection(sc, name)), nil
}

func (sc *Schema) getTableMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Schema.getTable"
	if err := shcore.EnsureCount(api, args, 1, 1); err != nil {
		return shcore.UndefinedValue(), err
	}
	name, err := shcore.StringAt(api, args, 1)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	return shcore.ObjectValue(newTable(sc, name)), nil
}

// listObjects queries information_schema for the schema's base tables,
// split into collections (single JSON doc column plus generated _id) and
// plain tables.
const listTablesQuery = `SELECT table_name FROM information_schema.tables WHERE table_schema = ? AND table_type = 'BASE TABLE' ORDER BY table_name`

const listCollectionsQuery = `SELECT c.table_name FROM information_schema.columns c WHERE c.table_schema = ? AND c.column_name = 'doc' AND c.data_type = 'json' ORDER BY c.table_name`

func (sc *Schema) listNames(api, query string) ([]string, error) {
	s, err := sc.sessionRef(api)
	if err != nil {
		return nil, err
	}
	rs, err := s.Execute(query, sc.name)
	if err != nil {
		return nil, errs.WithAPI(api, err)
	}
	defer rs.release()

	var names []string
	for {
		row, err := rs.fetchRow()
		if err != nil {
			return nil, errs.WithAPI(api, err)
		}
		if row == nil {
			return names, nil
		}
		if len(row) > 0 {
			if name, ok := row[0].(string); ok {
				names = append(names, name)
			}
		}
	}
}

func (sc *Schema) getCollectionsMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Schema.getCollections"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	names, err := sc.listNames(api, listCollectionsQuery)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	out := &shcore.ArrayValue{}
	for _, name := range names {
		out.Items = append(out.Items, shcore.ObjectValue(newCollection(sc, name)))
	}
	return shcore.NewArray(out), nil
}

func (sc *Schema) getTablesMember(args []shcore.Value) (shcore.Value, error) {
	const api = "Schema.getTables"
	if err := shcore.EnsureCount(api, args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	names, err := sc.listNames(api, listTablesQuery)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	out := &shcore.ArrayValue{}
	for _, name := range names {
		out.Items = append(out.Items, shcore.ObjectValue(newTable(sc, name)))
	}
	return shcore.NewArray(out), nil
}

// Collection is the bridge over a document collection: a table with a JSON
// doc column, following the X plugin storage model. The collection holds
// its schema strongly; builders hold the collection strongly.
type Collection struct {
	*shcore.MemberRegistry

	schema *Schema
	name   string
}

func newCollection(sc *Schema, name string) *Collection {
	c := &Collection{schema: sc, name: name}
	c.MemberRegistry = shcore.NewMemberRegistry("Collection", func() string {
		return fmt.Sprintf("<Collection:%s>", c.name)
	})
	c.AddProperty("name", func() (shcore.Value, error) {
		return shcore.StringValue(c.name), nil
	})
	c.AddMethod("find", func(args []shcore.Value) (shcore.Value, error) {
		return newCollectionFind(c).findMember(args)
	})
	c.AddMethod("add", func(args []shcore.Value) (shcore.Value, error) {
		return newCollectionAdd(c).addMember(args)
	})
	c.AddMethod("modify", func(args []shcore.Value) (shcore.Value, error) {
		return newCollectionModify(c).modifyMember(args)
	})
	c.AddMethod("remove", func(args []shcore.Value) (shcore.Value, error) {
		return newCollectionRemove(c).removeMember(args)
	})
	return c
}

func (c *Collection) qualified() string {
	return qualify(c.schema.name, c.name)
}

func (c *Collection) sessionRef(api string) (*Session, error) {
	return c.schema.sessionRef(api)
}

// Table is the bridge over a relational table.
type Table struct {
	*shcore.MemberRegistry

	schema *Schema
	name   string
}

func newTable(sc *Schema, name string) *Table {
	t := &Table{schema: sc, name: name}
	t.MemberRegistry = shcore.NewMemberRegistry("Table", func() string {
		return fmt.Sprintf("<Table:%s>", t.name)
	})
	t.AddProperty("name", func() (shcore.Value, error) {
		return shcore.StringValue(t.name), nil
	})
	t.AddMethod("select", func(args []shcore.Value) (shcore.Value, error) {
		return newTableSelect(t).selectMember(args)
	})
	t.AddMethod("insert", func(args []shcore.Value) (shcore.Value, error) {
		return newTableInsert(t).insertMember(args)
	})
	t.AddMethod("update", func(args []shcore.Value) (shcore.Value, error) {
		return newTableUpdate(t).updateMember(args)
	})
	t.AddMethod("delete", func(args []shcore.Value) (shcore.Value, error) {
		return newTableDelete(t).deleteMember(args)
	})
	return t
}

func (t *Table) qualified() string {
	return qualify(t.schema.name, t.name)
}

func (t *Table) sessionRef(api string) (*Session, error) {
	return t.schema.sessionRef(api)
}
