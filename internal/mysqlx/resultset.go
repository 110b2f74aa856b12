package mysqlx

import (
	"weak"

	"github.com/SandeepSethia/mysql-shell/internal/db"
	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// ResultSet is the bridge over a statement's result blocks. The back
// reference to the owning session is weak: sessions outlive their results
// by ownership, never the other way around.
type ResultSet struct {
	*shcore.MemberRegistry

	session weak.Pointer[Session]
	cur     db.Result
	fetched int64
	ended   bool
	closed  bool
}

func newResultSet(s *Session, cur db.Result) *ResultSet {
	rs := &ResultSet{session: weak.Make(s), cur: cur}
	rs.MemberRegistry = shcore.NewMemberRegistry("Resultset", nil)

	rs.AddProperty("affected_rows", func() (shcore.Value, error) {
		return shcore.IntValue(rs.cur.AffectedRows()), nil
	})
	rs.AddProperty("warning_count", func() (shcore.Value, error) {
		return shcore.IntValue(rs.cur.WarningCount()), nil
	})
	rs.AddProperty("fetched_row_count", func() (shcore.Value, error) {
		return shcore.IntValue(rs.fetched), nil
	})
	rs.AddProperty("column_count", func() (shcore.Value, error) {
		return shcore.IntValue(int64(len(rs.cur.Columns()))), nil
	})
	rs.AddProperty("column_names", func() (shcore.Value, error) {
		arr := &shcore.ArrayValue{}
		for _, col := range rs.cur.Columns() {
			arr.Items = append(arr.Items, shcore.StringValue(col.Name))
		}
		return shcore.NewArray(arr), nil
	})
	rs.AddProperty("info", func() (shcore.Value, error) {
		return shcore.StringValue(rs.cur.Info()), nil
	})
	rs.AddMethod("next", rs.nextMember)
	rs.AddMethod("all", rs.allMember)
	rs.AddMethod("nextResult", rs.nextResultMember)
	rs.AddMethod("getColumnMetadata", rs.metadataMember)
	rs.AddMethod("has_data", rs.hasDataMember)
	return rs
}

// drained reports whether every row of the current block was read.
func (rs *ResultSet) drained() bool {
	return rs.closed || rs.ended || !rs.cur.HasData()
}

// release closes the cursor. Idempotent; used on every session exit path.
func (rs *ResultSet) release() {
	if rs.closed {
		return
	}
	rs.closed = true
	_ = rs.cur.Close()
}

// advance moves to the next result block of the statement.
func (rs *ResultSet) advance() (bool, error) {
	if rs.closed {
		return false, errs.New(errs.KindResultShape, "", "Result has been closed")
	}
	more, err := rs.cur.NextResult()
	if err != nil {
		return false, err
	}
	if more {
		rs.ended = false
		rs.fetched = 0
	}
	return more, nil
}

// fetchRow reads one row; nil past the end.
func (rs *ResultSet) fetchRow() ([]any, error) {
	if rs.closed || rs.ended {
		return nil, nil
	}
	row, ok, err := rs.cur.Next()
	if err != nil {
		return nil, err
	}
	if !ok {
		rs.ended = true
		return nil, nil
	}
	rs.fetched++
	return row, nil
}

// fetchDocument reads one row as a column-name → value map; Null past end.
func (rs *ResultSet) fetchDocument() (shcore.Value, error) {
	row, err := rs.fetchRow()
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if row == nil {
		return shcore.NullValue(), nil
	}
	doc := shcore.NewMapValue()
	for i, col := range rs.cur.Columns() {
		doc.Set(col.Name, valueFromDriver(row[i]))
	}
	return shcore.NewMap(doc), nil
}

// fetchRaw reads one row as a value array in column order; Null past end.
func (rs *ResultSet) fetchRaw() (shcore.Value, error) {
	row, err := rs.fetchRow()
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if row == nil {
		return shcore.NullValue(), nil
	}
	arr := &shcore.ArrayValue{}
	for _, cell := range row {
		arr.Items = append(arr.Items, valueFromDriver(cell))
	}
	return shcore.NewArray(arr), nil
}

// --- bridge members ---

func rawFlag(api string, args []shcore.Value) (bool, error) {
	if err := shcore.EnsureCount(api, args, 0, 1); err != nil {
		return false, err
	}
	if len(args) == 0 {
		return false, nil
	}
	return shcore.BoolAt(api, args, 1)
}

func (rs *ResultSet) nextMember(args []shcore.Value) (shcore.Value, error) {
	raw, err := rawFlag("Resultset.next", args)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	if raw {
		return rs.fetchRaw()
	}
	return rs.fetchDocument()
}

func (rs *ResultSet) allMember(args []shcore.Value) (shcore.Value, error) {
	raw, err := rawFlag("Resultset.all", args)
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	out := &shcore.ArrayValue{}
	for {
		var row shcore.Value
		if raw {
			row, err = rs.fetchRaw()
		} else {
			row, err = rs.fetchDocument()
		}
		if err != nil {
			return shcore.UndefinedValue(), err
		}
		if row.IsNull() {
			return shcore.NewArray(out), nil
		}
		out.Items = append(out.Items, row)
	}
}

func (rs *ResultSet) nextResultMember(args []shcore.Value) (shcore.Value, error) {
	if err := shcore.EnsureCount("Resultset.nextResult", args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	more, err := rs.advance()
	if err != nil {
		return shcore.UndefinedValue(), err
	}
	return shcore.BoolValue(more), nil
}

func (rs *ResultSet) hasDataMember(args []shcore.Value) (shcore.Value, error) {
	if err := shcore.EnsureCount("Resultset.has_data", args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	return shcore.BoolValue(rs.cur.HasData()), nil
}

// metadataMember renders the column metadata with exactly the eleven keys
// of the wire-level column definition.
func (rs *ResultSet) metadataMember(args []shcore.Value) (shcore.Value, error) {
	if err := shcore.EnsureCount("Resultset.getColumnMetadata", args, 0, 0); err != nil {
		return shcore.UndefinedValue(), err
	}
	out := &shcore.ArrayValue{}
	for _, col := range rs.cur.Columns() {
		m := shcore.NewMapValue()
		m.Set("catalog", shcore.StringValue(col.Catalog))
		m.Set("db", shcore.StringValue(col.Schema))
		m.Set("table", shcore.StringValue(col.Table))
		m.Set("org_table", shcore.StringValue(col.OrgTable))
		m.Set("name", shcore.StringValue(col.Name))
		m.Set("org_name", shcore.StringValue(col.OrgName))
		m.Set("charset", shcore.StringValue(col.Charset))
		m.Set("length", shcore.IntValue(col.Length))
		m.Set("type", shcore.StringValue(col.Type))
		m.Set("flags", shcore.StringValue(col.Flags))
		m.Set("decimal", shcore.IntValue(col.Decimal))
		out.Items = append(out.Items, shcore.NewMap(m))
	}
	return shcore.NewArray(out), nil
}
