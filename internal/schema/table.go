package schema

import (
	"encoding/json"

	"github.com/tablekit/tablekit/internal/errs"
)

// Table is the backend-agnostic model of one database table. Column and
// index insertion order is preserved and drives DDL clause ordering.
//
// A Table is either built incrementally through AddColumn/AddIndex or
// populated by a Collection reflection pass. It is not safe for concurrent
// mutation; callers reflecting many tables in parallel must use one Table
// per table.
type Table struct {
	Name string

	columnOrder []string
	columns     map[string]*Column
	indexOrder  []string
	indexes     map[string]*Index
}

// NewTable returns an empty table with the given name.
func NewTable(name string) *Table {
	return &Table{
		Name:    name,
		columns: make(map[string]*Column),
		indexes: make(map[string]*Index),
	}
}

// AddColumn adds or overwrites a column definition. attrs is either a bare
// type string (shorthand for {type: s}) or a map of column attributes;
// unknown attribute keys are silently dropped and absent keys stay unset.
// Returns the table so calls can be chained.
func (t *Table) AddColumn(name string, attrs any) *Table {
	col := mergeColumnAttrs(normalizeAttrs(attrs))
	t.setColumn(name, col)
	return t
}

// setColumn stores a merged definition, keeping insertion order stable when
// an existing column is overwritten.
func (t *Table) setColumn(name string, col Column) {
	if _, ok := t.columns[name]; !ok {
		t.columnOrder = append(t.columnOrder, name)
	}
	t.columns[name] = &col
}

// Columns returns the column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columnOrder))
	copy(out, t.columnOrder)
	return out
}

// Column returns the named column definition, or nil when no such column
// exists. Missing names are not an error.
func (t *Table) Column(name string) *Column {
	return t.columns[name]
}

// AddIndex adds or overwrites an index definition. attrs follows the same
// shorthand/merge rule as AddColumn, against the index attribute set.
//
// The index type must be one of the five recognised kinds and every listed
// column must already exist on the table; either violation returns a
// validation error and leaves the stored indexes untouched.
func (t *Table) AddIndex(name string, attrs any) error {
	idx := mergeIndexAttrs(normalizeAttrs(attrs))
	if !idx.Type.valid() {
		return errs.Newf(errs.ErrKindInvalidInput, "index %q has unrecognised type %q", name, string(idx.Type))
	}
	if len(idx.Columns) == 0 {
		return errs.Newf(errs.ErrKindInvalidInput, "index %q lists no columns", name)
	}
	for _, col := range idx.Columns {
		if t.Column(col) == nil {
			return errs.Newf(errs.ErrKindInvalidInput, "index %q references unknown column %q", name, col)
		}
	}
	if _, ok := t.indexes[name]; !ok {
		t.indexOrder = append(t.indexOrder, name)
	}
	t.indexes[name] = &idx
	return nil
}

// Indexes returns the index names in insertion order.
func (t *Table) Indexes() []string {
	out := make([]string, len(t.indexOrder))
	copy(out, t.indexOrder)
	return out
}

// Index returns the named index definition, or nil when no such index exists.
func (t *Table) Index(name string) *Index {
	return t.indexes[name]
}

// PrimaryKey returns the columns of the first primary-typed index in
// insertion order, or nil when the table has none. When several indexes of
// type primary exist under different names, the first one wins.
func (t *Table) PrimaryKey() []string {
	for _, name := range t.indexOrder {
		if idx := t.indexes[name]; idx.Type == IndexPrimary {
			cols := make([]string, len(idx.Columns))
			copy(cols, idx.Columns)
			return cols
		}
	}
	return nil
}

// CreateTableSQL renders the full CREATE TABLE statement for this table
// using the dialect supplied by conn. The table itself carries no SQL
// knowledge: it only sequences the dialect's column and index fragments.
func (t *Table) CreateTableSQL(conn Conn) (string, error) {
	return CreateSQL(conn.Dialect(), t)
}

// CreateSQL renders t's CREATE TABLE statement with an explicit dialect.
// Columns render in insertion order, then indexes; fragments the dialect
// cannot express inline (empty strings) are skipped.
func CreateSQL(d Dialect, t *Table) (string, error) {
	lines := make([]string, 0, len(t.columnOrder)+len(t.indexOrder))
	for _, name := range t.columnOrder {
		sql, err := d.ColumnSQL(t, name)
		if err != nil {
			return "", err
		}
		lines = append(lines, sql)
	}
	for _, name := range t.indexOrder {
		sql, err := d.IndexSQL(t, name)
		if err != nil {
			return "", err
		}
		if sql != "" {
			lines = append(lines, sql)
		}
	}
	return d.CreateTableSQL(t.Name, lines), nil
}

// MarshalJSON serialises the table with columns and indexes as ordered
// arrays, so snapshots and API responses preserve declaration order.
func (t *Table) MarshalJSON() ([]byte, error) {
	type namedColumn struct {
		Name string `json:"name"`
		*Column
	}
	type namedIndex struct {
		Name string `json:"name"`
		*Index
	}
	doc := struct {
		Name    string        `json:"name"`
		Columns []namedColumn `json:"columns"`
		Indexes []namedIndex  `json:"indexes"`
	}{Name: t.Name}
	for _, name := range t.columnOrder {
		doc.Columns = append(doc.Columns, namedColumn{Name: name, Column: t.columns[name]})
	}
	for _, name := range t.indexOrder {
		doc.Indexes = append(doc.Indexes, namedIndex{Name: name, Index: t.indexes[name]})
	}
	return json.Marshal(doc)
}
