package schema

import (
	"context"
	"fmt"

	"github.com/tablekit/tablekit/internal/errs"
)

// Collection reflects live table structure through a connection. It runs
// the dialect's reflection queries, feeds result rows back into the
// dialect's row conversion, and assembles Table instances.
//
// Reflection is sequential: one list-tables query, then one describe query
// per table. Callers wanting parallelism must split tables across
// collections at the orchestration layer.
type Collection struct {
	conn Conn
	cfg  ReflectConfig
}

// NewCollection returns a collection reading through conn with the given
// reflection coordinates.
func NewCollection(conn Conn, cfg ReflectConfig) *Collection {
	return &Collection{conn: conn, cfg: cfg}
}

// TableNames returns the base table names visible in the configured schema,
// ordered by name.
func (c *Collection) TableNames(ctx context.Context) ([]string, error) {
	d := c.conn.Dialect()
	query, args := d.ListTablesSQL(c.cfg)
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := toString(row["name"]); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// TableExists reports whether the named table is visible in the configured
// schema.
func (c *Collection) TableExists(ctx context.Context, table string) (bool, error) {
	names, err := c.TableNames(ctx)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == table {
			return true, nil
		}
	}
	return false, nil
}

// Describe reflects one table: each describe-row becomes a column, and
// primary-key flags accumulate into a "primary" index. Column order follows
// the rows' ordinal positions.
func (c *Collection) Describe(ctx context.Context, table string) (*Table, error) {
	d := c.conn.Dialect()
	query, args := d.DescribeTableSQL(table, c.cfg)
	rows, err := c.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("describe table %q: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, errs.Newf(errs.ErrKindNotFound, "table %q not found or has no columns", table)
	}

	t := NewTable(table)
	for _, row := range rows {
		if err := d.ConvertFieldDescription(t, row); err != nil {
			return nil, fmt.Errorf("describe table %q: %w", table, err)
		}
	}
	return t, nil
}

// Set is a reflected snapshot of every table in a schema, ordered by name.
type Set struct {
	Dialect string   `json:"dialect"`
	Tables  []*Table `json:"tables"`
}

// Table returns the named table from the set, or nil when absent.
func (s *Set) Table(name string) *Table {
	for _, t := range s.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Reflect describes every table visible in the configured schema. This is
// intentionally expensive — callers should cache the result.
func (c *Collection) Reflect(ctx context.Context) (*Set, error) {
	names, err := c.TableNames(ctx)
	if err != nil {
		return nil, err
	}

	set := &Set{
		Dialect: c.conn.Dialect().Name(),
		Tables:  make([]*Table, 0, len(names)),
	}
	for _, name := range names {
		t, err := c.Describe(ctx, name)
		if err != nil {
			return nil, err
		}
		set.Tables = append(set.Tables, t)
	}
	return set, nil
}
