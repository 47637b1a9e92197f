package database

import (
	"context"

	"github.com/tablekit/tablekit/internal/schema"
)

// schemaConn adapts a DB into the minimal connection shape the schema layer
// consumes: dialect access plus queries returning rows as maps.
type schemaConn struct {
	db DB
}

// AsSchemaConn wraps db for use by schema.Collection and
// Table.CreateTableSQL.
func AsSchemaConn(db DB) schema.Conn {
	return &schemaConn{db: db}
}

func (c *schemaConn) Dialect() schema.Dialect {
	return c.db.Dialect()
}

func (c *schemaConn) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := c.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return ScanRows(rows)
}
