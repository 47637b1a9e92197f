package schema

import (
	"fmt"
	"strings"

	"github.com/tablekit/tablekit/internal/errs"
)

// MySQLDialect translates between the abstract table model and MySQL /
// MariaDB. Reflection reads information_schema; identifiers quote with
// backticks.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

func (MySQLDialect) QuoteIdent(name string) string {
	return quoteIdentWith(name, "`")
}

// ListTablesSQL enumerates base tables. MySQL treats schema and database as
// the same namespace; with no configured name the connected database is used.
func (MySQLDialect) ListTablesSQL(cfg ReflectConfig) (string, []any) {
	name := cfg.Database
	if name == "" {
		name = cfg.Schema
	}
	if name == "" {
		const q = `
			SELECT table_name AS name
			FROM information_schema.tables
			WHERE table_schema = DATABASE()
			  AND table_type   = 'BASE TABLE'
			ORDER BY table_name`
		return q, nil
	}
	const q = `
		SELECT table_name AS name
		FROM information_schema.tables
		WHERE table_schema = ?
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`
	return q, []any{name}
}

func (MySQLDialect) DescribeTableSQL(table string, cfg ReflectConfig) (string, []any) {
	name := cfg.Database
	if name == "" {
		name = cfg.Schema
	}
	if name == "" {
		const q = `
			SELECT
				c.table_schema               AS ` + "`schema`" + `,
				c.column_name                AS name,
				c.data_type                  AS type,
				c.is_nullable = 'YES'        AS ` + "`null`" + `,
				c.column_default             AS ` + "`default`" + `,
				c.ordinal_position           AS position,
				c.character_maximum_length   AS char_length,
				c.character_octet_length     AS oct_length,
				c.column_comment             AS comment,
				c.collation_name             AS ` + "`collate`" + `,
				c.character_set_name         AS charset,
				(c.column_key = 'PRI')       AS pk
			FROM information_schema.columns c
			WHERE c.table_schema = DATABASE() AND c.table_name = ?
			ORDER BY c.ordinal_position`
		return q, []any{table}
	}
	const q = `
		SELECT
			c.table_schema               AS ` + "`schema`" + `,
			c.column_name                AS name,
			c.data_type                  AS type,
			c.is_nullable = 'YES'        AS ` + "`null`" + `,
			c.column_default             AS ` + "`default`" + `,
			c.ordinal_position           AS position,
			c.character_maximum_length   AS char_length,
			c.character_octet_length     AS oct_length,
			c.column_comment             AS comment,
			c.collation_name             AS ` + "`collate`" + `,
			c.character_set_name         AS charset,
			(c.column_key = 'PRI')       AS pk
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ?
		ORDER BY c.ordinal_position`
	return q, []any{name, table}
}

// ConvertColumn maps a native MySQL type declaration onto the abstract type
// set. Rules apply in order; the first match wins. tinyint(1) is the MySQL
// spelling of boolean.
func (MySQLDialect) ConvertColumn(native string) (*Column, error) {
	keyword, length, err := parseNativeType(native)
	if err != nil {
		return nil, err
	}

	col := &Column{}
	switch {
	case keyword == "date" || keyword == "time":
		col.Type = ColumnType(keyword)
	case keyword == "datetime" || strings.Contains(keyword, "timestamp"):
		col.Type = TypeDatetime
	case keyword == "tinyint" && length != nil && *length == 1:
		col.Type = TypeBoolean
	case keyword == "boolean" || keyword == "bool":
		col.Type = TypeBoolean
	case keyword == "bigint":
		col.Type = TypeBigInteger
		col.Length = intp(20)
	case keyword == "smallint":
		col.Type = TypeInteger
		col.Length = intp(5)
	case keyword == "int" || keyword == "integer" || keyword == "mediumint" || keyword == "tinyint":
		// Exact integer keywords only: spatial types (point, multipoint)
		// must fall through to the text fallback.
		col.Type = TypeInteger
		col.Length = intp(10)
	case keyword == "year":
		col.Type = TypeInteger
		col.Length = intp(4)
	case keyword == "char":
		col.Type = TypeString
		col.Fixed = boolp(true)
		col.Length = length
	case strings.Contains(keyword, "char"):
		col.Type = TypeString
		col.Length = length
	case keyword == "enum" || keyword == "set":
		col.Type = TypeString
	case strings.Contains(keyword, "text"):
		col.Type = TypeText
	case strings.Contains(keyword, "blob") || strings.Contains(keyword, "binary"):
		col.Type = TypeBinary
	case keyword == "float" || keyword == "real" || strings.Contains(keyword, "double"):
		col.Type = TypeFloat
	case strings.Contains(keyword, "numeric") || strings.Contains(keyword, "decimal"):
		col.Type = TypeDecimal
	default:
		col.Type = TypeText
	}
	return col, nil
}

func (MySQLDialect) ExtraSchemaColumns() map[string]string {
	return map[string]string{
		"comment": "comment",
		"collate": "collate",
		"charset": "charset",
	}
}

func (d MySQLDialect) ConvertFieldDescription(t *Table, row map[string]any) error {
	return convertFieldDescription(d, t, row)
}

var mysqlTypes = map[ColumnType]string{
	TypeInteger:    "int",
	TypeBigInteger: "bigint",
	TypeString:     "varchar",
	TypeText:       "text",
	TypeDecimal:    "decimal",
	TypeFloat:      "float",
	TypeBinary:     "blob",
	TypeDate:       "date",
	TypeTime:       "time",
	TypeDatetime:   "datetime",
	TypeBoolean:    "tinyint(1)",
}

func (d MySQLDialect) ColumnSQL(t *Table, name string) (string, error) {
	col := t.Column(name)
	if col == nil {
		return "", errs.Newf(errs.ErrKindInvalidInput, "table %q has no column %q", t.Name, name)
	}
	native, ok := mysqlTypes[col.Type]
	if !ok {
		return "", errs.Newf(errs.ErrKindInvalidInput, "column %q has unrenderable type %q", name, string(col.Type))
	}
	if col.Type == TypeString {
		if col.Fixed != nil && *col.Fixed {
			native = "char"
		}
		native = fmt.Sprintf("%s(%d)", native, stringLength(col))
	}

	var sb strings.Builder
	sb.WriteString(d.QuoteIdent(name))
	sb.WriteByte(' ')
	sb.WriteString(native)
	if col.Charset != nil {
		sb.WriteString(" CHARACTER SET ")
		sb.WriteString(*col.Charset)
	}
	if col.Collate != nil {
		sb.WriteString(" COLLATE ")
		sb.WriteString(*col.Collate)
	}
	sb.WriteString(columnConstraints(col, false))
	if col.Comment != nil {
		sb.WriteString(" COMMENT ")
		sb.WriteString(sqlLiteral(*col.Comment))
	}
	return sb.String(), nil
}

func (d MySQLDialect) IndexSQL(t *Table, name string) (string, error) {
	idx := t.Index(name)
	if idx == nil {
		return "", errs.Newf(errs.ErrKindInvalidInput, "table %q has no index %q", t.Name, name)
	}
	cols := d.indexColumns(idx)
	switch idx.Type {
	case IndexPrimary:
		return "PRIMARY KEY (" + cols + ")", nil
	case IndexUnique:
		return "UNIQUE KEY " + d.QuoteIdent(name) + " (" + cols + ")", nil
	case IndexPlain:
		return "KEY " + d.QuoteIdent(name) + " (" + cols + ")", nil
	case IndexFulltext:
		return "FULLTEXT KEY " + d.QuoteIdent(name) + " (" + cols + ")", nil
	}
	// Foreign keys need reference metadata the index model does not carry.
	return "", nil
}

// indexColumns renders the quoted column list, appending prefix lengths
// where the index declares them: `title`(80).
func (d MySQLDialect) indexColumns(idx *Index) string {
	parts := make([]string, len(idx.Columns))
	for i, col := range idx.Columns {
		parts[i] = d.QuoteIdent(col)
		if n, ok := idx.Lengths[col]; ok && n > 0 {
			parts[i] += fmt.Sprintf("(%d)", n)
		}
	}
	return strings.Join(parts, ", ")
}

func (d MySQLDialect) CreateTableSQL(table string, lines []string) string {
	return assembleCreateTable(d.QuoteIdent(table), lines)
}
