package schema

import (
	"fmt"
	"strings"

	"github.com/tablekit/tablekit/internal/errs"
)

// SQLiteDialect translates between the abstract table model and SQLite.
// Reflection reads sqlite_master and PRAGMA table_info; identifiers quote
// with double quotes.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return "sqlite" }

func (SQLiteDialect) QuoteIdent(name string) string {
	return quoteIdentWith(name, `"`)
}

// ListTablesSQL enumerates user tables. SQLite has a single unnamed
// namespace, so the configured schema is ignored.
func (SQLiteDialect) ListTablesSQL(ReflectConfig) (string, []any) {
	const q = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
	return q, nil
}

// DescribeTableSQL builds a PRAGMA statement. PRAGMAs cannot take bound
// parameters, so the table name is quoted into the statement text.
func (d SQLiteDialect) DescribeTableSQL(table string, _ ReflectConfig) (string, []any) {
	return fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdent(table)), nil
}

// ConvertColumn maps a native SQLite type declaration onto the abstract
// type set following SQLite's affinity rules. Rules apply in order; the
// first match wins.
func (SQLiteDialect) ConvertColumn(native string) (*Column, error) {
	keyword, length, err := parseNativeType(native)
	if err != nil {
		return nil, err
	}

	col := &Column{}
	switch {
	case keyword == "date" || keyword == "time" || keyword == "boolean":
		col.Type = ColumnType(keyword)
	case keyword == "datetime" || strings.Contains(keyword, "timestamp"):
		col.Type = TypeDatetime
	case strings.Contains(keyword, "bigint"):
		col.Type = TypeBigInteger
		col.Length = intp(20)
	case strings.Contains(keyword, "int"):
		col.Type = TypeInteger
		col.Length = intp(10)
	case keyword == "char" || keyword == "character":
		col.Type = TypeString
		col.Fixed = boolp(true)
		col.Length = length
	case strings.Contains(keyword, "char") || strings.Contains(keyword, "clob"):
		col.Type = TypeString
		col.Length = length
	case strings.Contains(keyword, "text"):
		col.Type = TypeText
	case keyword == "blob" || strings.Contains(keyword, "binary"):
		col.Type = TypeBinary
	case keyword == "real" || strings.Contains(keyword, "floa") || strings.Contains(keyword, "doub"):
		col.Type = TypeFloat
	case strings.Contains(keyword, "numeric"),
		strings.Contains(keyword, "decimal"),
		strings.Contains(keyword, "money"):
		col.Type = TypeDecimal
	default:
		col.Type = TypeText
	}
	return col, nil
}

func (SQLiteDialect) ExtraSchemaColumns() map[string]string {
	// PRAGMA table_info carries no comment or collation metadata.
	return nil
}

// ConvertFieldDescription remaps PRAGMA table_info row keys (name, type,
// notnull, dflt_value, pk) onto the canonical field names before applying
// the shared conversion.
func (d SQLiteDialect) ConvertFieldDescription(t *Table, row map[string]any) error {
	canonical := map[string]any{
		"name":    row["name"],
		"type":    row["type"],
		"default": row["dflt_value"],
	}
	if v, present := row["notnull"]; present && v != nil {
		canonical["null"] = !truthy(v)
	}
	// pk holds the 1-based position within the primary key, 0 when absent.
	if truthy(row["pk"]) {
		canonical["pk"] = true
	}
	return convertFieldDescription(d, t, canonical)
}

var sqliteTypes = map[ColumnType]string{
	TypeInteger:    "integer",
	TypeBigInteger: "bigint",
	TypeString:     "varchar",
	TypeText:       "text",
	TypeDecimal:    "numeric",
	TypeFloat:      "real",
	TypeBinary:     "blob",
	TypeDate:       "date",
	TypeTime:       "time",
	TypeDatetime:   "datetime",
	TypeBoolean:    "boolean",
}

func (d SQLiteDialect) ColumnSQL(t *Table, name string) (string, error) {
	col := t.Column(name)
	if col == nil {
		return "", errs.Newf(errs.ErrKindInvalidInput, "table %q has no column %q", t.Name, name)
	}
	native, ok := sqliteTypes[col.Type]
	if !ok {
		return "", errs.Newf(errs.ErrKindInvalidInput, "column %q has unrenderable type %q", name, string(col.Type))
	}
	if col.Type == TypeString {
		if col.Fixed != nil && *col.Fixed {
			native = "char"
		}
		native = fmt.Sprintf("%s(%d)", native, stringLength(col))
	}
	return d.QuoteIdent(name) + " " + native + columnConstraints(col, true), nil
}

func (d SQLiteDialect) IndexSQL(t *Table, name string) (string, error) {
	idx := t.Index(name)
	if idx == nil {
		return "", errs.Newf(errs.ErrKindInvalidInput, "table %q has no index %q", t.Name, name)
	}
	switch idx.Type {
	case IndexPrimary:
		return "PRIMARY KEY (" + quoteAll(d, idx.Columns) + ")", nil
	case IndexUnique:
		return "CONSTRAINT " + d.QuoteIdent(name) + " UNIQUE (" + quoteAll(d, idx.Columns) + ")", nil
	}
	// Plain indexes need CREATE INDEX statements; fulltext and foreign
	// indexes have no inline SQLite form.
	return "", nil
}

func (d SQLiteDialect) CreateTableSQL(table string, lines []string) string {
	return assembleCreateTable(d.QuoteIdent(table), lines)
}
