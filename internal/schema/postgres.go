package schema

import (
	"fmt"
	"strings"

	"github.com/tablekit/tablekit/internal/errs"
)

// DefaultPostgresSchema is the namespace reflection targets when the caller
// does not configure one.
const DefaultPostgresSchema = "public"

// PostgresDialect translates between the abstract table model and
// PostgreSQL. Reflection reads information_schema; identifiers quote with
// double quotes.
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return "postgres" }

func (PostgresDialect) QuoteIdent(name string) string {
	return quoteIdentWith(name, `"`)
}

func (PostgresDialect) ListTablesSQL(cfg ReflectConfig) (string, []any) {
	schemaName := cfg.Schema
	if schemaName == "" {
		schemaName = DefaultPostgresSchema
	}
	const q = `
		SELECT table_name AS name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type   = 'BASE TABLE'
		ORDER BY table_name`
	return q, []any{schemaName}
}

func (PostgresDialect) DescribeTableSQL(table string, cfg ReflectConfig) (string, []any) {
	schemaName := cfg.Schema
	if schemaName == "" {
		schemaName = DefaultPostgresSchema
	}
	const q = `
		SELECT
			c.table_schema                 AS "schema",
			c.column_name                  AS "name",
			c.data_type                    AS "type",
			c.is_nullable = 'YES'          AS "null",
			c.column_default               AS "default",
			c.ordinal_position             AS "position",
			c.character_maximum_length     AS "char_length",
			c.character_octet_length       AS "oct_length",
			pgd.description                AS "comment",
			COALESCE(pk.is_pk, false)      AS "pk"
		FROM information_schema.columns c

		LEFT JOIN (
			SELECT kcu.column_name, true AS is_pk
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY'
			  AND tc.table_schema = $1
			  AND tc.table_name   = $2
		) pk ON pk.column_name = c.column_name

		LEFT JOIN pg_catalog.pg_statio_all_tables st
			ON st.schemaname = c.table_schema
			AND st.relname   = c.table_name
		LEFT JOIN pg_catalog.pg_description pgd
			ON pgd.objoid   = st.relid
			AND pgd.objsubid = c.ordinal_position

		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position`
	return q, []any{schemaName, table}
}

// ConvertColumn maps a native Postgres type declaration onto the abstract
// type set. Rules apply in order; the first match wins.
func (PostgresDialect) ConvertColumn(native string) (*Column, error) {
	keyword, length, err := parseNativeType(native)
	if err != nil {
		return nil, err
	}

	col := &Column{}
	switch {
	case keyword == "date" || keyword == "time" || keyword == "boolean":
		col.Type = ColumnType(keyword)
	case strings.Contains(keyword, "timestamp"):
		col.Type = TypeDatetime
	case keyword == "serial" || keyword == "integer":
		col.Type = TypeInteger
		col.Length = intp(10)
	case keyword == "bigserial" || keyword == "bigint":
		col.Type = TypeBigInteger
		col.Length = intp(20)
	case keyword == "smallint":
		col.Type = TypeInteger
		col.Length = intp(5)
	case keyword == "inet":
		col.Type = TypeString
		col.Length = intp(39)
	case keyword == "uuid":
		col.Type = TypeString
		col.Fixed = boolp(true)
		col.Length = intp(36)
	case keyword == "char" || keyword == "character":
		col.Type = TypeString
		col.Fixed = boolp(true)
		col.Length = length
	case strings.Contains(keyword, "char"):
		col.Type = TypeString
		col.Length = length
	case strings.Contains(keyword, "text"):
		col.Type = TypeText
	case keyword == "bytea":
		col.Type = TypeBinary
	case keyword == "real" || strings.Contains(keyword, "double"):
		col.Type = TypeFloat
	case strings.Contains(keyword, "numeric"),
		strings.Contains(keyword, "money"),
		strings.Contains(keyword, "decimal"):
		col.Type = TypeDecimal
	default:
		col.Type = TypeText
	}
	return col, nil
}

func (PostgresDialect) ExtraSchemaColumns() map[string]string {
	return map[string]string{"comment": "comment"}
}

func (d PostgresDialect) ConvertFieldDescription(t *Table, row map[string]any) error {
	return convertFieldDescription(d, t, row)
}

// postgresTypes maps abstract types back to native DDL keywords.
var postgresTypes = map[ColumnType]string{
	TypeInteger:    "integer",
	TypeBigInteger: "bigint",
	TypeString:     "varchar",
	TypeText:       "text",
	TypeDecimal:    "numeric",
	TypeFloat:      "real",
	TypeBinary:     "bytea",
	TypeDate:       "date",
	TypeTime:       "time",
	TypeDatetime:   "timestamp",
	TypeBoolean:    "boolean",
}

func (d PostgresDialect) ColumnSQL(t *Table, name string) (string, error) {
	col := t.Column(name)
	if col == nil {
		return "", errs.Newf(errs.ErrKindInvalidInput, "table %q has no column %q", t.Name, name)
	}
	native, ok := postgresTypes[col.Type]
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

func (d PostgresDialect) IndexSQL(t *Table, name string) (string, error) {
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
	// Plain, fulltext, and foreign indexes need standalone statements
	// (CREATE INDEX / ALTER TABLE) and cannot render inline.
	return "", nil
}

func (d PostgresDialect) CreateTableSQL(table string, lines []string) string {
	return assembleCreateTable(d.QuoteIdent(table), lines)
}

// stringLength resolves the rendered length of a string column, defaulting
// to 255 when the model carries none.
func stringLength(col *Column) int {
	if col.Length != nil && *col.Length > 0 {
		return *col.Length
	}
	return 255
}

func intp(n int) *int    { return &n }
func boolp(b bool) *bool { return &b }
