package schema

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tablekit/tablekit/internal/errs"
)

// Dialect translates between the abstract table model and one backend's SQL:
// it builds the reflection queries, converts native column metadata into
// Column definitions, and renders DDL with the backend's identifier quoting.
//
// Dialects are stateless; the same value may serve any number of tables.
type Dialect interface {
	// Name identifies the backend ("postgres", "mysql", "sqlite").
	Name() string

	// QuoteIdent wraps a SQL identifier in the backend's quote pair.
	QuoteIdent(name string) string

	// ListTablesSQL returns the query and bound parameters that enumerate
	// the base tables visible in the configured schema, ordered by name.
	ListTablesSQL(cfg ReflectConfig) (string, []any)

	// DescribeTableSQL returns the query and bound parameters whose result
	// rows describe one table's columns, ordered by ordinal position. Result
	// columns are aliased to the canonical field names (name, type, null,
	// default, char_length, pk, …) so ConvertFieldDescription stays uniform.
	DescribeTableSQL(table string, cfg ReflectConfig) (string, []any)

	// ConvertColumn parses a native type declaration ("varchar(255)") into
	// an abstract column definition. Returns a parse error when the input
	// does not match the keyword-plus-optional-size grammar at all.
	ConvertColumn(native string) (*Column, error)

	// ExtraSchemaColumns declares optional per-column metadata this dialect
	// populates, as abstract field name → describe-row column name.
	ExtraSchemaColumns() map[string]string

	// ConvertFieldDescription translates one describe-row into a column on
	// t, merging a primary-key index when the row's pk flag is set.
	ConvertFieldDescription(t *Table, row map[string]any) error

	// ColumnSQL renders the DDL fragment for one column of t.
	ColumnSQL(t *Table, name string) (string, error)

	// IndexSQL renders the DDL fragment for one index of t. An empty string
	// means the backend cannot express this index kind inline and the
	// fragment is skipped.
	IndexSQL(t *Table, name string) (string, error)

	// CreateTableSQL assembles the final statement from the table name and
	// the rendered fragments.
	CreateTableSQL(table string, lines []string) string
}

// Conn is the minimal connection contract the schema layer consumes. The
// database package adapts its drivers to this shape; the schema package
// never executes SQL itself beyond handing query text to a Conn.
type Conn interface {
	Dialect() Dialect
	Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
}

// ReflectConfig carries the catalog coordinates reflection queries target.
// Zero values fall back to backend defaults ("public" for Postgres, the
// connected database for MySQL).
type ReflectConfig struct {
	// Schema is the namespace inside the database (Postgres schema).
	Schema string

	// Database is the catalog/database name (MySQL treats schema and
	// database as the same thing).
	Database string
}

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pg":
		return PostgresDialect{}, nil
	case "mysql", "mariadb":
		return MySQLDialect{}, nil
	case "sqlite", "sqlite3":
		return SQLiteDialect{}, nil
	}
	return nil, errs.Newf(errs.ErrKindInvalidInput, "unknown dialect %q", name)
}

// nativeTypeRe matches "keyword(s)" + optional "(n[,m])" + optional trailing
// modifiers (e.g. "decimal(10,2) unsigned"). Only the known modifier words
// may trail the keyword: multi-word type names like "character varying" or
// "timestamp without time zone" stay whole in the keyword group.
var nativeTypeRe = regexp.MustCompile(`^([a-z][a-z0-9_]*(?: [a-z][a-z0-9_]*)*?)\s*(?:\((\d+)(?:\s*,\s*\d+)?\))?((?: (?:unsigned|signed|zerofill))*)$`)

// parseNativeType decomposes a native type declaration into its lowercased
// keyword and optional parenthesised length.
func parseNativeType(native string) (string, *int, error) {
	s := strings.ToLower(strings.TrimSpace(native))
	m := nativeTypeRe.FindStringSubmatch(s)
	if m == nil {
		return "", nil, errs.Newf(errs.ErrKindParse, "unparsable column type %q", native)
	}
	var length *int
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return "", nil, errs.Wrap(errs.ErrKindParse, fmt.Sprintf("bad length in column type %q", native), err)
		}
		length = &n
	}
	return m[1], length, nil
}

// convertFieldDescription is the dialect-independent half of
// Dialect.ConvertFieldDescription: it expects row keys already aliased to
// the canonical field names and delegates type parsing to d.ConvertColumn.
func convertFieldDescription(d Dialect, t *Table, row map[string]any) error {
	name, ok := toString(row["name"])
	if !ok || name == "" {
		return errs.New(errs.ErrKindInvalidInput, "describe row carries no column name")
	}
	native, _ := toString(row["type"])
	col, err := d.ConvertColumn(native)
	if err != nil {
		return err
	}

	if v, present := row["null"]; present && v != nil {
		b := truthy(v)
		col.Null = &b
	}
	if v, present := row["default"]; present && v != nil {
		if col.Type == TypeBoolean {
			v = normalizeBooleanDefault(v)
		}
		col.Default = v
	}
	if v, present := row["char_length"]; present && v != nil {
		if n, ok := toInt(v); ok {
			col.Length = &n
		}
	}
	for field, source := range d.ExtraSchemaColumns() {
		v, present := row[source]
		if !present || v == nil {
			continue
		}
		s, ok := toString(v)
		if !ok {
			continue
		}
		switch field {
		case "comment":
			col.Comment = &s
		case "collate":
			col.Collate = &s
		case "charset":
			col.Charset = &s
		}
	}

	t.setColumn(name, *col)

	if truthy(row["pk"]) {
		return mergePrimaryKey(t, name)
	}
	return nil
}

// mergePrimaryKey adds name to the table's primary index, creating the
// index when the table has none yet. Composite keys accumulate across rows.
func mergePrimaryKey(t *Table, name string) error {
	cols := []string{name}
	if idx := t.Index("primary"); idx != nil && idx.Type == IndexPrimary {
		for _, c := range idx.Columns {
			if c == name {
				return nil
			}
		}
		cols = append(append([]string{}, idx.Columns...), name)
	}
	return t.AddIndex("primary", map[string]any{"type": string(IndexPrimary), "columns": cols})
}

// normalizeBooleanDefault turns the literal strings 'true'/'false' that
// metadata catalogs report for boolean defaults into 1/0. SQLite's PRAGMA
// reports defaults as written, quotes included, so a surrounding quote pair
// is stripped before comparing.
func normalizeBooleanDefault(v any) any {
	if s, ok := toString(v); ok {
		s = strings.TrimSpace(s)
		if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
			s = s[1 : len(s)-1]
		}
		switch strings.ToLower(s) {
		case "true":
			return 1
		case "false":
			return 0
		}
	}
	return v
}

// --- rendering helpers shared across dialects ---

// quoteIdentWith wraps name in the given quote rune, doubling embedded quotes.
func quoteIdentWith(name, q string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// quoteAll renders a comma-separated identifier list with d's quoting.
func quoteAll(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// assembleCreateTable is the statement wrapper shared by all dialects; only
// identifier quoting differs between backends.
func assembleCreateTable(quotedTable string, lines []string) string {
	return "CREATE TABLE " + quotedTable + " (\n\t" + strings.Join(lines, ",\n\t") + "\n);"
}

// sqlLiteral renders a default value as a SQL literal. Strings are single
// quoted with embedded quotes doubled; everything else renders verbatim.
func sqlLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case []byte:
		return "'" + strings.ReplaceAll(string(x), "'", "''") + "'"
	default:
		return fmt.Sprint(x)
	}
}

// columnConstraints renders the NOT NULL / DEFAULT tail of a column clause.
// boolWord controls whether boolean defaults render as TRUE/FALSE keywords
// (Postgres, SQLite) or as the 1/0 the model stores (MySQL).
func columnConstraints(col *Column, boolWord bool) string {
	var sb strings.Builder
	if col.Null != nil && !*col.Null {
		sb.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		sb.WriteString(" DEFAULT ")
		if col.Type == TypeBoolean && boolWord {
			if truthy(col.Default) {
				sb.WriteString("TRUE")
			} else {
				sb.WriteString("FALSE")
			}
		} else {
			sb.WriteString(sqlLiteral(col.Default))
		}
	}
	return sb.String()
}
