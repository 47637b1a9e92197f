package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/tablekit/internal/errs"
)

func TestPostgresConvertColumn(t *testing.T) {
	tests := []struct {
		native string
		want   Column
	}{
		{"varchar(255)", Column{Type: TypeString, Length: intp(255)}},
		{"character varying(100)", Column{Type: TypeString, Length: intp(100)}},
		{"character varying", Column{Type: TypeString}},
		{"char(10)", Column{Type: TypeString, Fixed: boolp(true), Length: intp(10)}},
		{"character(3)", Column{Type: TypeString, Fixed: boolp(true), Length: intp(3)}},
		{"integer", Column{Type: TypeInteger, Length: intp(10)}},
		{"serial", Column{Type: TypeInteger, Length: intp(10)}},
		{"smallint", Column{Type: TypeInteger, Length: intp(5)}},
		{"bigint", Column{Type: TypeBigInteger, Length: intp(20)}},
		{"bigserial", Column{Type: TypeBigInteger, Length: intp(20)}},
		{"timestamp without time zone", Column{Type: TypeDatetime}},
		{"timestamp with time zone", Column{Type: TypeDatetime}},
		{"date", Column{Type: TypeDate}},
		{"time", Column{Type: TypeTime}},
		{"boolean", Column{Type: TypeBoolean}},
		{"inet", Column{Type: TypeString, Length: intp(39)}},
		{"uuid", Column{Type: TypeString, Fixed: boolp(true), Length: intp(36)}},
		{"text", Column{Type: TypeText}},
		{"bytea", Column{Type: TypeBinary}},
		{"real", Column{Type: TypeFloat}},
		{"double precision", Column{Type: TypeFloat}},
		{"numeric(10,2)", Column{Type: TypeDecimal}},
		{"money", Column{Type: TypeDecimal}},
		{"jsonb", Column{Type: TypeText}}, // unknown types fall back to text
	}
	for _, tt := range tests {
		got, err := PostgresDialect{}.ConvertColumn(tt.native)
		require.NoError(t, err, tt.native)
		assert.Equal(t, tt.want.Type, got.Type, tt.native)
		assertIntPtr(t, tt.want.Length, got.Length, tt.native)
		assertBoolPtr(t, tt.want.Fixed, got.Fixed, tt.native)
	}
}

func TestPostgresReflectedVarcharStaysVariable(t *testing.T) {
	// information_schema reports data_type = 'character varying' for every
	// varchar column; it must not round-trip into fixed-width char DDL.
	tbl := NewTable("users")
	row := map[string]any{"name": "name", "type": "character varying"}
	require.NoError(t, PostgresDialect{}.ConvertFieldDescription(tbl, row))

	col := tbl.Column("name")
	require.NotNil(t, col)
	assert.Equal(t, TypeString, col.Type)
	assert.Nil(t, col.Fixed)

	sql, err := PostgresDialect{}.ColumnSQL(tbl, "name")
	require.NoError(t, err)
	assert.Equal(t, `"name" varchar(255)`, sql)
}

func TestPostgresConvertColumn_Malformed(t *testing.T) {
	for _, native := range []string{"", "???"} {
		_, err := PostgresDialect{}.ConvertColumn(native)
		require.Error(t, err, native)
		assert.True(t, errs.IsParse(err), native)
	}
}

func TestPostgresConvertFieldDescription_BooleanDefault(t *testing.T) {
	tbl := NewTable("users")
	row := map[string]any{
		"name":    "active",
		"type":    "boolean",
		"null":    "YES",
		"default": "true",
	}
	require.NoError(t, PostgresDialect{}.ConvertFieldDescription(tbl, row))

	col := tbl.Column("active")
	require.NotNil(t, col)
	assert.Equal(t, TypeBoolean, col.Type)
	assert.Equal(t, 1, col.Default)
	require.NotNil(t, col.Null)
	assert.True(t, *col.Null)
	assert.Nil(t, col.Length)
}

func TestPostgresConvertFieldDescription_CharLengthOverride(t *testing.T) {
	tbl := NewTable("users")
	row := map[string]any{
		"name":        "name",
		"type":        "character varying",
		"null":        "NO",
		"char_length": int64(80),
		"comment":     "display name",
	}
	require.NoError(t, PostgresDialect{}.ConvertFieldDescription(tbl, row))

	col := tbl.Column("name")
	require.NotNil(t, col)
	require.NotNil(t, col.Length)
	assert.Equal(t, 80, *col.Length)
	require.NotNil(t, col.Comment)
	assert.Equal(t, "display name", *col.Comment)
}

func TestPostgresListTablesSQL(t *testing.T) {
	d := PostgresDialect{}

	q, args := d.ListTablesSQL(ReflectConfig{})
	assert.Contains(t, q, "information_schema.tables")
	assert.Contains(t, q, "BASE TABLE")
	assert.Equal(t, []any{"public"}, args)

	_, args = d.ListTablesSQL(ReflectConfig{Schema: "app"})
	assert.Equal(t, []any{"app"}, args)
}

func TestPostgresDescribeTableSQL(t *testing.T) {
	q, args := PostgresDialect{}.DescribeTableSQL("users", ReflectConfig{Schema: "app"})
	assert.Contains(t, q, "information_schema.columns")
	assert.Contains(t, q, "ORDER BY c.ordinal_position")
	assert.Contains(t, q, `AS "char_length"`)
	assert.Contains(t, q, "PRIMARY KEY")
	assert.Equal(t, []any{"app", "users"}, args)
}

func TestPostgresColumnSQL(t *testing.T) {
	tbl := NewTable("users").
		AddColumn("id", "integer").
		AddColumn("name", map[string]any{"type": "string", "length": 50, "null": false, "default": "guest"}).
		AddColumn("code", map[string]any{"type": "string", "fixed": true, "length": 3}).
		AddColumn("bio", "string").
		AddColumn("active", map[string]any{"type": "boolean", "default": 1})

	d := PostgresDialect{}
	tests := []struct {
		column string
		want   string
	}{
		{"id", `"id" integer`},
		{"name", `"name" varchar(50) NOT NULL DEFAULT 'guest'`},
		{"code", `"code" char(3)`},
		{"bio", `"bio" varchar(255)`}, // length defaults to 255
		{"active", `"active" boolean DEFAULT TRUE`},
	}
	for _, tt := range tests {
		got, err := d.ColumnSQL(tbl, tt.column)
		require.NoError(t, err, tt.column)
		assert.Equal(t, tt.want, got, tt.column)
	}
}

func TestPostgresColumnSQL_MissingColumn(t *testing.T) {
	_, err := PostgresDialect{}.ColumnSQL(NewTable("users"), "ghost")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestPostgresIndexSQL(t *testing.T) {
	tbl := NewTable("users").
		AddColumn("id", "integer").
		AddColumn("email", "string")
	require.NoError(t, tbl.AddIndex("primary", map[string]any{"type": "primary", "columns": []string{"id"}}))
	require.NoError(t, tbl.AddIndex("email_uq", map[string]any{"type": "unique", "columns": []string{"email"}}))
	require.NoError(t, tbl.AddIndex("email_idx", map[string]any{"type": "index", "columns": []string{"email"}}))

	d := PostgresDialect{}

	got, err := d.IndexSQL(tbl, "primary")
	require.NoError(t, err)
	assert.Equal(t, `PRIMARY KEY ("id")`, got)

	got, err = d.IndexSQL(tbl, "email_uq")
	require.NoError(t, err)
	assert.Equal(t, `CONSTRAINT "email_uq" UNIQUE ("email")`, got)

	// plain indexes need standalone CREATE INDEX and render empty inline
	got, err = d.IndexSQL(tbl, "email_idx")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPostgresCreateSQL_SkipsEmptyFragments(t *testing.T) {
	tbl := NewTable("posts").
		AddColumn("id", "integer").
		AddColumn("title", map[string]any{"type": "string", "length": 120})
	require.NoError(t, tbl.AddIndex("primary", map[string]any{"type": "primary", "columns": []string{"id"}}))
	require.NoError(t, tbl.AddIndex("title_idx", map[string]any{"type": "index", "columns": []string{"title"}}))

	sql, err := CreateSQL(PostgresDialect{}, tbl)
	require.NoError(t, err)
	assert.NotContains(t, sql, "title_idx")
	assert.Equal(t, 1, strings.Count(sql, "PRIMARY KEY"))
}

func assertIntPtr(t *testing.T, want, got *int, msg string) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got, msg)
		return
	}
	require.NotNil(t, got, msg)
	assert.Equal(t, *want, *got, msg)
}

func assertBoolPtr(t *testing.T, want, got *bool, msg string) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got, msg)
		return
	}
	require.NotNil(t, got, msg)
	assert.Equal(t, *want, *got, msg)
}
