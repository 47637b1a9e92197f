package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLConvertColumn(t *testing.T) {
	tests := []struct {
		native string
		want   Column
	}{
		{"tinyint(1)", Column{Type: TypeBoolean}},
		{"tinyint(4)", Column{Type: TypeInteger, Length: intp(10)}},
		{"boolean", Column{Type: TypeBoolean}},
		{"int", Column{Type: TypeInteger, Length: intp(10)}},
		{"int(11)", Column{Type: TypeInteger, Length: intp(10)}},
		{"smallint", Column{Type: TypeInteger, Length: intp(5)}},
		{"mediumint", Column{Type: TypeInteger, Length: intp(10)}},
		{"bigint", Column{Type: TypeBigInteger, Length: intp(20)}},
		{"bigint(20) unsigned", Column{Type: TypeBigInteger, Length: intp(20)}},
		{"year", Column{Type: TypeInteger, Length: intp(4)}},
		{"varchar(255)", Column{Type: TypeString, Length: intp(255)}},
		{"char(36)", Column{Type: TypeString, Fixed: boolp(true), Length: intp(36)}},
		{"enum", Column{Type: TypeString}},
		{"set", Column{Type: TypeString}},
		{"text", Column{Type: TypeText}},
		{"longtext", Column{Type: TypeText}},
		{"blob", Column{Type: TypeBinary}},
		{"varbinary(16)", Column{Type: TypeBinary}},
		{"datetime", Column{Type: TypeDatetime}},
		{"timestamp", Column{Type: TypeDatetime}},
		{"date", Column{Type: TypeDate}},
		{"time", Column{Type: TypeTime}},
		{"float", Column{Type: TypeFloat}},
		{"double", Column{Type: TypeFloat}},
		{"decimal(10,2)", Column{Type: TypeDecimal}},
		{"int unsigned", Column{Type: TypeInteger, Length: intp(10)}},
		// spatial types are not integers despite the "int" substring
		{"point", Column{Type: TypeText}},
		{"multipoint", Column{Type: TypeText}},
		{"linestring", Column{Type: TypeText}},
		{"geometry", Column{Type: TypeText}}, // unknown types fall back to text
	}
	for _, tt := range tests {
		got, err := MySQLDialect{}.ConvertColumn(tt.native)
		require.NoError(t, err, tt.native)
		assert.Equal(t, tt.want.Type, got.Type, tt.native)
		assertIntPtr(t, tt.want.Length, got.Length, tt.native)
		assertBoolPtr(t, tt.want.Fixed, got.Fixed, tt.native)
	}
}

func TestMySQLListTablesSQL(t *testing.T) {
	d := MySQLDialect{}

	// no configured database: scope to the connected one
	q, args := d.ListTablesSQL(ReflectConfig{})
	assert.Contains(t, q, "DATABASE()")
	assert.Nil(t, args)

	q, args = d.ListTablesSQL(ReflectConfig{Database: "app"})
	assert.NotContains(t, q, "DATABASE()")
	assert.Equal(t, []any{"app"}, args)
}

func TestMySQLDescribeTableSQL(t *testing.T) {
	d := MySQLDialect{}

	q, args := d.DescribeTableSQL("users", ReflectConfig{})
	assert.Contains(t, q, "DATABASE()")
	assert.Contains(t, q, "ORDER BY c.ordinal_position")
	assert.Equal(t, []any{"users"}, args)

	q, args = d.DescribeTableSQL("users", ReflectConfig{Database: "app"})
	assert.NotContains(t, q, "DATABASE()")
	assert.Equal(t, []any{"app", "users"}, args)
}

func TestMySQLConvertFieldDescription_Extras(t *testing.T) {
	tbl := NewTable("users")
	row := map[string]any{
		"name":        "name",
		"type":        "varchar",
		"null":        int64(0),
		"char_length": int64(120),
		"comment":     "display name",
		"collate":     "utf8mb4_unicode_ci",
		"charset":     "utf8mb4",
	}
	require.NoError(t, MySQLDialect{}.ConvertFieldDescription(tbl, row))

	col := tbl.Column("name")
	require.NotNil(t, col)
	require.NotNil(t, col.Null)
	assert.False(t, *col.Null)
	require.NotNil(t, col.Length)
	assert.Equal(t, 120, *col.Length)
	require.NotNil(t, col.Comment)
	assert.Equal(t, "display name", *col.Comment)
	require.NotNil(t, col.Collate)
	assert.Equal(t, "utf8mb4_unicode_ci", *col.Collate)
	require.NotNil(t, col.Charset)
	assert.Equal(t, "utf8mb4", *col.Charset)
}

func TestMySQLColumnSQL(t *testing.T) {
	tbl := NewTable("users").
		AddColumn("id", "integer").
		AddColumn("name", map[string]any{
			"type": "string", "length": 50, "null": false,
			"charset": "utf8mb4", "collate": "utf8mb4_unicode_ci", "comment": "display name",
		}).
		AddColumn("active", map[string]any{"type": "boolean", "default": 1})

	d := MySQLDialect{}
	tests := []struct {
		column string
		want   string
	}{
		{"id", "`id` int"},
		{"name", "`name` varchar(50) CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci NOT NULL COMMENT 'display name'"},
		{"active", "`active` tinyint(1) DEFAULT 1"}, // no TRUE keyword in MySQL DDL
	}
	for _, tt := range tests {
		got, err := d.ColumnSQL(tbl, tt.column)
		require.NoError(t, err, tt.column)
		assert.Equal(t, tt.want, got, tt.column)
	}
}

func TestMySQLIndexSQL(t *testing.T) {
	tbl := NewTable("posts").
		AddColumn("id", "integer").
		AddColumn("title", map[string]any{"type": "string", "length": 200}).
		AddColumn("body", "text")
	require.NoError(t, tbl.AddIndex("primary", map[string]any{"type": "primary", "columns": []string{"id"}}))
	require.NoError(t, tbl.AddIndex("title_idx", map[string]any{
		"type": "index", "columns": []string{"title"}, "length": map[string]any{"title": 80},
	}))
	require.NoError(t, tbl.AddIndex("title_uq", map[string]any{"type": "unique", "columns": []string{"title"}}))
	require.NoError(t, tbl.AddIndex("body_ft", map[string]any{"type": "fulltext", "columns": []string{"body"}}))
	require.NoError(t, tbl.AddIndex("fk", map[string]any{"type": "foreign", "columns": []string{"id"}}))

	d := MySQLDialect{}
	tests := []struct {
		index string
		want  string
	}{
		{"primary", "PRIMARY KEY (`id`)"},
		{"title_idx", "KEY `title_idx` (`title`(80))"},
		{"title_uq", "UNIQUE KEY `title_uq` (`title`)"},
		{"body_ft", "FULLTEXT KEY `body_ft` (`body`)"},
		{"fk", ""}, // foreign keys need reference metadata and render empty
	}
	for _, tt := range tests {
		got, err := d.IndexSQL(tbl, tt.index)
		require.NoError(t, err, tt.index)
		assert.Equal(t, tt.want, got, tt.index)
	}
}

func TestMySQLCreateSQL_EndToEnd(t *testing.T) {
	tbl := NewTable("users").
		AddColumn("id", "integer").
		AddColumn("name", map[string]any{"type": "string", "length": 50})
	require.NoError(t, tbl.AddIndex("primary", map[string]any{"type": "primary", "columns": []string{"id"}}))

	sql, err := CreateSQL(MySQLDialect{}, tbl)
	require.NoError(t, err)

	want := "CREATE TABLE `users` (\n" +
		"\t`id` int,\n" +
		"\t`name` varchar(50),\n" +
		"\tPRIMARY KEY (`id`)\n" +
		");"
	assert.Equal(t, want, sql)
}
