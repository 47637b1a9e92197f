package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteConvertColumn(t *testing.T) {
	tests := []struct {
		native string
		want   Column
	}{
		{"INTEGER", Column{Type: TypeInteger, Length: intp(10)}},
		{"BIGINT", Column{Type: TypeBigInteger, Length: intp(20)}},
		{"UNSIGNED BIG INT", Column{Type: TypeInteger, Length: intp(10)}}, // INTEGER affinity
		{"VARCHAR(30)", Column{Type: TypeString, Length: intp(30)}},
		{"NVARCHAR(100)", Column{Type: TypeString, Length: intp(100)}},
		{"CHARACTER(20)", Column{Type: TypeString, Fixed: boolp(true), Length: intp(20)}},
		{"CLOB", Column{Type: TypeString}},
		{"TEXT", Column{Type: TypeText}},
		{"BLOB", Column{Type: TypeBinary}},
		{"REAL", Column{Type: TypeFloat}},
		{"DOUBLE", Column{Type: TypeFloat}},
		{"FLOAT", Column{Type: TypeFloat}},
		{"NUMERIC", Column{Type: TypeDecimal}},
		{"DECIMAL(10,5)", Column{Type: TypeDecimal}},
		{"BOOLEAN", Column{Type: TypeBoolean}},
		{"DATE", Column{Type: TypeDate}},
		{"DATETIME", Column{Type: TypeDatetime}},
	}
	for _, tt := range tests {
		got, err := SQLiteDialect{}.ConvertColumn(tt.native)
		require.NoError(t, err, tt.native)
		assert.Equal(t, tt.want.Type, got.Type, tt.native)
		assertIntPtr(t, tt.want.Length, got.Length, tt.native)
		assertBoolPtr(t, tt.want.Fixed, got.Fixed, tt.native)
	}
}

func TestSQLiteListTablesSQL(t *testing.T) {
	q, args := SQLiteDialect{}.ListTablesSQL(ReflectConfig{Schema: "ignored"})
	assert.Contains(t, q, "sqlite_master")
	assert.Contains(t, q, "NOT LIKE 'sqlite_%'")
	assert.Nil(t, args)
}

func TestSQLiteDescribeTableSQL(t *testing.T) {
	q, args := SQLiteDialect{}.DescribeTableSQL("users", ReflectConfig{})
	assert.Equal(t, `PRAGMA table_info("users")`, q)
	assert.Nil(t, args)

	// embedded quotes double rather than break out of the identifier
	q, _ = SQLiteDialect{}.DescribeTableSQL(`odd"name`, ReflectConfig{})
	assert.Equal(t, `PRAGMA table_info("odd""name")`, q)
}

func TestSQLiteConvertFieldDescription_PragmaRow(t *testing.T) {
	tbl := NewTable("users")
	d := SQLiteDialect{}

	require.NoError(t, d.ConvertFieldDescription(tbl, map[string]any{
		"cid": int64(0), "name": "id", "type": "INTEGER",
		"notnull": int64(1), "dflt_value": nil, "pk": int64(1),
	}))
	require.NoError(t, d.ConvertFieldDescription(tbl, map[string]any{
		"cid": int64(1), "name": "title", "type": "VARCHAR(80)",
		"notnull": int64(0), "dflt_value": "'untitled'", "pk": int64(0),
	}))

	id := tbl.Column("id")
	require.NotNil(t, id)
	assert.Equal(t, TypeInteger, id.Type)
	require.NotNil(t, id.Null)
	assert.False(t, *id.Null)
	assert.Nil(t, id.Default)

	title := tbl.Column("title")
	require.NotNil(t, title)
	assert.Equal(t, TypeString, title.Type)
	require.NotNil(t, title.Null)
	assert.True(t, *title.Null)
	assert.Equal(t, "'untitled'", title.Default)
	require.NotNil(t, title.Length)
	assert.Equal(t, 80, *title.Length)

	assert.Equal(t, []string{"id"}, tbl.PrimaryKey())
}

func TestSQLiteConvertFieldDescription_QuotedBooleanDefault(t *testing.T) {
	// PRAGMA table_info reports defaults as written in the DDL, so a quoted
	// 'true' literal must still normalize to 1.
	tbl := NewTable("users")
	require.NoError(t, SQLiteDialect{}.ConvertFieldDescription(tbl, map[string]any{
		"cid": int64(0), "name": "active", "type": "BOOLEAN",
		"notnull": int64(0), "dflt_value": "'true'", "pk": int64(0),
	}))

	col := tbl.Column("active")
	require.NotNil(t, col)
	assert.Equal(t, TypeBoolean, col.Type)
	assert.Equal(t, 1, col.Default)
}

func TestSQLiteDescribeThroughCollection(t *testing.T) {
	conn := &stubConn{
		dialect: SQLiteDialect{},
		responses: [][]map[string]any{{
			{"cid": int64(0), "name": "id", "type": "INTEGER", "notnull": int64(1), "pk": int64(1)},
			{"cid": int64(1), "name": "body", "type": "TEXT", "notnull": int64(0), "pk": int64(0)},
		}},
	}
	coll := NewCollection(conn, ReflectConfig{})

	tbl, err := coll.Describe(context.Background(), "notes")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "body"}, tbl.Columns())
	assert.Equal(t, []string{"id"}, tbl.PrimaryKey())

	require.Len(t, conn.queries, 1)
	assert.Equal(t, `PRAGMA table_info("notes")`, conn.queries[0])
}

func TestSQLiteCreateSQL_EndToEnd(t *testing.T) {
	tbl := NewTable("notes").
		AddColumn("id", "integer").
		AddColumn("body", "text").
		AddColumn("tag", map[string]any{"type": "string", "length": 16})
	require.NoError(t, tbl.AddIndex("primary", map[string]any{"type": "primary", "columns": []string{"id"}}))
	require.NoError(t, tbl.AddIndex("tag_uq", map[string]any{"type": "unique", "columns": []string{"tag"}}))
	require.NoError(t, tbl.AddIndex("body_ft", map[string]any{"type": "fulltext", "columns": []string{"body"}}))

	sql, err := CreateSQL(SQLiteDialect{}, tbl)
	require.NoError(t, err)

	want := "CREATE TABLE \"notes\" (\n" +
		"\t\"id\" integer,\n" +
		"\t\"body\" text,\n" +
		"\t\"tag\" varchar(16),\n" +
		"\tPRIMARY KEY (\"id\"),\n" +
		"\tCONSTRAINT \"tag_uq\" UNIQUE (\"tag\")\n" +
		");"
	assert.Equal(t, want, sql)
}
