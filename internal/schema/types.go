// Package schema models database table structure independently of any SQL
// backend and translates it to and from backend-specific SQL via dialects.
//
// The Table type holds ordered columns and named indexes. A Dialect turns a
// Table into CREATE TABLE DDL and, in the other direction, turns metadata
// catalog rows back into Table instances. The Collection orchestrates a
// reflection pass over a live connection.
package schema

// ColumnType is a backend-independent column type. Dialects map native type
// keywords (varchar, bigserial, tinyint, …) onto this closed set and back.
type ColumnType string

const (
	TypeInteger    ColumnType = "integer"
	TypeBigInteger ColumnType = "biginteger"
	TypeString     ColumnType = "string"
	TypeText       ColumnType = "text"
	TypeDecimal    ColumnType = "decimal"
	TypeFloat      ColumnType = "float"
	TypeBinary     ColumnType = "binary"
	TypeDate       ColumnType = "date"
	TypeTime       ColumnType = "time"
	TypeDatetime   ColumnType = "datetime"
	TypeBoolean    ColumnType = "boolean"
)

// IndexType is one of the five recognised index kinds. The set is closed:
// Table.AddIndex rejects anything else.
type IndexType string

const (
	IndexPrimary  IndexType = "primary"
	IndexPlain    IndexType = "index"
	IndexUnique   IndexType = "unique"
	IndexForeign  IndexType = "foreign"
	IndexFulltext IndexType = "fulltext"
)

func (t IndexType) valid() bool {
	switch t {
	case IndexPrimary, IndexPlain, IndexUnique, IndexForeign, IndexFulltext:
		return true
	}
	return false
}

// Column is one column definition. Pointer fields distinguish "unspecified"
// (nil) from an explicit value; AddColumn leaves unset attributes nil.
type Column struct {
	Type    ColumnType `json:"type"`
	Length  *int       `json:"length"`
	Null    *bool      `json:"null"`
	Default any        `json:"default"`
	Fixed   *bool      `json:"fixed"`
	Comment *string    `json:"comment"`
	Collate *string    `json:"collate"`
	Charset *string    `json:"charset"`
}

// Index is one index/key definition. Lengths carries optional per-column
// prefix lengths (MySQL-style).
type Index struct {
	Type    IndexType      `json:"type"`
	Columns []string       `json:"columns"`
	Lengths map[string]int `json:"length,omitempty"`
}

// mergeColumnAttrs projects attrs onto the fixed set of recognised column
// attributes. Unknown keys are silently dropped; absent keys stay unset.
func mergeColumnAttrs(attrs map[string]any) Column {
	var col Column
	for key, v := range attrs {
		if v == nil {
			continue
		}
		switch key {
		case "type":
			if s, ok := toString(v); ok {
				col.Type = ColumnType(s)
			}
		case "length":
			if n, ok := toInt(v); ok {
				col.Length = &n
			}
		case "null":
			b := truthy(v)
			col.Null = &b
		case "default":
			col.Default = v
		case "fixed":
			b := truthy(v)
			col.Fixed = &b
		case "comment":
			if s, ok := toString(v); ok {
				col.Comment = &s
			}
		case "collate":
			if s, ok := toString(v); ok {
				col.Collate = &s
			}
		case "charset":
			if s, ok := toString(v); ok {
				col.Charset = &s
			}
		}
	}
	return col
}

// mergeIndexAttrs projects attrs onto the fixed set of recognised index
// attributes, applying the same drop-unknown rule as mergeColumnAttrs.
func mergeIndexAttrs(attrs map[string]any) Index {
	var idx Index
	for key, v := range attrs {
		if v == nil {
			continue
		}
		switch key {
		case "type":
			if s, ok := toString(v); ok {
				idx.Type = IndexType(s)
			}
		case "columns":
			idx.Columns = toStringSlice(v)
		case "length":
			idx.Lengths = toIntMap(v)
		}
	}
	return idx
}

// normalizeAttrs turns the shorthand forms accepted by AddColumn/AddIndex
// into a plain attribute map. A bare string means {type: s}.
func normalizeAttrs(attrs any) map[string]any {
	switch a := attrs.(type) {
	case nil:
		return map[string]any{}
	case string:
		return map[string]any{"type": a}
	case ColumnType:
		return map[string]any{"type": string(a)}
	case IndexType:
		return map[string]any{"type": string(a)}
	case map[string]any:
		return a
	default:
		return map[string]any{}
	}
}

// --- value coercion helpers shared by the merge functions and dialects ---

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	case ColumnType:
		return string(x), true
	case IndexType:
		return string(x), true
	}
	return "", false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int8:
		return int(x), true
	case int16:
		return int(x), true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case uint:
		return int(x), true
	case uint8:
		return int(x), true
	case uint16:
		return int(x), true
	case uint32:
		return int(x), true
	case uint64:
		return int(x), true
	case float32:
		return int(x), true
	case float64:
		return int(x), true
	case *int:
		if x == nil {
			return 0, false
		}
		return *x, true
	case string:
		return atoi(x)
	case []byte:
		return atoi(string(x))
	}
	return 0, false
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// truthy interprets the loose boolean encodings metadata catalogs produce:
// real booleans, numeric 0/1, and strings like "YES" or "true".
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return truthyString(x)
	case []byte:
		return truthyString(string(x))
	}
	if n, ok := toInt(v); ok {
		return n != 0
	}
	return false
}

func truthyString(s string) bool {
	switch s {
	case "1", "t", "T", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	}
	return false
}

func toStringSlice(v any) []string {
	switch x := v.(type) {
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	case string:
		return []string{x}
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := toString(e); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func toIntMap(v any) map[string]int {
	switch x := v.(type) {
	case map[string]int:
		out := make(map[string]int, len(x))
		for k, n := range x {
			out[k] = n
		}
		return out
	case map[string]any:
		out := make(map[string]int, len(x))
		for k, e := range x {
			if n, ok := toInt(e); ok {
				out[k] = n
			}
		}
		return out
	}
	return nil
}
