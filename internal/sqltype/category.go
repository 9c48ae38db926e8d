package sqltype

import "strings"

// Category is the family a SQL data type belongs to.
type Category int

const (
	// CategoryString is the default for text, dates, and unknown SQL types.
	CategoryString Category = iota
	// CategoryInt represents integer numeric types.
	CategoryInt
	// CategoryFloat represents floating-point and fixed-point numeric types.
	CategoryFloat
	// CategoryBoolean represents boolean types.
	CategoryBoolean
	// CategoryJSON represents JSON data types.
	CategoryJSON
)

// CategoryOf classifies a SQL data type string.
// The input is case-insensitive. Size specifiers like (10,2) or (255) are stripped before matching.
func CategoryOf(sqlType string) Category {
	if idx := strings.Index(sqlType, "("); idx != -1 {
		sqlType = sqlType[:idx]
	}
	switch strings.ToUpper(strings.TrimSpace(sqlType)) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT",
		"INTEGER", "BIGINT", "SERIAL", "BIT":
		return CategoryInt
	case "FLOAT", "DOUBLE", "REAL", "DECIMAL", "NUMERIC":
		return CategoryFloat
	case "BOOL", "BOOLEAN":
		return CategoryBoolean
	case "JSON":
		return CategoryJSON
	default:
		return CategoryString
	}
}

// String returns the GraphQL scalar name the category corresponds to.
func (c Category) String() string {
	switch c {
	case CategoryInt:
		return "Int"
	case CategoryFloat:
		return "Float"
	case CategoryBoolean:
		return "Boolean"
	case CategoryJSON:
		return "JSON"
	default:
		return "String"
	}
}

// Compatible reports whether a column generated as declared would be reported by
// the database as applied. MySQL and TiDB store BOOLEAN as TINYINT(1).
func Compatible(declared, applied string) bool {
	want := CategoryOf(declared)
	got := CategoryOf(applied)
	if want == got {
		return true
	}
	if want == CategoryBoolean && got == CategoryInt {
		base := applied
		if idx := strings.Index(base, "("); idx != -1 {
			base = base[:idx]
		}
		return strings.EqualFold(strings.TrimSpace(base), "TINYINT")
	}
	return false
}
