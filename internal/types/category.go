// Package types maps driver-reported column types onto spreadsheet cell
// categories and converts scanned values into cell values.
package types

import "strings"

// Category is the closed set of cell kinds a result column can produce.
type Category int

// The zero value is CategoryBytes so an unmapped type degrades to the
// base64 fallback instead of failing.
const (
	CategoryBytes Category = iota
	CategoryInteger
	CategoryFloat
	CategoryText
)

func (c Category) String() string {
	switch c {
	case CategoryInteger:
		return "integer"
	case CategoryFloat:
		return "float"
	case CategoryText:
		return "text"
	default:
		return "bytes"
	}
}

// typeCategories holds exact (normalized) type names reported by the
// sqlite, mysql and postgres drivers.
var typeCategories = map[string]Category{
	// integer family
	"INTEGER":   CategoryInteger,
	"INT":       CategoryInteger,
	"TINYINT":   CategoryInteger,
	"SMALLINT":  CategoryInteger,
	"MEDIUMINT": CategoryInteger,
	"BIGINT":    CategoryInteger,
	"INT2":      CategoryInteger,
	"INT4":      CategoryInteger,
	"INT8":      CategoryInteger,
	"SERIAL":    CategoryInteger,
	"BIGSERIAL": CategoryInteger,
	"YEAR":      CategoryInteger,
	"BOOL":      CategoryInteger,
	"BOOLEAN":   CategoryInteger,

	// floating-point family
	"REAL":             CategoryFloat,
	"FLOAT":            CategoryFloat,
	"FLOAT4":           CategoryFloat,
	"FLOAT8":           CategoryFloat,
	"DOUBLE":           CategoryFloat,
	"DOUBLE PRECISION": CategoryFloat,
	"NUMERIC":          CategoryFloat,
	"DECIMAL":          CategoryFloat,

	// text family
	"TEXT":              CategoryText,
	"TINYTEXT":          CategoryText,
	"MEDIUMTEXT":        CategoryText,
	"LONGTEXT":          CategoryText,
	"CHAR":              CategoryText,
	"NCHAR":             CategoryText,
	"VARCHAR":           CategoryText,
	"NVARCHAR":          CategoryText,
	"BPCHAR":            CategoryText,
	"CHARACTER":         CategoryText,
	"CHARACTER VARYING": CategoryText,
	"CLOB":              CategoryText,
	"NAME":              CategoryText,
	"ENUM":              CategoryText,
	"SET":               CategoryText,
	"JSON":              CategoryText,
	"JSONB":             CategoryText,
	"UUID":              CategoryText,
	"DATE":              CategoryText,
	"TIME":              CategoryText,
	"TIMETZ":            CategoryText,
	"DATETIME":          CategoryText,
	"TIMESTAMP":         CategoryText,
	"TIMESTAMPTZ":       CategoryText,

	// binary family
	"BLOB":       CategoryBytes,
	"TINYBLOB":   CategoryBytes,
	"MEDIUMBLOB": CategoryBytes,
	"LONGBLOB":   CategoryBytes,
	"BINARY":     CategoryBytes,
	"VARBINARY":  CategoryBytes,
	"BYTEA":      CategoryBytes,
	"BIT":        CategoryBytes,
}

// affinityRules are SQLite's column affinity rules, applied in order to
// declared types that are not listed above (e.g. "UNSIGNED BIG INT",
// "VARYING CHARACTER").
var affinityRules = []struct {
	contains string
	category Category
}{
	{"INT", CategoryInteger},
	{"CHAR", CategoryText},
	{"CLOB", CategoryText},
	{"TEXT", CategoryText},
	{"BLOB", CategoryBytes},
	{"REAL", CategoryFloat},
	{"FLOA", CategoryFloat},
	{"DOUB", CategoryFloat},
}

// Classify maps a driver database type name to a cell category.
// Unknown and empty names fall back to CategoryBytes.
func Classify(typeName string) Category {
	name := normalizeTypeName(typeName)
	if name == "" {
		return CategoryBytes
	}
	if c, ok := typeCategories[name]; ok {
		return c
	}
	for _, rule := range affinityRules {
		if strings.Contains(name, rule.contains) {
			return rule.category
		}
	}
	return CategoryBytes
}

// normalizeTypeName upper-cases a type name and strips length/precision
// arguments and the UNSIGNED/ZEROFILL modifiers: "varchar(20)" -> "VARCHAR".
func normalizeTypeName(typeName string) string {
	name := strings.ToUpper(strings.TrimSpace(typeName))
	if i := strings.IndexByte(name, '('); i >= 0 {
		tail := ""
		if j := strings.IndexByte(name[i:], ')'); j >= 0 {
			tail = name[i+j+1:]
		}
		name = name[:i] + tail
	}
	name = strings.ReplaceAll(name, "UNSIGNED", "")
	name = strings.ReplaceAll(name, "ZEROFILL", "")
	return strings.Join(strings.Fields(name), " ")
}
