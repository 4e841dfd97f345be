package types

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CellValue converts a value scanned from the driver into the value stored
// in a spreadsheet cell for the given column category.
// A nil result means the cell stays unset (database NULL).
//
// Engines with dynamic typing (SQLite) may hand back a value whose Go type
// disagrees with the declared column type; those values are kept as text
// rather than dropped.
func CellValue(c Category, v interface{}) interface{} {
	if v == nil {
		return nil
	}
	switch c {
	case CategoryInteger:
		if i, ok := ToInt64(v); ok {
			return i
		}
		if f, ok := ToFloat64(v); ok {
			return f
		}
		return ToText(v)
	case CategoryFloat:
		if f, ok := ToFloat64(v); ok {
			return f
		}
		return ToText(v)
	case CategoryText:
		return ToText(v)
	default:
		return EncodeBytes(v)
	}
}

// ToInt64 converts an interface{} to int64.
// Supports the sized int and uint types, bool, and decimal strings or byte slices.
// Unsigned values above MaxInt64 are rejected.
// Floats convert only when they carry no fractional part.
func ToInt64(v interface{}) (int64, bool) {
	switch i := v.(type) {
	case int64:
		return i, true
	case int:
		return int64(i), true
	case int32:
		return int64(i), true
	case int16:
		return int64(i), true
	case int8:
		return int64(i), true
	case uint:
		if uint64(i) > math.MaxInt64 {
			return 0, false
		}
		return int64(i), true
	case uint64:
		if i > math.MaxInt64 {
			return 0, false
		}
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint8:
		return int64(i), true
	case bool:
		if i {
			return 1, true
		}
		return 0, true
	case float64:
		if i == float64(int64(i)) {
			return int64(i), true
		}
		return 0, false
	case float32:
		if i == float32(int64(i)) {
			return int64(i), true
		}
		return 0, false
	case []byte:
		return parseInt(string(i))
	case string:
		return parseInt(i)
	default:
		return 0, false
	}
}

func parseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil
}

// ToFloat64 converts numeric values, decimal strings and byte slices to float64.
func ToFloat64(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	case uint64:
		return float64(f), true
	case uint:
		return float64(f), true
	case []byte:
		return parseFloat(string(f))
	case string:
		return parseFloat(f)
	default:
		if i, ok := ToInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// ToText renders a value as the string stored in a text cell.
func ToText(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339Nano)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

// EncodeBytes returns the standard base64 encoding of a value's raw bytes.
// Non-byte values are encoded from their text form.
func EncodeBytes(v interface{}) string {
	switch b := v.(type) {
	case []byte:
		return base64.StdEncoding.EncodeToString(b)
	case string:
		return base64.StdEncoding.EncodeToString([]byte(b))
	default:
		return base64.StdEncoding.EncodeToString([]byte(ToText(v)))
	}
}
