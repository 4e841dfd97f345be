package converter

import (
	"strings"
)

// DefaultExtension is appended to derived output paths.
const DefaultExtension = ".xlsx"

// sqliteSuffixes are removed from an input path before the extension is added.
var sqliteSuffixes = []string{".sqlite3", ".sqlite", ".db"}

// OutputPath derives the workbook path for an input: a trailing .db,
// .sqlite or .sqlite3 (any case) is replaced by ext. Other inputs, such as
// server database names, just get ext appended.
func OutputPath(input, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	lower := strings.ToLower(input)
	for _, suffix := range sqliteSuffixes {
		if strings.HasSuffix(lower, suffix) && len(input) > len(suffix) {
			return input[:len(input)-len(suffix)] + ext
		}
	}
	return input + ext
}
