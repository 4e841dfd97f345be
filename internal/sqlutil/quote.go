// Package sqlutil provides SQL dialect helpers for db2xlsx.
package sqlutil

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Dialect captures the few syntax differences between supported engines:
// identifier quoting and how a multi-table INNER JOIN operand is written.
type Dialect struct {
	Name string

	quote func(string) string
	// nestedJoin wraps several join tables as "(a CROSS JOIN b)" because the
	// engine rejects an ON clause after a bare comma list.
	nestedJoin bool
}

// Supported dialects.
var (
	SQLite   = Dialect{Name: "sqlite", quote: quoteDouble}
	MySQL    = Dialect{Name: "mysql", quote: QuoteIdentifier, nestedJoin: true}
	Postgres = Dialect{Name: "postgres", quote: pq.QuoteIdentifier, nestedJoin: true}
)

// ForDriver returns the dialect for a configured driver name.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case SQLite.Name:
		return SQLite, nil
	case MySQL.Name:
		return MySQL, nil
	case Postgres.Name:
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unsupported driver %q", driver)
}

// QuoteIdentifier quotes a MySQL identifier (table name, column name) with backticks.
// It escapes any existing backticks by doubling them.
// Example: "my_table" -> "`my_table`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// quoteDouble quotes an identifier the ANSI way, doubling embedded quotes.
func quoteDouble(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Quote quotes a single identifier for this dialect.
func (d Dialect) Quote(name string) string {
	if d.quote == nil {
		return quoteDouble(name)
	}
	return d.quote(name)
}

// Qualified renders table.column with both parts quoted.
func (d Dialect) Qualified(table, column string) string {
	return d.Quote(table) + "." + d.Quote(column)
}

// JoinList renders the table operand of "INNER JOIN <tables> ON ...".
// SQLite accepts a plain comma list there; the server engines get a
// parenthesized cross join, which has the same meaning.
func (d Dialect) JoinList(tables []string) string {
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = d.Quote(t)
	}
	if d.nestedJoin && len(quoted) > 1 {
		return "(" + strings.Join(quoted, " CROSS JOIN ") + ")"
	}
	return strings.Join(quoted, ", ")
}

// SelectAll renders the verbatim dump query for one table.
func (d Dialect) SelectAll(table string) string {
	return "SELECT * FROM " + d.Quote(table)
}

// CountAll renders a row count query for one table.
func (d Dialect) CountAll(table string) string {
	return "SELECT COUNT(*) FROM " + d.Quote(table)
}
