// Package schema reads table, column and foreign-key metadata from a
// source database.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dbsmedya/db2xlsx/internal/config"
)

// ErrNoSuchTable is returned when a requested table is absent from the schema.
var ErrNoSuchTable = errors.New("no such table or view")

// ColumnInfo is one column of a table as reported by the catalog.
type ColumnInfo struct {
	Name string
	Type string
}

// ImportedKey is one column of an outgoing foreign key: Column in the
// inspected table references ReferencedTable.ReferencedColumn.
type ImportedKey struct {
	ReferencedTable  string
	ReferencedColumn string
	Column           string
}

// Introspector exposes the catalog queries the resolver and orchestrator need.
type Introspector interface {
	// ListTables returns tables and views in the engine's enumeration order.
	ListTables(ctx context.Context) ([]string, error)
	// ListColumns returns a table's columns in declaration order.
	ListColumns(ctx context.Context, table string) ([]ColumnInfo, error)
	// ListImportedKeys returns a table's outgoing foreign-key columns,
	// ordered by constraint then position within the constraint.
	ListImportedKeys(ctx context.Context, table string) ([]ImportedKey, error)
}

// New returns the introspector for a driver. schemaName is only used by postgres.
func New(driver string, db *sql.DB, schemaName string, timeout time.Duration) (Introspector, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	base := catalog{db: db, queryTimeout: timeout}
	switch driver {
	case config.DriverSQLite:
		return &SQLite{catalog: base}, nil
	case config.DriverMySQL:
		return &MySQL{catalog: base}, nil
	case config.DriverPostgres:
		if schemaName == "" {
			schemaName = "public"
		}
		return &Postgres{catalog: base, schema: schemaName}, nil
	}
	return nil, fmt.Errorf("unsupported driver %q", driver)
}

// TableExists reports whether name is one of the tables listed by in.
func TableExists(ctx context.Context, in Introspector, name string) (bool, error) {
	tables, err := in.ListTables(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if t == name {
			return true, nil
		}
	}
	return false, nil
}

// catalog holds what every engine-specific introspector shares.
type catalog struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// withTimeout returns a context with the query timeout applied.
// If the parent context already has a shorter deadline, that deadline is preserved.
func (c *catalog) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if c.queryTimeout <= 0 {
		return context.WithCancel(parent)
	}
	if deadline, ok := parent.Deadline(); ok && time.Until(deadline) <= c.queryTimeout {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.queryTimeout)
}

// queryStrings runs a single-column query and collects the values.
func (c *catalog) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// queryColumns runs a (name, type) query.
func (c *catalog) queryColumns(ctx context.Context, query string, args ...interface{}) ([]ColumnInfo, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

// queryKeys runs a (referenced table, referenced column, column) query.
func (c *catalog) queryKeys(ctx context.Context, query string, args ...interface{}) ([]ImportedKey, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ImportedKey
	for rows.Next() {
		var k ImportedKey
		if err := rows.Scan(&k.ReferencedTable, &k.ReferencedColumn, &k.Column); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
