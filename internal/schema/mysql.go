package schema

import (
	"context"
	"fmt"
)

// MySQL introspects the current database (the one named in the DSN)
// through information_schema.
type MySQL struct {
	catalog
}

const (
	mysqlTablesQuery = `
		SELECT TABLE_NAME
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_TYPE IN ('BASE TABLE', 'VIEW')
		ORDER BY TABLE_NAME`

	mysqlColumnsQuery = `
		SELECT COLUMN_NAME, DATA_TYPE
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	mysqlForeignKeysQuery = `
		SELECT REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME, COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE()
		AND TABLE_NAME = ?
		AND REFERENCED_TABLE_NAME IS NOT NULL
		AND REFERENCED_TABLE_SCHEMA = DATABASE()
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`
)

// ListTables returns base tables and views ordered by name.
func (m *MySQL) ListTables(ctx context.Context) ([]string, error) {
	tables, err := m.queryStrings(ctx, mysqlTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// ListColumns returns the columns of table in ordinal order.
func (m *MySQL) ListColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	cols, err := m.queryColumns(ctx, mysqlColumnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %q: %w", table, err)
	}
	return cols, nil
}

// ListImportedKeys returns the outgoing foreign keys of table that stay
// inside the current database.
func (m *MySQL) ListImportedKeys(ctx context.Context, table string) ([]ImportedKey, error) {
	keys, err := m.queryKeys(ctx, mysqlForeignKeysQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys of %q: %w", table, err)
	}
	return keys, nil
}
