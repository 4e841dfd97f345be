package schema

import (
	"context"
	"fmt"
)

// Postgres introspects one schema of a PostgreSQL database.
type Postgres struct {
	catalog
	schema string
}

const (
	postgresTablesQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		AND table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY table_name`

	postgresColumnsQuery = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1
		AND table_name = $2
		ORDER BY ordinal_position`

	// information_schema.constraint_column_usage loses the pairing of
	// composite key columns, so the catalog arrays are unnested together.
	postgresForeignKeysQuery = `
		SELECT pt.relname::text, pa.attname::text, ca.attname::text
		FROM pg_constraint con
		JOIN pg_class ct ON ct.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = ct.relnamespace
		JOIN pg_class pt ON pt.oid = con.confrelid AND pt.relnamespace = n.oid
		CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(child_att, parent_att, pos)
		JOIN pg_attribute ca ON ca.attrelid = con.conrelid AND ca.attnum = k.child_att
		JOIN pg_attribute pa ON pa.attrelid = con.confrelid AND pa.attnum = k.parent_att
		WHERE con.contype = 'f'
		AND n.nspname = $1
		AND ct.relname = $2
		ORDER BY con.conname, k.pos`
)

// Schema returns the inspected schema name.
func (p *Postgres) Schema() string {
	return p.schema
}

// ListTables returns base tables and views of the schema ordered by name.
func (p *Postgres) ListTables(ctx context.Context) ([]string, error) {
	tables, err := p.queryStrings(ctx, postgresTablesQuery, p.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// ListColumns returns the columns of table in ordinal order.
func (p *Postgres) ListColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	cols, err := p.queryColumns(ctx, postgresColumnsQuery, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %q: %w", table, err)
	}
	return cols, nil
}

// ListImportedKeys returns the outgoing foreign keys of table whose
// referenced table lives in the same schema.
func (p *Postgres) ListImportedKeys(ctx context.Context, table string) ([]ImportedKey, error) {
	keys, err := p.queryKeys(ctx, postgresForeignKeysQuery, p.schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys of %q: %w", table, err)
	}
	return keys, nil
}
