package schema

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLite introspects a SQLite database through sqlite_master and the
// table-valued pragma functions.
type SQLite struct {
	catalog
}

const (
	sqliteTablesQuery = `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY rowid`

	sqliteColumnsQuery = `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`

	sqlitePrimaryKeyQuery = `SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`

	sqliteTableNameQuery = `
		SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view')
		AND name = ? COLLATE NOCASE`

	sqliteColumnNameQuery = `SELECT name FROM pragma_table_info(?) WHERE name = ? COLLATE NOCASE`

	sqliteForeignKeysQuery = `
		SELECT id, "table", "from", "to"
		FROM pragma_foreign_key_list(?)
		ORDER BY id, seq`
)

// ListTables returns tables and views in creation order, skipping sqlite_ internals.
func (s *SQLite) ListTables(ctx context.Context) ([]string, error) {
	tables, err := s.queryStrings(ctx, sqliteTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

// ListColumns returns the columns of table in declaration order.
func (s *SQLite) ListColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	cols, err := s.queryColumns(ctx, sqliteColumnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %q: %w", table, err)
	}
	return cols, nil
}

// ListImportedKeys returns the outgoing foreign keys of table.
// A foreign key declared without target columns ("REFERENCES parent")
// targets the parent's primary key, which is looked up here.
func (s *SQLite) ListImportedKeys(ctx context.Context, table string) ([]ImportedKey, error) {
	type fkRow struct {
		id     int64
		parent string
		from   string
		to     sql.NullString
	}

	rows, err := func() ([]fkRow, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		rs, err := s.db.QueryContext(ctx, sqliteForeignKeysQuery, table)
		if err != nil {
			return nil, err
		}
		defer rs.Close()

		var out []fkRow
		for rs.Next() {
			var r fkRow
			if err := rs.Scan(&r.id, &r.parent, &r.from, &r.to); err != nil {
				return nil, err
			}
			out = append(out, r)
		}
		return out, rs.Err()
	}()
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys of %q: %w", table, err)
	}

	keys := make([]ImportedKey, 0, len(rows))
	pkCache := make(map[string][]string)
	names := make(map[string]string)
	position := make(map[int64]int)
	for _, r := range rows {
		seq := position[r.id]
		position[r.id]++

		parent, ok := names[r.parent]
		if !ok {
			parent, err = s.canonicalName(ctx, sqliteTableNameQuery, r.parent)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve table %q: %w", r.parent, err)
			}
			names[r.parent] = parent
		}
		r.parent = parent

		target := r.to.String
		if r.to.Valid && target != "" {
			target, err = s.canonicalName(ctx, sqliteColumnNameQuery, r.parent, target)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve column %s.%s: %w", r.parent, r.to.String, err)
			}
		} else {
			pk, ok := pkCache[r.parent]
			if !ok {
				pk, err = s.queryStrings(ctx, sqlitePrimaryKeyQuery, r.parent)
				if err != nil {
					return nil, fmt.Errorf("failed to read primary key of %q: %w", r.parent, err)
				}
				pkCache[r.parent] = pk
			}
			if seq >= len(pk) {
				return nil, fmt.Errorf("foreign key %s.%s references %q which has no matching primary key column",
					table, r.from, r.parent)
			}
			target = pk[seq]
		}

		keys = append(keys, ImportedKey{
			ReferencedTable:  r.parent,
			ReferencedColumn: target,
			Column:           r.from,
		})
	}
	return keys, nil
}

// canonicalName returns the declared spelling of an identifier that a
// foreign key may spell in a different letter case. The last argument is
// returned unchanged when nothing matches (a dangling reference).
func (s *SQLite) canonicalName(ctx context.Context, query string, args ...interface{}) (string, error) {
	found, err := s.queryStrings(ctx, query, args...)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return args[len(args)-1].(string), nil
	}
	return found[0], nil
}
