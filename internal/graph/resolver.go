package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dbsmedya/db2xlsx/internal/logger"
	"github.com/dbsmedya/db2xlsx/internal/schema"
)

// ErrSchemaAccess is returned when an introspection call fails during resolution.
var ErrSchemaAccess = errors.New("schema access failed")

// Resolver walks outgoing foreign keys from a root table.
type Resolver struct {
	schema schema.Introspector
	log    *logger.Logger
}

// NewResolver creates a resolver over the given introspector.
// A nil logger discards output.
func NewResolver(in schema.Introspector, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{schema: in, log: log}
}

// Resolve returns every table transitively reachable from root through
// foreign keys, root included. The caller is expected to have checked that
// root exists. Any introspection failure aborts the whole walk.
func (r *Resolver) Resolve(ctx context.Context, root string) (*TableColumnMap, error) {
	if r.schema == nil {
		return nil, fmt.Errorf("introspector is nil")
	}

	m := NewTableColumnMap()
	if err := r.resolve(ctx, root, m); err != nil {
		return nil, err
	}

	r.log.Debugw("Resolved dependencies", "root", root, "tables", m.Tables())
	if cycle := FindCycle(m); cycle != nil {
		r.log.Warnw("Foreign keys form a cycle; each table is joined once",
			"root", root, "cycle", strings.Join(cycle, " -> "))
	}
	return m, nil
}

// resolve visits one table. The presence check on m comes first and the
// table is registered before any recursion: this is what terminates the
// walk on cyclic foreign keys.
func (r *Resolver) resolve(ctx context.Context, table string, m *TableColumnMap) error {
	if !m.addTable(table) {
		return nil
	}

	keys, err := r.schema.ListImportedKeys(ctx, table)
	if err != nil {
		return fmt.Errorf("%w: table %q: %w", ErrSchemaAccess, table, err)
	}

	var parents []string
	seen := make(map[string]bool)
	for _, key := range keys {
		// A self reference cannot be absorbed by a join; the column stays plain.
		if key.ReferencedTable == table {
			continue
		}
		col := &Column{
			Table:    table,
			Name:     key.Column,
			Imported: &Column{Table: key.ReferencedTable, Name: key.ReferencedColumn},
		}
		if !m.addColumn(col) {
			r.log.Debugw("Column already references another table, ignoring foreign key",
				"table", table, "column", key.Column, "referenced", key.ReferencedTable)
			continue
		}
		if !seen[key.ReferencedTable] {
			seen[key.ReferencedTable] = true
			parents = append(parents, key.ReferencedTable)
		}
	}

	cols, err := r.schema.ListColumns(ctx, table)
	if err != nil {
		return fmt.Errorf("%w: table %q: %w", ErrSchemaAccess, table, err)
	}
	for _, c := range cols {
		m.addColumn(&Column{Table: table, Name: c.Name})
	}

	for _, parent := range parents {
		if err := r.resolve(ctx, parent, m); err != nil {
			return err
		}
	}
	return nil
}
