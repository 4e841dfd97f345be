// Package graph resolves the foreign-key dependencies of a table and
// synthesizes the join query that flattens them into one sheet.
package graph

import (
	"github.com/elliotchance/orderedmap/v2"
)

// Column is one column of a table. Imported is set when the column is a
// foreign key; it points at the referenced column of the parent table.
type Column struct {
	Table    string
	Name     string
	Imported *Column
}

// IsForeignKey reports whether the column references another table.
func (c *Column) IsForeignKey() bool {
	return c.Imported != nil
}

// TableColumnMap holds every table reached by one resolution together with
// its columns. Tables and columns iterate in discovery order.
type TableColumnMap struct {
	tables *orderedmap.OrderedMap[string, *orderedmap.OrderedMap[string, *Column]]
}

// NewTableColumnMap creates an empty map.
func NewTableColumnMap() *TableColumnMap {
	return &TableColumnMap{
		tables: orderedmap.NewOrderedMap[string, *orderedmap.OrderedMap[string, *Column]](),
	}
}

// Has reports whether table is a key of the map.
func (m *TableColumnMap) Has(table string) bool {
	_, ok := m.tables.Get(table)
	return ok
}

// Len returns the number of tables in the map.
func (m *TableColumnMap) Len() int {
	return m.tables.Len()
}

// Tables returns table names in discovery order.
func (m *TableColumnMap) Tables() []string {
	out := make([]string, 0, m.tables.Len())
	for el := m.tables.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

// Columns returns the columns of table in discovery order, or nil when
// the table is not in the map.
func (m *TableColumnMap) Columns(table string) []*Column {
	cols, ok := m.tables.Get(table)
	if !ok {
		return nil
	}
	out := make([]*Column, 0, cols.Len())
	for el := cols.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Column looks up one column of a table.
func (m *TableColumnMap) Column(table, name string) (*Column, bool) {
	cols, ok := m.tables.Get(table)
	if !ok {
		return nil, false
	}
	return cols.Get(name)
}

// Parents returns the distinct tables referenced by the foreign keys of
// table, in order of first appearance.
func (m *TableColumnMap) Parents(table string) []string {
	var parents []string
	seen := make(map[string]bool)
	for _, col := range m.Columns(table) {
		if !col.IsForeignKey() || seen[col.Imported.Table] {
			continue
		}
		seen[col.Imported.Table] = true
		parents = append(parents, col.Imported.Table)
	}
	return parents
}

// addTable registers table with no columns. It returns false if the table
// was already present.
func (m *TableColumnMap) addTable(table string) bool {
	if m.Has(table) {
		return false
	}
	m.tables.Set(table, orderedmap.NewOrderedMap[string, *Column]())
	return true
}

// addColumn appends col to its table unless a column with the same name is
// already recorded. It returns false when the column was skipped.
func (m *TableColumnMap) addColumn(col *Column) bool {
	cols, ok := m.tables.Get(col.Table)
	if !ok {
		return false
	}
	if _, exists := cols.Get(col.Name); exists {
		return false
	}
	cols.Set(col.Name, col)
	return true
}
