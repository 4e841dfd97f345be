package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dbsmedya/db2xlsx/internal/sqlutil"
)

// DefaultSheetSeparator joins table names into a sheet name.
const DefaultSheetSeparator = "&"

// ColumnRef names a column of a specific table.
type ColumnRef struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// String returns the unquoted table.column form used for sheet headers.
func (c ColumnRef) String() string {
	return c.Table + "." + c.Column
}

// Condition is one equality of the join: Child's foreign key column equals
// Parent's referenced column.
type Condition struct {
	Child  ColumnRef `json:"child" yaml:"child"`
	Parent ColumnRef `json:"parent" yaml:"parent"`
}

func (c Condition) String() string {
	return c.Child.String() + " = " + c.Parent.String()
}

// JoinPlan is the query shape that flattens a root table and everything it
// references into one result set.
type JoinPlan struct {
	Root       string      `json:"root" yaml:"root"`
	Tables     []string    `json:"tables" yaml:"tables"`
	Projection []ColumnRef `json:"projection" yaml:"projection"`
	JoinTables []string    `json:"join_tables,omitempty" yaml:"join_tables,omitempty"`
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Synthesize builds the join plan for root from a resolved map.
func Synthesize(root string, m *TableColumnMap) (*JoinPlan, error) {
	if m == nil || !m.Has(root) {
		return nil, fmt.Errorf("root table %q is not in the dependency map", root)
	}

	plan := &JoinPlan{
		Root:   root,
		Tables: m.Tables(),
	}

	// Foreign key columns are left out; the referenced table supplies the value.
	for _, table := range plan.Tables {
		for _, col := range m.Columns(table) {
			if col.IsForeignKey() {
				continue
			}
			plan.Projection = append(plan.Projection, ColumnRef{Table: table, Column: col.Name})
		}
	}
	if len(plan.Projection) == 0 {
		return nil, fmt.Errorf("table %q has no columns to select", root)
	}

	visited := make(map[string]bool)
	plan.collectConditions(root, m, visited)

	return plan, nil
}

// collectConditions emits the conditions owned by table, then descends into
// the referenced tables. Each table's conditions are emitted once.
func (p *JoinPlan) collectConditions(table string, m *TableColumnMap, visited map[string]bool) {
	if visited[table] {
		return
	}
	visited[table] = true

	for _, col := range m.Columns(table) {
		if !col.IsForeignKey() {
			continue
		}
		p.Conditions = append(p.Conditions, Condition{
			Child:  ColumnRef{Table: table, Column: col.Name},
			Parent: ColumnRef{Table: col.Imported.Table, Column: col.Imported.Name},
		})
	}

	for _, parent := range m.Parents(table) {
		if parent != p.Root && !slices.Contains(p.JoinTables, parent) {
			p.JoinTables = append(p.JoinTables, parent)
		}
		p.collectConditions(parent, m, visited)
	}
}

// HasJoin reports whether the plan joins any table besides the root.
func (p *JoinPlan) HasJoin() bool {
	return len(p.JoinTables) > 0
}

// SheetName joins every table of the plan, root first, with sep.
func (p *JoinPlan) SheetName(sep string) string {
	if sep == "" {
		sep = DefaultSheetSeparator
	}
	return strings.Join(p.Tables, sep)
}

// Headers returns the qualified table.column header for each projected column.
func (p *JoinPlan) Headers() []string {
	headers := make([]string, len(p.Projection))
	for i, ref := range p.Projection {
		headers[i] = ref.String()
	}
	return headers
}

// SQL renders the plan as a SELECT statement in the given dialect.
//
//	SELECT <projection> FROM <root> [INNER JOIN <join tables> ON <conditions>]
func (p *JoinPlan) SQL(d sqlutil.Dialect) string {
	cols := make([]string, len(p.Projection))
	for i, ref := range p.Projection {
		cols[i] = d.Qualified(ref.Table, ref.Column)
	}
	return "SELECT " + strings.Join(cols, ", ") + p.from(d)
}

// CountSQL renders a query counting the rows SQL returns.
func (p *JoinPlan) CountSQL(d sqlutil.Dialect) string {
	return "SELECT COUNT(*)" + p.from(d)
}

func (p *JoinPlan) from(d sqlutil.Dialect) string {
	var sb strings.Builder
	sb.WriteString(" FROM ")
	sb.WriteString(d.Quote(p.Root))

	if p.HasJoin() {
		conds := make([]string, len(p.Conditions))
		for i, c := range p.Conditions {
			conds[i] = d.Qualified(c.Child.Table, c.Child.Column) + " = " + d.Qualified(c.Parent.Table, c.Parent.Column)
		}
		sb.WriteString(" INNER JOIN ")
		sb.WriteString(d.JoinList(p.JoinTables))
		sb.WriteString(" ON ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	return sb.String()
}
