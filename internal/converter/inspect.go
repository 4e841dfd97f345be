package converter

import (
	"context"
	"fmt"

	"github.com/dbsmedya/db2xlsx/internal/graph"
	"github.com/dbsmedya/db2xlsx/internal/schema"
)

// PlanResult is the join plan of one primary table, as it would be exported.
type PlanResult struct {
	Sheet string          `json:"sheet" yaml:"sheet"`
	SQL   string          `json:"sql" yaml:"sql"`
	Plan  *graph.JoinPlan `json:"plan" yaml:"plan"`
	Cycle []string        `json:"cycle,omitempty" yaml:"cycle,omitempty"`
}

// TableInfo summarizes one table of an input.
type TableInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Columns    int      `json:"columns" yaml:"columns"`
	References []string `json:"references,omitempty" yaml:"references,omitempty"`
}

// Plan resolves and synthesizes the join plan of each primary table
// without running any export query.
func (c *Converter) Plan(ctx context.Context, input string, primaries []string) ([]*PlanResult, error) {
	db, in, err := c.open(ctx, input)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	resolver := graph.NewResolver(in, c.logger.WithInput(input))

	var plans []*PlanResult
	for _, root := range uniqueStrings(primaries) {
		ok, err := schema.TableExists(ctx, in, root)
		if err != nil {
			return nil, &ConversionError{Input: input, Table: root, Err: fmt.Errorf("%w: %w", ErrSchemaAccess, err)}
		}
		if !ok {
			return nil, &ConversionError{Input: input, Table: root, Err: ErrNoSuchTable}
		}

		m, err := resolver.Resolve(ctx, root)
		if err != nil {
			return nil, &ConversionError{Input: input, Table: root, Err: err}
		}
		plan, err := graph.Synthesize(root, m)
		if err != nil {
			return nil, &ConversionError{Input: input, Table: root, Err: err}
		}

		plans = append(plans, &PlanResult{
			Sheet: plan.SheetName(c.config.Export.SheetSeparator),
			SQL:   plan.SQL(c.dialect),
			Plan:  plan,
			Cycle: graph.FindCycle(m),
		})
	}
	return plans, nil
}

// Tables lists the tables of input in enumeration order with their
// column counts and the distinct tables they reference.
func (c *Converter) Tables(ctx context.Context, input string) ([]TableInfo, error) {
	db, in, err := c.open(ctx, input)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := in.ListTables(ctx)
	if err != nil {
		return nil, &ConversionError{Input: input, Err: fmt.Errorf("%w: %w", ErrSchemaAccess, err)}
	}

	infos := make([]TableInfo, 0, len(tables))
	for _, t := range tables {
		cols, err := in.ListColumns(ctx, t)
		if err != nil {
			return nil, &ConversionError{Input: input, Table: t, Err: fmt.Errorf("%w: %w", ErrSchemaAccess, err)}
		}
		keys, err := in.ListImportedKeys(ctx, t)
		if err != nil {
			return nil, &ConversionError{Input: input, Table: t, Err: fmt.Errorf("%w: %w", ErrSchemaAccess, err)}
		}

		info := TableInfo{Name: t, Columns: len(cols)}
		for _, k := range keys {
			if !containsTable(info.References, k.ReferencedTable) {
				info.References = append(info.References, k.ReferencedTable)
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}
