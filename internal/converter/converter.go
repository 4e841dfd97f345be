// Package converter turns one input database into one workbook: requested
// primary tables become joined sheets, every other table is dumped as is.
package converter

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dbsmedya/db2xlsx/internal/config"
	"github.com/dbsmedya/db2xlsx/internal/database"
	"github.com/dbsmedya/db2xlsx/internal/export"
	"github.com/dbsmedya/db2xlsx/internal/graph"
	"github.com/dbsmedya/db2xlsx/internal/logger"
	"github.com/dbsmedya/db2xlsx/internal/schema"
	"github.com/dbsmedya/db2xlsx/internal/sqlutil"
	"github.com/dbsmedya/db2xlsx/internal/verifier"
	"github.com/dbsmedya/db2xlsx/internal/workbook"
)

// SheetResult describes one sheet of a converted workbook.
type SheetResult struct {
	Sheet  string
	Root   string   // primary table, empty for a plain dump
	Tables []string // tables whose columns appear in the sheet
	Rows   int
}

// Joined reports whether the sheet came from a primary table's join plan.
func (s SheetResult) Joined() bool {
	return s.Root != ""
}

// Result contains the outcome of converting one input.
type Result struct {
	Input     string
	Output    string
	Sheets    []SheetResult
	StartedAt time.Time
	Duration  time.Duration
}

// Converter converts inputs of the configured source driver.
type Converter struct {
	config    *config.Config
	dbManager *database.Manager
	dialect   sqlutil.Dialect
	logger    *logger.Logger
}

// New creates a converter. A nil logger discards output.
func New(cfg *config.Config, log *logger.Logger) (*Converter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	dialect, err := sqlutil.ForDriver(cfg.Source.Driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigConflict, err)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Converter{
		config:    cfg,
		dbManager: database.NewManager(&cfg.Source),
		dialect:   dialect,
		logger:    log,
	}, nil
}

// Convert writes the workbook for input next to it (see OutputPath).
func (c *Converter) Convert(ctx context.Context, input string, primaries []string) (*Result, error) {
	return c.ConvertTo(ctx, input, OutputPath(input, c.config.Export.Extension), primaries)
}

// ConvertTo converts input into the workbook at output.
//
// Each primary table is resolved, synthesized into a join and exported
// under its composite sheet name; every table it absorbs is covered. The
// remaining tables follow in enumeration order as SELECT * dumps. Any
// failure aborts the input and no output file is left behind.
func (c *Converter) ConvertTo(ctx context.Context, input, output string, primaries []string) (*Result, error) {
	result := &Result{Input: input, Output: output, StartedAt: time.Now()}
	log := c.logger.WithInput(input)

	db, in, err := c.open(ctx, input)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := in.ListTables(ctx)
	if err != nil {
		return nil, &ConversionError{Input: input, Err: fmt.Errorf("%w: %w", ErrSchemaAccess, err)}
	}

	primaries = uniqueStrings(primaries)
	for _, p := range primaries {
		if !containsTable(tables, p) {
			return nil, &ConversionError{Input: input, Table: p, Err: ErrNoSuchTable}
		}
	}

	log.Infow("Converting", "output", output, "tables", len(tables), "primaries", primaries)

	wb := workbook.New(c.config.Export.Creator)
	defer wb.Close()

	exp := export.New(db, wb, c.config.Export.QueryTimeout(), log)
	resolver := graph.NewResolver(in, log)
	covered := make(map[string]bool)
	var targets []verifier.Target

	for _, root := range primaries {
		m, err := resolver.Resolve(ctx, root)
		if err != nil {
			return nil, &ConversionError{Input: input, Table: root, Err: err}
		}
		plan, err := graph.Synthesize(root, m)
		if err != nil {
			return nil, &ConversionError{Input: input, Table: root, Err: err}
		}

		sr, err := exp.Export(ctx, plan.SheetName(c.config.Export.SheetSeparator), plan.SQL(c.dialect), plan.Headers())
		if err != nil {
			return nil, &ConversionError{Input: input, Table: root, Err: err}
		}
		for _, t := range plan.Tables {
			covered[t] = true
		}
		targets = append(targets, verifier.Target{
			Sheet:      sr.Sheet,
			Headers:    sr.Headers,
			Rows:       sr.Rows,
			CountQuery: plan.CountSQL(c.dialect),
		})
		result.Sheets = append(result.Sheets, SheetResult{
			Sheet:  sr.Sheet,
			Root:   root,
			Tables: plan.Tables,
			Rows:   sr.Rows,
		})
	}

	// Coverage is tracked by table name; sheet names are composite.
	for _, t := range tables {
		if covered[t] {
			log.Debugw("Skipping table already covered by a join", "table", t)
			continue
		}
		sr, err := exp.Export(ctx, t, c.dialect.SelectAll(t), nil)
		if err != nil {
			return nil, &ConversionError{Input: input, Table: t, Err: err}
		}
		result.Sheets = append(result.Sheets, SheetResult{
			Sheet:  sr.Sheet,
			Tables: []string{t},
			Rows:   sr.Rows,
		})
		targets = append(targets, verifier.Target{
			Sheet:      sr.Sheet,
			Headers:    sr.Headers,
			Rows:       sr.Rows,
			CountQuery: c.dialect.CountAll(t),
		})
	}

	if wb.Len() == 0 {
		log.Infow("No tables found, writing a workbook with one empty sheet")
	}
	if err := wb.SaveAs(output); err != nil {
		return nil, &ConversionError{Input: input, Err: fmt.Errorf("%w: %w", ErrIO, err)}
	}
	if err := c.verifyOutput(ctx, db, output, targets, log); err != nil {
		return nil, &ConversionError{Input: input, Err: err}
	}

	result.Duration = time.Since(result.StartedAt)
	log.Infow("Conversion complete",
		"output", output,
		"sheets", len(result.Sheets),
		"duration", result.Duration,
	)
	return result, nil
}

// verifyOutput checks the saved workbook against the source and removes
// it when the check fails.
func (c *Converter) verifyOutput(ctx context.Context, db *sql.DB, output string, targets []verifier.Target, log *logger.Logger) error {
	v, err := verifier.NewVerifier(db, verifier.Method(c.config.Verification.Method), c.config.Export.QueryTimeout(), log)
	if err == nil {
		_, err = v.Verify(ctx, output, targets)
	}
	if err != nil {
		if rmErr := os.Remove(output); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warnw("Failed to remove unverified output", "output", output, "error", rmErr)
		}
		return err
	}
	return nil
}

// open checks the input, connects and builds the introspector.
func (c *Converter) open(ctx context.Context, input string) (*sql.DB, schema.Introspector, error) {
	if !c.config.Source.IsServer() {
		info, err := os.Stat(input)
		if err != nil || !info.Mode().IsRegular() {
			return nil, nil, &ConversionError{Input: input, Err: ErrNoSuchFile}
		}
	}

	db, err := c.dbManager.Open(ctx, input)
	if err != nil {
		return nil, nil, &ConversionError{Input: input, Err: fmt.Errorf("%w: %w", ErrSchemaAccess, err)}
	}

	in, err := schema.New(c.config.Source.Driver, db, c.config.Source.Schema, c.config.Export.IntrospectTimeout())
	if err != nil {
		db.Close()
		return nil, nil, &ConversionError{Input: input, Err: err}
	}
	return db, in, nil
}

// uniqueStrings drops repeated values, keeping the first occurrence.
func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func containsTable(tables []string, name string) bool {
	for _, t := range tables {
		if t == name {
			return true
		}
	}
	return false
}
