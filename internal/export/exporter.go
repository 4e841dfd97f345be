// Package export runs one query and streams its result set into a sheet.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dbsmedya/db2xlsx/internal/logger"
	"github.com/dbsmedya/db2xlsx/internal/types"
	"github.com/dbsmedya/db2xlsx/internal/workbook"
)

// DefaultQueryTimeout bounds one query, including row retrieval.
const DefaultQueryTimeout = 3 * time.Second

// ErrQuery is returned when a query fails or exceeds its timeout.
var ErrQuery = errors.New("query failed")

// SheetResult describes one exported sheet.
type SheetResult struct {
	Sheet    string
	Headers  []string
	Rows     int
	Duration time.Duration
}

// Exporter writes query results into the sheets of one workbook.
type Exporter struct {
	db      *sql.DB
	wb      *workbook.Builder
	timeout time.Duration
	log     *logger.Logger
}

// New creates an exporter. A non-positive timeout uses DefaultQueryTimeout.
func New(db *sql.DB, wb *workbook.Builder, timeout time.Duration, log *logger.Logger) *Exporter {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Exporter{db: db, wb: wb, timeout: timeout, log: log}
}

// Export runs query and writes the result as a new sheet named sheet.
// headers supplies the header row; nil uses the column names reported by
// the driver. The sheet is only created once the query has started
// returning results.
func (e *Exporter) Export(ctx context.Context, sheet, query string, headers []string) (*SheetResult, error) {
	start := time.Now()
	log := e.log.WithSheet(sheet)

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	log.Debugw("Running query", "sql", query)
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, e.queryError(ctx, sheet, err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, e.queryError(ctx, sheet, err)
	}

	if headers == nil {
		headers = make([]string, len(colTypes))
		for i, ct := range colTypes {
			headers[i] = ct.Name()
		}
	} else if len(headers) != len(colTypes) {
		return nil, fmt.Errorf("%w: sheet %q: %d headers for %d result columns",
			ErrQuery, sheet, len(headers), len(colTypes))
	}

	categories := make([]types.Category, len(colTypes))
	for i, ct := range colTypes {
		categories[i] = types.Classify(ct.DatabaseTypeName())
	}

	s, final, err := e.wb.AddSheet(sheet)
	if err != nil {
		return nil, err
	}
	if final != sheet {
		log.Infow("Sheet renamed to satisfy spreadsheet naming rules", "final", final)
	}

	n, err := e.writeRows(ctx, s, rows, headers, categories)
	if flushErr := s.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		return nil, err
	}

	result := &SheetResult{
		Sheet:    final,
		Headers:  headers,
		Rows:     n,
		Duration: time.Since(start),
	}
	log.Debugw("Sheet written", "rows", result.Rows, "duration", result.Duration)
	return result, nil
}

func (e *Exporter) writeRows(ctx context.Context, s *workbook.Sheet, rows *sql.Rows, headers []string, categories []types.Category) (int, error) {
	if err := s.WriteHeader(headers); err != nil {
		return 0, err
	}

	values := make([]interface{}, len(categories))
	dest := make([]interface{}, len(categories))
	for i := range values {
		dest[i] = &values[i]
	}
	cells := make([]interface{}, len(categories))

	count := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return count, e.queryError(ctx, s.Name(), err)
		}
		for i, v := range values {
			cells[i] = types.CellValue(categories[i], v)
		}
		if err := s.WriteRow(cells); err != nil {
			return count, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, e.queryError(ctx, s.Name(), err)
	}
	return count, nil
}

// queryError wraps err as ErrQuery, reporting a timeout when the deadline
// is what stopped the query.
func (e *Exporter) queryError(ctx context.Context, sheet string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: sheet %q: timed out after %s: %w", ErrQuery, sheet, e.timeout, err)
	}
	return fmt.Errorf("%w: sheet %q: %w", ErrQuery, sheet, err)
}
