// Package verifier checks a written workbook against the source database.
package verifier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dbsmedya/db2xlsx/internal/logger"
)

// Method defines how a workbook is verified.
type Method string

const (
	// MethodCount compares sheet names, header rows and row counts.
	MethodCount Method = "count"
	// MethodSkip skips verification entirely.
	MethodSkip Method = "skip"
)

// ErrVerification is returned when the workbook does not match the source
// or cannot be checked.
var ErrVerification = errors.New("verification failed")

// Target is one sheet the workbook is expected to contain.
type Target struct {
	Sheet   string
	Headers []string
	// Rows is the number of data rows the exporter wrote.
	Rows int
	// CountQuery counts, at the source, the rows of the sheet's query.
	CountQuery string
}

// VerifyResult holds the outcome for a single sheet.
type VerifyResult struct {
	Sheet        string
	SourceCount  int64
	SheetRows    int64
	HeaderMatch  bool
	Match        bool
	ErrorMessage string
}

// VerifyStats contains overall verification statistics.
type VerifyStats struct {
	SheetsVerified int
	SheetsPassed   int
	SheetsFailed   int
	TotalRows      int64
	Method         Method
}

// Verifier checks workbooks produced from one source database.
type Verifier struct {
	source  *sql.DB
	method  Method
	timeout time.Duration
	logger  *logger.Logger
}

// NewVerifier creates a verifier. An empty method means MethodCount; a
// non-positive timeout leaves count queries bounded only by ctx.
func NewVerifier(source *sql.DB, method Method, timeout time.Duration, log *logger.Logger) (*Verifier, error) {
	if source == nil {
		return nil, fmt.Errorf("source database is nil")
	}
	if method == "" {
		method = MethodCount
	}
	if method != MethodCount && method != MethodSkip {
		return nil, fmt.Errorf("unsupported verification method: %s", method)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Verifier{source: source, method: method, timeout: timeout, logger: log}, nil
}

// Method returns the configured verification method.
func (v *Verifier) Method() Method {
	return v.method
}

// Verify opens the workbook at path and checks it against targets: the
// sheets must appear in target order, each with the expected header row,
// and each source count must equal the rows written. It stops at the
// first mismatch.
func (v *Verifier) Verify(ctx context.Context, path string, targets []Target) (*VerifyStats, error) {
	stats := &VerifyStats{Method: v.method}
	if v.method == MethodSkip {
		v.logger.Debugw("Verification skipped", "path", path)
		return stats, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return stats, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	defer f.Close()

	// An empty workbook keeps its default sheet, which no target names.
	if len(targets) > 0 {
		expected := make([]string, len(targets))
		for i, t := range targets {
			expected[i] = t.Sheet
		}
		if actual := f.GetSheetList(); !slices.Equal(actual, expected) {
			return stats, fmt.Errorf("%w: workbook has sheets %q, expected %q", ErrVerification, actual, expected)
		}
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("verification interrupted: %w", err)
		}

		result, err := v.verifySheet(ctx, f, t)
		if err != nil {
			return stats, fmt.Errorf("%w: sheet %q: %w", ErrVerification, t.Sheet, err)
		}

		stats.SheetsVerified++
		stats.TotalRows += result.SourceCount

		if !result.Match {
			stats.SheetsFailed++
			v.logger.Errorw("Verification FAILED", "sheet", t.Sheet, "reason", result.ErrorMessage)
			return stats, fmt.Errorf("%w: sheet %q: %s", ErrVerification, t.Sheet, result.ErrorMessage)
		}
		stats.SheetsPassed++
	}

	v.logger.Debugw("Verification complete",
		"sheets", stats.SheetsVerified,
		"rows", stats.TotalRows,
	)
	return stats, nil
}

func (v *Verifier) verifySheet(ctx context.Context, f *excelize.File, t Target) (*VerifyResult, error) {
	result := &VerifyResult{Sheet: t.Sheet, SheetRows: int64(t.Rows)}

	header, err := readHeader(f, t.Sheet)
	if err != nil {
		return nil, err
	}
	result.HeaderMatch = slices.Equal(header, t.Headers)
	if !result.HeaderMatch {
		result.ErrorMessage = fmt.Sprintf("header mismatch: sheet=%q, expected=%q", header, t.Headers)
		return result, nil
	}

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	if err := v.source.QueryRowContext(ctx, t.CountQuery).Scan(&result.SourceCount); err != nil {
		return nil, fmt.Errorf("failed to count source: %w", err)
	}

	result.Match = result.SourceCount == result.SheetRows
	if !result.Match {
		result.ErrorMessage = fmt.Sprintf("count mismatch: source=%d, sheet=%d", result.SourceCount, result.SheetRows)
	}
	return result, nil
}

// readHeader returns the first row of sheet without loading the rest.
func readHeader(f *excelize.File, sheet string) ([]string, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Error()
	}
	return rows.Columns()
}
