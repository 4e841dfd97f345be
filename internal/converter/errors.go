package converter

import (
	"errors"
	"fmt"

	"github.com/dbsmedya/db2xlsx/internal/export"
	"github.com/dbsmedya/db2xlsx/internal/graph"
	"github.com/dbsmedya/db2xlsx/internal/schema"
	"github.com/dbsmedya/db2xlsx/internal/verifier"
)

// Error kinds reported by a conversion. Match them with errors.Is.
var (
	// ErrSchemaAccess: connecting to the input or reading its catalog failed.
	ErrSchemaAccess = graph.ErrSchemaAccess
	// ErrQuery: an export query failed or timed out.
	ErrQuery = export.ErrQuery
	// ErrIO: the workbook could not be written.
	ErrIO = errors.New("failed to write output")
	// ErrConfigConflict: the requested options cannot be combined.
	ErrConfigConflict = errors.New("configuration conflict")
	// ErrNoSuchTable: a requested primary table does not exist.
	ErrNoSuchTable = schema.ErrNoSuchTable
	// ErrNoSuchFile: a sqlite input path does not name a file.
	ErrNoSuchFile = errors.New("no such file")
	// ErrVerification: the written workbook does not match the source.
	ErrVerification = verifier.ErrVerification
)

// ConversionError reports the failure of one input, with the table being
// processed when it happened (empty when no table was involved).
type ConversionError struct {
	Input string
	Table string
	Err   error
}

func (e *ConversionError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: table %s: %v", e.Input, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Input, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
