// Package workbook accumulates the sheets of one conversion and writes
// them as a single .xlsx file.
package workbook

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/xuri/excelize/v2"
)

const (
	// MaxSheetNameLength is Excel's limit on sheet name length, in characters.
	MaxSheetNameLength = 31

	defaultSheetName = "Sheet1"
	fallbackName     = "Sheet"

	minColumnWidth = 8
	maxColumnWidth = 60
)

// ErrSheetOpen is returned when a sheet is added while another is still being written.
var ErrSheetOpen = errors.New("previous sheet has not been flushed")

var invalidSheetChars = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")",
)

// Builder owns the workbook for one input. Sheets are written one at a
// time, each through a streaming writer, in the order they are added.
type Builder struct {
	file    *excelize.File
	creator string
	names   []string
	taken   map[string]bool
	open    *Sheet

	headerStyle int
}

// New creates an empty workbook. When creator is empty the current OS
// user name is recorded as the document creator.
func New(creator string) *Builder {
	if creator == "" {
		if u, err := user.Current(); err == nil {
			creator = u.Username
		}
	}
	return &Builder{
		file:    excelize.NewFile(),
		creator: creator,
		taken:   make(map[string]bool),
	}
}

// Len returns the number of sheets added so far.
func (b *Builder) Len() int {
	return len(b.names)
}

// SheetNames returns the final sheet names in insertion order.
func (b *Builder) SheetNames() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// AddSheet creates a sheet for name and returns it together with the
// name actually used, which may differ when name breaks Excel's rules or
// collides with an earlier sheet.
func (b *Builder) AddSheet(name string) (*Sheet, string, error) {
	if b.open != nil {
		return nil, "", ErrSheetOpen
	}

	final := b.uniqueName(SanitizeSheetName(name))

	if len(b.names) == 0 {
		// The first sheet takes over the default one so no blank sheet remains.
		if final != defaultSheetName {
			if err := b.file.SetSheetName(defaultSheetName, final); err != nil {
				return nil, "", fmt.Errorf("failed to create sheet %q: %w", final, err)
			}
		}
	} else if _, err := b.file.NewSheet(final); err != nil {
		return nil, "", fmt.Errorf("failed to create sheet %q: %w", final, err)
	}

	sw, err := b.file.NewStreamWriter(final)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open sheet %q: %w", final, err)
	}

	b.names = append(b.names, final)
	b.taken[strings.ToLower(final)] = true

	s := &Sheet{name: final, sw: sw, builder: b}
	b.open = s
	return s, final, nil
}

// SaveAs writes the workbook to path. With no sheets added the default
// empty sheet is kept so the file stays valid. On failure any partially
// written file is removed.
func (b *Builder) SaveAs(path string) error {
	if b.open != nil {
		return ErrSheetOpen
	}

	props := &excelize.DocProperties{
		Creator: b.creator,
		Created: time.Now().UTC().Format(time.RFC3339),
	}
	if err := b.file.SetDocProps(props); err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}
	b.file.SetActiveSheet(0)

	if err := b.file.SaveAs(path); err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("failed to save %s: %w (cleanup: %v)", path, err, rmErr)
		}
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Close releases temporary files held by the workbook.
func (b *Builder) Close() error {
	return b.file.Close()
}

func (b *Builder) style() (int, error) {
	if b.headerStyle != 0 {
		return b.headerStyle, nil
	}
	id, err := b.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0, err
	}
	b.headerStyle = id
	return id, nil
}

// uniqueName appends " (n)" until the name is unused. Excel compares
// sheet names case-insensitively.
func (b *Builder) uniqueName(name string) string {
	if !b.taken[strings.ToLower(name)] {
		return name
	}
	for n := 2; ; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		candidate := truncateRunes(name, MaxSheetNameLength-utf8.RuneCountInString(suffix)) + suffix
		if !b.taken[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

// SanitizeSheetName makes name acceptable as an Excel sheet name: the
// characters :\/?*[] are replaced, leading and trailing apostrophes are
// dropped and the result is cut to 31 characters.
func SanitizeSheetName(name string) string {
	name = invalidSheetChars.Replace(name)
	name = strings.Trim(name, "'")
	name = truncateRunes(name, MaxSheetNameLength)
	name = strings.TrimRight(name, "'")
	if strings.TrimSpace(name) == "" {
		return fallbackName
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Sheet streams rows into one worksheet. The header must be written
// before any data row.
type Sheet struct {
	name    string
	sw      *excelize.StreamWriter
	builder *Builder
	row     int
}

// Name returns the sheet name.
func (s *Sheet) Name() string {
	return s.name
}

// Rows returns the number of data rows written below the header.
func (s *Sheet) Rows() int {
	if s.row <= 1 {
		return 0
	}
	return s.row - 1
}

// WriteHeader sizes the columns from the header text and writes row 1.
func (s *Sheet) WriteHeader(headers []string) error {
	if s.row != 0 {
		return fmt.Errorf("sheet %q: header already written", s.name)
	}

	for i, h := range headers {
		width := runewidth.StringWidth(h) + 2
		if width < minColumnWidth {
			width = minColumnWidth
		}
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if err := s.sw.SetColWidth(i+1, i+1, float64(width)); err != nil {
			return fmt.Errorf("sheet %q: %w", s.name, err)
		}
	}

	styleID, err := s.builder.style()
	if err != nil {
		return fmt.Errorf("sheet %q: %w", s.name, err)
	}

	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	if err := s.sw.SetRow("A1", cells, excelize.RowOpts{StyleID: styleID}); err != nil {
		return fmt.Errorf("sheet %q: %w", s.name, err)
	}
	s.row = 1
	return nil
}

// WriteRow appends one data row. A nil value leaves its cell unset.
func (s *Sheet) WriteRow(values []interface{}) error {
	if s.row == 0 {
		return fmt.Errorf("sheet %q: header not written", s.name)
	}

	cell, err := excelize.CoordinatesToCellName(1, s.row+1)
	if err != nil {
		return fmt.Errorf("sheet %q: %w", s.name, err)
	}
	if err := s.sw.SetRow(cell, values); err != nil {
		return fmt.Errorf("sheet %q row %d: %w", s.name, s.row+1, err)
	}
	s.row++
	return nil
}

// Flush completes the sheet. The builder accepts the next sheet only after
// the current one is flushed.
func (s *Sheet) Flush() error {
	if s.builder.open == s {
		s.builder.open = nil
	}
	if err := s.sw.Flush(); err != nil {
		return fmt.Errorf("sheet %q: %w", s.name, err)
	}
	return nil
}
