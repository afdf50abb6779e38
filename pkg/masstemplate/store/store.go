// Package store defines the workbook abstraction the pipeline reads from and
// writes to, with backends for Google Sheets and local xlsx files.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
)

// ErrWorksheetNotFound indicates a missing worksheet.
var ErrWorksheetNotFound = errors.New("worksheet not found")

// ErrNoBackend indicates there is no backend able to open a reference.
var ErrNoBackend = errors.New("no workbook backend for reference")

// Workbook is a spreadsheet made of named worksheets holding string cells.
// Row and column arguments are 1-based.
type Workbook interface {
	// Title returns the spreadsheet title.
	Title() string
	// ID returns the spreadsheet ID or file path.
	ID() string
	// Worksheets lists worksheet titles in workbook order.
	Worksheets(ctx context.Context) ([]string, error)
	// Values returns every row of a worksheet as displayed strings.
	Values(ctx context.Context, sheet string) ([][]string, error)
	// Size returns the grid size of a worksheet.
	Size(ctx context.Context, sheet string) (rows, cols int, err error)
	// Clear removes every value from a worksheet.
	Clear(ctx context.Context, sheet string) error
	// AddWorksheet creates a worksheet with the given grid size.
	AddWorksheet(ctx context.Context, title string, rows, cols int) error
	// Resize sets the grid size of a worksheet.
	Resize(ctx context.Context, sheet string, rows, cols int) error
	// Write stores values as-is starting at column A of startRow.
	Write(ctx context.Context, sheet string, startRow int, values [][]string) error
	// UpdateCells writes individual cells as-is.
	UpdateCells(ctx context.Context, sheet string, cells []models.Cell) error
	// Highlight sets the background color of the given ranges.
	Highlight(ctx context.Context, sheet string, ranges []models.GridRange, color models.Color) error
}

// Flusher is implemented by workbooks that buffer changes locally.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Opener opens a workbook by spreadsheet URL, ID or file path.
type Opener interface {
	Open(ctx context.Context, ref string) (Workbook, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, ref string) (Workbook, error)

// Open calls fn.
func (fn OpenerFunc) Open(ctx context.Context, ref string) (Workbook, error) {
	return fn(ctx, ref)
}

// Router sends .xlsx paths to Files and everything else to Sheets.
type Router struct {
	Files  Opener
	Sheets Opener
}

// Open implements Opener.
func (r Router) Open(ctx context.Context, ref string) (Workbook, error) {
	ref = strings.TrimSpace(ref)
	var target Opener
	if strings.HasSuffix(strings.ToLower(ref), ".xlsx") {
		target = r.Files
	} else {
		target = r.Sheets
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoBackend, ref)
	}
	return target.Open(ctx, ref)
}

// Flush flushes wb when it buffers changes.
func Flush(ctx context.Context, wb Workbook) error {
	if f, ok := wb.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

// Close releases wb when it holds local resources, such as an open xlsx file.
func Close(wb Workbook) error {
	if c, ok := wb.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// FindWorksheet resolves a worksheet title from candidates: an exact
// case-insensitive title match for any candidate first, then the first
// title containing a candidate.
func FindWorksheet(ctx context.Context, wb Workbook, candidates ...string) (string, error) {
	titles, err := wb.Worksheets(ctx)
	if err != nil {
		return "", err
	}
	if name, ok := MatchWorksheet(titles, candidates...); ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %s", ErrWorksheetNotFound, strings.Join(candidates, ", "))
}

// MatchWorksheet is FindWorksheet over a known title list.
func MatchWorksheet(titles []string, candidates ...string) (string, bool) {
	var lowered []string
	for _, c := range candidates {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			lowered = append(lowered, c)
		}
	}
	for _, c := range lowered {
		for _, t := range titles {
			if strings.ToLower(strings.TrimSpace(t)) == c {
				return t, true
			}
		}
	}
	for _, c := range lowered {
		for _, t := range titles {
			if strings.Contains(strings.ToLower(t), c) {
				return t, true
			}
		}
	}
	return "", false
}

// HasWorksheet reports whether a worksheet with exactly this title exists.
func HasWorksheet(ctx context.Context, wb Workbook, title string) (bool, error) {
	titles, err := wb.Worksheets(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range titles {
		if t == title {
			return true, nil
		}
	}
	return false, nil
}

// ResetWorksheet clears a worksheet, creating it with the given size when
// it does not exist. It reports whether the worksheet was created.
func ResetWorksheet(ctx context.Context, wb Workbook, title string, rows, cols int) (bool, error) {
	ok, err := HasWorksheet(ctx, wb, title)
	if err != nil {
		return false, err
	}
	if ok {
		return false, wb.Clear(ctx, title)
	}
	return true, wb.AddWorksheet(ctx, title, rows, cols)
}

// EnsureSize grows a worksheet so it holds at least rows x cols.
func EnsureSize(ctx context.Context, wb Workbook, sheet string, rows, cols int) error {
	curRows, curCols, err := wb.Size(ctx, sheet)
	if err != nil {
		return err
	}
	if curRows >= rows && curCols >= cols {
		return nil
	}
	return wb.Resize(ctx, sheet, max(rows, curRows), max(cols, curCols))
}

// Get returns a trimmed cell from a value grid, or "" outside it.
// row and col are 0-based.
func Get(values [][]string, row, col int) string {
	if row < 0 || row >= len(values) || col < 0 || col >= len(values[row]) {
		return ""
	}
	return strings.TrimSpace(values[row][col])
}
