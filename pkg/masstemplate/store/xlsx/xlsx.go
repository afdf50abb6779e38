// Package xlsx implements store.Workbook on top of a local xlsx file.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/xuri/excelize/v2"
)

// Workbook is an excelize-backed workbook. Changes stay in memory until
// Flush. It is not safe for concurrent use.
type Workbook struct {
	f    *excelize.File
	path string
	// fills caches fill styles by color so repeated highlights reuse one style.
	fills map[string]int
}

var _ store.Workbook = (*Workbook)(nil)
var _ store.Flusher = (*Workbook)(nil)

// Open opens an existing xlsx file.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &Workbook{f: f, path: path, fills: map[string]int{}}, nil
}

// OpenReader reads an xlsx workbook from r. Flush is a no-op for it.
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	return &Workbook{f: f, fills: map[string]int{}}, nil
}

// New wraps an open excelize file. When path is empty Flush is a no-op.
func New(f *excelize.File, path string) *Workbook {
	return &Workbook{f: f, path: path, fills: map[string]int{}}
}

// Opener opens local xlsx files.
type Opener struct{}

// Open implements store.Opener.
func (Opener) Open(_ context.Context, ref string) (store.Workbook, error) {
	return Open(ref)
}

// File exposes the underlying excelize file.
func (w *Workbook) File() *excelize.File { return w.f }

// Close releases the underlying file.
func (w *Workbook) Close() error { return w.f.Close() }

func (w *Workbook) Title() string {
	if w.path == "" {
		return "workbook"
	}
	return strings.TrimSuffix(filepath.Base(w.path), filepath.Ext(w.path))
}

func (w *Workbook) ID() string { return w.path }

func (w *Workbook) Worksheets(_ context.Context) ([]string, error) {
	return w.f.GetSheetList(), nil
}

func (w *Workbook) exists(sheet string) error {
	idx, err := w.f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", store.ErrWorksheetNotFound, sheet)
	}
	return nil
}

func (w *Workbook) Values(_ context.Context, sheet string) ([][]string, error) {
	if err := w.exists(sheet); err != nil {
		return nil, err
	}
	return w.f.GetRows(sheet)
}

// Size reports the xlsx grid limits; local sheets never need resizing.
func (w *Workbook) Size(_ context.Context, sheet string) (int, int, error) {
	if err := w.exists(sheet); err != nil {
		return 0, 0, err
	}
	return excelize.TotalRows, excelize.MaxColumns, nil
}

func (w *Workbook) Clear(_ context.Context, sheet string) error {
	if err := w.exists(sheet); err != nil {
		return err
	}
	rows, err := w.f.GetRows(sheet)
	if err != nil {
		return err
	}
	// Bottom-up so no row is shifted more than once.
	for r := len(rows); r >= 1; r-- {
		if err := w.f.RemoveRow(sheet, r); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) AddWorksheet(_ context.Context, title string, _, _ int) error {
	_, err := w.f.NewSheet(title)
	return err
}

func (w *Workbook) Resize(_ context.Context, sheet string, _, _ int) error {
	return w.exists(sheet)
}

func (w *Workbook) Write(_ context.Context, sheet string, startRow int, values [][]string) error {
	if err := w.exists(sheet); err != nil {
		return err
	}
	for i, row := range values {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		if err := w.f.SetSheetRow(sheet, parser.CellName(1, startRow+i), &cells); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) UpdateCells(_ context.Context, sheet string, cells []models.Cell) error {
	if err := w.exists(sheet); err != nil {
		return err
	}
	for _, c := range cells {
		if err := w.f.SetCellStr(sheet, parser.CellName(c.Col, c.Row), c.Value); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) Highlight(_ context.Context, sheet string, ranges []models.GridRange, color models.Color) error {
	if err := w.exists(sheet); err != nil {
		return err
	}
	if len(ranges) == 0 {
		return nil
	}
	style, err := w.fillStyle(parser.ColorToHex(color))
	if err != nil {
		return err
	}
	for _, g := range ranges {
		if g.EndRow <= g.StartRow || g.EndCol <= g.StartCol {
			continue
		}
		start := parser.CellName(g.StartCol+1, g.StartRow+1)
		end := parser.CellName(g.EndCol, g.EndRow)
		if err := w.f.SetCellStyle(sheet, start, end, style); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) fillStyle(hex string) (int, error) {
	if id, ok := w.fills[hex]; ok {
		return id, nil
	}
	id, err := w.f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{hex}, Pattern: 1},
	})
	if err != nil {
		return 0, err
	}
	w.fills[hex] = id
	return id, nil
}

// Flush saves the workbook back to its path.
func (w *Workbook) Flush(_ context.Context) error {
	if w.path == "" {
		return nil
	}
	return w.f.SaveAs(w.path)
}

// FillColor returns the fill color of a cell, or "" when it has none.
func (w *Workbook) FillColor(sheet, cell string) (string, error) {
	id, err := w.f.GetCellStyle(sheet, cell)
	if err != nil {
		return "", err
	}
	style, err := w.f.GetStyle(id)
	if err != nil || style == nil || len(style.Fill.Color) == 0 {
		return "", err
	}
	return style.Fill.Color[0], nil
}
