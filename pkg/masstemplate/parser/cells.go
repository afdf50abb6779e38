package parser

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// LargestSheet returns the worksheet with the most rows x columns and its rows.
// Ties keep the first sheet in workbook order.
func LargestSheet(f *excelize.File) (string, [][]string, error) {
	var (
		best     string
		bestRows [][]string
		bestArea = -1
	)
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", nil, err
		}
		r, c := Dimensions(rows)
		if r*c > bestArea {
			best, bestRows, bestArea = sheetName, rows, r*c
		}
	}
	return best, bestRows, nil
}

// ReadVisibleRows returns the rows of a sheet that are not hidden and not
// collapsed to zero height. Cells are trimmed, trailing blanks are dropped,
// empty rows are skipped and the result is padded to a rectangle.
func ReadVisibleRows(f *excelize.File, sheetName string, rows [][]string) ([][]string, error) {
	var result [][]string
	for rowIdx, row := range rows {
		rowNum := rowIdx + 1 // 1-based row index

		visible, err := f.GetRowVisible(sheetName, rowNum)
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		if height, err := f.GetRowHeight(sheetName, rowNum); err == nil && height == 0 {
			continue
		}

		if cleaned := trimRow(row); len(cleaned) > 0 {
			result = append(result, cleaned)
		}
	}
	return PadRows(result, 0), nil
}

// TrimGrid trims every cell and removes blank rows and columns from the
// right and bottom edges, keeping interior blank rows.
func TrimGrid(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = strings.TrimSpace(c)
		}
		out[i] = cells
	}
	_, maxRow, _, maxCol := DataBounds(out)
	if maxRow < 0 {
		return nil
	}
	out = out[:maxRow+1]
	for i, row := range out {
		if len(row) > maxCol+1 {
			out[i] = row[:maxCol+1]
		}
	}
	return PadRows(out, maxCol+1)
}

func trimRow(row []string) []string {
	cells := make([]string, len(row))
	for i, c := range row {
		cells[i] = strings.TrimSpace(c)
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}
