package parser

import "strings"

// ResetFunc reports whether a row breaks the current fill run.
type ResetFunc func(row []string) bool

// ForwardFillByGroup carries the last non-blank value of each fill column
// down a run of rows sharing one group value. A row with a blank group
// value, or the same value as the run, continues it; a different non-blank
// value starts a new run. When reset returns true for a row, the run ends
// and the row itself is left untouched. The first headerRows rows are
// copied as-is.
//
// The input is not modified; every returned row is padded to the widest row.
func ForwardFillByGroup(rows [][]string, groupIdx int, fillCols []int, reset ResetFunc, headerRows int) [][]string {
	out := PadRows(rows, 0)
	if reset == nil {
		reset = func([]string) bool { return false }
	}

	inRun := false
	key := ""
	last := make(map[int]string, len(fillCols))
	for r := headerRows; r < len(out); r++ {
		row := out[r]
		if reset(row) {
			inRun, key = false, ""
			clear(last)
			continue
		}

		if g := CellAt(row, groupIdx); g != "" && (!inRun || g != key) {
			inRun, key = true, g
			clear(last)
		} else if inRun {
			for _, j := range fillCols {
				if j < len(row) && strings.TrimSpace(row[j]) == "" {
					row[j] = last[j]
				}
			}
		}

		for _, j := range fillCols {
			if j < len(row) && strings.TrimSpace(row[j]) != "" {
				last[j] = row[j]
			}
		}
	}
	return out
}

// PadRows copies rows and pads each one with empty cells to the widest
// row, or to minWidth if that is larger.
func PadRows(rows [][]string, minWidth int) [][]string {
	width := minWidth
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}
	return out
}

// Dimensions returns the row count and the widest row of a value grid.
func Dimensions(values [][]string) (rows, cols int) {
	for _, row := range values {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return len(values), cols
}
