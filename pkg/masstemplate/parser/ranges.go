package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/xuri/excelize/v2"
)

// CellName converts 1-based coordinates to an A1 cell name.
func CellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	return name
}

// QuoteSheetName quotes a worksheet title for use in an A1 reference.
func QuoteSheetName(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// RangeName builds a sheet-qualified A1 range from 1-based inclusive bounds,
// e.g. 'TEM_OUTPUT'!B2:D10.
func RangeName(sheet string, r1, c1, r2, c2 int) string {
	start := CellName(c1, r1)
	if r1 == r2 && c1 == c2 {
		return fmt.Sprintf("%s!%s", QuoteSheetName(sheet), start)
	}
	return fmt.Sprintf("%s!%s:%s", QuoteSheetName(sheet), start, CellName(c2, r2))
}

// SheetRange is the unbounded range covering a whole worksheet.
func SheetRange(sheet string) string {
	return QuoteSheetName(sheet)
}

// SplitRangeRef splits 'Sheet'!A1:B2 into the unquoted sheet name and the
// range part. References without a sheet return an empty name.
func SplitRangeRef(ref string) (string, string) {
	idx := strings.LastIndex(ref, "!")
	if idx < 0 {
		return "", ref
	}
	sheet := ref[:idx]
	if strings.HasPrefix(sheet, "'") && strings.HasSuffix(sheet, "'") && len(sheet) >= 2 {
		sheet = strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet, ref[idx+1:]
}

// ParseRange parses a range like $A$1:$D$10 (or a single cell) into a
// 0-based half-open GridRange.
func ParseRange(rangeStr string) (models.GridRange, error) {
	rangeStr = strings.ReplaceAll(rangeStr, "$", "")

	parts := strings.Split(rangeStr, ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return models.GridRange{}, fmt.Errorf("invalid range %q", rangeStr)
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return models.GridRange{}, err
	}

	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return models.GridRange{}, err
	}

	return models.GridRange{
		StartRow: startRow - 1,
		EndRow:   endRow,
		StartCol: startCol - 1,
		EndCol:   endCol,
	}, nil
}

// MergeSpans merges overlapping or touching half-open row spans.
// The input is sorted in place.
func MergeSpans(spans [][2]int) [][2]int {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i][0] != spans[j][0] {
			return spans[i][0] < spans[j][0]
		}
		return spans[i][1] < spans[j][1]
	})
	merged := [][2]int{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s[0] <= last[1] {
			if s[1] > last[1] {
				last[1] = s[1]
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
