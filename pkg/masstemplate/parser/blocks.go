package parser

import (
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
)

// categoryHeader marks a header row: the cell right after PID reads "Category".
const categoryHeader = "category"

// IsHeaderRow reports whether a TEM_OUTPUT row starts a new block.
func IsHeaderRow(row []string) bool {
	return strings.ToLower(CellAt(row, 1)) == categoryHeader
}

// ScanBlocks splits TEM_OUTPUT values into header blocks. Rows before the
// first header row belong to no block. Each block spans the rows up to the
// next header row or the end of the grid.
func ScanBlocks(values [][]string) []models.Block {
	var blocks []models.Block
	for i, row := range values {
		if !IsHeaderRow(row) {
			continue
		}
		if n := len(blocks); n > 0 {
			blocks[n-1].End = i
		}
		headers := append([]string(nil), row[1:]...)
		blocks = append(blocks, models.Block{
			HeaderRow: i,
			Headers:   headers,
			Keys:      HeaderKeys(headers),
			Start:     i + 1,
			End:       len(values),
		})
	}
	return blocks
}

// DataBounds finds the bounding box of non-empty cells as 0-based inclusive
// indices. All four values are -1 when the grid is empty.
func DataBounds(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if strings.TrimSpace(cell) == "" {
				continue
			}
			if minRow < 0 || rowIdx < minRow {
				minRow = rowIdx
			}
			if maxRow < 0 || rowIdx > maxRow {
				maxRow = rowIdx
			}
			if minCol < 0 || colIdx < minCol {
				minCol = colIdx
			}
			if maxCol < 0 || colIdx > maxCol {
				maxCol = colIdx
			}
		}
	}

	return
}

// CountNonEmpty counts non-empty cells within inclusive bounds.
func CountNonEmpty(rows [][]string, minRow, maxRow, minCol, maxCol int) int {
	count := 0
	for rowIdx := minRow; rowIdx <= maxRow && rowIdx < len(rows); rowIdx++ {
		if rowIdx < 0 {
			continue
		}
		row := rows[rowIdx]
		for colIdx := minCol; colIdx <= maxCol && colIdx < len(row); colIdx++ {
			if colIdx >= 0 && strings.TrimSpace(row[colIdx]) != "" {
				count++
			}
		}
	}
	return count
}
