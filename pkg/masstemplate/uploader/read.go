package uploader

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/xuri/excelize/v2"
)

// labelRatio is the share of label-like cells that marks a label row.
const labelRatio = 0.6

var labelRe = regexp.MustCompile(`(?i)^(et_title_|ps_)`)

var metaFirstCells = map[string]struct{}{
	"basic_info": {},
	"media_info": {},
	"sales_info": {},
}

// ReadValues parses an uploaded marketplace export: the largest worksheet,
// visible rows only, with the export's label and meta rows removed. When
// the visible read yields at most one cell, all rows are read instead.
func ReadValues(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(parser.SanitizeWorkbook(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, rows, err := parser.LargestSheet(f)
	if err != nil {
		return nil, err
	}
	if sheet == "" {
		return nil, nil
	}

	visible, err := parser.ReadVisibleRows(f, sheet, rows)
	if err != nil {
		visible = nil
	}
	if degenerate(visible) {
		full := parser.TrimGrid(rows)
		fr, fc := parser.Dimensions(full)
		vr, vc := parser.Dimensions(visible)
		if fr > vr || fc > vc {
			visible = full
		}
	}
	return StripMetaRows(visible), nil
}

// degenerate reports a grid of at most one row holding at most one cell.
func degenerate(values [][]string) bool {
	if len(values) == 0 {
		return true
	}
	return len(values) <= 1 && len(values[0]) <= 1
}

// StripMetaRows removes the leading label rows (mostly et_title_, ps_ or
// option_ cells) and then one meta row (basic_info, media_info, sales_info
// or search_condition) at the first or second position.
func StripMetaRows(values [][]string) [][]string {
	v := values
	for len(v) > 0 && isLabelRow(v[0]) {
		v = v[1:]
	}
	switch {
	case len(v) > 0 && isMetaRow(v[0]):
		v = v[1:]
	case len(v) >= 2 && isMetaRow(v[1]):
		v = append([][]string{v[0]}, v[2:]...)
	}
	return v
}

func isMetaRow(row []string) bool {
	if len(row) > 0 {
		if _, ok := metaFirstCells[strings.ToLower(strings.TrimSpace(row[0]))]; ok {
			return true
		}
	}
	for _, c := range row {
		if strings.Contains(strings.ToLower(c), "search_condition") {
			return true
		}
	}
	return false
}

func isLabelRow(row []string) bool {
	var total, labels int
	for _, c := range row {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		total++
		if labelRe.MatchString(c) || strings.Contains(c, "ps_item_image") ||
			strings.Contains(c, "option_") || strings.Contains(c, "option.") {
			labels++
		}
	}
	if total == 0 {
		return false
	}
	return float64(labels)/float64(total) >= labelRatio
}
