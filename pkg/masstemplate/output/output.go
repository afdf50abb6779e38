// Package output renders TEM_OUTPUT as upload files.
package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrNoHeaderRow indicates TEM_OUTPUT has no block header row.
	ErrNoHeaderRow = errors.New("no header row (Category) found in output")
	// ErrEmptyOutput indicates TEM_OUTPUT holds nothing to export.
	ErrEmptyOutput = errors.New("output is empty")
)

// Format is an export file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat parses a format name, defaulting to xlsx when empty.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("invalid format: %s (must be xlsx or csv)", s)
}

// ContentType is the MIME type of files in this format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName is the download name for a shop's export.
func (f Format) FileName(shop string) string {
	if shop = strings.TrimSpace(shop); shop == "" {
		shop = "TEMPLATE"
	}
	return fmt.Sprintf("%s_TEM_OUTPUT.%s", shop, f)
}

// Render renders TEM_OUTPUT values in the given format.
func Render(values [][]string, f Format) ([]byte, error) {
	if f == FormatCSV {
		return ToCSV(values)
	}
	return ToXLSX(values)
}

// Sheet is one exported block: PID column removed, headers aligned to the
// data width.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

var titleCaser = cases.Title(language.Und)

// SplitSheets cuts TEM_OUTPUT values into one sheet per header block.
// Blocks without data rows are dropped. Sheet names come from the
// top-level category of the first row and are unique.
func SplitSheets(values [][]string) ([]Sheet, error) {
	blocks := parser.ScanBlocks(values)
	if len(blocks) == 0 {
		return nil, ErrNoHeaderRow
	}

	var sheets []Sheet
	used := map[string]int{}
	for _, b := range blocks {
		var rows [][]string
		width := len(b.Headers)
		for r := b.Start; r < b.End; r++ {
			if parser.IsBlankRow(values[r]) {
				continue
			}
			row := dropPID(values[r])
			width = max(width, len(row))
			rows = append(rows, row)
		}
		if len(rows) == 0 {
			continue
		}

		header := make([]string, width)
		copy(header, b.Headers)
		for k := len(b.Headers); k < width; k++ {
			header[k] = fmt.Sprintf("col_%d", k)
		}

		catIdx := -1
		if len(b.Keys) > 0 && b.Keys[0] == "category" {
			catIdx = 0
		}
		for i, row := range rows {
			padded := make([]string, width)
			copy(padded, row)
			if catIdx >= 0 {
				padded[catIdx] = parser.NormalizeCategoryCode(padded[catIdx])
			}
			rows[i] = padded
		}

		first := "UNKNOWN"
		if idx := parser.FindColumn(b.Keys, "category"); idx >= 0 {
			if top := parser.TopOfCategory(rows[0][idx]); top != "" {
				first = top
			}
		}
		sheets = append(sheets, Sheet{
			Name:   uniqueName(used, parser.SafeSheetName(titleCaser.String(first))),
			Header: header,
			Rows:   rows,
		})
	}
	return sheets, nil
}

func dropPID(row []string) []string {
	if len(row) <= 1 {
		return nil
	}
	return append([]string(nil), row[1:]...)
}

func uniqueName(used map[string]int, name string) string {
	key := strings.ToLower(name)
	n := used[key]
	used[key] = n + 1
	if n == 0 {
		return name
	}
	for {
		n++
		suffix := fmt.Sprintf("_%d", n)
		r := []rune(name)
		if len(r)+len(suffix) > 31 {
			r = r[:31-len(suffix)]
		}
		candidate := string(r) + suffix
		if _, taken := used[strings.ToLower(candidate)]; !taken {
			used[strings.ToLower(candidate)] = 1
			return candidate
		}
	}
}
