package output

import (
	"bytes"
	"encoding/csv"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
)

// utf8BOM makes spreadsheet apps detect UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVRows flattens TEM_OUTPUT into CSV rows: every row loses its PID
// column and, inside a block whose first header is Category, the category
// code is normalized.
func CSVRows(values [][]string) [][]string {
	var out [][]string
	var normalize bool
	inBlock := false
	for _, row := range values {
		if parser.IsHeaderRow(row) {
			header := dropPID(row)
			normalize = parser.HeaderKey(parser.CellAt(header, 0)) == "category"
			inBlock = true
			out = append(out, header)
			continue
		}
		if len(row) == 0 {
			continue
		}
		data := dropPID(row)
		if inBlock && normalize && len(data) > 0 {
			data[0] = parser.NormalizeCategoryCode(data[0])
		}
		if inBlock || len(data) > 0 {
			out = append(out, data)
		}
	}
	return out
}

// ToCSV renders TEM_OUTPUT as UTF-8 CSV with a byte order mark.
func ToCSV(values [][]string) ([]byte, error) {
	rows := CSVRows(values)
	if len(rows) == 0 {
		return nil, ErrEmptyOutput
	}
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseCSV reads an exported CSV back into rows, dropping the byte order mark.
func ParseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}
