package output

import (
	"fmt"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/xuri/excelize/v2"
)

// ToXLSX renders one worksheet per TEM_OUTPUT block with a bold header row.
func ToXLSX(values [][]string) ([]byte, error) {
	sheets, err := SplitSheets(values)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		return nil, ErrEmptyOutput
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	defaultSheet := f.GetSheetName(0)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.Name); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return nil, err
		}
		if err := writeSheet(f, s, bold); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", s.Name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s Sheet, style int) error {
	if err := setRow(f, s.Name, 1, s.Header); err != nil {
		return err
	}
	if len(s.Header) > 0 {
		if err := f.SetCellStyle(s.Name, "A1", parser.CellName(len(s.Header), 1), style); err != nil {
			return err
		}
	}
	for i, row := range s.Rows {
		if err := setRow(f, s.Name, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, parser.CellName(1, row), &cells)
}
