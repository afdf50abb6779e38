package gsheets

import (
	"context"
	"fmt"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw     = "RAW"
	valueRenderFormat = "FORMATTED_VALUE"
	// maxRangesPerBatch bounds a single values:batchUpdate body.
	maxRangesPerBatch = 1000
)

// Spreadsheet is a store.Workbook over one Google spreadsheet.
type Spreadsheet struct {
	c      *Client
	id     string
	title  string
	sheets []*sheets.SheetProperties
}

var _ store.Workbook = (*Spreadsheet)(nil)

func (s *Spreadsheet) refresh(ctx context.Context) error {
	var resp *sheets.Spreadsheet
	err := s.c.call(ctx, "spreadsheets.get", func(ctx context.Context) error {
		var err error
		resp, err = s.c.svc.Spreadsheets.Get(s.id).
			Fields("properties.title,sheets.properties").
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("open spreadsheet %s: %w", s.id, err)
	}
	if resp.Properties != nil {
		s.title = resp.Properties.Title
	}
	s.sheets = s.sheets[:0]
	for _, sh := range resp.Sheets {
		if sh.Properties != nil {
			s.sheets = append(s.sheets, sh.Properties)
		}
	}
	return nil
}

func (s *Spreadsheet) props(sheet string) (*sheets.SheetProperties, error) {
	for _, p := range s.sheets {
		if p.Title == sheet {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", store.ErrWorksheetNotFound, sheet)
}

func (s *Spreadsheet) Title() string { return s.title }

func (s *Spreadsheet) ID() string { return s.id }

// Link returns the browser URL of the spreadsheet.
func (s *Spreadsheet) Link() string { return parser.SheetLink(s.id) }

func (s *Spreadsheet) Worksheets(_ context.Context) ([]string, error) {
	titles := make([]string, len(s.sheets))
	for i, p := range s.sheets {
		titles[i] = p.Title
	}
	return titles, nil
}

func (s *Spreadsheet) Values(ctx context.Context, sheet string) ([][]string, error) {
	if _, err := s.props(sheet); err != nil {
		return nil, err
	}
	var vr *sheets.ValueRange
	err := s.c.call(ctx, "values.get", func(ctx context.Context) error {
		var err error
		vr, err = s.c.svc.Spreadsheets.Values.Get(s.id, parser.SheetRange(sheet)).
			ValueRenderOption(valueRenderFormat).
			Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	out := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out, nil
}

func (s *Spreadsheet) Size(_ context.Context, sheet string) (int, int, error) {
	p, err := s.props(sheet)
	if err != nil {
		return 0, 0, err
	}
	if p.GridProperties == nil {
		return 0, 0, nil
	}
	return int(p.GridProperties.RowCount), int(p.GridProperties.ColumnCount), nil
}

func (s *Spreadsheet) Clear(ctx context.Context, sheet string) error {
	if _, err := s.props(sheet); err != nil {
		return err
	}
	return s.c.call(ctx, "values.clear", func(ctx context.Context) error {
		_, err := s.c.svc.Spreadsheets.Values.Clear(s.id, parser.SheetRange(sheet), &sheets.ClearValuesRequest{}).
			Context(ctx).Do()
		return err
	})
}

func (s *Spreadsheet) batchUpdate(ctx context.Context, op string, reqs ...*sheets.Request) (*sheets.BatchUpdateSpreadsheetResponse, error) {
	var resp *sheets.BatchUpdateSpreadsheetResponse
	err := s.c.call(ctx, op, func(ctx context.Context) error {
		var err error
		resp, err = s.c.svc.Spreadsheets.BatchUpdate(s.id, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).
			Context(ctx).Do()
		return err
	})
	return resp, err
}

func (s *Spreadsheet) AddWorksheet(ctx context.Context, title string, rows, cols int) error {
	resp, err := s.batchUpdate(ctx, "addSheet", &sheets.Request{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{
				Title: title,
				GridProperties: &sheets.GridProperties{
					RowCount:    int64(rows),
					ColumnCount: int64(cols),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("add worksheet %s: %w", title, err)
	}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		s.sheets = append(s.sheets, resp.Replies[0].AddSheet.Properties)
		return nil
	}
	return s.refresh(ctx)
}

func (s *Spreadsheet) Resize(ctx context.Context, sheet string, rows, cols int) error {
	p, err := s.props(sheet)
	if err != nil {
		return err
	}
	grid := &sheets.GridProperties{RowCount: int64(rows), ColumnCount: int64(cols)}
	_, err = s.batchUpdate(ctx, "updateSheetProperties", &sheets.Request{
		UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId:         p.SheetId,
				GridProperties:  grid,
				ForceSendFields: []string{"SheetId"},
			},
			Fields: "gridProperties(rowCount,columnCount)",
		},
	})
	if err != nil {
		return fmt.Errorf("resize %s: %w", sheet, err)
	}
	p.GridProperties = grid
	return nil
}

func (s *Spreadsheet) Write(ctx context.Context, sheet string, startRow int, values [][]string) error {
	if _, err := s.props(sheet); err != nil {
		return err
	}
	rows, cols := parser.Dimensions(values)
	if rows == 0 || cols == 0 {
		return nil
	}
	rng := parser.RangeName(sheet, startRow, 1, startRow+rows-1, cols)
	body := &sheets.ValueRange{Values: toInterfaces(values)}
	return s.c.call(ctx, "values.update", func(ctx context.Context) error {
		_, err := s.c.svc.Spreadsheets.Values.Update(s.id, rng, body).
			ValueInputOption(valueInputRaw).
			Context(ctx).Do()
		return err
	})
}

func (s *Spreadsheet) UpdateCells(ctx context.Context, sheet string, cells []models.Cell) error {
	if _, err := s.props(sheet); err != nil {
		return err
	}
	for start := 0; start < len(cells); start += maxRangesPerBatch {
		end := min(start+maxRangesPerBatch, len(cells))
		data := make([]*sheets.ValueRange, 0, end-start)
		for _, c := range cells[start:end] {
			data = append(data, &sheets.ValueRange{
				Range:  parser.RangeName(sheet, c.Row, c.Col, c.Row, c.Col),
				Values: [][]interface{}{{c.Value}},
			})
		}
		req := &sheets.BatchUpdateValuesRequest{ValueInputOption: valueInputRaw, Data: data}
		err := s.c.call(ctx, "values.batchUpdate", func(ctx context.Context) error {
			_, err := s.c.svc.Spreadsheets.Values.BatchUpdate(s.id, req).Context(ctx).Do()
			return err
		})
		if err != nil {
			return fmt.Errorf("update cells in %s: %w", sheet, err)
		}
	}
	return nil
}

func (s *Spreadsheet) Highlight(ctx context.Context, sheet string, ranges []models.GridRange, color models.Color) error {
	p, err := s.props(sheet)
	if err != nil {
		return err
	}
	if len(ranges) == 0 {
		return nil
	}
	bg := &sheets.Color{
		Red:             color.Red,
		Green:           color.Green,
		Blue:            color.Blue,
		ForceSendFields: []string{"Red", "Green", "Blue"},
	}
	reqs := make([]*sheets.Request, 0, len(ranges))
	for _, g := range ranges {
		reqs = append(reqs, &sheets.Request{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          p.SheetId,
					StartRowIndex:    int64(g.StartRow),
					EndRowIndex:      int64(g.EndRow),
					StartColumnIndex: int64(g.StartCol),
					EndColumnIndex:   int64(g.EndCol),
					ForceSendFields:  []string{"SheetId", "StartRowIndex", "StartColumnIndex"},
				},
				Cell:   &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{BackgroundColor: bg}},
				Fields: "userEnteredFormat.backgroundColor",
			},
		})
	}
	if _, err := s.batchUpdate(ctx, "repeatCell", reqs...); err != nil {
		return fmt.Errorf("highlight %s: %w", sheet, err)
	}
	return nil
}

func toInterfaces(values [][]string) [][]interface{} {
	out := make([][]interface{}, len(values))
	for i, row := range values {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
