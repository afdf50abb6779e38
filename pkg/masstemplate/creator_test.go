package masstemplate

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/output"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/steps"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store/xlsx"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type tab struct {
	name   string
	values [][]string
}

func fixture(t *testing.T, tabs ...tab) *xlsx.Workbook {
	t.Helper()
	wb := xlsx.New(excelize.NewFile(), "")
	t.Cleanup(func() { wb.Close() })
	ctx := context.Background()
	for _, tb := range tabs {
		require.NoError(t, wb.AddWorksheet(ctx, tb.name, 100, 26))
		require.NoError(t, wb.Write(ctx, tb.name, 1, tb.values))
	}
	return wb
}

func newTestCreator(t *testing.T) (*Creator, *xlsx.Workbook, *test.Hook) {
	t.Helper()
	input := fixture(t,
		tab{"Collection", [][]string{
			{"create", "Variation", "SKU", "Category", "Details Index"},
			{"TRUE", "V1", "SKU1", "101643 - Beauty/Makeup", "3"},
			{"TRUE", "V2", "SKU2", "Toys/Dolls", "1"},
		}},
		tab{"MARGIN", [][]string{{"sku", "price", "weight"}, {"SKU1", "199", "0.3"}}},
	)
	ref := fixture(t,
		tab{"TemplateDict", [][]string{
			{"Top", "Headers"},
			{"Beauty", "Category", "SKU", "FDA Registration No.", "Item Image 1", "Item Image 4", "SKU Price", "Stock"},
		}},
		tab{"TH Cos", [][]string{{"101643 - Beauty/Makeup"}}},
	)
	books := map[string]store.Workbook{"shop": input, "ref": ref}
	opener := store.OpenerFunc(func(_ context.Context, name string) (store.Workbook, error) {
		if wb, ok := books[name]; ok {
			return wb, nil
		}
		return nil, errors.New("no such spreadsheet")
	})

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	c := NewCreator(opener, "ref", log)
	c.Config.Images = steps.ImageBases{Base: "https://cdn.example.com/img"}
	c.Config.ShopCode = "SHOP"
	return c, input, hook
}

func TestOptions(t *testing.T) {
	o := DefaultOptions()
	assert.False(t, o.ShouldIncludeMandatory())
	assert.True(t, o.ShouldRebuild())
	assert.Len(t, o.Steps(), 5)

	o.Mode = ModeFull
	assert.True(t, o.ShouldIncludeMandatory())
	off := false
	o.IncludeMandatory = &off
	assert.False(t, o.ShouldIncludeMandatory())

	o = Options{Mode: ModeFill}
	names := []string{}
	for _, s := range o.Steps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{steps.NameFDA, steps.NameDefaults, steps.NameImages}, names)

	m, ok := ParseMode("")
	assert.True(t, ok)
	assert.Equal(t, ModeStandard, m)
	_, ok = ParseMode("turbo")
	assert.False(t, ok)
}

func TestRun(t *testing.T) {
	c, input, hook := newTestCreator(t)
	ctx := context.Background()

	report, err := c.Run(ctx, Request{Spreadsheet: "shop"})
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Steps, 5)
	assert.Equal(t, steps.NameBuild, report.Steps[1].Name)
	assert.Equal(t, 1, report.Steps[1].Count)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "V2", report.Failures[0].ID)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.Equal(t, "run finished", hook.LastEntry().Message)

	values, err := input.Values(ctx, "TEM_OUTPUT")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, []string{
		"V1", "101643 - Beauty/Makeup", "SKU1", "10-1-9999999",
		"https://cdn.example.com/img/V1_D1.jpg", "", "199", "1000",
	}, values[1])
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	c, _, _ := newTestCreator(t)
	c.Config.ShopCode = ""

	report, err := c.Run(context.Background(), Request{Spreadsheet: "shop"})
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, steps.NameImages, stepErr.Step)
	assert.ErrorIs(t, err, ErrMissingShopCode)
	assert.True(t, IsValidation(err))

	require.Len(t, report.Steps, 5)
	assert.False(t, report.OK())
	assert.False(t, report.Steps[4].OK)
	assert.NotEmpty(t, report.Steps[4].Error)
}

func TestRunOverridesShopCode(t *testing.T) {
	c, _, _ := newTestCreator(t)
	c.Config.ShopCode = ""

	report, err := c.Run(context.Background(), Request{Spreadsheet: "shop", ShopCode: "OTHER"})
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestRunValidation(t *testing.T) {
	c, _, _ := newTestCreator(t)
	_, err := c.Run(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrMissingSpreadsheet)

	_, err = c.Run(context.Background(), Request{Spreadsheet: "missing"})
	assert.Error(t, err)
	assert.False(t, IsValidation(err))
}

func TestRunStep(t *testing.T) {
	c, input, _ := newTestCreator(t)
	ctx := context.Background()

	entry, err := c.RunStep(ctx, Request{Spreadsheet: "shop"}, "fill-fda")
	require.NoError(t, err)
	assert.True(t, entry.Skipped, "fda step skips without TEM_OUTPUT")

	_, err = c.RunStep(ctx, Request{Spreadsheet: "shop"}, "build-template")
	require.NoError(t, err)
	entry, err = c.RunStep(ctx, Request{Spreadsheet: "shop"}, "fill-fda")
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)

	values, err := input.Values(ctx, "TEM_OUTPUT")
	require.NoError(t, err)
	assert.Equal(t, "10-1-9999999", values[1][3])

	_, err = c.RunStep(ctx, Request{Spreadsheet: "shop"}, "nope")
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestExport(t *testing.T) {
	c, _, _ := newTestCreator(t)
	ctx := context.Background()
	_, err := c.Run(ctx, Request{Spreadsheet: "shop"})
	require.NoError(t, err)

	data, err := c.Export(ctx, "shop", output.FormatCSV)
	require.NoError(t, err)
	rows, err := output.ParseCSV(data)
	require.NoError(t, err)
	assert.Equal(t, "Category", rows[0][0])
	assert.Equal(t, "101643-Beauty/Makeup", rows[1][0])

	data, err = c.Export(ctx, "shop", output.FormatXLSX)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Beauty"}, f.GetSheetList())

	_, err = c.Export(ctx, "", output.FormatCSV)
	assert.ErrorIs(t, err, ErrMissingSpreadsheet)
}

func TestRunRequestOverrides(t *testing.T) {
	c, _, _ := newTestCreator(t)
	on := true

	report, err := c.Run(context.Background(), Request{Spreadsheet: "shop", Mandatory: &on})
	require.NoError(t, err)
	require.Len(t, report.Steps, 6)
	assert.Equal(t, steps.NameMandatory, report.Steps[5].Name)
	assert.True(t, report.Steps[5].Skipped, "no mandatory rules in the reference")

	report, err = c.Run(context.Background(), Request{Spreadsheet: "shop", Mode: ModeFill})
	require.NoError(t, err)
	assert.Len(t, report.Steps, 3)
}

type closeTracker struct {
	store.Workbook
	name   string
	closes map[string]int
}

func (w closeTracker) Close() error {
	w.closes[w.name]++
	return nil
}

func TestCreatorClosesWorkbooks(t *testing.T) {
	c, _, _ := newTestCreator(t)
	ctx := context.Background()
	inner := c.Opener
	closes := map[string]int{}
	c.Opener = store.OpenerFunc(func(ctx context.Context, name string) (store.Workbook, error) {
		wb, err := inner.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		return closeTracker{Workbook: wb, name: name, closes: closes}, nil
	})

	_, err := c.Run(ctx, Request{Spreadsheet: "shop"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"shop": 1, "ref": 1}, closes)

	_, err = c.RunStep(ctx, Request{Spreadsheet: "shop"}, steps.NameFDA)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"shop": 2, "ref": 2}, closes)

	_, err = c.Export(ctx, "shop", output.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 3, closes["shop"])

	_, err = c.Run(ctx, Request{Spreadsheet: "shop", Reference: "missing"})
	require.Error(t, err)
	assert.Equal(t, 4, closes["shop"], "input is closed when the reference fails to open")
}
