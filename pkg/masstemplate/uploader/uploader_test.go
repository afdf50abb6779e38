package uploader

import (
	"context"
	"strings"
	"testing"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store/xlsx"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// exportFile builds an xlsx export in memory. hidden lists 1-based rows to hide.
func exportFile(t *testing.T, rows [][]string, hidden ...int) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &vals))
	}
	for _, r := range hidden {
		require.NoError(t, f.SetRowVisible("Sheet1", r, false))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func shopeeBasic() [][]string {
	return [][]string{
		{"et_title_product_name", "et_title_category", "ps_item_image.1"},
		{"basic_info", "", ""},
		{"Product Name", "Category", "Image"},
		{"hidden note", "", ""},
		{"Lipstick", "101643", "https://cdn/1.jpg"},
		{"Mascara", "101644", ""},
	}
}

func TestTargetTab(t *testing.T) {
	assert.Equal(t, TabBasic, TargetTab("Shopee_mass_upload_BASIC_info.xlsx"))
	assert.Equal(t, TabMedia, TargetTab("media-export.xlsx"))
	assert.Equal(t, TabSales, TargetTab("SALES.xlsx"))
	assert.Equal(t, "", TargetTab("pricing.xlsx"))
}

func TestStripMetaRows(t *testing.T) {
	got := StripMetaRows(shopeeBasic())
	assert.Equal(t, "Product Name", got[0][0])
	assert.Len(t, got, 4)

	// Meta row in second position keeps the header above it.
	got = StripMetaRows([][]string{
		{"Name", "Price"},
		{"", "search_condition: all"},
		{"A", "1"},
	})
	assert.Equal(t, [][]string{{"Name", "Price"}, {"A", "1"}}, got)

	plain := [][]string{{"Name"}, {"A"}}
	assert.Equal(t, plain, StripMetaRows(plain))
}

func TestIsLabelRow(t *testing.T) {
	assert.True(t, isLabelRow([]string{"et_title_a", "ps_b", "Price"}))
	assert.False(t, isLabelRow([]string{"et_title_a", "Name", "Price"}))
	assert.False(t, isLabelRow([]string{"", ""}))
}

func TestReadValuesSkipsHiddenRows(t *testing.T) {
	values, err := ReadValues(exportFile(t, shopeeBasic(), 4))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Product Name", "Category", "Image"},
		{"Lipstick", "101643", "https://cdn/1.jpg"},
		{"Mascara", "101644", ""},
	}, values)
}

func TestReadValuesFallsBackToAllRows(t *testing.T) {
	rows := [][]string{{"Name", "Price"}, {"A", "1"}}
	values, err := ReadValues(exportFile(t, rows, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, rows, values)
}

func TestReadValuesRejectsGarbage(t *testing.T) {
	_, err := ReadValues([]byte("not a workbook"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	wb := xlsx.New(excelize.NewFile(), "")
	defer wb.Close()
	log, hook := test.NewNullLogger()

	u := New(2, log)
	lines := u.Apply(ctx, wb, []File{
		{Name: "basic.xlsx", Data: exportFile(t, shopeeBasic(), 4)},
		{Name: "notes.xlsx", Data: exportFile(t, [][]string{{"x"}})},
		{Name: "sales.xlsx", Data: []byte("broken")},
	})

	var levels []models.LogLevel
	for _, l := range lines {
		levels = append(levels, l.Level)
	}
	assert.Equal(t, []models.LogLevel{models.LevelInfo, models.LevelOK, models.LevelSkip, models.LevelError}, levels)
	assert.Equal(t, "[INFO] BASIC: parsed shape = 3x3", lines[0].String())
	assert.Len(t, hook.AllEntries(), len(lines))

	values, err := wb.Values(ctx, TabBasic)
	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, []string{"Mascara", "101644"}, values[2])
}

func TestApplyReplacesExistingTab(t *testing.T) {
	ctx := context.Background()
	wb := xlsx.New(excelize.NewFile(), "")
	defer wb.Close()
	require.NoError(t, wb.AddWorksheet(ctx, TabMedia, 100, 26))
	require.NoError(t, wb.Write(ctx, TabMedia, 1, [][]string{{"old"}, {"old"}, {"old"}, {"old"}}))

	log, _ := test.NewNullLogger()
	New(0, log).Apply(ctx, wb, []File{{Name: "MEDIA.xlsx", Data: exportFile(t, [][]string{{"Image"}, {"a.jpg"}})}})

	values, err := wb.Values(ctx, TabMedia)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Image"}, {"a.jpg"}}, values)
}

func TestApplyWarnings(t *testing.T) {
	ctx := context.Background()
	wb := xlsx.New(excelize.NewFile(), "")
	defer wb.Close()
	log, _ := test.NewNullLogger()
	u := New(0, log)

	lines := u.Apply(ctx, wb, nil)
	require.Len(t, lines, 1)
	assert.Equal(t, models.LevelWarn, lines[0].Level)

	lines = u.Apply(ctx, wb, []File{{Name: "other.xlsx"}})
	require.Len(t, lines, 2)
	assert.Equal(t, models.LevelSkip, lines[0].Level)
	assert.Equal(t, models.LevelWarn, lines[1].Level)
	assert.True(t, strings.Contains(lines[1].Message, "no tab was updated"))
}
