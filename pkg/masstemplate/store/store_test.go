package store_test

import (
	"context"
	"testing"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store/xlsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newWorkbook(t *testing.T, sheets ...string) *xlsx.Workbook {
	t.Helper()
	f := excelize.NewFile()
	for _, s := range sheets {
		_, err := f.NewSheet(s)
		require.NoError(t, err)
	}
	wb := xlsx.New(f, "")
	t.Cleanup(func() { wb.Close() })
	return wb
}

func TestMatchWorksheet(t *testing.T) {
	titles := []string{"Sheet1", "Collection Raw", "collection", "TEM_OUTPUT"}

	name, ok := store.MatchWorksheet(titles, "Collection")
	assert.True(t, ok)
	assert.Equal(t, "collection", name, "exact match wins over an earlier partial one")

	name, ok = store.MatchWorksheet(titles, "raw")
	assert.True(t, ok)
	assert.Equal(t, "Collection Raw", name)

	name, ok = store.MatchWorksheet(titles, "missing", "tem_output")
	assert.True(t, ok)
	assert.Equal(t, "TEM_OUTPUT", name)

	_, ok = store.MatchWorksheet(titles, "", "nothing")
	assert.False(t, ok)
}

func TestFindWorksheet(t *testing.T) {
	wb := newWorkbook(t, "MARGIN")

	name, err := store.FindWorksheet(context.Background(), wb, "margin")
	require.NoError(t, err)
	assert.Equal(t, "MARGIN", name)

	_, err = store.FindWorksheet(context.Background(), wb, "TH Cos")
	assert.ErrorIs(t, err, store.ErrWorksheetNotFound)
}

func TestResetWorksheet(t *testing.T) {
	ctx := context.Background()
	wb := newWorkbook(t)

	created, err := store.ResetWorksheet(ctx, wb, "TEM_OUTPUT", 2000, 200)
	require.NoError(t, err)
	assert.True(t, created)

	require.NoError(t, wb.Write(ctx, "TEM_OUTPUT", 1, [][]string{{"x"}}))
	created, err = store.ResetWorksheet(ctx, wb, "TEM_OUTPUT", 2000, 200)
	require.NoError(t, err)
	assert.False(t, created)

	values, err := wb.Values(ctx, "TEM_OUTPUT")
	require.NoError(t, err)
	assert.Empty(t, values)

	require.NoError(t, store.EnsureSize(ctx, wb, "TEM_OUTPUT", 10, 10))
}

func TestRouter(t *testing.T) {
	ctx := context.Background()
	var opened string
	sheets := store.OpenerFunc(func(ctx context.Context, ref string) (store.Workbook, error) {
		opened = ref
		return nil, nil
	})

	r := store.Router{Sheets: sheets}
	_, err := r.Open(ctx, " https://docs.google.com/spreadsheets/d/abc/edit ")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc/edit", opened)

	_, err = r.Open(ctx, "/tmp/shop.XLSX")
	assert.ErrorIs(t, err, store.ErrNoBackend)
}

func TestGet(t *testing.T) {
	values := [][]string{{" a "}, {}}
	assert.Equal(t, "a", store.Get(values, 0, 0))
	assert.Equal(t, "", store.Get(values, 1, 0))
	assert.Equal(t, "", store.Get(values, 5, 0))
	assert.Equal(t, "", store.Get(values, 0, -1))
}

type closeCounter struct {
	store.Workbook
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func TestClose(t *testing.T) {
	wb := &closeCounter{Workbook: newWorkbook(t)}
	require.NoError(t, store.Close(wb))
	assert.Equal(t, 1, wb.closed)

	// Workbooks without local resources are left alone.
	require.NoError(t, store.Close(struct{ store.Workbook }{wb}))
	assert.Equal(t, 1, wb.closed)
}
