package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanBlocks(t *testing.T) {
	values := [][]string{
		{""},
		{"PID", "Category", "Product Name", "SKU"},
		{"V1", "Beauty/Makeup", "Lip", "S1"},
		{"V1", "Beauty/Makeup", "Lip", "S2"},
		{"PID", "category", "Product Name", "Weight"},
		{"V2", "Home/Kitchen", "Pan", "1"},
	}

	blocks := ScanBlocks(values)
	require.Len(t, blocks, 2)

	assert.Equal(t, 1, blocks[0].HeaderRow)
	assert.Equal(t, 2, blocks[0].Start)
	assert.Equal(t, 4, blocks[0].End)
	assert.Equal(t, []string{"Category", "Product Name", "SKU"}, blocks[0].Headers)
	assert.Equal(t, []string{"category", "productname", "sku"}, blocks[0].Keys)
	assert.Equal(t, 4, blocks[0].Column(2))

	assert.Equal(t, 4, blocks[1].HeaderRow)
	assert.Equal(t, 5, blocks[1].Start)
	assert.Equal(t, 6, blocks[1].End)
}

func TestScanBlocksNoHeader(t *testing.T) {
	assert.Empty(t, ScanBlocks([][]string{{"a", "b"}, {"c"}}))
	assert.Empty(t, ScanBlocks(nil))
}

func TestDataBounds(t *testing.T) {
	rows := [][]string{
		{"", "", ""},
		{"", "x", ""},
		{"", "", "y", ""},
	}

	minRow, maxRow, minCol, maxCol := DataBounds(rows)
	assert.Equal(t, 1, minRow)
	assert.Equal(t, 2, maxRow)
	assert.Equal(t, 1, minCol)
	assert.Equal(t, 2, maxCol)
	assert.Equal(t, 2, CountNonEmpty(rows, minRow, maxRow, minCol, maxCol))

	minRow, _, _, _ = DataBounds([][]string{{""}})
	assert.Equal(t, -1, minRow)
}
