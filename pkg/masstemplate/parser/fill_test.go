package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardFillByGroup(t *testing.T) {
	rows := [][]string{
		{"create", "variation", "sku", "category"},
		{"TRUE", "V1", "S1", "Beauty"},
		{"TRUE", "", "S2", ""},
		{"TRUE", "V1", "S3", ""},
		{"", "", "", ""},
		{"TRUE", "", "S4", ""},
		{"TRUE", "V2", "S5", "Home"},
		{"TRUE", "", "S6"},
	}

	out := ForwardFillByGroup(rows, 1, []int{1, 3}, IsBlankRow, 1)
	require.Len(t, out, len(rows))

	assert.Equal(t, []string{"create", "variation", "sku", "category"}, out[0])
	assert.Equal(t, []string{"TRUE", "V1", "S2", "Beauty"}, out[2])
	assert.Equal(t, []string{"TRUE", "V1", "S3", "Beauty"}, out[3], "same group id continues the run")
	assert.Equal(t, []string{"", "", "", ""}, out[4])
	assert.Equal(t, []string{"TRUE", "", "S4", ""}, out[5], "blank row resets the carry")
	assert.Equal(t, []string{"TRUE", "V2", "S6", "Home"}, out[7], "ragged rows are padded and filled")

	// Input is untouched.
	assert.Equal(t, "", rows[2][3])
}

func TestForwardFillByGroupNewGroupStartsFresh(t *testing.T) {
	rows := [][]string{
		{"variation", "brand"},
		{"V1", "Acme"},
		{"V2", ""},
		{"", ""},
	}

	out := ForwardFillByGroup(rows, 0, []int{0, 1}, nil, 1)

	assert.Equal(t, []string{"V2", ""}, out[2])
	assert.Equal(t, []string{"V2", ""}, out[3])
}

func TestForwardFillByGroupResetOnSkipped(t *testing.T) {
	rows := [][]string{
		{"create", "variation", "category"},
		{"TRUE", "V1", "Beauty"},
		{"FALSE", "", ""},
		{"TRUE", "", ""},
	}
	skipped := func(row []string) bool { return !IsTrue(CellAt(row, 0)) }

	out := ForwardFillByGroup(rows, 1, []int{1, 2}, skipped, 1)

	assert.Equal(t, []string{"FALSE", "", ""}, out[2])
	assert.Equal(t, []string{"TRUE", "", ""}, out[3])
}

func TestPadRowsAndDimensions(t *testing.T) {
	rows := [][]string{{"a"}, {"b", "c", "d"}, nil}

	out := PadRows(rows, 0)
	r, c := Dimensions(out)
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	for _, row := range out {
		assert.Len(t, row, 3)
	}

	assert.Len(t, PadRows(rows, 5)[0], 5)
}
