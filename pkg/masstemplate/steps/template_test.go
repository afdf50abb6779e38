package steps

import (
	"context"
	"testing"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplateDict(t *testing.T) {
	dict, order, err := ParseTemplateDict(templateDictValues())
	require.NoError(t, err)
	assert.Equal(t, []string{"beauty", "homeappliances"}, order)
	assert.Equal(t, []string{"Category", "Product Name", "SKU"}, dict["homeappliances"])

	_, _, err = ParseTemplateDict([][]string{{"Top"}})
	assert.ErrorIs(t, err, ErrTemplateDictEmpty)

	_, _, err = ParseTemplateDict([][]string{{"Top"}, {"", "Category"}})
	assert.ErrorIs(t, err, ErrTemplateDictEmpty)
}

func TestParseTemplateDictDropsTrailingBlanks(t *testing.T) {
	dict, _, err := ParseTemplateDict([][]string{{"Top"}, {"Beauty", " Category ", "", "SKU", "", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Category", "", "SKU"}, dict["beauty"])
}

func TestResolveCollectionColumns(t *testing.T) {
	cols := ResolveCollectionColumns(collectionValues()[0])
	assert.Equal(t, 0, cols.Create)
	assert.Equal(t, 1, cols.VariationID)
	assert.Equal(t, 2, cols.SKU)
	assert.Equal(t, 3, cols.Brand)
	assert.Equal(t, 4, cols.OptionName)
	assert.Equal(t, 5, cols.ProductName)
	assert.Equal(t, -1, cols.Description)
	assert.Equal(t, 6, cols.Category)
	assert.Equal(t, 7, cols.DetailCount)
}

func TestMapCollection(t *testing.T) {
	dict, _, err := ParseTemplateDict(templateDictValues())
	require.NoError(t, err)

	m, err := MapCollection(collectionValues(), dict, false)
	require.NoError(t, err)

	require.Len(t, m.Buckets, 2)
	assert.Equal(t, 3, m.Rows)

	beauty := m.Buckets[0]
	assert.Equal(t, "beauty", beauty.Key)
	assert.Equal(t, []string{"V1", "V1"}, beauty.PIDs, "create=false row is excluded and the blank variation is forward-filled")

	keys := parser.HeaderKeys(beauty.Headers)
	col := func(name string) int { return parser.FindColumn(keys, name) }
	first := beauty.Rows[0]
	assert.Equal(t, "101643 - Beauty/Makeup", first[col("category")])
	assert.Equal(t, "SKU1", first[col("sku")])
	assert.Equal(t, "V1", first[col("parent sku")])
	assert.Equal(t, "V1", first[col("variation integration no.")])
	assert.Equal(t, "Red", first[col("option for variation 1")])
	assert.Equal(t, "Acme", first[col("brand")])
	assert.Empty(t, first[col("item image 1")])

	second := beauty.Rows[1]
	assert.Equal(t, "SKU2", second[col("sku")])
	assert.Equal(t, "Lip Gloss", second[col("product name")])
	assert.Equal(t, "101643 - Beauty/Makeup", second[col("category")])

	assert.Equal(t, "homeappliances", m.Buckets[1].Key)
	assert.Equal(t, []string{"V3"}, m.Buckets[1].PIDs)

	require.Len(t, m.Failures, 2)
	assert.Equal(t, models.ReasonTopLevelNotFound, m.Failures[0].Reason)
	assert.Equal(t, "V4", m.Failures[0].ID)
	assert.Equal(t, "top=Toys (Key: toys)", m.Failures[0].Detail)
	assert.Equal(t, models.ReasonCategoryMissing, m.Failures[1].Reason)
	assert.Equal(t, "ROW8", m.Failures[1].ID)
	assert.Equal(t, "row=8", m.Failures[1].Detail)
}

func TestMapCollectionResetOnSkippedRow(t *testing.T) {
	dict, _, err := ParseTemplateDict(templateDictValues())
	require.NoError(t, err)
	values := [][]string{
		{"create", "Variation", "SKU", "Category"},
		{"FALSE", "V1", "SKU1", "Beauty/Makeup"},
		{"TRUE", "", "SKU2", ""},
	}

	m, err := MapCollection(values, dict, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Rows)
	assert.Empty(t, m.Failures)

	m, err = MapCollection(values, dict, true)
	require.NoError(t, err)
	assert.Zero(t, m.Rows)
	require.Len(t, m.Failures, 1)
	assert.Equal(t, "SKU2", m.Failures[0].ID)
}

func TestMapCollectionRequiresCreateColumn(t *testing.T) {
	_, err := MapCollection([][]string{{"SKU", "Category"}, {"S1", "Beauty"}}, models.TemplateDict{"beauty": {"SKU"}}, false)
	assert.ErrorIs(t, err, ErrCreateColumnMissing)
}

func TestBuildTemplate(t *testing.T) {
	input := newWorkbook(t, tab{"Collection", collectionValues()})
	ref := newWorkbook(t, tab{"TemplateDict", templateDictValues()})
	env, _ := newEnv(input, ref)
	ctx := context.Background()

	res, err := BuildTemplate(ctx, env)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.Blocks)
	assert.Len(t, res.Failures, 2)

	values, err := input.Values(ctx, "TEM_OUTPUT")
	require.NoError(t, err)
	blocks := parser.ScanBlocks(values)
	require.Len(t, blocks, 2)
	assert.Equal(t, "PID", values[0][0])
	assert.Equal(t, "V1", values[1][0])
	assert.Equal(t, 3, blocks[1].HeaderRow)

	failures, err := input.Values(ctx, "Failures")
	require.NoError(t, err)
	require.Len(t, failures, 3)
	assert.Equal(t, models.FailureHeader, failures[0])
	assert.Equal(t, "TEMPLATE_TOPLEVEL_NOT_FOUND", failures[1][3])
}

func TestBuildTemplateErrors(t *testing.T) {
	ctx := context.Background()
	input := newWorkbook(t, tab{"Collection", collectionValues()})

	env, _ := newEnv(input, nil)
	_, err := BuildTemplate(ctx, env)
	assert.ErrorIs(t, err, ErrMissingReference)

	env, _ = newEnv(input, newWorkbook(t, tab{"Other", [][]string{{"x"}}}))
	_, err = BuildTemplate(ctx, env)
	assert.ErrorIs(t, err, ErrTemplateDictEmpty)

	env, _ = newEnv(newWorkbook(t, tab{"Collection", [][]string{{"create"}}}), newWorkbook(t, tab{"TemplateDict", templateDictValues()}))
	res, err := BuildTemplate(ctx, env)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
}
