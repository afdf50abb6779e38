package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sirupsen/logrus"
)

// MaxDetailImages is the number of Item Image columns in a template.
const MaxDetailImages = 8

var (
	variationAliases = []string{"variation integration no", "variationintegrationno", "variation no", "variationno", "variation integration", "variation", "variation code", "variation id"}
	skuAliases       = []string{"sku", "seller_sku", "seller sku", "item sku"}
	coverAliases     = []string{"cover image", "coverimageurl", "cover", "cover url"}
	optionAliases    = []string{"image per variation", "image url per variation", "ipv", "variation image", "image each variation"}
)

// DetailCounts reads the number of detail images per variation id from
// Collection values. Counts are clamped to [0, MaxDetailImages]; blank
// cells never replace a count already seen for the same variation.
func DetailCounts(values [][]string) map[string]int {
	counts := map[string]int{}
	if len(values) < 2 {
		return counts
	}
	cols := ResolveCollectionColumns(values[0])
	if cols.VariationID < 0 || cols.DetailCount < 0 {
		return counts
	}
	filled := parser.ForwardFillByGroup(values, cols.VariationID, []int{cols.VariationID}, parser.IsBlankRow, 1)
	for _, row := range filled[1:] {
		v := parser.CellAt(row, cols.VariationID)
		if v == "" {
			continue
		}
		raw := parser.CellAt(row, cols.DetailCount)
		if raw == "" {
			if _, seen := counts[v]; !seen {
				counts[v] = 0
			}
			continue
		}
		counts[v] = parseCount(raw)
	}
	return counts
}

func parseCount(s string) int {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return min(max(int(f), 0), MaxDetailImages)
}

// CoverURL is the cover image of a variation. It is blank without a
// variation id or shop code.
func CoverURL(bases ImageBases, variation, shop string) string {
	if variation == "" || shop == "" || bases.CoverBase() == "" {
		return ""
	}
	return fmt.Sprintf("%s%s_C_%s.jpg", bases.CoverBase(), variation, shop)
}

// OptionURL is the per-variation option image of a SKU.
func OptionURL(bases ImageBases, sku string) string {
	if sku == "" || bases.OptionBase() == "" {
		return ""
	}
	return bases.OptionBase() + sku + ".jpg"
}

// DetailURL is detail image n of a variation, blank when n exceeds count.
func DetailURL(bases ImageBases, variation string, n, count int) string {
	if variation == "" || n > count || bases.DetailsBase() == "" {
		return ""
	}
	return fmt.Sprintf("%s%s_D%d.jpg", bases.DetailsBase(), variation, n)
}

// ImageUpdates returns the cover, option and detail image cells that differ
// from their synthesized URLs. Blocks without a variation column use the
// PID column as the variation id.
func ImageUpdates(values [][]string, counts map[string]int, bases ImageBases, shop string) []models.Cell {
	var cells []models.Cell
	for _, b := range parser.ScanBlocks(values) {
		varIdx := parser.PickIndex(b.Keys, variationAliases...)
		skuIdx := parser.PickIndex(b.Keys, skuAliases...)
		coverIdx := parser.PickIndex(b.Keys, coverAliases...)
		optionIdx := parser.PickIndex(b.Keys, optionAliases...)
		var detailIdx [MaxDetailImages]int
		for n := range detailIdx {
			detailIdx[n] = parser.PickIndex(b.Keys, fmt.Sprintf("item image %d", n+1))
		}

		for r := b.Start; r < b.End; r++ {
			row := values[r]
			if parser.IsBlankRow(row) {
				continue
			}
			variation := parser.CellAt(row, 0)
			if varIdx >= 0 {
				variation = parser.CellAt(row, columnOf(b, varIdx))
			}
			sku := parser.CellAt(row, columnOf(b, skuIdx))

			if coverIdx >= 0 {
				cells = setIfChanged(cells, row, r, b.Column(coverIdx), CoverURL(bases, variation, shop))
			}
			if optionIdx >= 0 {
				cells = setIfChanged(cells, row, r, b.Column(optionIdx), OptionURL(bases, sku))
			}
			count := counts[variation]
			for n, idx := range detailIdx {
				if idx < 0 {
					continue
				}
				cells = setIfChanged(cells, row, r, b.Column(idx), DetailURL(bases, variation, n+1, count))
			}
		}
	}
	return cells
}

// columnOf converts a header index to a 0-based row index, keeping -1.
func columnOf(b models.Block, headerIdx int) int {
	if headerIdx < 0 {
		return -1
	}
	return b.Column(headerIdx) - 1
}

// FillImages writes cover, option and detail image URLs into TEM_OUTPUT.
func FillImages(ctx context.Context, env Env) (models.StepResult, error) {
	log := env.logger(NameImages)
	cfg := env.Config
	if cfg.Images.Empty() {
		return models.StepResult{}, ErrMissingImageBase
	}
	shop := strings.TrimSpace(cfg.ShopCode)
	if shop == "" {
		return models.StepResult{}, ErrMissingShopCode
	}

	values, ok, err := readOutput(ctx, env)
	if err != nil {
		return models.StepResult{}, err
	}
	if !ok {
		log.WithField("sheet", cfg.OutputSheet).Warn("output sheet not found")
		return skipped("output sheet not found"), nil
	}

	collValues, name, ok, err := readOptional(ctx, env.Input, append([]string{cfg.CollectionSheet}, CollectionAliases...)...)
	if err != nil {
		return models.StepResult{}, err
	}
	counts := map[string]int{}
	if ok {
		counts = DetailCounts(collValues)
	} else {
		log.Warn("collection tab not found, detail images left blank")
	}
	log.WithFields(logrus.Fields{"sheet": name, "variations": len(counts)}).Debug("detail counts loaded")

	cells := ImageUpdates(values, counts, cfg.Images, shop)
	if err := applyCells(ctx, env, cells); err != nil {
		return models.StepResult{}, err
	}

	log.WithField("cells", len(cells)).Info("image urls filled")
	return models.StepResult{Cells: len(cells)}, nil
}
