package steps

import (
	"context"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sirupsen/logrus"
)

// Margin is the consumer price and shipping weight of one SKU.
type Margin struct {
	Price  string
	Weight string
}

// ParseMargin reads MARGIN values (header row first) into a per-SKU table.
// Fields merge per SKU: a later non-empty price or weight replaces an earlier
// one, blank cells never erase a value.
func ParseMargin(values [][]string) map[string]Margin {
	out := map[string]Margin{}
	if len(values) < 2 {
		return out
	}
	keys := parser.HeaderKeys(values[0])
	skuIdx := parser.FindColumn(keys, "sku", "seller_sku")
	priceIdx := parser.FindColumn(keys, "소비자가", "consumer price", "price")
	weightIdx := parser.FindColumn(keys, "weight", "무게", "gross weight")
	if skuIdx < 0 {
		return out
	}
	for _, row := range values[1:] {
		sku := parser.CellAt(row, skuIdx)
		if sku == "" {
			continue
		}
		m := out[sku]
		if v := parser.CellAt(row, priceIdx); v != "" {
			m.Price = v
		}
		if v := parser.CellAt(row, weightIdx); v != "" {
			m.Weight = v
		}
		out[sku] = m
	}
	return out
}

// Defaults are the fixed values written on every SKU row.
type Defaults struct {
	Stock      string
	Brand      string
	DaysToShip string
}

type defaultColumns struct {
	sku, price, stock, weight, brand, days int
}

func resolveDefaultColumns(keys []string) defaultColumns {
	return defaultColumns{
		sku:    parser.FindColumn(keys, "sku"),
		price:  parser.FindColumn(keys, "sku price", "price"),
		stock:  parser.FindColumn(keys, "stock"),
		weight: parser.FindColumn(keys, "weight"),
		brand:  parser.FindColumn(keys, "brand"),
		days:   parser.FindColumn(keys, "days to ship", "days", "leadtime", "handling time"),
	}
}

// DefaultUpdates returns the price, weight, stock, brand and days-to-ship
// cells whose current value differs from the computed one. Only rows with
// a SKU are touched. Brand is filled only when empty.
func DefaultUpdates(values [][]string, margin map[string]Margin, d Defaults) []models.Cell {
	var cells []models.Cell
	for _, b := range parser.ScanBlocks(values) {
		c := resolveDefaultColumns(b.Keys)
		if c.sku < 0 {
			continue
		}
		for r := b.Start; r < b.End; r++ {
			row := values[r]
			sku := parser.CellAt(row, b.Column(c.sku)-1)
			if sku == "" {
				continue
			}
			if m, ok := margin[sku]; ok {
				if c.price >= 0 && m.Price != "" {
					cells = setIfChanged(cells, row, r, b.Column(c.price), m.Price)
				}
				if c.weight >= 0 && m.Weight != "" {
					cells = setIfChanged(cells, row, r, b.Column(c.weight), m.Weight)
				}
			}
			if c.stock >= 0 && d.Stock != "" {
				cells = setIfChanged(cells, row, r, b.Column(c.stock), d.Stock)
			}
			if c.brand >= 0 && d.Brand != "" && parser.CellAt(row, b.Column(c.brand)-1) == "" {
				cells = setIfChanged(cells, row, r, b.Column(c.brand), d.Brand)
			}
			if c.days >= 0 && d.DaysToShip != "" {
				cells = setIfChanged(cells, row, r, b.Column(c.days), d.DaysToShip)
			}
		}
	}
	return cells
}

// FillDefaults copies price and weight from MARGIN and applies the fixed
// stock, brand and days-to-ship defaults.
func FillDefaults(ctx context.Context, env Env) (models.StepResult, error) {
	log := env.logger(NameDefaults)
	cfg := env.Config

	values, ok, err := readOutput(ctx, env)
	if err != nil {
		return models.StepResult{}, err
	}
	if !ok {
		log.WithField("sheet", cfg.OutputSheet).Warn("output sheet not found")
		return skipped("output sheet not found"), nil
	}

	marginValues, name, ok, err := readOptional(ctx, env.Input, cfg.MarginSheet)
	if err != nil {
		return models.StepResult{}, err
	}
	margin := map[string]Margin{}
	if ok {
		margin = ParseMargin(marginValues)
		log.WithFields(logrus.Fields{"sheet": name, "skus": len(margin)}).Debug("margin loaded")
	} else {
		log.WithField("sheet", cfg.MarginSheet).Warn("margin tab not found, applying defaults only")
	}

	cells := DefaultUpdates(values, margin, Defaults{
		Stock:      cfg.DefaultStock,
		Brand:      cfg.DefaultBrand,
		DaysToShip: cfg.DefaultDaysToShip,
	})
	if err := applyCells(ctx, env, cells); err != nil {
		return models.StepResult{}, err
	}

	log.WithField("cells", len(cells)).Info("defaults filled")
	return models.StepResult{Cells: len(cells)}, nil
}
