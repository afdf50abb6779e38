package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sirupsen/logrus"
)

// CollectionAliases are tried after the configured Collection tab name.
var CollectionAliases = []string{"collection", "collections", "raw", "sheet1", "상품정보", "상품", "수집", "수집데이터"}

// ResolveCollectionColumns locates the logical Collection fields in a header row.
func ResolveCollectionColumns(header []string) models.CollectionColumns {
	keys := parser.HeaderKeys(header)
	return models.CollectionColumns{
		Create:      parser.FindColumn(keys, "create", "use", "apply"),
		VariationID: parser.FindColumn(keys, "variation", "variationno", "variationintegrationno", "var code", "variation code", "parent sku", "parentsku"),
		SKU:         parser.FindColumn(keys, "sku", "seller_sku"),
		Brand:       parser.FindColumn(keys, "brand", "brandname"),
		OptionName:  parser.FindColumn(keys, "option(eng)", "optioneng", "option", "option1", "option name", "option for variation 1"),
		ProductName: parser.FindColumn(keys, "product name", "item(eng)", "itemeng", "name"),
		Description: parser.FindColumn(keys, "description", "product description"),
		Category:    parser.FindColumn(keys, "category"),
		DetailCount: parser.FindColumn(keys, "details index", "detail image count", "details count", "detailindex"),
	}
}

// ParseTemplateDict reads TemplateDict values: a header row, then one row per
// top-level category with the category name in the first column and the
// template headers after it. Trailing blank headers are dropped. It also
// returns the keys in sheet order.
func ParseTemplateDict(values [][]string) (models.TemplateDict, []string, error) {
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("%w: need a header and at least one data row, got %d rows", ErrTemplateDictEmpty, len(values))
	}

	dict := models.TemplateDict{}
	var order []string
	for _, row := range values[1:] {
		key := parser.HeaderKey(parser.CellAt(row, 0))
		if key == "" {
			continue
		}
		headers := make([]string, 0, len(row))
		for _, h := range row[1:] {
			headers = append(headers, strings.TrimSpace(h))
		}
		for len(headers) > 0 && headers[len(headers)-1] == "" {
			headers = headers[:len(headers)-1]
		}
		if _, seen := dict[key]; !seen {
			order = append(order, key)
		}
		dict[key] = headers
	}
	if len(dict) == 0 {
		return nil, nil, fmt.Errorf("%w: no category names in the first column", ErrTemplateDictEmpty)
	}
	return dict, order, nil
}

// Mapping is the result of mapping Collection rows onto templates.
type Mapping struct {
	// Buckets are ordered by first appearance of their top-level category.
	Buckets  []*models.Bucket
	Failures []models.Failure
	// Rows is the number of template rows produced.
	Rows int
}

// Values renders every bucket into one TEM_OUTPUT grid.
func (m Mapping) Values() [][]string {
	var out [][]string
	for _, b := range m.Buckets {
		out = append(out, b.Values()...)
	}
	return out
}

// MapCollection turns Collection values (header row first) into template rows
// bucketed by top-level category. Rows with create off are ignored; rows
// without a category or without a template become failures.
func MapCollection(values [][]string, dict models.TemplateDict, resetOnSkipped bool) (Mapping, error) {
	var m Mapping
	if len(values) < 2 {
		return m, nil
	}

	cols := ResolveCollectionColumns(values[0])
	if cols.Create < 0 {
		return m, ErrCreateColumnMissing
	}

	reset := func(row []string) bool {
		if parser.IsBlankRow(row) {
			return true
		}
		return resetOnSkipped && !parser.IsTrue(parser.CellAt(row, cols.Create))
	}
	filled := parser.ForwardFillByGroup(values, cols.VariationID, cols.FillColumns(), reset, 1)

	byKey := map[string]*models.Bucket{}
	for r := 1; r < len(filled); r++ {
		row := filled[r]
		if !parser.IsTrue(parser.CellAt(row, cols.Create)) {
			continue
		}

		variation := parser.CellAt(row, cols.VariationID)
		sku := parser.CellAt(row, cols.SKU)
		name := parser.CellAt(row, cols.ProductName)
		category := parser.CellAt(row, cols.Category)

		pid := variation
		if pid == "" {
			pid = sku
		}
		if pid == "" {
			pid = fmt.Sprintf("ROW%d", r+1)
		}

		if category == "" {
			m.Failures = append(m.Failures, models.Failure{
				ID:     pid,
				Name:   name,
				Reason: models.ReasonCategoryMissing,
				Detail: fmt.Sprintf("row=%d", r+1),
			})
			continue
		}

		top := parser.TopOfCategory(category)
		key := parser.HeaderKey(top)
		headers, ok := dict[key]
		if !ok || len(headers) == 0 {
			m.Failures = append(m.Failures, models.Failure{
				ID:       pid,
				Category: category,
				Name:     name,
				Reason:   models.ReasonTopLevelNotFound,
				Detail:   fmt.Sprintf("top=%s (Key: %s)", top, key),
			})
			continue
		}

		keys := parser.HeaderKeys(headers)
		out := make([]string, len(headers))
		set := func(header, value string) {
			if idx := parser.FindColumn(keys, header); idx >= 0 {
				out[idx] = value
			}
		}
		set("category", category)
		set("product name", name)
		set("product description", parser.CellAt(row, cols.Description))
		set("variation integration", variation)
		set("variation name1", "Options")
		set("parent sku", variation)
		set("variation integration no.", variation)
		set("option for variation 1", parser.CellAt(row, cols.OptionName))
		set("sku", sku)
		set("brand", parser.CellAt(row, cols.Brand))

		b, ok := byKey[key]
		if !ok {
			b = &models.Bucket{Key: key, Headers: headers}
			byKey[key] = b
			m.Buckets = append(m.Buckets, b)
		}
		b.Add(pid, out)
		m.Rows++
	}
	return m, nil
}

// BuildTemplate maps the Collection tab onto category templates, rewrites
// TEM_OUTPUT with one header block per top-level category and rewrites the
// Failures tab.
func BuildTemplate(ctx context.Context, env Env) (models.StepResult, error) {
	log := env.logger(NameBuild)
	cfg := env.Config
	if env.Reference == nil {
		return models.StepResult{}, ErrMissingReference
	}

	dictValues, err := env.Reference.Values(ctx, cfg.TemplateDictSheet)
	if err != nil {
		if errors.Is(err, store.ErrWorksheetNotFound) {
			return models.StepResult{}, fmt.Errorf("%w: tab %q not found in %q", ErrTemplateDictEmpty, cfg.TemplateDictSheet, env.Reference.Title())
		}
		return models.StepResult{}, err
	}
	dict, _, err := ParseTemplateDict(dictValues)
	if err != nil {
		return models.StepResult{}, err
	}
	log.WithField("categories", len(dict)).Debug("template dictionary loaded")

	candidates := append([]string{cfg.CollectionSheet}, CollectionAliases...)
	collName, err := store.FindWorksheet(ctx, env.Input, candidates...)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("find collection tab: %w", err)
	}
	collValues, err := env.Input.Values(ctx, collName)
	if err != nil {
		return models.StepResult{}, err
	}
	if len(collValues) < 2 {
		log.WithField("sheet", collName).Warn("collection is empty")
		return skipped("collection is empty"), nil
	}

	m, err := MapCollection(collValues, dict, cfg.ResetOnSkippedRow)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("%s: %w", collName, err)
	}

	var cells int
	if grid := m.Values(); len(grid) > 0 {
		rows, cols := parser.Dimensions(grid)
		if _, err := store.ResetWorksheet(ctx, env.Input, cfg.OutputSheet, rows+10, cols+10); err != nil {
			return models.StepResult{}, err
		}
		if err := store.EnsureSize(ctx, env.Input, cfg.OutputSheet, rows+10, cols+10); err != nil {
			return models.StepResult{}, err
		}
		if err := env.Input.Write(ctx, cfg.OutputSheet, 1, grid); err != nil {
			return models.StepResult{}, fmt.Errorf("write %s: %w", cfg.OutputSheet, err)
		}
		cells = rows * cols
		for _, b := range m.Buckets {
			log.WithFields(logrus.Fields{"key": b.Key, "rows": len(b.Rows)}).Debug("bucket written")
		}
	} else {
		log.Warn("no template rows produced, output left unchanged")
	}

	if err := writeFailures(ctx, env, m.Failures); err != nil {
		return models.StepResult{}, err
	}

	log.WithFields(logrus.Fields{
		"rows":     m.Rows,
		"blocks":   len(m.Buckets),
		"failures": len(m.Failures),
	}).Info("template rows built")

	return models.StepResult{
		Cells:    cells,
		Rows:     m.Rows,
		Blocks:   len(m.Buckets),
		Failures: m.Failures,
	}, nil
}

func writeFailures(ctx context.Context, env Env, failures []models.Failure) error {
	name := env.Config.FailuresSheet
	grid := make([][]string, 0, len(failures)+1)
	grid = append(grid, models.FailureHeader)
	for _, f := range failures {
		grid = append(grid, f.Values())
	}
	if _, err := store.ResetWorksheet(ctx, env.Input, name, max(len(grid)+10, 100), 26); err != nil {
		return fmt.Errorf("reset %s: %w", name, err)
	}
	if err := store.EnsureSize(ctx, env.Input, name, len(grid), len(models.FailureHeader)); err != nil {
		return err
	}
	if err := env.Input.Write(ctx, name, 1, grid); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
