package steps

import (
	"context"
	"sort"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sirupsen/logrus"
)

const mandatoryFlag = "mandatory"

// AttributeDefault is the default value of one template attribute.
type AttributeDefault struct {
	// Attr is the normalized header key.
	Attr  string
	Value string
}

// MandatoryRules holds per-category defaults and mandatory attribute flags.
// Categories are keyed by their normalized path.
type MandatoryRules struct {
	defaults      map[string][]AttributeDefault
	defaultKeys   []string
	mandatory     map[string][]string
	mandatoryKeys []string
}

// NewMandatoryRules returns an empty rule set.
func NewMandatoryRules() *MandatoryRules {
	return &MandatoryRules{
		defaults:  map[string][]AttributeDefault{},
		mandatory: map[string][]string{},
	}
}

// AddDefaults merges a defaults tab (category / attribute / default value
// columns). A later value for the same category and attribute wins.
func (m *MandatoryRules) AddDefaults(values [][]string) {
	if len(values) == 0 {
		return
	}
	keys := parser.HeaderKeys(values[0])
	catIdx := parser.FindColumn(keys, "category")
	attrIdx := parser.FindColumn(keys, "attribute", "attr", "property")
	defIdx := parser.FindColumn(keys, "defaultvalue", "default")
	if catIdx < 0 || attrIdx < 0 || defIdx < 0 {
		return
	}
	for _, row := range values[1:] {
		cat := parser.NormalizeCategoryForMatch(parser.CellAt(row, catIdx))
		attr := parser.HeaderKey(parser.CellAt(row, attrIdx))
		if cat == "" || attr == "" {
			continue
		}
		m.setDefault(cat, attr, parser.CellAt(row, defIdx))
	}
}

func (m *MandatoryRules) setDefault(cat, attr, value string) {
	list, ok := m.defaults[cat]
	if !ok {
		m.defaultKeys = append(m.defaultKeys, cat)
	}
	for i := range list {
		if list[i].Attr == attr {
			list[i].Value = value
			return
		}
	}
	m.defaults[cat] = append(list, AttributeDefault{Attr: attr, Value: value})
}

// AddCategoryProps reads the cat props tab: categories in the first column,
// attributes in the header row, and "mandatory" cells flagging required
// attributes.
func (m *MandatoryRules) AddCategoryProps(values [][]string) {
	if len(values) == 0 {
		return
	}
	keys := parser.HeaderKeys(values[0])
	for _, row := range values[1:] {
		cat := parser.NormalizeCategoryForMatch(parser.CellAt(row, 0))
		if cat == "" {
			continue
		}
		var attrs []string
		for j, cell := range row {
			if j < len(keys) && keys[j] != "" && strings.EqualFold(strings.TrimSpace(cell), mandatoryFlag) {
				attrs = append(attrs, keys[j])
			}
		}
		if len(attrs) == 0 {
			continue
		}
		if _, ok := m.mandatory[cat]; !ok {
			m.mandatoryKeys = append(m.mandatoryKeys, cat)
		}
		m.mandatory[cat] = attrs
	}
}

// Empty reports whether no rule was loaded.
func (m *MandatoryRules) Empty() bool {
	return len(m.defaults) == 0 && len(m.mandatory) == 0
}

// Defaults returns the defaults of the closest matching category.
func (m *MandatoryRules) Defaults(category string) []AttributeDefault {
	k, ok := parser.MatchCategory(m.defaultKeys, parser.NormalizeCategoryForMatch(category))
	if !ok {
		return nil
	}
	return m.defaults[k]
}

// Mandatory returns the mandatory attributes of the closest matching category.
func (m *MandatoryRules) Mandatory(category string) []string {
	k, ok := parser.MatchCategory(m.mandatoryKeys, parser.NormalizeCategoryForMatch(category))
	if !ok {
		return nil
	}
	return m.mandatory[k]
}

// MandatoryPlan is the outcome of matching TEM_OUTPUT rows against rules.
type MandatoryPlan struct {
	Cells      []models.Cell
	Highlights []models.GridRange
}

// PlanMandatory computes default cell writes and mandatory highlight ranges.
// Empty cells receive their default; with overwrite, any differing cell does.
// Highlight row spans are merged per column.
func PlanMandatory(values [][]string, rules *MandatoryRules, overwrite bool) MandatoryPlan {
	var plan MandatoryPlan
	spans := map[int][][2]int{}

	for _, b := range parser.ScanBlocks(values) {
		for r := b.Start; r < b.End; r++ {
			row := values[r]
			pid := parser.CellAt(row, 0)
			category := parser.CellAt(row, 1)
			if pid == "" || category == "" {
				continue
			}

			for _, attr := range rules.Mandatory(category) {
				if j := parser.FindColumn(b.Keys, attr); j >= 0 {
					col := b.Column(j) - 1
					spans[col] = append(spans[col], [2]int{r, r + 1})
				}
			}

			for _, d := range rules.Defaults(category) {
				if d.Value == "" {
					continue
				}
				j := parser.FindColumn(b.Keys, d.Attr)
				if j < 0 {
					continue
				}
				col := b.Column(j)
				cur := parser.CellAt(row, col-1)
				if cur == "" || (overwrite && cur != d.Value) {
					plan.Cells = append(plan.Cells, models.Cell{Row: r + 1, Col: col, Value: d.Value})
				}
			}
		}
	}

	cols := make([]int, 0, len(spans))
	for c := range spans {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	for _, c := range cols {
		for _, s := range parser.MergeSpans(spans[c]) {
			plan.Highlights = append(plan.Highlights, models.GridRange{
				StartRow: s[0], EndRow: s[1],
				StartCol: c, EndCol: c + 1,
			})
		}
	}
	return plan
}

// LoadMandatoryRules reads every defaults tab (title prefix match) and the
// cat props tab from the reference workbook. Missing tabs load nothing.
func LoadMandatoryRules(ctx context.Context, ref store.Workbook, cfg Config) (*MandatoryRules, error) {
	rules := NewMandatoryRules()
	titles, err := ref.Worksheets(ctx)
	if err != nil {
		return nil, err
	}
	prefix := strings.ToLower(cfg.DefaultsPrefix)
	for _, t := range titles {
		if prefix == "" || !strings.HasPrefix(strings.ToLower(t), prefix) {
			continue
		}
		values, err := ref.Values(ctx, t)
		if err != nil {
			return nil, err
		}
		rules.AddDefaults(values)
	}

	props, _, ok, err := readOptional(ctx, ref, cfg.CatPropsSheet)
	if err != nil {
		return nil, err
	}
	if ok {
		rules.AddCategoryProps(props)
	}
	return rules, nil
}

// FillMandatory fills per-category defaults and highlights mandatory cells.
func FillMandatory(ctx context.Context, env Env) (models.StepResult, error) {
	log := env.logger(NameMandatory)
	cfg := env.Config
	if env.Reference == nil {
		return models.StepResult{}, ErrMissingReference
	}

	values, ok, err := readOutput(ctx, env)
	if err != nil {
		return models.StepResult{}, err
	}
	if !ok || len(values) == 0 {
		log.WithField("sheet", cfg.OutputSheet).Warn("output sheet missing or empty")
		return skipped("output sheet missing or empty"), nil
	}

	rules, err := LoadMandatoryRules(ctx, env.Reference, cfg)
	if err != nil {
		return models.StepResult{}, err
	}
	if rules.Empty() {
		log.Warn("no mandatory rules found in reference")
		return skipped("no mandatory rules found"), nil
	}

	plan := PlanMandatory(values, rules, cfg.OverwriteNonEmpty)
	if err := applyCells(ctx, env, plan.Cells); err != nil {
		return models.StepResult{}, err
	}
	if len(plan.Highlights) > 0 {
		color := parser.HexToColor(cfg.MandatoryColor)
		if err := env.Input.Highlight(ctx, cfg.OutputSheet, plan.Highlights, color); err != nil {
			return models.StepResult{}, err
		}
	}

	log.WithFields(logrus.Fields{
		"cells":      len(plan.Cells),
		"highlights": len(plan.Highlights),
	}).Info("mandatory defaults filled")
	return models.StepResult{Cells: len(plan.Cells), Highlighted: len(plan.Highlights)}, nil
}
