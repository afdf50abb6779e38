// Package steps implements the template pipeline steps. Each step reads the
// input and reference workbooks, computes its changes with a pure function
// and writes only cells whose value differs.
package steps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sirupsen/logrus"
)

var (
	// ErrTemplateDictEmpty indicates the TemplateDict tab is missing or holds no schemas.
	ErrTemplateDictEmpty = errors.New("template dictionary is empty")
	// ErrCreateColumnMissing indicates the Collection header has no create column.
	ErrCreateColumnMissing = errors.New("collection has no create column (aliases: create, use, apply)")
	// ErrMissingImageBase indicates no image hosting base URL was configured.
	ErrMissingImageBase = errors.New("image base url is required")
	// ErrMissingShopCode indicates no shop code was configured.
	ErrMissingShopCode = errors.New("shop code is required")
	// ErrMissingReference indicates a step needs the reference workbook but none was opened.
	ErrMissingReference = errors.New("reference spreadsheet is required")
)

// ImageBases holds the hosting base URL per image kind. Empty kinds fall
// back to Base.
type ImageBases struct {
	Base    string
	Cover   string
	Details string
	Option  string
}

func (b ImageBases) pick(v string) string {
	if v = strings.TrimSpace(v); v != "" {
		return strings.TrimRight(v, "/") + "/"
	}
	if base := strings.TrimSpace(b.Base); base != "" {
		return strings.TrimRight(base, "/") + "/"
	}
	return ""
}

// CoverBase returns the normalized cover image base.
func (b ImageBases) CoverBase() string { return b.pick(b.Cover) }

// DetailsBase returns the normalized detail image base.
func (b ImageBases) DetailsBase() string { return b.pick(b.Details) }

// OptionBase returns the normalized per-variation image base.
func (b ImageBases) OptionBase() string { return b.pick(b.Option) }

// Empty reports whether no base URL is configured at all.
func (b ImageBases) Empty() bool {
	return b.CoverBase() == "" && b.DetailsBase() == "" && b.OptionBase() == ""
}

// Config holds sheet names and policy values for every step.
type Config struct {
	OutputSheet       string
	FailuresSheet     string
	CollectionSheet   string
	TemplateDictSheet string
	MarginSheet       string

	FDASheet     string
	FDAHeader    string
	FDACode      string
	FDAOverwrite bool

	// ResetOnSkippedRow ends a forward-fill run at rows whose create flag is off.
	ResetOnSkippedRow bool

	DefaultStock      string
	DefaultBrand      string
	DefaultDaysToShip string

	Images   ImageBases
	ShopCode string

	CatPropsSheet     string
	DefaultsPrefix    string
	MandatoryColor    string
	OverwriteNonEmpty bool
}

// DefaultConfig returns the sheet names and policy values used by the
// marketplace team.
func DefaultConfig() Config {
	return Config{
		OutputSheet:       "TEM_OUTPUT",
		FailuresSheet:     "Failures",
		CollectionSheet:   "Collection",
		TemplateDictSheet: "TemplateDict",
		MarginSheet:       "MARGIN",
		FDASheet:          "TH Cos",
		FDAHeader:         "FDA Registration No.",
		FDACode:           "10-1-9999999",
		DefaultStock:      "1000",
		DefaultBrand:      "0",
		DefaultDaysToShip: "1",
		CatPropsSheet:     "cat props",
		DefaultsPrefix:    "mandatorydefaults_",
		MandatoryColor:    "#FFF9C4",
	}
}

// Env is what a step runs against.
type Env struct {
	// Input is the shop spreadsheet holding Collection, MARGIN and TEM_OUTPUT.
	Input store.Workbook
	// Reference holds TemplateDict, TH Cos, cat props and defaults tabs.
	Reference store.Workbook
	Config    Config
	Log       logrus.FieldLogger
}

func (e Env) logger(step string) logrus.FieldLogger {
	log := e.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithField("step", step)
}

// Func runs one step.
type Func func(ctx context.Context, env Env) (models.StepResult, error)

// Step is a named pipeline stage.
type Step struct {
	Name  string
	Title string
	Run   Func
}

// Step names.
const (
	NamePrepare   = "prepare-output"
	NameBuild     = "build-template"
	NameFDA       = "fill-fda"
	NameDefaults  = "fill-defaults"
	NameImages    = "fill-images"
	NameMandatory = "fill-mandatory"
)

var all = []Step{
	{Name: NamePrepare, Title: "Initialize output", Run: PrepareOutput},
	{Name: NameBuild, Title: "Map Collection to templates", Run: BuildTemplate},
	{Name: NameFDA, Title: "Fill FDA codes", Run: FillFDA},
	{Name: NameDefaults, Title: "Fill price, weight and defaults", Run: FillDefaults},
	{Name: NameImages, Title: "Fill image URLs", Run: FillImages},
	{Name: NameMandatory, Title: "Fill mandatory defaults", Run: FillMandatory},
}

// Pipeline returns the steps of a full run in order. The mandatory-field
// step is included only when requested.
func Pipeline(mandatory bool) []Step {
	out := make([]Step, 0, len(all))
	for _, s := range all {
		if s.Name == NameMandatory && !mandatory {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Lookup finds a step by name.
func Lookup(name string) (Step, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range all {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// Names lists every step name.
func Names() []string {
	names := make([]string, len(all))
	for i, s := range all {
		names[i] = s.Name
	}
	return names
}

// readOutput loads TEM_OUTPUT. A missing worksheet is reported as ok=false.
func readOutput(ctx context.Context, env Env) ([][]string, bool, error) {
	values, err := env.Input.Values(ctx, env.Config.OutputSheet)
	if errors.Is(err, store.ErrWorksheetNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}

// readOptional loads a worksheet, reporting a missing one as ok=false.
func readOptional(ctx context.Context, wb store.Workbook, candidates ...string) ([][]string, string, bool, error) {
	if wb == nil {
		return nil, "", false, nil
	}
	name, err := store.FindWorksheet(ctx, wb, candidates...)
	if errors.Is(err, store.ErrWorksheetNotFound) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	values, err := wb.Values(ctx, name)
	if err != nil {
		return nil, name, false, err
	}
	return values, name, true, nil
}

// applyCells writes cells to TEM_OUTPUT when there are any.
func applyCells(ctx context.Context, env Env, cells []models.Cell) error {
	if len(cells) == 0 {
		return nil
	}
	if err := env.Input.UpdateCells(ctx, env.Config.OutputSheet, cells); err != nil {
		return fmt.Errorf("update %s: %w", env.Config.OutputSheet, err)
	}
	return nil
}

func skipped(note string) models.StepResult {
	return models.StepResult{Skipped: true, Note: note}
}

// setIfChanged appends a cell write when the current value differs.
func setIfChanged(cells []models.Cell, row []string, rowIdx, col int, value string) []models.Cell {
	cur := ""
	if col-1 < len(row) {
		cur = strings.TrimSpace(row[col-1])
	}
	if cur == value {
		return cells
	}
	return append(cells, models.Cell{Row: rowIdx + 1, Col: col, Value: value})
}
