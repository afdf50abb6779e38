package steps

import (
	"context"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sirupsen/logrus"
)

// FDACategories reads the first column of the FDA reference tab as a
// lowercase category set. The first row is treated as data too.
func FDACategories(values [][]string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, row := range values {
		if c := strings.ToLower(parser.CellAt(row, 0)); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

// FDAUpdates returns the cells that set the FDA registration code on rows
// whose category is listed. Existing values are kept unless overwrite is set.
func FDAUpdates(values [][]string, categories map[string]struct{}, header, code string, overwrite bool) []models.Cell {
	var cells []models.Cell
	for _, b := range parser.ScanBlocks(values) {
		catIdx := parser.FindColumn(b.Keys, "category")
		fdaIdx := parser.FindColumn(b.Keys, header)
		if catIdx < 0 || fdaIdx < 0 {
			continue
		}
		col := b.Column(fdaIdx)
		for r := b.Start; r < b.End; r++ {
			row := values[r]
			cat := strings.ToLower(parser.CellAt(row, b.Column(catIdx)-1))
			if _, ok := categories[cat]; !ok {
				continue
			}
			if !overwrite && parser.CellAt(row, col-1) != "" {
				continue
			}
			cells = setIfChanged(cells, row, r, col, code)
		}
	}
	return cells
}

// FillFDA writes the FDA registration code for categories listed in the
// FDA reference tab.
func FillFDA(ctx context.Context, env Env) (models.StepResult, error) {
	log := env.logger(NameFDA)
	cfg := env.Config
	if env.Reference == nil {
		return models.StepResult{}, ErrMissingReference
	}

	ref, _, ok, err := readOptional(ctx, env.Reference, cfg.FDASheet)
	if err != nil {
		return models.StepResult{}, err
	}
	if !ok {
		log.WithField("sheet", cfg.FDASheet).Warn("fda reference tab not found")
		return skipped("fda reference tab not found"), nil
	}
	categories := FDACategories(ref)

	values, ok, err := readOutput(ctx, env)
	if err != nil {
		return models.StepResult{}, err
	}
	if !ok {
		log.WithField("sheet", cfg.OutputSheet).Warn("output sheet not found")
		return skipped("output sheet not found"), nil
	}

	cells := FDAUpdates(values, categories, cfg.FDAHeader, cfg.FDACode, cfg.FDAOverwrite)
	if err := applyCells(ctx, env, cells); err != nil {
		return models.StepResult{}, err
	}

	log.WithFields(logrus.Fields{"categories": len(categories), "cells": len(cells)}).Info("fda codes filled")
	return models.StepResult{Cells: len(cells)}, nil
}
