package steps

import (
	"context"
	"fmt"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sirupsen/logrus"
)

// Grid size of a freshly created TEM_OUTPUT.
const (
	outputRows = 2000
	outputCols = 200
)

// PrepareOutput clears TEM_OUTPUT, creating it when missing, and leaves a
// single blank cell at A1.
func PrepareOutput(ctx context.Context, env Env) (models.StepResult, error) {
	log := env.logger(NamePrepare)
	name := env.Config.OutputSheet

	created, err := store.ResetWorksheet(ctx, env.Input, name, outputRows, outputCols)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("reset %s: %w", name, err)
	}
	if err := env.Input.Write(ctx, name, 1, [][]string{{""}}); err != nil {
		return models.StepResult{}, fmt.Errorf("initialize %s: %w", name, err)
	}

	log.WithFields(logrus.Fields{"sheet": name, "created": created}).Info("output sheet ready")
	return models.StepResult{}, nil
}
