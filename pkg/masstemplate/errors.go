package masstemplate

import (
	"errors"
	"fmt"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/parser"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/steps"
)

// ErrMissingSpreadsheet indicates no input spreadsheet was given.
var ErrMissingSpreadsheet = errors.New("spreadsheet reference is required")

// ErrMissingCredentials indicates no Google service account could be loaded.
var ErrMissingCredentials = errors.New("google service account credentials not found")

// ErrInvalidRequest indicates a malformed request option.
var ErrInvalidRequest = errors.New("invalid request")

// ErrUnknownStep indicates a step name that is not part of the pipeline.
var ErrUnknownStep = errors.New("unknown step")

// Validation errors raised by steps.
var (
	ErrMissingReference = steps.ErrMissingReference
	ErrMissingImageBase = steps.ErrMissingImageBase
	ErrMissingShopCode  = steps.ErrMissingShopCode
)

// StepError represents a failed pipeline step.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError creates a new StepError.
func NewStepError(step string, err error) *StepError {
	return &StepError{
		Step: step,
		Err:  err,
	}
}

// IsValidation reports whether err is caused by missing or invalid input
// rather than by a failing backend.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingSpreadsheet) ||
		errors.Is(err, ErrMissingReference) ||
		errors.Is(err, ErrMissingImageBase) ||
		errors.Is(err, ErrMissingShopCode) ||
		errors.Is(err, ErrUnknownStep) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, parser.ErrInvalidSheetRef)
}
