package masstemplate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/output"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/steps"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate/store"
	"github.com/sirupsen/logrus"
)

// Request names the workbooks of a run and per-run overrides.
type Request struct {
	// Spreadsheet is the shop spreadsheet URL, ID or xlsx path.
	Spreadsheet string
	// Reference is the reference spreadsheet. Empty means the Creator default.
	Reference string
	// ShopCode overrides the configured shop code when set.
	ShopCode string
	// Images overrides the configured image bases when any base is set.
	Images steps.ImageBases
	// Mode overrides the Creator run mode when set.
	Mode Mode
	// Mandatory overrides whether the mandatory-defaults step runs.
	Mandatory *bool
}

// options returns the Creator options with the request overrides applied.
func (c *Creator) options(req Request) Options {
	o := c.Options
	if req.Mode != "" {
		o.Mode = req.Mode
	}
	if req.Mandatory != nil {
		o.IncludeMandatory = req.Mandatory
	}
	return o
}

// Creator runs the template pipeline against workbooks opened through an
// Opener.
type Creator struct {
	Opener store.Opener
	// Reference is the default reference spreadsheet.
	Reference string
	Config    steps.Config
	Options   Options
	Log       logrus.FieldLogger

	now func() time.Time
}

// NewCreator creates a Creator with the default step config and options.
func NewCreator(opener store.Opener, reference string, log logrus.FieldLogger) *Creator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Creator{
		Opener:    opener,
		Reference: reference,
		Config:    steps.DefaultConfig(),
		Options:   DefaultOptions(),
		Log:       log,
		now:       time.Now,
	}
}

func (c *Creator) clock() time.Time {
	if c.now == nil {
		return time.Now()
	}
	return c.now()
}

func (c *Creator) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// env opens the input and reference workbooks and builds the step config
// for one request.
func (c *Creator) env(ctx context.Context, req Request, log logrus.FieldLogger) (steps.Env, error) {
	if strings.TrimSpace(req.Spreadsheet) == "" {
		return steps.Env{}, ErrMissingSpreadsheet
	}
	input, err := c.Opener.Open(ctx, req.Spreadsheet)
	if err != nil {
		return steps.Env{}, fmt.Errorf("open spreadsheet: %w", err)
	}

	env := steps.Env{Input: input, Config: c.Config, Log: log}
	env.Config.FDAOverwrite = env.Config.FDAOverwrite || c.options(req).FDAOverwrite
	if s := strings.TrimSpace(req.ShopCode); s != "" {
		env.Config.ShopCode = s
	}
	if !req.Images.Empty() {
		env.Config.Images = req.Images
	}

	ref := req.Reference
	if ref == "" {
		ref = c.Reference
	}
	switch {
	case ref == "":
	case ref == req.Spreadsheet:
		env.Reference = input
	default:
		if env.Reference, err = c.Opener.Open(ctx, ref); err != nil {
			store.Close(input)
			return steps.Env{}, fmt.Errorf("open reference: %w", err)
		}
	}
	return env, nil
}

// release closes the workbooks opened for env.
func (c *Creator) release(env steps.Env) {
	if err := store.Close(env.Input); err != nil {
		c.logger().WithError(err).Warn("close spreadsheet")
	}
	if env.Reference != nil && env.Reference != env.Input {
		if err := store.Close(env.Reference); err != nil {
			c.logger().WithError(err).Warn("close reference")
		}
	}
}

// Run executes every step of the configured pipeline in order and stops at
// the first failing step. The returned report is populated even on error.
func (c *Creator) Run(ctx context.Context, req Request) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:       uuid.NewString(),
		Spreadsheet: req.Spreadsheet,
		StartedAt:   c.clock(),
	}
	log := c.logger().WithField("run_id", report.RunID)
	defer func() { report.FinishedAt = c.clock() }()

	env, err := c.env(ctx, req, log)
	if err != nil {
		return report, err
	}
	report.Spreadsheet = env.Input.Title()

	var runErr error
	for _, s := range c.options(req).Steps() {
		entry, res, err := c.runStep(ctx, env, s)
		report.Steps = append(report.Steps, entry)
		report.Failures = append(report.Failures, res.Failures...)
		if err != nil {
			runErr = NewStepError(s.Name, err)
			break
		}
	}

	if err := store.Flush(ctx, env.Input); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("flush %s: %w", env.Input.Title(), err))
	}
	c.release(env)

	log.WithFields(logrus.Fields{
		"spreadsheet": report.Spreadsheet,
		"steps":       len(report.Steps),
		"failures":    len(report.Failures),
		"ok":          runErr == nil,
	}).Info("run finished")
	return report, runErr
}

// RunStep executes a single named step.
func (c *Creator) RunStep(ctx context.Context, req Request, name string) (models.StepLog, error) {
	s, ok := steps.Lookup(name)
	if !ok {
		return models.StepLog{Name: name}, fmt.Errorf("%w: %s (valid: %s)", ErrUnknownStep, name, strings.Join(steps.Names(), ", "))
	}
	env, err := c.env(ctx, req, c.logger())
	if err != nil {
		return models.StepLog{Name: s.Name}, err
	}

	entry, _, err := c.runStep(ctx, env, s)
	if err != nil {
		err = NewStepError(s.Name, err)
	}
	if ferr := store.Flush(ctx, env.Input); ferr != nil {
		err = errors.Join(err, fmt.Errorf("flush %s: %w", env.Input.Title(), ferr))
	}
	c.release(env)
	return entry, err
}

func (c *Creator) runStep(ctx context.Context, env steps.Env, s steps.Step) (models.StepLog, models.StepResult, error) {
	start := c.clock()
	res, err := s.Run(ctx, env)
	entry := models.StepLog{
		Name:     s.Name,
		OK:       err == nil,
		Count:    res.Cells,
		Skipped:  res.Skipped,
		Duration: c.clock().Sub(start),
	}
	if res.Rows > 0 {
		entry.Count = res.Rows
	}

	fields := logrus.Fields{"step": s.Name, "count": entry.Count, "duration": entry.Duration.String()}
	switch {
	case err != nil:
		entry.Error = err.Error()
		c.logger().WithFields(fields).WithError(err).Error("step failed")
	case res.Skipped:
		c.logger().WithFields(fields).WithField("note", res.Note).Warn("step skipped")
	default:
		c.logger().WithFields(fields).Info("step done")
	}
	return entry, res, err
}

// Export renders the output sheet of a spreadsheet in the given format.
func (c *Creator) Export(ctx context.Context, spreadsheet string, format output.Format) ([]byte, error) {
	if strings.TrimSpace(spreadsheet) == "" {
		return nil, ErrMissingSpreadsheet
	}
	wb, err := c.Opener.Open(ctx, spreadsheet)
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer store.Close(wb)
	values, err := wb.Values(ctx, c.Config.OutputSheet)
	if err != nil {
		return nil, err
	}
	return output.Render(values, format)
}
