// Package masstemplate builds marketplace mass-upload templates from a shop
// spreadsheet and a reference spreadsheet.
package masstemplate

import "github.com/sellerops/masstemplate-go/pkg/masstemplate/steps"

// Mode represents the run mode.
type Mode string

const (
	// ModeStandard rebuilds TEM_OUTPUT and fills FDA codes, defaults and images.
	ModeStandard Mode = "standard"
	// ModeFull is ModeStandard plus mandatory-field defaults and highlighting.
	ModeFull Mode = "full"
	// ModeFill keeps TEM_OUTPUT as is and only runs the fill steps.
	ModeFill Mode = "fill"
)

// ParseMode parses a mode name. An empty name is ModeStandard.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeStandard:
		return ModeStandard, true
	case ModeFull, ModeFill:
		return Mode(s), true
	}
	return "", false
}

// Options configures a run.
type Options struct {
	// Mode specifies the run mode (standard, full, fill).
	Mode Mode
	// IncludeMandatory specifies whether to run the mandatory-field step.
	// If nil, defaults to true for full mode, false otherwise.
	IncludeMandatory *bool
	// FDAOverwrite replaces existing FDA codes when set.
	FDAOverwrite bool
}

// DefaultOptions returns default run options.
func DefaultOptions() Options {
	return Options{
		Mode: ModeStandard,
	}
}

// ShouldIncludeMandatory returns whether to run the mandatory-field step.
func (o Options) ShouldIncludeMandatory() bool {
	if o.IncludeMandatory != nil {
		return *o.IncludeMandatory
	}
	return o.Mode == ModeFull
}

// ShouldRebuild returns whether TEM_OUTPUT is cleared and rebuilt.
func (o Options) ShouldRebuild() bool {
	return o.Mode != ModeFill
}

// Steps returns the steps this run executes, in order.
func (o Options) Steps() []steps.Step {
	all := steps.Pipeline(o.ShouldIncludeMandatory())
	if o.ShouldRebuild() {
		return all
	}
	out := make([]steps.Step, 0, len(all))
	for _, s := range all {
		if s.Name == steps.NamePrepare || s.Name == steps.NameBuild {
			continue
		}
		out = append(out, s)
	}
	return out
}
