package models

import "time"

// StepResult summarizes what a pipeline step changed.
type StepResult struct {
	// Cells is the number of cells written.
	Cells int `json:"cells"`
	// Rows is the number of template rows produced.
	Rows int `json:"rows,omitempty"`
	// Blocks is the number of header blocks touched.
	Blocks int `json:"blocks,omitempty"`
	// Highlighted is the number of ranges highlighted.
	Highlighted int `json:"highlighted,omitempty"`
	// Failures lists skipped Collection rows.
	Failures []Failure `json:"failures,omitempty"`
	// Skipped is set when the step had nothing to work on.
	Skipped bool `json:"skipped,omitempty"`
	// Note explains a skip.
	Note string `json:"note,omitempty"`
}

// StepLog records one executed step.
type StepLog struct {
	Name     string        `json:"name"`
	OK       bool          `json:"ok"`
	Count    int           `json:"count"`
	Skipped  bool          `json:"skipped,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// RunReport is the outcome of a full pipeline run.
type RunReport struct {
	RunID       string    `json:"run_id"`
	Spreadsheet string    `json:"spreadsheet"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Steps       []StepLog `json:"steps"`
	Failures    []Failure `json:"failures,omitempty"`
}

// OK reports whether every step succeeded.
func (r *RunReport) OK() bool {
	for _, s := range r.Steps {
		if !s.OK {
			return false
		}
	}
	return true
}

// LogLevel tags an upload log line.
type LogLevel string

const (
	LevelOK    LogLevel = "OK"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelSkip  LogLevel = "SKIP"
)

// UploadLog is one line of Copy Template progress.
type UploadLog struct {
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}

func (l UploadLog) String() string {
	return "[" + string(l.Level) + "] " + l.Message
}
