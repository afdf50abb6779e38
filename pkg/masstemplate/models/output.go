package models

// PIDHeader is the first header cell of every TEM_OUTPUT block.
const PIDHeader = "PID"

// Bucket collects template rows for one top-level category.
type Bucket struct {
	// Key is the normalized top-level category.
	Key string `json:"key"`
	// Headers are the template headers without the leading PID column.
	Headers []string `json:"headers"`
	// PIDs holds the product identifier of each row.
	PIDs []string `json:"pids"`
	// Rows holds template rows aligned to Headers.
	Rows [][]string `json:"rows"`
}

// Add appends a row with its product identifier.
func (b *Bucket) Add(pid string, row []string) {
	b.PIDs = append(b.PIDs, pid)
	b.Rows = append(b.Rows, row)
}

// Values renders the bucket as a header row followed by its data rows,
// each prefixed with the PID column.
func (b *Bucket) Values() [][]string {
	out := make([][]string, 0, len(b.Rows)+1)
	out = append(out, append([]string{PIDHeader}, b.Headers...))
	for i, row := range b.Rows {
		out = append(out, append([]string{b.PIDs[i]}, row...))
	}
	return out
}

// Block is a header block parsed back out of TEM_OUTPUT.
type Block struct {
	// HeaderRow is the 0-based index of the header row.
	HeaderRow int `json:"header_row"`
	// Headers are the header cells after the PID column.
	Headers []string `json:"headers"`
	// Keys are the normalized Headers.
	Keys []string `json:"keys"`
	// Start is the 0-based index of the first data row.
	Start int `json:"start"`
	// End is the 0-based index one past the last data row.
	End int `json:"end"`
}

// Column converts a header index into the 1-based worksheet column,
// accounting for the PID column.
func (b Block) Column(headerIdx int) int {
	return headerIdx + 2
}

// FailureReason classifies why a Collection row produced no output.
type FailureReason string

const (
	// ReasonCategoryMissing means the row has no category after forward-fill.
	ReasonCategoryMissing FailureReason = "CATEGORY_MISSING"
	// ReasonTopLevelNotFound means no template exists for the top-level category.
	ReasonTopLevelNotFound FailureReason = "TEMPLATE_TOPLEVEL_NOT_FOUND"
)

// Failure is a Collection row that was skipped.
type Failure struct {
	ID       string        `json:"id"`
	Category string        `json:"category"`
	Name     string        `json:"name"`
	Reason   FailureReason `json:"reason"`
	Detail   string        `json:"detail"`
}

// FailureHeader is the header row of the Failures worksheet.
var FailureHeader = []string{"id", "category", "name", "reason", "detail"}

// Values renders the failure as a worksheet row.
func (f Failure) Values() []string {
	return []string{f.ID, f.Category, f.Name, string(f.Reason), f.Detail}
}
