// Package models defines data structures shared by the template pipeline.
package models

// Cell is a single cell write.
type Cell struct {
	// Row is the row index (1-based).
	Row int `json:"row"`
	// Col is the column index (1-based).
	Col int `json:"col"`
	// Value is the raw string written to the cell.
	Value string `json:"value"`
}

// GridRange is a rectangular cell region.
// Indices are 0-based and the end bounds are exclusive, the same layout
// the Sheets API uses for formatting requests.
type GridRange struct {
	StartRow int `json:"start_row"`
	EndRow   int `json:"end_row"`
	StartCol int `json:"start_col"`
	EndCol   int `json:"end_col"`
}

// Color is an RGB color with channels in [0, 1].
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
}
