// Package parser implements the text normalization, header matching and
// grid helpers used by the template pipeline.
package parser

import (
	"strings"
	"unicode"
)

// HeaderKey normalizes a header for matching: lowercase, letters and digits only.
// "Option for Variation 1" and "option_for-variation1" both become
// "optionforvariation1".
func HeaderKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// HeaderKeys normalizes every cell of a header row.
func HeaderKeys(header []string) []string {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = HeaderKey(h)
	}
	return keys
}

// FindColumn returns the index of the first key matching name or one of its
// aliases. An exact match anywhere in keys wins over a substring match.
// It returns -1 when nothing matches.
func FindColumn(keys []string, name string, aliases ...string) int {
	targets := make(map[string]struct{}, len(aliases)+1)
	if k := HeaderKey(name); k != "" {
		targets[k] = struct{}{}
	}
	for _, t := range aliases {
		if k := HeaderKey(t); k != "" {
			targets[k] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return -1
	}

	for i, k := range keys {
		if _, ok := targets[k]; ok {
			return i
		}
	}
	for i, k := range keys {
		if k == "" {
			continue
		}
		for t := range targets {
			if strings.Contains(k, t) {
				return i
			}
		}
	}
	return -1
}

// PickIndex resolves a column by candidate priority: the first candidate
// with an exact match wins, then the first candidate contained in a key.
// It returns -1 when nothing matches.
func PickIndex(keys []string, candidates ...string) int {
	norm := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if k := HeaderKey(c); k != "" {
			norm = append(norm, k)
		}
	}

	for _, c := range norm {
		for i, k := range keys {
			if k == c {
				return i
			}
		}
	}
	for _, c := range norm {
		for i, k := range keys {
			if k != "" && strings.Contains(k, c) {
				return i
			}
		}
	}
	return -1
}

// IsTrue reports whether a cell value reads as a checked flag.
func IsTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "t", "1", "y", "yes", "✔", "✅":
		return true
	}
	return false
}

// CellAt returns the trimmed cell at idx, or "" when the row is too short
// or idx is negative.
func CellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// IsBlankRow reports whether every cell is empty after trimming.
func IsBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
