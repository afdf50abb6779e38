package parser

import (
	"regexp"
	"strings"
)

var (
	slashSpaceRe  = regexp.MustCompile(`\s*/\s*`)
	leadingCodeRe = regexp.MustCompile(`^\s*\d+\s*-\s*`)
	hyphenSpaceRe = regexp.MustCompile(`\s*-\s*`)
	sheetUnsafeRe = regexp.MustCompile(`[\s/\\*?:\[\]]`)

	categorySeparators = strings.NewReplacer(" - ", "/", "-", "/", `\`, "/", " / ", "/")
)

// TopOfCategory returns the top-level segment of a category path with any
// leading numeric code removed.
//
//	"101643 - Beauty/Makeup/Lips/Lip Gloss" -> "Beauty"
func TopOfCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = slashSpaceRe.ReplaceAllString(s, "/")
	first, _, _ := strings.Cut(s, "/")
	first = leadingCodeRe.ReplaceAllString(first, "")
	return strings.TrimSpace(first)
}

// CategoryKey is the TemplateDict lookup key for a category path.
func CategoryKey(s string) string {
	return HeaderKey(TopOfCategory(s))
}

// NormalizeCategoryForMatch lowercases a category path and rewrites every
// separator to a single "/" so paths written in different styles compare equal.
func NormalizeCategoryForMatch(s string) string {
	x := strings.ToLower(strings.TrimSpace(s))
	if x == "" {
		return ""
	}
	x = categorySeparators.Replace(x)
	var segs []string
	for _, seg := range strings.Split(x, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segs = append(segs, seg)
		}
	}
	return strings.Join(segs, "/")
}

// MatchCategory finds the entry of keys that best matches a normalized
// category: exact first, then a suffix match in either direction, then
// whole-segment containment. It returns "" and false when nothing matches.
func MatchCategory(keys []string, norm string) (string, bool) {
	if norm == "" {
		return "", false
	}
	for _, k := range keys {
		if k == norm {
			return k, true
		}
	}
	for _, k := range keys {
		if k != "" && (strings.HasSuffix(norm, k) || strings.HasSuffix(k, norm)) {
			return k, true
		}
	}
	padded := "/" + norm + "/"
	for _, k := range keys {
		if k != "" && strings.Contains(padded, "/"+k+"/") {
			return k, true
		}
	}
	return "", false
}

// NormalizeCategoryCode removes the spaces around hyphens so
// "101643 - Beauty" becomes "101643-Beauty".
func NormalizeCategoryCode(s string) string {
	return hyphenSpaceRe.ReplaceAllString(strings.TrimSpace(s), "-")
}

// SafeSheetName replaces characters that are not allowed in worksheet titles
// and caps the result at the 31 character limit.
func SafeSheetName(s string) string {
	s = sheetUnsafeRe.ReplaceAllString(s, "_")
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	return s
}
