package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sellerops/masstemplate-go/pkg/masstemplate/models"
)

var (
	sheetURLRe = regexp.MustCompile(`/spreadsheets/d/([A-Za-z0-9_-]+)`)
	sheetIDRe  = regexp.MustCompile(`^[A-Za-z0-9_-]{20,}$`)
)

// ErrInvalidSheetRef indicates a value that is neither a spreadsheet URL nor an ID.
var ErrInvalidSheetRef = errors.New("invalid spreadsheet url or id")

// ExtractSheetID returns the spreadsheet ID from a Google Sheets URL or a bare ID.
func ExtractSheetID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidSheetRef
	}
	if m := sheetURLRe.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if sheetIDRe.MatchString(s) {
		return s, nil
	}
	return "", ErrInvalidSheetRef
}

// SheetLink returns the browser URL of a spreadsheet.
func SheetLink(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id + "/edit"
}

// DefaultHighlight is the color HexToColor falls back to.
var DefaultHighlight = models.Color{Red: 1, Green: 1, Blue: 0.8}

// HexToColor parses #RGB or #RRGGBB. Anything else yields DefaultHighlight.
func HexToColor(hex string) models.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return DefaultHighlight
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return DefaultHighlight
	}
	return models.Color{
		Red:   float64(v>>16&0xff) / 255,
		Green: float64(v>>8&0xff) / 255,
		Blue:  float64(v&0xff) / 255,
	}
}

// ColorToHex renders a color as #RRGGBB.
func ColorToHex(c models.Color) string {
	ch := func(f float64) int {
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		return int(f*255 + 0.5)
	}
	return fmt.Sprintf("#%02X%02X%02X", ch(c.Red), ch(c.Green), ch(c.Blue))
}
