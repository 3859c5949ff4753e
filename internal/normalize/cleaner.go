// Package normalize runs the ordered cleaning passes that turn the flattened
// line-item table into the analysis-ready dataset.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces = regexp.MustCompile(`\s+`)

	// NFKD decomposition followed by dropping the combining marks strips
	// accents: AÇÚCAR -> ACUCAR.
	deaccent = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
)

// CleanText applies the generic cleanup used on every text column: strip
// asterisks, trim, strip periods, collapse whitespace runs, drop accents,
// uppercase.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = reSpaces.ReplaceAllString(s, " ")
	if stripped, _, err := transform.String(deaccent, s); err == nil {
		s = stripped
	}
	return strings.ToUpper(s)
}

// CoerceFloat casts a cell to float64 the way the numeric-coercion pass does:
// values that fail to parse become 0, never null, never a dropped row.
func CoerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
