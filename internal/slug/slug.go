// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	symbols = strings.NewReplacer(
		"&", "and",
		"|", "or",
		"$", "dollar",
		"%", "percent",
		"<", "less",
		">", "greater",
	)
	// Punctuation inside a word is dropped ("Node.js" → "nodejs"); only
	// whitespace and hyphens separate words.
	punctuation = regexp.MustCompile(`[^a-z0-9\s-]+`)
	separators  = regexp.MustCompile(`[\s-]+`)

	// Pattern matches every non-empty output of Generate.
	Pattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Generate lowercases s, folds accented letters to their ASCII base
// ("Café" → "cafe"), spells out a few symbols ("&" → "and"), removes the
// remaining punctuation and joins the words with single hyphens. Input
// without any ASCII letters or digits yields "".
func Generate(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	result := strings.ToLower(symbols.Replace(folded))
	result = punctuation.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Valid reports whether s has the shape Generate produces.
func Valid(s string) bool {
	return Pattern.MatchString(s)
}
