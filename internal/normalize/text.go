// Package normalize turns raw scraped strings into canonical job values.
// Every function is pure and tolerates empty input.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// FoldText strips diacritics and lower-cases str.
func FoldText(str string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, str)
	if err != nil {
		result = str
	}
	return strings.ToLower(result)
}

// Slugify folds str to lower-case ASCII words joined by single hyphens.
func Slugify(str string) string {
	s := FoldText(str)
	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "'", "")
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// CollapseSpaces trims str and replaces whitespace runs (including nbsp)
// with a single space.
func CollapseSpaces(str string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(strings.ReplaceAll(str, "\u00a0", " "), " "))
}
