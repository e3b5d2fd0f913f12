package normalize

import (
	"strings"
)

const maxTitleSlugLen = 80

// GenerateJobSlug derives the upsert key for a posting. The same four inputs
// always produce the same slug. sourceID is the disambiguator; without it two
// distinct postings with the same title, city and state share a slug.
func GenerateJobSlug(title, city, state, sourceID string) string {
	titlePart := Slugify(title)
	if len(titlePart) > maxTitleSlugLen {
		titlePart = strings.TrimRight(titlePart[:maxTitleSlugLen], "-")
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{titlePart, Slugify(city), strings.ToLower(NormalizeState(state)), Slugify(sourceID)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}
