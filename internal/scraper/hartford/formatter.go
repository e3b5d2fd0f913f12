// Package hartford cleans up Hartford HealthCare job descriptions.
package hartford

import (
	"regexp"
	"strings"
)

var (
	// everything from the EEO statement down is footer
	footerRegex = regexp.MustCompile(`(?im)^(?:#+\s*|\*\*)?(?:we take great pride in creating a diverse|hartford healthcare is an equal opportunity|equal opportunity employer|eeo statement|all qualified applicants will receive)`)

	boilerplateRegex = regexp.MustCompile(`(?i)^(?:#+\s*|\*\*)?(?:work where every moment matters|every day,? over \d[\d,]* colleagues|this is more than a job|join us\b|apply now\b)`)

	bareLabelRegex = regexp.MustCompile(`(?i)^(?:position summary|job summary|summary|position responsibilities|responsibilities|duties|qualifications|required qualifications|preferred qualifications|education|experience|licensure(?:,? certification)?|licenses? (?:and|&) certifications?|shift details|benefits|what you(?:'ll| will) do|what we offer|about the role)\s*:?$`)
)

// Format strips site boilerplate and footers and turns bare section labels
// into headings.
func Format(structured string) string {
	if loc := footerRegex.FindStringIndex(structured); loc != nil {
		structured = structured[:loc[0]]
	}

	var out []string
	for _, line := range strings.Split(structured, "\n") {
		trimmed := strings.TrimSpace(line)
		if boilerplateRegex.MatchString(trimmed) {
			continue
		}
		if bareLabelRegex.MatchString(trimmed) {
			out = append(out, "", "## "+strings.TrimSuffix(trimmed, ":"), "")
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
