package extract

import (
	"regexp"
	"strings"
)

// Sections are the labelled parts of a description.
type Sections struct {
	Requirements     string
	Responsibilities string
	Benefits         string
}

var (
	labelLine = regexp.MustCompile(`^(?:#{1,6}\s+(.+)|\*\*([^*]+)\*\*:?|([A-Z][A-Za-z'&/ ,()-]{2,60}):)$`)

	requirementLabels    = regexp.MustCompile(`(?i)qualifications|requirements|what you(?:'ll| will)? (?:need|bring)|education|experience|licens|certification|skills`)
	responsibilityLabels = regexp.MustCompile(`(?i)responsibilit|duties|what you(?:'ll| will) do|job summary|position summary|the role|essential functions`)
	benefitLabels        = regexp.MustCompile(`(?i)benefits|what we offer|perks|why (?:join|work)|total rewards`)
)

type sectionKind int

const (
	otherSection sectionKind = iota
	requirementsSection
	responsibilitiesSection
	benefitsSection
)

func kindOf(label string) sectionKind {
	switch {
	case benefitLabels.MatchString(label):
		return benefitsSection
	case responsibilityLabels.MatchString(label):
		return responsibilitiesSection
	case requirementLabels.MatchString(label):
		return requirementsSection
	}
	return otherSection
}

func labelOf(line string) (string, bool) {
	m := labelLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return "", false
	}
	for _, g := range m[1:] {
		if g != "" {
			return strings.TrimSuffix(strings.Trim(g, "* "), ":"), true
		}
	}
	return "", false
}

// SplitSections groups the lines under each recognised label of a
// structured description. Repeated labels of one kind are concatenated.
func SplitSections(structured string) Sections {
	var out [4][]string
	current := otherSection
	for _, line := range strings.Split(structured, "\n") {
		if label, ok := labelOf(line); ok {
			current = kindOf(label)
			continue
		}
		if current != otherSection {
			out[current] = append(out[current], line)
		}
	}
	join := func(lines []string) string {
		return CleanText(strings.Join(lines, "\n"))
	}
	return Sections{
		Requirements:     join(out[requirementsSection]),
		Responsibilities: join(out[responsibilitiesSection]),
		Benefits:         join(out[benefitsSection]),
	}
}
