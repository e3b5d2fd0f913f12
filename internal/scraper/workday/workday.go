// Package workday holds the selectors shared by Workday career sites.
package workday

import (
	"regexp"

	"go-nursejobs-pipeline/internal/config"
)

const ATS = "workday"

// Workday requisition ids look like R12345 or JR-12345.
var requisitionRegex = regexp.MustCompile(`\b(?:J?R-?\d{4,}(?:-\d+)?)\b`)

// DefaultSelectors targets the data-automation-id attributes Workday
// renders on every tenant.
func DefaultSelectors() config.Selectors {
	return config.Selectors{
		ListingReady: `[data-automation-id="jobResults"]`,
		JobCard:      `[data-automation-id="jobResults"] li`,
		JobLink:      `a[data-automation-id="jobTitle"]`,
		CardLocation: `[data-automation-id="locations"] dd`,

		NextButton: `button[data-uxi-widget-type="stepToNextButton"], button[aria-label="next"]`,
		PageButton: `button[aria-label="page %d"]`,
		ActivePage: `button[aria-current="page"]`,

		DetailReady:    `[data-automation-id="jobPostingHeader"]`,
		Title:          `[data-automation-id="jobPostingHeader"]`,
		Location:       `[data-automation-id="locations"] dd`,
		Header:         `[data-automation-id="job-posting-details"]`,
		Description:    `[data-automation-id="jobPostingDescription"]`,
		EmploymentType: `[data-automation-id="time"] dd`,
		RequisitionID:  `[data-automation-id="requisitionId"] dd`,
		PostedDate:     `[data-automation-id="postedOn"] dd`,
	}
}

// RequisitionID finds a Workday requisition id in free text.
func RequisitionID(text string) (string, bool) {
	m := requisitionRegex.FindString(text)
	return m, m != ""
}
