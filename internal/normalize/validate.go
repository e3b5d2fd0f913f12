package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go-nursejobs-pipeline/internal/models"
)

// MinDescriptionLength is the shortest description that carries enough
// signal to verify the role.
const MinDescriptionLength = 500

var (
	fiveDigitZip = regexp.MustCompile(`^\d{5}$`)
	rnMention    = regexp.MustCompile(`\bRNs?\b|\bR\.N\.|(?i:registered\s+nurses?)`)
)

// HasRNMention reports whether text names the registered nurse role.
func HasRNMention(text string) bool {
	return rnMention.MatchString(text)
}

// ValidationResult lists every problem found on a record.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateJobData checks a record before persistence. It never panics; all
// problems are collected.
func ValidateJobData(job *models.NormalizedJob) ValidationResult {
	if job == nil {
		return ValidationResult{Errors: []string{"job is nil"}}
	}
	var errs []string
	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(job.Title) == "" {
		add("title is required")
	}
	if job.Slug == "" {
		add("slug is required")
	}
	if strings.TrimSpace(job.City) == "" {
		add("city is required")
	}
	if job.State == "" {
		add("state is required")
	} else if NormalizeState(job.State) != job.State {
		add("state %q is not a canonical two-letter code", job.State)
	}
	if job.ZipCode != "" && !fiveDigitZip.MatchString(job.ZipCode) {
		add("zip code %q is not 5 digits", job.ZipCode)
	}
	if n := len(strings.TrimSpace(job.Description)); n < MinDescriptionLength {
		add("description too short (%d < %d chars)", n, MinDescriptionLength)
	}
	if !HasRNMention(job.Title) && !HasRNMention(job.Description) {
		add("no registered nurse mention in title or description")
	}
	if u, err := url.Parse(job.SourceURL); err != nil || u.Scheme == "" || u.Host == "" {
		add("source url %q is not absolute", job.SourceURL)
	}
	if job.EmployerName == "" || job.EmployerSlug == "" {
		add("employer name and slug are required")
	}
	if !job.JobType.Valid() {
		add("job type %q is not recognised", job.JobType)
	}
	if !job.ShiftType.Valid() {
		add("shift type %q is not recognised", job.ShiftType)
	}
	if job.SalaryMin != nil && job.SalaryMax != nil && *job.SalaryMin > *job.SalaryMax {
		add("salary min %.2f exceeds max %.2f", *job.SalaryMin, *job.SalaryMax)
	}
	if (job.SalaryMin != nil || job.SalaryMax != nil) && job.SalaryType != models.SalaryHourly && job.SalaryType != models.SalaryAnnual {
		add("salary present without hourly/annual type")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
