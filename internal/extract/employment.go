package extract

import (
	"regexp"
	"strconv"
	"strings"

	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/normalize"
)

var (
	weeklyHours   = regexp.MustCompile(`(?i)scheduled\s+weekly\s+hours\s*:?\s*(\d+(?:\.\d+)?)`)
	labeledType   = regexp.MustCompile(`(?im)^\s*(?:employment|job|position|work|worker)\s+(?:type|status)\s*:\s*(.+)$`)
	timeTypeField = regexp.MustCompile(`(?im)^\s*time\s+type\s*:?\s*(.+)$`)
)

// jobTypeHit records which strategy decided the job type.
type jobTypeHit struct {
	value  models.JobType
	source string
}

// HoursJobType maps scheduled weekly hours to a job type: 36 and above is
// full-time, 1 to 35 part-time.
func HoursJobType(hours float64) (models.JobType, bool) {
	switch {
	case hours >= 36:
		return models.JobTypeFullTime, true
	case hours >= 1:
		return models.JobTypePartTime, true
	}
	return "", false
}

// Hours come first: benefits prose like "24+ hours/week eligibility" trips
// keyword matching.
var jobTypeStrategies = []Strategy[*page, jobTypeHit]{
	func(p *page) (jobTypeHit, bool) {
		m := weeklyHours.FindStringSubmatch(p.header + "\n" + p.body)
		if m == nil {
			return jobTypeHit{}, false
		}
		hours, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return jobTypeHit{}, false
		}
		t, ok := HoursJobType(hours)
		return jobTypeHit{t, "weekly-hours"}, ok
	},
	func(p *page) (jobTypeHit, bool) {
		t, ok := normalize.MatchJobType(p.doc.Text(p.sel.EmploymentType))
		return jobTypeHit{t, "field"}, ok
	},
	func(p *page) (jobTypeHit, bool) {
		for _, re := range []*regexp.Regexp{labeledType, timeTypeField} {
			if m := re.FindStringSubmatch(p.header + "\n" + p.body); m != nil {
				if t, ok := normalize.MatchJobType(m[1]); ok {
					return jobTypeHit{t, "label"}, true
				}
			}
		}
		return jobTypeHit{}, false
	},
	func(p *page) (jobTypeHit, bool) {
		t, ok := normalize.MatchJobType(p.title)
		return jobTypeHit{t, "title"}, ok
	},
	func(p *page) (jobTypeHit, bool) {
		t, ok := normalize.MatchJobType(p.body)
		return jobTypeHit{t, "keywords"}, ok
	},
}

var (
	primaryShiftField = regexp.MustCompile(`(?i)primary\s+work\s+shift\s*:\s*([^\n]+)`)
	shiftField        = regexp.MustCompile(`(?i)(?:^|[^\w])shift(?:\s+type)?\s*:\s*([^\n]+)`)
	scheduleField     = regexp.MustCompile(`(?i)(?:^|[^\w])(?:work\s+)?schedule\s*:\s*([^\n]+)`)

	rotatingWords = regexp.MustCompile(`(?i)rotat(?:ing|ional|ion|es)`)
	variableWords = regexp.MustCompile(`(?i)\bvari(?:able|es|ous)\b`)
	dayWords      = regexp.MustCompile(`(?i)\bdays?\b|\bdaytime\b|\b(?:1st|first)\s+shift\b`)
	nightWords    = regexp.MustCompile(`(?i)\bnights?\b|\bovernights?\b|\bnoc\b|\b(?:3rd|third)\s+shift\b`)
	eveningWords  = regexp.MustCompile(`(?i)\bevenings?\b|\b(?:2nd|second)\s+shift\b`)
	notAnOpening  = regexp.MustCompile(`(?i)expression\s+of\s+interest`)
)

// ClassifyShift maps a shift field value to a shift type. Rotation wins over
// variable, which wins over the time-of-day words, so "Day Rotational" is
// rotating. A value naming both days and nights is treated as rotating.
func ClassifyShift(value string) (models.ShiftType, bool) {
	switch {
	case rotatingWords.MatchString(value):
		return models.ShiftRotating, true
	case variableWords.MatchString(value):
		return models.ShiftVariable, true
	}
	day, night := dayWords.MatchString(value), nightWords.MatchString(value)
	switch {
	case day && night:
		return models.ShiftRotating, true
	case night:
		return models.ShiftNights, true
	case eveningWords.MatchString(value):
		return models.ShiftEvenings, true
	case day:
		return models.ShiftDays, true
	}
	return "", false
}

func shiftFromField(re *regexp.Regexp) Strategy[*page, models.ShiftType] {
	return func(p *page) (models.ShiftType, bool) {
		for _, m := range re.FindAllStringSubmatch(p.header+"\n"+p.body, -1) {
			if st, ok := ClassifyShift(m[1]); ok {
				return st, true
			}
		}
		return "", false
	}
}

var shiftStrategies = []Strategy[*page, models.ShiftType]{
	func(p *page) (models.ShiftType, bool) {
		return ClassifyShift(p.doc.Text(p.sel.Shift))
	},
	shiftFromField(primaryShiftField),
	shiftFromField(shiftField),
	shiftFromField(scheduleField),
	func(p *page) (models.ShiftType, bool) { return ClassifyShift(p.title) },
}

// IsExpressionOfInterest reports postings that collect applications rather
// than fill a scheduled opening.
func IsExpressionOfInterest(title string) bool {
	return notAnOpening.MatchString(strings.TrimSpace(title))
}
