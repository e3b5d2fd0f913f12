package normalize

import (
	"regexp"
	"strconv"

	"go-nursejobs-pipeline/internal/models"
)

// DefaultSpecialty is used when no specialty rule matches.
const DefaultSpecialty = "General Nursing"

const (
	LevelNewGrad    = "new-grad"
	LevelEntry      = "entry"
	LevelMid        = "mid"
	LevelSenior     = "senior"
	LevelLeadership = "leadership"
)

type rule[T any] struct {
	pattern *regexp.Regexp
	value   T
}

func firstMatch[T any](rules []rule[T], text string) (T, bool) {
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			return r.value, true
		}
	}
	var zero T
	return zero, false
}

var jobTypeRules = []rule[models.JobType]{
	{regexp.MustCompile(`(?i)\btravel(?:ing|er)?\b`), models.JobTypeTravel},
	{regexp.MustCompile(`(?i)\b(?:prn|per[\s-]?diem|as[\s-]needed|casual)\b`), models.JobTypePRN},
	{regexp.MustCompile(`(?i)\b(?:contract(?:or)?|temporary|temp[\s-]to[\s-]perm|locum|seasonal)\b`), models.JobTypeContract},
	{regexp.MustCompile(`(?i)\bpart[\s-]?time\b`), models.JobTypePartTime},
	{regexp.MustCompile(`(?i)\bfull[\s-]?time\b`), models.JobTypeFullTime},
	{regexp.MustCompile(`(?i)\bhybrid\b`), models.JobTypeHybrid},
	{regexp.MustCompile(`(?i)\b(?:remote|work[\s-]from[\s-]home|telecommute|virtual)\b`), models.JobTypeRemote},
}

// MatchJobType reports the first job type keyword found in text.
func MatchJobType(text string) (models.JobType, bool) {
	return firstMatch(jobTypeRules, text)
}

// NormalizeJobType classifies employment text. Falls back to full-time.
func NormalizeJobType(text string) models.JobType {
	if t, ok := MatchJobType(text); ok {
		return t
	}
	return models.JobTypeFullTime
}

// order matters: NICU and PICU before ICU, Mother/Baby before L&D
var specialtyRules = []rule[string]{
	{regexp.MustCompile(`(?i)\bnicu\b|neonatal`), "NICU"},
	{regexp.MustCompile(`(?i)\bpicu\b|pediatric intensive`), "PICU"},
	{regexp.MustCompile(`(?i)\b(?:[cmst]?icu|cvicu|ccu)\b|intensive care|critical care`), "ICU"},
	{regexp.MustCompile(`\b(?:ED|ER)\b|(?i:emergency|\btrauma\b)`), "Emergency"},
	{regexp.MustCompile(`(?i)postpartum|mother[\s/-]*baby|\bmbu\b`), "Mother/Baby"},
	{regexp.MustCompile(`(?i)\bl\s?&\s?d\b|labor (?:and|&) delivery|birthing|obstetric`), "Labor & Delivery"},
	{regexp.MustCompile(`\bOR\b|(?i:operating room|peri-?operative|surgical services|\bpacu\b|\bpre[\s-]?op\b)`), "Perioperative"},
	{regexp.MustCompile(`(?i)cath(?:eterization)? lab|interventional|electrophysiology`), "Cath Lab"},
	{regexp.MustCompile(`(?i)telemetry|\btele\b|step[\s-]?down|\bpcu\b|progressive care`), "Telemetry"},
	{regexp.MustCompile(`(?i)med(?:ical)?[\s/-]*surg(?:ical)?`), "Med-Surg"},
	{regexp.MustCompile(`(?i)oncology|infusion|hematology|cancer`), "Oncology"},
	{regexp.MustCompile(`(?i)pediatric|\bpeds\b`), "Pediatrics"},
	{regexp.MustCompile(`(?i)psych|behavioral health|mental health`), "Behavioral Health"},
	{regexp.MustCompile(`(?i)dialysis|nephrology`), "Dialysis"},
	{regexp.MustCompile(`(?i)home health|home care|visiting nurse`), "Home Health"},
	{regexp.MustCompile(`(?i)hospice|palliative`), "Hospice"},
	{regexp.MustCompile(`(?i)case manag|care coordinat|utilization review|care management`), "Case Management"},
	{regexp.MustCompile(`(?i)float pool|resource pool|\bfloat\b`), "Float Pool"},
	{regexp.MustCompile(`(?i)rehab`), "Rehabilitation"},
	{regexp.MustCompile(`(?i)long[\s-]term care|skilled nursing|\bsnf\b`), "Long-Term Care"},
	{regexp.MustCompile(`(?i)ambulatory|outpatient|primary care|\bclinic\b|physician office`), "Ambulatory"},
	{regexp.MustCompile(`(?i)informatics`), "Informatics"},
	{regexp.MustCompile(`(?i)educator|clinical education`), "Education"},
}

// DetectSpecialty classifies the nursing specialty. The title is checked
// first because descriptions mention neighbouring units.
func DetectSpecialty(title, description string) string {
	if s, ok := firstMatch(specialtyRules, title); ok {
		return s
	}
	if s, ok := firstMatch(specialtyRules, description); ok {
		return s
	}
	return DefaultSpecialty
}

var titleLevelRules = []rule[string]{
	{regexp.MustCompile(`(?i)\b(?:director|manager|supervisor|chief|nurse leader|vice president|administrator)\b`), LevelLeadership},
	{regexp.MustCompile(`(?i)\b(?:new grad(?:uate)?|graduate nurse|residency|resident|fellowship|nurse extern|entry[\s-]level)\b`), LevelNewGrad},
	{regexp.MustCompile(`(?i)\b(?:senior|sr\.?|lead|charge|clinical nurse (?:iii|iv|3|4)|rn (?:iii|iv)|specialist)\b`), LevelSenior},
}

var descLevelRules = []rule[string]{
	{regexp.MustCompile(`(?i)new grad(?:uate)?s? (?:are )?(?:welcome|encouraged)|no experience required|graduate nurse residency`), LevelNewGrad},
}

var yearsPattern = regexp.MustCompile(`(?i)\b(\d{1,2})\+?\s*(?:-\s*\d{1,2}\s*)?(?:years?|yrs?)\b`)

// DetectExperienceLevel classifies seniority from the title, then from
// description hints and required years of experience. Defaults to mid.
func DetectExperienceLevel(title, description string) string {
	if lvl, ok := firstMatch(titleLevelRules, title); ok {
		return lvl
	}
	if lvl, ok := firstMatch(descLevelRules, description); ok {
		return lvl
	}
	if m := yearsPattern.FindStringSubmatch(description); m != nil {
		years, err := strconv.Atoi(m[1])
		if err == nil {
			switch {
			case years >= 5:
				return LevelSenior
			case years >= 2:
				return LevelMid
			default:
				return LevelEntry
			}
		}
	}
	return LevelMid
}
