package extract

import (
	"regexp"
	"strconv"
	"strings"

	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/normalize"
)

const money = `\$\s?(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\s?([kK])?`

var (
	moneyRange    = regexp.MustCompile(money + `(?:\s*(?:-|–|—|to)\s*(?:` + money + `))?`)
	labeledSalary = regexp.MustCompile(`(?i)(?:compensation|pay|salary|wage)(?:\s+(?:range|rate|scale))?(?:\s*\([^)\n]*\))?\s*:\s*([^\n]+)`)
	minSalary     = regexp.MustCompile(`(?i)minimum\s+(hourly|annual|salary|pay|rate|wage)[^:\n]*:\s*` + money)
	maxSalary     = regexp.MustCompile(`(?i)maximum\s+(hourly|annual|salary|pay|rate|wage)[^:\n]*:\s*` + money)
	hourlyWords   = regexp.MustCompile(`(?i)per\s+hour|an\s+hour|hourly|/\s?h(?:ou)?r\b|\bhr\b`)
	annualWords   = regexp.MustCompile(`(?i)per\s+(?:year|annum)|annual(?:ly)?|yearly|/\s?y(?:ea)?r\b|\bannum\b`)
)

// InferSalaryType classifies a bare pay value: above 100,000 is annual,
// below 50 is hourly, otherwise annual when above 1,000.
func InferSalaryType(v float64) models.SalaryType {
	switch {
	case v > 100000:
		return models.SalaryAnnual
	case v < 50:
		return models.SalaryHourly
	case v > 1000:
		return models.SalaryAnnual
	default:
		return models.SalaryHourly
	}
}

func parseMoney(num, k string) (float64, bool) {
	if num == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if k != "" {
		v *= 1000
	}
	return v, true
}

// unitOf looks for explicit unit words around a pay value; the heuristic
// applies only when there are none.
func unitOf(context string, v float64) models.SalaryType {
	hourly := hourlyWords.MatchString(context)
	annual := annualWords.MatchString(context)
	switch {
	case hourly && !annual:
		return models.SalaryHourly
	case annual && !hourly:
		return models.SalaryAnnual
	}
	return InferSalaryType(v)
}

// parseSalaryRange reads the first "$X" or "$X - $Y" in text.
func parseSalaryRange(text string) (normalize.Salary, bool) {
	loc := moneyRange.FindStringSubmatchIndex(text)
	if loc == nil {
		return normalize.Salary{}, false
	}
	group := func(i int) string {
		if loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}
	lo, ok := parseMoney(group(1), group(2))
	if !ok {
		return normalize.Salary{}, false
	}
	s := normalize.Salary{Min: &lo}
	if hi, ok := parseMoney(group(3), group(4)); ok {
		s.Max = &hi
	}
	start, end := loc[0]-40, loc[1]+40
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	s.Type = unitOf(text[start:end], lo)
	return s, true
}

var salaryStrategies = []Strategy[*page, normalize.Salary]{
	// dedicated compensation field
	func(p *page) (normalize.Salary, bool) {
		return parseSalaryRange(p.doc.Text(p.sel.Compensation))
	},
	// "Pay Range: $X - $Y" in the body
	func(p *page) (normalize.Salary, bool) {
		for _, m := range labeledSalary.FindAllStringSubmatch(p.body, -1) {
			if s, ok := parseSalaryRange(m[0]); ok {
				return s, true
			}
		}
		return normalize.Salary{}, false
	},
	// "Minimum Hourly Rate: $X" / "Maximum Hourly Rate: $Y"
	func(p *page) (normalize.Salary, bool) {
		var s normalize.Salary
		var label string
		if m := minSalary.FindStringSubmatch(p.body); m != nil {
			if v, ok := parseMoney(m[2], m[3]); ok {
				s.Min, label = &v, m[1]
			}
		}
		if m := maxSalary.FindStringSubmatch(p.body); m != nil {
			if v, ok := parseMoney(m[2], m[3]); ok {
				s.Max = &v
				if label == "" {
					label = m[1]
				}
			}
		}
		if s.Empty() {
			return s, false
		}
		ref := s.Min
		if ref == nil {
			ref = s.Max
		}
		s.Type = unitOf(label, *ref)
		return s, true
	},
	// bare "$X - $Y" anywhere
	func(p *page) (normalize.Salary, bool) {
		for _, m := range moneyRange.FindAllStringSubmatchIndex(p.body, -1) {
			if m[6] < 0 {
				continue
			}
			if s, ok := parseSalaryRange(p.body[m[0]:]); ok {
				return s, true
			}
		}
		return normalize.Salary{}, false
	},
}
