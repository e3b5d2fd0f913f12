package normalize

import (
	"math"

	"go-nursejobs-pipeline/internal/models"
)

// Salary is a pay range as observed on a posting.
type Salary struct {
	Min  *float64
	Max  *float64
	Type models.SalaryType
}

// Empty reports whether no pay value was observed.
func (s Salary) Empty() bool {
	return s.Min == nil && s.Max == nil
}

func HourlyToAnnual(h float64) float64 {
	return math.Round(h * models.HoursPerYear)
}

func AnnualToHourly(a float64) float64 {
	return math.Round(a / models.HoursPerYear)
}

// ApplySalary stores the observed range on job and derives the other unit.
// Only one of hourly/annual is ever taken from the posting.
func ApplySalary(job *models.NormalizedJob, s Salary) {
	job.SalaryMin, job.SalaryMax = nil, nil
	job.SalaryMinHourly, job.SalaryMaxHourly = nil, nil
	job.SalaryMinAnnual, job.SalaryMaxAnnual = nil, nil
	job.SalaryType = ""
	if s.Empty() {
		return
	}
	if s.Min != nil && s.Max != nil && *s.Min > *s.Max {
		s.Min, s.Max = s.Max, s.Min
	}
	job.SalaryMin, job.SalaryMax = copyFloat(s.Min), copyFloat(s.Max)
	job.SalaryType = s.Type

	switch s.Type {
	case models.SalaryHourly:
		job.SalaryMinHourly, job.SalaryMaxHourly = copyFloat(s.Min), copyFloat(s.Max)
		job.SalaryMinAnnual, job.SalaryMaxAnnual = derive(s.Min, HourlyToAnnual), derive(s.Max, HourlyToAnnual)
	case models.SalaryAnnual:
		job.SalaryMinAnnual, job.SalaryMaxAnnual = copyFloat(s.Min), copyFloat(s.Max)
		job.SalaryMinHourly, job.SalaryMaxHourly = derive(s.Min, AnnualToHourly), derive(s.Max, AnnualToHourly)
	}
}

func derive(v *float64, fn func(float64) float64) *float64 {
	if v == nil {
		return nil
	}
	out := fn(*v)
	return &out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
