package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-nursejobs-pipeline/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestSalaryRoundTrip(t *testing.T) {
	for _, h := range []float64{15, 22.5, 38.75, 45, 61.2, 99.99, 120} {
		back := AnnualToHourly(HourlyToAnnual(h))
		assert.LessOrEqual(t, math.Abs(back-h), 1.0, "hourly %.2f", h)
	}
}

func TestApplySalary_Hourly(t *testing.T) {
	job := &models.NormalizedJob{}
	ApplySalary(job, Salary{Min: ptr(40), Max: ptr(55.5), Type: models.SalaryHourly})

	require.NotNil(t, job.SalaryMinAnnual)
	assert.Equal(t, models.SalaryHourly, job.SalaryType)
	assert.Equal(t, 40.0, *job.SalaryMinHourly)
	assert.Equal(t, 55.5, *job.SalaryMaxHourly)
	assert.Equal(t, 83200.0, *job.SalaryMinAnnual)
	assert.Equal(t, 115440.0, *job.SalaryMaxAnnual)
}

func TestApplySalary_Annual(t *testing.T) {
	job := &models.NormalizedJob{}
	ApplySalary(job, Salary{Min: ptr(104000), Type: models.SalaryAnnual})

	assert.Equal(t, models.SalaryAnnual, job.SalaryType)
	assert.Equal(t, 104000.0, *job.SalaryMinAnnual)
	assert.Equal(t, 50.0, *job.SalaryMinHourly)
	assert.Nil(t, job.SalaryMax)
	assert.Nil(t, job.SalaryMaxHourly)
}

func TestApplySalary_SwapsInvertedRange(t *testing.T) {
	job := &models.NormalizedJob{}
	ApplySalary(job, Salary{Min: ptr(60), Max: ptr(40), Type: models.SalaryHourly})
	assert.Equal(t, 40.0, *job.SalaryMin)
	assert.Equal(t, 60.0, *job.SalaryMax)
}

func TestApplySalary_EmptyClears(t *testing.T) {
	job := &models.NormalizedJob{SalaryMin: ptr(1), SalaryType: models.SalaryHourly}
	ApplySalary(job, Salary{})
	assert.Nil(t, job.SalaryMin)
	assert.Empty(t, job.SalaryType)
}
