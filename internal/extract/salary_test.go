package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/models"
)

func TestInferSalaryType(t *testing.T) {
	tests := []struct {
		v    float64
		want models.SalaryType
	}{
		{150000, models.SalaryAnnual},
		{100000, models.SalaryAnnual},
		{85000, models.SalaryAnnual},
		{1001, models.SalaryAnnual},
		{1000, models.SalaryHourly},
		{50, models.SalaryHourly},
		{49.99, models.SalaryHourly},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferSalaryType(tt.v), "%v", tt.v)
	}
}

func TestParseSalaryRange(t *testing.T) {
	s, ok := parseSalaryRange("$85,000 - $110,000")
	require.True(t, ok)
	assert.Equal(t, 85000.0, *s.Min)
	assert.Equal(t, 110000.0, *s.Max)
	assert.Equal(t, models.SalaryAnnual, s.Type)

	s, ok = parseSalaryRange("$95k–$120k")
	require.True(t, ok)
	assert.Equal(t, 95000.0, *s.Min)
	assert.Equal(t, 120000.0, *s.Max)

	s, ok = parseSalaryRange("starting at $900 per hour")
	require.True(t, ok)
	assert.Nil(t, s.Max)
	assert.Equal(t, models.SalaryHourly, s.Type)

	_, ok = parseSalaryRange("competitive pay")
	assert.False(t, ok)
}

func extractBody(t *testing.T, body string) *Fields {
	t.Helper()
	f, err := New(config.Selectors{Compensation: ".pay"}).Extract(`<html><body>`+body+`</body></html>`, "")
	require.NoError(t, err)
	return f
}

func TestSalaryCascade(t *testing.T) {
	t.Run("structured field wins", func(t *testing.T) {
		f := extractBody(t, `<div class="pay">$38 - $52</div><article><p>Salary Range: $90,000 - $120,000</p></article>`)
		assert.Equal(t, 38.0, *f.Salary.Min)
		assert.Equal(t, models.SalaryHourly, f.Salary.Type)
	})

	t.Run("labeled body range", func(t *testing.T) {
		f := extractBody(t, `<article><p>Sign-on bonus $5,000.</p><p>Compensation Range: $41.25 - $60.10</p></article>`)
		assert.Equal(t, 41.25, *f.Salary.Min)
		assert.Equal(t, 60.10, *f.Salary.Max)
		assert.Equal(t, models.SalaryHourly, f.Salary.Type)
	})

	t.Run("minimum and maximum fields", func(t *testing.T) {
		f := extractBody(t, `<article><p>Minimum Hourly Rate: $38.50</p><p>Maximum Hourly Rate: $57.75</p></article>`)
		assert.Equal(t, 38.5, *f.Salary.Min)
		assert.Equal(t, 57.75, *f.Salary.Max)
		assert.Equal(t, models.SalaryHourly, f.Salary.Type)
	})

	t.Run("generic range heuristic", func(t *testing.T) {
		f := extractBody(t, `<article><p>Earn $5,000 sign-on. Base is $78,000 - $96,000 depending on experience.</p></article>`)
		assert.Equal(t, 78000.0, *f.Salary.Min)
		assert.Equal(t, models.SalaryAnnual, f.Salary.Type)
	})

	t.Run("none", func(t *testing.T) {
		f := extractBody(t, `<article><p>Competitive pay.</p></article>`)
		assert.True(t, f.Salary.Empty())
	})
}
