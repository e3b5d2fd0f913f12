package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateJobSlug(t *testing.T) {
	got := GenerateJobSlug("Registered Nurse - ICU (Nights)", "Hartford", "CT", "R-12345")
	assert.Equal(t, "registered-nurse-icu-nights-hartford-ct-r-12345", got)

	t.Run("deterministic", func(t *testing.T) {
		inputs := [][4]string{
			{"RN, Med/Surg & Tele", "New Britain", "Connecticut", "REQ_9"},
			{"  Staff Nurse's Role  ", "west hartford", "ct", ""},
			{"Café RN", "São Paulo", "", "x"},
		}
		for _, in := range inputs {
			first := GenerateJobSlug(in[0], in[1], in[2], in[3])
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, GenerateJobSlug(in[0], in[1], in[2], in[3]))
			}
		}
	})

	t.Run("ampersand and apostrophe", func(t *testing.T) {
		assert.Equal(t, "rn-med-surg-and-tele-new-britain-ct-req-9",
			GenerateJobSlug("RN, Med/Surg & Tele", "New Britain", "Connecticut", "REQ_9"))
		assert.Equal(t, "staff-nurses-role-west-hartford-ct",
			GenerateJobSlug("  Staff Nurse's Role  ", "west hartford", "ct", ""))
	})

	t.Run("url safe", func(t *testing.T) {
		s := GenerateJobSlug("Café RN!!", "São Paulo", "", "x")
		assert.Equal(t, "cafe-rn-sao-paulo-x", s)
	})

	t.Run("long titles truncated", func(t *testing.T) {
		title := strings.Repeat("registered nurse ", 10)
		s := GenerateJobSlug(title, "Hartford", "CT", "1")
		assert.True(t, strings.HasSuffix(s, "-hartford-ct-1"))
		assert.NotContains(t, s, "--")
	})

	t.Run("fallback without source id may collide", func(t *testing.T) {
		a := GenerateJobSlug("Registered Nurse", "Hartford", "CT", "")
		b := GenerateJobSlug("Registered Nurse", "Hartford", "CT", "")
		assert.Equal(t, a, b)
	})
}
