package filter

import (
	"regexp"
	"strings"
)

// Titles of roles that are not registered nurse positions. Checked before a
// detail page is loaded.
var excludedTitleRegex = regexp.MustCompile(`(?i)\b(` +
	`certified\s+nursing\s+assistant|\bcna\b|nurse\s+aide|nursing\s+assistant|` +
	`licensed\s+practical\s+nurse|\blpn\b|licensed\s+vocational\s+nurse|\blvn\b|` +
	`medical\s+assistant|patient\s+care\s+(?:tech(?:nician)?|associate|assistant)|\bpct\b|` +
	`nurse\s+practitioner|\baprn\b|\bcrna\b|nurse\s+anesthetist|` +
	`unit\s+(?:secretary|clerk)|health\s+unit\s+coordinator|` +
	`phlebotom|pharmacy\s+tech|surgical\s+tech|sterile\s+processing|` +
	`environmental\s+services|food\s+services|security\s+officer|` +
	`physician|physical\s+therapist|occupational\s+therapist|respiratory\s+therapist|` +
	`patient\s+access|registration\s+(?:rep|specialist)` +
	`)`)

// ExcludedTitle reports whether title names a non-RN role. A title that
// names the RN role explicitly is never excluded, so "RN Clinical Nurse
// Educator for CNA program" survives.
func ExcludedTitle(title string) bool {
	t := strings.TrimSpace(title)
	if t == "" {
		return false
	}
	if rnTitleRegex.MatchString(t) {
		return false
	}
	return excludedTitleRegex.MatchString(t)
}
