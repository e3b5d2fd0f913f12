package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDateRegex  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})`)
	usDateRegex   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	daysAgoRegex  = regexp.MustCompile(`(?i)\b(\d+)\+?\s*days?\s+ago\b`)
	longDateRegex = regexp.MustCompile(`\b([A-Z][a-z]+\.? \d{1,2}, \d{4})\b`)
)

// ParsePostedDate reads a posting date label relative to now. It handles
// "Posted Today", "Posted Yesterday", "Posted 3 Days Ago", "30+ Days Ago",
// ISO dates, US mm/dd/yyyy dates and "January 2, 2006".
func ParsePostedDate(label string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return time.Time{}, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	lower := strings.ToLower(s)

	switch {
	case strings.Contains(lower, "today") || strings.Contains(lower, "just posted"):
		return today, true
	case strings.Contains(lower, "yesterday"):
		return today.AddDate(0, 0, -1), true
	}

	if m := daysAgoRegex.FindStringSubmatch(s); m != nil {
		days, err := strconv.Atoi(m[1])
		if err == nil {
			return today.AddDate(0, 0, -days), true
		}
	}

	if m := isoDateRegex.FindStringSubmatch(s); m != nil {
		if t, err := time.ParseInLocation("2006-01-02", m[1], now.Location()); err == nil {
			return t, true
		}
	}

	//US career sites write mm/dd/yyyy
	if m := usDateRegex.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location()), true
		}
	}

	if m := longDateRegex.FindStringSubmatch(s); m != nil {
		for _, layout := range []string{"January 2, 2006", "Jan 2, 2006", "Jan. 2, 2006"} {
			if t, err := time.ParseInLocation(layout, m[1], now.Location()); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// IsFutureDate rejects dates more than two days ahead, which are clock or
// timezone errors on the source site.
func IsFutureDate(t, now time.Time) bool {
	return t.Sub(now) > 2*24*time.Hour
}
