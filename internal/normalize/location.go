package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR", "california": "CA",
	"colorado": "CO", "connecticut": "CT", "delaware": "DE", "district of columbia": "DC",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID", "illinois": "IL",
	"indiana": "IN", "iowa": "IA", "kansas": "KS", "kentucky": "KY", "louisiana": "LA",
	"maine": "ME", "maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK", "oregon": "OR",
	"pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT", "virginia": "VA",
	"washington": "WA", "west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
	"puerto rico": "PR", "washington dc": "DC", "washington d c": "DC",
}

// traditional and newspaper abbreviations seen on career sites
var stateVariants = map[string]string{
	"ala": "AL", "ariz": "AZ", "ark": "AR", "calif": "CA", "cal": "CA", "colo": "CO",
	"conn": "CT", "del": "DE", "fla": "FL", "ill": "IL", "ind": "IN", "kan": "KS",
	"kans": "KS", "mass": "MA", "mich": "MI", "minn": "MN", "miss": "MS", "mont": "MT",
	"neb": "NE", "nebr": "NE", "nev": "NV", "okla": "OK", "ore": "OR", "penn": "PA",
	"penna": "PA", "tenn": "TN", "tex": "TX", "wash": "WA", "wis": "WI", "wisc": "WI",
	"wyo": "WY", "n y": "NY", "n j": "NJ", "n c": "NC", "s c": "SC", "n h": "NH",
	"n m": "NM", "n d": "ND", "s d": "SD", "r i": "RI", "w va": "WV", "d c": "DC",
}

var stateCodes = func() map[string]bool {
	m := make(map[string]bool, len(stateNames))
	for _, code := range stateNames {
		m[code] = true
	}
	return m
}()

var (
	statePunct      = regexp.MustCompile(`[.,;:()\[\]]`)
	zipPattern      = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	cityNoise       = regexp.MustCompile(`^[\s,.\-–|/]+|[\s,.\-–|/]+$`)
	cityInnerDash   = regexp.MustCompile(`\s*[-–]\s*`)
	trailingCountry = regexp.MustCompile(`(?i)[,\s]+(?:USA|US|United States(?: of America)?)$`)

	// "Hartford, CT 06102", "Hartford, Connecticut"
	cityCommaState = regexp.MustCompile(`([A-Za-z][A-Za-z .'\-]*?),\s*([A-Za-z][A-Za-z .]*?)\.?(?:\s+(\d{5})(?:-\d{4})?)?\s*$`)
	// "CT - Hartford", "US-CT-Hartford", "USA, CT, Hartford"
	stateDashCity  = regexp.MustCompile(`^(?:USA?[-,\s]+)?([A-Z]{2})\s*[-–,]\s*([A-Za-z][A-Za-z .'\-]*)$`)
)

// NormalizeState maps a state name, code or noisy variant to its two-letter
// code. Unknown input yields "".
func NormalizeState(raw string) string {
	clean := strings.ToLower(CollapseSpaces(statePunct.ReplaceAllString(raw, " ")))
	if clean == "" {
		return ""
	}
	if len(clean) == 2 {
		if code := strings.ToUpper(clean); stateCodes[code] {
			return code
		}
	}
	if code, ok := stateNames[clean]; ok {
		return code
	}
	if code, ok := stateVariants[clean]; ok {
		return code
	}
	// "state of connecticut", "connecticut usa"
	clean = strings.TrimPrefix(clean, "state of ")
	clean = strings.TrimSuffix(strings.TrimSuffix(clean, " usa"), " us")
	if code, ok := stateNames[clean]; ok {
		return code
	}
	return ""
}

// NormalizeCity trims, collapses punctuation noise and title-cases a city.
func NormalizeCity(raw string) string {
	s := CollapseSpaces(raw)
	s = zipPattern.ReplaceAllString(s, "")
	s = cityNoise.ReplaceAllString(s, "")
	s = cityInnerDash.ReplaceAllString(s, "-")
	s = CollapseSpaces(s)
	if s == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ToLower(s))
}

// NormalizeZip returns the first 5-digit zip code found in raw, or "".
func NormalizeZip(raw string) string {
	if m := zipPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// Location is a parsed location string.
type Location struct {
	City  string
	State string
	Zip   string
}

// ParseLocation splits free-form location text like "Hartford, CT 06102" or
// "CT - Hartford" into canonical parts. Only the first location of a
// multi-location listing is used.
func ParseLocation(raw string) Location {
	text := raw
	if i := strings.IndexAny(text, "\n|;"); i > 0 {
		text = text[:i]
	}
	text = trailingCountry.ReplaceAllString(CollapseSpaces(text), "")
	loc := Location{Zip: NormalizeZip(text)}

	if m := stateDashCity.FindStringSubmatch(text); m != nil {
		if state := NormalizeState(m[1]); state != "" {
			loc.State = state
			loc.City = NormalizeCity(m[2])
			return loc
		}
	}
	if m := cityCommaState.FindStringSubmatch(text); m != nil {
		if state := NormalizeState(m[2]); state != "" {
			loc.State = state
			city := m[1]
			// "Hartford Hospital - Hartford, CT" keeps the part after the dash
			if i := strings.LastIndexAny(city, "-–"); i >= 0 && i < len(city)-1 {
				city = city[i+1:]
			}
			loc.City = NormalizeCity(city)
			return loc
		}
	}
	return loc
}
