// Package filter decides which postings describe a registered nurse role.
package filter

import (
	"regexp"
	"strings"

	"go-nursejobs-pipeline/internal/normalize"
)

var (
	rnTitleRegex     = regexp.MustCompile(`\bRNs?\b|\bR\.N\.|(?i:registered\s+nurse)`)
	placeholderRegex = regexp.MustCompile(`(?i)coming\s+soon|description\s+(?:to\s+be\s+)?(?:added|provided|posted)\s+(?:soon|later)|(?:description|details)\s*[:-]?\s*tbd\b|\bplaceholder\b|lorem\s+ipsum|details\s+to\s+follow`)

	// mentions of an RN as the person being assisted or supervising
	exclusionContextRegex = regexp.MustCompile(`(?i)(?:assists?(?:ing)?|supports?(?:ing)?|helps?(?:ing)?|works?\s+with|reports?\s+to|under\s+(?:the\s+)?(?:direct\s+)?(?:supervision|direction)\s+of|delegated\s+by|directed\s+by|supervised\s+by|alongside)\s+(?:an?\s+|the\s+)?(?:licensed\s+)?(?:RNs?\b|R\.N\.|registered\s+nurses?)`)
)

// Reason names the gate that rejected a posting.
type Reason string

const (
	Accepted          Reason = ""
	ReasonShort       Reason = "description_too_short"
	ReasonPlaceholder Reason = "placeholder_description"
	ReasonRNContext   Reason = "rn_exclusion_context_only"
	ReasonNoRNMention Reason = "no_rn_mention"
)

// VerifyRole runs the role-verification gates in order and returns the
// first one that rejects. Accepted means the posting describes an RN role.
func VerifyRole(title, description string) Reason {
	desc := strings.TrimSpace(description)
	if len(desc) < normalize.MinDescriptionLength {
		return ReasonShort
	}
	if placeholderRegex.MatchString(desc) {
		return ReasonPlaceholder
	}
	titleRN := rnTitleRegex.MatchString(title)
	if !titleRN && onlyExclusionContext(desc) {
		return ReasonRNContext
	}
	if !titleRN && !normalize.HasRNMention(desc) {
		return ReasonNoRNMention
	}
	return Accepted
}

// onlyExclusionContext reports whether every RN mention in text sits in an
// exclusion context such as "assists the RN".
func onlyExclusionContext(text string) bool {
	if !exclusionContextRegex.MatchString(text) {
		return false
	}
	stripped := exclusionContextRegex.ReplaceAllString(text, " ")
	return !normalize.HasRNMention(stripped)
}
