package pagination

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	mapset "github.com/deckarep/golang-set/v2"

	"go-nursejobs-pipeline/internal/config"
	"go-nursejobs-pipeline/internal/models"
)

var (
	trackingParams = regexp.MustCompile(`^(?:utm_.*|src|source|ref|refer(?:rer)?|gclid|fbclid)$`)
	jobIDParams    = []string{"jobId", "jobid", "job_id", "gh_jid", "reqId", "id"}
	pathJobID      = regexp.MustCompile(`_((?:[A-Za-z]{1,4}-?)?\d{3,}(?:-\d+)?)$`)
	trailingDigits = regexp.MustCompile(`(\d{4,})$`)
)

// NormalizeURL resolves href against base and drops the fragment and
// tracking parameters so the same posting always has one URL.
func NormalizeURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
		return "", false
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	u.Fragment = ""
	q := u.Query()
	for k := range q {
		if trackingParams.MatchString(k) {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}

// SourceJobID derives the site's id for a posting from its URL.
func SourceJobID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, k := range jobIDParams {
		if v := q.Get(k); v != "" {
			return v
		}
	}
	path := strings.TrimRight(u.Path, "/")
	if m := pathJobID.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	last := path[strings.LastIndex(path, "/")+1:]
	if m := trailingDigits.FindStringSubmatch(last); m != nil {
		return m[1]
	}
	return ""
}

// ParseListing reads job cards from listing HTML. Cards without a usable
// link are skipped.
func ParseListing(html, pageURL string, sel config.Selectors) ([]models.JobListingCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(pageURL)

	cards := doc.Find(sel.JobCard)
	if sel.JobCard == "" {
		cards = doc.Find(sel.JobLink)
	}

	var out []models.JobListingCandidate
	cards.Each(func(_ int, card *goquery.Selection) {
		link := card
		if sel.JobLink != "" && sel.JobCard != "" {
			if !card.Is(sel.JobLink) {
				link = card.Find(sel.JobLink).First()
			}
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		detailURL, ok := NormalizeURL(base, href)
		if !ok {
			return
		}
		title := collapse(link.Text())
		if sel.CardTitle != "" {
			if t := collapse(card.Find(sel.CardTitle).First().Text()); t != "" {
				title = t
			}
		}
		var location string
		if sel.CardLocation != "" {
			location = collapse(card.Find(sel.CardLocation).First().Text())
		}
		out = append(out, models.JobListingCandidate{
			SourceJobID:  SourceJobID(detailURL),
			Title:        title,
			LocationText: location,
			DetailURL:    detailURL,
			RawCardText:  collapse(card.Text()),
		})
	})
	return out, nil
}

// unseen returns the candidates whose URL is not in seen and adds them.
func unseen(cands []models.JobListingCandidate, seen mapset.Set[string]) []models.JobListingCandidate {
	var out []models.JobListingCandidate
	for _, c := range cands {
		if seen.Add(c.DetailURL) {
			out = append(out, c)
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
