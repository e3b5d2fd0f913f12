// Package bing pulls per-page search analytics from Bing Webmaster Tools.
package bing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go-nursejobs-pipeline/internal/models"
)

const DefaultEndpoint = "https://ssl.bing.com/webmaster/api.svc/json"

// pageStat mirrors one GetPageStats row. Query holds the page URL.
type pageStat struct {
	Query                 string  `json:"Query"`
	Date                  string  `json:"Date"`
	Clicks                int     `json:"Clicks"`
	Impressions           int     `json:"Impressions"`
	AvgImpressionPosition float64 `json:"AvgImpressionPosition"`
}

type pageStatsResponse struct {
	D []pageStat `json:"d"`
}

type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// PageStats returns the daily rows Bing holds for siteURL.
func (c *Client) PageStats(ctx context.Context, siteURL string) ([]models.PageStat, error) {
	q := url.Values{}
	q.Set("siteUrl", siteURL)
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/GetPageStats?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build bing request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("bing API returned status %d: %s", resp.StatusCode, msg)
	}

	var body pageStatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode bing page stats: %w", err)
	}

	out := make([]models.PageStat, 0, len(body.D))
	for _, row := range body.D {
		date, err := ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("row %q: %w", row.Query, err)
		}
		out = append(out, models.PageStat{
			URL:         row.Query,
			Date:        date,
			Clicks:      row.Clicks,
			Impressions: row.Impressions,
			AvgPosition: row.AvgImpressionPosition,
		})
	}
	return out, nil
}

var dateRegex = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

// ParseDate reads the WCF "/Date(ms+zzzz)/" format. The offset does not
// change the instant, only its display, so the result is UTC.
func ParseDate(s string) (time.Time, error) {
	m := dateRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("bad bing date %q", s)
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad bing date %q: %w", s, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
