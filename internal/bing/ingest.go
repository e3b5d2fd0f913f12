package bing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go-nursejobs-pipeline/internal/logger"
	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/store"
)

// Source is the analytics feed.
type Source interface {
	PageStats(ctx context.Context, siteURL string) ([]models.PageStat, error)
}

type Ingester struct {
	source  Source
	gw      store.Gateway
	siteURL string
	log     *logger.Logger
}

func NewIngester(src Source, gw store.Gateway, siteURL string, log *logger.Logger) *Ingester {
	return &Ingester{source: src, gw: gw, siteURL: siteURL, log: log}
}

// Run fetches stats and stores the rows for job detail pages. It returns the
// number of rows written.
func (i *Ingester) Run(ctx context.Context) (int, error) {
	rows, err := i.source.PageStats(ctx, i.siteURL)
	if err != nil {
		return 0, fmt.Errorf("fetch page stats: %w", err)
	}

	jobs := rows[:0]
	for _, r := range rows {
		if isJobPage(r.URL) {
			jobs = append(jobs, r)
		}
	}
	i.log.Info("bing page stats fetched", "rows", len(rows), "job_rows", len(jobs))
	if len(jobs) == 0 {
		return 0, nil
	}

	n, err := i.gw.UpsertPageStats(ctx, jobs)
	if err != nil {
		return 0, fmt.Errorf("store page stats: %w", err)
	}
	return n, nil
}

func isJobPage(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	rest, ok := strings.CutPrefix(u.Path, "/jobs/")
	return ok && rest != ""
}
