package scraper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go-nursejobs-pipeline/internal/filter"
	"go-nursejobs-pipeline/internal/pagination"
)

// RunResult counts what happened to every candidate of one employer run.
type RunResult struct {
	Employer string
	DryRun   bool

	Pagination *pagination.Result

	Candidates  int
	PreFiltered int
	Extracted   int
	Rejected    map[filter.Reason]int
	Invalid     int
	Valid       int
	Errors      int

	Created     int
	Updated     int
	Deactivated int

	Duration time.Duration
	Err      error
}

func newRunResult(employer string, dryRun bool) *RunResult {
	return &RunResult{Employer: employer, DryRun: dryRun, Rejected: make(map[filter.Reason]int)}
}

func (r *RunResult) RejectedTotal() int {
	n := 0
	for _, v := range r.Rejected {
		n += v
	}
	return n
}

// Summary is a short human readable report, one fact per line.
func (r *RunResult) Summary() string {
	var b strings.Builder
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(&b, "🏥 %s%s\n", r.Employer, mode)
	if r.Err != nil {
		fmt.Fprintf(&b, "❌ %v\n", r.Err)
	}
	if p := r.Pagination; p != nil {
		fmt.Fprintf(&b, "📄 pages %d, iterations %d, stopped: %s\n", p.Pages, p.Iterations, p.Termination)
		if p.HardFailures+p.SoftFailures > 0 {
			fmt.Fprintf(&b, "⚠️ detail failures: %d hard, %d soft, %d recoveries\n", p.HardFailures, p.SoftFailures, p.Recoveries)
		}
	}
	fmt.Fprintf(&b, "🔎 candidates %d, title-filtered %d, extracted %d\n", r.Candidates, r.PreFiltered, r.Extracted)
	fmt.Fprintf(&b, "🚫 rejected %d, invalid %d, errors %d\n", r.RejectedTotal(), r.Invalid, r.Errors)

	reasons := make([]string, 0, len(r.Rejected))
	for reason, n := range r.Rejected {
		reasons = append(reasons, fmt.Sprintf("%s=%d", reason, n))
	}
	sort.Strings(reasons)
	if len(reasons) > 0 {
		fmt.Fprintf(&b, "   %s\n", strings.Join(reasons, ", "))
	}
	fmt.Fprintf(&b, "✅ valid %d, created %d, updated %d, expired %d\n", r.Valid, r.Created, r.Updated, r.Deactivated)
	fmt.Fprintf(&b, "⏱️ %s", r.Duration.Round(time.Second))
	return b.String()
}
