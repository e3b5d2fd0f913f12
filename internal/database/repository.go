package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-nursejobs-pipeline/internal/models"
	"go-nursejobs-pipeline/internal/store"
)

//go:embed schema.sql
var schema string

// Repository is the Postgres job store.
type Repository struct {
	db *pgxpool.Pool
}

var _ store.Gateway = (*Repository)(nil)

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// pooled connections (PgBouncer transaction mode) can't hold prepared statements
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// Migrate creates the tables if they don't exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ---------------- JOB OPERATIONS ----------------

const jobColumns = `id::text, slug, source_job_id, source_url, title, city, state, zip_code,
	specialty, experience_level, job_type, shift_type,
	salary_min, salary_max, salary_type, salary_min_hourly, salary_max_hourly, salary_min_annual, salary_max_annual,
	description, requirements, responsibilities, benefits, department,
	employer_name, employer_slug, career_page_url, ats_platform,
	posted_at, is_active, google_indexed_at, classified_at, rejection_reason, expired_at,
	last_seen_at, created_at, updated_at`

func scanJob(row pgx.Row) (models.NormalizedJob, error) {
	var (
		j                                     models.NormalizedJob
		zip, shift, salaryType                *string
		reqs, resp, benefits, dept, rejection *string
	)
	err := row.Scan(&j.ID, &j.Slug, &j.SourceJobID, &j.SourceURL, &j.Title, &j.City, &j.State, &zip,
		&j.Specialty, &j.ExperienceLevel, &j.JobType, &shift,
		&j.SalaryMin, &j.SalaryMax, &salaryType, &j.SalaryMinHourly, &j.SalaryMaxHourly, &j.SalaryMinAnnual, &j.SalaryMaxAnnual,
		&j.Description, &reqs, &resp, &benefits, &dept,
		&j.EmployerName, &j.EmployerSlug, &j.CareerPageURL, &j.ATSPlatform,
		&j.PostedAt, &j.IsActive, &j.GoogleIndexedAt, &j.ClassifiedAt, &rejection, &j.ExpiredAt,
		&j.LastSeenAt, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return j, err
	}
	j.ZipCode = deref(zip)
	j.ShiftType = models.ShiftType(deref(shift))
	j.SalaryType = models.SalaryType(deref(salaryType))
	j.Requirements, j.Responsibilities, j.Benefits = deref(reqs), deref(resp), deref(benefits)
	j.Department, j.RejectionReason = deref(dept), deref(rejection)
	return j, nil
}

// whereClause turns a filter into SQL conditions with positional args.
func whereClause(f store.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.Active != nil {
		args = append(args, *f.Active)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if f.Submitted != nil {
		conds = append(conds, nullCond("google_indexed_at", *f.Submitted))
	}
	if f.Classified != nil {
		conds = append(conds, nullCond("classified_at", *f.Classified))
	}
	if f.Expired != nil {
		conds = append(conds, nullCond("expired_at", *f.Expired))
	}
	if f.EmployerSlug != "" {
		args = append(args, f.EmployerSlug)
		conds = append(conds, fmt.Sprintf("employer_slug = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func nullCond(col string, set bool) string {
	if set {
		return col + " IS NOT NULL"
	}
	return col + " IS NULL"
}

func (r *Repository) FindCandidates(ctx context.Context, f store.Filter) ([]models.NormalizedJob, error) {
	where, args := whereClause(f)
	query := "SELECT " + jobColumns + " FROM jobs" + where + " ORDER BY created_at, slug"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var out []models.NormalizedJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// upsertJob keeps lifecycle columns on conflict. A re-seen expired job goes
// back to the classifier. xmax = 0 only for freshly inserted rows.
const upsertJob = `
	INSERT INTO jobs (slug, source_job_id, source_url, title, city, state, zip_code,
		specialty, experience_level, job_type, shift_type,
		salary_min, salary_max, salary_type, salary_min_hourly, salary_max_hourly, salary_min_annual, salary_max_annual,
		description, requirements, responsibilities, benefits, department,
		employer_name, employer_slug, career_page_url, ats_platform, posted_at,
		last_seen_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		$19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $29, $29)
	ON CONFLICT (slug)
	DO UPDATE SET source_job_id = EXCLUDED.source_job_id, source_url = EXCLUDED.source_url,
		title = EXCLUDED.title, city = EXCLUDED.city, state = EXCLUDED.state, zip_code = EXCLUDED.zip_code,
		specialty = EXCLUDED.specialty, experience_level = EXCLUDED.experience_level,
		job_type = EXCLUDED.job_type, shift_type = EXCLUDED.shift_type,
		salary_min = EXCLUDED.salary_min, salary_max = EXCLUDED.salary_max, salary_type = EXCLUDED.salary_type,
		salary_min_hourly = EXCLUDED.salary_min_hourly, salary_max_hourly = EXCLUDED.salary_max_hourly,
		salary_min_annual = EXCLUDED.salary_min_annual, salary_max_annual = EXCLUDED.salary_max_annual,
		description = EXCLUDED.description, requirements = EXCLUDED.requirements,
		responsibilities = EXCLUDED.responsibilities, benefits = EXCLUDED.benefits, department = EXCLUDED.department,
		employer_name = EXCLUDED.employer_name, employer_slug = EXCLUDED.employer_slug,
		career_page_url = EXCLUDED.career_page_url, ats_platform = EXCLUDED.ats_platform, posted_at = EXCLUDED.posted_at,
		classified_at = CASE WHEN jobs.expired_at IS NULL THEN jobs.classified_at END,
		rejection_reason = CASE WHEN jobs.expired_at IS NULL THEN jobs.rejection_reason END,
		expired_at = NULL,
		last_seen_at = EXCLUDED.last_seen_at, updated_at = EXCLUDED.updated_at
	RETURNING (xmax = 0) AS inserted`

func (r *Repository) UpsertBatch(ctx context.Context, jobs []models.NormalizedJob) (store.UpsertResult, error) {
	var res store.UpsertResult
	if len(jobs) == 0 {
		return res, nil
	}
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	for _, j := range jobs {
		batch.Queue(upsertJob, j.Slug, j.SourceJobID, j.SourceURL, j.Title, j.City, j.State, nullable(j.ZipCode),
			j.Specialty, j.ExperienceLevel, string(j.JobType), nullable(string(j.ShiftType)),
			j.SalaryMin, j.SalaryMax, nullable(string(j.SalaryType)), j.SalaryMinHourly, j.SalaryMaxHourly, j.SalaryMinAnnual, j.SalaryMaxAnnual,
			j.Description, nullable(j.Requirements), nullable(j.Responsibilities), nullable(j.Benefits), nullable(j.Department),
			j.EmployerName, j.EmployerSlug, j.CareerPageURL, j.ATSPlatform, j.PostedAt, now)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for _, j := range jobs {
		var inserted bool
		if err := br.QueryRow().Scan(&inserted); err != nil {
			return res, fmt.Errorf("failed to upsert job %s: %w", j.Slug, err)
		}
		if inserted {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}

func (r *Repository) MarkSubmitted(ctx context.Context, ids []string, ts time.Time) error {
	_, err := r.db.Exec(ctx, "UPDATE jobs SET google_indexed_at = $1 WHERE id = ANY($2::uuid[])", ts, ids)
	if err != nil {
		return fmt.Errorf("failed to mark submitted: %w", err)
	}
	return nil
}

func (r *Repository) ClearSubmitted(ctx context.Context, ids []string) error {
	_, err := r.db.Exec(ctx, "UPDATE jobs SET google_indexed_at = NULL WHERE id = ANY($1::uuid[])", ids)
	if err != nil {
		return fmt.Errorf("failed to clear submitted: %w", err)
	}
	return nil
}

func (r *Repository) DeactivateMissing(ctx context.Context, employerSlug string, seen []string, ts time.Time) (int, error) {
	if seen == nil {
		seen = []string{}
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE jobs SET is_active = FALSE, expired_at = $1, updated_at = $1
		WHERE employer_slug = $2 AND expired_at IS NULL AND NOT (slug = ANY($3::text[]))`,
		ts, employerSlug, seen)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate missing jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *Repository) ApplyDecisions(ctx context.Context, decisions []models.Decision, ts time.Time) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, d := range decisions {
			var reason *string
			if !d.Approve {
				reason = &d.Reason
			}
			_, err := tx.Exec(ctx, `
				UPDATE jobs SET is_active = $1, classified_at = $2, rejection_reason = $3, updated_at = $2
				WHERE id = $4::uuid AND expired_at IS NULL`, d.Approve, ts, reason, d.JobID)
			if err != nil {
				return fmt.Errorf("failed to apply decision for %s: %w", d.JobID, err)
			}
		}
		return nil
	})
}

// ---------------- ANALYTICS ----------------

func (r *Repository) UpsertPageStats(ctx context.Context, stats []models.PageStat) (int, error) {
	if len(stats) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, s := range stats {
		batch.Queue(`
			INSERT INTO page_stats (url, date, clicks, impressions, avg_position)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (url, date)
			DO UPDATE SET clicks = EXCLUDED.clicks, impressions = EXCLUDED.impressions, avg_position = EXCLUDED.avg_position`,
			s.URL, s.Date.UTC().Format("2006-01-02"), s.Clicks, s.Impressions, s.AvgPosition)
	}
	br := r.db.SendBatch(ctx, batch)
	defer br.Close()
	for range stats {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("failed to upsert page stat: %w", err)
		}
	}
	return len(stats), nil
}

// ---------------- QUOTA ----------------

func (r *Repository) IndexingQuotaUsed(ctx context.Context, day time.Time) (int, error) {
	var used int
	err := r.db.QueryRow(ctx, "SELECT used FROM indexing_quota WHERE day = $1", day.UTC().Format("2006-01-02")).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read indexing quota: %w", err)
	}
	return used, nil
}

func (r *Repository) AddIndexingQuota(ctx context.Context, day time.Time, n int) error {
	if n == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO indexing_quota (day, used) VALUES ($1, $2)
		ON CONFLICT (day) DO UPDATE SET used = indexing_quota.used + EXCLUDED.used`,
		day.UTC().Format("2006-01-02"), n)
	if err != nil {
		return fmt.Errorf("failed to record indexing quota: %w", err)
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
