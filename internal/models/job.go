package models

import (
	"time"
)

// HoursPerYear converts between hourly and annual pay.
const HoursPerYear = 2080

type JobType string

const (
	JobTypeFullTime JobType = "full-time"
	JobTypePartTime JobType = "part-time"
	JobTypePRN      JobType = "prn"
	JobTypeContract JobType = "contract"
	JobTypeTravel   JobType = "travel"
	JobTypeRemote   JobType = "remote"
	JobTypeHybrid   JobType = "hybrid"
)

// Valid reports whether t is one of the known job types.
func (t JobType) Valid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypePRN, JobTypeContract, JobTypeTravel, JobTypeRemote, JobTypeHybrid:
		return true
	}
	return false
}

// ShiftType is empty when no shift could be determined.
type ShiftType string

const (
	ShiftDays     ShiftType = "days"
	ShiftNights   ShiftType = "nights"
	ShiftEvenings ShiftType = "evenings"
	ShiftRotating ShiftType = "rotating"
	ShiftVariable ShiftType = "variable"
)

func (s ShiftType) Valid() bool {
	switch s {
	case "", ShiftDays, ShiftNights, ShiftEvenings, ShiftRotating, ShiftVariable:
		return true
	}
	return false
}

// SalaryType records which pay unit was observed on the posting. The other
// unit is always derived.
type SalaryType string

const (
	SalaryHourly SalaryType = "hourly"
	SalaryAnnual SalaryType = "annual"
)

// JobListingCandidate is a card scraped from a listing page. It lives only
// until the detail page has been processed.
type JobListingCandidate struct {
	SourceJobID  string `json:"source_job_id"`
	Title        string `json:"title"`
	LocationText string `json:"location_text"`
	DetailURL    string `json:"detail_url"`
	RawCardText  string `json:"raw_card_text"`
}

// NormalizedJob is the canonical job record persisted by the store.
type NormalizedJob struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	SourceJobID string `json:"source_job_id"`
	SourceURL   string `json:"source_url"`
	Title       string `json:"title"`

	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code,omitempty"`

	Specialty       string    `json:"specialty"`
	ExperienceLevel string    `json:"experience_level"`
	JobType         JobType   `json:"job_type"`
	ShiftType       ShiftType `json:"shift_type,omitempty"`

	SalaryMin       *float64   `json:"salary_min,omitempty"`
	SalaryMax       *float64   `json:"salary_max,omitempty"`
	SalaryType      SalaryType `json:"salary_type,omitempty"`
	SalaryMinHourly *float64   `json:"salary_min_hourly,omitempty"`
	SalaryMaxHourly *float64   `json:"salary_max_hourly,omitempty"`
	SalaryMinAnnual *float64   `json:"salary_min_annual,omitempty"`
	SalaryMaxAnnual *float64   `json:"salary_max_annual,omitempty"`

	Description      string `json:"description"`
	Requirements     string `json:"requirements,omitempty"`
	Responsibilities string `json:"responsibilities,omitempty"`
	Benefits         string `json:"benefits,omitempty"`
	Department       string `json:"department,omitempty"`

	EmployerName  string `json:"employer_name"`
	EmployerSlug  string `json:"employer_slug"`
	CareerPageURL string `json:"career_page_url"`
	ATSPlatform   string `json:"ats_platform"`

	PostedAt *time.Time `json:"posted_at,omitempty"`

	IsActive        bool       `json:"is_active"`
	GoogleIndexedAt *time.Time `json:"google_indexed_at,omitempty"`
	ClassifiedAt    *time.Time `json:"classified_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ExpiredAt       *time.Time `json:"expired_at,omitempty"`
	LastSeenAt      time.Time  `json:"last_seen_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PageStat is one day of search analytics for a public job URL.
type PageStat struct {
	URL         string    `json:"url"`
	Date        time.Time `json:"date"`
	Clicks      int       `json:"clicks"`
	Impressions int       `json:"impressions"`
	AvgPosition float64   `json:"avg_position"`
}

// Decision is the classifier's verdict for one inactive job.
type Decision struct {
	JobID   string `json:"job_id"`
	Approve bool   `json:"approve"`
	// Reason is stored as the rejection reason when Approve is false.
	Reason string `json:"reason,omitempty"`
}
