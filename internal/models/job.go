package models

import (
	"strings"
	"time"
)

// RawCandidate is a collector's best-effort extraction of one posting.
type RawCandidate struct {
	Title             string     `json:"title" validate:"required"`
	CompanyNameRaw    string     `json:"company_name" validate:"required"`
	CompanyDomain     string     `json:"company_domain,omitempty"`
	LocationText      *string    `json:"location,omitempty"`
	CountryCodeHint   *string    `json:"country_code,omitempty"`
	DescriptionHTML   *string    `json:"description,omitempty"`
	SalaryMin         *float64   `json:"salary_min,omitempty"`
	SalaryMax         *float64   `json:"salary_max,omitempty"`
	SalaryCurrencyRaw *string    `json:"salary_currency,omitempty"`
	SalaryIntervalRaw *string    `json:"salary_interval,omitempty"`
	SalaryRaw         *string    `json:"salary_raw,omitempty"`
	SourceID          string     `json:"source_id" validate:"required"`
	SourceName        string     `json:"source"`
	SourceKind        SourceKind `json:"source_kind" validate:"omitempty,oneof=ats careers curated_board board generic"`
	ATSVendor         string     `json:"ats_vendor,omitempty"`
	URL               string     `json:"url"`
	ApplyURL          string     `json:"apply_url,omitempty"`
	FetchedAt         time.Time  `json:"fetched_at"`
}

// Location returns the location text or an empty string.
func (c RawCandidate) Location() string {
	if c.LocationText == nil {
		return ""
	}
	return *c.LocationText
}

// CountryCode returns the upper-cased two-letter country hint. Anything else
// is treated as no hint.
func (c RawCandidate) CountryCode() string {
	if c.CountryCodeHint == nil {
		return ""
	}
	code := strings.ToUpper(strings.TrimSpace(*c.CountryCodeHint))
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return ""
	}
	return code
}

// Description returns the description markup or an empty string.
func (c RawCandidate) Description() string {
	if c.DescriptionHTML == nil {
		return ""
	}
	return *c.DescriptionHTML
}

// SourceKind classifies where a posting came from. It drives source priority.
type SourceKind string

const (
	SourceKindATS          SourceKind = "ats"
	SourceKindCareers      SourceKind = "careers"
	SourceKindCuratedBoard SourceKind = "curated_board"
	SourceKindBoard        SourceKind = "board"
	SourceKindGeneric      SourceKind = "generic"
)

// IsBoard reports whether the kind is one of the third-party board kinds.
func (k SourceKind) IsBoard() bool {
	switch k {
	case SourceKindCuratedBoard, SourceKindBoard, SourceKindGeneric:
		return true
	}
	return false
}

// Company is shared by many resolved jobs and never deleted by ingestion.
type Company struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	Domain         string    `json:"domain,omitempty" db:"domain"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ResolvedJob is the persisted, deduplicated posting.
type ResolvedJob struct {
	ID              string            `json:"id"`
	DedupeKey       string            `json:"dedupe_key"`
	CompanyID       string            `json:"company_id"`
	Title           string            `json:"title"`
	TitleSlug       string            `json:"title_slug,omitempty"`
	Seniority       string            `json:"seniority"`
	Discipline      string            `json:"discipline"`
	IsPeopleManager bool              `json:"is_people_manager"`
	LocationText    string            `json:"location,omitempty"`
	CountryCode     string            `json:"country_code,omitempty"`
	Description     string            `json:"description,omitempty"`
	URL             string            `json:"url"`
	ApplyURL        string            `json:"apply_url,omitempty"`
	SourceID        string            `json:"source_id"`
	SourceName      string            `json:"source"`
	SourcePriority  int               `json:"source_priority"`
	Salary          *NormalizedSalary `json:"salary,omitempty"`
	Validation      SalaryValidation  `json:"salary_validation"`
	ContentHash     string            `json:"content_hash"`
	FirstSeenAt     time.Time         `json:"first_seen_at"`
	LastSeenAt      time.Time         `json:"last_seen_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	IsExpired       bool              `json:"is_expired"`
}

// Outcome is the resolver's verdict for one candidate.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
)

// Decision is what the resolver returns for a single candidate.
type Decision struct {
	Outcome   Outcome          `json:"outcome"`
	JobID     string           `json:"job_id"`
	CompanyID string           `json:"company_id"`
	DedupeKey string           `json:"dedupe_key"`
	Reason    ValidationReason `json:"salary_reason,omitempty"`
}
