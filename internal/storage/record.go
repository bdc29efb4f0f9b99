package storage

import (
	"time"

	"job-ingest-go/internal/models"
)

// JobRecord is the flat row shape shared by the SQL and PostgREST backends.
type JobRecord struct {
	ID              string     `db:"id" json:"id"`
	DedupeKey       string     `db:"dedupe_key" json:"dedupe_key"`
	CompanyID       string     `db:"company_id" json:"company_id"`
	Title           string     `db:"title" json:"title"`
	TitleSlug       string     `db:"title_slug" json:"title_slug"`
	Seniority       string     `db:"seniority" json:"seniority"`
	Discipline      string     `db:"discipline" json:"discipline"`
	IsPeopleManager bool       `db:"is_people_manager" json:"is_people_manager"`
	LocationText    string     `db:"location_text" json:"location_text"`
	CountryCode     string     `db:"country_code" json:"country_code"`
	Description     string     `db:"description" json:"description"`
	URL             string     `db:"url" json:"url"`
	ApplyURL        string     `db:"apply_url" json:"apply_url"`
	SourceID        string     `db:"source_id" json:"source_id"`
	SourceName      string     `db:"source_name" json:"source_name"`
	SourcePriority  int        `db:"source_priority" json:"source_priority"`
	SalaryMin       *int64     `db:"salary_min_annual" json:"salary_min_annual"`
	SalaryMax       *int64     `db:"salary_max_annual" json:"salary_max_annual"`
	SalaryCurrency  *string    `db:"salary_currency" json:"salary_currency"`
	SalaryInterval  *string    `db:"salary_interval" json:"salary_interval"`
	IsHighSalary    bool       `db:"is_high_salary" json:"is_high_salary"`
	IsVeryHigh      bool       `db:"is_very_high_salary" json:"is_very_high_salary"`
	Validated       bool       `db:"salary_validated" json:"salary_validated"`
	Confidence      int        `db:"salary_confidence" json:"salary_confidence"`
	SalarySource    string     `db:"salary_source" json:"salary_source"`
	SalaryReason    string     `db:"salary_reason" json:"salary_reason"`
	SalaryRawText   string     `db:"salary_raw_text" json:"salary_raw_text"`
	NormalizedAt    *time.Time `db:"salary_normalized_at" json:"salary_normalized_at"`
	RejectedAt      *time.Time `db:"salary_rejected_at" json:"salary_rejected_at"`
	ContentHash     string     `db:"content_hash" json:"content_hash"`
	FirstSeenAt     time.Time  `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt      time.Time  `db:"last_seen_at" json:"last_seen_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	IsExpired       bool       `db:"is_expired" json:"is_expired"`
}

// JobColumns is the column list matching JobRecord, in declaration order.
var JobColumns = []string{
	"id", "dedupe_key", "company_id", "title", "title_slug", "seniority", "discipline",
	"is_people_manager", "location_text", "country_code", "description", "url", "apply_url",
	"source_id", "source_name", "source_priority", "salary_min_annual", "salary_max_annual",
	"salary_currency", "salary_interval", "is_high_salary", "is_very_high_salary",
	"salary_validated", "salary_confidence", "salary_source", "salary_reason", "salary_raw_text",
	"salary_normalized_at", "salary_rejected_at", "content_hash", "first_seen_at",
	"last_seen_at", "updated_at", "is_expired",
}

// RecordFromJob flattens j.
func RecordFromJob(j *models.ResolvedJob) JobRecord {
	r := JobRecord{
		ID:              j.ID,
		DedupeKey:       j.DedupeKey,
		CompanyID:       j.CompanyID,
		Title:           j.Title,
		TitleSlug:       j.TitleSlug,
		Seniority:       j.Seniority,
		Discipline:      j.Discipline,
		IsPeopleManager: j.IsPeopleManager,
		LocationText:    j.LocationText,
		CountryCode:     j.CountryCode,
		Description:     j.Description,
		URL:             j.URL,
		ApplyURL:        j.ApplyURL,
		SourceID:        j.SourceID,
		SourceName:      j.SourceName,
		SourcePriority:  j.SourcePriority,
		Validated:       j.Validation.Validated,
		Confidence:      j.Validation.Confidence,
		SalarySource:    string(j.Validation.Source),
		SalaryReason:    string(j.Validation.Reason),
		SalaryRawText:   j.Validation.RawText,
		RejectedAt:      j.Validation.RejectedAt,
		ContentHash:     j.ContentHash,
		FirstSeenAt:     j.FirstSeenAt,
		LastSeenAt:      j.LastSeenAt,
		UpdatedAt:       j.UpdatedAt,
		IsExpired:       j.IsExpired,
	}
	if !j.Validation.NormalizedAt.IsZero() {
		t := j.Validation.NormalizedAt
		r.NormalizedAt = &t
	}
	if s := j.Salary; s != nil {
		r.SalaryMin = s.MinAnnual
		r.SalaryMax = s.MaxAnnual
		if s.Currency != "" {
			c := s.Currency
			r.SalaryCurrency = &c
		}
		iv := string(s.Interval)
		r.SalaryInterval = &iv
		r.IsHighSalary = s.IsHighSalary
		r.IsVeryHigh = s.IsVeryHighSalary
	}
	return r
}

// Job rebuilds the domain value.
func (r JobRecord) Job() *models.ResolvedJob {
	j := &models.ResolvedJob{
		ID:              r.ID,
		DedupeKey:       r.DedupeKey,
		CompanyID:       r.CompanyID,
		Title:           r.Title,
		TitleSlug:       r.TitleSlug,
		Seniority:       r.Seniority,
		Discipline:      r.Discipline,
		IsPeopleManager: r.IsPeopleManager,
		LocationText:    r.LocationText,
		CountryCode:     r.CountryCode,
		Description:     r.Description,
		URL:             r.URL,
		ApplyURL:        r.ApplyURL,
		SourceID:        r.SourceID,
		SourceName:      r.SourceName,
		SourcePriority:  r.SourcePriority,
		Validation: models.SalaryValidation{
			Validated:  r.Validated,
			Confidence: r.Confidence,
			Source:     models.SalarySource(r.SalarySource),
			Reason:     models.ValidationReason(r.SalaryReason),
			RawText:    r.SalaryRawText,
			RejectedAt: r.RejectedAt,
		},
		ContentHash: r.ContentHash,
		FirstSeenAt: r.FirstSeenAt,
		LastSeenAt:  r.LastSeenAt,
		UpdatedAt:   r.UpdatedAt,
		IsExpired:   r.IsExpired,
	}
	if r.NormalizedAt != nil {
		j.Validation.NormalizedAt = *r.NormalizedAt
	}
	if r.SalaryInterval != nil {
		s := &models.NormalizedSalary{
			MinAnnual:        r.SalaryMin,
			MaxAnnual:        r.SalaryMax,
			Interval:         models.Interval(*r.SalaryInterval),
			IsHighSalary:     r.IsHighSalary,
			IsVeryHighSalary: r.IsVeryHigh,
		}
		if r.SalaryCurrency != nil {
			s.Currency = *r.SalaryCurrency
		}
		j.Salary = s
	}
	return j
}
