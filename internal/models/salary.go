package models

import "time"

// Interval is one of the five pay-period buckets.
type Interval string

const (
	IntervalYear  Interval = "year"
	IntervalMonth Interval = "month"
	IntervalWeek  Interval = "week"
	IntervalDay   Interval = "day"
	IntervalHour  Interval = "hour"
)

// AnnualFactor is the fixed multiplier that turns one unit of the interval into a year.
func (i Interval) AnnualFactor() int64 {
	switch i {
	case IntervalHour:
		return 2080
	case IntervalDay:
		return 260
	case IntervalWeek:
		return 52
	case IntervalMonth:
		return 12
	case IntervalYear:
		return 1
	}
	return 0
}

// SalarySource is the provenance of a parsed salary, ordered by trust.
type SalarySource string

const (
	SalarySourceATS         SalarySource = "ats"
	SalarySourceSalaryRaw   SalarySource = "salaryRaw"
	SalarySourceDescription SalarySource = "descriptionText"
	SalarySourceNone        SalarySource = "none"
)

// ValidationReason is the closed set of validation outcomes.
type ValidationReason string

const (
	ReasonOK                ValidationReason = "ok"
	ReasonUnknownCurrency   ValidationReason = "unknown_currency"
	ReasonMissingAmount     ValidationReason = "missing_amount"
	ReasonInvalidAmount     ValidationReason = "invalid_amount"
	ReasonTooHigh           ValidationReason = "too_high"
	ReasonCappedDescription ValidationReason = "capped_description"
	ReasonBelowThreshold    ValidationReason = "below_threshold"
)

// NormalizedSalary is an annualized range in local currency.
type NormalizedSalary struct {
	MinAnnual        *int64   `json:"min_annual,omitempty"`
	MaxAnnual        *int64   `json:"max_annual,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	Interval         Interval `json:"interval"`
	IsHighSalary     bool     `json:"is_high_salary"`
	IsVeryHighSalary bool     `json:"is_very_high_salary"`
}

// SalaryValidation is the verdict attached to a NormalizedSalary.
type SalaryValidation struct {
	Validated    bool             `json:"validated"`
	Confidence   int              `json:"confidence"`
	Source       SalarySource     `json:"source"`
	Reason       ValidationReason `json:"reason"`
	RawText      string           `json:"raw_text,omitempty"`
	NormalizedAt time.Time        `json:"normalized_at"`
	RejectedAt   *time.Time       `json:"rejected_at,omitempty"`
}

// Publishable reports whether the salary may be shown as a qualifying role.
func (v SalaryValidation) Publishable(minConfidence int) bool {
	return v.Validated && v.Confidence >= minConfidence
}
