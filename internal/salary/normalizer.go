// Package salary annualizes parsed compensation and decides whether it can be
// published as a qualifying figure.
package salary

import (
	"math"
	"time"

	"job-ingest-go/internal/models"
)

// Confidence penalties.
const (
	penaltyDescription      = 30
	penaltySalaryRaw        = 10
	penaltyCurrencyInferred = 15
	penaltyIntervalDefault  = 10
	penaltyNearThreshold    = 15
	penaltyWideRange        = 10
)

// Input is a raw amount range plus its provenance.
type Input struct {
	Min               *float64
	Max               *float64
	CurrencyRaw       string
	IntervalRaw       string
	Source            models.SalarySource
	RawText           string
	CurrencyInferred  bool
	IntervalDefaulted bool
}

// Normalizer applies a Policy.
type Normalizer struct {
	policy Policy
	now    func() time.Time
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock overrides time.Now for NormalizedAt/RejectedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

func NewNormalizer(policy Policy, opts ...Option) *Normalizer {
	n := &Normalizer{policy: policy, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Policy returns the policy the normalizer was built with.
func (n *Normalizer) Policy() Policy { return n.policy }

// Normalize annualizes in and scores it. The returned salary is non-nil
// whenever at least one amount was present, including rejected figures, so
// the raw numbers stay available for audit.
func (n *Normalizer) Normalize(in Input) (*models.NormalizedSalary, models.SalaryValidation) {
	now := n.now().UTC()
	v := models.SalaryValidation{
		Source:       in.Source,
		RawText:      in.RawText,
		NormalizedAt: now,
	}
	reject := func(reason models.ValidationReason) {
		v.Validated = false
		v.Reason = reason
		v.RejectedAt = &now
	}

	interval, ok := ResolveInterval(in.IntervalRaw)
	intervalDefaulted := in.IntervalDefaulted
	if !ok {
		interval = models.IntervalYear
		intervalDefaulted = true
	}

	currency, currencyOK := ResolveCurrency(in.CurrencyRaw)
	threshold, thresholdOK := n.policy.Threshold(currency)

	if in.Min == nil && in.Max == nil {
		if !currencyOK || !thresholdOK {
			reject(models.ReasonUnknownCurrency)
		} else {
			reject(models.ReasonMissingAmount)
		}
		return nil, v
	}

	out := &models.NormalizedSalary{Interval: interval}
	if currencyOK && thresholdOK {
		out.Currency = currency
	}
	if in.Min != nil {
		a := Annualize(*in.Min, interval)
		out.MinAnnual = &a
	}
	if in.Max != nil {
		a := Annualize(*in.Max, interval)
		out.MaxAnnual = &a
	}

	if !currencyOK || !thresholdOK {
		reject(models.ReasonUnknownCurrency)
		return out, v
	}
	if !validAmount(in.Min) || !validAmount(in.Max) {
		reject(models.ReasonInvalidAmount)
		return out, v
	}
	if out.MinAnnual != nil && out.MaxAnnual != nil && *out.MinAnnual > *out.MaxAnnual {
		out.MinAnnual, out.MaxAnnual = out.MaxAnnual, out.MinAnnual
	}

	qualifying := qualifyingFigure(out)
	ceiling := func(multiple float64) float64 { return float64(threshold) * multiple }

	if float64(qualifying) > ceiling(n.policy.MaxPlausibleMultiple) {
		reject(models.ReasonTooHigh)
		return out, v
	}
	if in.Source == models.SalarySourceDescription && float64(qualifying) > ceiling(n.policy.DescriptionCapMultiple) {
		reject(models.ReasonCappedDescription)
		return out, v
	}
	if qualifying < threshold {
		reject(models.ReasonBelowThreshold)
		return out, v
	}

	v.Validated = true
	v.Reason = models.ReasonOK
	v.Confidence = n.confidence(in, out, threshold, qualifying, intervalDefaulted)
	out.IsHighSalary = v.Publishable(n.policy.MinConfidence)
	out.IsVeryHighSalary = out.IsHighSalary && float64(qualifying) >= ceiling(n.policy.VeryHighMultiple)
	return out, v
}

// validAmount accepts an absent bound or a finite positive one.
func validAmount(a *float64) bool {
	return a == nil || (*a > 0 && !math.IsInf(*a, 0))
}

func (n *Normalizer) confidence(in Input, out *models.NormalizedSalary, threshold, qualifying int64, intervalDefaulted bool) int {
	score := 100
	switch in.Source {
	case models.SalarySourceDescription:
		score -= penaltyDescription
	case models.SalarySourceSalaryRaw:
		score -= penaltySalaryRaw
	}
	if in.CurrencyInferred {
		score -= penaltyCurrencyInferred
	}
	if intervalDefaulted {
		score -= penaltyIntervalDefault
	}
	bandBP := int64(math.Round(n.policy.NearThresholdBand * 10_000))
	if qualifying*10_000 < threshold*(10_000+bandBP) {
		score -= penaltyNearThreshold
	}
	if out.MinAnnual != nil && out.MaxAnnual != nil && *out.MinAnnual > 0 &&
		float64(*out.MaxAnnual) > float64(*out.MinAnnual)*n.policy.WideRangeRatio {
		score -= penaltyWideRange
	}
	return max(0, min(100, score))
}

// qualifyingFigure is the annual max, falling back to the min.
func qualifyingFigure(s *models.NormalizedSalary) int64 {
	if s.MaxAnnual != nil {
		return *s.MaxAnnual
	}
	return *s.MinAnnual
}
