package salary_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ingest-go/internal/models"
	"job-ingest-go/internal/salary"
	"job-ingest-go/internal/salary/extract"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newNormalizer() *salary.Normalizer {
	return salary.NewNormalizer(salary.DefaultPolicy(), salary.WithClock(func() time.Time { return fixedNow }))
}

func f(v float64) *float64 { return &v }

func TestAnnualizeFactors(t *testing.T) {
	factors := map[models.Interval]int64{
		models.IntervalHour:  2080,
		models.IntervalDay:   260,
		models.IntervalWeek:  52,
		models.IntervalMonth: 12,
		models.IntervalYear:  1,
	}
	for iv, factor := range factors {
		for _, amount := range []int64{1, 17, 250, 9_000, 123_456} {
			assert.Equal(t, amount*factor, salary.Annualize(float64(amount), iv), "%d per %s", amount, iv)
		}
	}
}

func TestAnnualizeSaturates(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), salary.Annualize(5e15, models.IntervalHour))
	assert.Equal(t, int64(math.MaxInt64), salary.Annualize(1e20, models.IntervalYear))
	assert.Equal(t, int64(math.MaxInt64), salary.Annualize(math.Inf(1), models.IntervalYear))
	assert.Equal(t, int64(math.MinInt64), salary.Annualize(-1e20, models.IntervalYear))
	assert.Zero(t, salary.Annualize(math.NaN(), models.IntervalYear))
}

func TestResolveInterval(t *testing.T) {
	cases := map[string]models.Interval{
		"hourly":    models.IntervalHour,
		"/hr":       models.IntervalHour,
		"per hour":  models.IntervalHour,
		"Per Annum": models.IntervalYear,
		"yearly":    models.IntervalYear,
		"a year":    models.IntervalYear,
		"monthly":   models.IntervalMonth,
		"weeks":     models.IntervalWeek,
		"per day":   models.IntervalDay,
	}
	for raw, want := range cases {
		got, ok := salary.ResolveInterval(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := salary.ResolveInterval("fortnightly")
	assert.False(t, ok)
}

func TestResolveCurrency(t *testing.T) {
	cases := map[string]string{
		"usd": "USD", "$": "USD", "US$": "USD", "A$": "AUD", "C$": "CAD",
		"NZ$": "NZD", "S$": "SGD", "£": "GBP", "€": "EUR", " sek ": "SEK",
	}
	for raw, want := range cases {
		got, ok := salary.ResolveCurrency(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got)
	}
	for _, raw := range []string{"", "JPY", "BTC", "dollars?"} {
		_, ok := salary.ResolveCurrency(raw)
		assert.False(t, ok, raw)
	}
}

func TestNormalizeHourlyRangeBelowThreshold(t *testing.T) {
	n := newNormalizer()
	out, v := n.Normalize(salary.Input{
		Min: f(22), Max: f(25), CurrencyRaw: "$", IntervalRaw: "hour",
		Source: models.SalarySourceDescription, CurrencyInferred: true,
	})
	require.NotNil(t, out)
	assert.EqualValues(t, 45_760, *out.MinAnnual)
	assert.EqualValues(t, 52_000, *out.MaxAnnual)
	assert.Equal(t, "USD", out.Currency)
	assert.False(t, v.Validated)
	assert.Equal(t, models.ReasonBelowThreshold, v.Reason)
	require.NotNil(t, v.RejectedAt)
	assert.Equal(t, fixedNow, *v.RejectedAt)
}

func TestNormalizeAnnualRangeFromDescription(t *testing.T) {
	n := newNormalizer()
	out, v := n.Normalize(salary.Input{
		Min: f(124_000), Max: f(187_000), CurrencyRaw: "USD", IntervalRaw: "year",
		Source: models.SalarySourceDescription, CurrencyInferred: true,
	})
	assert.EqualValues(t, 124_000, *out.MinAnnual)
	assert.EqualValues(t, 187_000, *out.MaxAnnual)
	assert.True(t, v.Validated)
	assert.Equal(t, models.ReasonOK, v.Reason)
	assert.Equal(t, 55, v.Confidence)
	assert.True(t, out.IsHighSalary)
	assert.True(t, out.IsVeryHighSalary)
	assert.Nil(t, v.RejectedAt)
}

func TestNormalizeHourlySalaryRawPassesCap(t *testing.T) {
	n := newNormalizer()
	out, v := n.Normalize(salary.Input{
		Min: f(150), Max: f(150), CurrencyRaw: "USD", IntervalRaw: "hour",
		Source: models.SalarySourceSalaryRaw,
	})
	assert.EqualValues(t, 312_000, *out.MinAnnual)
	assert.EqualValues(t, 312_000, *out.MaxAnnual)
	assert.True(t, v.Validated)
	assert.Equal(t, 90, v.Confidence)
	assert.True(t, out.IsVeryHighSalary)
}

func TestThresholdMonotonicity(t *testing.T) {
	n := newNormalizer()
	policy := salary.DefaultPolicy()
	inputs := map[string]func(currency string, amount float64) salary.Input{
		"ats": func(currency string, amount float64) salary.Input {
			return salary.Input{Max: &amount, CurrencyRaw: currency, IntervalRaw: "year", Source: models.SalarySourceATS}
		},
		"description with inferred currency": func(currency string, amount float64) salary.Input {
			return salary.Input{Max: &amount, CurrencyRaw: currency, IntervalRaw: "year", Source: models.SalarySourceDescription, CurrencyInferred: true}
		},
	}
	for name, input := range inputs {
		for currency, threshold := range policy.Thresholds {
			_, below := n.Normalize(input(currency, float64(threshold-1)))
			assert.False(t, below.Validated, "%s %s", name, currency)
			assert.Equal(t, models.ReasonBelowThreshold, below.Reason, "%s %s", name, currency)

			for _, amount := range []int64{threshold, threshold + threshold/20, threshold + threshold/10, threshold * 2} {
				_, v := n.Normalize(input(currency, float64(amount)))
				assert.True(t, v.Validated, "%s %s %d", name, currency, amount)
				assert.Equal(t, models.ReasonOK, v.Reason, "%s %s %d", name, currency, amount)
				assert.Nil(t, v.RejectedAt, "%s %s %d", name, currency, amount)
			}
		}
	}
}

func TestDescriptionCapOnlyAppliesToDescription(t *testing.T) {
	n := newNormalizer()
	in := salary.Input{Min: f(650_000), Max: f(700_000), CurrencyRaw: "USD", IntervalRaw: "year"}

	in.Source = models.SalarySourceDescription
	_, v := n.Normalize(in)
	assert.Equal(t, models.ReasonCappedDescription, v.Reason)

	in.Source = models.SalarySourceATS
	_, v = n.Normalize(in)
	assert.True(t, v.Validated)
	assert.Equal(t, models.ReasonOK, v.Reason)
}

func TestRejections(t *testing.T) {
	n := newNormalizer()
	tests := []struct {
		name string
		in   salary.Input
		want models.ValidationReason
	}{
		{"unknown currency", salary.Input{Max: f(200_000), CurrencyRaw: "JPY"}, models.ReasonUnknownCurrency},
		{"missing currency", salary.Input{Max: f(200_000)}, models.ReasonUnknownCurrency},
		{"missing amount", salary.Input{CurrencyRaw: "USD"}, models.ReasonMissingAmount},
		{"zero amount", salary.Input{Min: f(0), Max: f(150_000), CurrencyRaw: "USD"}, models.ReasonInvalidAmount},
		{"negative amount", salary.Input{Max: f(-5), CurrencyRaw: "USD"}, models.ReasonInvalidAmount},
		{"phone number", salary.Input{Max: f(5_551_234_567), CurrencyRaw: "USD", Source: models.SalarySourceATS}, models.ReasonTooHigh},
		{"overflowing hourly amount", salary.Input{Max: f(5e15), CurrencyRaw: "USD", IntervalRaw: "hour", Source: models.SalarySourceATS}, models.ReasonTooHigh},
		{"infinite amount", salary.Input{Max: f(math.Inf(1)), CurrencyRaw: "USD", Source: models.SalarySourceATS}, models.ReasonInvalidAmount},
		{"nan amount", salary.Input{Max: f(math.NaN()), CurrencyRaw: "USD", Source: models.SalarySourceATS}, models.ReasonInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, v := n.Normalize(tt.in)
			assert.False(t, v.Validated)
			assert.Equal(t, tt.want, v.Reason)
			assert.NotNil(t, v.RejectedAt)
		})
	}
}

func TestReversedRangeIsSwapped(t *testing.T) {
	out, v := newNormalizer().Normalize(salary.Input{
		Min: f(180_000), Max: f(140_000), CurrencyRaw: "GBP", IntervalRaw: "year", Source: models.SalarySourceATS,
	})
	assert.EqualValues(t, 140_000, *out.MinAnnual)
	assert.EqualValues(t, 180_000, *out.MaxAnnual)
	assert.True(t, v.Validated)
}

func TestConfidencePenalties(t *testing.T) {
	n := newNormalizer()

	// near threshold (within 10%) and interval defaulted
	_, v := n.Normalize(salary.Input{Max: f(105_000), CurrencyRaw: "USD", Source: models.SalarySourceATS})
	assert.Equal(t, 75, v.Confidence)
	assert.True(t, v.Validated)

	// wide range
	_, v = n.Normalize(salary.Input{Min: f(50_000), Max: f(200_000), CurrencyRaw: "USD", IntervalRaw: "year", Source: models.SalarySourceATS})
	assert.Equal(t, 90, v.Confidence)

	// low confidence stays validated but is not publishable
	out, v := n.Normalize(salary.Input{Max: f(105_000), CurrencyRaw: "$", Source: models.SalarySourceDescription, CurrencyInferred: true})
	assert.Equal(t, 30, v.Confidence)
	assert.True(t, v.Validated)
	assert.Equal(t, models.ReasonOK, v.Reason)
	assert.Nil(t, v.RejectedAt)
	assert.False(t, v.Publishable(50))
	assert.False(t, out.IsHighSalary)
	assert.False(t, out.IsVeryHighSalary)
}

func TestNearThresholdBandBoundary(t *testing.T) {
	n := newNormalizer()

	_, v := n.Normalize(salary.Input{Max: f(109_999), CurrencyRaw: "USD", IntervalRaw: "year", Source: models.SalarySourceATS})
	assert.Equal(t, 85, v.Confidence)

	_, v = n.Normalize(salary.Input{Max: f(110_000), CurrencyRaw: "USD", IntervalRaw: "year", Source: models.SalarySourceATS})
	assert.Equal(t, 100, v.Confidence)
}

func TestExtractedOverflowIsTooHigh(t *testing.T) {
	text := "Salary: $99999999999999999999 per year"
	c := extract.ParseText(text, extract.Hints{})
	require.NotNil(t, c)

	out, v := newNormalizer().Normalize(c.Input(models.SalarySourceSalaryRaw, text))
	assert.False(t, v.Validated)
	assert.Equal(t, models.ReasonTooHigh, v.Reason)
	require.NotNil(t, out.MaxAnnual)
	assert.Equal(t, int64(math.MaxInt64), *out.MaxAnnual)
	assert.Equal(t, int64(math.MaxInt64), *out.MinAnnual)
}

func TestPolicyFromConfigTable(t *testing.T) {
	policy := salary.DefaultPolicy()
	policy.Thresholds = map[string]int64{"USD": 150_000}
	n := salary.NewNormalizer(policy)

	_, v := n.Normalize(salary.Input{Max: f(140_000), CurrencyRaw: "USD", IntervalRaw: "year", Source: models.SalarySourceATS})
	assert.Equal(t, models.ReasonBelowThreshold, v.Reason)

	_, v = n.Normalize(salary.Input{Max: f(140_000), CurrencyRaw: "EUR", IntervalRaw: "year", Source: models.SalarySourceATS})
	assert.Equal(t, models.ReasonUnknownCurrency, v.Reason)
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, salary.DefaultPolicy().Validate())

	p := salary.DefaultPolicy()
	p.Thresholds = map[string]int64{"XYZ": 10}
	assert.Error(t, p.Validate())

	p = salary.DefaultPolicy()
	p.MaxPlausibleMultiple = 2
	assert.Error(t, p.Validate())
}
