package salary

import (
	"math"
	"strings"

	"job-ingest-go/internal/models"
)

var intervalSynonyms = map[string]models.Interval{
	"year":      models.IntervalYear,
	"yearly":    models.IntervalYear,
	"yr":        models.IntervalYear,
	"annual":    models.IntervalYear,
	"annually":  models.IntervalYear,
	"annum":     models.IntervalYear,
	"per annum": models.IntervalYear,
	"pa":        models.IntervalYear,
	"p.a.":      models.IntervalYear,
	"p.a":       models.IntervalYear,
	"month":     models.IntervalMonth,
	"monthly":   models.IntervalMonth,
	"mo":        models.IntervalMonth,
	"mth":       models.IntervalMonth,
	"week":      models.IntervalWeek,
	"weekly":    models.IntervalWeek,
	"wk":        models.IntervalWeek,
	"day":       models.IntervalDay,
	"daily":     models.IntervalDay,
	"diem":      models.IntervalDay,
	"per diem":  models.IntervalDay,
	"hour":      models.IntervalHour,
	"hourly":    models.IntervalHour,
	"hr":        models.IntervalHour,
	"h":         models.IntervalHour,
}

// ResolveInterval maps a raw interval label to one of the five buckets.
func ResolveInterval(raw string) (models.Interval, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimPrefix(s, "per ")
	s = strings.TrimPrefix(s, "a ")
	s = strings.TrimPrefix(s, "an ")
	s = strings.TrimSuffix(s, "s")
	if s == "" {
		return "", false
	}
	if iv, ok := intervalSynonyms[s]; ok {
		return iv, true
	}
	return "", false
}

// Annualize multiplies amount by the interval factor and rounds to whole
// units. Results outside the int64 range saturate; NaN gives 0.
func Annualize(amount float64, iv models.Interval) int64 {
	f := iv.AnnualFactor()
	if f == 0 || math.IsNaN(amount) {
		return 0
	}
	v := amount * float64(f)
	switch {
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	if v < 0 {
		return int64(v - 0.5)
	}
	return int64(v + 0.5)
}
