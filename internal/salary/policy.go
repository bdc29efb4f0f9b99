package salary

import (
	"fmt"
	"strings"
)

// Policy is the validation configuration. It is passed to the Normalizer at
// construction and never mutated afterwards.
type Policy struct {
	// Thresholds maps ISO currency to the minimum qualifying annual figure.
	Thresholds map[string]int64
	// MaxPlausibleMultiple of the threshold above which any figure is rejected as too_high.
	MaxPlausibleMultiple float64
	// DescriptionCapMultiple of the threshold above which description-sourced figures are rejected.
	DescriptionCapMultiple float64
	// VeryHighMultiple of the threshold that sets the display-only IsVeryHighSalary flag.
	VeryHighMultiple float64
	MinConfidence    int
	// NearThresholdBand is the fraction above the threshold still penalized as borderline.
	NearThresholdBand float64
	// WideRangeRatio is the max/min ratio above which a range is penalized.
	WideRangeRatio float64
}

// DefaultThresholds is the "what counts as six figures" table in local currency.
func DefaultThresholds() map[string]int64 {
	return map[string]int64{
		"USD": 100_000,
		"EUR": 80_000,
		"GBP": 75_000,
		"CAD": 110_000,
		"AUD": 130_000,
		"NZD": 130_000,
		"CHF": 120_000,
		"SEK": 900_000,
		"NOK": 950_000,
		"DKK": 750_000,
		"SGD": 130_000,
	}
}

// DefaultPolicy returns the documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		Thresholds:             DefaultThresholds(),
		MaxPlausibleMultiple:   15,
		DescriptionCapMultiple: 6,
		VeryHighMultiple:       1.5,
		MinConfidence:          50,
		NearThresholdBand:      0.10,
		WideRangeRatio:         2.5,
	}
}

// Threshold returns the minimum qualifying figure for currency.
func (p Policy) Threshold(currency string) (int64, bool) {
	t, ok := p.Thresholds[strings.ToUpper(currency)]
	return t, ok && t > 0
}

// Validate checks the policy is internally consistent.
func (p Policy) Validate() error {
	if len(p.Thresholds) == 0 {
		return fmt.Errorf("salary policy: thresholds table is empty")
	}
	for code, t := range p.Thresholds {
		if _, ok := ResolveCurrency(code); !ok {
			return fmt.Errorf("salary policy: unsupported currency %q", code)
		}
		if t <= 0 {
			return fmt.Errorf("salary policy: threshold for %s must be positive", code)
		}
	}
	if p.DescriptionCapMultiple <= 0 || p.MaxPlausibleMultiple < p.DescriptionCapMultiple {
		return fmt.Errorf("salary policy: need 0 < description_cap_multiple <= max_plausible_multiple")
	}
	if p.VeryHighMultiple < 1 {
		return fmt.Errorf("salary policy: very_high_multiple must be >= 1")
	}
	if p.MinConfidence < 0 || p.MinConfidence > 100 {
		return fmt.Errorf("salary policy: min_confidence must be within 0..100")
	}
	return nil
}
