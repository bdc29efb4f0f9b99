package extract

import (
	"regexp"
	"sort"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"job-ingest-go/internal/models"
	"job-ingest-go/internal/salary"
)

// Strategy names the matcher that produced a candidate. Declaration order is
// the tie-break preference.
type Strategy string

const (
	StrategyRangeKeyword  Strategy = "range_keyword"
	StrategyRangeSymbol   Strategy = "range_symbol"
	StrategySingleKeyword Strategy = "single_keyword"
	StrategySingleSymbol  Strategy = "single_symbol"
)

var strategyRank = map[Strategy]int{
	StrategyRangeKeyword:  0,
	StrategyRangeSymbol:   1,
	StrategySingleKeyword: 2,
	StrategySingleSymbol:  3,
}

const (
	scoreKeyword   = 2
	scoreHighTrust = 4
	scoreNonBase   = -4

	keywordLookback = 60
	contextRadius   = 80
	intervalReach   = 25

	// minAnnualWithoutInterval is the smallest figure read as annual when no
	// interval is stated next to it.
	minAnnualWithoutInterval = 10_000
)

var (
	keywordRe   = regexp.MustCompile(`(?i)\b(?:salary|salaries|pay|compensation|wage|wages|rate|earn|earnings|base|ote|remuneration|range)\b`)
	highTrustRe = regexp.MustCompile(`(?i)\b(?:base salary|pay range|salary range|base pay)\b`)
	connectorRe = regexp.MustCompile(`(?i)^\s*(?:-|–|—|to|and)\s*$`)
	betweenRe   = regexp.MustCompile(`(?i)\bbetween\s*$`)

	// intervalAfterRe must match right after the money token.
	intervalAfterRe = regexp.MustCompile(`(?i)^\s*(?:/\s*|per\s+|an?\s+|each\s+)?(?:(hours?|hrs?|hourly|h|years?|yrs?|yearly|annum|annually|annual|months?|monthly|mos?|mths?|weeks?|weekly|wks?|days?|daily|diem)\b|(p\.a\.?))`)
	// intervalBeforeRe must end right before the money token, as in "hourly rate: $45".
	intervalBeforeRe = regexp.MustCompile(`(?i)\b(hourly|daily|weekly|monthly|annual|yearly)\s+(?:base\s+)?(?:rate|salary|pay|wage|compensation)s?\s*(?:is|of)?\s*:?\s*(?:from\s+|between\s+)?$`)

	nonBaseTerms   = []string{"equity", "bonus", "signing", "commission", "stock", "rsu"}
	nonBaseMatcher = ahocorasick.NewStringMatcher(nonBaseTerms)
)

// match is a scored candidate before the winner is picked.
type match struct {
	Candidate
	magnitude float64
}

// scoreOf is pure: the score depends only on the anchor flags.
func scoreOf(keyword, highTrust, nonBase bool) int {
	s := 0
	if keyword {
		s += scoreKeyword
	}
	if highTrust {
		s += scoreHighTrust
	}
	if nonBase {
		s += scoreNonBase
	}
	return s
}

// scan runs every strategy over text and returns the competing candidates.
// defaultAnchor, when set, stands in for a keyword anchor (used for
// fragments that are salary blocks by construction).
func scan(text string, hints Hints, defaultAnchor string) []match {
	tokens := findTokens(text)
	consumed := make([]bool, len(tokens))
	var out []match

	for i := 0; i+1 < len(tokens); i++ {
		a, b := tokens[i], tokens[i+1]
		gap := text[a.end:b.start]
		if !connectorRe.MatchString(gap) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(gap), "and") && !betweenRe.MatchString(window(text, a.start-12, a.start)) {
			continue
		}
		if a.currency == "" && b.currency == "" {
			continue
		}
		inheritSuffix(&a, &b)
		mark := b.currency
		if explicit(a.currency) || mark == "" {
			mark = a.currency
		}
		iv, ok := intervalAfter(text, b.end)
		if !ok {
			iv, ok = intervalAfter(text, a.end)
		}
		if !ok {
			iv, ok = intervalBefore(text, a.start)
		}
		if m, ok := build(text, hints, defaultAnchor, a.start, b.end, a.amount, b.amount, mark, iv, ok, true); ok {
			out = append(out, m)
			consumed[i], consumed[i+1] = true, true
			i++
		}
	}

	for i, t := range tokens {
		if consumed[i] || t.currency == "" {
			continue
		}
		iv, ok := intervalAfter(text, t.end)
		if !ok {
			iv, ok = intervalBefore(text, t.start)
		}
		if m, ok := build(text, hints, defaultAnchor, t.start, t.end, t.amount, t.amount, t.currency, iv, ok, false); ok {
			out = append(out, m)
		}
	}
	return out
}

// inheritSuffix lets "$120-150k" read both halves in thousands.
func inheritSuffix(a, b *token) {
	switch {
	case b.scale > 1 && a.scale == 1 && a.amount < 1_000:
		a.amount *= b.scale
	case a.scale > 1 && b.scale == 1 && b.amount < 1_000:
		b.amount *= a.scale
	}
}

func build(text string, hints Hints, defaultAnchor string, start, end int, lo, hi float64, mark string, iv models.Interval, haveInterval, isRange bool) (match, bool) {
	if lo <= 0 || hi <= 0 {
		return match{}, false
	}
	code, inferred, ok := resolveCurrency(mark, hints)
	if !ok {
		return match{}, false
	}
	defaulted := false
	if !haveInterval {
		if max(lo, hi) < minAnnualWithoutInterval {
			return match{}, false
		}
		iv, defaulted = models.IntervalYear, true
	}

	lookback := window(text, start-keywordLookback, start)
	keyword := keywordRe.MatchString(lookback)
	highTrust := highTrustRe.MatchString(lookback)
	if !keyword && defaultAnchor != "" {
		keyword = true
		highTrust = highTrustRe.MatchString(defaultAnchor)
	}
	around := strings.ToLower(window(text, start-contextRadius, end+contextRadius))
	nonBase := len(nonBaseMatcher.MatchThreadSafe([]byte(around))) > 0

	strategy := StrategySingleSymbol
	switch {
	case isRange && keyword:
		strategy = StrategyRangeKeyword
	case isRange:
		strategy = StrategyRangeSymbol
	case keyword:
		strategy = StrategySingleKeyword
	}

	return match{
		Candidate: Candidate{
			Min:               lo,
			Max:               hi,
			Currency:          code,
			CurrencyInferred:  inferred,
			Interval:          iv,
			IntervalDefaulted: defaulted,
			Strategy:          strategy,
			Score:             scoreOf(keyword, highTrust, nonBase),
			Text:              strings.TrimSpace(text[start:end]),
		},
		magnitude: max(lo, hi) * float64(iv.AnnualFactor()),
	}, true
}

func intervalAfter(text string, end int) (models.Interval, bool) {
	m := intervalAfterRe.FindStringSubmatch(window(text, end, end+intervalReach))
	if m == nil {
		return "", false
	}
	word := m[1]
	if word == "" {
		word = m[2]
	}
	return salary.ResolveInterval(word)
}

func intervalBefore(text string, start int) (models.Interval, bool) {
	m := intervalBeforeRe.FindStringSubmatch(window(text, start-40, start))
	if m == nil {
		return "", false
	}
	return salary.ResolveInterval(m[1])
}

// best picks the winner: score, then annual magnitude, then strategy order.
func best(ms []match) *Candidate {
	if len(ms) == 0 {
		return nil
	}
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Score != ms[j].Score {
			return ms[i].Score > ms[j].Score
		}
		if ms[i].magnitude != ms[j].magnitude {
			return ms[i].magnitude > ms[j].magnitude
		}
		return strategyRank[ms[i].Strategy] < strategyRank[ms[j].Strategy]
	})
	c := ms[0].Candidate
	return &c
}
