package extract

import (
	"regexp"
	"strconv"
	"strings"

	"job-ingest-go/internal/salary"
)

const isoCodes = `USD|EUR|GBP|CAD|AUD|NZD|CHF|SEK|NOK|DKK|SGD`

// moneyRe captures: 1 leading currency, 2 number, 3 k/m suffix, 4 trailing currency.
var moneyRe = regexp.MustCompile(`(?i)(US\$|CA\$|C\$|AU\$|A\$|NZ\$|S\$|\$|£|€|\b(?:` + isoCodes + `)\b|\bkr\.?)?\s?` +
	`(\d{1,3}(?:[,. \x{00A0}\x{202F}]\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)` +
	`\s?([km])?\b` +
	`(?:\s?(\b(?:` + isoCodes + `)\b|\bkr\b|€))?`)

type token struct {
	start, end int
	amount     float64
	scale      float64
	currency   string
}

func findTokens(s string) []token {
	var out []token
	for _, m := range moneyRe.FindAllStringSubmatchIndex(s, -1) {
		t := token{start: m[4], end: m[1]}
		if m[2] >= 0 {
			t.start = m[2]
			t.currency = s[m[2]:m[3]]
		}
		if m[8] >= 0 && !explicit(t.currency) {
			t.currency = s[m[8]:m[9]]
		}
		var suffix string
		if m[6] >= 0 {
			suffix = s[m[6]:m[7]]
		}
		amount, ok := parseAmount(s[m[4]:m[5]], "")
		if !ok {
			continue
		}
		t.scale = suffixScale(suffix)
		t.amount = amount * t.scale
		out = append(out, t)
	}
	return out
}

// parseAmount reads a number with optional thousands separators (comma, dot,
// space, NBSP) and an optional two-digit decimal part, scaled by a k/m suffix.
func parseAmount(num, suffix string) (float64, bool) {
	intPart, frac := num, ""
	if i := strings.LastIndexByte(num, '.'); i >= 0 && len(num)-i-1 <= 2 {
		intPart, frac = num[:i], num[i+1:]
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, intPart)
	if digits == "" {
		return 0, false
	}
	if frac != "" {
		digits += "." + frac
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, false
	}
	return v * suffixScale(suffix), true
}

func suffixScale(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "k":
		return 1_000
	case "m":
		return 1_000_000
	}
	return 1
}

// Hints carries what the collector knows about where the job is.
type Hints struct {
	CountryCode string
	Location    string
}

var dollarCountries = map[string]string{"US": "USD", "CA": "CAD", "AU": "AUD", "NZ": "NZD", "SG": "SGD"}

var dollarPlaces = []struct{ needle, code string }{
	{"new zealand", "NZD"}, {"auckland", "NZD"}, {"wellington", "NZD"},
	{"canada", "CAD"}, {"toronto", "CAD"}, {"vancouver", "CAD"}, {"montreal", "CAD"}, {"ontario", "CAD"},
	{"australia", "AUD"}, {"sydney", "AUD"}, {"melbourne", "AUD"}, {"brisbane", "AUD"},
	{"singapore", "SGD"},
}

var kronaCountries = map[string]string{"SE": "SEK", "NO": "NOK", "DK": "DKK"}

var kronaPlaces = []struct{ needle, code string }{
	{"sweden", "SEK"}, {"stockholm", "SEK"}, {"gothenburg", "SEK"},
	{"norway", "NOK"}, {"oslo", "NOK"}, {"bergen", "NOK"},
	{"denmark", "DKK"}, {"copenhagen", "DKK"}, {"aarhus", "DKK"},
}

// resolveCurrency maps a currency mark to an ISO code. Bare "$" and "kr" are
// ambiguous and resolved from the hints; those results are marked inferred.
func resolveCurrency(mark string, hints Hints) (code string, inferred, ok bool) {
	m := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(mark), "."))
	switch m {
	case "":
		return "", false, false
	case "$":
		return fromHints(hints, dollarCountries, dollarPlaces, "USD"), true, true
	case "KR":
		return fromHints(hints, kronaCountries, kronaPlaces, "SEK"), true, true
	}
	code, ok = salary.ResolveCurrency(m)
	return code, false, ok
}

func fromHints(h Hints, countries map[string]string, places []struct{ needle, code string }, fallback string) string {
	if code, ok := countries[strings.ToUpper(strings.TrimSpace(h.CountryCode))]; ok {
		return code
	}
	loc := strings.ToLower(h.Location)
	for _, p := range places {
		if strings.Contains(loc, p.needle) {
			return p.code
		}
	}
	return fallback
}

// explicit reports whether the mark names its currency without hints.
func explicit(mark string) bool {
	m := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(mark), "."))
	return m != "" && m != "$" && m != "KR"
}
