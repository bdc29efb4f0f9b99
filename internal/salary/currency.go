package salary

import "strings"

// Supported ISO codes. Amounts are never converted between them.
var SupportedCurrencies = []string{"USD", "EUR", "GBP", "CAD", "AUD", "NZD", "CHF", "SEK", "NOK", "DKK", "SGD"}

var currencySynonyms = map[string]string{
	"$":     "USD",
	"US$":   "USD",
	"USD$":  "USD",
	"US":    "USD",
	"C$":    "CAD",
	"CA$":   "CAD",
	"CAN$":  "CAD",
	"A$":    "AUD",
	"AU$":   "AUD",
	"NZ$":   "NZD",
	"S$":    "SGD",
	"SG$":   "SGD",
	"£":     "GBP",
	"€":     "EUR",
	"EURO":  "EUR",
	"EUROS": "EUR",
	"FR.":   "CHF",
	"SFR":   "CHF",
	"KR":    "SEK",
}

// ResolveCurrency maps a raw currency string (ISO code, symbol or common
// synonym) to a supported ISO code. It returns false when unresolved.
func ResolveCurrency(raw string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	for _, code := range SupportedCurrencies {
		if s == code {
			return code, true
		}
	}
	if code, ok := currencySynonyms[s]; ok {
		return code, true
	}
	return "", false
}
