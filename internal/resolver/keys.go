package resolver

import (
	"strings"

	"job-ingest-go/internal/roles"
)

const keySeparator = "::"

// legalSuffixes are dropped from the end of company names.
var legalSuffixes = map[string]bool{
	"inc": true, "incorporated": true, "llc": true, "llp": true, "ltd": true, "limited": true,
	"corp": true, "corporation": true, "co": true, "company": true, "gmbh": true, "ag": true,
	"sa": true, "sas": true, "sarl": true, "bv": true, "nv": true, "ab": true, "as": true,
	"oy": true, "plc": true, "pty": true, "pte": true, "srl": true, "spa": true, "kk": true,
}

// NormalizeCompanyName folds case and accents, drops punctuation and trailing
// legal-entity suffixes: "Acme, Inc." and "ACME Inc" both become "acme".
func NormalizeCompanyName(name string) string {
	words := strings.Split(roles.Dasherize(roles.Fold(strings.ReplaceAll(name, ".", ""))), "-")
	for len(words) > 1 && legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// NormalizeDomain lowercases a host and strips scheme, "www." and any path.
func NormalizeDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	return d
}

// LocationToken is the first comma-separated segment of the location,
// folded and dasherized. Any mention of remote work collapses to "remote";
// no location at all becomes "unspecified".
func LocationToken(location string) string {
	folded := roles.Fold(location)
	if folded == "" {
		return "unspecified"
	}
	if strings.Contains(folded, "remote") || strings.Contains(folded, "anywhere") {
		return "remote"
	}
	first, _, _ := strings.Cut(folded, ",")
	if tok := roles.Dasherize(first); tok != "" {
		return tok
	}
	return "unspecified"
}

// DedupeKey is companyID::titleToken::locationToken. Seniority words stay in
// the title token, so a Senior and a Staff opening at one company are
// distinct jobs.
func DedupeKey(companyID, title, location string) string {
	return companyID + keySeparator + roles.TitleToken(title) + keySeparator + LocationToken(location)
}
