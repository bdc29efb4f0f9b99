package roles

import (
	"regexp"
	"strings"
)

var (
	parenRe = regexp.MustCompile(`\(([^)]*)\)|\[([^\]]*)\]`)
	tailRe  = regexp.MustCompile(`\s+(?:-|–|—|\||@|/)\s+([^-–—|@/]*)$`)
	commaRe = regexp.MustCompile(`,\s*([^,]*)$`)

	// remoteRe matches qualifiers that describe where or how, not what.
	remoteRe = regexp.MustCompile(`\b(?:remote|hybrid|on-?site|in-office|anywhere|worldwide|wfh|work from home|` +
		`us|usa|uk|eu|emea|apac|latam|americas|europe|north america|canada|germany|` +
		`m/f/d|f/m/d|m/w/d|w/m/d|f/m/x|m/f/x|all genders|h/f|f/h)\b`)

	abbreviations = map[string]string{
		"sr":   "senior",
		"snr":  "senior",
		"jr":   "junior",
		"jnr":  "junior",
		"eng":  "engineer",
		"engr": "engineer",
		"mgr":  "manager",
		"mngr": "manager",
		"dev":  "developer",
		"swe":  "software engineer",
		"sre":  "site reliability engineer",
		"&":    "and",
	}

	wordRe = regexp.MustCompile(`[\p{L}\p{N}&]+`)
)

// TitleToken reduces a title to the form used in dedupe keys: folded,
// abbreviations expanded, location and remote qualifiers removed, dasherized.
// Seniority words are kept, so "Senior Engineer" and "Engineer" differ.
func TitleToken(title string) string {
	return Dasherize(canonicalTitle(title))
}

func canonicalTitle(title string) string {
	s := Fold(title)

	s = parenRe.ReplaceAllStringFunc(s, func(p string) string {
		if remoteRe.MatchString(p) {
			return " "
		}
		return p
	})
	for {
		m := tailRe.FindStringSubmatchIndex(s)
		if m == nil || !qualifier(s[m[2]:m[3]]) {
			break
		}
		s = s[:m[0]]
	}
	for {
		m := commaRe.FindStringSubmatchIndex(s)
		if m == nil || !qualifier(s[m[2]:m[3]]) {
			break
		}
		s = s[:m[0]]
	}

	return wordRe.ReplaceAllStringFunc(s, func(w string) string {
		if full, ok := abbreviations[w]; ok {
			return full
		}
		return w
	})
}

func qualifier(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || remoteRe.MatchString(s)
}
