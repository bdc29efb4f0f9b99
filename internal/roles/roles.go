// Package roles classifies free-text job titles into seniority, discipline
// and a canonical URL slug.
package roles

import (
	"regexp"
	"strings"
)

type Seniority string

const (
	SeniorityIntern    Seniority = "intern"
	SeniorityJunior    Seniority = "junior"
	SeniorityMid       Seniority = "mid"
	SenioritySenior    Seniority = "senior"
	SeniorityStaff     Seniority = "staff"
	SeniorityPrincipal Seniority = "principal"
	SeniorityLead      Seniority = "lead"
	SeniorityManager   Seniority = "manager"
	SeniorityDirector  Seniority = "director"
	SeniorityVP        Seniority = "vp"
	SeniorityCXO       Seniority = "cxo"
	SeniorityHead      Seniority = "head"
	SeniorityUnknown   Seniority = "unknown"
)

type Discipline string

const (
	DisciplineData        Discipline = "data"
	DisciplineSecurity    Discipline = "security"
	DisciplineDesign      Discipline = "design"
	DisciplineProduct     Discipline = "product"
	DisciplineEngineering Discipline = "engineering"
	DisciplineMarketing   Discipline = "marketing"
	DisciplineSales       Discipline = "sales"
	DisciplineFinance     Discipline = "finance"
	DisciplineLegal       Discipline = "legal"
	DisciplinePeople      Discipline = "people"
	DisciplineSupport     Discipline = "support"
	DisciplineOperations  Discipline = "operations"
	DisciplineOther       Discipline = "other"
)

// Role is the classification of one title.
type Role struct {
	Seniority       Seniority  `json:"seniority"`
	Discipline      Discipline `json:"discipline"`
	IsPeopleManager bool       `json:"is_people_manager"`
	Slug            string     `json:"slug"`
}

type seniorityRule struct {
	level Seniority
	re    *regexp.Regexp
}

// Checked in order; the more specific levels come first.
var seniorityRules = []seniorityRule{
	{SeniorityIntern, regexp.MustCompile(`\b(?:intern|internship|trainee|apprentice|co-?op)\b`)},
	{SeniorityCXO, regexp.MustCompile(`\b(?:chief [a-z ]*officer|ceo|cto|cfo|coo|cio|ciso|cmo|cpo|cro)\b`)},
	{SeniorityVP, regexp.MustCompile(`\b(?:vp|svp|evp|avp|vice president)\b`)},
	{SeniorityHead, regexp.MustCompile(`\bhead of\b|^head\b`)},
	{SeniorityDirector, regexp.MustCompile(`\bdirector\b`)},
	{SeniorityPrincipal, regexp.MustCompile(`\bprincipal\b`)},
	{SeniorityStaff, regexp.MustCompile(`\bstaff\b`)},
	{SeniorityManager, nil},
	{SeniorityLead, regexp.MustCompile(`\blead\b`)},
	{SenioritySenior, regexp.MustCompile(`\bsenior\b`)},
	{SeniorityJunior, regexp.MustCompile(`\b(?:junior|entry[- ]level|graduate)\b`)},
	{SeniorityMid, regexp.MustCompile(`\b(?:mid|mid-level|intermediate|ii)\b`)},
}

var (
	managerRe = regexp.MustCompile(`\b([a-z]+)\s+manager\b|^manager\b`)
	// "<word> manager" titles that own a product, project or account, not people.
	nonPeopleManager = map[string]bool{
		"product": true, "project": true, "program": true, "programme": true,
		"account": true, "community": true, "office": true, "content": true,
		"marketing": true, "brand": true, "channel": true, "partner": true,
		"release": true, "category": true, "case": true, "territory": true,
		"success": true, "relationship": true, "campaign": true, "social": true,
	}
)

type disciplineRule struct {
	discipline Discipline
	re         *regexp.Regexp
}

var disciplineRules = []disciplineRule{
	{DisciplineData, regexp.MustCompile(`\b(?:data|machine learning|ml|ai|analytics|analyst|scientist|bi)\b`)},
	{DisciplineSecurity, regexp.MustCompile(`\b(?:security|infosec|appsec|cyber ?security|penetration|soc)\b`)},
	{DisciplineDesign, regexp.MustCompile(`\b(?:design|designer|ux|ui|user experience|user research)\b`)},
	{DisciplineProduct, regexp.MustCompile(`\bproduct (?:manager|owner|management|lead|director|operations)\b|\b(?:head of|vp of|vp|vice president of|chief) product\b`)},
	{DisciplineEngineering, regexp.MustCompile(`\b(?:engineer|engineering|developer|programmer|devops|software|architect|frontend|front-end|backend|back-end|full-?stack|mobile|ios|android|qa|sdet|firmware)\b`)},
	{DisciplineMarketing, regexp.MustCompile(`\b(?:marketing|growth|seo|content|brand|communications|pr)\b`)},
	{DisciplineSales, regexp.MustCompile(`\b(?:sales|account executive|account manager|business development|bdr|sdr|partnerships)\b`)},
	{DisciplineFinance, regexp.MustCompile(`\b(?:finance|financial|accountant|accounting|controller|treasury|tax|payroll)\b`)},
	{DisciplineLegal, regexp.MustCompile(`\b(?:legal|counsel|attorney|lawyer|paralegal|compliance)\b`)},
	{DisciplinePeople, regexp.MustCompile(`\b(?:recruiter|recruiting|talent|people|hr|human resources)\b`)},
	{DisciplineSupport, regexp.MustCompile(`\b(?:support|customer success|customer service|help ?desk)\b`)},
	{DisciplineOperations, regexp.MustCompile(`\b(?:operations|ops|logistics|supply chain|program manager|project manager)\b`)},
}

// Normalize classifies title.
func Normalize(title string) Role {
	t := canonicalTitle(title)
	level := seniorityOf(t)
	return Role{
		Seniority:       level,
		Discipline:      disciplineOf(t),
		IsPeopleManager: isPeopleManager(level),
		Slug:            slugOf(t, level),
	}
}

func seniorityOf(t string) Seniority {
	for _, r := range seniorityRules {
		if r.level == SeniorityManager {
			if peopleManagerTitle(t) {
				return SeniorityManager
			}
			continue
		}
		if r.re.MatchString(t) {
			return r.level
		}
	}
	return SeniorityUnknown
}

func peopleManagerTitle(t string) bool {
	for _, m := range managerRe.FindAllStringSubmatch(t, -1) {
		if !nonPeopleManager[m[1]] {
			return true
		}
	}
	return false
}

func disciplineOf(t string) Discipline {
	for _, r := range disciplineRules {
		if r.re.MatchString(t) {
			return r.discipline
		}
	}
	return DisciplineOther
}

func isPeopleManager(s Seniority) bool {
	switch s {
	case SeniorityManager, SeniorityDirector, SeniorityVP, SeniorityCXO, SeniorityHead:
		return true
	}
	return false
}

var slugPrefixes = map[Seniority]string{
	SeniorityJunior:    "junior",
	SenioritySenior:    "senior",
	SeniorityStaff:     "staff",
	SeniorityPrincipal: "principal",
	SeniorityLead:      "lead",
}

// levelWords are dropped from a title before its base is looked up.
var levelWords = map[string]bool{
	"senior": true, "junior": true, "staff": true, "principal": true, "lead": true,
	"mid": true, "level": true, "entry": true, "i": true, "ii": true, "iii": true, "iv": true,
}

// baseSlugs maps dasherized base titles to their canonical slug. Values are
// the allow-list.
var baseSlugs = map[string]string{
	"software-engineer":         "software-engineer",
	"software-developer":        "software-engineer",
	"backend-engineer":          "backend-engineer",
	"back-end-engineer":         "backend-engineer",
	"backend-developer":         "backend-engineer",
	"back-end-developer":        "backend-engineer",
	"backend-software-engineer": "backend-engineer",
	"frontend-engineer":         "frontend-engineer",
	"front-end-engineer":        "frontend-engineer",
	"frontend-developer":        "frontend-engineer",
	"front-end-developer":       "frontend-engineer",
	"full-stack-engineer":       "full-stack-engineer",
	"fullstack-engineer":        "full-stack-engineer",
	"full-stack-developer":      "full-stack-engineer",
	"fullstack-developer":       "full-stack-engineer",
	"mobile-engineer":           "mobile-engineer",
	"mobile-developer":          "mobile-engineer",
	"ios-engineer":              "ios-engineer",
	"ios-developer":             "ios-engineer",
	"android-engineer":          "android-engineer",
	"android-developer":         "android-engineer",
	"devops-engineer":           "devops-engineer",
	"site-reliability-engineer": "site-reliability-engineer",
	"platform-engineer":         "platform-engineer",
	"infrastructure-engineer":   "infrastructure-engineer",
	"cloud-engineer":            "cloud-engineer",
	"data-engineer":             "data-engineer",
	"data-scientist":            "data-scientist",
	"data-analyst":              "data-analyst",
	"machine-learning-engineer": "machine-learning-engineer",
	"ml-engineer":               "machine-learning-engineer",
	"security-engineer":         "security-engineer",
	"qa-engineer":               "qa-engineer",
	"solutions-architect":       "solutions-architect",
	"engineering-manager":       "engineering-manager",
	"product-manager":           "product-manager",
	"product-designer":          "product-designer",
	"ux-designer":               "ux-designer",
	"ui-ux-designer":            "ux-designer",
	"ux-ui-designer":            "ux-designer",
}

func slugOf(t string, level Seniority) string {
	var words []string
	for _, w := range strings.Split(Dasherize(t), "-") {
		if w != "" && !levelWords[w] {
			words = append(words, w)
		}
	}
	base, ok := baseSlugs[strings.Join(words, "-")]
	if !ok {
		return ""
	}
	if prefix, ok := slugPrefixes[level]; ok {
		return prefix + "-" + base
	}
	return base
}

// IsCanonicalSlug reports whether slug is in the allow-list.
func IsCanonicalSlug(slug string) bool {
	for _, prefix := range slugPrefixes {
		slug = strings.TrimPrefix(slug, prefix+"-")
	}
	for _, canonical := range baseSlugs {
		if canonical == slug {
			return true
		}
	}
	return false
}
