// Package extract locates compensation statements in job posting markup and
// turns them into candidate ranges with currency and pay interval.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"job-ingest-go/internal/models"
	"job-ingest-go/internal/salary"
)

// Candidate is the extractor's output. Min equals Max for single amounts.
type Candidate struct {
	Min               float64         `json:"min"`
	Max               float64         `json:"max"`
	Currency          string          `json:"currency"`
	CurrencyInferred  bool            `json:"currency_inferred"`
	Interval          models.Interval `json:"interval"`
	IntervalDefaulted bool            `json:"interval_defaulted"`
	Strategy          Strategy        `json:"strategy"`
	Score             int             `json:"score"`
	Text              string          `json:"text"`
	// Structured is set when the candidate came from a vendor's dedicated salary block.
	Structured bool `json:"structured"`
}

// Extractor finds the most likely compensation statement in a posting.
type Extractor interface {
	Vendor() string
	Extract(markup string, hints Hints) *Candidate
}

const (
	headLimit       = 2_500
	labelLookbehind = 100
	labelLookahead  = 500
	fragmentAnchor  = "pay range"
)

// labels are compensation headers in search order.
var labels = []string{
	"salary range", "pay range", "compensation range", "base salary", "base pay",
	"compensation", "salary", "pay scale", "hourly rate", "wage",
}

var labelRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(labels))
	for i, l := range labels {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(l) + `\b`)
	}
	return out
}()

type fragmentFunc func(doc *goquery.Document) string

type vendorExtractor struct {
	vendor    string
	fragments []fragmentFunc
}

var genericFragments = []fragmentFunc{
	selectorText(`[itemprop="baseSalary"]`),
	selectorText(".salary"),
	selectorText(".compensation"),
}

var extractors = map[string]*vendorExtractor{
	"greenhouse": {vendor: "greenhouse", fragments: append([]fragmentFunc{greenhousePayRange}, genericFragments...)},
	"lever": {vendor: "lever", fragments: append([]fragmentFunc{
		selectorText(`[data-qa="salary-range"]`),
		selectorText(".posting-salary"),
	}, genericFragments...)},
	"ashby": {vendor: "ashby", fragments: append([]fragmentFunc{
		selectorText(`[class*="compensationTier"]`),
		selectorText(`[data-testid="compensation"]`),
	}, genericFragments...)},
	"generic": {vendor: "generic", fragments: genericFragments},
}

// ForVendor returns the extractor for an ATS vendor, or the generic one.
func ForVendor(vendor string) Extractor {
	if e, ok := extractors[strings.ToLower(strings.TrimSpace(vendor))]; ok {
		return e
	}
	return extractors["generic"]
}

// Vendors lists the registered vendor names.
func Vendors() []string {
	return []string{"greenhouse", "lever", "ashby", "generic"}
}

func (e *vendorExtractor) Vendor() string { return e.vendor }

// Extract searches the structured fragment first, then compensation-labeled
// windows, then the head of the text. It returns nil when no candidate
// carries a currency signal.
func (e *vendorExtractor) Extract(markup string, hints Hints) *Candidate {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	if frag := e.fragment(markup); frag != "" {
		if c := best(scan(frag, hints, fragmentAnchor)); c != nil {
			c.Structured = true
			return c
		}
	}

	text := PlainText(markup)
	for _, re := range labelRes {
		var found []match
		for _, loc := range re.FindAllStringIndex(text, -1) {
			found = append(found, scan(window(text, loc[0]-labelLookbehind, loc[0]+labelLookahead), hints, "")...)
		}
		if c := best(found); c != nil {
			return c
		}
	}
	return best(scan(window(text, 0, headLimit), hints, ""))
}

func (e *vendorExtractor) fragment(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decodeMarkup(markup)))
	if err != nil {
		return ""
	}
	for _, f := range e.fragments {
		if s := f(doc); s != "" {
			return s
		}
	}
	return ""
}

// ParseText reads a free-text salary field such as "$120k - $150k / year".
func ParseText(text string, hints Hints) *Candidate {
	return best(scan(PlainText(text), hints, ""))
}

func selectorText(sel string) fragmentFunc {
	return func(doc *goquery.Document) string {
		return collapse(doc.Find(sel).First().Text())
	}
}

// greenhousePayRange joins the amount spans of a .pay-range block, dropping
// the divider span.
func greenhousePayRange(doc *goquery.Document) string {
	block := doc.Find(".pay-range").First()
	if block.Length() == 0 {
		return ""
	}
	var parts []string
	block.ChildrenFiltered("span").Each(func(_ int, s *goquery.Selection) {
		t := collapse(s.Text())
		if t == "" || isDash(t) {
			return
		}
		parts = append(parts, t)
	})
	text := strings.Join(parts, " – ")
	if len(parts) == 0 {
		text = collapse(block.Text())
	}
	// the sibling title carries the interval ("Hourly Pay", "Annual Salary")
	if title := collapse(block.Parent().ChildrenFiltered(".title").First().Text()); title != "" {
		text = title + ": " + text
	}
	return text
}

func isDash(s string) bool {
	switch strings.ToLower(s) {
	case "-", "–", "—", "to":
		return true
	}
	return false
}

// Input converts the candidate into normalizer input.
func (c *Candidate) Input(source models.SalarySource, raw string) salary.Input {
	lo, hi := c.Min, c.Max
	return salary.Input{
		Min:               &lo,
		Max:               &hi,
		CurrencyRaw:       c.Currency,
		IntervalRaw:       string(c.Interval),
		Source:            source,
		RawText:           raw,
		CurrencyInferred:  c.CurrencyInferred,
		IntervalDefaulted: c.IntervalDefaulted,
	}
}
