package extract_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-ingest-go/internal/models"
	"job-ingest-go/internal/salary/extract"
)

func TestExtractHourlyPayRange(t *testing.T) {
	c := extract.ForVendor("generic").Extract("<p>Pay range: $22.00 - $25.00/hour</p>", extract.Hints{})
	require.NotNil(t, c)
	assert.Equal(t, 22.0, c.Min)
	assert.Equal(t, 25.0, c.Max)
	assert.Equal(t, models.IntervalHour, c.Interval)
	assert.Equal(t, "USD", c.Currency)
	assert.True(t, c.CurrencyInferred)
	assert.Equal(t, extract.StrategyRangeKeyword, c.Strategy)
	assert.Equal(t, 6, c.Score)
	assert.False(t, c.Structured)
}

func TestExtractBaseSalaryKSuffix(t *testing.T) {
	c := extract.ForVendor("generic").Extract("<div>Base salary range: $124k - $187k annually</div>", extract.Hints{})
	require.NotNil(t, c)
	assert.Equal(t, 124_000.0, c.Min)
	assert.Equal(t, 187_000.0, c.Max)
	assert.Equal(t, models.IntervalYear, c.Interval)
	assert.False(t, c.IntervalDefaulted)
}

func TestBareHourlyWordDoesNotFire(t *testing.T) {
	assert.Nil(t, extract.ForVendor("generic").Extract("<p>manages hourly employees across multiple sites</p>", extract.Hints{}))

	c := extract.ParseText("Supervises hourly employees. Salary: $150,000", extract.Hints{})
	require.NotNil(t, c)
	assert.Equal(t, models.IntervalYear, c.Interval)
	assert.True(t, c.IntervalDefaulted)
}

func TestAdjacentIntervalPhrase(t *testing.T) {
	c := extract.ParseText("Hourly rate: $45 - $55", extract.Hints{})
	require.NotNil(t, c)
	assert.Equal(t, models.IntervalHour, c.Interval)
	assert.Equal(t, 45.0, c.Min)
	assert.Equal(t, 55.0, c.Max)
}

func TestSmallAmountWithoutIntervalIsDropped(t *testing.T) {
	assert.Nil(t, extract.ParseText("$45 - $55", extract.Hints{}))
}

func TestNoCurrencySignalReturnsNil(t *testing.T) {
	assert.Nil(t, extract.ParseText("Range: 120,000 - 150,000 per year", extract.Hints{}))
}

func TestRangeInheritsSuffixAndCurrency(t *testing.T) {
	c := extract.ParseText("$120-150k", extract.Hints{})
	require.NotNil(t, c)
	assert.Equal(t, 120_000.0, c.Min)
	assert.Equal(t, 150_000.0, c.Max)
	assert.Equal(t, extract.StrategyRangeSymbol, c.Strategy)
}

func TestKronaResolvedFromHints(t *testing.T) {
	text := "Salary: 900 000 - 1 100 000 kr per year"

	c := extract.ParseText(text, extract.Hints{CountryCode: "SE"})
	require.NotNil(t, c)
	assert.Equal(t, "SEK", c.Currency)
	assert.Equal(t, 900_000.0, c.Min)
	assert.Equal(t, 1_100_000.0, c.Max)
	assert.True(t, c.CurrencyInferred)

	c = extract.ParseText(text, extract.Hints{Location: "Oslo, Norway"})
	require.NotNil(t, c)
	assert.Equal(t, "NOK", c.Currency)
}

func TestDollarResolvedFromLocation(t *testing.T) {
	c := extract.ParseText("Base pay: $130,000 - $150,000", extract.Hints{Location: "Toronto, ON"})
	require.NotNil(t, c)
	assert.Equal(t, "CAD", c.Currency)
	assert.True(t, c.CurrencyInferred)

	c = extract.ParseText("Base pay: C$130,000 - C$150,000", extract.Hints{})
	require.NotNil(t, c)
	assert.Equal(t, "CAD", c.Currency)
	assert.False(t, c.CurrencyInferred)
}

func TestEuroWithNBSPSeparators(t *testing.T) {
	c := extract.ParseText("Gehalt: €85 000 – €95 000 per year", extract.Hints{})
	require.NotNil(t, c)
	assert.Equal(t, "EUR", c.Currency)
	assert.Equal(t, 85_000.0, c.Min)
	assert.Equal(t, 95_000.0, c.Max)
}

func TestEquityContextLosesToBaseSalary(t *testing.T) {
	filler := strings.Repeat("We build tools for teams. ", 6)
	text := "Salary: $300,000 in stock options and RSUs. " + filler + "Salary: $150,000 - $160,000 per year."

	c := extract.ForVendor("generic").Extract(text, extract.Hints{})
	require.NotNil(t, c)
	assert.Equal(t, 150_000.0, c.Min)
	assert.Equal(t, 160_000.0, c.Max)
	assert.Equal(t, 2, c.Score)
}

func TestGreenhouseEncodedPayRange(t *testing.T) {
	markup := `&lt;div class=&quot;content-intro&quot;&gt;&lt;p&gt;Join us.&lt;/p&gt;&lt;/div&gt;` +
		`&lt;div class=&quot;pay-input&quot;&gt;&lt;div class=&quot;title&quot;&gt;Annual Salary&lt;/div&gt;` +
		`&lt;div class=&quot;pay-range&quot;&gt;&lt;span&gt;$124,000&lt;/span&gt;` +
		`&lt;span class=&quot;divider&quot;&gt;&amp;mdash;&lt;/span&gt;&lt;span&gt;$187,000 USD&lt;/span&gt;&lt;/div&gt;&lt;/div&gt;`

	c := extract.ForVendor("greenhouse").Extract(markup, extract.Hints{})
	require.NotNil(t, c)
	assert.True(t, c.Structured)
	assert.Equal(t, 124_000.0, c.Min)
	assert.Equal(t, 187_000.0, c.Max)
	assert.Equal(t, "USD", c.Currency)
	assert.False(t, c.CurrencyInferred)
	assert.Equal(t, models.IntervalYear, c.Interval)
	assert.False(t, c.IntervalDefaulted)
}

func TestLeverSalaryBlock(t *testing.T) {
	markup := `<div class="posting"><div data-qa="salary-range">$140,000 - $180,000 a year</div><p>Bonus eligible.</p></div>`
	c := extract.ForVendor("lever").Extract(markup, extract.Hints{})
	require.NotNil(t, c)
	assert.True(t, c.Structured)
	assert.Equal(t, 140_000.0, c.Min)
	assert.Equal(t, models.IntervalYear, c.Interval)
}

func TestForVendorFallsBackToGeneric(t *testing.T) {
	assert.Equal(t, "generic", extract.ForVendor("workday").Vendor())
	assert.Equal(t, "ashby", extract.ForVendor(" Ashby ").Vendor())
}

func TestPlainText(t *testing.T) {
	got := extract.PlainText(`<p>Pay&amp;nbsp;range</p><script>var x = '$999,999';</script><style>.a{}</style><div>$120k</div>`)
	assert.Equal(t, "Pay range $120k", got)

	got = extract.PlainText(`&lt;p&gt;Salary:&amp;nbsp;$150,000&lt;/p&gt;`)
	assert.Equal(t, "Salary: $150,000", got)
}
