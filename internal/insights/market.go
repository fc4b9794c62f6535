package insights

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/FranksOps/marketscout/internal/analyzer"
	"github.com/FranksOps/marketscout/internal/results"
	"github.com/FranksOps/marketscout/internal/scraper"
)

// Market figures are kept in millions of USD.
const (
	maxMarketValue     = 5_000_000
	minReasonable      = 10
	maxReasonable      = 100_000
	maxGrowthRate      = 100
	maxPlausibleGrowth = 50
	contextChars       = 300
	growthContext      = 200
	topFound           = 5
	recentYear         = 2023
	fairlyRecentYear   = 2021
)

// MarketValue is one market-size figure found in the text.
type MarketValue struct {
	Value      float64 `json:"value"`
	Raw        string  `json:"raw"`
	Source     string  `json:"source,omitempty"`
	Context    string  `json:"context"`
	Relevant   bool    `json:"is_relevant"`
	Confidence float64 `json:"confidence"`
}

// GrowthRate is one growth percentage found in the text.
type GrowthRate struct {
	Rate    float64 `json:"rate"`
	Type    string  `json:"type"`
	Source  string  `json:"source,omitempty"`
	Context string  `json:"context"`
}

// MarketSize is the consensus view over every figure found. Nil pointers
// mean no usable figure was found.
type MarketSize struct {
	CurrentMarketSize *float64      `json:"current_market_size"`
	MarketValuesFound []MarketValue `json:"market_values_found"`
	GrowthRate        *float64      `json:"growth_rate"`
	GrowthRatesFound  []GrowthRate  `json:"growth_rates_found"`
	DataPoints        int           `json:"data_points"`
	ConfidenceLevel   Confidence    `json:"confidence_level"`
}

const amount = `\$?([\d,]+\.?\d*)\s*(billion|million|trillion|B|M|T)\b`

var marketPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:market size|market value|market worth|TAM|total addressable market).*?` + amount),
	regexp.MustCompile(`(?i)(?:valued at|worth|reached|estimated at).*?` + amount),
	regexp.MustCompile(`(?i)(?:industry|sector|market).*?(?:is|was|reached).*?` + amount),
}

var growthPattern = regexp.MustCompile(`(?i)([\d,]+\.?\d*)\s*%\s*(CAGR|growth|increase)`)

var (
	sizeLanguage = regexp.MustCompile(`(?i)market size|market value|\btam\b|total addressable`)
	yearRe       = regexp.MustCompile(`20[2-9]\d`)
)

// text is one body of text the market patterns run over.
type text struct {
	body    string
	source  string
	context func(idx int) string
	query   string
}

func analyzeMarketSize(items []results.Item, pages []*scraper.Page, industry string) MarketSize {
	var texts []text
	for _, it := range items {
		// Scraped pages are scanned in full below.
		if it.Kind == results.KindScraped {
			continue
		}
		snippet := strings.ToLower(truncate(it.Snippet, contextChars))
		texts = append(texts, text{
			body:    it.Title + " " + it.Snippet,
			source:  it.Source,
			context: func(int) string { return snippet },
			query:   strings.ToLower(it.Query),
		})
	}
	for _, p := range pages {
		content := p.Content
		texts = append(texts, text{
			body:    content,
			source:  p.Metadata.Domain,
			context: func(idx int) string { return strings.ToLower(analyzer.Window(content, idx, 100, contextChars-100)) },
			query:   strings.ToLower(industry),
		})
	}

	var values []MarketValue
	var rates []GrowthRate
	for _, t := range texts {
		values = append(values, marketValues(t)...)
		rates = append(rates, growthRates(t)...)
	}

	ms := MarketSize{
		GrowthRatesFound: head(rates, topFound),
		DataPoints:       len(values) + len(rates),
	}

	candidates := make([]MarketValue, 0, len(values))
	for _, v := range values {
		if v.Relevant {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		candidates = values
	}
	slices.SortStableFunc(candidates, func(a, b MarketValue) int {
		if a.Confidence != b.Confidence {
			return compareDesc(a.Confidence, b.Confidence)
		}
		return compareDesc(a.Value, b.Value)
	})

	ms.MarketValuesFound = head(candidates, topFound)
	ms.CurrentMarketSize = consensus(candidates)
	ms.GrowthRate = averageGrowth(rates)
	ms.ConfidenceLevel = assess(candidates)
	return ms
}

func marketValues(t text) []MarketValue {
	var out []MarketValue
	keywords := IndustryKeywords(t.query)
	// Patterns overlap; a number is counted once however many match it.
	seen := make(map[int]struct{})

	for _, re := range marketPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(t.body, -1) {
			if _, ok := seen[m[2]]; ok {
				continue
			}
			raw, unit := t.body[m[2]:m[3]], t.body[m[4]:m[5]]
			n, ok := parseNumber(raw)
			if !ok {
				continue
			}
			value := Normalize(n, unit)
			if value > maxMarketValue {
				continue
			}
			seen[m[2]] = struct{}{}

			ctx := t.context(m[2])
			relevant := containsAny(ctx, keywords) || containsAny(t.query, keywords)
			out = append(out, MarketValue{
				Value:      value,
				Raw:        "$" + raw + " " + unit,
				Source:     t.source,
				Context:    ctx,
				Relevant:   relevant,
				Confidence: valueConfidence(n, unit, ctx),
			})
		}
	}
	return out
}

func growthRates(t text) []GrowthRate {
	var out []GrowthRate
	for _, m := range growthPattern.FindAllStringSubmatchIndex(t.body, -1) {
		rate, ok := parseNumber(t.body[m[2]:m[3]])
		if !ok || rate > maxGrowthRate {
			continue
		}
		out = append(out, GrowthRate{
			Rate:    rate,
			Type:    t.body[m[4]:m[5]],
			Source:  t.source,
			Context: truncate(t.context(m[2]), growthContext),
		})
	}
	return out
}

// Normalize converts n in the given unit to millions. Without a known unit,
// numbers above 1000 are read as thousands.
func Normalize(n float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case "trillion", "t":
		return n * 1_000_000
	case "billion", "b":
		return n * 1_000
	case "million", "m":
		return n
	}
	if n > 1000 {
		return n / 1000
	}
	return n
}

// valueConfidence starts at 0.5 and rewards market-size wording, recent
// years and a magnitude typical of technology markets.
func valueConfidence(n float64, unit, ctx string) float64 {
	c := 0.5
	if sizeLanguage.MatchString(ctx) {
		c += 0.2
	}

	latest := 0
	for _, y := range yearRe.FindAllString(ctx, -1) {
		if v, err := strconv.Atoi(y); err == nil && v > latest {
			latest = v
		}
	}
	switch {
	case latest >= recentYear:
		c += 0.15
	case latest >= fairlyRecentYear:
		c += 0.1
	}

	switch strings.ToLower(unit) {
	case "billion", "b":
		if n >= 0.1 && n <= 100 {
			c += 0.15
		}
	case "million", "m":
		if n >= 100 && n <= 10_000 {
			c += 0.15
		}
	}
	return min(1, c)
}

// consensus is the median of the candidates in the reasonable band, taken
// in ranking order, or the smallest candidate when none fall in the band.
func consensus(candidates []MarketValue) *float64 {
	if len(candidates) == 0 {
		return nil
	}
	var reasonable []MarketValue
	for _, v := range candidates {
		if v.Value >= minReasonable && v.Value <= maxReasonable {
			reasonable = append(reasonable, v)
		}
	}
	if len(reasonable) > 0 {
		v := reasonable[len(reasonable)/2].Value
		return &v
	}
	v := candidates[0].Value
	for _, c := range candidates[1:] {
		v = min(v, c.Value)
	}
	return &v
}

func averageGrowth(rates []GrowthRate) *float64 {
	if len(rates) == 0 {
		return nil
	}
	var sum, n float64
	for _, r := range rates {
		if r.Rate > 0 && r.Rate <= maxPlausibleGrowth {
			sum += r.Rate
			n++
		}
	}
	if n == 0 {
		for _, r := range rates {
			sum += r.Rate
		}
		n = float64(len(rates))
	}
	avg := sum / n
	return &avg
}

func assess(values []MarketValue) Confidence {
	if len(values) == 0 {
		return ConfidenceLow
	}
	top := head(values, 3)
	var sum float64
	for _, v := range top {
		sum += v.Confidence
	}
	avg := sum / float64(len(top))

	relevant := 0
	for _, v := range values {
		if v.Relevant {
			relevant++
		}
	}

	switch {
	case avg >= 0.7 && relevant >= 2:
		return ConfidenceHigh
	case avg >= 0.5 || relevant >= 1:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func compareDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
