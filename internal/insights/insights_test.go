package insights

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/marketscout/internal/results"
	"github.com/FranksOps/marketscout/internal/scraper"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

const fintechQuery = "fintech market size 2024 2025 forecast"

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func item(title, snippet, source string) results.Item {
	return results.Item{
		Kind:    results.KindOrganic,
		Title:   title,
		Snippet: snippet,
		Source:  source,
		Query:   fintechQuery,
	}
}

func TestExtract_MarketValueNormalizedAndRelevant(t *testing.T) {
	b := &results.Buckets{MarketData: []results.Item{
		item("Fintech market size report", "The fintech sector is a $2.5 billion market", "example.com"),
	}}

	got := Extract(b, nil, Options{Now: now}).MarketSize

	if len(got.MarketValuesFound) != 1 {
		t.Fatalf("expected 1 market value, got %d: %+v", len(got.MarketValuesFound), got.MarketValuesFound)
	}
	v := got.MarketValuesFound[0]
	if v.Value != 2500 {
		t.Errorf("expected 2500 (millions), got %v", v.Value)
	}
	if !v.Relevant {
		t.Error("expected value to be relevant")
	}
	if v.Raw != "$2.5 billion" {
		t.Errorf("unexpected raw %q", v.Raw)
	}
	if !approx(v.Confidence, 0.65) {
		t.Errorf("expected confidence 0.65, got %v", v.Confidence)
	}
	if got.CurrentMarketSize == nil || *got.CurrentMarketSize != 2500 {
		t.Errorf("expected consensus 2500, got %v", got.CurrentMarketSize)
	}
	if got.ConfidenceLevel != ConfidenceMedium {
		t.Errorf("expected Medium, got %s", got.ConfidenceLevel)
	}
	if got.GrowthRate != nil {
		t.Errorf("expected no growth rate, got %v", *got.GrowthRate)
	}
}

func TestExtract_MarketValueBounds(t *testing.T) {
	b := &results.Buckets{MarketData: []results.Item{
		item("Payments outlook", "The market size reached $6,000 trillion", ""),
		item("Lending outlook", "The market size hit $5,000 billion", ""),
		item("Broken figure", "The market value was $, billion", ""),
	}}

	got := Extract(b, nil, Options{Now: now}).MarketSize

	if len(got.MarketValuesFound) != 1 {
		t.Fatalf("expected only the in-bound value, got %+v", got.MarketValuesFound)
	}
	if v := got.MarketValuesFound[0].Value; v != 5_000_000 {
		t.Errorf("expected 5,000,000, got %v", v)
	}
	// Outside the reasonable band the smallest candidate wins.
	if got.CurrentMarketSize == nil || *got.CurrentMarketSize != 5_000_000 {
		t.Errorf("unexpected consensus %v", got.CurrentMarketSize)
	}
}

func TestExtract_NoFigures(t *testing.T) {
	got := Extract(&results.Buckets{}, nil, Options{Now: now})
	if got.MarketSize.CurrentMarketSize != nil || got.MarketSize.GrowthRate != nil {
		t.Error("expected nil consensus values")
	}
	if got.MarketSize.ConfidenceLevel != ConfidenceLow {
		t.Errorf("expected Low, got %s", got.MarketSize.ConfidenceLevel)
	}
	if got.DeepContentAnalysis != nil {
		t.Error("expected no deep analysis without pages")
	}
	if got.DataQuality.OverallScore != 0 || got.DataQuality.DataCoverage != CoverageLimited {
		t.Errorf("unexpected data quality %+v", got.DataQuality)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		n    float64
		unit string
		want float64
	}{
		{2.5, "billion", 2500},
		{3, "B", 3000},
		{1, "T", 1_000_000},
		{1.2, "trillion", 1_200_000},
		{300, "M", 300},
		{4500, "", 4.5},
		{800, "", 800},
	}
	for _, tt := range tests {
		if got := Normalize(tt.n, tt.unit); !approx(got, tt.want) {
			t.Errorf("Normalize(%v, %q) = %v, want %v", tt.n, tt.unit, got, tt.want)
		}
	}
}

func TestValueConfidence(t *testing.T) {
	tests := []struct {
		name string
		n    float64
		unit string
		ctx  string
		want float64
	}{
		{"base", 900, "billion", "no hints here", 0.5},
		{"all boosts", 20, "billion", "the market size in 2024", 1},
		{"older year", 500, "million", "figures from 2021", 0.75},
		{"tam word", 5000, "million", "tam estimate", 0.85},
		{"tam inside word", 5000, "M", "tampa office", 0.65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := valueConfidence(tt.n, tt.unit, tt.ctx); !approx(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsensus(t *testing.T) {
	vals := func(vs ...float64) []MarketValue {
		out := make([]MarketValue, len(vs))
		for i, v := range vs {
			out[i] = MarketValue{Value: v}
		}
		return out
	}

	if consensus(nil) != nil {
		t.Error("expected nil for no candidates")
	}
	if got := consensus(vals(500, 200_000, 50, 3000)); *got != 50 {
		t.Errorf("expected middle reasonable value 50, got %v", *got)
	}
	if got := consensus(vals(200_000, 5, 400_000)); *got != 5 {
		t.Errorf("expected smallest value 5, got %v", *got)
	}
}

func TestGrowthRate(t *testing.T) {
	b := &results.Buckets{MarketData: []results.Item{
		item("Outlook", "The sector is growing at 12% CAGR through 2030", ""),
		item("Spike", "A 150% growth spike was reported", ""),
		item("Users", "A 60% increase in users", ""),
	}}

	got := Extract(b, nil, Options{Now: now}).MarketSize
	if len(got.GrowthRatesFound) != 2 {
		t.Fatalf("expected 2 growth rates, got %+v", got.GrowthRatesFound)
	}
	if got.GrowthRate == nil || *got.GrowthRate != 12 {
		t.Errorf("expected plausible average 12, got %v", got.GrowthRate)
	}

	b.MarketData = b.MarketData[2:]
	got = Extract(b, nil, Options{Now: now}).MarketSize
	if got.GrowthRate == nil || *got.GrowthRate != 60 {
		t.Errorf("expected fallback average 60, got %v", got.GrowthRate)
	}
}

func TestAssess(t *testing.T) {
	tests := []struct {
		name   string
		values []MarketValue
		want   Confidence
	}{
		{"none", nil, ConfidenceLow},
		{"high", []MarketValue{{Confidence: 0.9, Relevant: true}, {Confidence: 0.8, Relevant: true}}, ConfidenceHigh},
		{"strong but one relevant", []MarketValue{{Confidence: 0.9, Relevant: true}, {Confidence: 0.8}}, ConfidenceMedium},
		{"weak but relevant", []MarketValue{{Confidence: 0.3, Relevant: true}}, ConfidenceMedium},
		{"weak", []MarketValue{{Confidence: 0.4}, {Confidence: 0.3}}, ConfidenceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := assess(tt.values); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIndustryKeywords(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Fintech market size", []string{"fintech", "financial technology", "payment", "banking", "lending", "insurance tech", "insurtech"}},
		{"artificial intelligence tools", []string{"artificial intelligence", "machine learning", "deep learning", "ai platform", "ml ops"}},
		{"quantum computing market", []string{"quantum", "computing", "computing market"}},
		{"big data", []string{"data"}},
		{"", []string{"technology", "software"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := IndustryKeywords(tt.query); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGrowthFactors(t *testing.T) {
	items := []results.Item{
		item("Payments", "Cloud adoption is driving growth. Margins are thin.", ""),
		item("Payments again", "Cloud adoption is driving growth. Fees fell.", ""),
		item("Lending", "Rising demand for instant credit keeps rising.", ""),
	}
	want := []string{"Payments Cloud adoption is driving growth.", "Payments again Cloud adoption is driving growth.", "Lending Rising demand for instant credit keeps rising."}
	if got := growthFactors(items); !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCustomerSegments(t *testing.T) {
	items := []results.Item{
		item("Enterprise buyers", "Large enterprise teams lead adoption", "a.com"),
		item("Corporate demand", "Corporate finance teams buy first", "b.com"),
		item("SMB", "Small business owners follow", "c.com"),
		item("Statement", "A statement on pricing", "d.com"),
	}
	got := customerSegments(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %+v", got)
	}
	if got[0].Name != "Enterprise" || got[0].Mentions != 2 || len(got[0].Insights) != 2 {
		t.Errorf("unexpected first segment %+v", got[0])
	}
	if got[1].Name != "SMB" || got[1].Mentions != 1 || got[1].Insights[0].Source != "c.com" {
		t.Errorf("unexpected second segment %+v", got[1])
	}
}

func TestCompetitors(t *testing.T) {
	items := []results.Item{
		item("Top fintech players", "Key competitors include Acme, Globex and Initech.", "a.com"),
		item("Market overview", "Acme competes with Hooli", "b.com"),
	}
	got := competitors(items)
	if got.TotalCompetitorsFound != 3 {
		t.Fatalf("expected 3 competitors, got %+v", got)
	}
	names := make([]string, len(got.TopCompetitors))
	for i, c := range got.TopCompetitors {
		names[i] = c.Name
	}
	if want := []string{"Acme", "Globex", "Initech"}; !reflect.DeepEqual(names, want) {
		t.Errorf("got %q, want %q", names, want)
	}
	if got.TopCompetitors[0].Mentions != 2 || len(got.TopCompetitors[0].Contexts) != 2 {
		t.Errorf("unexpected Acme entry %+v", got.TopCompetitors[0])
	}
}

func TestOpportunitiesAndChallenges(t *testing.T) {
	b := &results.Buckets{
		IndustryTrends: []results.Item{
			item("Lending", "Data privacy remains a major challenge for lenders in 2025. Growth continues.", ""),
		},
		NewsInsights: []results.Item{
			item("Gap", "Analysts see a large opportunity in cross-border payments for small merchants", ""),
			item("Short", "An opportunity", ""),
		},
	}

	opps := opportunities(b)
	if len(opps) != 1 || !strings.HasPrefix(opps[0], "gap analysts see a large opportunity") {
		t.Errorf("unexpected opportunities %q", opps)
	}

	ch := challenges(b)
	want := []string{"lending data privacy remains a major challenge for lenders in 2025."}
	if !reflect.DeepEqual(ch, want) {
		t.Errorf("got %q, want %q", ch, want)
	}
}

func TestTrends(t *testing.T) {
	items := []results.Item{
		item("Payments", "AI and cloud automation are reshaping payments", "a.com"),
		item("Models", "Subscription platform pricing, the CEO said", "b.com"),
	}
	got := trends(items)
	if len(got) != 2 {
		t.Fatalf("expected 2 trend groups, got %+v", got)
	}
	if got[0].Category != "Technology" || got[0].Strength != 3 {
		t.Errorf("unexpected first group %+v", got[0])
	}
	if got[1].Category != "Business" || got[1].Strength != 2 {
		t.Errorf("unexpected second group %+v", got[1])
	}
}

func TestDataQuality(t *testing.T) {
	b := &results.Buckets{
		MarketData: []results.Item{
			item("Forecast", "Payments volume rises in 2025", "gartner.com"),
			item("Blog", "Thoughts on lending", "blog.example"),
		},
		KeyStatistics: []results.Statistic{{Type: results.StatMarketSize, RawText: "2025"}},
	}

	q := dataQuality(b, nil, now)
	if q.TotalDataPoints != 3 || q.AuthoritativeSources != 1 || q.RecentDataPoints != 1 {
		t.Errorf("unexpected counts %+v", q)
	}
	if q.OverallScore != 27.3 {
		t.Errorf("expected 27.3, got %v", q.OverallScore)
	}

	pages := []scraper.Page{
		{TextLength: 8000, Quality: 80},
		{TextLength: 8000, Quality: 80},
		{TextLength: 8000, Quality: 80},
	}
	q = dataQuality(b, pages, now)
	if q.EnhancementBoost != 25 || q.DeepContentLength != 24000 || q.HighQualityPages != 3 {
		t.Errorf("unexpected boost %+v", q)
	}
	if q.OverallScore != 52.3 {
		t.Errorf("expected 52.3, got %v", q.OverallScore)
	}
}

func TestCoverage(t *testing.T) {
	tests := []struct {
		items, pages int
		want         Coverage
	}{
		{10, 0, CoverageLimited},
		{60, 0, CoverageGood},
		{120, 0, CoverageComprehensive},
		{60, 3, CoverageEnhanced},
		{120, 6, CoverageComprehensivePlus},
	}
	for _, tt := range tests {
		if got := coverage(tt.items, tt.pages); got != tt.want {
			t.Errorf("coverage(%d, %d) = %s, want %s", tt.items, tt.pages, got, tt.want)
		}
	}
}

func TestDetailedStatistics(t *testing.T) {
	text := "According to a 2024 industry report, the global payments market size was valued at $4.2 billion in 2024 and analysts expect steady gains."
	got := DetailedStatistics(text)
	if len(got) != 1 {
		t.Fatalf("expected 1 statistic, got %+v", got)
	}
	s := got[0]
	if s.Type != StatMarketSizeDetailed {
		t.Errorf("unexpected type %s", s.Type)
	}
	if want := []string{"4.2", "billion", "2024"}; !reflect.DeepEqual(s.Values, want) {
		t.Errorf("got values %q, want %q", s.Values, want)
	}
	if !strings.HasPrefix(s.Context, "t, the global payments market") {
		t.Errorf("unexpected context %q", s.Context)
	}
	if !approx(s.Confidence, 0.7) {
		t.Errorf("expected confidence 0.7, got %v", s.Confidence)
	}
}

func TestExtract_ScrapedPages(t *testing.T) {
	b := &results.Buckets{MarketData: []results.Item{
		item("Blog", "Thoughts on lending", "blog.example"),
	}}
	content := "The payments market size is expected to hit $12 billion as lenders expand. " +
		"Key competitors include Acme and Globex across the region."
	pages := []scraper.Page{
		{
			URL:        "https://research.example.com/payments",
			Title:      "Payments report",
			Content:    content,
			TextLength: len(content),
			Quality:    80,
			Metadata:   scraper.Metadata{Domain: "research.example.com", ArticleType: "report"},
		},
		{URL: "https://thin.example.com", Content: "market size of $90 billion", TextLength: 26, Quality: 40},
	}

	got := Extract(b, pages, Options{Industry: "fintech", Now: now})

	if len(b.MarketData) != 1 {
		t.Errorf("input buckets were modified: %d market items", len(b.MarketData))
	}
	ms := got.MarketSize
	if len(ms.MarketValuesFound) != 1 {
		t.Fatalf("expected one value from the mined page, got %+v", ms.MarketValuesFound)
	}
	if v := ms.MarketValuesFound[0]; v.Value != 12_000 || !v.Relevant || v.Source != "research.example.com" {
		t.Errorf("unexpected page value %+v", v)
	}

	deep := got.DeepContentAnalysis
	if deep == nil {
		t.Fatal("expected deep content analysis")
	}
	if deep.TotalContentAnalyzed != len(content)+26 || deep.HighQualityPages != 1 {
		t.Errorf("unexpected deep totals %+v", deep)
	}
	if len(deep.DetailedInsights) != 1 || deep.DetailedInsights[0].Source != pages[0].URL {
		t.Errorf("unexpected detailed insights %+v", deep.DetailedInsights)
	}

	// The page lands in market data and competitor analysis.
	if got.DataQuality.TotalDataPoints != 3 {
		t.Errorf("expected 3 data points, got %d", got.DataQuality.TotalDataPoints)
	}
	if got.CompetitiveLandscape.TotalCompetitorsFound != 2 {
		t.Errorf("expected competitors from the page preview, got %+v", got.CompetitiveLandscape)
	}
}

func TestStub(t *testing.T) {
	s := Stub()
	if s.MarketSize.ConfidenceLevel != ConfidenceLow || s.MarketSize.CurrentMarketSize != nil {
		t.Errorf("unexpected stub %+v", s.MarketSize)
	}
}
