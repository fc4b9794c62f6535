// Package insights derives market-level conclusions from processed search
// buckets and scraped pages: market size and growth consensus, customer
// segments, competitors, opportunities, challenges, trends and an overall
// data-quality score.
package insights

import (
	"slices"
	"time"

	"github.com/FranksOps/marketscout/internal/results"
	"github.com/FranksOps/marketscout/internal/scraper"
)

// Confidence is a coarse rating of how far the market figures can be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// MarketInsights is the full set of conclusions for one research run.
type MarketInsights struct {
	MarketSize           MarketSize           `json:"market_size"`
	GrowthFactors        []string             `json:"growth_factors"`
	CustomerSegments     []Segment            `json:"customer_segments"`
	CompetitiveLandscape CompetitiveLandscape `json:"competitive_landscape"`
	KeyOpportunities     []string             `json:"key_opportunities"`
	IndustryChallenges   []string             `json:"industry_challenges"`
	EmergingTrends       []TrendGroup         `json:"emerging_trends"`
	DataQuality          DataQuality          `json:"data_quality_score"`
	DeepContentAnalysis  *DeepAnalysis        `json:"deep_content_analysis,omitempty"`
}

// Options controls extraction.
type Options struct {
	// Industry is matched against values found in scraped pages, which
	// carry no originating query.
	Industry string
	// MinPageQuality is the lowest page score mined for insights.
	MinPageQuality float64
	// Now anchors the recency checks. Zero means time.Now().
	Now time.Time
}

// DefaultMinPageQuality matches the scraper's retention threshold.
const DefaultMinPageQuality = 50

// Extract combines the search buckets with the scraped pages and analyses the
// result. b is not modified.
func Extract(b *results.Buckets, pages []scraper.Page, opts Options) *MarketInsights {
	if b == nil {
		b = &results.Buckets{}
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.MinPageQuality <= 0 {
		opts.MinPageQuality = DefaultMinPageQuality
	}

	combined := *b
	for _, l := range combined.ItemLists() {
		*l = slices.Clone(*l)
	}

	var deep *DeepAnalysis
	mined := minePages(pages, opts.MinPageQuality)
	if len(pages) > 0 {
		s := scrapedInsights(mined)
		combined.MarketData = append(combined.MarketData, s.marketData...)
		combined.CustomerInsights = append(combined.CustomerInsights, s.customerInsights...)
		combined.CompetitorAnalysis = append(combined.CompetitorAnalysis, s.competitorAnalysis...)
		combined.IndustryTrends = append(combined.IndustryTrends, s.industryTrends...)
		s.deep.TotalContentAnalyzed, s.deep.HighQualityPages = pageTotals(pages)
		deep = &s.deep
	}

	return &MarketInsights{
		MarketSize:           analyzeMarketSize(combined.MarketData, mined, opts.Industry),
		GrowthFactors:        growthFactors(combined.IndustryTrends),
		CustomerSegments:     customerSegments(combined.CustomerInsights),
		CompetitiveLandscape: competitors(combined.CompetitorAnalysis),
		KeyOpportunities:     opportunities(&combined),
		IndustryChallenges:   challenges(&combined),
		EmergingTrends:       trends(combined.IndustryTrends),
		DataQuality:          dataQuality(&combined, pages, opts.Now),
		DeepContentAnalysis:  deep,
	}
}

// Stub is what a run without any data reports: no figures, Low confidence.
func Stub() *MarketInsights {
	return &MarketInsights{
		MarketSize:  MarketSize{ConfidenceLevel: ConfidenceLow},
		DataQuality: DataQuality{DataCoverage: CoverageLimited},
	}
}

func minePages(pages []scraper.Page, minQuality float64) []*scraper.Page {
	var out []*scraper.Page
	for i := range pages {
		if p := &pages[i]; p.Content != "" && p.Quality >= minQuality {
			out = append(out, p)
		}
	}
	return out
}

func pageTotals(pages []scraper.Page) (content, highQuality int) {
	for _, p := range pages {
		content += p.TextLength
		if p.Quality > highQualityPage {
			highQuality++
		}
	}
	return content, highQuality
}
