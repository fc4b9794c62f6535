package insights

import (
	"regexp"
	"strings"

	"github.com/FranksOps/marketscout/internal/analyzer"
	"github.com/FranksOps/marketscout/internal/results"
	"github.com/FranksOps/marketscout/internal/scraper"
)

const (
	previewChars       = 500
	maxScrapedPerList  = 10
	maxDeepStatistics  = 20
	maxDetailedInsight = 15
	matchesPerPattern  = 5
	highQualityPage    = 70
)

// Detailed statistic types found in page text.
const (
	StatMarketSizeDetailed = "market_size_detailed"
	StatGrowthRateDetailed = "growth_rate_detailed"
	StatMarketProjection   = "market_projection"
	StatMarketShare        = "market_share"
	StatUserStatistics     = "user_statistics"
	StatRevenueData        = "revenue_data"
	StatAdoptionRate       = "adoption_rate"
)

// DeepAnalysis summarizes what the scraped pages contributed.
type DeepAnalysis struct {
	TotalContentAnalyzed int                 `json:"total_content_analyzed"`
	HighQualityPages     int                 `json:"high_quality_pages"`
	KeyStatistics        []results.Statistic `json:"key_statistics"`
	DetailedInsights     []PageInsight       `json:"detailed_insights"`
}

// PageInsight is the list of key sentences found on one page.
type PageInsight struct {
	Source      string   `json:"source"`
	Title       string   `json:"title"`
	KeyInsights []string `json:"key_insights"`
	DataPoints  int      `json:"data_points"`
}

type statPattern struct {
	kind string
	re   *regexp.Regexp
	// high types start with a +0.2 confidence bonus.
	high bool
}

var detailedPatterns = []statPattern{
	{StatMarketSizeDetailed, regexp.MustCompile(`(?is)(?:market|industry|sector).*?size.*?(?:was|is|valued|worth|reached).*?\$?([\d,]+\.?\d*)\s*(billion|million|trillion|B|M|T)\b(?:\s+in\s+(\d{4}))?`), true},
	{StatGrowthRateDetailed, regexp.MustCompile(`(?is)(?:grow|growth|increase|expanding).*?([\d,]+\.?\d*)\s*%.*?(?:annually|yearly|CAGR|compound|from\s+\d{4}\s+to\s+\d{4})`), true},
	{StatMarketProjection, regexp.MustCompile(`(?is)(?:projected|expected|forecasted|anticipated).*?(?:to reach|to grow to|to be worth).*?\$?([\d,]+\.?\d*)\s*(billion|million|trillion|B|M|T)\b.*?(?:by|in)\s+(\d{4})`), true},
	{StatMarketShare, regexp.MustCompile(`(?is)(?:market share|share of|holds|accounts for).*?([\d,]+\.?\d*)\s*%`), false},
	{StatUserStatistics, regexp.MustCompile(`(?is)(?:users|customers|subscribers|businesses).*?([\d,]+\.?\d*)\s*(?:million|billion|thousand|M|B|K)\b`), false},
	{StatRevenueData, regexp.MustCompile(`(?is)(?:revenue|sales|earnings).*?\$?([\d,]+\.?\d*)\s*(?:billion|million|thousand|B|M|K)\b(?:\s+in\s+(\d{4}))?`), false},
	{StatAdoptionRate, regexp.MustCompile(`(?is)(?:adoption|penetration|usage).*?(?:rate|of).*?([\d,]+\.?\d*)\s*%`), false},
}

var qualityIndicators = []string{
	"according to", "research", "study", "report", "analysis",
	"data shows", "statistics", "survey", "published", "official",
}

// DetailedStatistics extracts statistics with their surrounding text from a
// full page. Each pattern contributes at most five matches.
func DetailedStatistics(text string) []results.Statistic {
	var out []results.Statistic
	for _, p := range detailedPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, matchesPerPattern) {
			var values []string
			for g := 2; g < len(m); g += 2 {
				if m[g] < 0 {
					continue
				}
				if v := text[m[g]:m[g+1]]; strings.TrimSpace(v) != "" {
					values = append(values, v)
				}
			}
			ctx := analyzer.Window(text, m[2], 50, 200)
			out = append(out, results.Statistic{
				Type:       p.kind,
				Values:     values,
				Context:    ctx,
				Confidence: statConfidence(ctx, p.high),
			})
		}
	}
	return out
}

func statConfidence(ctx string, high bool) float64 {
	c := 0.5
	lower := strings.ToLower(ctx)
	for _, ind := range qualityIndicators {
		if strings.Contains(lower, ind) {
			c += 0.1
		}
	}
	if high {
		c += 0.2
	}
	return min(1, c)
}

type scraped struct {
	marketData         []results.Item
	customerInsights   []results.Item
	competitorAnalysis []results.Item
	industryTrends     []results.Item
	deep               DeepAnalysis
}

var (
	marketTerms     = []string{"market size", "market value", "industry revenue", "tam", "total addressable"}
	customerTerms   = []string{"customer behavior", "buyer preferences", "user patterns", "consumer trends"}
	competitorTerms = []string{"competitor", "market leader", "competitive landscape", "market share"}
	trendTerms      = []string{"emerging trend", "future outlook", "innovation", "technology adoption"}
)

// scrapedInsights turns pages into items for the four analysis buckets and
// gathers their statistics and key sentences.
func scrapedInsights(pages []*scraper.Page) scraped {
	var s scraped
	for _, p := range pages {
		stats := DetailedStatistics(p.Content)
		s.deep.KeyStatistics = append(s.deep.KeyStatistics, stats...)

		it := results.Item{
			Kind:            results.KindScraped,
			Title:           p.Title,
			Snippet:         preview(p.Content),
			Link:            p.URL,
			Source:          p.Metadata.Domain,
			Quality:         p.Quality,
			SourceType:      p.Metadata.ArticleType,
			KeyPoints:       analyzer.KeyPoints(p.Content),
			StatisticsFound: len(stats),
		}

		lower := strings.ToLower(p.Content)
		if containsAny(lower, marketTerms) {
			s.marketData = appendCapped(s.marketData, it)
		}
		if containsAny(lower, customerTerms) {
			s.customerInsights = appendCapped(s.customerInsights, it)
		}
		if containsAny(lower, competitorTerms) {
			s.competitorAnalysis = appendCapped(s.competitorAnalysis, it)
		}
		if containsAny(lower, trendTerms) {
			s.industryTrends = appendCapped(s.industryTrends, it)
		}

		s.deep.DetailedInsights = append(s.deep.DetailedInsights, PageInsight{
			Source:      p.URL,
			Title:       p.Title,
			KeyInsights: analyzer.KeySentences(p.Content),
			DataPoints:  len(stats),
		})
	}
	s.deep.KeyStatistics = head(s.deep.KeyStatistics, maxDeepStatistics)
	s.deep.DetailedInsights = head(s.deep.DetailedInsights, maxDetailedInsight)
	return s
}

func appendCapped(items []results.Item, it results.Item) []results.Item {
	if len(items) >= maxScrapedPerList {
		return items
	}
	return append(items, it)
}

func preview(content string) string {
	if r := []rune(content); len(r) > previewChars {
		return string(r[:previewChars]) + "..."
	}
	return content
}
