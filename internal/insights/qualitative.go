package insights

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/FranksOps/marketscout/internal/analyzer"
	"github.com/FranksOps/marketscout/internal/results"
)

const (
	maxListed           = 10
	insightsPerSegment  = 3
	maxCompetitors      = 20
	contextsPerRival    = 2
	trendsPerCategory   = 5
	snippetContextChars = 200
	minOpportunityChars = 50
	minChallengeChars   = 30
)

var factorKeywords = []string{
	"driving growth", "growth driver", "key factor", "contributing to",
	"fueling", "accelerating", "enabling", "adoption of", "demand for",
}

func itemText(it results.Item) string {
	return it.Title + " " + it.Snippet
}

// growthFactors collects the first sentence naming each growth driver.
func growthFactors(items []results.Item) []string {
	var out []string
	for _, it := range items {
		for _, m := range analyzer.FindTermMatches(itemText(it), it.Link, it.Source, factorKeywords) {
			if len(m.Sentences) > 0 {
				out = analyzer.Unique(out, maxListed, m.Sentences[0])
			}
		}
	}
	return out
}

// Segment is a customer group and the results that mention it.
type Segment struct {
	Name     string           `json:"name"`
	Mentions int              `json:"mentions"`
	Insights []SegmentInsight `json:"insights"`
}

// SegmentInsight is one result describing a segment.
type SegmentInsight struct {
	Description string `json:"description"`
	Source      string `json:"source,omitempty"`
}

type keywordGroup struct {
	name     string
	keywords []*regexp.Regexp
}

func wordPatterns(ws ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(ws))
	for i, w := range ws {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

func matchesAny(lower string, res []*regexp.Regexp) bool {
	return slices.ContainsFunc(res, func(re *regexp.Regexp) bool { return re.MatchString(lower) })
}

var segmentGroups = []keywordGroup{
	{"Enterprise", wordPatterns("enterprise", "large company", "fortune 500", "corporate")},
	{"SMB", wordPatterns("smb", "small business", "medium business", "small and medium")},
	{"Startup", wordPatterns("startup", "early stage", "new business")},
	{"Government", wordPatterns("government", "public sector", "federal", "state")},
	{"Healthcare", wordPatterns("healthcare", "hospital", "medical", "clinic")},
	{"Retail", wordPatterns("retail", "e-commerce", "online store", "merchant")},
	{"Financial", wordPatterns("financial", "bank", "fintech", "insurance")},
}

func customerSegments(items []results.Item) []Segment {
	var out []Segment
	for _, g := range segmentGroups {
		seg := Segment{Name: g.name}
		for _, it := range items {
			if !matchesAny(strings.ToLower(itemText(it)), g.keywords) {
				continue
			}
			seg.Mentions++
			if len(seg.Insights) < insightsPerSegment {
				seg.Insights = append(seg.Insights, SegmentInsight{Description: it.Snippet, Source: it.Source})
			}
		}
		if seg.Mentions > 0 {
			out = append(out, seg)
		}
	}
	slices.SortStableFunc(out, func(a, b Segment) int { return cmp.Compare(b.Mentions, a.Mentions) })
	return out
}

// Competitor is a company named as a player in the market.
type Competitor struct {
	Name     string   `json:"name"`
	Mentions int      `json:"mentions"`
	Contexts []string `json:"contexts"`
}

// CompetitiveLandscape ranks the competitors by how often they are named.
type CompetitiveLandscape struct {
	TopCompetitors        []Competitor `json:"top_competitors"`
	TotalCompetitorsFound int          `json:"total_competitors_found"`
}

const nameList = `([^,.\n]+(?:,\s*[^,.\n]+)*)`

var competitorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)competitors?\s+include\s+` + nameList),
	// Names must be capitalised, so only the verb ignores case.
	regexp.MustCompile(`([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)*)\s+(?i:competes)`),
	regexp.MustCompile(`(?i)alternatives?\s+to\s+\w+\s+include\s+` + nameList),
	regexp.MustCompile(`(?i)market\s+leaders?\s+(?:include\s+)?` + nameList),
}

var nameSeparator = regexp.MustCompile(`,\s*|\s+and\s+`)

func competitors(items []results.Item) CompetitiveLandscape {
	index := make(map[string]int)
	var found []Competitor

	for _, it := range items {
		text := itemText(it)
		for _, re := range competitorPatterns {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				for _, name := range nameSeparator.Split(m[1], -1) {
					name = strings.TrimSpace(name)
					if len(name) <= 2 || len(name) >= 50 {
						continue
					}
					i, ok := index[name]
					if !ok {
						i = len(found)
						index[name] = i
						found = append(found, Competitor{Name: name})
					}
					found[i].Mentions++
					if len(found[i].Contexts) < contextsPerRival {
						found[i].Contexts = append(found[i].Contexts, truncate(it.Snippet, snippetContextChars))
					}
				}
			}
		}
	}

	top := slices.Clone(found)
	slices.SortStableFunc(top, func(a, b Competitor) int { return cmp.Compare(b.Mentions, a.Mentions) })
	return CompetitiveLandscape{
		TopCompetitors:        head(top, maxCompetitors),
		TotalCompetitorsFound: len(found),
	}
}

var opportunityKeywords = []string{
	"opportunity", "gap in the market", "unmet need", "underserved",
	"potential for", "room for improvement", "lacking", "demand for",
}

// opportunities returns the text around each opportunity phrase across every
// bucket.
func opportunities(b *results.Buckets) []string {
	var out []string
	for _, l := range b.ItemLists() {
		for _, it := range *l {
			text := strings.ToLower(itemText(it))
			for _, kw := range opportunityKeywords {
				idx := strings.Index(text, kw)
				if idx < 0 {
					continue
				}
				if w := analyzer.Window(text, idx, 100, 200); len(w) > minOpportunityChars {
					out = analyzer.Unique(out, maxListed, w)
				}
			}
		}
	}
	return out
}

var challengeKeywords = []string{
	"challenge", "problem", "pain point", "struggle", "difficulty",
	"barrier", "obstacle", "issue", "concern", "limitation",
}

// challenges returns sentences naming a challenge from the trends, customer
// and market buckets.
func challenges(b *results.Buckets) []string {
	var out []string
	for _, items := range [][]results.Item{b.IndustryTrends, b.CustomerInsights, b.MarketData} {
		for _, it := range items {
			sentences := analyzer.Split(itemText(it))
			for _, kw := range challengeKeywords {
				for _, s := range sentences {
					if strings.Contains(s.Lower, kw) && len(s.Lower) > minChallengeChars {
						out = analyzer.Unique(out, maxListed, s.Lower)
						break
					}
				}
			}
		}
	}
	return out
}

// TrendGroup is the set of trend mentions in one category.
type TrendGroup struct {
	Category string         `json:"category"`
	Trends   []TrendMention `json:"trends"`
	Strength int            `json:"strength"`
}

// TrendMention is one result naming a trend keyword.
type TrendMention struct {
	Trend   string `json:"trend"`
	Context string `json:"context"`
	Source  string `json:"source,omitempty"`
}

type trendKeyword struct {
	word string
	re   *regexp.Regexp
}

func trendWords(ws ...string) []trendKeyword {
	res := wordPatterns(ws...)
	out := make([]trendKeyword, len(ws))
	for i := range ws {
		out[i] = trendKeyword{ws[i], res[i]}
	}
	return out
}

var trendCategories = []struct {
	name     string
	keywords []trendKeyword
}{
	{"Technology", trendWords("ai", "automation", "digital", "cloud", "iot", "blockchain")},
	{"Market", trendWords("consolidation", "fragmentation", "globalization", "localization")},
	{"Customer", trendWords("personalization", "experience", "self-service", "omnichannel")},
	{"Business", trendWords("subscription", "saas", "platform", "marketplace", "ecosystem")},
}

func trends(items []results.Item) []TrendGroup {
	var out []TrendGroup
	for _, cat := range trendCategories {
		g := TrendGroup{Category: cat.name}
		for _, it := range items {
			text := strings.ToLower(itemText(it))
			for _, kw := range cat.keywords {
				if !kw.re.MatchString(text) {
					continue
				}
				g.Strength++
				if len(g.Trends) < trendsPerCategory {
					g.Trends = append(g.Trends, TrendMention{
						Trend:   kw.word,
						Context: truncate(it.Snippet, snippetContextChars),
						Source:  it.Source,
					})
				}
			}
		}
		if g.Strength > 0 {
			out = append(out, g)
		}
	}
	slices.SortStableFunc(out, func(a, b TrendGroup) int { return cmp.Compare(b.Strength, a.Strength) })
	return out
}
