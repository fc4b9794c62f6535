// Package results turns raw search responses into ranked, de-duplicated
// buckets of items and inline statistics.
package results

import (
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/FranksOps/marketscout/internal/query"
	"github.com/FranksOps/marketscout/internal/serp"
)

// Kind identifies where an item came from.
type Kind string

const (
	KindOrganic         Kind = "organic"
	KindAnswerBox       Kind = "answer_box"
	KindKnowledgeGraph  Kind = "knowledge_graph"
	KindRelatedQuestion Kind = "related_question"
	KindScraped         Kind = "scraped_content"
)

const (
	maxOrganicPerQuery = 10
	maxRelatedPerQuery = 5
	maxPerBucket       = 50
)

// Item is one categorized result.
type Item struct {
	Kind      Kind              `json:"type"`
	Title     string            `json:"title"`
	Snippet   string            `json:"snippet,omitempty"`
	Link      string            `json:"link,omitempty"`
	Source    string            `json:"source,omitempty"`
	Date      string            `json:"date,omitempty"`
	Query     string            `json:"query"`
	Category  query.Category    `json:"category,omitempty"`
	Relevance float64           `json:"relevance_score"`
	Facts     map[string]string `json:"facts,omitempty"`

	// Set on items derived from scraped pages.
	Quality         float64  `json:"quality_score,omitempty"`
	SourceType      string   `json:"source_type,omitempty"`
	KeyPoints       []string `json:"key_points,omitempty"`
	StatisticsFound int      `json:"statistics_found,omitempty"`
}

// Buckets holds the eight result categories.
type Buckets struct {
	MarketData         []Item      `json:"market_data"`
	CustomerInsights   []Item      `json:"customer_insights"`
	CompetitorAnalysis []Item      `json:"competitor_analysis"`
	IndustryTrends     []Item      `json:"industry_trends"`
	ResearchPapers     []Item      `json:"research_papers"`
	KeyStatistics      []Statistic `json:"key_statistics"`
	ExpertQuotes       []Item      `json:"expert_quotes"`
	NewsInsights       []Item      `json:"news_insights"`
}

// ItemLists returns pointers to every item bucket in a fixed order.
func (b *Buckets) ItemLists() []*[]Item {
	return []*[]Item{
		&b.MarketData,
		&b.CustomerInsights,
		&b.CompetitorAnalysis,
		&b.IndustryTrends,
		&b.ResearchPapers,
		&b.ExpertQuotes,
		&b.NewsInsights,
	}
}

// Count is the number of items and statistics across all buckets.
func (b *Buckets) Count() int {
	n := len(b.KeyStatistics)
	for _, l := range b.ItemLists() {
		n += len(*l)
	}
	return n
}

// Options controls processing.
type Options struct {
	// Now anchors the recency boost. Zero means time.Now().
	Now time.Time
}

var strict = bluemonday.StrictPolicy()

// Clean strips any markup, decodes entities and collapses whitespace.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// Domain returns the host of link without a leading "www.".
func Domain(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Process buckets, scores, de-duplicates and ranks responses. Nil responses
// and responses carrying an error are skipped. The output depends only on the
// input and opts.
func Process(responses []*serp.Response, opts Options) *Buckets {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	scorer := newScorer(now)
	b := &Buckets{}

	for _, resp := range responses {
		if resp == nil || resp.Error != "" {
			continue
		}
		q := resp.Query

		organic := resp.Organic
		if len(organic) > maxOrganicPerQuery {
			organic = organic[:maxOrganicPerQuery]
		}
		for _, o := range organic {
			it := Item{
				Kind:     KindOrganic,
				Title:    Clean(o.Title),
				Snippet:  Clean(o.Snippet),
				Link:     o.Link,
				Source:   Domain(o.Link),
				Date:     o.Date,
				Query:    q.Text,
				Category: q.Category,
			}
			it.Relevance = scorer.score(q.Text, it)

			b.KeyStatistics = append(b.KeyStatistics, ExtractStatistics(it.Snippet, q.Text)...)
			route(b, q, it)
		}

		if ab := resp.AnswerBox; ab != nil {
			if text := Clean(ab.Text()); text != "" {
				b.KeyStatistics = append(b.KeyStatistics, Statistic{
					Type:    StatAnswerBox,
					Context: text,
					RawText: text,
					Source:  ab.Link,
					Query:   q.Text,
				})
			}
		}

		if kg := resp.KnowledgeGraph; kg != nil && (kg.Title != "" || kg.Description != "") {
			b.MarketData = append(b.MarketData, Item{
				Kind:     KindKnowledgeGraph,
				Title:    Clean(kg.Title),
				Snippet:  Clean(kg.Description),
				Link:     kg.Website,
				Source:   Domain(kg.Website),
				Query:    q.Text,
				Category: q.Category,
				Facts:    kg.Facts,
			})
		}

		related := resp.RelatedQuestions
		if len(related) > maxRelatedPerQuery {
			related = related[:maxRelatedPerQuery]
		}
		for _, rq := range related {
			b.CustomerInsights = append(b.CustomerInsights, Item{
				Kind:     KindRelatedQuestion,
				Title:    Clean(rq.Question),
				Snippet:  Clean(rq.Snippet),
				Link:     rq.Link,
				Source:   Domain(rq.Link),
				Query:    q.Text,
				Category: q.Category,
			})
		}
	}

	for _, l := range b.ItemLists() {
		*l = Dedupe(*l)
	}
	b.KeyStatistics = dedupeStatistics(b.KeyStatistics)
	return b
}

func route(b *Buckets, q query.Query, it Item) {
	switch q.Mode {
	case query.ModeScholar:
		b.ResearchPapers = append(b.ResearchPapers, it)
		return
	case query.ModeNews:
		b.NewsInsights = append(b.NewsInsights, it)
	}

	switch q.Category {
	case query.CategoryMarketSize:
		b.MarketData = append(b.MarketData, it)
	case query.CategoryCustomer:
		b.CustomerInsights = append(b.CustomerInsights, it)
	case query.CategoryCompetitor:
		b.CompetitorAnalysis = append(b.CompetitorAnalysis, it)
	case query.CategoryTrends:
		b.IndustryTrends = append(b.IndustryTrends, it)
	}

	if isQuote(it.Snippet) {
		b.ExpertQuotes = append(b.ExpertQuotes, it)
	}
}
