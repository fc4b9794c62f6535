// Package query plans the set of search queries issued for one research run.
package query

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// Category is the semantic topic of a query, derived from its text.
type Category string

const (
	CategoryMarketSize Category = "market_size"
	CategoryCustomer   Category = "customer"
	CategoryCompetitor Category = "competitor"
	CategoryTrends     Category = "trends"
	CategoryGeneral    Category = "general"
)

// Mode selects the search backend endpoint.
type Mode string

const (
	ModeSearch  Mode = "search"
	ModeNews    Mode = "news"
	ModeScholar Mode = "scholar"
)

// Profile is the business description a research run starts from.
type Profile struct {
	Company       string `json:"company"`
	Industry      string `json:"industry"`
	BusinessModel string `json:"business_model"`
}

// Query is one planned search request. Queries are immutable once planned.
type Query struct {
	ID       string   `json:"id"`
	Text     string   `json:"q"`
	Mode     Mode     `json:"type"`
	Category Category `json:"category"`
}

type template struct {
	format string // %[1]s company, %[2]s industry, %[3]s business model
	mode   Mode
}

// Templates are grouped: market sizing, customer segments, competitors,
// trends and regulation, academic research.
var templates = []template{
	{"%[2]s market size 2024 2025 forecast", ModeSearch},
	{"%[2]s TAM total addressable market %[3]s", ModeSearch},
	{"%[2]s market growth rate CAGR projections", ModeSearch},
	{"%[2]s industry analysis report 2024", ModeSearch},
	{"%[2]s market trends emerging technologies", ModeSearch},

	{"%[2]s customer segments %[3]s buyers", ModeSearch},
	{"%[3]s %[2]s target audience demographics", ModeSearch},
	{"%[2]s buyer personas decision makers", ModeSearch},
	{"%[2]s customer pain points challenges problems", ModeSearch},
	{"%[3]s %[2]s use cases applications", ModeSearch},

	{"%[1]s competitors alternatives %[2]s", ModeSearch},
	{"top %[2]s companies %[3]s leaders", ModeSearch},
	{"%[2]s startup funding rounds investments 2024", ModeNews},
	{"%[2]s market share distribution competitive landscape", ModeSearch},
	{"%[1]s vs competitors comparison analysis", ModeSearch},

	{"%[2]s industry trends 2024 2025 predictions", ModeSearch},
	{"%[2]s regulatory changes compliance requirements", ModeNews},
	{"%[2]s technology adoption digital transformation", ModeSearch},
	{"%[2]s market opportunities gaps unmet needs", ModeSearch},
	{"%[2]s industry challenges barriers entry", ModeSearch},

	{"%[2]s market research study analysis", ModeScholar},
	{"%[3]s effectiveness ROI case studies", ModeScholar},
	{"%[2]s consumer behavior research", ModeScholar},
}

// Plan builds the ordered query list for p. It is a pure function of p.
func Plan(p Profile) []Query {
	company := strings.TrimSpace(p.Company)
	industry := strings.TrimSpace(p.Industry)
	model := strings.TrimSpace(p.BusinessModel)

	queries := make([]Query, 0, len(templates))
	for i, t := range templates {
		text := strings.Join(strings.Fields(fmt.Sprintf(t.format, company, industry, model)), " ")
		queries = append(queries, Query{
			ID:       ID(i, text),
			Text:     text,
			Mode:     t.mode,
			Category: Categorize(text),
		})
	}
	return queries
}

// ID derives the stable identifier of the i-th query with the given text.
func ID(i int, text string) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("q_%d_%s", i, hex.EncodeToString(sum[:])[:8])
}

var categoryRules = []struct {
	category Category
	terms    []string
}{
	{CategoryMarketSize, []string{"market size", "tam", "market value", "billion", "million"}},
	{CategoryCustomer, []string{"customer", "buyer", "persona", "segment", "demographic"}},
	{CategoryCompetitor, []string{"competitor", "alternative", "vs", "comparison"}},
	{CategoryTrends, []string{"trend", "future", "emerging", "technology"}},
}

// Categorize assigns a category from the query text alone. Terms match as
// substrings and the first rule with a hit wins.
func Categorize(text string) Category {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, term := range rule.terms {
			if strings.Contains(lower, term) {
				return rule.category
			}
		}
	}
	return CategoryGeneral
}
