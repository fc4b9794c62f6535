// Package report renders a research result for people: a text or HTML
// digest of the headline figures, or the full result as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strconv"
	texttemplate "text/template"
	"time"

	"github.com/FranksOps/marketscout/internal/engine"
)

const topN = 5

// Count is a labelled tally.
type Count struct {
	Label string
	N     int
}

// Summary holds the headline figures of one research run.
type Summary struct {
	RunID         string
	Timestamp     time.Time
	Duration      time.Duration
	Degraded      bool
	TotalQueries  int
	FailedQueries int
	CacheHits     int
	ScrapedPages  int
	TotalSources  int
	SourceTiers   []Count

	MarketSize  string
	GrowthRate  string
	Confidence  string
	DataQuality float64
	Coverage    string
	Competitors []Count
	Domains     []string
}

// Summarize extracts the headline figures from res.
func Summarize(res *engine.Result) Summary {
	s := Summary{MarketSize: "n/a", GrowthRate: "n/a"}
	if res == nil {
		return s
	}

	md := res.Metadata
	s.RunID = md.RunID
	s.Timestamp = md.Timestamp
	s.Duration = md.Duration
	s.Degraded = res.Degraded
	s.TotalQueries = md.TotalQueries
	s.FailedQueries = md.FailedQueries
	s.CacheHits = md.CacheHits
	s.ScrapedPages = md.ScrapedPages
	s.TotalSources = len(res.Sources)
	s.Domains = head(md.DataSources, topN)

	for label, n := range md.SourceQualityDistribution {
		s.SourceTiers = append(s.SourceTiers, Count{Label: label, N: n})
	}
	sort.Slice(s.SourceTiers, func(i, j int) bool { return s.SourceTiers[i].Label < s.SourceTiers[j].Label })

	if mi := res.MarketInsights; mi != nil {
		if v := mi.MarketSize.CurrentMarketSize; v != nil {
			s.MarketSize = Millions(*v)
		}
		if g := mi.MarketSize.GrowthRate; g != nil {
			s.GrowthRate = strconv.FormatFloat(*g, 'f', 1, 64) + "%"
		}
		s.Confidence = string(mi.MarketSize.ConfidenceLevel)
		s.DataQuality = mi.DataQuality.OverallScore
		s.Coverage = string(mi.DataQuality.DataCoverage)
		for _, c := range head(mi.CompetitiveLandscape.TopCompetitors, topN) {
			s.Competitors = append(s.Competitors, Count{Label: c.Name, N: c.Mentions})
		}
	}
	return s
}

// Millions formats a value held in millions of USD.
func Millions(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fT", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fB", v/1_000)
	default:
		return fmt.Sprintf("$%.1fM", v)
	}
}

// WriteJSON writes the whole result, indented.
func WriteJSON(w io.Writer, res *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Market Research Summary
-----------------------
{{- if .Degraded}}
No search backend configured: results are empty.
{{- end}}
Run:           {{.RunID}}
Time:          {{.Timestamp.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Queries:       {{.TotalQueries}} ({{.FailedQueries}} failed, {{.CacheHits}} cached)
Pages:         {{.ScrapedPages}} scraped
Sources:       {{.TotalSources}}
{{- range .SourceTiers}}
  {{.Label}}: {{.N}}
{{- end}}

Market Size:   {{.MarketSize}}
Growth Rate:   {{.GrowthRate}}
Confidence:    {{.Confidence}}
Data Quality:  {{printf "%.1f" .DataQuality}} ({{.Coverage}})

Competitors:
{{- range .Competitors}}
  {{.Label}}: {{.N}} mentions
{{- else}}
  None
{{- end}}

Domains:
{{- range .Domains}}
  {{.}}
{{- else}}
  None
{{- end}}
`

	t, err := texttemplate.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: parse text template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render text: %w", err)
	}
	return nil
}

// WriteHTML writes a basic HTML report. Competitor names come from scraped
// text and are escaped by html/template.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Market Research Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Market Research Report</h1>
  <p><strong>Run:</strong> {{.RunID}} at {{.Timestamp.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Market Size</div>
    <div class="stat-val">{{.MarketSize}}</div>
  </div>
  <div class="stat-card">
    <div>Growth</div>
    <div class="stat-val">{{.GrowthRate}}</div>
  </div>
  <div class="stat-card">
    <div>Confidence</div>
    <div class="stat-val" style="color: {{if eq .Confidence "High"}}green{{else if eq .Confidence "Medium"}}orange{{else}}red{{end}};">{{.Confidence}}</div>
  </div>
  <div class="stat-card">
    <div>Sources</div>
    <div class="stat-val">{{.TotalSources}}</div>
  </div>

  <h3>Competitors</h3>
  <table>
    <tr><th>Name</th><th>Mentions</th></tr>
    {{- range .Competitors}}
    <tr><td>{{.Label}}</td><td>{{.N}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>Source Quality</h3>
  <table>
    <tr><th>Tier</th><th>Count</th></tr>
    {{- range .SourceTiers}}
    <tr><td>{{.Label}}</td><td>{{.N}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("report: parse html template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: render html: %w", err)
	}
	return nil
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
