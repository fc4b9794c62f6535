package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/marketscout/internal/engine"
	"github.com/FranksOps/marketscout/internal/insights"
	"github.com/FranksOps/marketscout/internal/results"
)

func ptr(v float64) *float64 { return &v }

func sampleResult() *engine.Result {
	mi := insights.Stub()
	mi.MarketSize.CurrentMarketSize = ptr(2500)
	mi.MarketSize.GrowthRate = ptr(12)
	mi.MarketSize.ConfidenceLevel = insights.ConfidenceMedium
	mi.DataQuality.OverallScore = 52.3
	mi.DataQuality.DataCoverage = insights.CoverageGood
	mi.CompetitiveLandscape.TopCompetitors = []insights.Competitor{
		{Name: "Acme", Mentions: 2},
		{Name: "Globex", Mentions: 1},
	}

	return &engine.Result{
		RawResults:     &results.Buckets{},
		MarketInsights: mi,
		Metadata: engine.Metadata{
			RunID:                     "run-1",
			TotalQueries:              23,
			FailedQueries:             2,
			CacheHits:                 5,
			ScrapedPages:              3,
			Timestamp:                 time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Duration:                  4 * time.Second,
			DataSources:               []string{"a.com", "b.com", "c.com", "d.com", "e.com", "f.com"},
			SourceQualityDistribution: map[string]int{"tier_2": 1, "tier_1": 3},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResult())

	if s.MarketSize != "$2.5B" || s.GrowthRate != "12.0%" {
		t.Errorf("unexpected figures %q %q", s.MarketSize, s.GrowthRate)
	}
	if s.Confidence != "Medium" || s.Coverage != "Good" {
		t.Errorf("unexpected confidence %q coverage %q", s.Confidence, s.Coverage)
	}
	if len(s.Domains) != topN {
		t.Errorf("expected %d domains, got %d", topN, len(s.Domains))
	}
	if len(s.SourceTiers) != 2 || s.SourceTiers[0].Label != "tier_1" || s.SourceTiers[0].N != 3 {
		t.Errorf("expected tiers sorted by label, got %v", s.SourceTiers)
	}
	if len(s.Competitors) != 2 || s.Competitors[0].Label != "Acme" {
		t.Errorf("unexpected competitors %v", s.Competitors)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.MarketSize != "n/a" || s.GrowthRate != "n/a" {
		t.Errorf("expected n/a placeholders, got %q %q", s.MarketSize, s.GrowthRate)
	}
}

func TestMillions(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{450, "$450.0M"},
		{2500, "$2.5B"},
		{3_200_000, "$3.2T"},
	}
	for _, tt := range tests {
		if got := Millions(tt.in); got != tt.want {
			t.Errorf("Millions(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"search_metadata"`, `"total_queries": 23`, `"market_insights"`, `"degraded": false`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected JSON to contain %s", want)
		}
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, Summarize(sampleResult())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Queries:       23 (2 failed, 5 cached)",
		"Market Size:   $2.5B",
		"Data Quality:  52.3 (Good)",
		"Acme: 2 mentions",
		"tier_1: 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected text to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "No search backend") {
		t.Error("did not expect the degraded notice")
	}
}

func TestWriteText_Degraded(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, Summary{Degraded: true, MarketSize: "n/a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "No search backend configured") {
		t.Errorf("expected degraded notice, got:\n%s", buf.String())
	}
}

func TestWriteHTML(t *testing.T) {
	res := sampleResult()
	res.MarketInsights.CompetitiveLandscape.TopCompetitors = []insights.Competitor{{Name: "<Evil Corp>", Mentions: 1}}

	var buf bytes.Buffer
	if err := WriteHTML(&buf, Summarize(res)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<title>Market Research Report</title>") {
		t.Errorf("expected HTML title")
	}
	if strings.Contains(out, "<Evil Corp>") || !strings.Contains(out, "&lt;Evil Corp&gt;") {
		t.Errorf("expected competitor name to be escaped")
	}
}
