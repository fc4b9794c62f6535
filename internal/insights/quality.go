package insights

import (
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/FranksOps/marketscout/internal/results"
	"github.com/FranksOps/marketscout/internal/scraper"
)

// Coverage labels how broad the collected data is.
type Coverage string

const (
	CoverageLimited           Coverage = "Limited"
	CoverageGood              Coverage = "Good"
	CoverageComprehensive     Coverage = "Comprehensive"
	CoverageEnhanced          Coverage = "Enhanced"
	CoverageComprehensivePlus Coverage = "Comprehensive+"
)

// DataQuality scores the collected data from 0 to 100.
type DataQuality struct {
	OverallScore         float64  `json:"overall_score"`
	TotalDataPoints      int      `json:"total_data_points"`
	AuthoritativeSources int      `json:"authoritative_sources"`
	RecentDataPoints     int      `json:"recent_data_points"`
	ScrapedPages         int      `json:"scraped_pages"`
	DeepContentLength    int      `json:"deep_content_length"`
	HighQualityPages     int      `json:"high_quality_pages"`
	DataCoverage         Coverage `json:"data_coverage"`
	EnhancementBoost     float64  `json:"enhancement_boost"`
}

var authoritativeDomains = append(slices.Clone(results.TrustedDomains),
	"techcrunch.com", "forbes.com", "businesswire.com")

// dataQuality blends the authoritative and recent share of all collected
// items with their volume, then adds a boost for substantial scraped content.
// Statistics count towards the volume only.
func dataQuality(b *results.Buckets, pages []scraper.Page, now time.Time) DataQuality {
	q := DataQuality{
		TotalDataPoints: b.Count(),
		ScrapedPages:    len(pages),
	}
	years := []string{strconv.Itoa(now.Year()), strconv.Itoa(now.Year() - 1)}

	for _, l := range b.ItemLists() {
		for _, it := range *l {
			if containsAny(it.Source, authoritativeDomains) {
				q.AuthoritativeSources++
			}
			if containsAny(itemText(it), years) {
				q.RecentDataPoints++
			}
		}
	}

	q.DeepContentLength, q.HighQualityPages = pageTotals(pages)
	switch {
	case q.DeepContentLength > 50_000:
		q.EnhancementBoost += 20
	case q.DeepContentLength > 20_000:
		q.EnhancementBoost += 15
	case q.DeepContentLength > 10_000:
		q.EnhancementBoost += 10
	}
	switch {
	case q.HighQualityPages > 5:
		q.EnhancementBoost += 15
	case q.HighQualityPages > 2:
		q.EnhancementBoost += 10
	}

	if total := float64(q.TotalDataPoints); total > 0 {
		authority := float64(q.AuthoritativeSources) / total
		recency := float64(q.RecentDataPoints) / total
		volume := min(1, total/100)
		base := (authority*0.4 + recency*0.4 + volume*0.2) * 100
		q.OverallScore = math.Round(min(100, base+q.EnhancementBoost)*10) / 10
	}

	q.DataCoverage = coverage(q.TotalDataPoints, len(pages))
	return q
}

func coverage(items, pages int) Coverage {
	switch {
	case pages > 5 && items > 100:
		return CoverageComprehensivePlus
	case pages > 2 && items > 50:
		return CoverageEnhanced
	case items > 100:
		return CoverageComprehensive
	case items > 50:
		return CoverageGood
	}
	return CoverageLimited
}
