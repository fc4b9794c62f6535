package scraper

import (
	"net/url"
	"strings"

	"github.com/FranksOps/marketscout/internal/results"
)

// SelectionConfig bounds which result links are worth fetching.
type SelectionConfig struct {
	MarketDataTop      int
	MarketDataMinScore float64
	TrendsTop          int
	TrendsMinScore     float64
	CompetitorTop      int
	CompetitorMinScore float64
	MaxURLs            int
}

// DefaultSelection mirrors the production limits.
func DefaultSelection() SelectionConfig {
	return SelectionConfig{
		MarketDataTop:      8,
		MarketDataMinScore: 15,
		TrendsTop:          5,
		TrendsMinScore:     10,
		CompetitorTop:      5,
		CompetitorMinScore: 10,
		MaxURLs:            15,
	}
}

var blockedExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".zip", ".rar", ".tar", ".gz", ".mp4", ".mp3", ".jpg", ".png", ".gif",
}

var blockedDomains = []string{
	"twitter.com", "facebook.com", "instagram.com", "tiktok.com",
	"youtube.com", "linkedin.com", "reddit.com",
}

// Select picks candidate URLs from the ranked buckets in first-seen order.
// Only the leading items of each bucket are considered, and of those only the
// ones scoring strictly above the bucket's threshold.
func Select(b *results.Buckets, cfg SelectionConfig) []string {
	if b == nil {
		return nil
	}
	var urls []string
	seen := make(map[string]struct{})

	take := func(items []results.Item, top int, minScore float64) {
		if len(items) > top {
			items = items[:top]
		}
		for _, it := range items {
			if it.Link == "" || it.Relevance <= minScore {
				continue
			}
			if _, ok := seen[it.Link]; ok {
				continue
			}
			seen[it.Link] = struct{}{}
			urls = append(urls, it.Link)
		}
	}

	take(b.MarketData, cfg.MarketDataTop, cfg.MarketDataMinScore)
	take(b.IndustryTrends, cfg.TrendsTop, cfg.TrendsMinScore)
	take(b.CompetitorAnalysis, cfg.CompetitorTop, cfg.CompetitorMinScore)

	if cfg.MaxURLs > 0 && len(urls) > cfg.MaxURLs {
		urls = urls[:cfg.MaxURLs]
	}
	return urls
}

// Scrapable reports whether raw looks like an HTML page worth fetching.
func Scrapable(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	path := strings.ToLower(u.Path)
	for _, ext := range blockedExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	host := strings.ToLower(u.Hostname())
	for _, d := range blockedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}
	return true
}
