// Package scraper fetches the most promising result pages, strips them down
// to their article text and scores how useful that text is.
package scraper

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/marketscout/internal/metrics"
	"github.com/FranksOps/marketscout/internal/results"
	"github.com/FranksOps/marketscout/pkg/ratelimit"
)

// Config tunes a Scraper.
type Config struct {
	// MaxConcurrent bounds in-flight fetches (default 3).
	MaxConcurrent int
	// MinQuality is the lowest retained quality score (default 50).
	MinQuality float64
	// MaxPages caps retained pages (default 10).
	MaxPages int
	// RespectRobots checks robots.txt before each fetch, failing open.
	RespectRobots bool
	// RobotsAgent is the product token matched against robots.txt groups.
	RobotsAgent string
	// RequestsPerSecond paces fetches across workers (0 = unlimited).
	RequestsPerSecond float64
	Jitter            float64
	Selection         SelectionConfig
	Fetch             FetchConfig
}

// Scraper runs the fetch pool.
type Scraper struct {
	cfg     Config
	fetcher *Fetcher
	auditor *RobotsTxtAuditor
	logger  *slog.Logger
	now     func() time.Time
}

// New builds a Scraper and its Fetcher.
func New(cfg Config, logger *slog.Logger) (*Scraper, error) {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.MinQuality == 0 {
		cfg.MinQuality = 50
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.RobotsAgent == "" {
		cfg.RobotsAgent = "*"
	}
	if cfg.Selection == (SelectionConfig{}) {
		cfg.Selection = DefaultSelection()
	}
	if logger == nil {
		logger = slog.Default()
	}

	fetcher, err := NewFetcher(cfg.Fetch)
	if err != nil {
		return nil, err
	}

	s := &Scraper{cfg: cfg, fetcher: fetcher, logger: logger, now: time.Now}
	if cfg.RespectRobots {
		s.auditor = NewRobotsTxtAuditor(fetcher, logger)
	}
	return s, nil
}

// Run selects candidate links from b, scrapes them and returns the retained
// pages. The error is non-nil only when ctx ended; pages scraped before that
// are still returned.
func (s *Scraper) Run(ctx context.Context, b *results.Buckets) ([]Page, error) {
	urls := Select(b, s.cfg.Selection)
	if len(urls) == 0 {
		return nil, nil
	}
	pages, err := s.ScrapeAll(ctx, urls)
	return Filter(pages, s.cfg.MinQuality, s.cfg.MaxPages), err
}

// ScrapeAll fetches urls with at most MaxConcurrent in flight. Failed or
// skipped URLs are logged at debug and produce no page. Pages come back in
// input order.
func (s *Scraper) ScrapeAll(ctx context.Context, urls []string) ([]Page, error) {
	var limiter *ratelimit.Limiter
	if s.cfg.RequestsPerSecond > 0 {
		limiter = ratelimit.NewLimiter(s.cfg.RequestsPerSecond, s.cfg.Jitter)
		defer limiter.Stop()
	}

	slots := make([]*Page, len(urls))

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrent)
	for i, u := range urls {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			slots[i] = s.scrapeOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	var pages []Page
	for _, p := range slots {
		if p != nil {
			pages = append(pages, *p)
		}
	}
	return pages, ctx.Err()
}

func (s *Scraper) scrapeOne(ctx context.Context, u string) *Page {
	if !Scrapable(u) {
		s.logger.Debug("skipping unscrapable url", "url", u)
		metrics.RecordScrape(results.Domain(u), "skipped", 0, 0)
		return nil
	}

	if s.auditor != nil {
		allowed, err := s.auditor.IsAllowed(ctx, u, s.cfg.RobotsAgent)
		if err != nil {
			s.logger.Debug("robots.txt check failed", "url", u, "err", err)
		} else if !allowed {
			s.logger.Debug("url blocked by robots.txt", "url", u)
			metrics.RecordScrape(results.Domain(u), "robots", 0, 0)
			return nil
		}
	}

	res, err := s.fetcher.FetchPage(ctx, u)
	if err != nil {
		s.logger.Debug("fetch failed", "url", u, "err", err)
		return nil
	}

	page, err := Extract(u, res.Body, s.now())
	if err != nil {
		s.logger.Debug("extract failed", "url", u, "err", err)
		return nil
	}
	s.logger.Debug("scraped", "url", u, "chars", page.TextLength, "quality", page.Quality)
	return page
}

// Filter keeps pages scoring at least minQuality, best first, at most limit.
// Equal scores keep their input order.
func Filter(pages []Page, minQuality float64, limit int) []Page {
	var kept []Page
	for _, p := range pages {
		if p.Quality >= minQuality {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Quality > kept[j].Quality
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	metrics.PagesRetainedTotal.Add(float64(len(kept)))
	return kept
}
