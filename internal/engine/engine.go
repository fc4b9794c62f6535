// Package engine runs one market-research pass end to end: plan queries,
// search, process, scrape, attribute and extract insights.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/marketscout/internal/attribution"
	"github.com/FranksOps/marketscout/internal/cache"
	"github.com/FranksOps/marketscout/internal/fingerprint"
	"github.com/FranksOps/marketscout/internal/insights"
	"github.com/FranksOps/marketscout/internal/query"
	"github.com/FranksOps/marketscout/internal/results"
	"github.com/FranksOps/marketscout/internal/scraper"
	"github.com/FranksOps/marketscout/internal/search"
	"github.com/FranksOps/marketscout/internal/serp"
	"github.com/FranksOps/marketscout/pkg/proxy"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
)

const maxDataSources = 20

var ErrInvalidConfig = errors.New("engine: invalid config")

// Config holds every tunable of a run.
type Config struct {
	// APIKey authenticates against the search backend. Without it runs are
	// degraded and nothing is fetched.
	APIKey        string
	SearchBaseURL string
	Country       string
	Language      string
	Search        search.Config

	CacheBackend string
	CacheTTL     time.Duration

	Scrape scraper.Config
	// Scraping is skipped entirely when false.
	ScrapeEnabled bool
	// ProxyFile lists forward proxies for page fetches, one per line.
	ProxyFile string
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SearchBaseURL: serp.DefaultBaseURL,
		Country:       "us",
		Language:      "en",
		Search: search.Config{
			BatchSize:  5,
			BatchDelay: time.Second,
			Timeout:    30 * time.Second,
		},
		CacheBackend: CacheMemory,
		CacheTTL:     cache.DefaultTTL,
		Scrape: scraper.Config{
			MaxConcurrent: 3,
			MinQuality:    50,
			MaxPages:      10,
			RespectRobots: true,
			RobotsAgent:   "marketscout",
			Selection:     scraper.DefaultSelection(),
			Fetch: scraper.FetchConfig{
				Timeout:      30 * time.Second,
				MaxRedirects: 5,
				MaxBytes:     scraper.DefaultMaxBytes,
				Fingerprint:  fingerprint.ProfileGo,
			},
		},
		ScrapeEnabled: true,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch c.CacheBackend {
	case "", CacheMemory, CacheSQLite:
	default:
		return fmt.Errorf("%w: unknown cache backend %q", ErrInvalidConfig, c.CacheBackend)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: negative cache ttl", ErrInvalidConfig)
	}
	if c.Search.BatchSize < 0 {
		return fmt.Errorf("%w: negative batch size", ErrInvalidConfig)
	}
	if c.Scrape.MinQuality < 0 || c.Scrape.MinQuality > 100 {
		return fmt.Errorf("%w: min quality %v outside 0-100", ErrInvalidConfig, c.Scrape.MinQuality)
	}
	return nil
}

// Metadata describes a run.
type Metadata struct {
	RunID                     string           `json:"run_id,omitempty"`
	TotalQueries              int              `json:"total_queries"`
	FailedQueries             int              `json:"failed_queries"`
	CacheHits                 int              `json:"cache_hits"`
	ScrapedPages              int              `json:"scraped_pages"`
	Timestamp                 time.Time        `json:"timestamp"`
	Duration                  time.Duration    `json:"duration"`
	DataSources               []string         `json:"data_sources"`
	SourceQualityDistribution map[string]int   `json:"source_quality_distribution"`
	Errors                    []search.Failure `json:"errors,omitempty"`
}

// Result is the single aggregate handed to the caller. It is not mutated
// after Run returns it.
type Result struct {
	RawResults     *results.Buckets         `json:"raw_results"`
	ScrapedContent []scraper.Page           `json:"scraped_content"`
	MarketInsights *insights.MarketInsights `json:"market_insights"`
	Sources        []attribution.DataSource `json:"sources"`
	Bibliography   attribution.Bibliography `json:"bibliography"`
	Metadata       Metadata                 `json:"search_metadata"`
	Degraded       bool                     `json:"degraded"`
}

// Option customizes an Engine.
type Option func(*Engine)

// WithProvider replaces the backend built from the API key.
func WithProvider(p serp.Provider) Option {
	return func(e *Engine) { e.provider = p }
}

// WithClock pins the clock used for recency scoring and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine owns the cache shared by its runs. Runs on one Engine are
// serialized.
type Engine struct {
	mu       sync.Mutex
	cfg      Config
	provider serp.Provider
	store    cache.Store
	scraper  *scraper.Scraper
	logger   *slog.Logger
	now      func() time.Time
}

// New validates cfg and builds the engine's collaborators.
func New(cfg Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = cache.DefaultTTL
	}

	e := &Engine{cfg: cfg, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}

	if e.provider == nil && cfg.APIKey != "" {
		p, err := serp.NewSerper(serp.SerperConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.SearchBaseURL,
			Timeout: cfg.Search.Timeout,
			Country: cfg.Country,
			Lang:    cfg.Language,
		})
		if err != nil {
			return nil, fmt.Errorf("engine: search backend: %w", err)
		}
		e.provider = p
	}

	switch cfg.CacheBackend {
	case CacheSQLite:
		s, err := cache.NewSQLite(cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("engine: open cache: %w", err)
		}
		s.SetClock(e.now)
		e.store = s
	default:
		m := cache.NewMemory(cfg.CacheTTL)
		m.SetClock(e.now)
		e.store = m
	}

	if cfg.ScrapeEnabled {
		if cfg.ProxyFile != "" {
			pool := proxy.NewPool(proxy.Config{})
			if err := pool.LoadFile(cfg.ProxyFile); err != nil {
				e.store.Close()
				return nil, fmt.Errorf("engine: %w", err)
			}
			cfg.Scrape.Fetch.Proxies = pool
		}
		s, err := scraper.New(cfg.Scrape, logger)
		if err != nil {
			e.store.Close()
			return nil, fmt.Errorf("engine: scraper: %w", err)
		}
		e.scraper = s
	}
	return e, nil
}

// Close releases the cache.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Run researches p. Without a backend it returns a degraded result and no
// error. When ctx ends mid-run the partial result is returned with ctx's
// error.
func (e *Engine) Run(ctx context.Context, p query.Profile) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := e.now()
	if e.provider == nil {
		e.logger.Warn("no search backend configured, returning degraded result")
		return degraded(start), nil
	}

	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)
	attr := attribution.New(e.now)

	queries := query.Plan(p)
	logger.Info("research started", "company", p.Company, "industry", p.Industry, "queries", len(queries))

	orch := search.NewOrchestrator(e.cfg.Search, e.provider, e.store, logger)
	outcome, runErr := orch.Run(ctx, queries)
	if outcome == nil {
		outcome = &search.Outcome{}
	}

	raw := results.Process(outcome.Responses, results.Options{Now: start})
	for _, l := range raw.ItemLists() {
		attr.AttributeItems(*l)
	}

	var pages []scraper.Page
	if runErr == nil && e.scraper != nil {
		var err error
		pages, err = e.scraper.Run(ctx, raw)
		if err != nil {
			runErr = err
		}
		attributePages(attr, raw, pages)
	}

	if pages == nil {
		pages = []scraper.Page{}
	}
	sources := attr.Sources()
	res := &Result{
		RawResults:     raw,
		ScrapedContent: pages,
		MarketInsights: insights.Extract(raw, pages, insights.Options{
			Industry:       p.Industry,
			MinPageQuality: e.cfg.Scrape.MinQuality,
			Now:            start,
		}),
		Sources:      sources,
		Bibliography: attr.Bibliography(),
		Metadata: Metadata{
			RunID:                     runID,
			TotalQueries:              len(queries),
			FailedQueries:             len(outcome.Errors),
			CacheHits:                 outcome.CacheHits,
			ScrapedPages:              len(pages),
			Timestamp:                 start,
			Duration:                  e.now().Sub(start),
			DataSources:               domains(sources),
			SourceQualityDistribution: attr.QualityDistribution(),
			Errors:                    outcome.Errors,
		},
	}

	if runErr != nil {
		logger.Warn("research interrupted", "err", runErr)
		return res, runErr
	}
	logger.Info("research finished",
		"sources", len(res.Sources),
		"pages", len(pages),
		"failed_queries", len(outcome.Errors),
		"duration", res.Metadata.Duration)
	return res, nil
}

// attributePages records scraped pages under the query whose result linked
// to them.
func attributePages(attr *attribution.Attributor, raw *results.Buckets, pages []scraper.Page) {
	origin := make(map[string]string)
	for _, l := range raw.ItemLists() {
		for _, it := range *l {
			if _, ok := origin[it.Link]; !ok && it.Link != "" {
				origin[it.Link] = it.Query
			}
		}
	}
	for _, pg := range pages {
		attr.Attribute(attribution.Input{
			URL:     pg.URL,
			Title:   pg.Title,
			Snippet: pg.Metadata.Description,
			Query:   origin[pg.URL],
			Date:    pg.Metadata.PublishDate,
			Origin:  attribution.OriginScrape,
		})
	}
}

// domains lists the distinct source domains, best-ranked source first.
func domains(sources []attribution.DataSource) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, s := range sources {
		if s.Domain == "" {
			continue
		}
		if _, ok := seen[s.Domain]; ok {
			continue
		}
		seen[s.Domain] = struct{}{}
		out = append(out, s.Domain)
		if len(out) == maxDataSources {
			break
		}
	}
	return out
}

func degraded(now time.Time) *Result {
	return &Result{
		RawResults:     &results.Buckets{},
		ScrapedContent: []scraper.Page{},
		MarketInsights: insights.Stub(),
		Sources:        []attribution.DataSource{},
		Bibliography:   attribution.New(nil).Bibliography(),
		Metadata: Metadata{
			Timestamp:                 now,
			DataSources:               []string{},
			SourceQualityDistribution: map[string]int{},
		},
		Degraded: true,
	}
}
