// Package search executes planned queries against the search backend in
// bounded, rate-limited batches with a response cache in front.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FranksOps/marketscout/internal/cache"
	"github.com/FranksOps/marketscout/internal/metrics"
	"github.com/FranksOps/marketscout/internal/query"
	"github.com/FranksOps/marketscout/internal/serp"
	"github.com/FranksOps/marketscout/pkg/ratelimit"
)

// Config tunes batch execution.
type Config struct {
	// BatchSize is the number of concurrent requests per batch (default 5).
	BatchSize int
	// BatchDelay is the pause between batches that hit the network (default 1s).
	BatchDelay time.Duration
	// Timeout bounds each backend request (default 30s).
	Timeout time.Duration
}

// Failure records one query that produced no usable data.
type Failure struct {
	Query query.Query `json:"query"`
	Error string      `json:"error"`
}

// Outcome is everything one Run gathered. Responses follow query order.
type Outcome struct {
	Responses []*serp.Response
	Errors    []Failure
	CacheHits int
	Requests  int
}

// Orchestrator runs queries through the cache and the backend.
type Orchestrator struct {
	cfg      Config
	provider serp.Provider
	cache    cache.Store
	logger   *slog.Logger
}

// NewOrchestrator wires a provider and a cache. A nil cache disables caching.
func NewOrchestrator(cfg Config, provider serp.Provider, store cache.Store, logger *slog.Logger) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{cfg: cfg, provider: provider, cache: store, logger: logger}
}

type slot struct {
	resp    *serp.Response
	err     error
	cached  bool
	fetched bool
}

// Run executes queries batch by batch. Individual failures are recorded in the
// outcome and never abort the run. The returned error is non-nil only when ctx
// ends before all batches ran; the outcome then holds what completed.
func (o *Orchestrator) Run(ctx context.Context, queries []query.Query) (*Outcome, error) {
	out := &Outcome{}

	for start := 0; start < len(queries); start += o.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		end := min(start+o.cfg.BatchSize, len(queries))
		batch := queries[start:end]
		slots := o.runBatch(ctx, batch)

		networked := false
		for i, s := range slots {
			q := batch[i]
			if s.fetched {
				networked = true
				out.Requests++
			}
			if s.cached {
				out.CacheHits++
			}
			if s.err != nil {
				out.Errors = append(out.Errors, Failure{Query: q, Error: s.err.Error()})
				continue
			}
			out.Responses = append(out.Responses, s.resp)
		}

		if end < len(queries) && networked && o.cfg.BatchDelay > 0 {
			if err := ratelimit.Sleep(ctx, o.cfg.BatchDelay); err != nil {
				return out, err
			}
		}
	}

	return out, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, batch []query.Query) []slot {
	slots := make([]slot, len(batch))

	// Identical (mode, text) pairs inside a batch share one lookup.
	first := make(map[string]int, len(batch))
	dupOf := make([]int, len(batch))
	for i, q := range batch {
		key := cache.Key(string(q.Mode), q.Text)
		if j, ok := first[key]; ok {
			dupOf[i] = j
			continue
		}
		first[key] = i
		dupOf[i] = -1
	}

	var g errgroup.Group
	for i, q := range batch {
		if dupOf[i] >= 0 {
			continue
		}
		g.Go(func() error {
			slots[i] = o.execute(ctx, q)
			return nil
		})
	}
	_ = g.Wait()

	for i, j := range dupOf {
		if j < 0 {
			continue
		}
		s := slots[j]
		s.fetched = false
		s.cached = s.err == nil
		if s.resp != nil {
			cp := *s.resp
			cp.Query = batch[i]
			s.resp = &cp
		}
		slots[i] = s
	}
	return slots
}

func (o *Orchestrator) execute(ctx context.Context, q query.Query) slot {
	key := cache.Key(string(q.Mode), q.Text)

	if o.cache != nil {
		payload, ok, err := o.cache.Get(ctx, key)
		if err != nil {
			o.logger.Warn("cache lookup failed", "query", q.Text, "err", err)
		}
		if ok {
			var resp serp.Response
			if err := json.Unmarshal(payload, &resp); err == nil {
				metrics.RecordCache(true)
				resp.Query = q
				return slot{resp: &resp, cached: true}
			}
			o.logger.Warn("discarding undecodable cache entry", "query", q.Text)
		}
		metrics.RecordCache(false)
	}

	reqCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.provider.Search(reqCtx, q)
	metrics.RecordSearch(string(q.Mode), time.Since(start), err)
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err == nil && resp.Error != "" {
		err = errors.New("backend error: " + resp.Error)
	}
	if err != nil {
		o.logger.Warn("search failed", "query", q.Text, "mode", q.Mode, "err", err)
		return slot{err: err, fetched: true}
	}

	resp.Query = q
	if o.cache != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := o.cache.Put(ctx, key, payload); err != nil {
				o.logger.Warn("cache store failed", "query", q.Text, "err", err)
			}
		}
	}
	return slot{resp: resp, fetched: true}
}
