// Package proxy rotates scrape traffic across a list of forward proxies and
// benches the ones that keep failing.
package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnknown is returned when reporting on a proxy the pool does not hold.
var ErrUnknown = errors.New("proxy: not in pool")

type endpoint struct {
	url           *url.URL
	failures      int
	disabledUntil time.Time
}

// Pool hands out proxies round-robin. It is safe for concurrent use.
type Pool struct {
	mu          sync.Mutex
	endpoints   []*endpoint
	next        int
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

// Config tunes failure handling.
type Config struct {
	// MaxFailures in a row bench a proxy (default 3).
	MaxFailures int
	// Cooldown is how long a benched proxy sits out (default 5m).
	Cooldown time.Duration
}

// NewPool returns an empty pool.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{maxFailures: cfg.MaxFailures, cooldown: cfg.Cooldown, now: time.Now}
}

// LoadFile adds one proxy per line of path, skipping blanks and # comments.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("proxy: open list: %w", err)
	}
	defer f.Close()

	var raw []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw = append(raw, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("proxy: read list: %w", err)
	}
	return p.Add(raw...)
}

// Add parses and appends proxies. A missing scheme means http. Nothing is
// added when any entry is invalid.
func (p *Pool) Add(raw ...string) error {
	parsed := make([]*endpoint, 0, len(raw))
	for _, r := range raw {
		if !strings.Contains(r, "://") {
			r = "http://" + r
		}
		u, err := url.Parse(r)
		if err != nil {
			return fmt.Errorf("proxy: parse %q: %w", r, err)
		}
		if u.Host == "" {
			return fmt.Errorf("proxy: %q has no host", r)
		}
		parsed = append(parsed, &endpoint{url: u})
	}

	p.mu.Lock()
	p.endpoints = append(p.endpoints, parsed...)
	p.mu.Unlock()
	return nil
}

// Len is the number of proxies held, benched or not.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.endpoints)
}

// Next returns the next proxy not sitting out, or nil when none is usable.
func (p *Pool) Next() *url.URL {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for range p.endpoints {
		e := p.endpoints[p.next]
		p.next = (p.next + 1) % len(p.endpoints)
		if !e.disabledUntil.IsZero() && now.Before(e.disabledUntil) {
			continue
		}
		if !e.disabledUntil.IsZero() {
			e.disabledUntil = time.Time{}
			e.failures = 0
		}
		return e.url
	}
	return nil
}

// Report records the outcome of a request sent through u. A nil failure
// walks the failure count back by one; MaxFailures in a row bench u.
func (p *Pool) Report(u *url.URL, failure error) error {
	if u == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var e *endpoint
	for _, cand := range p.endpoints {
		if cand.url.String() == u.String() {
			e = cand
			break
		}
	}
	if e == nil {
		return fmt.Errorf("%w: %s", ErrUnknown, u.Redacted())
	}

	if failure == nil {
		if e.failures > 0 {
			e.failures--
		}
		return nil
	}
	e.failures++
	if e.failures >= p.maxFailures {
		e.disabledUntil = p.now().Add(p.cooldown)
	}
	return nil
}

type ctxKey struct{}

// WithProxy routes requests made with the returned context through u.
func WithProxy(ctx context.Context, u *url.URL) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromRequest is an http.Transport Proxy function: the proxy set with
// WithProxy, else the environment's.
func FromRequest(req *http.Request) (*url.URL, error) {
	if u, ok := req.Context().Value(ctxKey{}).(*url.URL); ok {
		return u, nil
	}
	return http.ProxyFromEnvironment(req)
}
