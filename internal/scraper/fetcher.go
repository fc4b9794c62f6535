package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/FranksOps/marketscout/internal/bypass"
	"github.com/FranksOps/marketscout/internal/fingerprint"
	"github.com/FranksOps/marketscout/internal/metrics"
	"github.com/FranksOps/marketscout/internal/results"
	"github.com/FranksOps/marketscout/pkg/httpclient"
	"github.com/FranksOps/marketscout/pkg/proxy"
	"github.com/FranksOps/marketscout/pkg/ratelimit"
	"github.com/FranksOps/marketscout/pkg/useragent"
)

// DefaultMaxBytes caps both the declared and the actual page size.
const DefaultMaxBytes = 1_000_000

var (
	ErrStatus    = errors.New("scraper: unexpected status")
	ErrNotHTML   = errors.New("scraper: not an html page")
	ErrTooLarge  = errors.New("scraper: page too large")
	ErrChallenge = errors.New("scraper: bot challenge page")
)

// FetchConfig configures page fetching.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	// MaxBytes defaults to DefaultMaxBytes.
	MaxBytes    int64
	UAPool      *useragent.Pool
	Fingerprint fingerprint.Profile
	Limiter     *ratelimit.Limiter
	// InsecureSkipVerify is for tests against TLS fixtures.
	InsecureSkipVerify bool
	Detectors          []bypass.Detector
	// Proxies, when non-empty, rotates page requests across forward
	// proxies. Otherwise the environment's proxy settings apply.
	Proxies *proxy.Pool
}

// FetchResult is one HTTP exchange. Body is decoded from its content encoding
// and, for pages, converted to UTF-8.
type FetchResult struct {
	URL         string
	StatusCode  int
	Header      http.Header
	ContentType string
	Body        []byte
	Duration    time.Duration
}

// Fetcher performs single URL fetches.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher builds a Fetcher holding one client for its lifetime so
// connections are pooled across pages.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileGo
	}
	if cfg.Detectors == nil {
		cfg.Detectors = bypass.DefaultDetectors()
	}

	// Accept-Encoding is set by hand, so the transport must not also
	// negotiate and strip compression.
	transport, err := fingerprint.Transport(cfg.Fingerprint, fingerprint.Options{
		Proxy:              proxy.FromRequest,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		DisableCompression: true,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: setup transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Transport:    transport,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: create client: %w", err)
	}

	return &Fetcher{config: cfg, client: client}, nil
}

// UserAgent returns the next User-Agent the fetcher will present.
func (f *Fetcher) UserAgent() string {
	return f.config.UAPool.Next()
}

// FetchPage GETs targetURL and accepts only a 200 text/html response within
// the size cap that is not a bot challenge.
func (f *Fetcher) FetchPage(ctx context.Context, targetURL string) (*FetchResult, error) {
	domain := results.Domain(targetURL)

	res, err := f.get(ctx, targetURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		status := "error"
		if errors.Is(err, ErrTooLarge) {
			status = "too_large"
		}
		metrics.RecordScrape(domain, status, durationOf(res), 0)
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		metrics.RecordScrape(domain, fmt.Sprintf("http_%d", res.StatusCode), res.Duration, len(res.Body))
		if hit, src := bypass.Analyze(bypass.Response{Status: res.StatusCode, Header: res.Header, Body: res.Body}, f.config.Detectors); hit {
			return nil, fmt.Errorf("%w: %s (status %d)", ErrChallenge, src, res.StatusCode)
		}
		return nil, fmt.Errorf("%w: %d", ErrStatus, res.StatusCode)
	}

	mediaType, _, _ := mime.ParseMediaType(res.ContentType)
	if mediaType != "text/html" {
		metrics.RecordScrape(domain, "not_html", res.Duration, len(res.Body))
		return nil, fmt.Errorf("%w: %q", ErrNotHTML, res.ContentType)
	}

	if hit, src := bypass.Analyze(bypass.Response{Status: res.StatusCode, Header: res.Header, Body: res.Body}, f.config.Detectors); hit {
		metrics.RecordScrape(domain, "challenge", res.Duration, len(res.Body))
		return nil, fmt.Errorf("%w: %s", ErrChallenge, src)
	}

	if utf8Body, err := toUTF8(res.Body, res.ContentType); err == nil {
		res.Body = utf8Body
	}

	metrics.RecordScrape(domain, "ok", res.Duration, len(res.Body))
	return res, nil
}

// get performs the request and reads the body without judging the response.
func (f *Fetcher) get(ctx context.Context, targetURL, accept string) (*FetchResult, error) {
	if err := f.config.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("scraper: rate limiter: %w", err)
	}

	start := time.Now()
	res := &FetchResult{URL: targetURL}

	via := f.config.Proxies.Next()
	req, err := http.NewRequestWithContext(proxy.WithProxy(ctx, via), http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("scraper: create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UAPool.Next())
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.client.Do(ctx, req)
	if err != nil {
		res.Duration = time.Since(start)
		if ctx.Err() == nil {
			_ = f.config.Proxies.Report(via, err)
		}
		return res, fmt.Errorf("scraper: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusProxyAuthRequired, http.StatusTooManyRequests:
		_ = f.config.Proxies.Report(via, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode))
	default:
		_ = f.config.Proxies.Report(via, nil)
	}

	res.StatusCode = resp.StatusCode
	res.Header = resp.Header
	res.ContentType = strings.ToLower(resp.Header.Get("Content-Type"))

	if resp.ContentLength > f.config.MaxBytes {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		res.Duration = time.Since(start)
		return res, fmt.Errorf("%w: declared %d bytes", ErrTooLarge, resp.ContentLength)
	}

	body, err := httpclient.ReadBody(resp, f.config.MaxBytes)
	res.Duration = time.Since(start)
	if err != nil {
		if errors.Is(err, httpclient.ErrTooLarge) {
			return res, fmt.Errorf("%w: body over %d bytes", ErrTooLarge, f.config.MaxBytes)
		}
		return res, fmt.Errorf("scraper: read body: %w", err)
	}
	res.Body = body
	return res, nil
}

func toUTF8(body []byte, contentType string) ([]byte, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func durationOf(res *FetchResult) time.Duration {
	if res == nil {
		return 0
	}
	return res.Duration
}
