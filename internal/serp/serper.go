package serp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/FranksOps/marketscout/internal/query"
	"github.com/FranksOps/marketscout/pkg/httpclient"
)

// DefaultBaseURL is the Serper API root.
const DefaultBaseURL = "https://google.serper.dev"

// maxResponseBytes bounds a single backend reply.
const maxResponseBytes = 8 << 20

// SerperConfig configures the Serper client.
type SerperConfig struct {
	APIKey  string
	BaseURL string
	// Timeout bounds each individual request.
	Timeout time.Duration
	Country string
	Lang    string
}

// Serper is a Provider for the Serper search API.
type Serper struct {
	cfg    SerperConfig
	client *httpclient.Client
}

var _ Provider = (*Serper)(nil)

// NewSerper builds a client. An empty APIKey is allowed; requests will then
// be rejected by the backend.
func NewSerper(cfg SerperConfig) (*Serper, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Country == "" {
		cfg.Country = "us"
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}

	client, err := httpclient.New(httpclient.Config{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("serp: create client: %w", err)
	}
	return &Serper{cfg: cfg, client: client}, nil
}

// Endpoint returns the URL path and result count used for a mode.
func Endpoint(mode query.Mode) (path string, num int) {
	switch mode {
	case query.ModeNews:
		return "/news", 20
	case query.ModeScholar:
		return "/scholar", 10
	default:
		return "/search", 30
	}
}

type searchRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl"`
	HL  string `json:"hl"`
	Num int    `json:"num"`
}

// Search POSTs q to the endpoint for its mode.
func (s *Serper) Search(ctx context.Context, q query.Query) (*Response, error) {
	path, num := Endpoint(q.Mode)

	payload, err := json.Marshal(searchRequest{Q: q.Text, GL: s.cfg.Country, HL: s.cfg.Lang, Num: num})
	if err != nil {
		return nil, fmt.Errorf("serp: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("serp: create request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("serp: %s request failed: %w", q.Mode, err)
	}
	defer resp.Body.Close()

	body, err := httpclient.ReadBody(resp, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("serp: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("serp: HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	out, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("serp: decode response: %w", err)
	}
	out.Query = q
	return out, nil
}
