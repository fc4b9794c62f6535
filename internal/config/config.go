// Package config loads engine settings from a YAML file, MARKETSCOUT_*
// environment variables and command-line flags, in rising precedence, over
// engine.DefaultConfig.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/FranksOps/marketscout/internal/engine"
	"github.com/FranksOps/marketscout/internal/fingerprint"
	"github.com/FranksOps/marketscout/internal/query"
)

// EnvPrefix namespaces environment overrides: search.api_key is read from
// MARKETSCOUT_SEARCH_API_KEY.
const EnvPrefix = "MARKETSCOUT"

// Setting keys.
const (
	KeyAPIKey        = "search.api_key"
	KeyBaseURL       = "search.base_url"
	KeyCountry       = "search.country"
	KeyLanguage      = "search.language"
	KeyBatchSize     = "search.batch_size"
	KeyBatchDelay    = "search.batch_delay"
	KeySearchTimeout = "search.timeout"

	KeyCacheBackend = "cache.backend"
	KeyCacheTTL     = "cache.ttl"

	KeyScrapeEnabled  = "scrape.enabled"
	KeyMaxConcurrent  = "scrape.max_concurrent"
	KeyMinQuality     = "scrape.min_quality"
	KeyMaxPages       = "scrape.max_pages"
	KeyMaxURLs        = "scrape.max_urls"
	KeyRespectRobots  = "scrape.respect_robots"
	KeyRobotsAgent    = "scrape.robots_agent"
	KeyRequestsPerSec = "scrape.requests_per_second"
	KeyJitter         = "scrape.jitter"
	KeyScrapeTimeout  = "scrape.timeout"
	KeyMaxRedirects   = "scrape.max_redirects"
	KeyMaxBytes       = "scrape.max_bytes"
	KeyFingerprint    = "scrape.fingerprint"
	KeyProxyFile      = "scrape.proxy_file"
)

// legacyAPIKeyEnv is also accepted for the backend key.
const legacyAPIKeyEnv = "SERPER_API_KEY"

var ErrMissingIndustry = errors.New("config: industry is required")

// New returns a viper instance carrying every key's default and reading
// MARKETSCOUT_* overrides from the environment.
func New() *viper.Viper {
	v := viper.New()
	d := engine.DefaultConfig()

	v.SetDefault(KeyAPIKey, d.APIKey)
	v.SetDefault(KeyBaseURL, d.SearchBaseURL)
	v.SetDefault(KeyCountry, d.Country)
	v.SetDefault(KeyLanguage, d.Language)
	v.SetDefault(KeyBatchSize, d.Search.BatchSize)
	v.SetDefault(KeyBatchDelay, d.Search.BatchDelay)
	v.SetDefault(KeySearchTimeout, d.Search.Timeout)

	v.SetDefault(KeyCacheBackend, d.CacheBackend)
	v.SetDefault(KeyCacheTTL, d.CacheTTL)

	v.SetDefault(KeyScrapeEnabled, d.ScrapeEnabled)
	v.SetDefault(KeyMaxConcurrent, d.Scrape.MaxConcurrent)
	v.SetDefault(KeyMinQuality, d.Scrape.MinQuality)
	v.SetDefault(KeyMaxPages, d.Scrape.MaxPages)
	v.SetDefault(KeyMaxURLs, d.Scrape.Selection.MaxURLs)
	v.SetDefault(KeyRespectRobots, d.Scrape.RespectRobots)
	v.SetDefault(KeyRobotsAgent, d.Scrape.RobotsAgent)
	v.SetDefault(KeyRequestsPerSec, d.Scrape.RequestsPerSecond)
	v.SetDefault(KeyJitter, d.Scrape.Jitter)
	v.SetDefault(KeyScrapeTimeout, d.Scrape.Fetch.Timeout)
	v.SetDefault(KeyMaxRedirects, d.Scrape.Fetch.MaxRedirects)
	v.SetDefault(KeyMaxBytes, d.Scrape.Fetch.MaxBytes)
	v.SetDefault(KeyFingerprint, string(d.Scrape.Fetch.Fingerprint))
	v.SetDefault(KeyProxyFile, d.ProxyFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyAPIKey, EnvPrefix+"_SEARCH_API_KEY", legacyAPIKeyEnv)
	return v
}

// ReadFile merges a YAML settings file into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

// Load builds the engine configuration from v and validates it.
func Load(v *viper.Viper) (engine.Config, error) {
	cfg := engine.DefaultConfig()

	cfg.APIKey = strings.TrimSpace(v.GetString(KeyAPIKey))
	cfg.SearchBaseURL = v.GetString(KeyBaseURL)
	cfg.Country = v.GetString(KeyCountry)
	cfg.Language = v.GetString(KeyLanguage)
	cfg.Search.BatchSize = v.GetInt(KeyBatchSize)
	cfg.Search.BatchDelay = v.GetDuration(KeyBatchDelay)
	cfg.Search.Timeout = v.GetDuration(KeySearchTimeout)

	cfg.CacheBackend = strings.ToLower(v.GetString(KeyCacheBackend))
	cfg.CacheTTL = v.GetDuration(KeyCacheTTL)

	cfg.ScrapeEnabled = v.GetBool(KeyScrapeEnabled)
	cfg.Scrape.MaxConcurrent = v.GetInt(KeyMaxConcurrent)
	cfg.Scrape.MinQuality = v.GetFloat64(KeyMinQuality)
	cfg.Scrape.MaxPages = v.GetInt(KeyMaxPages)
	cfg.Scrape.Selection.MaxURLs = v.GetInt(KeyMaxURLs)
	cfg.Scrape.RespectRobots = v.GetBool(KeyRespectRobots)
	cfg.Scrape.RobotsAgent = v.GetString(KeyRobotsAgent)
	cfg.Scrape.RequestsPerSecond = v.GetFloat64(KeyRequestsPerSec)
	cfg.Scrape.Jitter = v.GetFloat64(KeyJitter)
	cfg.Scrape.Fetch.Timeout = v.GetDuration(KeyScrapeTimeout)
	cfg.Scrape.Fetch.MaxRedirects = v.GetInt(KeyMaxRedirects)
	cfg.Scrape.Fetch.MaxBytes = v.GetInt64(KeyMaxBytes)
	cfg.ProxyFile = v.GetString(KeyProxyFile)

	profile, err := fingerprint.ParseProfile(v.GetString(KeyFingerprint))
	if err != nil {
		return engine.Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Scrape.Fetch.Fingerprint = profile

	if err := cfg.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ParseProfile trims and checks the business profile given on the command
// line. Only the industry is mandatory; the planner drops empty fields.
func ParseProfile(company, industry, model string) (query.Profile, error) {
	p := query.Profile{
		Company:       strings.TrimSpace(company),
		Industry:      strings.TrimSpace(industry),
		BusinessModel: strings.TrimSpace(model),
	}
	if p.Industry == "" {
		return query.Profile{}, ErrMissingIndustry
	}
	return p, nil
}
