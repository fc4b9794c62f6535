package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FranksOps/marketscout/internal/config"
	"github.com/FranksOps/marketscout/internal/engine"
	"github.com/FranksOps/marketscout/internal/metrics"
	"github.com/FranksOps/marketscout/internal/report"
)

var (
	company     string
	industry    string
	model       string
	format      string
	metricsPort int
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Run one research pass for a company profile",
	Example: `  marketscout research --company "Acme Pay" --industry fintech --model B2B
  MARKETSCOUT_SEARCH_API_KEY=... marketscout research --industry "cyber security" --format json`,
	RunE: runResearch,
}

func init() {
	f := researchCmd.Flags()
	f.StringVar(&company, "company", "", "Company name")
	f.StringVar(&industry, "industry", "", "Industry to research (required)")
	f.StringVar(&model, "model", "", "Business model, e.g. B2B, SaaS, marketplace")
	f.StringVarP(&format, "format", "f", "text", "Output format: text, json, html")
	f.IntVar(&metricsPort, "metrics-port", 0, "Serve Prometheus metrics on this port (0 disables)")

	f.String("api-key", "", "Search backend API key")
	f.String("cache", engine.CacheMemory, "Cache backend: memory, sqlite")
	f.Bool("scrape", true, "Fetch and analyse result pages")
	f.String("fingerprint", "go", "TLS fingerprint: go, chrome, firefox, safari, random")
	f.String("proxy-file", "", "File listing forward proxies for page fetches")
	f.Float64("rps", 0, "Page fetches per second across workers (0 = unlimited)")

	bindFlag(settings, researchCmd, config.KeyAPIKey, "api-key")
	bindFlag(settings, researchCmd, config.KeyCacheBackend, "cache")
	bindFlag(settings, researchCmd, config.KeyScrapeEnabled, "scrape")
	bindFlag(settings, researchCmd, config.KeyFingerprint, "fingerprint")
	bindFlag(settings, researchCmd, config.KeyProxyFile, "proxy-file")
	bindFlag(settings, researchCmd, config.KeyRequestsPerSec, "rps")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	profile, err := config.ParseProfile(company, industry, model)
	if err != nil {
		return err
	}
	write, err := writer(format)
	if err != nil {
		return err
	}
	cfg, err := config.Load(settings)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsPort > 0 {
		srv := metrics.Start(metricsPort)
		defer srv.Stop(context.Background())
		logger.Info("metrics server listening", "port", metricsPort)
	}

	e, err := engine.New(cfg, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	res, runErr := e.Run(ctx, profile)
	if res != nil {
		if err := write(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("research interrupted: %w", runErr)
	}
	return nil
}

func writer(format string) (func(io.Writer, *engine.Result) error, error) {
	switch format {
	case "text":
		return func(w io.Writer, res *engine.Result) error {
			return report.WriteText(w, report.Summarize(res))
		}, nil
	case "html":
		return func(w io.Writer, res *engine.Result) error {
			return report.WriteHTML(w, report.Summarize(res))
		}, nil
	case "json":
		return report.WriteJSON, nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
