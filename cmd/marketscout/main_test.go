package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/FranksOps/marketscout/internal/engine"
	"github.com/FranksOps/marketscout/internal/insights"
	"github.com/FranksOps/marketscout/internal/results"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWriter(t *testing.T) {
	res := &engine.Result{RawResults: &results.Buckets{}, MarketInsights: insights.Stub(), Degraded: true}

	for format, want := range map[string]string{
		"text": "Market Research Summary",
		"json": `"degraded": true`,
		"html": "<title>Market Research Report</title>",
	} {
		write, err := writer(format)
		if err != nil {
			t.Fatalf("writer(%q) error = %v", format, err)
		}
		var buf bytes.Buffer
		if err := write(&buf, res); err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if !strings.Contains(buf.String(), want) {
			t.Errorf("%s output missing %q", format, want)
		}
	}

	if _, err := writer("pdf"); err == nil {
		t.Error("expected error for unknown format")
	}
}
