package results

import (
	"regexp"
	"strings"
)

const (
	StatMarketSize      = "market_size"
	StatGrowthRate      = "growth_rate"
	StatCount           = "count"
	StatProjectionYear  = "projection_year"
	StatPercentageShare = "percentage_share"
	StatAnswerBox       = "answer_box"
)

// Statistic is a numeric fact pulled out of result text.
type Statistic struct {
	Type       string   `json:"type"`
	Values     []string `json:"values,omitempty"`
	Context    string   `json:"context"`
	RawText    string   `json:"raw_text,omitempty"`
	Source     string   `json:"source,omitempty"`
	Query      string   `json:"query,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

type statPattern struct {
	kind string
	re   *regexp.Regexp
}

var snippetPatterns = []statPattern{
	{StatMarketSize, regexp.MustCompile(`(?i)\$?([\d,]+\.?\d*)\s*(billion|million|trillion)`)},
	{StatGrowthRate, regexp.MustCompile(`(?i)([\d,]+\.?\d*)\s*%\s*(growth|increase|decrease|CAGR)`)},
	{StatCount, regexp.MustCompile(`(?i)([\d,]+)\s*(companies|customers|users|businesses)`)},
	{StatProjectionYear, regexp.MustCompile(`(?i)by\s*(202\d|203\d)`)},
	{StatPercentageShare, regexp.MustCompile(`(?i)([\d,]+\.?\d*)\s*%\s*of\s*(\w+)`)},
}

// ExtractStatistics returns every inline statistic found in text.
func ExtractStatistics(text, q string) []Statistic {
	if text == "" {
		return nil
	}
	var out []Statistic
	ctx := truncate(text, 100)
	for _, p := range snippetPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			out = append(out, Statistic{
				Type:    p.kind,
				Values:  m[1:],
				Context: ctx,
				RawText: text,
				Query:   q,
			})
		}
	}
	return out
}

func dedupeStatistics(stats []Statistic) []Statistic {
	if len(stats) == 0 {
		return stats
	}
	seen := make(map[string]struct{}, len(stats))
	out := stats[:0:0]
	for _, s := range stats {
		key := s.Type + "\x00" + strings.Join(s.Values, "\x01") + "\x00" + s.RawText
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) == maxPerBucket {
			break
		}
	}
	return out
}

var quoteRe = regexp.MustCompile(`["“][^"”]{20,}["”]`)
var attributionRe = regexp.MustCompile(`(?i)\b(said|says|according to|noted|explained|commented)\b`)

func isQuote(s string) bool {
	return quoteRe.MatchString(s) && attributionRe.MatchString(s)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
