// Package attribution keeps one source record per URL seen during a research
// run and builds the bibliography from them.
package attribution

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/araddon/dateparse"

	"github.com/FranksOps/marketscout/internal/results"
)

// Tier is a coarse credibility class; 1 is the most credible.
type Tier int

const (
	Tier1 Tier = iota + 1
	Tier2
	Tier3
	Tier4
)

func (t Tier) String() string {
	return "Tier " + strconv.Itoa(int(t))
}

// ContentType is the inferred kind of document behind a source.
type ContentType string

const (
	ContentAcademic       ContentType = "academic_paper"
	ContentIndustryReport ContentType = "industry_report"
	ContentFinancial      ContentType = "financial_report"
	ContentWhitePaper     ContentType = "white_paper"
	ContentPressRelease   ContentType = "press_release"
	ContentGovernment     ContentType = "government_data"
	ContentConference     ContentType = "conference_presentation"
	ContentNews           ContentType = "news_article"
)

// Origin records which phase produced a source.
type Origin string

const (
	OriginSearch Origin = "search"
	OriginScrape Origin = "scrape"
)

const defaultAuthority = 40

// DataSource is the attribution record for one URL.
type DataSource struct {
	URL             string      `json:"url"`
	Title           string      `json:"title"`
	Domain          string      `json:"domain"`
	Organization    string      `json:"organization"`
	PublishedAt     *time.Time  `json:"publication_date,omitempty"`
	DomainAuthority int         `json:"domain_authority"`
	Tier            Tier        `json:"quality_tier"`
	ContentType     ContentType `json:"content_type"`
	Confidence      float64     `json:"confidence_score"`
	Relevance       float64     `json:"relevance_score"`
	Quality         float64     `json:"quality_score"`
	Citation        string      `json:"citation"`
	Query           string      `json:"query,omitempty"`
	Origin          Origin      `json:"origin"`
	AccessedAt      time.Time   `json:"access_date"`
}

// Input describes something to attribute.
type Input struct {
	URL     string
	Title   string
	Snippet string
	Query   string
	// Date is a free-form publication date; parsed when recognizable.
	Date   string
	Origin Origin
}

// Attributor accumulates sources for one run. It is safe for concurrent use.
type Attributor struct {
	mu      sync.Mutex
	sources []*DataSource
	byURL   map[string]*DataSource
	now     func() time.Time
}

// New creates an empty attributor. A nil clock uses time.Now.
func New(now func() time.Time) *Attributor {
	if now == nil {
		now = time.Now
	}
	return &Attributor{byURL: make(map[string]*DataSource), now: now}
}

// Attribute records in and returns its source. When the URL was already seen
// the existing record is returned unchanged and created is false. Inputs with
// no usable URL return nil.
func (a *Attributor) Attribute(in Input) (src *DataSource, created bool) {
	key := normalizeURL(in.URL)
	if key == "" {
		return nil, false
	}
	domain := results.Domain(key)
	if domain == "" {
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, ok := a.byURL[key]; ok {
		return existing, false
	}

	now := a.now()
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = domain
	}
	text := strings.ToLower(title + " " + in.Snippet)

	ds := &DataSource{
		URL:             key,
		Title:           title,
		Domain:          domain,
		Organization:    organization(domain),
		PublishedAt:     parseDate(in.Date),
		DomainAuthority: authority(domain),
		Query:           in.Query,
		Origin:          in.Origin,
		AccessedAt:      now,
	}
	if ds.Origin == "" {
		ds.Origin = OriginSearch
	}
	ds.Tier = classify(domain, text)
	ds.ContentType = contentType(strings.ToLower(title + " " + key))
	ds.Confidence = confidence(ds.Tier, text+" "+in.Date, now)
	ds.Relevance = relevance(in.Query, text)
	ds.Quality = quality(ds.Tier, ds.DomainAuthority)
	ds.Citation = Citation(ds)

	a.byURL[key] = ds
	a.sources = append(a.sources, ds)
	return ds, true
}

// AttributeItems records every item that carries a link and returns how many
// new sources were created.
func (a *Attributor) AttributeItems(items []results.Item) int {
	n := 0
	for _, it := range items {
		if _, created := a.Attribute(Input{
			URL:     it.Link,
			Title:   it.Title,
			Snippet: it.Snippet,
			Query:   it.Query,
			Date:    it.Date,
			Origin:  OriginSearch,
		}); created {
			n++
		}
	}
	return n
}

// Len is the number of distinct sources.
func (a *Attributor) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sources)
}

// Sources returns copies of every record ordered by tier, then domain
// authority descending, then first-seen order.
func (a *Attributor) Sources() []DataSource {
	a.mu.Lock()
	out := make([]DataSource, len(a.sources))
	for i, s := range a.sources {
		out[i] = *s
	}
	a.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].DomainAuthority > out[j].DomainAuthority
	})
	return out
}

// QualityDistribution counts sources per tier label.
func (a *Attributor) QualityDistribution() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	dist := make(map[string]int, 4)
	for _, s := range a.sources {
		dist[s.Tier.String()]++
	}
	return dist
}

// Citation renders an APA-style citation for ds.
func Citation(ds *DataSource) string {
	year := "n.d."
	if ds.PublishedAt != nil {
		year = strconv.Itoa(ds.PublishedAt.Year())
	}
	return fmt.Sprintf("%s. (%s). %s. Retrieved from %s", ds.Organization, year, strings.TrimRight(ds.Title, "."), ds.URL)
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return ""
	}
	return raw
}

func matchDomain(domain, entry string) bool {
	if strings.HasPrefix(entry, ".") {
		return strings.HasSuffix(domain, entry) || strings.Contains(domain, entry+".")
	}
	return domain == entry || strings.HasSuffix(domain, "."+entry)
}

func inList(domain string, list []string) bool {
	for _, e := range list {
		if matchDomain(domain, e) {
			return true
		}
	}
	return false
}

func classify(domain, text string) Tier {
	switch {
	case inList(domain, tier1Domains):
		return Tier1
	case inList(domain, tier2Domains):
		return Tier2
	case inList(domain, tier3Domains):
		return Tier3
	}
	for _, w := range researchIndicators {
		if strings.Contains(text, w) {
			return Tier3
		}
	}
	return Tier4
}

func contentType(text string) ContentType {
	for _, r := range contentTypeRules {
		for _, k := range r.keywords {
			if strings.Contains(text, k) {
				return r.kind
			}
		}
	}
	return ContentNews
}

// authority prefers an exact domain entry over a suffix entry.
func authority(domain string) int {
	best, bestLen := defaultAuthority, 0
	for d, score := range domainAuthority {
		if matchDomain(domain, d) && len(d) > bestLen {
			best, bestLen = score, len(d)
		}
	}
	return best
}

func organization(domain string) string {
	for d, name := range organizations {
		if matchDomain(domain, d) {
			return name
		}
	}
	return domain
}

var metricRe = regexp.MustCompile(`%|\$|\bmillion\b|\bbillion\b`)

func confidence(t Tier, text string, now time.Time) float64 {
	c := 0.5
	switch t {
	case Tier1:
		c += 0.2
	case Tier2:
		c += 0.1
	}
	y := now.Year()
	if strings.Contains(text, strconv.Itoa(y)) || strings.Contains(text, strconv.Itoa(y-1)) {
		c += 0.1
	}
	if metricRe.MatchString(text) {
		c += 0.1
	}
	return clamp(c, 0, 1)
}

func relevance(q, text string) float64 {
	terms := strings.Fields(strings.ToLower(q))
	if len(terms) == 0 {
		return 0
	}
	hit := 0
	for _, t := range terms {
		if strings.Contains(text, t) {
			hit++
		}
	}
	return clamp(float64(hit)/float64(len(terms)), 0, 1)
}

var tierWeight = map[Tier]float64{Tier1: 1.0, Tier2: 0.8, Tier3: 0.6, Tier4: 0.4}

func quality(t Tier, auth int) float64 {
	return clamp(0.6*tierWeight[t]+0.4*float64(auth)/100, 0, 1)
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
