package attribution

import (
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/marketscout/internal/results"
)

var refNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return refNow }

func TestAttribute_UniqueURL(t *testing.T) {
	a := New(fixedClock)

	first, created := a.Attribute(Input{URL: "https://www.gartner.com/report", Title: "First"})
	if !created || first == nil {
		t.Fatalf("expected new source")
	}
	second, created := a.Attribute(Input{URL: "https://www.gartner.com/report#section", Title: "Second"})
	if created {
		t.Errorf("duplicate URL created a new source")
	}
	if second != first || second.Title != "First" {
		t.Errorf("expected first record to win, got %+v", second)
	}
	if a.Len() != 1 {
		t.Errorf("expected 1 source, got %d", a.Len())
	}
}

func TestAttribute_RejectsBadURL(t *testing.T) {
	a := New(fixedClock)
	for _, u := range []string{"", "ftp://files.example.com/x", "not a url", "https://"} {
		if ds, created := a.Attribute(Input{URL: u}); ds != nil || created {
			t.Errorf("%q: expected no source", u)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url, title string
		want       Tier
	}{
		{"https://www.census.gov/data", "Population", Tier1},
		{"https://cs.stanford.edu/paper", "Paper", Tier1},
		{"https://research.gartner.com/x", "Hype cycle", Tier1},
		{"https://www.reuters.com/markets", "Markets", Tier2},
		{"https://techcrunch.com/2024/01/01/x", "Startup raises", Tier3},
		{"https://randomblog.io/post", "New survey of buyers", Tier3},
		{"https://randomblog.io/post", "My thoughts", Tier4},
	}
	for _, tt := range tests {
		a := New(fixedClock)
		ds, _ := a.Attribute(Input{URL: tt.url, Title: tt.title})
		if ds.Tier != tt.want {
			t.Errorf("%s %q: tier = %v, want %v", tt.url, tt.title, ds.Tier, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := []struct {
		title, url string
		want       ContentType
	}{
		{"Journal of Finance", "https://example.com/a", ContentAcademic},
		{"Global Fintech Market Size Report", "https://example.com/a", ContentIndustryReport},
		{"Acme Annual Report 2023", "https://example.com/a", ContentFinancial},
		{"Payments whitepaper", "https://example.com/a", ContentWhitePaper},
		{"Acme announces new product", "https://example.com/a", ContentPressRelease},
		{"Labor data", "https://www.bls.gov/a", ContentGovernment},
		{"Fintech Summit keynote", "https://example.com/a", ContentConference},
		{"Something happened", "https://example.com/a", ContentNews},
	}
	for _, tt := range tests {
		if got := contentType(strings.ToLower(tt.title + " " + tt.url)); got != tt.want {
			t.Errorf("%q: contentType = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestAttribute_Scores(t *testing.T) {
	a := New(fixedClock)
	ds, _ := a.Attribute(Input{
		URL:     "https://www.statista.com/fintech",
		Title:   "Fintech market size",
		Snippet: "The market reached $300 billion in 2024",
		Query:   "fintech market size forecast",
	})

	// 0.5 base + 0.2 tier 1 + 0.1 recency + 0.1 metrics.
	if diff := ds.Confidence - 0.9; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("confidence = %v, want 0.9", ds.Confidence)
	}
	// fintech, market, size present; forecast absent.
	if ds.Relevance != 0.75 {
		t.Errorf("relevance = %v, want 0.75", ds.Relevance)
	}
	if ds.DomainAuthority != 90 || ds.Organization != "Statista" {
		t.Errorf("unexpected authority/org: %d %q", ds.DomainAuthority, ds.Organization)
	}
	if ds.Quality <= 0 || ds.Quality > 1 {
		t.Errorf("quality out of range: %v", ds.Quality)
	}
}

func TestAttribute_DefaultAuthorityAndOrganization(t *testing.T) {
	a := New(fixedClock)
	ds, _ := a.Attribute(Input{URL: "https://blog.unknown-vendor.io/post", Title: "Post"})
	if ds.DomainAuthority != 40 {
		t.Errorf("authority = %d, want 40", ds.DomainAuthority)
	}
	if ds.Organization != "blog.unknown-vendor.io" {
		t.Errorf("organization = %q", ds.Organization)
	}
	gov, _ := a.Attribute(Input{URL: "https://www.census.gov/x", Title: "Census"})
	if gov.DomainAuthority != 90 {
		t.Errorf("gov authority = %d, want 90", gov.DomainAuthority)
	}
}

func TestCitation(t *testing.T) {
	a := New(fixedClock)

	dated, _ := a.Attribute(Input{URL: "https://www.reuters.com/a", Title: "Payments boom.", Date: "2023-05-04"})
	if want := "Reuters. (2023). Payments boom. Retrieved from https://www.reuters.com/a"; dated.Citation != want {
		t.Errorf("citation = %q, want %q", dated.Citation, want)
	}

	undated, _ := a.Attribute(Input{URL: "https://example.com/b", Title: "Undated", Date: "3 days ago"})
	if want := "example.com. (n.d.). Undated. Retrieved from https://example.com/b"; undated.Citation != want {
		t.Errorf("citation = %q, want %q", undated.Citation, want)
	}
}

func TestSourcesOrderingAndBibliography(t *testing.T) {
	a := New(fixedClock)
	a.AttributeItems([]results.Item{
		{Link: "https://randomblog.io/a", Title: "Thoughts"},
		{Link: "https://www.forbes.com/a", Title: "Forbes piece"},
		{Link: "https://www.gartner.com/a", Title: "Gartner research"},
		{Link: "https://www.reuters.com/a", Title: "Reuters piece"},
		{Link: "", Title: "no link"},
	})

	got := a.Sources()
	wantDomains := []string{"gartner.com", "reuters.com", "forbes.com", "randomblog.io"}
	if len(got) != len(wantDomains) {
		t.Fatalf("expected %d sources, got %d", len(wantDomains), len(got))
	}
	for i, d := range wantDomains {
		if got[i].Domain != d {
			t.Errorf("source %d: domain = %q, want %q", i, got[i].Domain, d)
		}
	}

	bib := a.Bibliography()
	if bib.Summary.TotalSources != 4 || bib.Summary.DistinctDomains != 4 {
		t.Errorf("unexpected summary: %+v", bib.Summary)
	}
	if len(bib.ByTier["Tier 2"]) != 2 || bib.Summary.ByTier["Tier 1"] != 1 {
		t.Errorf("unexpected tier grouping: %+v", bib.Summary.ByTier)
	}
	if dist := a.QualityDistribution(); dist["Tier 4"] != 1 {
		t.Errorf("unexpected distribution: %v", dist)
	}
}
