package scraper

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/FranksOps/marketscout/internal/analyzer"
	"github.com/FranksOps/marketscout/internal/results"
)

const (
	maxContentChars  = 50_000
	maxTitleChars    = 200
	minContentChars  = 500
	noTitle          = "No title found"
	maxKeywords      = 10
	maxDescription   = 500
	minSentenceChars = 20
	sentenceKeyChars = 50
	// thinPageScore caps pages shorter than minContentChars below any
	// sensible retention bar.
	thinPageScore = 40
)

// Metadata is what a page says about itself.
type Metadata struct {
	Domain      string   `json:"domain"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Author      string   `json:"author,omitempty"`
	PublishDate string   `json:"publish_date,omitempty"`
	ArticleType string   `json:"article_type"`
}

// Page is a cleaned, scored web page.
type Page struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	TextLength int       `json:"content_length"`
	Quality    float64   `json:"quality_score"`
	Metadata   Metadata  `json:"metadata"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

var removeSelectors = strings.Join([]string{
	"script", "style", "nav", "footer", "header", "aside", "noscript", "iframe", "form",
	".ad", ".ads", ".advertisement", "[class*='advert']", "[id*='advert']",
	"[class*='cookie']", "[id*='cookie']",
}, ", ")

var titleSelectors = []string{
	"h1",
	"title",
	`meta[property="og:title"]`,
	`meta[name="twitter:title"]`,
	".title",
	".headline",
}

var contentSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	".content",
	".post-content",
	".article-content",
	".main-content",
	"#content",
	"#main",
	".entry-content",
}

var noisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)cookie policy.*?accept`),
	regexp.MustCompile(`(?i)subscribe.*?newsletter`),
	regexp.MustCompile(`(?i)follow us on.*?social`),
	regexp.MustCompile(`(?i)share this.*?article`),
	regexp.MustCompile(`(?i)print this page`),
	regexp.MustCompile(`(?i)email this article`),
	regexp.MustCompile(`(?i)related articles?`),
	regexp.MustCompile(`(?i)you might also like`),
	regexp.MustCompile(`(?i)recommended for you`),
}

// Extract parses an HTML document fetched from pageURL into a Page.
func Extract(pageURL string, body []byte, now time.Time) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("scraper: parse html: %w", err)
	}

	// Read before removal: bylines often sit inside header elements.
	meta := extractMetadata(doc, pageURL)

	doc.Find(removeSelectors).Remove()

	content := mainContent(doc)
	p := &Page{
		ID:         uuid.NewString(),
		URL:        pageURL,
		Title:      extractTitle(doc),
		Content:    content,
		TextLength: utf8.RuneCountInString(content),
		Metadata:   meta,
		ScrapedAt:  now,
	}
	p.Quality = Quality(content, utf8.RuneCount(body))
	return p, nil
}

func extractTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		var t string
		if goquery.NodeName(s) == "meta" {
			t, _ = s.Attr("content")
		} else {
			t = s.Text()
		}
		t = strings.Join(strings.Fields(t), " ")
		if utf8.RuneCountInString(t) > 10 {
			return truncateRunes(t, maxTitleChars)
		}
	}
	return noTitle
}

// mainContent takes the longest element of the first content selector that
// matches anything, and falls back to the whole body when that is short.
func mainContent(doc *goquery.Document) string {
	var text string
	for _, sel := range contentSelectors {
		found := doc.Find(sel)
		if found.Length() == 0 {
			continue
		}
		found.Each(func(_ int, s *goquery.Selection) {
			if t := spacedText(s); len(t) > len(text) {
				text = t
			}
		})
		break
	}

	if utf8.RuneCountInString(text) < minContentChars {
		if body := doc.Find("body"); body.Length() > 0 {
			text = spacedText(body)
		}
	}
	return truncateRunes(CleanText(text), maxContentChars)
}

// spacedText joins the text nodes under s with single spaces so adjacent
// block elements do not run together.
func spacedText(s *goquery.Selection) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return sb.String()
}

// CleanText collapses whitespace, strips boilerplate phrases and drops short
// or repeated sentences. Sentences repeat when their first 50 lowercased
// characters match.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.Join(strings.Fields(text), " ")
	for _, re := range noisePatterns {
		text = re.ReplaceAllString(text, "")
	}

	seen := make(map[string]struct{})
	var kept []string
	for _, s := range analyzer.Split(text) {
		if utf8.RuneCountInString(strings.TrimRight(s.Text, ".!?")) <= minSentenceChars {
			continue
		}
		key := truncateRunes(s.Lower, sentenceKeyChars)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, s.Text)
	}
	return strings.Join(kept, " ")
}

var (
	percentRe  = regexp.MustCompile(`\d+(?:\.\d+)?%`)
	currencyRe = regexp.MustCompile(`\$[\d,]+(?:\.\d+)?[MBK]?\b`)
	yearRe     = regexp.MustCompile(`\b\d{4}\b`)
	marketRe   = regexp.MustCompile(`(?i)\b(?:market|revenue|growth|analysis|industry|report)\b`)
	bigNumRe   = regexp.MustCompile(`(?i)\b(?:million|billion|trillion)\b`)
)

// Quality scores extracted content from 0 to 100 given the size of the raw
// HTML it came from. Content under 500 characters never scores above 40.
func Quality(content string, htmlLength int) float64 {
	if content == "" || htmlLength == 0 {
		return 0
	}

	var score float64
	n := utf8.RuneCountInString(content)
	switch {
	case n > 5000:
		score += 30
	case n > 2000:
		score += 25
	case n > 1000:
		score += 20
	case n > 500:
		score += 15
	case n > 200:
		score += 10
	}

	ratio := float64(n) / float64(htmlLength)
	switch {
	case ratio > 0.1:
		score += 25
	case ratio > 0.05:
		score += 20
	case ratio > 0.02:
		score += 15
	case ratio > 0.01:
		score += 10
	}

	for _, re := range []*regexp.Regexp{percentRe, currencyRe, yearRe, marketRe, bigNumRe} {
		if re.MatchString(content) {
			score += 5
		}
	}

	sentences := analyzer.Split(content)
	words := 0
	for _, s := range sentences {
		words += len(strings.Fields(s.Text))
	}
	avg := float64(words) / float64(max(len(sentences), 1))
	switch {
	case avg >= 10 && avg <= 25:
		score += 20
	case avg >= 5 && avg <= 35:
		score += 15
	case avg >= 5:
		score += 10
	}

	if n < minContentChars {
		return min(thinPageScore, score)
	}
	return min(100, score)
}

func extractMetadata(doc *goquery.Document, pageURL string) Metadata {
	m := Metadata{Domain: results.Domain(pageURL), ArticleType: articleType(pageURL)}

	if d := metaContent(doc, `meta[name="description"]`, `meta[property="og:description"]`); d != "" {
		m.Description = truncateRunes(d, maxDescription)
	}

	if kw := metaContent(doc, `meta[name="keywords"]`); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				m.Keywords = append(m.Keywords, k)
			}
			if len(m.Keywords) == maxKeywords {
				break
			}
		}
	}

	for _, sel := range []string{`meta[name="author"]`, `meta[property="article:author"]`, ".author", ".byline", `[rel="author"]`} {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if goquery.NodeName(s) == "meta" {
			m.Author, _ = s.Attr("content")
		} else {
			m.Author = strings.TrimSpace(s.Text())
		}
		break
	}

	for _, sel := range []string{`meta[property="article:published_time"]`, `meta[name="publish_date"]`, "time[datetime]", ".publish-date", ".date"} {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		switch goquery.NodeName(s) {
		case "meta":
			m.PublishDate, _ = s.Attr("content")
		case "time":
			m.PublishDate, _ = s.Attr("datetime")
		default:
			m.PublishDate = strings.TrimSpace(s.Text())
		}
		break
	}
	return m
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v, ok := doc.Find(sel).First().Attr("content"); ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

func articleType(pageURL string) string {
	u := strings.ToLower(pageURL)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(u, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("news", "article", "blog", "post"):
		return "article"
	case has("report", "research", "study"):
		return "report"
	case has("about", "company", "profile"):
		return "company_info"
	default:
		return "general"
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
