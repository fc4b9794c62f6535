// Package analyzer holds the text helpers shared by the insight stages:
// sentence splitting, term matching, keyword windows and key-sentence picks.
package analyzer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TermMatch represents occurrences of a term within one document.
type TermMatch struct {
	Term      string   `json:"term"`
	URL       string   `json:"url,omitempty"`
	Domain    string   `json:"domain,omitempty"`
	Count     int      `json:"count"`
	Sentences []string `json:"sentences"`
}

// Sentence holds original and lowercase versions together.
type Sentence struct {
	Text  string
	Lower string
}

// FindTermMatches scans content for each term (case-insensitive) and returns
// one TermMatch per term that occurs, with every sentence containing it.
func FindTermMatches(content, url, domain string, terms []string) []TermMatch {
	if len(content) == 0 || len(terms) == 0 {
		return nil
	}

	results := make([]TermMatch, 0, len(terms))
	lowerContent := strings.ToLower(content)
	sentences := Split(content)

	for _, term := range terms {
		lowerTerm := strings.ToLower(term)
		count := strings.Count(lowerContent, lowerTerm)
		if count == 0 {
			continue
		}

		var matched []string
		for _, s := range sentences {
			if strings.Contains(s.Lower, lowerTerm) {
				matched = append(matched, s.Text)
			}
		}

		results = append(results, TermMatch{
			Term:      term,
			URL:       url,
			Domain:    domain,
			Count:     count,
			Sentences: matched,
		})
	}
	return results
}

// Split breaks text into sentences on '.', '!' and '?'. A period only ends a
// sentence when followed by whitespace or the end of text, so "2.5" stays
// whole. Delimiters are kept; empty sentences are dropped.
func Split(text string) []Sentence {
	if len(text) == 0 {
		return nil
	}

	// Roughly 1 sentence per 50 chars.
	sentences := make([]Sentence, 0, max(1, len(text)/50))
	start := 0

	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		sentences = append(sentences, Sentence{Text: s, Lower: strings.ToLower(s)})
	}

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if r == '.' && i < len(text) {
			next, _ := utf8.DecodeRuneInString(text[i:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		for i < len(text) && (text[i] == '.' || text[i] == '!' || text[i] == '?') {
			i++
		}
		add(text[start:i])
		start = i
	}

	if start < len(text) {
		add(text[start:])
	}
	return sentences
}

// Texts returns the original text of each sentence.
func Texts(sentences []Sentence) []string {
	out := make([]string, len(sentences))
	for i, s := range sentences {
		out[i] = s.Text
	}
	return out
}

// Window returns text from before bytes ahead of idx to after bytes past it,
// clamped to the text and trimmed of surrounding whitespace.
func Window(text string, idx, before, after int) string {
	start := max(0, idx-before)
	end := min(len(text), idx+after)
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return strings.TrimSpace(text[start:end])
}

// Unique appends values to dst in first-seen order, skipping empties and
// anything already present, until dst holds limit entries. limit <= 0 means
// no limit.
func Unique(dst []string, limit int, values ...string) []string {
	seen := make(map[string]struct{}, len(dst))
	for _, v := range dst {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if limit > 0 && len(dst) >= limit {
			break
		}
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}

var importanceIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:key|important|significant|major|primary|main|critical)\b`),
	regexp.MustCompile(`(?i)\b(?:according to|research shows|study found|data indicates)\b`),
	regexp.MustCompile(`(?i)\b(?:million|billion|percent|growth|increase|decrease)\b`),
	regexp.MustCompile(`(?i)\b(?:trend|pattern|insight|finding|conclusion)\b`),
}

var figureRe = regexp.MustCompile(`(?i)\d+(?:\.\d+)?%|\$[\d,]+|\d+\s*(?:million|billion)`)

// KeyPoints picks up to 8 information-dense sentences of 50 to 300 chars.
// Each importance indicator counts 1 and a concrete figure counts 2; a
// sentence needs 2 to qualify.
func KeyPoints(text string) []string {
	var out []string
	for _, s := range Split(text) {
		if n := len(s.Text); n < 50 || n > 300 {
			continue
		}
		score := 0
		for _, re := range importanceIndicators {
			if re.MatchString(s.Text) {
				score++
			}
		}
		if figureRe.MatchString(s.Text) {
			score += 2
		}
		if score >= 2 {
			out = append(out, s.Text)
			if len(out) == 8 {
				break
			}
		}
	}
	return out
}

var insightPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)market.*?(?:size|value|worth|revenue)`),
	regexp.MustCompile(`(?i)industry.*?(?:growth|trend|outlook|forecast)`),
	regexp.MustCompile(`(?i)customer.*?(?:behavior|preference|demand|need)`),
	regexp.MustCompile(`(?i)competitor.*?(?:analysis|landscape|positioning)`),
	regexp.MustCompile(`(?i)technology.*?(?:adoption|innovation|disruption)`),
	regexp.MustCompile(`(?i)business.*?(?:model|strategy|opportunity)`),
}

// KeySentences picks up to 10 sentences of 100 to 400 chars that talk about
// markets, industries, customers, competitors, technology or business models.
func KeySentences(text string) []string {
	var out []string
	for _, s := range Split(text) {
		if n := len(s.Text); n < 100 || n > 400 {
			continue
		}
		for _, re := range insightPatterns {
			if re.MatchString(s.Text) {
				out = append(out, s.Text)
				break
			}
		}
		if len(out) == 10 {
			break
		}
	}
	return out
}
