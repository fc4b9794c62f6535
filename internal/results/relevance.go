package results

import (
	"strconv"
	"strings"
	"time"
)

// TrustedDomains earn a relevance boost when they host a result.
var TrustedDomains = []string{
	"gartner.com", "forrester.com", "mckinsey.com", "deloitte.com",
	"statista.com", "idc.com", "bloomberg.com", "reuters.com",
}

type scorer struct {
	years []string
}

func newScorer(now time.Time) scorer {
	y := now.Year()
	return scorer{years: []string{strconv.Itoa(y), strconv.Itoa(y + 1)}}
}

// score is +2 per query term in the title, +1 per term in the snippet, +3 for
// a trusted domain and +2 when the snippet names the current or next year.
func (s scorer) score(q string, it Item) float64 {
	title := strings.ToLower(it.Title)
	snippet := strings.ToLower(it.Snippet)

	var score float64
	for _, term := range strings.Fields(strings.ToLower(q)) {
		if strings.Contains(title, term) {
			score += 2
		}
		if strings.Contains(snippet, term) {
			score += 1
		}
	}

	for _, d := range TrustedDomains {
		if strings.Contains(it.Source, d) {
			score += 3
			break
		}
	}

	for _, y := range s.years {
		if strings.Contains(snippet, y) {
			score += 2
			break
		}
	}
	return score
}

// Score computes the relevance of a single item against query text.
func Score(q string, it Item, now time.Time) float64 {
	return newScorer(now).score(q, it)
}
