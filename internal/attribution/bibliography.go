package attribution

import "math"

// Entry is one bibliography line.
type Entry struct {
	Citation    string      `json:"citation"`
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	Domain      string      `json:"domain"`
	Tier        Tier        `json:"quality_tier"`
	ContentType ContentType `json:"content_type"`
	Confidence  float64     `json:"confidence_score"`
}

// Summary aggregates counts over the bibliography.
type Summary struct {
	TotalSources      int            `json:"total_sources"`
	ByTier            map[string]int `json:"by_tier"`
	ByContentType     map[string]int `json:"by_content_type"`
	AverageConfidence float64        `json:"average_confidence"`
	DistinctDomains   int            `json:"distinct_domains"`
}

// Bibliography groups every source by tier and by content type.
type Bibliography struct {
	ByTier        map[string][]Entry `json:"by_tier"`
	ByContentType map[string][]Entry `json:"by_content_type"`
	Summary       Summary            `json:"summary"`
}

// Bibliography builds the grouped bibliography. Entries within a group follow
// the Sources ordering.
func (a *Attributor) Bibliography() Bibliography {
	sources := a.Sources()

	b := Bibliography{
		ByTier:        make(map[string][]Entry),
		ByContentType: make(map[string][]Entry),
		Summary: Summary{
			TotalSources:  len(sources),
			ByTier:        make(map[string]int),
			ByContentType: make(map[string]int),
		},
	}

	domains := make(map[string]struct{})
	var conf float64
	for _, s := range sources {
		e := Entry{
			Citation:    s.Citation,
			URL:         s.URL,
			Title:       s.Title,
			Domain:      s.Domain,
			Tier:        s.Tier,
			ContentType: s.ContentType,
			Confidence:  s.Confidence,
		}
		tier := s.Tier.String()
		b.ByTier[tier] = append(b.ByTier[tier], e)
		b.ByContentType[string(s.ContentType)] = append(b.ByContentType[string(s.ContentType)], e)
		b.Summary.ByTier[tier]++
		b.Summary.ByContentType[string(s.ContentType)]++
		domains[s.Domain] = struct{}{}
		conf += s.Confidence
	}

	b.Summary.DistinctDomains = len(domains)
	if len(sources) > 0 {
		b.Summary.AverageConfidence = math.Round(conf/float64(len(sources))*1000) / 1000
	}
	return b
}
