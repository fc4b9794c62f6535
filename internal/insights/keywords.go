package insights

import (
	"slices"
	"strings"

	"github.com/FranksOps/marketscout/internal/analyzer"
)

type industry struct {
	name     string
	keywords []string
}

// industries is checked in order; an industry matches when one of its first
// three keywords appears in the query.
var industries = []industry{
	{"recruitment", []string{"recruitment", "recruiting", "hiring", "hr tech", "talent", "staffing", "human resource", "applicant tracking", "ats"}},
	{"saas", []string{"saas", "software as a service", "cloud software", "subscription software", "enterprise software"}},
	{"fintech", []string{"fintech", "financial technology", "payment", "banking", "lending", "insurance tech", "insurtech"}},
	{"healthcare", []string{"healthcare", "health tech", "medical", "hospital", "clinical", "patient", "telemedicine", "digital health"}},
	{"ecommerce", []string{"ecommerce", "e-commerce", "online retail", "marketplace", "online shopping", "digital commerce"}},
	{"edtech", []string{"edtech", "education technology", "learning", "training", "online education", "e-learning"}},
	{"martech", []string{"martech", "marketing technology", "advertising", "marketing automation", "crm", "customer data"}},
	{"proptech", []string{"proptech", "property technology", "real estate tech", "property management", "realestate"}},
	{"agtech", []string{"agtech", "agriculture technology", "farming", "agricultural", "agritech"}},
	{"logistics", []string{"logistics", "supply chain", "shipping", "freight", "delivery", "transportation tech"}},
	{"cybersecurity", []string{"cybersecurity", "security software", "data protection", "network security", "infosec"}},
	{"ai", []string{"artificial intelligence", "machine learning", "deep learning", "ai platform", "ml ops"}},
	{"blockchain", []string{"blockchain", "crypto", "cryptocurrency", "defi", "web3", "distributed ledger"}},
	{"iot", []string{"iot", "internet of things", "connected devices", "smart home", "industrial iot", "sensors"}},
}

var (
	anchorWords = []string{"industry", "market", "tech", "technology", "software", "platform"}
	commonWords = []string{"market", "size", "trends", "analysis", "growth"}
	stopWords   = []string{"market", "size", "trends", "analysis", "growth", "total", "addressable"}
	fallback    = []string{"technology", "software"}
)

const maxDerivedKeywords = 5

// IndustryKeywords returns the terms that mark text as being about the
// industry a query targets. Known industries come from a curated table;
// otherwise terms are derived from the query itself.
func IndustryKeywords(query string) []string {
	q := strings.ToLower(query)
	for _, ind := range industries {
		if containsAny(q, ind.keywords[:3]) {
			return ind.keywords
		}
	}

	words := strings.Fields(q)
	var derived []string
	for i, w := range words {
		if i > 0 && slices.Contains(anchorWords, w) {
			derived = analyzer.Unique(derived, 0, words[i-1], words[i-1]+" "+w)
		}
		if len(w) > 4 && !slices.Contains(commonWords, w) {
			derived = analyzer.Unique(derived, 0, w)
		}
	}
	if len(derived) > 0 {
		return head(derived, maxDerivedKeywords)
	}

	var significant []string
	for _, w := range words {
		if len(w) > 3 && !slices.Contains(stopWords, w) {
			significant = analyzer.Unique(significant, maxDerivedKeywords, w)
		}
	}
	if len(significant) > 0 {
		return significant
	}
	return slices.Clone(fallback)
}
