package scrape

import "strings"

type industryRule struct {
	name     string
	keywords []string
}

// Order matters: on equal hits the earlier rule wins.
var industryRules = []industryRule{
	{"web scraping", []string{"scraping", "scraper", "crawl", "crawler", "web data"}},
	{"developer tools", []string{"developer", "api", "sdk", "open source", "devops"}},
	{"artificial intelligence", []string{"ai ", "artificial intelligence", "machine learning", "llm", "model"}},
	{"e-commerce", []string{"shop", "store", "cart", "checkout", "ecommerce", "e-commerce"}},
	{"fintech", []string{"payment", "banking", "finance", "invoice", "fintech"}},
	{"healthcare", []string{"health", "patient", "clinic", "medical"}},
	{"marketing", []string{"marketing", "seo", "campaign", "brand", "advertising"}},
	{"cybersecurity", []string{"security", "threat", "compliance", "encryption"}},
	{"software", []string{"software", "saas", "platform", "cloud"}},
}

var marketRules = []industryRule{
	{"enterprise", []string{"enterprise", "fortune 500"}},
	{"small business", []string{"small business", "smb", "startups"}},
	{"developers", []string{"developers", "engineers"}},
	{"consumers", []string{"consumers", "families", "personal"}},
}

func detectIndustry(corpus string) string {
	best, bestHits := "", 0
	for _, r := range industryRules {
		hits := 0
		for _, k := range r.keywords {
			hits += strings.Count(corpus, k)
		}
		if hits > bestHits {
			best, bestHits = r.name, hits
		}
	}
	return best
}

func detectMarkets(corpus string) []string {
	var out []string
	for _, r := range marketRules {
		for _, k := range r.keywords {
			if strings.Contains(corpus, k) {
				out = append(out, r.name)
				break
			}
		}
	}
	return out
}
