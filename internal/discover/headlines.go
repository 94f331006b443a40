package discover

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

var versusRe = regexp.MustCompile(`(?i)\s+(?:vs\.?|versus)\s+`)

const maxNameWords = 3

// candidatesFromHeadlines pulls the names on the other side of "vs" in
// headlines, ordered by how often they appear.
func candidatesFromHeadlines(titles []string, company string) []string {
	self := brand.NormalizeName(company)
	counts := map[string]int{}
	display := map[string]string{}

	add := func(name string) {
		key := brand.NormalizeName(name)
		if key == "" || key == self {
			return
		}
		if _, ok := display[key]; !ok {
			display[key] = name
		}
		counts[key]++
	}

	for _, title := range titles {
		parts := versusRe.Split(title, -1)
		for i := 0; i+1 < len(parts); i++ {
			add(trailingName(parts[i]))
			add(leadingName(parts[i+1]))
		}
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = display[k]
	}
	return out
}

// headlineWords are title-case words that never start or end a name.
var headlineWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true, "in": true, "for": true,
	"is": true, "which": true, "why": true, "how": true, "what": true, "best": true, "top": true,
	"review": true, "comparing": true, "comparison": true, "compared": true, "better": true,
	"new": true, "vs": true, "versus": true, "alternatives": true, "wins": true,
}

// leadingName returns the run of capitalized words that starts s.
func leadingName(s string) string {
	var words []string
	for _, raw := range strings.Fields(s) {
		w := strings.TrimRight(raw, ",:;!?\"'")
		if !nameWord(w) || len(words) == maxNameWords {
			break
		}
		words = append(words, w)
		if w != raw {
			break
		}
	}
	return strings.Join(words, " ")
}

// trailingName returns the run of capitalized words that ends s.
func trailingName(s string) string {
	fields := strings.Fields(s)
	var words []string
	for i := len(fields) - 1; i >= 0 && len(words) < maxNameWords; i-- {
		raw := fields[i]
		if strings.HasSuffix(raw, ":") && len(words) > 0 {
			break
		}
		w := strings.Trim(raw, ",:;!?\"'")
		if !nameWord(w) {
			break
		}
		words = append([]string{w}, words...)
	}
	return strings.Join(words, " ")
}

func nameWord(w string) bool {
	if w == "" || headlineWords[strings.ToLower(w)] {
		return false
	}
	r := []rune(w)[0]
	return unicode.IsUpper(r) || unicode.IsDigit(r)
}
