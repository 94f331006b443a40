// Package extract finds mentions of the company and its competitors in
// provider answers. Extraction is a pure function of the response text.
package extract

import (
	"sort"
	"strings"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

const (
	fullConfidence    = 1.0
	variantConfidence = 0.8
	minVariantLen     = 3
	maxGapLen         = 3
)

type variant struct {
	words      []string
	subject    int
	confidence float64
}

// Extractor holds the name variants of a fixed subject list.
type Extractor struct {
	subjects []brand.Subject
	variants []variant
}

// Subjects returns the company followed by its competitors.
func Subjects(company brand.Company, competitors []brand.Competitor) []brand.Subject {
	out := []brand.Subject{{Name: company.Name, Kind: brand.SubjectCompany}}
	for _, c := range competitors {
		out = append(out, brand.Subject{Name: c.Name, Kind: brand.SubjectCompetitor})
	}
	return out
}

// New builds an extractor. companyDomain adds the domain and its root label
// as variants of the company subject.
func New(subjects []brand.Subject, companyDomain string) *Extractor {
	e := &Extractor{subjects: subjects}
	for i, s := range subjects {
		e.variants = append(e.variants, variantsFor(i, s, companyDomain)...)
	}
	return e
}

func variantsFor(idx int, s brand.Subject, domain string) []variant {
	best := map[string]variant{}
	add := func(ws []string, conf float64) {
		if len(ws) == 0 {
			return
		}
		key := strings.Join(ws, " ")
		if conf < fullConfidence && len(strings.Join(ws, "")) < minVariantLen {
			return
		}
		if cur, ok := best[key]; !ok || conf > cur.confidence {
			best[key] = variant{words: ws, subject: idx, confidence: conf}
		}
	}

	full := words(strings.ToLower(s.Name))
	add(full, fullConfidence)

	stripped := full
	for len(stripped) > 1 && brand.IsLegalSuffix(stripped[len(stripped)-1]) {
		stripped = stripped[:len(stripped)-1]
	}
	add(stripped, variantConfidence)
	if len(stripped) > 1 {
		add([]string{strings.Join(stripped, "")}, variantConfidence)
	}

	if s.Kind == brand.SubjectCompany && domain != "" {
		domain = strings.ToLower(domain)
		add(words(domain), variantConfidence)
		root := brand.DomainRoot(domain)
		add(words(root), variantConfidence)
		if rw := words(root); len(rw) > 1 {
			add([]string{strings.Join(rw, "")}, variantConfidence)
		}
	}

	keys := make([]string, 0, len(best))
	for k := range best {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]variant, len(keys))
	for i, k := range keys {
		out[i] = best[k]
	}
	return out
}

type match struct {
	subject    int
	first      int // token index
	count      int // tokens covered
	start, end int // byte span
	confidence float64
}

// Extract returns the mentions in one response, ordered by offset.
// Responses that are not ok yield nothing.
func (e *Extractor) Extract(resp brand.ProviderResponse) []brand.Mention {
	if resp.Status != brand.StatusOK || resp.RawText == "" {
		return nil
	}

	text := strings.ToLower(resp.RawText)
	toks := tokenize(text)
	matches := e.resolve(e.candidates(text, toks), len(toks))
	if len(matches) == 0 {
		return nil
	}

	owner := make([]int, len(toks))
	for k := range owner {
		owner[k] = -1
	}
	for i, m := range matches {
		for k := m.first; k < m.first+m.count; k++ {
			owner[k] = i
		}
	}
	sentences := sentenceIDs(text, toks)
	clauses := clauseIDs(text, toks, sentences, owner)
	moods := mentionSentiments(toks, sentences, clauses, owner, matches)

	// Position is the ordinal of each subject's first occurrence.
	position := map[int]int{}
	for _, m := range matches {
		if _, ok := position[m.subject]; !ok {
			position[m.subject] = len(position) + 1
		}
	}

	out := make([]brand.Mention, 0, len(matches))
	for i, m := range matches {
		p := position[m.subject]
		out = append(out, brand.Mention{
			Subject:    e.subjects[m.subject],
			PromptID:   resp.PromptID,
			ProviderID: resp.ProviderID,
			Position:   &p,
			Sentiment:  moods[i],
			Confidence: m.confidence,
			Offset:     m.start,
		})
	}
	return out
}

// ExtractAll runs Extract over responses in the given order.
func (e *Extractor) ExtractAll(responses []brand.ProviderResponse) []brand.Mention {
	var out []brand.Mention
	for _, r := range responses {
		out = append(out, e.Extract(r)...)
	}
	return out
}

func (e *Extractor) candidates(text string, toks []token) []match {
	var out []match
	for i := range toks {
		for _, v := range e.variants {
			if m, ok := matchAt(text, toks, i, v); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// matchAt tries variant v at token i. The last word may carry a possessive
// ("acme's", full confidence) or a plural ("acmes", variant confidence).
func matchAt(text string, toks []token, i int, v variant) (match, bool) {
	n := len(v.words)
	if i+n > len(toks) {
		return match{}, false
	}
	conf := v.confidence
	for j, w := range v.words {
		tok := toks[i+j]
		if j > 0 && !joinable(text[toks[i+j-1].end:tok.start]) {
			return match{}, false
		}
		if j < n-1 {
			if tok.text != w {
				return match{}, false
			}
			continue
		}
		switch tok.text {
		case w, w + "'s", w + "’s", w + "s'", w + "s’":
		case w + "s", w + "es":
			conf = min(conf, variantConfidence)
		default:
			return match{}, false
		}
	}
	return match{
		subject:    v.subject,
		first:      i,
		count:      n,
		start:      toks[i].start,
		end:        toks[i+n-1].end,
		confidence: conf,
	}, true
}

// joinable reports whether two words separated by gap can belong to one name.
func joinable(gap string) bool {
	if len(gap) > maxGapLen {
		return false
	}
	for _, c := range gap {
		if !strings.ContainsRune(" ,.-&/", c) {
			return false
		}
	}
	return true
}

// resolve keeps the longest matches first and drops any that overlap an
// already accepted one, then restores text order.
func (e *Extractor) resolve(cands []match, ntok int) []match {
	sort.SliceStable(cands, func(a, b int) bool {
		x, y := cands[a], cands[b]
		if lx, ly := x.end-x.start, y.end-y.start; lx != ly {
			return lx > ly
		}
		if x.start != y.start {
			return x.start < y.start
		}
		if x.subject != y.subject {
			return x.subject < y.subject
		}
		return x.confidence > y.confidence
	})

	used := make([]bool, ntok)
	var kept []match
	for _, m := range cands {
		free := true
		for k := m.first; k < m.first+m.count; k++ {
			if used[k] {
				free = false
				break
			}
		}
		if !free {
			continue
		}
		for k := m.first; k < m.first+m.count; k++ {
			used[k] = true
		}
		kept = append(kept, m)
	}

	sort.Slice(kept, func(a, b int) bool { return kept[a].start < kept[b].start })
	return kept
}
