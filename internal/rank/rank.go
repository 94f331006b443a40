// Package rank turns mentions into visibility scores and a strict ordering.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

var sentimentWeight = map[brand.Sentiment]float64{
	brand.Positive: 1.0,
	brand.Neutral:  0.7,
	brand.Negative: 0.3,
}

// PositionWeight is 1/p: first mention scores 1, second 0.5 and so on.
func PositionWeight(p int) float64 {
	if p < 1 {
		return 0
	}
	return 1 / float64(p)
}

// SentimentWeight returns the multiplier for a sentiment.
func SentimentWeight(s brand.Sentiment) float64 {
	if w, ok := sentimentWeight[s]; ok {
		return w
	}
	return sentimentWeight[brand.Neutral]
}

type pairKey struct {
	subject  int
	prompt   string
	provider string
}

type pairStat struct {
	position      int
	positive, neg bool
}

// Rank scores every subject and returns them best first. pairs is the
// number of (prompt, provider) pairs in the run, failed ones included.
// Every subject gets a row, even at score 0.
func Rank(subjects []brand.Subject, mentions []brand.Mention, pairs int) []brand.Ranking {
	index := make(map[brand.Subject]int, len(subjects))
	for i, s := range subjects {
		index[s] = i
	}

	counts := make([]int, len(subjects))
	stats := map[pairKey]*pairStat{}
	for _, m := range mentions {
		i, ok := index[m.Subject]
		if !ok {
			continue
		}
		counts[i]++

		k := pairKey{subject: i, prompt: m.PromptID, provider: m.ProviderID}
		st := stats[k]
		if st == nil {
			st = &pairStat{}
			stats[k] = st
		}
		if m.Position != nil && (st.position == 0 || *m.Position < st.position) {
			st.position = *m.Position
		}
		switch m.Sentiment {
		case brand.Positive:
			st.positive = true
		case brand.Negative:
			st.neg = true
		}
	}

	// Sum in a fixed order so equal inputs give bit-identical scores.
	keys := make([]pairKey, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		x, y := keys[a], keys[b]
		if x.subject != y.subject {
			return x.subject < y.subject
		}
		if x.prompt != y.prompt {
			return x.prompt < y.prompt
		}
		return x.provider < y.provider
	})

	sums := make([]float64, len(subjects))
	for _, k := range keys {
		st := stats[k]
		pos := st.position
		if pos == 0 {
			pos = 1
		}
		sums[k.subject] += PositionWeight(pos) * SentimentWeight(pairSentiment(st))
	}

	out := make([]brand.Ranking, len(subjects))
	for i, s := range subjects {
		score := 0.0
		if pairs > 0 {
			score = round(100 * sums[i] / float64(pairs))
		}
		out[i] = brand.Ranking{Subject: s, Score: score, MentionCount: counts[i]}
	}

	sort.SliceStable(out, func(a, b int) bool { return less(out[a], out[b]) })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// pairSentiment collapses the sentiments seen in one response.
func pairSentiment(st *pairStat) brand.Sentiment {
	switch {
	case st.positive && !st.neg:
		return brand.Positive
	case st.neg && !st.positive:
		return brand.Negative
	default:
		return brand.Neutral
	}
}

func less(x, y brand.Ranking) bool {
	if x.Score != y.Score {
		return x.Score > y.Score
	}
	if x.MentionCount != y.MentionCount {
		return x.MentionCount > y.MentionCount
	}
	if fx, fy := strings.ToLower(x.Subject.Name), strings.ToLower(y.Subject.Name); fx != fy {
		return fx < fy
	}
	if x.Subject.Name != y.Subject.Name {
		return x.Subject.Name < y.Subject.Name
	}
	return x.Subject.Kind == brand.SubjectCompany && y.Subject.Kind != brand.SubjectCompany
}

func round(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

// CompanyScore returns the company's score from a ranking.
func CompanyScore(rankings []brand.Ranking) float64 {
	for _, r := range rankings {
		if r.Subject.Kind == brand.SubjectCompany {
			return r.Score
		}
	}
	return 0
}
