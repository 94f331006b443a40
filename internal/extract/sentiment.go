package extract

import (
	"strings"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

var positiveCues = setOf(
	"leader", "leading", "leads", "best", "excellent", "great", "top", "recommended", "recommend",
	"reliable", "innovative", "popular", "trusted", "strong", "powerful", "robust", "outstanding",
	"superior", "favorite", "preferred", "impressive", "easy", "fast", "affordable", "love", "loved",
	"standout", "efficient", "accurate", "comprehensive", "flexible", "scalable", "secure", "ideal",
	"excels", "solid", "good",
)

var negativeCues = setOf(
	"worst", "poor", "bad", "expensive", "slow", "unreliable", "limited", "lacking", "lacks", "weak",
	"difficult", "complicated", "outdated", "buggy", "problems", "issues", "complaints", "overpriced",
	"inferior", "disappointing", "avoid", "struggles", "lags", "fails", "failing", "risky", "concerns",
	"drawback", "drawbacks", "downside", "downsides", "criticized", "clunky", "behind",
)

// contrastWords open a new clause.
var contrastWords = setOf("but", "while", "whereas", "although", "though", "however", "yet", "unlike", "meanwhile")

var negators = setOf("not", "no", "never", "hardly", "without", "cannot", "nor")

// abbreviations end with a period that does not close a sentence.
var abbreviations = setOf("vs", "etc", "mr", "mrs", "dr", "st", "approx")

// negationWindow is how many preceding words can flip a cue.
const negationWindow = 2

func setOf(ws ...string) map[string]bool {
	m := make(map[string]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return m
}

func isNegator(w string) bool {
	return negators[w] || strings.HasSuffix(w, "n't") || strings.HasSuffix(w, "n’t")
}

// sentenceIDs assigns each token the index of the sentence it belongs to.
func sentenceIDs(text string, toks []token) []int {
	ids := make([]int, len(toks))
	id := 0
	for k := 1; k < len(toks); k++ {
		if breaksSentence(text[toks[k-1].end:toks[k].start], toks[k-1].text) {
			id++
		}
		ids[k] = id
	}
	return ids
}

// breaksSentence reports whether the gap between two words ends a sentence.
func breaksSentence(gap, prev string) bool {
	if strings.ContainsRune(gap, '\n') {
		return true
	}
	i := strings.IndexAny(gap, ".!?")
	if i < 0 || !strings.ContainsAny(gap[i+1:], " \t\r") {
		return false
	}
	if gap[i] == '.' && i == 0 && !strings.ContainsAny(gap[1:], "!?") &&
		(abbreviations[prev] || brand.IsLegalSuffix(prev) || len([]rune(prev)) == 1) {
		return false
	}
	return true
}

// clauseIDs splits sentences further at , ; : and before contrast words.
// owner maps tokens to the match covering them, or -1; a name is never split.
func clauseIDs(text string, toks []token, sentences, owner []int) []int {
	ids := make([]int, len(toks))
	id := 0
	for k := 1; k < len(toks); k++ {
		switch {
		case owner[k] >= 0 && owner[k] == owner[k-1]:
		case sentences[k] != sentences[k-1],
			strings.ContainsAny(text[toks[k-1].end:toks[k].start], ",;:"),
			contrastWords[toks[k].text]:
			id++
		}
		ids[k] = id
	}
	return ids
}

// cuePolarity is +1 or -1 for a lexicon cue, flipped by a negator earlier in
// the same clause, and 0 for any other word.
func cuePolarity(toks []token, clauses []int, k int) int {
	polarity := 0
	switch {
	case positiveCues[toks[k].text]:
		polarity = 1
	case negativeCues[toks[k].text]:
		polarity = -1
	default:
		return 0
	}
	for back := 1; back <= negationWindow && k-back >= 0; back++ {
		if clauses[k-back] != clauses[k] {
			break
		}
		if isNegator(toks[k-back].text) {
			return -polarity
		}
	}
	return polarity
}

// mentionSentiments scores each match with the cues of its own clause. A cue
// in a clause without any mention goes to the nearest mention of the same
// sentence, the earlier one on a tie. Tokens covered by a name are not cues.
func mentionSentiments(toks []token, sentences, clauses, owner []int, matches []match) []brand.Sentiment {
	scores := make([]int, len(matches))
	for k := range toks {
		if owner[k] >= 0 {
			continue
		}
		polarity := cuePolarity(toks, clauses, k)
		if polarity == 0 {
			continue
		}

		hit := false
		for i, m := range matches {
			if clauses[m.first] == clauses[k] {
				scores[i] += polarity
				hit = true
			}
		}
		if hit {
			continue
		}

		nearest, best := -1, len(toks)
		for i, m := range matches {
			if sentences[m.first] != sentences[k] {
				continue
			}
			d := m.first - k
			if d < 0 {
				d = k - (m.first + m.count - 1)
			}
			if d < best {
				nearest, best = i, d
			}
		}
		if nearest >= 0 {
			scores[nearest] += polarity
		}
	}

	out := make([]brand.Sentiment, len(matches))
	for i, s := range scores {
		switch {
		case s > 0:
			out[i] = brand.Positive
		case s < 0:
			out[i] = brand.Negative
		default:
			out[i] = brand.Neutral
		}
	}
	return out
}
