package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/rank"
)

func okResponse(text string) brand.ProviderResponse {
	return brand.ProviderResponse{ProviderID: "openai", PromptID: "default-1", RawText: text, Status: brand.StatusOK}
}

func subjects(company string, competitors ...string) []brand.Subject {
	var cs []brand.Competitor
	for _, c := range competitors {
		cs = append(cs, brand.Competitor{Name: c, Source: brand.SourceUser})
	}
	return Subjects(brand.Company{Name: company}, cs)
}

type seen struct {
	Name       string
	Position   int
	Sentiment  brand.Sentiment
	Confidence float64
}

func summarize(ms []brand.Mention) []seen {
	out := make([]seen, len(ms))
	for i, m := range ms {
		out[i] = seen{m.Subject.Name, *m.Position, m.Sentiment, m.Confidence}
	}
	return out
}

func TestExtractSingleCompany(t *testing.T) {
	e := New(subjects("Acme"), "acme.com")
	ms := e.Extract(okResponse("Acme is a leader; CompetitorX follows."))
	assert.Equal(t, []seen{{"Acme", 1, brand.Positive, 1.0}}, summarize(ms))
	assert.Equal(t, 0, ms[0].Offset)
	assert.Equal(t, "default-1", ms[0].PromptID)
	assert.Equal(t, "openai", ms[0].ProviderID)
}

func TestExtractPositionsFollowFirstOccurrence(t *testing.T) {
	e := New(subjects("Acme", "Globex", "Initech"), "")
	ms := e.Extract(okResponse("Globex and Initech are popular. Later, Acme arrived. Globex stayed."))
	assert.Equal(t, []seen{
		{"Globex", 1, brand.Positive, 1.0},
		{"Initech", 2, brand.Positive, 1.0},
		{"Acme", 3, brand.Neutral, 1.0},
		{"Globex", 1, brand.Neutral, 1.0},
	}, summarize(ms))
}

func TestExtractNameVariants(t *testing.T) {
	e := New(subjects("Acme, Inc."), "")

	ms := e.Extract(okResponse("We picked Acme Inc for the job."))
	require.Len(t, ms, 1)
	assert.Equal(t, 1.0, ms[0].Confidence, "punctuation differences still count as the full name")

	ms = e.Extract(okResponse("ACME is fine."))
	require.Len(t, ms, 1)
	assert.Equal(t, 0.8, ms[0].Confidence, "suffix-stripped name is a variant")

	ms = e.Extract(okResponse("Acme's pricing is clear, and Acmes are everywhere."))
	require.Len(t, ms, 2)
	assert.Equal(t, 0.8, ms[0].Confidence)
	assert.Equal(t, 0.8, ms[1].Confidence)
}

func TestExtractPossessiveAndPlural(t *testing.T) {
	e := New(subjects("Globex"), "")
	ms := e.Extract(okResponse("Globex's API works. Two Globexes exist. Globex’s docs too."))
	require.Len(t, ms, 3)
	assert.Equal(t, 1.0, ms[0].Confidence)
	assert.Equal(t, 0.8, ms[1].Confidence)
	assert.Equal(t, 1.0, ms[2].Confidence)
}

func TestExtractCompactAndHyphenated(t *testing.T) {
	e := New(subjects("Pied Piper"), "")
	ms := e.Extract(okResponse("Pied-Piper compresses; piedpiper.com too."))
	require.Len(t, ms, 2)
	assert.Equal(t, 1.0, ms[0].Confidence)
	assert.Equal(t, 0.8, ms[1].Confidence)
}

func TestExtractDomainVariantsOnlyForCompany(t *testing.T) {
	subs := Subjects(brand.Company{Name: "Acme Corporation"}, []brand.Competitor{{Name: "Globex"}})
	e := New(subs, "acme.io")

	ms := e.Extract(okResponse("Try acme.io or Globex."))
	assert.Equal(t, []seen{
		{"Acme Corporation", 1, brand.Neutral, 0.8},
		{"Globex", 2, brand.Neutral, 1.0},
	}, summarize(ms))
	assert.Equal(t, 4, ms[0].Offset)
}

func TestExtractRequiresWordBoundaries(t *testing.T) {
	e := New(subjects("Acme"), "")
	assert.Empty(t, e.Extract(okResponse("Acmeville and megaacme are unrelated.")))
}

func TestExtractLongestMatchWins(t *testing.T) {
	e := New(subjects("Acme", "Acme Cloud"), "")
	ms := e.Extract(okResponse("Acme Cloud beats Acme."))
	assert.Equal(t, []seen{
		{"Acme Cloud", 1, brand.Neutral, 1.0},
		{"Acme", 2, brand.Neutral, 1.0},
	}, summarize(ms))
}

func TestExtractSentimentAndNegation(t *testing.T) {
	e := New(subjects("Acme"), "")
	cases := map[string]brand.Sentiment{
		"Acme is excellent.":                     brand.Positive,
		"Acme is not reliable.":                  brand.Negative,
		"Acme is never slow.":                    brand.Positive,
		"Acme isn't great.":                      brand.Negative,
		"Acme is expensive and not great.":       brand.Negative,
		"Acme exists. It is the best.":           brand.Neutral,
		"Acme is great but expensive.":           brand.Neutral,
		"Acme has no real drawbacks at all here": brand.Positive,
	}
	for text, want := range cases {
		ms := e.Extract(okResponse(text))
		require.Len(t, ms, 1, text)
		assert.Equal(t, want, ms[0].Sentiment, text)
	}
}

func TestExtractContrastSplitsSentimentBetweenSubjects(t *testing.T) {
	e := New(subjects("Acme", "Globex"), "")
	ms := e.Extract(okResponse("Acme is excellent, while Globex is slow and buggy."))
	assert.Equal(t, []seen{
		{"Acme", 1, brand.Positive, 1.0},
		{"Globex", 2, brand.Negative, 1.0},
	}, summarize(ms))

	ms = e.Extract(okResponse("Globex lags behind, but Acme is reliable."))
	assert.Equal(t, []seen{
		{"Globex", 1, brand.Negative, 1.0},
		{"Acme", 2, brand.Positive, 1.0},
	}, summarize(ms))

	rs := rank.Rank(subjects("Acme", "Globex"), e.Extract(okResponse("Acme is excellent, while Globex is slow and buggy.")), 1)
	require.Len(t, rs, 2)
	assert.Equal(t, "Acme", rs[0].Subject.Name)
	assert.Equal(t, 100.0, rs[0].Score)
}

func TestExtractMentionlessClauseGoesToNearestMention(t *testing.T) {
	e := New(subjects("Acme", "Globex"), "")
	ms := e.Extract(okResponse("Acme ships weekly; Globex, sadly, is buggy."))
	assert.Equal(t, []seen{
		{"Acme", 1, brand.Neutral, 1.0},
		{"Globex", 2, brand.Negative, 1.0},
	}, summarize(ms))
}

func TestExtractAbbreviationDoesNotEndSentence(t *testing.T) {
	e := New(subjects("Globex"), "")
	ms := e.Extract(okResponse("Globex Inc. is excellent."))
	require.Len(t, ms, 1)
	assert.Equal(t, brand.Positive, ms[0].Sentiment)
}

func TestExtractNameWordsAreNotCues(t *testing.T) {
	e := New(subjects("Best Buy"), "")
	ms := e.Extract(okResponse("Best Buy sells TVs."))
	require.Len(t, ms, 1)
	assert.Equal(t, brand.Neutral, ms[0].Sentiment)
}

func TestExtractIgnoresFailedResponses(t *testing.T) {
	e := New(subjects("Acme"), "")
	r := okResponse("Acme is great")
	r.Status = brand.StatusTimeout
	assert.Nil(t, e.Extract(r))
	r.Status = brand.StatusError
	assert.Nil(t, e.Extract(r))
}

func TestExtractIsDeterministic(t *testing.T) {
	text := "Globex, Acme and Initech lead. Acme's support is not bad; Initech lags. acme.com is fast."
	e := New(subjects("Acme", "Globex", "Initech"), "acme.com")

	first, err := json.Marshal(e.Extract(okResponse(text)))
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := json.Marshal(New(subjects("Acme", "Globex", "Initech"), "acme.com").Extract(okResponse(text)))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestExtractAllKeepsResponseOrder(t *testing.T) {
	e := New(subjects("Acme"), "")
	a := okResponse("Acme one")
	b := okResponse("Acme two")
	b.ProviderID = "anthropic"
	ms := e.ExtractAll([]brand.ProviderResponse{a, b})
	require.Len(t, ms, 2)
	assert.Equal(t, "openai", ms[0].ProviderID)
	assert.Equal(t, "anthropic", ms[1].ProviderID)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"acme's", "api", "isn't", "slow"}, words("acme's api, isn't slow'"))
	toks := tokenize("a  bc")
	require.Len(t, toks, 2)
	assert.Equal(t, 3, toks[1].start)
	assert.Equal(t, 5, toks[1].end)
}
