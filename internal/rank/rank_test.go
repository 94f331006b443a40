package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

var (
	acme   = brand.Subject{Name: "Acme", Kind: brand.SubjectCompany}
	globex = brand.Subject{Name: "Globex", Kind: brand.SubjectCompetitor}
	beta   = brand.Subject{Name: "beta", Kind: brand.SubjectCompetitor}
	alpha  = brand.Subject{Name: "Alpha", Kind: brand.SubjectCompetitor}
)

func mention(s brand.Subject, prompt, provider string, pos int, sent brand.Sentiment) brand.Mention {
	return brand.Mention{Subject: s, PromptID: prompt, ProviderID: provider, Position: &pos, Sentiment: sent, Confidence: 1}
}

func names(rs []brand.Ranking) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Subject.Name
	}
	return out
}

func TestRankScoresAndOrder(t *testing.T) {
	ms := []brand.Mention{
		mention(acme, "p1", "openai", 1, brand.Positive),
		mention(globex, "p1", "openai", 2, brand.Neutral),
		mention(globex, "p2", "openai", 1, brand.Negative),
	}
	rs := Rank([]brand.Subject{acme, globex}, ms, 4)
	require.Len(t, rs, 2)

	assert.Equal(t, "Acme", rs[0].Subject.Name)
	assert.Equal(t, 1, rs[0].Rank)
	assert.InDelta(t, 25.0, rs[0].Score, 1e-9)  // 100 * 1.0 / 4
	assert.InDelta(t, 16.25, rs[1].Score, 1e-9) // 100 * (0.5*0.7 + 1*0.3) / 4
	assert.Equal(t, 2, rs[1].MentionCount)
	assert.Equal(t, 25.0, CompanyScore(rs))
}

func TestRankPairSentimentCollapses(t *testing.T) {
	mixed := []brand.Mention{
		mention(acme, "p1", "x", 1, brand.Positive),
		mention(acme, "p1", "x", 1, brand.Negative),
	}
	assert.InDelta(t, 70.0, Rank([]brand.Subject{acme}, mixed, 1)[0].Score, 1e-9)

	positive := []brand.Mention{
		mention(acme, "p1", "x", 1, brand.Positive),
		mention(acme, "p1", "x", 1, brand.Neutral),
	}
	assert.InDelta(t, 100.0, Rank([]brand.Subject{acme}, positive, 1)[0].Score, 1e-9)

	negative := []brand.Mention{
		mention(acme, "p1", "x", 1, brand.Negative),
		mention(acme, "p1", "x", 1, brand.Neutral),
	}
	assert.InDelta(t, 30.0, Rank([]brand.Subject{acme}, negative, 1)[0].Score, 1e-9)
}

func TestRankCompanyAlwaysPresent(t *testing.T) {
	rs := Rank([]brand.Subject{acme, globex}, nil, 6)
	require.Len(t, rs, 2)
	for _, r := range rs {
		assert.Zero(t, r.Score)
	}
	assert.Zero(t, CompanyScore(rs))
}

func TestRankZeroPairs(t *testing.T) {
	rs := Rank([]brand.Subject{acme}, []brand.Mention{mention(acme, "p", "x", 1, brand.Positive)}, 0)
	assert.Zero(t, rs[0].Score)
}

func TestRankTieBreaks(t *testing.T) {
	// Equal score: more mentions first.
	ms := []brand.Mention{
		mention(globex, "p1", "x", 1, brand.Neutral),
		mention(globex, "p1", "x", 1, brand.Neutral),
		mention(alpha, "p2", "x", 1, brand.Neutral),
	}
	rs := Rank([]brand.Subject{acme, alpha, globex}, ms, 2)
	assert.Equal(t, []string{"Globex", "Alpha", "Acme"}, names(rs))

	// Equal score and count: case-folded name order.
	rs = Rank([]brand.Subject{globex, beta, acme, alpha}, nil, 1)
	assert.Equal(t, []string{"Acme", "Alpha", "beta", "Globex"}, names(rs))
	for i, r := range rs {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestRankIgnoresUnknownSubjects(t *testing.T) {
	stranger := brand.Subject{Name: "Stranger", Kind: brand.SubjectCompetitor}
	rs := Rank([]brand.Subject{acme}, []brand.Mention{mention(stranger, "p", "x", 1, brand.Positive)}, 1)
	require.Len(t, rs, 1)
	assert.Zero(t, rs[0].Score)
}

func TestPositionWeightDecreases(t *testing.T) {
	for p := 1; p < 10; p++ {
		assert.Greater(t, PositionWeight(p), PositionWeight(p+1))
	}
	assert.Zero(t, PositionWeight(0))
	assert.Equal(t, 0.7, SentimentWeight("unknown"))
}
