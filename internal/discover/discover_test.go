package discover

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

type staticSource struct {
	name  string
	names []string
	err   error
	off   bool
}

func (s *staticSource) Name() string       { return s.name }
func (s *staticSource) IsConfigured() bool { return !s.off }
func (s *staticSource) Discover(ctx context.Context, info brand.CompanyInfo) ([]string, error) {
	return s.names, s.err
}

var acme = brand.CompanyInfo{Name: "Acme Inc.", URL: "https://acme.com", Industry: "web scraping"}

func TestDiscoverMergesAndDedupes(t *testing.T) {
	ws := NewWebSearch(0,
		&staticSource{name: "a", names: []string{"Globex", "acme", "Initech LLC"}},
		&staticSource{name: "off", off: true, names: []string{"Hidden"}},
		&staticSource{name: "b", names: []string{"GLOBEX", "Initech", "Umbrella"}},
	)
	got, err := ws.DiscoverCompetitors(context.Background(), acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex", "Initech LLC", "Umbrella"}, got)
}

func TestDiscoverCapsResults(t *testing.T) {
	ws := NewWebSearch(2, &staticSource{name: "a", names: []string{"A1", "B2", "C3"}})
	got, err := ws.DiscoverCompetitors(context.Background(), acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, got)
}

func TestDiscoverFailsOnlyWhenAllSourcesFail(t *testing.T) {
	ws := NewWebSearch(0,
		&staticSource{name: "a", err: errors.New("down")},
		&staticSource{name: "b", names: []string{"Globex"}},
	)
	got, err := ws.DiscoverCompetitors(context.Background(), acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex"}, got)

	ws = NewWebSearch(0, &staticSource{name: "a", err: errors.New("down")})
	_, err = ws.DiscoverCompetitors(context.Background(), acme)
	assert.ErrorContains(t, err, "down")
}

func TestCandidatesFromHeadlines(t *testing.T) {
	titles := []string{
		"Acme vs Globex vs Initech: Which Scraper Wins?",
		"Review: Globex versus Acme Inc",
		"Comparing Umbrella Corp vs. Acme for web data",
		"Acme raises new funding",
	}
	got := candidatesFromHeadlines(titles, "Acme")
	assert.Equal(t, []string{"Globex", "Initech", "Umbrella Corp"}, got)
}

func TestNewsAPISource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "news-key", r.Header.Get("X-Api-Key"))
		assert.Contains(t, r.URL.Query().Get("q"), `"Acme Inc."`)
		w.Write([]byte(`{"status":"ok","articles":[
			{"title":"Acme vs Globex: pricing"},
			{"title":"[Removed]"},
			{"title":"Initech versus Acme"}]}`))
	}))
	defer srv.Close()

	src := NewNewsAPISource("news-key")
	src.baseURL = srv.URL
	got, err := src.Discover(context.Background(), acme)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Globex", "Initech"}, got)

	assert.False(t, NewNewsAPISource("").IsConfigured())
}

func TestFeedSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>search</title>
<item><title>Acme vs Globex in 2026</title><link>https://n.example/1</link></item>
<item><title>Globex vs Acme: the rematch</title><link>https://n.example/2</link></item>
</channel></rss>`)
	}))
	defer srv.Close()

	src := NewFeedSource(srv.URL + "/rss?q=%s")
	require.True(t, src.IsConfigured())
	got, err := src.Discover(context.Background(), acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex"}, got)
}

type knowledgeProvider struct{ text string }

func (k *knowledgeProvider) Identity() brand.ProviderIdentity {
	return brand.ProviderIdentity{ID: "fake"}
}
func (k *knowledgeProvider) IsConfigured() bool { return true }
func (k *knowledgeProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return k.text, nil
}

func TestKnowledgeSource(t *testing.T) {
	src := NewKnowledgeSource(&knowledgeProvider{text: "```json\n{\"competitors\": [\"Globex\", \"Initech\"]}\n```"}, 5)
	got, err := src.Discover(context.Background(), acme)
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex", "Initech"}, got)

	src = NewKnowledgeSource(&knowledgeProvider{text: "I don't know."}, 5)
	_, err = src.Discover(context.Background(), acme)
	assert.Error(t, err)

	assert.Contains(t, knowledgePrompt(acme, 5), "Industry: web scraping")
}
