package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/config"
)

const acmePage = `<html><head>
<title>Acme | Web Scraping Platform</title>
<meta property="og:site_name" content="Acme">
<meta name="description" content="Acme crawls and scrapes websites for teams.">
<meta name="keywords" content="scraping, crawler, web data">
</head><body>
<article>
<h1>Scraping made simple</h1>
<p>Our crawler handles scraping at enterprise scale. Point it at a site and get clean
text back in seconds, with retries, proxies and rendering handled for you.</p>
<p>Thousands of teams rely on the crawler every day for scraping jobs of every size.</p>
</article>
</body></html>`

type memCache struct {
	items map[string]*brand.CompanyInfo
}

func (m *memCache) GetCachedCompany(u string, maxAge time.Duration) (*brand.CompanyInfo, error) {
	if maxAge <= 0 {
		return nil, nil
	}
	return m.items[u], nil
}

func (m *memCache) PutCachedCompany(info *brand.CompanyInfo) error {
	m.items[info.URL] = info
	return nil
}

func TestParseExtractsMetadata(t *testing.T) {
	u, _ := url.Parse("https://www.acme.com/")
	info, err := Parse([]byte(acmePage), u)
	require.NoError(t, err)

	assert.Equal(t, "Acme", info.Name)
	assert.Equal(t, "Acme crawls and scrapes websites for teams.", info.Description)
	assert.Equal(t, []string{"scraping", "crawler", "web data"}, info.Keywords)
	assert.Equal(t, "web scraping", info.Industry)
	assert.Contains(t, info.Markets, "enterprise")
}

func TestParseFallsBackToTitleAndDomain(t *testing.T) {
	u, _ := url.Parse("https://globex.co.uk/")
	info, err := Parse([]byte(`<html><head><title>Globex - Home</title></head><body></body></html>`), u)
	require.NoError(t, err)
	assert.Equal(t, "Globex", info.Name)

	info, err = Parse([]byte(`<html><body><p>hi</p></body></html>`), u)
	require.NoError(t, err)
	assert.Equal(t, "Globex", info.Name)
}

func TestFetchUsesCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(acmePage))
	}))
	defer srv.Close()

	cache := &memCache{items: map[string]*brand.CompanyInfo{}}
	s := New(config.Scrape{Timeout: time.Second, UserAgent: "test-agent"}, cache)

	info, err := s.Fetch(context.Background(), srv.URL, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "Acme", info.Name)
	assert.Equal(t, srv.URL, info.URL)
	assert.False(t, info.ScrapedAt.IsZero())

	_, err = s.Fetch(context.Background(), srv.URL, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second fetch should be served from cache")

	_, err = s.Fetch(context.Background(), srv.URL, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits), "zero maxAge forces a refetch")
}

func TestFetchHTTPErrorIsScrapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(config.Scrape{}, nil).Fetch(context.Background(), srv.URL, 0)
	require.Error(t, err)
	assert.True(t, brand.IsKind(err, brand.KindScrape))
	assert.Contains(t, err.Error(), "404")
}

func TestFetchRejectsBadURL(t *testing.T) {
	_, err := New(config.Scrape{}, nil).Fetch(context.Background(), "   ", 0)
	assert.True(t, brand.IsKind(err, brand.KindValidation))
}

func TestTitleName(t *testing.T) {
	assert.Equal(t, "Acme", titleName("Acme | The best"))
	assert.Equal(t, "Acme Cloud", titleName("Acme Cloud — Home"))
	assert.Equal(t, "Acme", titleName("Acme"))
}
