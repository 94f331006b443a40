package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/config"
)

const maxBodyBytes = 4 << 20

// Cache stores scraped company data between runs.
type Cache interface {
	GetCachedCompany(url string, maxAge time.Duration) (*brand.CompanyInfo, error)
	PutCachedCompany(info *brand.CompanyInfo) error
}

// Scraper fetches a company homepage and turns it into CompanyInfo.
type Scraper struct {
	client    *http.Client
	userAgent string
	cache     Cache
}

// New creates a scraper. cache may be nil.
func New(cfg config.Scrape, cache Cache) *Scraper {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		cache:     cache,
	}
}

// Fetch returns company metadata for rawURL. Cached data younger than
// maxAge is returned without a request. Failures are KindScrape errors.
func (s *Scraper) Fetch(ctx context.Context, rawURL string, maxAge time.Duration) (*brand.CompanyInfo, error) {
	normalized, err := brand.NormalizeURL(rawURL)
	if err != nil {
		return nil, brand.NewError(brand.KindValidation, "invalid URL format", err)
	}
	log := logrus.WithField("url", normalized)

	if s.cache != nil {
		cached, err := s.cache.GetCachedCompany(normalized, maxAge)
		if err != nil {
			log.WithError(err).Warn("Reading scrape cache failed")
		} else if cached != nil {
			log.Debug("Scrape cache hit")
			return cached, nil
		}
	}

	body, finalURL, err := s.download(ctx, normalized)
	if err != nil {
		return nil, brand.NewError(brand.KindScrape, "failed to fetch "+normalized, err)
	}

	info, err := Parse(body, finalURL)
	if err != nil {
		return nil, brand.NewError(brand.KindScrape, "failed to parse "+normalized, err)
	}
	info.URL = normalized
	info.ScrapedAt = time.Now().UTC()

	if s.cache != nil {
		if err := s.cache.PutCachedCompany(info); err != nil {
			log.WithError(err).Warn("Writing scrape cache failed")
		}
	}
	log.WithFields(logrus.Fields{"name": info.Name, "industry": info.Industry}).Info("Scraped company")
	return info, nil
}

func (s *Scraper) download(ctx context.Context, pageURL string) ([]byte, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, nil, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, nil, &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, err
	}
	return body, resp.Request.URL, nil
}

// Parse extracts company metadata from an HTML page.
func Parse(body []byte, pageURL *url.URL) (*brand.CompanyInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	meta := func(attr, key string) string {
		v, _ := doc.Find(fmt.Sprintf(`meta[%s="%s"]`, attr, key)).First().Attr("content")
		return strings.TrimSpace(v)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	info := &brand.CompanyInfo{
		Name:        firstNonEmpty(meta("property", "og:site_name"), titleName(title), domainName(pageURL)),
		Description: firstNonEmpty(meta("name", "description"), meta("property", "og:description")),
		Keywords:    splitKeywords(meta("name", "keywords")),
	}

	var text string
	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		text = strings.TrimSpace(article.TextContent)
		if info.Description == "" {
			info.Description = truncate(text, 300)
		}
	}
	if text == "" {
		text = strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	}

	corpus := strings.ToLower(strings.Join([]string{title, info.Description, strings.Join(info.Keywords, " "), text}, " "))
	info.Industry = detectIndustry(corpus)
	info.Markets = detectMarkets(corpus)
	return info, nil
}

// titleName takes the brand part of a page title like "Acme | Home".
func titleName(title string) string {
	for _, sep := range []string{" | ", " - ", " – ", " — ", ": "} {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return title
}

func domainName(u *url.URL) string {
	if u == nil {
		return ""
	}
	root := brand.DomainRoot(brand.RegistrableDomain(u.Hostname()))
	if root == "" {
		return ""
	}
	return strings.ToUpper(root[:1]) + root[1:]
}

func splitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}
