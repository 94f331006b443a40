package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// NewsAPISource mines NewsAPI headlines for "X vs Y" comparisons.
type NewsAPISource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNewsAPISource creates a NewsAPI-backed source.
func NewNewsAPISource(apiKey string) *NewsAPISource {
	return &NewsAPISource{
		apiKey:  apiKey,
		baseURL: newsAPIBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *NewsAPISource) Name() string { return "newsapi" }

// IsConfigured returns whether the API key is available.
func (c *NewsAPISource) IsConfigured() bool {
	return c.apiKey != ""
}

// Discover searches recent articles comparing the company to others.
func (c *NewsAPISource) Discover(ctx context.Context, info brand.CompanyInfo) ([]string, error) {
	titles, err := c.search(ctx, searchQuery(info), 50)
	if err != nil {
		return nil, err
	}
	return candidatesFromHeadlines(titles, info.Name), nil
}

func (c *NewsAPISource) search(ctx context.Context, query string, pageSize int) ([]string, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("NewsAPI not configured")
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := url.Values{
		"q":        {query},
		"from":     {time.Now().AddDate(0, 0, -30).Format("2006-01-02")},
		"language": {"en"},
		"pageSize": {fmt.Sprintf("%d", pageSize)},
		"sortBy":   {"relevancy"},
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("NewsAPI request error: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("NewsAPI error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NewsAPI HTTP error: %d", resp.StatusCode)
	}

	var result struct {
		Status   string `json:"status"`
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("NewsAPI decode error: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI status: %s", result.Status)
	}

	var titles []string
	for _, a := range result.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		titles = append(titles, strings.TrimSpace(a.Title))
	}

	logrus.WithFields(logrus.Fields{"query": query, "articles": len(titles)}).Debug("NewsAPI search done")
	return titles, nil
}

func searchQuery(info brand.CompanyInfo) string {
	return fmt.Sprintf(`"%s" AND (vs OR versus OR alternatives OR competitors)`, info.Name)
}
