package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

const googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleProvider calls the Gemini generateContent endpoint.
type GoogleProvider struct {
	Model   string
	APIKey  string
	BaseURL string
	client  *http.Client
}

func NewGoogleProvider(model, apiKey, baseURL string) *GoogleProvider {
	if baseURL == "" {
		baseURL = googleBaseURL
	}
	return &GoogleProvider{
		Model:   model,
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

func (g *GoogleProvider) Identity() brand.ProviderIdentity {
	return brand.ProviderIdentity{ID: "google", DisplayName: "Google", Model: g.Model}
}

func (g *GoogleProvider) IsConfigured() bool {
	return g.APIKey != ""
}

func (g *GoogleProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("Google API key not configured")
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"role": "user", "parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"maxOutputTokens": maxTokens,
			"temperature":     temperature,
		},
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.BaseURL, url.PathEscape(g.Model), url.QueryEscape(g.APIKey))
	if err := postJSON(ctx, g.client, "Google", endpoint, nil, body, &result); err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Google response")
	}
	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}
