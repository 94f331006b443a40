package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	Model   string
	APIKey  string
	BaseURL string
	client  *http.Client
}

func NewAnthropicProvider(model, apiKey, baseURL string) *AnthropicProvider {
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}
	return &AnthropicProvider{
		Model:   model,
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  newHTTPClient(),
	}
}

func (a *AnthropicProvider) Identity() brand.ProviderIdentity {
	return brand.ProviderIdentity{ID: "anthropic", DisplayName: "Anthropic", Model: a.Model}
}

func (a *AnthropicProvider) IsConfigured() bool {
	return a.APIKey != ""
}

func (a *AnthropicProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if a.APIKey == "" {
		return "", fmt.Errorf("Anthropic API key not configured")
	}

	body := map[string]any{
		"model":       a.Model,
		"max_tokens":  maxTokens,
		"temperature": temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	headers := map[string]string{
		"X-Api-Key":         a.APIKey,
		"Anthropic-Version": anthropicVersion,
	}
	if err := postJSON(ctx, a.client, "Anthropic", a.BaseURL+"/v1/messages", headers, body, &result); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in Anthropic response")
	}
	return sb.String(), nil
}
