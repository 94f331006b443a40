package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	perplexityBaseURL = "https://api.perplexity.ai"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions API.
// Perplexity is served by the same client with a different base URL.
type OpenAIProvider struct {
	ID          string
	DisplayName string
	Model       string
	APIKey      string
	BaseURL     string
	client      *http.Client
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(model, apiKey, baseURL string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = openAIBaseURL
	}
	return &OpenAIProvider{
		ID:          "openai",
		DisplayName: "OpenAI",
		Model:       model,
		APIKey:      apiKey,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		client:      newHTTPClient(),
	}
}

// NewPerplexityProvider creates a Perplexity provider.
func NewPerplexityProvider(model, apiKey, baseURL string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = perplexityBaseURL
	}
	p := NewOpenAIProvider(model, apiKey, baseURL)
	p.ID = "perplexity"
	p.DisplayName = "Perplexity"
	return p
}

func (o *OpenAIProvider) Identity() brand.ProviderIdentity {
	return brand.ProviderIdentity{ID: o.ID, DisplayName: o.DisplayName, Model: o.Model}
}

// IsConfigured checks if the API key is set.
func (o *OpenAIProvider) IsConfigured() bool {
	return o.APIKey != ""
}

// Generate sends a prompt to the chat completions endpoint and returns the answer.
func (o *OpenAIProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if o.APIKey == "" {
		return "", fmt.Errorf("%s API key not configured", o.DisplayName)
	}

	body := map[string]any{
		"model": o.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + o.APIKey}
	if err := postJSON(ctx, o.client, o.DisplayName, o.BaseURL+"/chat/completions", headers, body, &result); err != nil {
		return "", err
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in %s response", o.DisplayName)
	}
	return result.Choices[0].Message.Content, nil
}
