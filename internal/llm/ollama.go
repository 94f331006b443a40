package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JexSrs/go-ollama"
	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

// OllamaProvider is a local Ollama model.
type OllamaProvider struct {
	Model   string
	BaseURL string
	client  *ollama.Ollama
	http    *http.Client
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(model, baseURL string) (*OllamaProvider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	return &OllamaProvider{
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  ollama.New(*u),
		http:    &http.Client{Timeout: 5 * time.Second},
	}, nil
}

func (o *OllamaProvider) Identity() brand.ProviderIdentity {
	return brand.ProviderIdentity{ID: "ollama", DisplayName: "Ollama", Model: o.Model}
}

// IsConfigured checks if Ollama is running and the model is available.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", o.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}

	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range result.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	logrus.WithField("model", o.Model).Warn("Ollama model not found")
	return false
}

type ollamaResult struct {
	text string
	err  error
}

// Generate runs a non-streaming generation. The client library takes no
// context, so the call runs in its own goroutine and is abandoned on cancel.
func (o *OllamaProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	done := make(chan ollamaResult, 1)
	go func() {
		res, err := o.client.Generate(
			o.client.Generate.WithModel(o.Model),
			o.client.Generate.WithPrompt(prompt),
		)
		if err != nil {
			done <- ollamaResult{err: fmt.Errorf("Ollama API error: %w", err)}
			return
		}
		if !res.Done {
			done <- ollamaResult{err: fmt.Errorf("Ollama response not finished")}
			return
		}
		done <- ollamaResult{text: strings.TrimSpace(res.Response)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}
