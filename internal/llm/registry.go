package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/config"
)

// Registry holds every known provider in a fixed order and answers which
// of them are usable right now.
type Registry struct {
	providers []Provider
	maxTokens int
}

// NewRegistry builds the providers enabled in config. Providers with a
// missing API key are still registered; ListEnabled filters them.
func NewRegistry(cfg *config.Config) *Registry {
	pc := cfg.Providers
	var ps []Provider
	if pc.OpenAI.Enabled {
		ps = append(ps, NewOpenAIProvider(pc.OpenAI.Model, pc.OpenAI.APIKey(), pc.OpenAI.BaseURL))
	}
	if pc.Anthropic.Enabled {
		ps = append(ps, NewAnthropicProvider(pc.Anthropic.Model, pc.Anthropic.APIKey(), pc.Anthropic.BaseURL))
	}
	if pc.Google.Enabled {
		ps = append(ps, NewGoogleProvider(pc.Google.Model, pc.Google.APIKey(), pc.Google.BaseURL))
	}
	if pc.Perplexity.Enabled {
		ps = append(ps, NewPerplexityProvider(pc.Perplexity.Model, pc.Perplexity.APIKey(), pc.Perplexity.BaseURL))
	}
	if pc.Ollama.Enabled {
		p, err := NewOllamaProvider(pc.Ollama.Model, pc.Ollama.BaseURL)
		if err != nil {
			logrus.WithError(err).Warn("Skipping Ollama provider")
		} else {
			ps = append(ps, p)
		}
	}
	r := NewStaticRegistry(ps...)
	r.maxTokens = cfg.Analysis.MaxTokens
	return r
}

// NewStaticRegistry wraps an explicit provider list.
func NewStaticRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers, maxTokens: 800}
}

// ListEnabled returns the identities of configured providers in registry order.
func (r *Registry) ListEnabled() []brand.ProviderIdentity {
	var out []brand.ProviderIdentity
	for _, p := range r.providers {
		if p.IsConfigured() {
			out = append(out, p.Identity())
		}
	}
	return out
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Identity().ID == id {
			return p, true
		}
	}
	return nil, false
}

// First returns the first configured provider, or nil.
func (r *Registry) First() Provider {
	for _, p := range r.providers {
		if p.IsConfigured() {
			return p
		}
	}
	return nil
}

// Query sends prompt to one provider under its own deadline. Failures are
// returned as *brand.Error with KindTimeout or KindProvider.
func (r *Registry) Query(ctx context.Context, providerID, prompt string, timeout time.Duration) (string, error) {
	p, ok := r.Get(providerID)
	if !ok {
		return "", brand.NewError(brand.KindProvider, fmt.Sprintf("unknown provider %q", providerID), nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := p.Generate(callCtx, prompt, r.maxTokens)
	if err != nil {
		if isTimeout(callCtx, err) {
			return "", brand.NewError(brand.KindTimeout, fmt.Sprintf("%s timed out after %s", providerID, timeout), err)
		}
		return "", brand.NewError(brand.KindProvider, providerID+" failed", err)
	}
	return text, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
