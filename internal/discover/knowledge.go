package discover

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/llm"
)

// KnowledgeSource asks an AI provider which competitors it knows of.
type KnowledgeSource struct {
	provider llm.Provider
	max      int
}

func NewKnowledgeSource(provider llm.Provider, max int) *KnowledgeSource {
	return &KnowledgeSource{provider: provider, max: max}
}

func (k *KnowledgeSource) Name() string { return "provider-knowledge" }

func (k *KnowledgeSource) IsConfigured() bool {
	return k.provider != nil && k.provider.IsConfigured()
}

func (k *KnowledgeSource) Discover(ctx context.Context, info brand.CompanyInfo) ([]string, error) {
	text, err := k.provider.Generate(ctx, knowledgePrompt(info, k.max), 400)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", k.provider.Identity().ID, err)
	}
	names := llm.ParseStringList(text, "competitors")
	if names == nil {
		return nil, fmt.Errorf("unparseable competitor list from %s", k.provider.Identity().ID)
	}
	return names, nil
}

func knowledgePrompt(info brand.CompanyInfo, max int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "List up to %d direct competitors of %s (%s).", max, info.Name, info.URL)
	if info.Industry != "" {
		fmt.Fprintf(&sb, " Industry: %s.", info.Industry)
	}
	if info.Description != "" {
		fmt.Fprintf(&sb, " Description: %s", info.Description)
	}
	sb.WriteString("\nOnly include real companies or products. Respond with JSON only: {\"competitors\": [\"Name\", ...]}")
	return sb.String()
}
