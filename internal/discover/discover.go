// Package discover finds competitor names for a company from news search,
// search feeds and AI provider knowledge.
package discover

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
	"github.com/TobiSchelling/brandmonitor/internal/config"
	"github.com/TobiSchelling/brandmonitor/internal/llm"
)

// Source is one way of discovering competitors.
type Source interface {
	Name() string
	IsConfigured() bool
	Discover(ctx context.Context, info brand.CompanyInfo) ([]string, error)
}

// WebSearch merges the answers of several sources.
type WebSearch struct {
	sources []Source
	max     int
}

// New wires the sources enabled in config. registry may be nil.
func New(cfg *config.Config, registry *llm.Registry) *WebSearch {
	d := cfg.Discovery
	var sources []Source
	if d.UseProviderKnowledge && registry != nil {
		if p := registry.First(); p != nil {
			sources = append(sources, NewKnowledgeSource(p, cfg.Analysis.MaxCompetitors))
		}
	}
	if d.NewsAPIKeyEnv != "" {
		sources = append(sources, NewNewsAPISource(config.Provider{APIKeyEnv: d.NewsAPIKeyEnv}.APIKey()))
	}
	if d.FeedURLTemplate != "" {
		sources = append(sources, NewFeedSource(d.FeedURLTemplate))
	}
	return NewWebSearch(cfg.Analysis.MaxCompetitors, sources...)
}

// NewWebSearch combines explicit sources. max <= 0 means no cap.
func NewWebSearch(max int, sources ...Source) *WebSearch {
	return &WebSearch{sources: sources, max: max}
}

// DiscoverCompetitors asks every configured source in order and returns the
// de-duplicated union, excluding the company itself. It fails only when no
// source produced an answer.
func (w *WebSearch) DiscoverCompetitors(ctx context.Context, info brand.CompanyInfo) ([]string, error) {
	self := brand.NormalizeName(info.Name)
	seen := map[string]bool{self: true}
	var out []string
	var errs []error
	answered := false

	for _, src := range w.sources {
		if !src.IsConfigured() {
			continue
		}
		log := logrus.WithFields(logrus.Fields{"source": src.Name(), "company": info.Name})

		names, err := src.Discover(ctx, info)
		if err != nil {
			log.WithError(err).Warn("Competitor discovery source failed")
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		answered = true
		log.WithField("found", len(names)).Debug("Competitor discovery source answered")

		for _, n := range names {
			n = strings.TrimSpace(n)
			key := brand.NormalizeName(n)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, n)
		}
		if w.max > 0 && len(out) >= w.max {
			break
		}
	}

	if !answered && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if w.max > 0 && len(out) > w.max {
		out = out[:w.max]
	}
	return out, nil
}

// HasSources reports whether any source is configured.
func (w *WebSearch) HasSources() bool {
	for _, s := range w.sources {
		if s.IsConfigured() {
			return true
		}
	}
	return false
}
