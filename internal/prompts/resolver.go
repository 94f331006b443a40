package prompts

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

// WebSearch discovers competitor names for a company.
type WebSearch interface {
	DiscoverCompetitors(ctx context.Context, info brand.CompanyInfo) ([]string, error)
}

// Resolution is the frozen competitor set plus what discovery reported.
// Competitors is valid even when SearchErr is set.
type Resolution struct {
	Competitors []brand.Competitor
	Discovered  int
	SearchErr   error

	// Dropped lists user entries that name the company itself.
	Dropped []string
}

// Resolver merges user-selected and discovered competitors.
type Resolver struct {
	search        WebSearch
	maxDiscovered int
}

// NewResolver creates a resolver. search may be nil when discovery is unavailable.
func NewResolver(search WebSearch, maxDiscovered int) *Resolver {
	return &Resolver{search: search, maxDiscovered: maxDiscovered}
}

// Resolve keeps every user entry (trimmed, case-insensitively de-duplicated)
// and appends discovered names that do not collide with a user entry or the
// company by normalized name. Entries naming the company itself are dropped
// and listed in Dropped.
func (r *Resolver) Resolve(ctx context.Context, company brand.Company, user []string, useWebSearch bool) Resolution {
	self := brand.NormalizeName(company.Name)
	var res Resolution

	seenFold := map[string]bool{}
	seenNorm := map[string]bool{self: true}
	for _, name := range user {
		name = strings.TrimSpace(name)
		fold := strings.ToLower(name)
		if name == "" || seenFold[fold] {
			continue
		}
		seenFold[fold] = true
		if brand.NormalizeName(name) == self {
			logrus.WithField("competitor", name).Info("Dropping competitor that names the company itself")
			res.Dropped = append(res.Dropped, name)
			continue
		}
		seenNorm[brand.NormalizeName(name)] = true
		res.Competitors = append(res.Competitors, brand.Competitor{Name: name, Source: brand.SourceUser})
	}

	if !useWebSearch || r.search == nil {
		return res
	}

	names, err := r.search.DiscoverCompetitors(ctx, companyInfo(company))
	if err != nil {
		res.SearchErr = err
		return res
	}
	for _, name := range names {
		if r.maxDiscovered > 0 && res.Discovered >= r.maxDiscovered {
			break
		}
		name = strings.TrimSpace(name)
		key := brand.NormalizeName(name)
		if key == "" || seenNorm[key] {
			continue
		}
		seenNorm[key] = true
		res.Competitors = append(res.Competitors, brand.Competitor{Name: name, Source: brand.SourceDiscovered})
		res.Discovered++
	}
	return res
}

func companyInfo(c brand.Company) brand.CompanyInfo {
	return brand.CompanyInfo{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Industry:    c.Industry,
		Markets:     c.Markets,
	}
}
