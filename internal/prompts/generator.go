// Package prompts builds the frozen prompt and competitor sets for a run.
package prompts

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

const genericIndustry = "online services"

// defaultTemplates are filled with name, domain and industry, in that order.
// Use explicit argument indexes so each template picks what it needs.
var defaultTemplates = []string{
	"What are the best %[3]s companies right now? List the top options and explain what each is known for.",
	"Which %[3]s providers would you recommend to a growing business, and why?",
	"Compare the leading %[3]s tools and rank them by overall quality.",
	"What are the top alternatives to %[1]s (%[2]s)? How do they compare?",
	"Which %[3]s brands are the most trusted and innovative today?",
}

// Generator instantiates the prompt set.
type Generator struct {
	max int
}

// NewGenerator caps the number of default prompts at max (0 means
// unlimited). Custom prompts are never capped.
func NewGenerator(max int) *Generator {
	return &Generator{max: max}
}

// Generate returns every custom prompt verbatim when any is non-empty and
// the default templates otherwise. IDs are stable: custom-N or default-N.
func (g *Generator) Generate(company brand.Company, custom []string) []brand.Prompt {
	var out []brand.Prompt
	for _, text := range custom {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		out = append(out, brand.Prompt{
			ID:     fmt.Sprintf("custom-%d", len(out)+1),
			Text:   text,
			Origin: brand.OriginCustom,
		})
	}

	if len(out) > 0 {
		return out
	}

	industry := strings.TrimSpace(company.Industry)
	if industry == "" {
		industry = genericIndustry
	}
	templates := defaultTemplates
	if g.max > 0 && len(templates) > g.max {
		templates = templates[:g.max]
	}
	for i, tmpl := range templates {
		out = append(out, brand.Prompt{
			ID:     fmt.Sprintf("default-%d", i+1),
			Text:   fmt.Sprintf(tmpl, company.Name, company.NormalizedDomain, industry),
			Origin: brand.OriginDefault,
		})
	}
	return out
}
