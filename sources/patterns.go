package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/seo-optimizer/seotools/model"
)

var patternTemplates = []string{
	"best %s",
	"%s for beginners",
	"how to %s",
	"what is %s",
	"%s guide",
	"%s tips",
	"%s examples",
	"%s review",
	"%s vs",
	"cheap %s",
	"free %s",
	"%s near me",
	"%s tools",
}

// Patterns expands a seed with fixed templates. It needs no network.
type Patterns struct {
	Templates []string
}

func NewPatterns() *Patterns {
	return &Patterns{Templates: patternTemplates}
}

func (p *Patterns) Name() string { return TagPattern }

func (p *Patterns) Keywords(_ context.Context, seed string, _ model.Locale) []model.KeywordCandidate {
	seed = strings.TrimSpace(seed)
	if seed == "" {
		return nil
	}
	out := make([]model.KeywordCandidate, 0, len(p.Templates))
	for i, t := range p.Templates {
		kw := fmt.Sprintf(t, seed)
		out = append(out, model.KeywordCandidate{Keyword: kw, Source: TagPattern, Relevance: Relevance(i, kw, seed)})
	}
	return out
}
