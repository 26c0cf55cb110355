package aggregate

import (
	"context"
	"log/slog"

	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/sources"
)

// DefaultFallbackThreshold is the primary result count below which the
// fallback tier runs
const DefaultFallbackThreshold = 15

// Suggester returns raw autocomplete suggestions for a query
type Suggester interface {
	Suggest(ctx context.Context, query string, loc model.Locale) []string
}

// RenderedSERP is a SERP source that needs a headless browser
type RenderedSERP interface {
	sources.CompetitorSource
	Available() bool
}

// Discovery is the merged competitor list of one keyword
type Discovery struct {
	Competitors  []model.CompetitorCandidate
	UsedFallback bool
	// PrimaryCount is the number of distinct results before the fallback tier
	PrimaryCount int
}

// Discoverer finds the sites ranking for a keyword across several engines
// and query variants, falling back to deeper pages when results are thin
type Discoverer struct {
	ddg      sources.SERP
	bing     sources.SERP
	suggest  Suggester
	rendered RenderedSERP
	logger   *slog.Logger

	Threshold int
	Limit     int
	// Suggestions is how many autocomplete suggestions are searched
	Suggestions int
}

// NewDiscoverer wires the engines. suggest and rendered may be nil.
func NewDiscoverer(ddg, bing sources.SERP, suggest Suggester, rendered RenderedSERP, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discoverer{
		ddg:         ddg,
		bing:        bing,
		suggest:     suggest,
		rendered:    rendered,
		logger:      logger,
		Threshold:   DefaultFallbackThreshold,
		Limit:       DefaultCompetitorLimit,
		Suggestions: 2,
	}
}

// Variants are the query rewrites searched alongside the keyword
func Variants(keyword string) []string {
	return []string{"best " + keyword, keyword + " guide"}
}

// Discover runs the primary tier concurrently and, when it yields fewer
// distinct results than the threshold, the fallback tier. Primary results
// always come first in the merged list.
func (d *Discoverer) Discover(ctx context.Context, keyword string, loc model.Locale) Discovery {
	search := func(s sources.CompetitorSource, q string) func(context.Context) []model.CompetitorCandidate {
		return func(ctx context.Context) []model.CompetitorCandidate {
			if s == nil {
				return nil
			}
			return s.Competitors(ctx, q, loc)
		}
	}

	primary := []func(context.Context) []model.CompetitorCandidate{
		search(d.ddg, keyword),
		search(d.bing, keyword),
		func(ctx context.Context) []model.CompetitorCandidate {
			if d.suggest == nil || d.ddg == nil {
				return nil
			}
			var out []model.CompetitorCandidate
			for i, s := range d.suggest.Suggest(ctx, keyword, loc) {
				if i == d.Suggestions {
					break
				}
				out = append(out, d.ddg.Competitors(ctx, s, loc)...)
			}
			return out
		},
	}
	for _, v := range Variants(keyword) {
		primary = append(primary, search(d.ddg, v))
	}

	results := FanOut(ctx, primary...)
	merged := Competitors(results, d.Limit)
	disc := Discovery{Competitors: merged, PrimaryCount: len(merged)}
	if len(merged) >= d.Threshold {
		return disc
	}

	d.logger.Info("aggregate: thin results, running fallback tier",
		"keyword", keyword, "primary", len(merged), "threshold", d.Threshold)

	page := func(s sources.SERP, n int) func(context.Context) []model.CompetitorCandidate {
		return func(ctx context.Context) []model.CompetitorCandidate {
			if s == nil {
				return nil
			}
			return s.CompetitorsPage(ctx, keyword, loc, n)
		}
	}
	var fallback []func(context.Context) []model.CompetitorCandidate
	if d.rendered != nil && d.rendered.Available() {
		fallback = append(fallback, search(d.rendered, keyword))
	} else {
		fallback = append(fallback, page(d.ddg, 2))
	}
	fallback = append(fallback, page(d.bing, 2))

	disc.Competitors = Competitors(append(results, FanOut(ctx, fallback...)...), d.Limit)
	disc.UsedFallback = true
	return disc
}
