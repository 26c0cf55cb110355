package tools

import (
	"log/slog"
	"time"

	"github.com/seo-optimizer/seotools/aggregate"
	"github.com/seo-optimizer/seotools/analyzer"
	"github.com/seo-optimizer/seotools/browser"
	"github.com/seo-optimizer/seotools/cache"
	"github.com/seo-optimizer/seotools/fetch"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/scoring"
	"github.com/seo-optimizer/seotools/sources"
)

// Components are the process-wide collaborators the default Service is
// built from. Every field except Fetch may be nil.
type Components struct {
	Fetch     fetch.Doer
	Browser   browser.Runner
	Keywords  *cache.Store[[]model.KeywordCandidate]
	Authority *cache.Store[model.Authority]
	Pages     *cache.Store[*analyzer.SEOAnalysis]
	Gate      *cache.Gate
	Recorder  sources.SourceRecorder
	Logger    *slog.Logger
	// Pause is the politeness delay between an adapter's sub-queries
	Pause time.Duration
	// FallbackThreshold overrides the competitor discovery threshold
	FallbackThreshold int
}

// NewDefault wires every source adapter into a Service
func NewDefault(c Components, cfg Config) *Service {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := sources.Deps{Fetch: c.Fetch, Browser: c.Browser, Logger: logger, Pause: c.Pause}

	opts := []sources.CachedOption{}
	if c.Recorder != nil {
		opts = append(opts, sources.WithRecorder(c.Recorder))
	}
	cached := func(src sources.KeywordSource, long bool) sources.KeywordSource {
		o := opts
		if long {
			o = append(append([]sources.CachedOption{}, opts...), sources.LongTerm())
		}
		return sources.NewCached(src, c.Keywords, c.Gate, o...)
	}
	// amazon search runs next to amazon autocomplete, so it is cached but not gated
	ungated := func(src sources.KeywordSource) sources.KeywordSource {
		return sources.NewCached(src, c.Keywords, nil, opts...)
	}

	googleAC := sources.NewGoogleAutocomplete(d)
	ddg := sources.NewDuckDuckGo(d)
	bing := sources.NewBing(d)

	discoverer := aggregate.NewDiscoverer(ddg, bing, googleAC, sources.NewDuckDuckGoBrowser(d), logger)
	if c.FallbackThreshold > 0 {
		discoverer.Threshold = c.FallbackThreshold
	}
	pages := analyzer.New(c.Fetch, c.Pages, logger)

	return New(Deps{
		Research: []sources.KeywordSource{
			cached(googleAC, false),
			cached(sources.NewGoogleTrends(d), true),
			cached(sources.NewGooglePAA(d), false),
			cached(sources.NewBingAutocomplete(d), false),
			cached(sources.NewYouTube(d), false),
			cached(sources.NewWikipedia(d), true),
			cached(sources.NewReddit(d), false),
			cached(sources.NewQuora(d), false),
			sources.NewPatterns(),
		},
		Suggest: googleAC,
		Amazon: []sources.KeywordSource{
			cached(sources.NewAmazonAutocomplete(d), false),
			ungated(sources.NewAmazonSearch(d)),
		},
		YouTube: []sources.KeywordSource{cached(sources.NewYouTube(d), false)},
		Engines: map[string]sources.SERP{
			EngineGoogle:     sources.NewGoogleSERP(d),
			EngineBing:       bing,
			EngineYahoo:      sources.NewYahoo(d),
			EngineDuckDuckGo: ddg,
		},
		Mentions:   []sources.CompetitorSource{ddg, bing},
		Probe:      sources.NewPlatformProbe(d),
		Sitemaps:   sources.NewSitemaps(d),
		Discoverer: discoverer,
		Authority:  scoring.NewAuthorities(pages, c.Authority, logger),
		Pages:      pages,
	}, cfg, logger)
}
