// Package tools assembles the SEO tools out of sources, the aggregator and
// the scorer. Tool functions validate their input and otherwise never fail:
// when no source answers they return a valid, zero-valued result.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seo-optimizer/seotools/aggregate"
	"github.com/seo-optimizer/seotools/analyzer"
	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/sources"
)

// Search engines accepted by rank tracking
const (
	EngineGoogle     = "google"
	EngineBing       = "bing"
	EngineYahoo      = "yahoo"
	EngineDuckDuckGo = "duckduckgo"
)

// Input bounds
const (
	MaxCompetitionKeywords = 20
	MaxRankKeywords        = 50
	maxSeedLength          = 100
)

// ValidationError reports bad tool input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Discoverer finds the competitors ranking for a keyword
type Discoverer interface {
	Discover(ctx context.Context, keyword string, loc model.Locale) aggregate.Discovery
}

// AuthorityScorer scores a domain. It never fails.
type AuthorityScorer interface {
	Authority(ctx context.Context, domain, url string) model.Authority
}

// PageAnalyzer fetches and analyses pages
type PageAnalyzer interface {
	Analyze(ctx context.Context, url string) (*analyzer.SEOAnalysis, error)
	Audit(ctx context.Context, url string) (*analyzer.SEOAnalysis, error)
}

// PlatformProber finds brand profiles on third-party platforms
type PlatformProber interface {
	Probe(ctx context.Context, domain string) []sources.ProbeHit
}

// SitemapReader inspects robots.txt and sitemaps of a site
type SitemapReader interface {
	Discover(ctx context.Context, siteURL string) sources.SitemapInfo
}

// Deps are the collaborators of a Service. Nil collaborators disable the
// parts of the tools that need them.
type Deps struct {
	// Research feeds keyword research, in dispatch order
	Research []sources.KeywordSource
	Suggest  aggregate.Suggester
	Amazon   []sources.KeywordSource
	YouTube  []sources.KeywordSource
	// Engines maps engine names to rank tracking SERPs
	Engines    map[string]sources.SERP
	Mentions   []sources.CompetitorSource
	Probe      PlatformProber
	Sitemaps   SitemapReader
	Discoverer Discoverer
	Authority  AuthorityScorer
	Pages      PageAnalyzer
	Trust      aggregate.TrustTable
}

// Config bounds the work a tool call does
type Config struct {
	KeywordWorkers   int
	AuthorityWorkers int
	KeywordLimit     int
	PlatformLimit    int
	// RankPages is how many result pages rank tracking reads at most
	RankPages int
	// ReferrerPages is how many mentioning pages are fetched for verification
	ReferrerPages int
}

func (c *Config) defaults() {
	if c.KeywordWorkers <= 0 {
		c.KeywordWorkers = 3
	}
	if c.AuthorityWorkers <= 0 {
		c.AuthorityWorkers = 4
	}
	if c.KeywordLimit <= 0 {
		c.KeywordLimit = aggregate.DefaultKeywordLimit
	}
	if c.PlatformLimit <= 0 {
		c.PlatformLimit = 50
	}
	if c.RankPages <= 0 {
		c.RankPages = 2
	}
	if c.ReferrerPages <= 0 {
		c.ReferrerPages = 20
	}
}

// Service runs the tools
type Service struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Service
func New(deps Deps, cfg Config, logger *slog.Logger) *Service {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Trust == nil {
		deps.Trust = aggregate.DefaultTrust
	}
	return &Service{deps: deps, cfg: cfg, logger: logger, now: time.Now}
}

// Engines lists the engines rank tracking accepts
func (s *Service) Engines() []string {
	var out []string
	for _, e := range []string{EngineGoogle, EngineBing, EngineYahoo, EngineDuckDuckGo} {
		if _, ok := s.deps.Engines[e]; ok {
			out = append(out, e)
		}
	}
	return out
}

func requireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", invalid(field, "is required")
	}
	return v, nil
}

func requireSeed(seed string) (string, error) {
	seed, err := requireText("seedKeyword", seed)
	if err != nil {
		return "", err
	}
	if len([]rune(seed)) > maxSeedLength {
		return "", invalid("seedKeyword", "must be at most %d characters", maxSeedLength)
	}
	return seed, nil
}

// requireURL returns the URL with a scheme and its domain
func requireURL(field, raw string) (string, string, error) {
	raw, err := requireText(field, raw)
	if err != nil {
		return "", "", err
	}
	u := extract.EnsureScheme(raw)
	domain := extract.Domain(u)
	if domain == "" || !strings.Contains(domain, ".") {
		return "", "", invalid(field, "is not a valid URL or domain")
	}
	return u, domain, nil
}

// cleanKeywords trims keywords, drops blanks and duplicates and enforces 1..limit
func cleanKeywords(keywords []string, limit int) ([]string, error) {
	if len(keywords) > limit {
		return nil, invalid("keywords", "at most %d keywords are allowed", limit)
	}
	seen := make(map[string]bool)
	var out []string
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		key := aggregate.KeywordKey(k)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil, invalid("keywords", "at least one keyword is required")
	}
	return out, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
