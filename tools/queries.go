package tools

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/seo-optimizer/seotools/aggregate"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/scoring"
	"github.com/seo-optimizer/seotools/sources"
)

const (
	pageSource     = "page"
	expandedSeeds  = 3
	maxQueries     = 50
	maxSeedPhrases = 15
	positionRange  = 30
)

// ctrCurve is the click-through rate of organic positions 1 to 10
var ctrCurve = []float64{0.285, 0.157, 0.11, 0.08, 0.072, 0.051, 0.04, 0.032, 0.028, 0.025}

// ExpectedCTR is the click-through rate of an organic position
func ExpectedCTR(position int) float64 {
	switch {
	case position < 1:
		return 0
	case position <= len(ctrCurve):
		return ctrCurve[position-1]
	case position <= 20:
		return 0.015
	default:
		return 0.005
	}
}

// TopSearchQueries estimates the queries a page gets traffic from. Seed
// phrases come from the page itself and the strongest are expanded through
// autocomplete. country defaults to us.
func (s *Service) TopSearchQueries(ctx context.Context, targetURL, country string) (*model.TopQueries, error) {
	u, domain, err := requireURL("targetUrl", targetURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	country = strings.ToLower(orDefault(country, "us"))
	loc := model.Locale{Country: country, Language: "English"}

	seeds := s.seedPhrases(ctx, u, domain)
	results := [][]model.KeywordCandidate{seeds}
	if s.deps.Suggest != nil {
		for i, seed := range seeds {
			if i == expandedSeeds || ctx.Err() != nil {
				break
			}
			var expanded []model.KeywordCandidate
			for j, sug := range s.deps.Suggest.Suggest(ctx, seed.Keyword, loc) {
				expanded = append(expanded, model.KeywordCandidate{
					Keyword:   sug,
					Source:    sources.TagGoogleAutocomplete,
					Relevance: sources.Relevance(j, sug, seed.Keyword),
				})
			}
			results = append(results, expanded)
		}
	}
	candidates := aggregate.Keywords(results, aggregate.TrustTable{pageSource: 1, sources.TagGoogleAutocomplete: 0.9}, 0)

	queries := make([]model.SearchQuery, 0, len(candidates))
	for _, c := range candidates {
		scored := scoring.ScoreKeyword(c, c.Keyword, loc)
		pos := 1 + scoring.Band(c.Keyword+domain, positionRange)
		impressions := int(math.Round(float64(scored.SearchVolume) * math.Pow(0.92, float64(pos-1))))
		ctr := ExpectedCTR(pos)
		queries = append(queries, model.SearchQuery{
			Query:        c.Keyword,
			Position:     pos,
			SearchVolume: scored.SearchVolume,
			Impressions:  impressions,
			Clicks:       int(math.Round(float64(impressions) * ctr)),
			CTR:          round(ctr*100, 2),
			Difficulty:   scored.Difficulty,
			Source:       c.Source,
		})
	}
	sort.SliceStable(queries, func(i, j int) bool { return queries[i].Clicks > queries[j].Clicks })
	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}

	sum := model.TopQueriesSummary{TotalQueries: len(queries)}
	var positions int
	var ctrs float64
	for _, q := range queries {
		sum.TotalClicks += q.Clicks
		sum.TotalImpressions += q.Impressions
		positions += q.Position
		ctrs += q.CTR
	}
	if n := len(queries); n > 0 {
		sum.AveragePosition = round(float64(positions)/float64(n), 1)
		sum.AverageCTR = round(ctrs/float64(n), 2)
	}

	s.logger.Info("tools: top queries", "domain", domain, "queries", len(queries))
	return &model.TopQueries{TargetURL: u, Domain: domain, Country: country, Queries: queries, Summary: sum}, nil
}

// seedPhrases collects phrases from the page title, meta tags and headings.
// The brand name is always a seed, so a page that cannot be fetched still
// yields queries.
func (s *Service) seedPhrases(ctx context.Context, u, domain string) []model.KeywordCandidate {
	var phrases []string
	if s.deps.Pages != nil {
		analysis, err := s.deps.Pages.Analyze(ctx, u)
		if err != nil {
			s.logger.Debug("tools: target page unavailable", "url", u, "error", err)
		} else {
			sig := analysis.Signals
			phrases = append(phrases, splitTitle(sig.Title)...)
			phrases = append(phrases, sig.MetaKeywords...)
			phrases = append(phrases, sig.Headings...)
		}
	}
	if brand := sources.Brand(domain); brand != "" {
		phrases = append(phrases, brand)
	}

	var out []model.KeywordCandidate
	seen := make(map[string]bool)
	for _, p := range phrases {
		key := aggregate.KeywordKey(p)
		if n := len(strings.Fields(key)); n == 0 || n > 6 || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, model.KeywordCandidate{
			Keyword:   key,
			Source:    pageSource,
			Relevance: math.Max(0.3, 1-0.05*float64(len(out))),
		})
		if len(out) == maxSeedPhrases {
			break
		}
	}
	return out
}

var titleSeparators = strings.NewReplacer(" - ", "|", " \u2013 ", "|", " \u2014 ", "|", ": ", "|", " \u00b7 ", "|")

// splitTitle breaks "Product | Brand - Tagline" into its parts
func splitTitle(title string) []string {
	return strings.Split(titleSeparators.Replace(title), "|")
}
