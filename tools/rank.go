package tools

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/sources"
)

// TrackRank finds the position of domain for keyword on engine, which
// defaults to duckduckgo. When the engine returns nothing the DuckDuckGo
// and Bing tiers are tried in turn.
func (s *Service) TrackRank(ctx context.Context, domain, keyword, engine string) (*model.RankResult, error) {
	_, domain, err := requireURL("domain", domain)
	if err != nil {
		return nil, err
	}
	keyword, err = requireText("keyword", keyword)
	if err != nil {
		return nil, err
	}
	engine, err = s.requireEngine(engine)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := s.rank(ctx, domain, keyword, engine)
	return &res, nil
}

// TrackRanks tracks up to 50 keywords in a bounded pool, keeping input order
func (s *Service) TrackRanks(ctx context.Context, domain string, keywords []string, engine string) (*model.BatchRankResult, error) {
	_, domain, err := requireURL("domain", domain)
	if err != nil {
		return nil, err
	}
	keywords, err = cleanKeywords(keywords, MaxRankKeywords)
	if err != nil {
		return nil, err
	}
	engine, err = s.requireEngine(engine)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]model.RankResult, len(keywords))
	var g errgroup.Group
	g.SetLimit(s.cfg.KeywordWorkers)
	for i, kw := range keywords {
		g.Go(func() error {
			results[i] = s.rank(ctx, domain, kw, engine)
			return nil
		})
	}
	_ = g.Wait()

	sum := model.RankSummary{Tracked: len(results)}
	var positions int
	for _, r := range results {
		if r.Position == nil {
			continue
		}
		sum.Ranked++
		positions += *r.Position
		if r.Top3 {
			sum.Top3++
		}
		if r.Top10 {
			sum.Top10++
		}
		if r.Top20 {
			sum.Top20++
		}
	}
	if sum.Ranked > 0 {
		sum.AveragePosition = round(float64(positions)/float64(sum.Ranked), 1)
	}

	s.logger.Info("tools: ranks tracked", "domain", domain, "engine", engine, "keywords", len(keywords), "ranked", sum.Ranked)
	return &model.BatchRankResult{Domain: domain, SearchEngine: engine, Results: results, Summary: sum}, nil
}

func (s *Service) requireEngine(engine string) (string, error) {
	engine = strings.ToLower(orDefault(engine, EngineDuckDuckGo))
	if _, ok := s.deps.Engines[engine]; !ok {
		return "", invalid("searchEngine", "must be one of %s", strings.Join(s.Engines(), ", "))
	}
	return engine, nil
}

func (s *Service) rank(ctx context.Context, domain, keyword, engine string) model.RankResult {
	loc := model.Locale{}
	primary := s.deps.Engines[engine]
	res := model.RankResult{
		Keyword:      keyword,
		Domain:       domain,
		SearchEngine: engine,
		Visibility:   model.VisibilityHard,
		SearchURL:    primary.SearchURL(keyword, loc),
	}

	tiers := []sources.SERP{primary}
	for _, name := range []string{EngineDuckDuckGo, EngineBing} {
		if e, ok := s.deps.Engines[name]; ok && name != engine {
			tiers = append(tiers, e)
		}
	}

	var results []model.CompetitorCandidate
	for _, tier := range tiers {
		results = s.serpPages(ctx, tier, keyword, domain, loc)
		if len(results) > 0 {
			if tier != primary {
				s.logger.Debug("tools: rank fallback tier", "keyword", keyword, "engine", engine, "tier", tier.Name())
			}
			break
		}
	}

	res.TotalResults = len(results)
	res.Timestamp = s.now()
	if pos, url := position(results, domain); pos > 0 {
		res.Position = &pos
		res.MatchedURL = url
		res.Top3 = pos <= 3
		res.Top10 = pos <= 10
		res.Top20 = pos <= 20
		res.FirstPage = pos <= 10
		res.Visibility = visibility(pos)
	}
	return res
}

// serpPages reads result pages until domain shows up, a page is empty or
// RankPages is reached
func (s *Service) serpPages(ctx context.Context, serp sources.SERP, keyword, domain string, loc model.Locale) []model.CompetitorCandidate {
	var results []model.CompetitorCandidate
	for page := 1; page <= s.cfg.RankPages; page++ {
		rs := serp.CompetitorsPage(ctx, keyword, loc, page)
		if len(rs) == 0 {
			break
		}
		results = append(results, rs...)
		if pos, _ := position(results, domain); pos > 0 || ctx.Err() != nil {
			break
		}
	}
	return results
}

// position is the 1-based index of the first result on domain or a subdomain of it
func position(results []model.CompetitorCandidate, domain string) (int, string) {
	for i, r := range results {
		host := r.Domain
		if host == "" {
			host = extract.Domain(r.URL)
		}
		if extract.SameSite(host, domain) {
			return i + 1, r.URL
		}
	}
	return 0, ""
}

func visibility(pos int) string {
	switch {
	case pos <= 10:
		return model.VisibilityEasy
	case pos <= 20:
		return model.VisibilityMedium
	default:
		return model.VisibilityHard
	}
}

