package tools

import (
	"context"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/scoring"
)

const (
	competitorsPerKeyword = 10
	topCompetitorsShown   = 5
	maxCompetitors        = 50
)

type scoredCandidate struct {
	model.CompetitorCandidate
	auth model.Authority
}

type keywordReport struct {
	analysis model.KeywordCompetition
	top      []scoredCandidate
}

// CheckCompetition discovers who ranks for each keyword and scores them.
// Keywords run in a bounded pool; the report keeps input order.
func (s *Service) CheckCompetition(ctx context.Context, targetURL string, keywords []string, country string) (*model.CompetitionAnalysis, error) {
	_, target, err := requireURL("targetUrl", targetURL)
	if err != nil {
		return nil, err
	}
	keywords, err = cleanKeywords(keywords, MaxCompetitionKeywords)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	country = strings.ToUpper(orDefault(country, "US"))
	loc := model.Locale{Country: country, Language: "English"}

	reports := make([]keywordReport, len(keywords))
	var g errgroup.Group
	g.SetLimit(s.cfg.KeywordWorkers)
	for i, kw := range keywords {
		g.Go(func() error {
			reports[i] = s.analyzeKeyword(ctx, target, kw, loc)
			return nil
		})
	}
	_ = g.Wait()

	out := &model.CompetitionAnalysis{
		TargetDomain:    target,
		Keywords:        keywords,
		Country:         country,
		KeywordAnalysis: make([]model.KeywordCompetition, len(reports)),
	}
	byDomain := make(map[string]*model.Competitor)
	var order []string
	for i, r := range reports {
		out.KeywordAnalysis[i] = r.analysis
		for _, c := range r.top {
			if existing, ok := byDomain[c.Domain]; ok {
				if c.Position < existing.Rank {
					existing.Rank = c.Position
					existing.URL = c.URL
				}
				continue
			}
			byDomain[c.Domain] = &model.Competitor{
				Name:             CompetitorName(c.Domain),
				Domain:           c.Domain,
				URL:              c.URL,
				Rank:             c.Position,
				PA:               c.auth.PA,
				DA:               c.auth.DA,
				Backlinks:        c.auth.Backlinks,
				ReferringDomains: c.auth.ReferringDomains,
				OrganicKeywords:  c.auth.OrganicKeywords,
			}
			order = append(order, c.Domain)
		}
	}

	competitors := make([]model.Competitor, 0, len(order))
	for _, d := range order {
		competitors = append(competitors, *byDomain[d])
	}
	sort.SliceStable(competitors, func(i, j int) bool {
		if competitors[i].DA != competitors[j].DA {
			return competitors[i].DA > competitors[j].DA
		}
		return competitors[i].Rank < competitors[j].Rank
	})
	if len(competitors) > maxCompetitors {
		competitors = competitors[:maxCompetitors]
	}
	out.Competitors = competitors
	out.Summary = summarizeCompetition(competitors, out.KeywordAnalysis)

	s.logger.Info("tools: competition checked", "target", target, "keywords", len(keywords), "competitors", len(competitors))
	return out, nil
}

// analyzeKeyword discovers and scores the top results of one keyword
func (s *Service) analyzeKeyword(ctx context.Context, target, keyword string, loc model.Locale) keywordReport {
	report := keywordReport{analysis: model.KeywordCompetition{
		Keyword:        keyword,
		SearchVolume:   scoring.SearchVolume(keyword, keyword, loc),
		TopCompetitors: []string{},
	}}
	if s.deps.Discoverer == nil {
		report.analysis.KeywordGap = true
		return report
	}

	disc := s.deps.Discoverer.Discover(ctx, keyword, loc)
	report.analysis.UsedFallback = disc.UsedFallback

	var found bool
	var rivals []model.CompetitorCandidate
	for _, c := range disc.Competitors {
		if extract.SameSite(c.Domain, target) {
			found = true
			continue
		}
		if len(rivals) < competitorsPerKeyword {
			rivals = append(rivals, c)
		}
	}
	report.analysis.KeywordGap = !found

	report.top = make([]scoredCandidate, len(rivals))
	var g errgroup.Group
	g.SetLimit(s.cfg.AuthorityWorkers)
	for i, c := range rivals {
		g.Go(func() error {
			auth := scoring.EstimatedAuthority(c.Domain)
			if s.deps.Authority != nil {
				auth = s.deps.Authority.Authority(ctx, c.Domain, c.URL)
			}
			report.top[i] = scoredCandidate{CompetitorCandidate: c, auth: auth}
			return nil
		})
	}
	_ = g.Wait()

	var daSum int
	seen := make(map[string]bool)
	for _, c := range report.top {
		daSum += c.auth.DA
		if !seen[c.Domain] && len(report.analysis.TopCompetitors) < topCompetitorsShown {
			seen[c.Domain] = true
			report.analysis.TopCompetitors = append(report.analysis.TopCompetitors, c.Domain)
		}
	}
	if len(report.top) > 0 {
		report.analysis.Difficulty = int(math.Round(float64(daSum) / float64(len(report.top))))
	}
	return report
}

func summarizeCompetition(competitors []model.Competitor, analysis []model.KeywordCompetition) model.CompetitionSummary {
	sum := model.CompetitionSummary{
		TotalCompetitors:   len(competitors),
		TopCompetitorsByDA: []string{},
		KeywordGaps:        []string{},
	}
	var da, pa int
	for i, c := range competitors {
		da += c.DA
		pa += c.PA
		if i < topCompetitorsShown {
			sum.TopCompetitorsByDA = append(sum.TopCompetitorsByDA, c.Domain)
		}
	}
	if n := len(competitors); n > 0 {
		sum.AverageDA = int(math.Round(float64(da) / float64(n)))
		sum.AveragePA = int(math.Round(float64(pa) / float64(n)))
	}
	for _, a := range analysis {
		if a.KeywordGap {
			sum.KeywordGaps = append(sum.KeywordGaps, a.Keyword)
		}
	}
	return sum
}

// CompetitorName is the title-cased first label of a domain:
// "best-buy.com" -> "Best Buy"
func CompetitorName(domain string) string {
	label, _, _ := strings.Cut(extract.Domain(domain), ".")
	return cases.Title(language.English).String(strings.ReplaceAll(label, "-", " "))
}
