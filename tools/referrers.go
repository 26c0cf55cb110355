package tools

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/scoring"
	"github.com/seo-optimizer/seotools/sources"
)

const maxReferrers = 50

// TopReferrers finds pages mentioning or linking to a site: search engine
// mentions verified by fetching each page, brand profiles on well known
// platforms, and the site's own sitemap for the indexed page count.
func (s *Service) TopReferrers(ctx context.Context, targetURL string) (*model.TopReferrers, error) {
	u, domain, err := requireURL("targetUrl", targetURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		mentions []model.CompetitorCandidate
		hits     []sources.ProbeHit
		sitemap  sources.SitemapInfo
	)
	var g errgroup.Group
	g.Go(func() error {
		if len(s.deps.Mentions) > 0 {
			mentions = sources.Mentions(ctx, domain, s.deps.Mentions...)
		}
		return nil
	})
	g.Go(func() error {
		if s.deps.Probe != nil {
			hits = s.deps.Probe.Probe(ctx, domain)
		}
		return nil
	})
	g.Go(func() error {
		if s.deps.Sitemaps != nil {
			sitemap = s.deps.Sitemaps.Discover(ctx, u)
		}
		return nil
	})
	_ = g.Wait()

	referrers := s.verifyMentions(ctx, domain, mentions)
	for _, h := range hits {
		referrers = append(referrers, model.Referrer{
			URL:             h.URL,
			Domain:          extract.Domain(h.URL),
			Backlinks:       1,
			DomainAuthority: scoring.EstimatedAuthority(extract.Domain(h.URL)).DA,
			LinkType:        model.LinkNofollow,
			AnchorText:      sources.Brand(domain),
			PageTitle:       CompetitorName(h.Platform) + " profile",
			Source:          sources.TagPlatformProbe,
		})
	}

	referrers = dedupeReferrers(referrers)
	sort.SliceStable(referrers, func(i, j int) bool {
		return referrers[i].DomainAuthority > referrers[j].DomainAuthority
	})
	if len(referrers) > maxReferrers {
		referrers = referrers[:maxReferrers]
	}

	sum := model.ReferrerSummary{TotalReferrers: len(referrers), IndexedPages: sitemap.URLCount}
	var da int
	for _, r := range referrers {
		sum.TotalBacklinks += r.Backlinks
		da += r.DomainAuthority
		if r.LinkType == model.LinkDofollow {
			sum.Dofollow++
		} else {
			sum.Nofollow++
		}
	}
	if len(referrers) > 0 {
		sum.AverageDomainAuthority = int(math.Round(float64(da) / float64(len(referrers))))
	}

	s.logger.Info("tools: referrers", "domain", domain, "referrers", len(referrers),
		"crawlable", sitemap.Crawlable, "indexed", sitemap.URLCount)
	return &model.TopReferrers{TargetURL: u, Domain: domain, Referrers: nonNil(referrers), Summary: sum}, nil
}

// verifyMentions fetches mentioning pages in a bounded pool and looks for
// links to domain. Pages that cannot be fetched or carry no link are kept
// unverified.
func (s *Service) verifyMentions(ctx context.Context, domain string, mentions []model.CompetitorCandidate) []model.Referrer {
	seen := make(map[string]bool)
	var pages []model.CompetitorCandidate
	for _, m := range mentions {
		key := extract.NormalizeURL(m.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		pages = append(pages, m)
		if len(pages) == s.cfg.ReferrerPages {
			break
		}
	}

	out := make([]model.Referrer, len(pages))
	var g errgroup.Group
	g.SetLimit(s.cfg.AuthorityWorkers)
	for i, m := range pages {
		g.Go(func() error {
			out[i] = s.verifyMention(ctx, domain, m)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) verifyMention(ctx context.Context, domain string, m model.CompetitorCandidate) model.Referrer {
	ref := model.Referrer{
		URL:             m.URL,
		Domain:          m.Domain,
		DomainAuthority: scoring.EstimatedAuthority(m.Domain).DA,
		LinkType:        model.LinkNofollow,
		PageTitle:       m.Title,
		Source:          sources.TagMentionSearch,
	}
	if s.deps.Pages == nil {
		return ref
	}
	analysis, err := s.deps.Pages.Analyze(ctx, m.URL)
	if err != nil {
		s.logger.Debug("tools: mention unverified", "url", m.URL, "error", err)
		return ref
	}

	sig := analysis.Signals
	ref.DomainAuthority = scoring.AuthorityFromSignals(m.Domain, m.URL, sig).DA
	if sig.Title != "" {
		ref.PageTitle = sig.Title
	}

	var anchor string
	for _, l := range sig.Links {
		if !extract.SameSite(l.URL, domain) {
			continue
		}
		ref.Backlinks++
		if !l.Nofollow() && ref.LinkType != model.LinkDofollow {
			ref.LinkType = model.LinkDofollow
			anchor = l.Text
		}
		if anchor == "" {
			anchor = l.Text
		}
	}
	if ref.Backlinks == 0 {
		return ref
	}
	ref.AnchorText = anchor
	now := s.now()
	ref.LastSeenDate = &now
	ref.FirstSeenDate = sig.LastModified
	return ref
}

func dedupeReferrers(rs []model.Referrer) []model.Referrer {
	seen := make(map[string]bool)
	out := rs[:0]
	for _, r := range rs {
		key := extract.NormalizeURL(r.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
