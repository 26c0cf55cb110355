package tools

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/seo-optimizer/seotools/aggregate"
	"github.com/seo-optimizer/seotools/analyzer"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/sources"
)

type fakeKeywords struct {
	name  string
	out   []model.KeywordCandidate
	panic bool
	calls atomic.Int32
}

func (f *fakeKeywords) Name() string { return f.name }

func (f *fakeKeywords) Keywords(context.Context, string, model.Locale) []model.KeywordCandidate {
	f.calls.Add(1)
	if f.panic {
		panic("source exploded")
	}
	return f.out
}

// fakeSERP answers by query, one slice per result page
type fakeSERP struct {
	name    string
	byQuery map[string][][]model.CompetitorCandidate
	mu      sync.Mutex
	pages   []int
}

func (f *fakeSERP) Name() string { return f.name }

func (f *fakeSERP) Competitors(ctx context.Context, query string, loc model.Locale) []model.CompetitorCandidate {
	return f.CompetitorsPage(ctx, query, loc, 1)
}

func (f *fakeSERP) CompetitorsPage(_ context.Context, query string, _ model.Locale, page int) []model.CompetitorCandidate {
	f.mu.Lock()
	f.pages = append(f.pages, page)
	f.mu.Unlock()
	pages := f.byQuery[query]
	if page > len(pages) {
		return nil
	}
	return pages[page-1]
}

func (f *fakeSERP) SearchURL(query string, _ model.Locale) string {
	return "https://" + f.name + ".example/search?q=" + url.QueryEscape(query)
}

type fakeDiscoverer map[string]aggregate.Discovery

func (f fakeDiscoverer) Discover(_ context.Context, keyword string, _ model.Locale) aggregate.Discovery {
	return f[keyword]
}

type fakeAuthority map[string]int

func (f fakeAuthority) Authority(_ context.Context, domain, _ string) model.Authority {
	da := f[domain]
	return model.Authority{DA: da, PA: max(da-5, 1), Backlinks: da * 10}
}

var errUnreachable = errors.New("unreachable")

type fakePages struct {
	analyses map[string]*analyzer.SEOAnalysis
	audits   atomic.Int32
}

func (f *fakePages) Analyze(_ context.Context, u string) (*analyzer.SEOAnalysis, error) {
	if a, ok := f.analyses[u]; ok {
		return a, nil
	}
	return nil, errUnreachable
}

func (f *fakePages) Audit(ctx context.Context, u string) (*analyzer.SEOAnalysis, error) {
	f.audits.Add(1)
	return f.Analyze(ctx, u)
}

type fakeSuggester struct {
	mu      sync.Mutex
	out     []string
	queries []string
}

func (f *fakeSuggester) Suggest(_ context.Context, query string, _ model.Locale) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	return f.out
}

type fakeProbe []sources.ProbeHit

func (f fakeProbe) Probe(context.Context, string) []sources.ProbeHit { return f }

type fakeSitemaps sources.SitemapInfo

func (f fakeSitemaps) Discover(context.Context, string) sources.SitemapInfo {
	return sources.SitemapInfo(f)
}

func cand(domain, path string, pos int) model.CompetitorCandidate {
	return model.CompetitorCandidate{Domain: domain, Position: pos, URL: "https://" + domain + path, Title: domain}
}
