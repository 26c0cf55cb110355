package scoring

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/seo-optimizer/seotools/analyzer"
	"github.com/seo-optimizer/seotools/cache"
	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
)

// knownAuthorities get a DA floor regardless of what their pages show
var knownAuthorities = map[string]bool{
	"wikipedia.org":     true,
	"youtube.com":       true,
	"amazon.com":        true,
	"reddit.com":        true,
	"github.com":        true,
	"medium.com":        true,
	"linkedin.com":      true,
	"facebook.com":      true,
	"twitter.com":       true,
	"x.com":             true,
	"quora.com":         true,
	"nytimes.com":       true,
	"forbes.com":        true,
	"microsoft.com":     true,
	"apple.com":         true,
	"google.com":        true,
	"stackoverflow.com": true,
	"bbc.co.uk":         true,
	"cnn.com":           true,
}

func tldBias(domain string) int {
	switch {
	case strings.HasSuffix(domain, ".gov") || strings.Contains(domain, ".gov."):
		return 25
	case strings.HasSuffix(domain, ".edu") || strings.Contains(domain, ".edu."):
		return 20
	case strings.HasSuffix(domain, ".org"):
		return 8
	case strings.HasSuffix(domain, ".com"):
		return 3
	}
	return 0
}

func authorityFloor(domain string) int {
	if knownAuthorities[extract.RootDomain(domain)] {
		return 85 + int(absHash(domain)%10)
	}
	return 0
}

// linkProfile derives backlink-style counts from DA
func linkProfile(domain string, da int) (backlinks, referring, organic int) {
	h := absHash(domain + "links")
	backlinks = da * da * (5 + int(h%20))
	referring = backlinks / (8 + int(h%7))
	organic = da * (30 + int(absHash(domain+"organic")%50))
	return backlinks, referring, organic
}

// AuthorityFromSignals scores a domain from the signals of one of its pages
func AuthorityFromSignals(domain, url string, sig analyzer.PageSignals) model.Authority {
	domain = extract.Domain(domain)

	da := 10
	da += min(sig.WordCount/100, 15)
	if sig.H1Count > 0 {
		da += 5
	}
	if sig.H2Count > 0 {
		da += 4
	}
	if sig.H3Count > 0 {
		da += 2
	}
	da += min(sig.TotalImages, 10) / 2
	if sig.TotalImages > 0 && sig.ImagesWithAlt == sig.TotalImages {
		da += 3
	}
	da += min(sig.InternalLinks/5, 10)
	da += min(sig.ExternalLinks/3, 6)
	if sig.MetaDescription != "" {
		da += 5
	}
	if sig.Title != "" {
		da += 4
	}
	if sig.MobileOptimized {
		da += 4
	}
	if sig.HTTPS {
		da += 6
	}
	switch {
	case sig.LoadTime > 0 && sig.LoadTime < 1000:
		da += 5
	case sig.LoadTime > 0 && sig.LoadTime < 2000:
		da += 2
	}
	da += tldBias(domain)
	da += int(absHash(domain) % 10)
	da = Clamp(max(da, authorityFloor(domain)), 1, 100)

	pa := int(math.Round(float64(da) * 0.7))
	if n := len(sig.Title); n >= 30 && n <= 60 {
		pa += 8
	}
	if n := len(sig.MetaDescription); n >= 120 && n <= 160 {
		pa += 7
	}
	pa += min(sig.WordCount/200, 10)
	if sig.H1Count == 1 {
		pa += 5
	}
	pa += int(absHash(url) % 5)
	pa = Clamp(pa, 1, 100)

	backlinks, referring, organic := linkProfile(domain, da)
	return model.Authority{
		DA:               da,
		PA:               pa,
		Backlinks:        backlinks,
		ReferringDomains: referring,
		OrganicKeywords:  organic,
	}
}

// EstimatedAuthority scores a domain from its name alone
func EstimatedAuthority(domain string) model.Authority {
	domain = extract.Domain(domain)
	da := 10 + int(absHash(domain)%60) + tldBias(domain)
	da = Clamp(max(da, authorityFloor(domain)), 1, 100)
	pa := Clamp(int(math.Round(float64(da)*0.7))+int(absHash(domain+"pa")%15), 1, 100)

	backlinks, referring, organic := linkProfile(domain, da)
	return model.Authority{
		DA:               da,
		PA:               pa,
		Backlinks:        backlinks,
		ReferringDomains: referring,
		OrganicKeywords:  organic,
		Estimated:        true,
	}
}

// PageAnalyzer is what Authorities needs from *analyzer.Analyzer
type PageAnalyzer interface {
	Analyze(ctx context.Context, url string) (*analyzer.SEOAnalysis, error)
}

// Authorities scores domains by analysing their pages, falling back to
// name-based estimates. Results are cached per domain.
type Authorities struct {
	pages  PageAnalyzer
	cache  *cache.Store[model.Authority]
	logger *slog.Logger
}

// NewAuthorities creates an Authorities. pages and store may be nil.
func NewAuthorities(pages PageAnalyzer, store *cache.Store[model.Authority], logger *slog.Logger) *Authorities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authorities{pages: pages, cache: store, logger: logger}
}

// Authority scores domain using the page at url, or the domain root when
// url is empty. It never fails.
func (a *Authorities) Authority(ctx context.Context, domain, url string) model.Authority {
	domain = extract.Domain(domain)
	key := "authority|" + domain
	if a.cache != nil {
		if e, ok := a.cache.Get(key); ok {
			return e.Data
		}
	}
	if url == "" {
		url = "https://" + domain
	}

	if a.pages == nil {
		return EstimatedAuthority(domain)
	}
	analysis, err := a.pages.Analyze(ctx, url)
	if err != nil {
		a.logger.Debug("scoring: authority fallback", "domain", domain, "error", err)
		est := EstimatedAuthority(domain)
		if a.cache != nil && ctx.Err() == nil {
			a.cache.Set(key, est, false, "estimate")
		}
		return est
	}

	auth := AuthorityFromSignals(domain, url, analysis.Signals)
	if a.cache != nil {
		a.cache.Set(key, auth, true, "analyzer")
	}
	return auth
}
