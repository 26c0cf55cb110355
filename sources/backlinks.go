package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/fetch"
	"github.com/seo-optimizer/seotools/model"
)

// Mentions searches each engine for pages naming domain outside of domain
// itself. Results keep their engine position and are tagged mention_search.
func Mentions(ctx context.Context, domain string, engines ...CompetitorSource) []model.CompetitorCandidate {
	query := fmt.Sprintf("%q -site:%s", domain, domain)
	results := make([][]model.CompetitorCandidate, len(engines))
	var wg sync.WaitGroup
	for i, e := range engines {
		wg.Add(1)
		go func(i int, e CompetitorSource) {
			defer wg.Done()
			results[i] = e.Competitors(ctx, query, model.Locale{})
		}(i, e)
	}
	wg.Wait()

	var out []model.CompetitorCandidate
	for _, rs := range results {
		for _, c := range rs {
			if extract.SameSite(c.Domain, domain) {
				continue
			}
			c.Source = TagMentionSearch
			out = append(out, c)
		}
	}
	return out
}

// Platform is a site where brands commonly keep a profile
type Platform struct {
	Name string
	// URL is a format string receiving the brand handle
	URL string
}

// DefaultPlatforms are probed for a brand profile
var DefaultPlatforms = []Platform{
	{Name: "reddit", URL: "https://www.reddit.com/r/%s"},
	{Name: "medium", URL: "https://medium.com/@%s"},
	{Name: "linkedin", URL: "https://www.linkedin.com/company/%s"},
	{Name: "youtube", URL: "https://www.youtube.com/@%s"},
	{Name: "github", URL: "https://github.com/%s"},
	{Name: "producthunt", URL: "https://www.producthunt.com/products/%s"},
	{Name: "crunchbase", URL: "https://www.crunchbase.com/organization/%s"},
	{Name: "x", URL: "https://x.com/%s"},
	{Name: "facebook", URL: "https://www.facebook.com/%s"},
	{Name: "instagram", URL: "https://www.instagram.com/%s"},
	{Name: "pinterest", URL: "https://www.pinterest.com/%s"},
	{Name: "trustpilot", URL: "https://www.trustpilot.com/review/%s"},
}

// ProbeHit is a platform URL that answered
type ProbeHit struct {
	Platform string
	URL      string
	Status   int
}

// PlatformProbe checks which platform profile URLs exist for a brand
type PlatformProbe struct {
	base
	Platforms []Platform
	Workers   int
}

func NewPlatformProbe(d Deps) *PlatformProbe {
	return &PlatformProbe{base: newBase(TagPlatformProbe, d), Platforms: DefaultPlatforms, Workers: 4}
}

// Brand is the first label of a domain: "shop.example.co.uk" -> "example"
func Brand(domain string) string {
	root := extract.RootDomain(domain)
	if i := strings.IndexByte(root, '.'); i > 0 {
		return root[:i]
	}
	return root
}

// Probe HEADs every platform URL and keeps 2xx and 3xx answers, in platform order
func (p *PlatformProbe) Probe(ctx context.Context, domain string) []ProbeHit {
	defer p.guard("probe")
	brand := Brand(domain)
	if brand == "" || p.fetch == nil {
		return nil
	}

	hits := make([]*ProbeHit, len(p.Platforms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.Workers, 1))
	for i, pl := range p.Platforms {
		target := pl.URL
		if strings.Contains(target, "%s") {
			target = fmt.Sprintf(pl.URL, brand)
			// trustpilot reviews are keyed by domain, not handle
			if pl.Name == "trustpilot" {
				target = fmt.Sprintf(pl.URL, extract.Domain(domain))
			}
		}
		g.Go(func() error {
			resp, err := p.fetch.Head(gctx, target, fetch.Options{MaxRedirects: 3})
			if err != nil {
				p.logger.Debug("sources: probe failed", "url", target, "error", err)
				return nil
			}
			if resp.Status >= 200 && resp.Status < 400 {
				hits[i] = &ProbeHit{Platform: pl.Name, URL: target, Status: resp.Status}
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []ProbeHit
	for _, h := range hits {
		if h != nil {
			out = append(out, *h)
		}
	}
	return out
}

// SitemapInfo describes what a site exposes to crawlers
type SitemapInfo struct {
	Sitemaps  []string
	URLCount  int
	Crawlable bool
}

// Sitemaps reads robots.txt and the sitemaps it declares
type Sitemaps struct {
	base
	UserAgent string
	// MaxSitemaps bounds how many sitemap documents are read
	MaxSitemaps int
}

func NewSitemaps(d Deps) *Sitemaps {
	return &Sitemaps{base: newBase(TagSitemap, d), UserAgent: "seotools", MaxSitemaps: 5}
}

type sitemapDoc struct {
	XMLName  xml.Name
	URLs     []struct{ Loc string `xml:"loc"` } `xml:"url"`
	Sitemaps []struct{ Loc string `xml:"loc"` } `xml:"sitemap"`
}

// Discover inspects siteURL's robots.txt and counts the URLs of its sitemaps.
// A missing robots.txt means the site is crawlable.
func (s *Sitemaps) Discover(ctx context.Context, siteURL string) SitemapInfo {
	defer s.guard("discover")
	u, err := url.Parse(extract.EnsureScheme(siteURL))
	if err != nil || u.Host == "" {
		return SitemapInfo{}
	}
	root := u.Scheme + "://" + u.Host

	info := SitemapInfo{Crawlable: true}
	if s.fetch == nil {
		return info
	}
	if resp, err := s.fetch.Get(ctx, root+"/robots.txt", fetch.Options{}); err == nil {
		robots, err := robotstxt.FromStatusAndBytes(resp.Status, resp.Body)
		if err == nil {
			info.Crawlable = robots.TestAgent("/", s.UserAgent)
			info.Sitemaps = append(info.Sitemaps, robots.Sitemaps...)
		}
	}
	if len(info.Sitemaps) == 0 {
		info.Sitemaps = []string{root + "/sitemap.xml"}
	}

	queue := append([]string(nil), info.Sitemaps...)
	for read := 0; len(queue) > 0 && read < s.MaxSitemaps; read++ {
		next := queue[0]
		queue = queue[1:]
		body := s.get(ctx, next, nil)
		if body == nil {
			continue
		}
		var doc sitemapDoc
		if err := xml.Unmarshal(body, &doc); err != nil {
			s.logger.Debug("sources: sitemap decode", "url", next, "error", err)
			continue
		}
		info.URLCount += len(doc.URLs)
		for _, sm := range doc.Sitemaps {
			if loc := strings.TrimSpace(sm.Loc); loc != "" {
				queue = append(queue, loc)
			}
		}
	}
	return info
}
