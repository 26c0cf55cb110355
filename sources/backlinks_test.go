package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seotools/model"
)

type staticSERP struct {
	name    string
	results []model.CompetitorCandidate
	query   string
}

func (s *staticSERP) Name() string { return s.name }

func (s *staticSERP) Competitors(_ context.Context, query string, _ model.Locale) []model.CompetitorCandidate {
	s.query = query
	return s.results
}

func TestMentions(t *testing.T) {
	ddg := &staticSERP{name: TagDuckDuckGo, results: []model.CompetitorCandidate{
		{Domain: "blog.example", Position: 1, URL: "https://blog.example/post"},
		{Domain: "docs.acme.com", Position: 2, URL: "https://docs.acme.com/"},
	}}
	bing := &staticSERP{name: TagBing, results: []model.CompetitorCandidate{
		{Domain: "news.example", Position: 1, URL: "https://news.example/a"},
	}}

	got := Mentions(context.Background(), "acme.com", ddg, bing)
	assert.Equal(t, `"acme.com" -site:acme.com`, ddg.query)
	require.Len(t, got, 2)
	assert.Equal(t, "blog.example", got[0].Domain)
	assert.Equal(t, "news.example", got[1].Domain)
	for _, c := range got {
		assert.Equal(t, TagMentionSearch, c.Source)
	}
}

func TestBrand(t *testing.T) {
	assert.Equal(t, "example", Brand("shop.example.co.uk"))
	assert.Equal(t, "acme", Brand("https://www.acme.com/about"))
	assert.Equal(t, "", Brand(""))
}

func TestPlatformProbe(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/r/acme", "/review/acme.com":
			w.WriteHeader(http.StatusOK)
		case "/@acme":
			http.Redirect(w, r, "/r/acme", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	})

	p := NewPlatformProbe(testDeps())
	p.Platforms = []Platform{
		{Name: "reddit", URL: srv.URL + "/r/%s"},
		{Name: "medium", URL: srv.URL + "/@%s"},
		{Name: "github", URL: srv.URL + "/%s"},
		{Name: "trustpilot", URL: srv.URL + "/review/%s"},
	}
	got := p.Probe(context.Background(), "www.acme.com")

	require.Len(t, got, 3)
	assert.Equal(t, "reddit", got[0].Platform)
	assert.Equal(t, "medium", got[1].Platform)
	assert.Equal(t, "trustpilot", got[2].Platform)
	assert.True(t, strings.HasSuffix(got[2].URL, "/review/acme.com"))
}

func TestSitemaps(t *testing.T) {
	var srvURL string
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			fmt.Fprintf(w, "User-agent: *\nDisallow: /private\n\nSitemap: %s/sitemap_index.xml\n", srvURL)
		case "/sitemap_index.xml":
			fmt.Fprintf(w, `<?xml version="1.0"?><sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
				<sitemap><loc>%s/posts.xml</loc></sitemap><sitemap><loc>%s/pages.xml</loc></sitemap></sitemapindex>`, srvURL, srvURL)
		case "/posts.xml":
			fmt.Fprint(w, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url><loc>a</loc></url><url><loc>b</loc></url><url><loc>c</loc></url></urlset>`)
		case "/pages.xml":
			fmt.Fprint(w, `<urlset><url><loc>d</loc></url></urlset>`)
		default:
			http.NotFound(w, r)
		}
	})
	srvURL = srv.URL

	s := NewSitemaps(testDeps())
	info := s.Discover(context.Background(), srv.URL+"/some/page")
	assert.True(t, info.Crawlable)
	assert.Equal(t, []string{srv.URL + "/sitemap_index.xml"}, info.Sitemaps)
	assert.Equal(t, 4, info.URLCount)

	t.Run("BlockedAndNoSitemap", func(t *testing.T) {
		blocked := serve(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
				return
			}
			http.NotFound(w, r)
		})
		info := s.Discover(context.Background(), blocked.URL)
		assert.False(t, info.Crawlable)
		assert.Equal(t, []string{blocked.URL + "/sitemap.xml"}, info.Sitemaps)
		assert.Zero(t, info.URLCount)
	})

	t.Run("MissingRobots", func(t *testing.T) {
		empty := serve(t, http.NotFound)
		info := s.Discover(context.Background(), empty.URL)
		assert.True(t, info.Crawlable)
	})
}
