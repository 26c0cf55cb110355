package sources

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seotools/model"
)

func domains(cs []model.CompetitorCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Domain
	}
	return out
}

func TestDuckDuckGo(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "us-en", r.URL.Query().Get("kl"))
		if r.URL.Query().Get("s") == "30" {
			fmt.Fprint(w, `<a class="result__a" href="https://page2.example/">Second page</a>`)
			return
		}
		fmt.Fprintf(w, `<html><body>
			<a class="result__a" href="//duckduckgo.com/l/?uddg=%s&rut=abc">Runner's World</a>
			<a class="result__a" href="https://www.Nike.com/running">Nike <b>Running</b></a>
			<a class="result__a" href="javascript:void(0)">bad</a>
			<a class="other" href="https://ignored.example">ignored</a>
		</body></html>`, url.QueryEscape("https://www.runnersworld.com/gear/"))
	})

	d := NewDuckDuckGo(testDeps())
	d.BaseURL = srv.URL
	got := d.Competitors(context.Background(), "running shoes", us)

	require.Len(t, got, 2)
	assert.Equal(t, model.CompetitorCandidate{
		Domain:   "runnersworld.com",
		Position: 1,
		URL:      "https://www.runnersworld.com/gear/",
		Title:    "Runner's World",
		Source:   TagDuckDuckGo,
	}, got[0])
	assert.Equal(t, "nike.com", got[1].Domain)
	assert.Equal(t, 2, got[1].Position)
	assert.Equal(t, "Nike Running", got[1].Title)

	page2 := d.CompetitorsPage(context.Background(), "running shoes", us, 2)
	require.Len(t, page2, 1)
	assert.Equal(t, 31, page2[0].Position)
	assert.Contains(t, d.SearchURL("a b", us), "q=a+b")
}

func TestBing(t *testing.T) {
	target := base64.RawURLEncoding.EncodeToString([]byte("https://www.wikipedia.org/wiki/SEO"))
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en-US", r.URL.Query().Get("mkt"))
		first := r.URL.Query().Get("first")
		fmt.Fprintf(w, `<ol>
			<li class="b_algo"><h2><a href="https://www.bing.com/ck/a?!&&p=x&u=a1%s&ntb=1">SEO - Wikipedia</a></h2></li>
			<li class="b_algo"><h2><a href="https://moz.com/learn/seo%s">Moz</a></h2></li>
			<li class="b_ad"><h2><a href="https://ads.example">ad</a></h2></li>
		</ol>`, target, first)
	})

	b := NewBing(testDeps())
	b.BaseURL = srv.URL
	got := b.Competitors(context.Background(), "seo", us)
	assert.Equal(t, []string{"wikipedia.org", "moz.com"}, domains(got))
	assert.Equal(t, "https://www.wikipedia.org/wiki/SEO", got[0].URL)

	page2 := b.CompetitorsPage(context.Background(), "seo", us, 2)
	require.Len(t, page2, 2)
	assert.Equal(t, 11, page2[0].Position)
	assert.Equal(t, "https://moz.com/learn/seo11", page2[1].URL)
}

func TestYahoo(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div class="algo"><h3><a href="https://r.search.yahoo.com/_ylt=A/RV=2/RE=1/RO=10/RU=https%3a%2f%2fwww.ahrefs.com%2fblog%2f/RK=2/RS=x-" aria-label="Ahrefs Blog">ahrefs.com Ahrefs Blog</a></h3></div>
			<div class="algo-sr"><h3><a href="https://semrush.com/">Semrush</a></h3></div>`)
	})
	y := NewYahoo(testDeps())
	y.BaseURL = srv.URL
	got := y.Competitors(context.Background(), "seo", us)
	assert.Equal(t, []string{"ahrefs.com", "semrush.com"}, domains(got))
	assert.Equal(t, "https://www.ahrefs.com/blog/", got[0].URL)
	assert.Equal(t, "Ahrefs Blog", got[0].Title)
}

func TestGoogleSERP(t *testing.T) {
	static := serve(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div id="search">
			<a href="/url?q=https://static.example/page&sa=U"><h3>Static result</h3></a>
			<a href="/search?q=more">More</a>
		</div>`)
	})

	t.Run("Browser", func(t *testing.T) {
		runner := &fakeRunner{payload: `[{"url":"https://rendered.example/a","title":"Rendered"}]`}
		g := NewGoogleSERP(Deps{Fetch: testDeps().Fetch, Browser: runner})
		g.BaseURL = static.URL
		got := g.Competitors(context.Background(), "seo", us)
		assert.Equal(t, []string{"rendered.example"}, domains(got))
	})

	t.Run("StaticFallback", func(t *testing.T) {
		g := NewGoogleSERP(Deps{Fetch: testDeps().Fetch, Browser: &fakeRunner{err: errors.New("chrome missing")}})
		g.BaseURL = static.URL
		got := g.Competitors(context.Background(), "seo", us)
		require.Len(t, got, 1)
		assert.Equal(t, "https://static.example/page", got[0].URL)
		assert.Equal(t, "Static result", got[0].Title)
		assert.Equal(t, TagGoogleSERP, got[0].Source)
	})
}

func TestDuckDuckGoBrowser(t *testing.T) {
	runner := &fakeRunner{payload: `[{"url":"https://a.example/","title":"A"},{"url":"https://b.example/x","title":"B"}]`}
	d := NewDuckDuckGoBrowser(Deps{Browser: runner})
	assert.True(t, d.Available())
	got := d.Competitors(context.Background(), "seo", us)
	assert.Equal(t, []string{"a.example", "b.example"}, domains(got))
	assert.Equal(t, TagDuckDuckGoBrowser, got[0].Source)

	assert.False(t, NewDuckDuckGoBrowser(Deps{}).Available())
	assert.Empty(t, NewDuckDuckGoBrowser(Deps{}).Competitors(context.Background(), "seo", us))
}

func TestSERPsNeverFail(t *testing.T) {
	broken := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	d := testDeps()
	ddg := NewDuckDuckGo(d)
	ddg.BaseURL = broken.URL
	bing := NewBing(d)
	bing.BaseURL = broken.URL
	yahoo := NewYahoo(d)
	yahoo.BaseURL = broken.URL
	google := NewGoogleSERP(d)
	google.BaseURL = broken.URL

	for _, s := range []SERP{ddg, bing, yahoo, google} {
		assert.Empty(t, s.Competitors(context.Background(), "seo", us), s.Name())
	}
}

func TestUnwrap(t *testing.T) {
	assert.Equal(t, "https://x.example/", unwrapDuckDuckGo("//duckduckgo.com/l/?uddg=https%3A%2F%2Fx.example%2F"))
	assert.Equal(t, "https://plain.example", unwrapDuckDuckGo("https://plain.example"))
	assert.Equal(t, "https://plain.example", unwrapBing("https://plain.example"))
	assert.Equal(t, "https://plain.example", unwrapYahoo("https://plain.example"))
	assert.Equal(t, "https://g.example/", unwrapGoogle("/url?q=https://g.example/&sa=U"))
}
