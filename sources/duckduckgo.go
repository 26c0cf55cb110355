package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/seo-optimizer/seotools/browser"
	"github.com/seo-optimizer/seotools/model"
)

// ddgPageSize is the number of results per static DuckDuckGo page
const ddgPageSize = 30

// DuckDuckGo reads organic results from the JavaScript-free HTML endpoint
type DuckDuckGo struct {
	base
	BaseURL string
}

func NewDuckDuckGo(d Deps) *DuckDuckGo {
	return &DuckDuckGo{base: newBase(TagDuckDuckGo, d), BaseURL: "https://html.duckduckgo.com/html/"}
}

func (d *DuckDuckGo) SearchURL(query string, loc model.Locale) string {
	return d.pageURL(query, loc, 1)
}

func (d *DuckDuckGo) pageURL(query string, loc model.Locale, page int) string {
	v := url.Values{"q": {query}, "kl": {ddgRegion(loc)}}
	if page > 1 {
		s := (page - 1) * ddgPageSize
		v.Set("s", strconv.Itoa(s))
		v.Set("dc", strconv.Itoa(s+1))
	}
	return d.BaseURL + "?" + v.Encode()
}

func (d *DuckDuckGo) Competitors(ctx context.Context, query string, loc model.Locale) []model.CompetitorCandidate {
	return d.CompetitorsPage(ctx, query, loc, 1)
}

func (d *DuckDuckGo) CompetitorsPage(ctx context.Context, query string, loc model.Locale, page int) []model.CompetitorCandidate {
	defer d.guard("competitors")
	page = max(page, 1)
	body := d.get(ctx, d.pageURL(query, loc, page), nil)
	if body == nil {
		return nil
	}
	return serpCandidates(d.name, selectHits(body, "a.result__a", unwrapDuckDuckGo), (page-1)*ddgPageSize)
}

// DuckDuckGoBrowser renders the JavaScript results page in the browser
type DuckDuckGoBrowser struct {
	base
	browser browser.Runner
	BaseURL string
}

func NewDuckDuckGoBrowser(d Deps) *DuckDuckGoBrowser {
	return &DuckDuckGoBrowser{base: newBase(TagDuckDuckGoBrowser, d), browser: d.Browser, BaseURL: "https://duckduckgo.com/"}
}

// Available reports whether a browser is configured and enabled
func (d *DuckDuckGoBrowser) Available() bool {
	if d.browser == nil {
		return false
	}
	if e, ok := d.browser.(interface{ Enabled() bool }); ok {
		return e.Enabled()
	}
	return true
}

const ddgScript = `() => JSON.stringify(
  [...document.querySelectorAll('a[data-testid="result-title-a"]')]
    .map(a => ({url: a.href, title: a.innerText})))`

func (d *DuckDuckGoBrowser) Competitors(ctx context.Context, query string, loc model.Locale) []model.CompetitorCandidate {
	defer d.guard("competitors")
	if d.browser == nil {
		return nil
	}
	v := url.Values{"q": {query}, "kl": {ddgRegion(loc)}}
	var hits []serpHit
	err := d.browser.WithPage(ctx, func(p browser.Page) error {
		if err := p.Navigate(ctx, d.BaseURL+"?"+v.Encode(), browser.NavigateOptions{WaitUntil: browser.WaitIdle}); err != nil {
			return err
		}
		return p.Evaluate(ctx, ddgScript, &hits)
	})
	if err != nil {
		d.logger.Debug("sources: duckduckgo browser unavailable", "error", err)
		return nil
	}
	return serpCandidates(d.name, hits, 0)
}
