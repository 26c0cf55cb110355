package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/seo-optimizer/seotools/model"
)

// BingAutocomplete queries Bing's OpenSearch suggestion endpoint
type BingAutocomplete struct {
	base
	BaseURL string
}

func NewBingAutocomplete(d Deps) *BingAutocomplete {
	return &BingAutocomplete{base: newBase(TagBingAutocomplete, d), BaseURL: "https://api.bing.com/osjson.aspx"}
}

func (b *BingAutocomplete) Keywords(ctx context.Context, seed string, loc model.Locale) (out []model.KeywordCandidate) {
	defer b.guard("keywords")
	for i, q := range []string{seed, "best " + seed, seed + " for"} {
		if i > 0 && !b.sleep(ctx) {
			break
		}
		v := url.Values{"query": {q}, "market": {market(loc)}}
		out = append(out, suggestCandidates(b.name, seed, parseSuggestions(b.get(ctx, b.BaseURL+"?"+v.Encode(), nil)))...)
	}
	return out
}

// Bing reads organic results from the static results page
type Bing struct {
	base
	BaseURL string
}

func NewBing(d Deps) *Bing {
	return &Bing{base: newBase(TagBing, d), BaseURL: "https://www.bing.com/search"}
}

func (b *Bing) SearchURL(query string, loc model.Locale) string {
	return b.pageURL(query, loc, 1)
}

func (b *Bing) pageURL(query string, loc model.Locale, page int) string {
	v := url.Values{"q": {query}, "mkt": {market(loc)}}
	if page > 1 {
		v.Set("first", strconv.Itoa((page-1)*10+1))
	}
	return b.BaseURL + "?" + v.Encode()
}

func (b *Bing) Competitors(ctx context.Context, query string, loc model.Locale) []model.CompetitorCandidate {
	return b.CompetitorsPage(ctx, query, loc, 1)
}

func (b *Bing) CompetitorsPage(ctx context.Context, query string, loc model.Locale, page int) []model.CompetitorCandidate {
	defer b.guard("competitors")
	page = max(page, 1)
	body := b.get(ctx, b.pageURL(query, loc, page), nil)
	if body == nil {
		return nil
	}
	return serpCandidates(b.name, selectHits(body, "li.b_algo h2 a", unwrapBing), (page-1)*10)
}
