package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/seo-optimizer/seotools/model"
)

// Yahoo reads organic results from the static results page
type Yahoo struct {
	base
	BaseURL string
}

func NewYahoo(d Deps) *Yahoo {
	return &Yahoo{base: newBase(TagYahoo, d), BaseURL: "https://search.yahoo.com/search"}
}

func (y *Yahoo) SearchURL(query string, loc model.Locale) string {
	return y.pageURL(query, 1)
}

func (y *Yahoo) pageURL(query string, page int) string {
	v := url.Values{"p": {query}}
	if page > 1 {
		v.Set("b", strconv.Itoa((page-1)*10+1))
	}
	return y.BaseURL + "?" + v.Encode()
}

func (y *Yahoo) Competitors(ctx context.Context, query string, loc model.Locale) []model.CompetitorCandidate {
	return y.CompetitorsPage(ctx, query, loc, 1)
}

func (y *Yahoo) CompetitorsPage(ctx context.Context, query string, _ model.Locale, page int) []model.CompetitorCandidate {
	defer y.guard("competitors")
	page = max(page, 1)
	body := y.get(ctx, y.pageURL(query, page), nil)
	if body == nil {
		return nil
	}
	return serpCandidates(y.name, selectHits(body, "div.algo h3 a, div.algo-sr h3 a", unwrapYahoo), (page-1)*10)
}
