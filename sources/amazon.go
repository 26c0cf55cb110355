package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
)

// Marketplace is an Amazon regional storefront
type Marketplace struct {
	Country       string
	Currency      string
	Host          string
	MarketplaceID string
}

var marketplaces = map[string]Marketplace{
	"US": {Country: "United States", Currency: "USD", Host: "www.amazon.com", MarketplaceID: "ATVPDKIKX0DER"},
	"CA": {Country: "Canada", Currency: "CAD", Host: "www.amazon.ca", MarketplaceID: "A2EUQ1WTGCTBG2"},
	"GB": {Country: "United Kingdom", Currency: "GBP", Host: "www.amazon.co.uk", MarketplaceID: "A1F83G8C2ARO7P"},
	"DE": {Country: "Germany", Currency: "EUR", Host: "www.amazon.de", MarketplaceID: "A1PA6795UKMFR9"},
	"FR": {Country: "France", Currency: "EUR", Host: "www.amazon.fr", MarketplaceID: "A13V1IB3VIYZZH"},
	"ES": {Country: "Spain", Currency: "EUR", Host: "www.amazon.es", MarketplaceID: "A1RKKUPIHCS9HS"},
	"IT": {Country: "Italy", Currency: "EUR", Host: "www.amazon.it", MarketplaceID: "APJ6JRA9NG5V4"},
	"IN": {Country: "India", Currency: "INR", Host: "www.amazon.in", MarketplaceID: "A21TJRUUN4KGV"},
	"JP": {Country: "Japan", Currency: "JPY", Host: "www.amazon.co.jp", MarketplaceID: "A1VC38T7YXB528"},
	"AU": {Country: "Australia", Currency: "AUD", Host: "www.amazon.com.au", MarketplaceID: "A39IBJ37TRP1C6"},
	"BR": {Country: "Brazil", Currency: "BRL", Host: "www.amazon.com.br", MarketplaceID: "A2Q3Y263D00KWC"},
	"MX": {Country: "Mexico", Currency: "MXN", Host: "www.amazon.com.mx", MarketplaceID: "A1AM78C64UM0Y8"},
	"AE": {Country: "United Arab Emirates", Currency: "AED", Host: "www.amazon.ae", MarketplaceID: "A2VIGQ35RCS4UG"},
	"SG": {Country: "Singapore", Currency: "SGD", Host: "www.amazon.sg", MarketplaceID: "A19VAU5U5O7RUS"},
}

// MarketplaceFor returns the storefront of an ISO country code. "UK" is
// accepted for Great Britain; unknown codes get the US store.
func MarketplaceFor(country string) Marketplace {
	code := strings.ToUpper(strings.TrimSpace(country))
	if code == "UK" {
		code = "GB"
	}
	if m, ok := marketplaces[code]; ok {
		return m
	}
	return marketplaces["US"]
}

// AmazonAutocomplete queries the search box completion API
type AmazonAutocomplete struct {
	base
	BaseURL       string
	AlphabetDepth int
}

func NewAmazonAutocomplete(d Deps) *AmazonAutocomplete {
	return &AmazonAutocomplete{
		base:          newBase(TagAmazonAutocomplete, d),
		BaseURL:       "https://completion.amazon.com/api/2017/suggestions",
		AlphabetDepth: 6,
	}
}

type amazonSuggestions struct {
	Suggestions []struct {
		Value string `json:"value"`
	} `json:"suggestions"`
}

// Keywords treats loc.Country as the marketplace code
func (a *AmazonAutocomplete) Keywords(ctx context.Context, seed string, loc model.Locale) (out []model.KeywordCandidate) {
	defer a.guard("keywords")
	m := MarketplaceFor(loc.Country)
	for i, q := range alphabetQueries(seed, a.AlphabetDepth) {
		if i > 0 && !a.sleep(ctx) {
			break
		}
		v := url.Values{
			"page-type":       {"Search"},
			"client-info":     {"amazon-search-ui"},
			"limit":           {"11"},
			"mid":             {m.MarketplaceID},
			"alias":           {"aps"},
			"suggestion-type": {"KEYWORD"},
			"prefix":          {q},
		}
		var payload amazonSuggestions
		if !a.getJSON(ctx, a.BaseURL+"?"+v.Encode(), &payload) {
			continue
		}
		values := make([]string, 0, len(payload.Suggestions))
		for _, s := range payload.Suggestions {
			values = append(values, s.Value)
		}
		out = append(out, suggestCandidates(a.name, seed, values)...)
	}
	return out
}

// AmazonSearch collects the related searches shown on a results page
type AmazonSearch struct {
	base
	// BaseURL overrides https://<marketplace host>
	BaseURL string
}

func NewAmazonSearch(d Deps) *AmazonSearch {
	return &AmazonSearch{base: newBase(TagAmazonSearch, d)}
}

const amazonRelatedCSS = `[data-component-type="s-related-searches"] a, div.s-related-searches a, a.s-related-search`

func (a *AmazonSearch) Keywords(ctx context.Context, seed string, loc model.Locale) []model.KeywordCandidate {
	defer a.guard("keywords")
	root := a.BaseURL
	if root == "" {
		root = "https://" + MarketplaceFor(loc.Country).Host
	}
	body := a.get(ctx, strings.TrimSuffix(root, "/")+"/s?"+url.Values{"k": {seed}}.Encode(), nil)
	if body == nil {
		return nil
	}
	var related []string
	for _, n := range extract.Parse(body).Select(amazonRelatedCSS) {
		if t := n.Text(); t != "" {
			related = append(related, strings.ToLower(t))
		}
	}
	return suggestCandidates(a.name, seed, related)
}
