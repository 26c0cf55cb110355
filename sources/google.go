package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/seo-optimizer/seotools/browser"
	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/scoring"
)

// GoogleAutocomplete queries the public suggestion endpoint
type GoogleAutocomplete struct {
	base
	BaseURL string
	// AlphabetDepth is how many "seed a", "seed b", ... expansions to query
	AlphabetDepth int
}

func NewGoogleAutocomplete(d Deps) *GoogleAutocomplete {
	return &GoogleAutocomplete{
		base:          newBase(TagGoogleAutocomplete, d),
		BaseURL:       "https://suggestqueries.google.com/complete/search",
		AlphabetDepth: 4,
	}
}

// Suggest returns the raw suggestions for one query
func (g *GoogleAutocomplete) Suggest(ctx context.Context, query string, loc model.Locale) []string {
	q := url.Values{
		"client": {"firefox"},
		"q":      {query},
		"hl":     {scoring.LanguageCode(loc.Language)},
		"gl":     {strings.ToLower(scoring.CountryCode(loc.Country))},
	}
	return parseSuggestions(g.get(ctx, g.BaseURL+"?"+q.Encode(), nil))
}

func (g *GoogleAutocomplete) Keywords(ctx context.Context, seed string, loc model.Locale) (out []model.KeywordCandidate) {
	defer g.guard("keywords")
	queries := []string{seed, "how " + seed, seed + " vs"}
	queries = append(queries, alphabetQueries(seed, g.AlphabetDepth)[1:]...)
	for i, q := range queries {
		if i > 0 && !g.sleep(ctx) {
			break
		}
		out = append(out, suggestCandidates(g.name, seed, g.Suggest(ctx, q, loc))...)
	}
	return out
}

// GoogleTrends reads the related queries widget of Google Trends
type GoogleTrends struct {
	base
	BaseURL string
}

func NewGoogleTrends(d Deps) *GoogleTrends {
	return &GoogleTrends{base: newBase(TagGoogleTrends, d), BaseURL: "https://trends.google.com/trends/api"}
}

type trendsWidget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type trendsRelated struct {
	Default struct {
		RankedList []struct {
			RankedKeyword []struct {
				Query string  `json:"query"`
				Value float64 `json:"value"`
			} `json:"rankedKeyword"`
		} `json:"rankedList"`
	} `json:"default"`
}

// stripXSSI drops the )]}' guard line Google prefixes to JSON
func stripXSSI(body []byte) []byte {
	if bytes.HasPrefix(body, []byte(")]}'")) {
		if i := bytes.IndexByte(body, '\n'); i >= 0 {
			return body[i+1:]
		}
		return body[4:]
	}
	return body
}

func (g *GoogleTrends) Keywords(ctx context.Context, seed string, loc model.Locale) []model.KeywordCandidate {
	defer g.guard("keywords")
	geo := scoring.CountryCode(loc.Country)
	hl := scoring.LanguageCode(loc.Language)

	explore, _ := json.Marshal(map[string]any{
		"comparisonItem": []map[string]string{{"keyword": seed, "geo": geo, "time": "today 12-m"}},
		"category":       0,
		"property":       "",
	})
	q := url.Values{"hl": {hl}, "tz": {"0"}, "req": {string(explore)}}
	body := g.get(ctx, g.BaseURL+"/explore?"+q.Encode(), nil)
	if body == nil {
		return nil
	}
	var widgets struct {
		Widgets []trendsWidget `json:"widgets"`
	}
	if err := json.Unmarshal(stripXSSI(body), &widgets); err != nil {
		g.logger.Debug("sources: trends explore decode", "error", err)
		return nil
	}

	var widget *trendsWidget
	for i := range widgets.Widgets {
		if widgets.Widgets[i].ID == "RELATED_QUERIES" {
			widget = &widgets.Widgets[i]
			break
		}
	}
	if widget == nil || !g.sleep(ctx) {
		return nil
	}

	q = url.Values{"hl": {hl}, "tz": {"0"}, "req": {string(widget.Request)}, "token": {widget.Token}}
	body = g.get(ctx, g.BaseURL+"/widgetdata/relatedsearches?"+q.Encode(), nil)
	if body == nil {
		return nil
	}
	var related trendsRelated
	if err := json.Unmarshal(stripXSSI(body), &related); err != nil {
		g.logger.Debug("sources: trends related decode", "error", err)
		return nil
	}

	var out []model.KeywordCandidate
	for _, list := range related.Default.RankedList {
		for _, kw := range list.RankedKeyword {
			if strings.TrimSpace(kw.Query) == "" {
				continue
			}
			rel := math.Min(1, math.Max(0.1, kw.Value/100))
			out = append(out, model.KeywordCandidate{Keyword: kw.Query, Source: g.name, Relevance: rel})
		}
	}
	return out
}

// GooglePAA scrapes "People also ask" questions and related searches with the browser
type GooglePAA struct {
	base
	browser browser.Runner
	BaseURL string
}

func NewGooglePAA(d Deps) *GooglePAA {
	return &GooglePAA{base: newBase(TagGooglePAA, d), browser: d.Browser, BaseURL: "https://www.google.com/search"}
}

const paaScript = `() => {
  const questions = new Set();
  document.querySelectorAll('[data-q], div.related-question-pair').forEach(el => {
    const t = (el.getAttribute('data-q') || el.innerText || '').trim().split('\n')[0];
    if (t) questions.add(t);
  });
  const related = new Set();
  document.querySelectorAll('#botstuff a').forEach(a => {
    const t = (a.innerText || '').trim();
    if (t && t.length < 120) related.add(t);
  });
  return JSON.stringify({questions: [...questions], related: [...related]});
}`

type paaResult struct {
	Questions []string `json:"questions"`
	Related   []string `json:"related"`
}

func (g *GooglePAA) Keywords(ctx context.Context, seed string, loc model.Locale) []model.KeywordCandidate {
	defer g.guard("keywords")
	if g.browser == nil {
		return nil
	}
	q := url.Values{"q": {seed}, "hl": {scoring.LanguageCode(loc.Language)}, "gl": {strings.ToLower(scoring.CountryCode(loc.Country))}}
	var res paaResult
	err := g.browser.WithPage(ctx, func(p browser.Page) error {
		if err := p.Navigate(ctx, g.BaseURL+"?"+q.Encode(), browser.NavigateOptions{WaitUntil: browser.WaitLoad}); err != nil {
			return err
		}
		return p.Evaluate(ctx, paaScript, &res)
	})
	if err != nil {
		g.logger.Debug("sources: paa unavailable", "error", err)
		return nil
	}
	out := suggestCandidates(TagGooglePAA, seed, res.Questions)
	return append(out, suggestCandidates(TagGoogleRelated, seed, res.Related)...)
}

// GoogleSERP reads organic results, through the browser when available and
// the static results page otherwise
type GoogleSERP struct {
	base
	browser browser.Runner
	BaseURL string
}

func NewGoogleSERP(d Deps) *GoogleSERP {
	return &GoogleSERP{base: newBase(TagGoogleSERP, d), browser: d.Browser, BaseURL: "https://www.google.com/search"}
}

const googleSerpScript = `() => JSON.stringify(
  [...document.querySelectorAll('#search a')]
    .filter(a => a.querySelector('h3'))
    .map(a => ({url: a.href, title: a.querySelector('h3').innerText})))`

func (g *GoogleSERP) SearchURL(query string, loc model.Locale) string {
	return g.pageURL(query, loc, 1)
}

func (g *GoogleSERP) pageURL(query string, loc model.Locale, page int) string {
	q := url.Values{"q": {query}, "hl": {scoring.LanguageCode(loc.Language)}, "gl": {strings.ToLower(scoring.CountryCode(loc.Country))}}
	if page > 1 {
		q.Set("start", strconv.Itoa((page-1)*10))
	}
	return g.BaseURL + "?" + q.Encode()
}

func (g *GoogleSERP) Competitors(ctx context.Context, query string, loc model.Locale) []model.CompetitorCandidate {
	return g.CompetitorsPage(ctx, query, loc, 1)
}

func (g *GoogleSERP) CompetitorsPage(ctx context.Context, query string, loc model.Locale, page int) []model.CompetitorCandidate {
	defer g.guard("competitors")
	page = max(page, 1)
	target := g.pageURL(query, loc, page)
	offset := (page - 1) * 10

	if g.browser != nil {
		var hits []serpHit
		err := g.browser.WithPage(ctx, func(p browser.Page) error {
			if err := p.Navigate(ctx, target, browser.NavigateOptions{WaitUntil: browser.WaitLoad}); err != nil {
				return err
			}
			return p.Evaluate(ctx, googleSerpScript, &hits)
		})
		if err == nil && len(hits) > 0 {
			return serpCandidates(g.name, hits, offset)
		}
		g.logger.Debug("sources: google browser tier empty", "error", err)
	}

	body := g.get(ctx, target, nil)
	if body == nil {
		return nil
	}
	var hits []serpHit
	for _, n := range extract.Parse(body).Select("a[href]") {
		h3 := n.Find("h3")
		if len(h3) == 0 {
			continue
		}
		href, _ := n.Attr("href")
		hits = append(hits, serpHit{URL: unwrapGoogle(href), Title: h3[0].Text()})
	}
	return serpCandidates(g.name, hits, offset)
}
