package sources

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/scoring"
)

// YouTube queries YouTube search suggestions
type YouTube struct {
	base
	BaseURL       string
	AlphabetDepth int
}

func NewYouTube(d Deps) *YouTube {
	return &YouTube{
		base:          newBase(TagYouTubeAutocomplete, d),
		BaseURL:       "https://suggestqueries.google.com/complete/search",
		AlphabetDepth: 6,
	}
}

// stripJSONP unwraps callback(...) into its argument
func stripJSONP(body []byte) []byte {
	start := bytes.IndexByte(body, '(')
	end := bytes.LastIndexByte(body, ')')
	if start < 0 || end <= start {
		return body
	}
	return body[start+1 : end]
}

func (y *YouTube) Keywords(ctx context.Context, seed string, loc model.Locale) (out []model.KeywordCandidate) {
	defer y.guard("keywords")
	for i, q := range alphabetQueries(seed, y.AlphabetDepth) {
		if i > 0 && !y.sleep(ctx) {
			break
		}
		v := url.Values{
			"client": {"youtube"},
			"ds":     {"yt"},
			"q":      {q},
			"hl":     {scoring.LanguageCode(loc.Language)},
			"gl":     {strings.ToLower(scoring.CountryCode(loc.Country))},
		}
		body := y.get(ctx, y.BaseURL+"?"+v.Encode(), nil)
		if body == nil {
			continue
		}
		out = append(out, suggestCandidates(y.name, seed, parseSuggestions(stripJSONP(body)))...)
	}
	return out
}
