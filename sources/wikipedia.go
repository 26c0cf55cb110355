package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/seo-optimizer/seotools/model"
	"github.com/seo-optimizer/seotools/scoring"
)

// Wikipedia turns article titles matching the seed into keywords
type Wikipedia struct {
	base
	// BaseURL overrides https://<lang>.wikipedia.org
	BaseURL string
}

func NewWikipedia(d Deps) *Wikipedia {
	return &Wikipedia{base: newBase(TagWikipedia, d)}
}

func (w *Wikipedia) root(loc model.Locale) string {
	if w.BaseURL != "" {
		return strings.TrimSuffix(w.BaseURL, "/")
	}
	return "https://" + scoring.LanguageCode(loc.Language) + ".wikipedia.org"
}

type wikiSummary struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (w *Wikipedia) Keywords(ctx context.Context, seed string, loc model.Locale) []model.KeywordCandidate {
	defer w.guard("keywords")
	root := w.root(loc)
	v := url.Values{
		"action":    {"opensearch"},
		"search":    {seed},
		"limit":     {"10"},
		"namespace": {"0"},
		"format":    {"json"},
	}
	body := w.get(ctx, root+"/w/api.php?"+v.Encode(), nil)
	if body == nil {
		return nil
	}
	titles := parseSuggestions(body)
	if len(titles) == 0 {
		return nil
	}

	keywords := make([]string, 0, len(titles)+2)
	for _, t := range titles {
		keywords = append(keywords, strings.ToLower(t))
	}

	if w.sleep(ctx) {
		var sum wikiSummary
		if w.getJSON(ctx, root+"/api/rest_v1/page/summary/"+url.PathEscape(strings.ReplaceAll(titles[0], " ", "_")), &sum) &&
			sum.Type == "standard" {
			title := strings.ToLower(sum.Title)
			keywords = append(keywords, "what is "+title)
			if sum.Description != "" && len(strings.Fields(sum.Description)) <= 4 {
				keywords = append(keywords, title+" "+strings.ToLower(sum.Description))
			}
		}
	}
	return suggestCandidates(w.name, seed, keywords)
}
