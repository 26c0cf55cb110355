package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
)

// Quora collects question titles from the search page
type Quora struct {
	base
	BaseURL string
}

func NewQuora(d Deps) *Quora {
	return &Quora{base: newBase(TagQuora, d), BaseURL: "https://www.quora.com"}
}

func (q *Quora) Keywords(ctx context.Context, seed string, _ model.Locale) []model.KeywordCandidate {
	defer q.guard("keywords")
	body := q.get(ctx, q.BaseURL+"/search?"+url.Values{"q": {seed}}.Encode(), nil)
	if body == nil {
		return nil
	}

	seen := make(map[string]bool)
	var questions []string
	for _, n := range extract.Parse(body).Select("a[href]") {
		href, _ := n.Attr("href")
		question := questionFromPath(href)
		if question == "" {
			continue
		}
		if text := strings.TrimSuffix(n.Text(), "?"); strings.Contains(n.Text(), "?") && text != "" {
			question = strings.ToLower(text)
		}
		if !seen[question] {
			seen[question] = true
			questions = append(questions, question)
		}
	}
	return suggestCandidates(q.name, seed, questions)
}

// questionFromPath turns /How-do-I-learn-Go into "how do i learn go".
// Paths with more than one segment or fewer than three words are not questions.
func questionFromPath(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Host != "" && !strings.HasSuffix(u.Hostname(), "quora.com") {
		return ""
	}
	p := strings.Trim(u.Path, "/")
	if p == "" || strings.Contains(p, "/") {
		return ""
	}
	words := strings.Split(p, "-")
	if len(words) < 3 {
		return ""
	}
	return strings.ToLower(strings.Join(words, " "))
}
