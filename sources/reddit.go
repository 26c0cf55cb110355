package sources

import (
	"context"
	"net/url"
	"strings"
	"unicode"

	"github.com/seo-optimizer/seotools/model"
)

// Reddit turns post titles into keyword phrases
type Reddit struct {
	base
	BaseURL string
}

func NewReddit(d Deps) *Reddit {
	return &Reddit{base: newBase(TagReddit, d), BaseURL: "https://www.reddit.com"}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string `json:"title"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// maxPhraseWords bounds phrases cut out of long titles
const maxPhraseWords = 6

func (r *Reddit) Keywords(ctx context.Context, seed string, _ model.Locale) []model.KeywordCandidate {
	defer r.guard("keywords")
	v := url.Values{"q": {seed}, "limit": {"25"}, "sort": {"relevance"}, "type": {"link"}}
	var listing redditListing
	if !r.getJSON(ctx, r.BaseURL+"/search.json?"+v.Encode(), &listing) {
		return nil
	}

	var phrases []string
	for _, c := range listing.Data.Children {
		if p := titlePhrase(c.Data.Title, seed); p != "" {
			phrases = append(phrases, p)
		}
	}
	return suggestCandidates(r.name, seed, phrases)
}

// titlePhrase lowercases a title, strips punctuation and cuts a window of
// words around the first seed word. Titles sharing no word with the seed
// yield "".
func titlePhrase(title, seed string) string {
	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	seedWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(seed)) {
		seedWords[w] = true
	}
	at := -1
	for i, w := range words {
		if seedWords[w] {
			at = i
			break
		}
	}
	if at < 0 {
		return ""
	}
	if len(words) <= maxPhraseWords {
		return strings.Join(words, " ")
	}
	start := max(0, at-2)
	end := min(len(words), start+maxPhraseWords)
	return strings.Join(words[start:end], " ")
}
