// Package sources holds the scraped source adapters. Every adapter turns
// one external service into keyword or competitor candidates. Adapters
// never return errors: failures are logged and yield an empty slice.
package sources

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/seo-optimizer/seotools/browser"
	"github.com/seo-optimizer/seotools/fetch"
	"github.com/seo-optimizer/seotools/model"
)

// Source tags
const (
	TagGoogleAutocomplete  = "google_autocomplete"
	TagGoogleTrends        = "google_trends"
	TagGooglePAA           = "google_paa"
	TagGoogleRelated       = "google_related"
	TagGoogleSERP          = "google_serp"
	TagBingAutocomplete    = "bing_autocomplete"
	TagBing                = "bing"
	TagDuckDuckGo          = "duckduckgo"
	TagDuckDuckGoBrowser   = "duckduckgo_browser"
	TagYahoo               = "yahoo"
	TagYouTubeAutocomplete = "youtube_autocomplete"
	TagWikipedia           = "wikipedia"
	TagReddit              = "reddit"
	TagQuora               = "quora"
	TagAmazonAutocomplete  = "amazon_autocomplete"
	TagAmazonSearch        = "amazon_search"
	TagPattern             = "pattern"
	TagMentionSearch       = "mention_search"
	TagPlatformProbe       = "platform_probe"
	TagSitemap             = "sitemap"
)

// KeywordSource produces keyword candidates for a seed
type KeywordSource interface {
	Name() string
	Keywords(ctx context.Context, seed string, loc model.Locale) []model.KeywordCandidate
}

// CompetitorSource produces ranked search results for a query
type CompetitorSource interface {
	Name() string
	Competitors(ctx context.Context, query string, loc model.Locale) []model.CompetitorCandidate
}

// SERP is a search engine results source that can page and link to its results
type SERP interface {
	CompetitorSource
	// CompetitorsPage returns the given 1-based result page
	CompetitorsPage(ctx context.Context, query string, loc model.Locale, page int) []model.CompetitorCandidate
	SearchURL(query string, loc model.Locale) string
}

// Deps are the collaborators shared by all adapters
type Deps struct {
	Fetch   fetch.Doer
	Browser browser.Runner
	Logger  *slog.Logger
	// Pause is the base politeness delay between an adapter's own
	// sub-queries. A random jitter of up to half of it is added.
	Pause time.Duration
}

type base struct {
	name   string
	fetch  fetch.Doer
	logger *slog.Logger
	pause  time.Duration
}

func newBase(name string, d Deps) base {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return base{name: name, fetch: d.Fetch, logger: logger.With("source", name), pause: d.Pause}
}

func (b base) Name() string { return b.name }

// get fetches rawURL and returns the body of a 2xx response, or nil
func (b base) get(ctx context.Context, rawURL string, headers map[string]string) []byte {
	if b.fetch == nil {
		return nil
	}
	resp, err := b.fetch.Get(ctx, rawURL, fetch.Options{Headers: headers, RequireSuccess: true})
	if err != nil {
		b.logger.Debug("sources: fetch failed", "url", rawURL, "error", err)
		return nil
	}
	return resp.Body
}

// getJSON fetches rawURL and decodes it into out
func (b base) getJSON(ctx context.Context, rawURL string, out any) bool {
	body := b.get(ctx, rawURL, map[string]string{"Accept": "application/json"})
	if body == nil {
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		b.logger.Debug("sources: decode failed", "url", rawURL, "error", err)
		return false
	}
	return true
}

// sleep waits for the politeness delay. It returns false when ctx ends first.
func (b base) sleep(ctx context.Context) bool {
	if b.pause <= 0 {
		return ctx.Err() == nil
	}
	d := b.pause + rand.N(b.pause/2+1)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// guard recovers a panicking adapter into an empty result
func (b base) guard(what string) {
	if r := recover(); r != nil {
		b.logger.Error("sources: adapter panicked", "op", what, "panic", r)
	}
}

// Relevance scores the idx-th suggestion of a ranked list, boosted by
// word overlap with the seed
func Relevance(idx int, keyword, seed string) float64 {
	r := math.Max(0.1, 1-float64(idx)*0.05)
	seedWords := strings.Fields(strings.ToLower(seed))
	if len(seedWords) == 0 {
		return r
	}
	kw := " " + strings.Join(strings.Fields(strings.ToLower(keyword)), " ") + " "
	shared := 0
	for _, w := range seedWords {
		if strings.Contains(kw, " "+w+" ") {
			shared++
		}
	}
	r += 0.2 * float64(shared) / float64(len(seedWords))
	return math.Min(1, math.Round(r*100)/100)
}

// parseSuggestions decodes the ["query", ["s1", "s2", ...]] shape shared
// by the OpenSearch style suggestion endpoints. Entries may also be arrays
// whose first element is the suggestion.
func parseSuggestions(body []byte) []string {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || len(raw) < 2 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw[1], &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if err := json.Unmarshal(it, &s); err == nil {
			out = append(out, s)
			continue
		}
		var arr []any
		if err := json.Unmarshal(it, &arr); err == nil && len(arr) > 0 {
			if s, ok := arr[0].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// suggestCandidates maps ranked suggestions to candidates, dropping blanks
func suggestCandidates(tag, seed string, suggestions []string) []model.KeywordCandidate {
	out := make([]model.KeywordCandidate, 0, len(suggestions))
	for i, s := range suggestions {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, model.KeywordCandidate{Keyword: s, Source: tag, Relevance: Relevance(i, s, seed)})
	}
	return out
}

// alphabetQueries returns seed followed by "seed a".."seed z" limited to depth letters
func alphabetQueries(seed string, depth int) []string {
	queries := []string{seed}
	for i := 0; i < depth && i < 26; i++ {
		queries = append(queries, seed+" "+string(rune('a'+i)))
	}
	return queries
}
