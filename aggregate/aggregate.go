// Package aggregate merges candidates from many sources: concurrent
// fan-out with settle semantics, deduplication, trust weighting and the
// fallback tiers of competitor discovery.
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/seo-optimizer/seotools/extract"
	"github.com/seo-optimizer/seotools/model"
)

// Limits applied when callers pass zero
const (
	DefaultKeywordLimit    = 80
	DefaultCompetitorLimit = 50
)

const (
	minKeywordLen = 3
	maxKeywordLen = 150
)

// TrustTable weights candidates by the source that produced them
type TrustTable map[string]float64

// UnknownTrust is the weight of sources missing from a table
const UnknownTrust = 0.5

// DefaultTrust ranks autocomplete data above community and generated data
var DefaultTrust = TrustTable{
	"google_autocomplete":  1.0,
	"google_paa":           0.95,
	"google_related":       0.95,
	"google_trends":        0.9,
	"bing_autocomplete":    0.85,
	"youtube_autocomplete": 0.8,
	"amazon_autocomplete":  0.8,
	"amazon_search":        0.75,
	"wikipedia":            0.75,
	"reddit":               0.7,
	"quora":                0.7,
	"pattern":              0.65,
}

// Weight returns the trust of source
func (t TrustTable) Weight(source string) float64 {
	if w, ok := t[source]; ok {
		return w
	}
	return UnknownTrust
}

// FanOut runs every fn concurrently and returns their results in call
// order. A panicking fn yields nil; the others are unaffected.
func FanOut[T any](ctx context.Context, fns ...func(context.Context) []T) [][]T {
	results := make([][]T, len(fns))
	var g errgroup.Group
	for i, fn := range fns {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					results[i] = nil
					slog.Error("aggregate: source panicked", "index", i, "panic", r)
				}
			}()
			results[i] = fn(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// KeywordKey is the dedup key of a keyword: lowercased, trimmed, inner
// whitespace collapsed
func KeywordKey(keyword string) string {
	return strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
}

// Keywords concatenates results in order, drops duplicates and keys
// outside 3..150 characters, and sorts by relevance times source trust.
// The first occurrence of a keyword is kept with the highest relevance
// seen for it.
func Keywords(results [][]model.KeywordCandidate, trust TrustTable, limit int) []model.KeywordCandidate {
	if trust == nil {
		trust = DefaultTrust
	}
	if limit <= 0 {
		limit = DefaultKeywordLimit
	}

	index := make(map[string]int)
	var merged []model.KeywordCandidate
	for _, rs := range results {
		for _, c := range rs {
			key := KeywordKey(c.Keyword)
			if n := utf8.RuneCountInString(key); n < minKeywordLen || n > maxKeywordLen {
				continue
			}
			if i, ok := index[key]; ok {
				if c.Relevance > merged[i].Relevance {
					merged[i].Relevance = c.Relevance
				}
				continue
			}
			index[key] = len(merged)
			c.Keyword = key
			merged = append(merged, c)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Relevance*trust.Weight(merged[i].Source) > merged[j].Relevance*trust.Weight(merged[j].Source)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// CompetitorKey is the dedup key of a result: normalised domain and URL.
// Different URLs of one domain stay distinct.
func CompetitorKey(c model.CompetitorCandidate) string {
	domain := extract.Domain(c.Domain)
	if domain == "" {
		domain = extract.Domain(c.URL)
	}
	return domain + "::" + extract.NormalizeURL(c.URL)
}

// Competitors concatenates results in order and keeps the first of each
// domain and URL pair. Positions are left as the sources reported them.
func Competitors(results [][]model.CompetitorCandidate, limit int) []model.CompetitorCandidate {
	if limit <= 0 {
		limit = DefaultCompetitorLimit
	}
	seen := make(map[string]bool)
	var merged []model.CompetitorCandidate
	for _, rs := range results {
		for _, c := range rs {
			key := CompetitorKey(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			if c.Domain == "" {
				c.Domain = extract.Domain(c.URL)
			}
			merged = append(merged, c)
			if len(merged) == limit {
				return merged
			}
		}
	}
	return merged
}

// SourceCounts tallies candidates per source tag
func SourceCounts(cs []model.KeywordCandidate) map[string]int {
	counts := make(map[string]int)
	for _, c := range cs {
		counts[c.Source]++
	}
	return counts
}
