package sources

import (
	"context"
	"strings"

	"github.com/seo-optimizer/seotools/cache"
	"github.com/seo-optimizer/seotools/model"
)

// SourceRecorder receives per-source outcomes. *stats.Storage implements it.
type SourceRecorder interface {
	RecordSource(source string, results int, skipped bool)
}

// Cached wraps a KeywordSource with the cache and the per-source gate
type Cached struct {
	src      KeywordSource
	store    *cache.Store[[]model.KeywordCandidate]
	gate     *cache.Gate
	recorder SourceRecorder
	longTerm bool
}

// CachedOption configures a Cached source
type CachedOption func(*Cached)

// LongTerm stores results in the long tier
func LongTerm() CachedOption {
	return func(c *Cached) { c.longTerm = true }
}

// WithRecorder reports calls, yields and skips to r
func WithRecorder(r SourceRecorder) CachedOption {
	return func(c *Cached) { c.recorder = r }
}

// NewCached wraps src. store and gate may be nil.
func NewCached(src KeywordSource, store *cache.Store[[]model.KeywordCandidate], gate *cache.Gate, opts ...CachedOption) *Cached {
	c := &Cached{src: src, store: store, gate: gate}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Cached) Name() string { return c.src.Name() }

// Keywords serves from cache, skips the call when the source is gated,
// and caches non-empty results otherwise
func (c *Cached) Keywords(ctx context.Context, seed string, loc model.Locale) []model.KeywordCandidate {
	name := c.src.Name()
	key := cache.Key(seed, loc.Country, loc.Language, name)
	if c.store != nil {
		if e, ok := c.store.Get(key); ok {
			return e.Data
		}
	}

	if c.gate != nil && !c.gate.TryAcquire(GateKey(name)) {
		if c.recorder != nil {
			c.recorder.RecordSource(name, 0, true)
		}
		return nil
	}

	res := c.src.Keywords(ctx, seed, loc)
	if c.recorder != nil {
		c.recorder.RecordSource(name, len(res), false)
	}
	if len(res) > 0 && c.store != nil {
		c.store.Set(key, res, c.longTerm, name)
	}
	return res
}

// GateKey maps a source tag to the gate bucket of its upstream service
func GateKey(tag string) string {
	switch tag {
	case TagGoogleTrends, TagGooglePAA:
		return tag
	case TagGoogleRelated:
		return TagGooglePAA
	case TagYouTubeAutocomplete:
		return "youtube"
	}
	for _, svc := range []string{"google", "bing", "duckduckgo", "amazon"} {
		if strings.HasPrefix(tag, svc) {
			return svc
		}
	}
	return tag
}
