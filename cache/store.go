// Package cache holds the two-tier TTL cache and the per-source call gate
// that sit in front of every scraped source.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Defaults for the two tiers
const (
	DefaultShortTTL   = 10 * time.Minute
	DefaultLongTTL    = 2 * time.Hour
	DefaultMaxEntries = 5000
)

// Recorder receives lookup outcomes. *stats.Storage implements it.
type Recorder interface {
	IncrementCache(shortHits, longHits, misses int)
}

// Entry is a cached payload
type Entry[T any] struct {
	Data      T
	Timestamp time.Time
	Source    string
}

// Config configures a Store
type Config struct {
	ShortTTL        time.Duration
	LongTTL         time.Duration
	MaxEntries      int // per tier
	CleanupInterval time.Duration
	Recorder        Recorder
}

func (c *Config) defaults() {
	if c.ShortTTL <= 0 {
		c.ShortTTL = DefaultShortTTL
	}
	if c.LongTTL <= 0 {
		c.LongTTL = DefaultLongTTL
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = 5 * time.Minute
	}
}

type tier[T any] struct {
	ttl     time.Duration
	entries map[string]Entry[T]
}

// Store is a short-TTL tier backed by a long-TTL tier. Lookups check the
// short tier first. Each tier is capped and evicts its oldest entries.
type Store[T any] struct {
	mu       sync.Mutex
	short    tier[T]
	long     tier[T]
	max      int
	recorder Recorder
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewStore creates a Store and starts its periodic sweep
func NewStore[T any](cfg Config) *Store[T] {
	cfg.defaults()
	s := &Store[T]{
		short:    tier[T]{ttl: cfg.ShortTTL, entries: make(map[string]Entry[T])},
		long:     tier[T]{ttl: cfg.LongTTL, entries: make(map[string]Entry[T])},
		max:      cfg.MaxEntries,
		recorder: cfg.Recorder,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go s.periodicCleanup(cfg.CleanupInterval)
	return s
}

// Key builds a cache key from a keyword and its context. The keyword is
// lowercased with whitespace collapsed.
func Key(keyword, location, language, source string) string {
	k := strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
	parts := []string{k, strings.ToLower(location), strings.ToLower(language)}
	if source != "" {
		parts = append(parts, source)
	}
	return strings.Join(parts, "|")
}

// Get returns a live entry from the short tier, then the long tier
func (s *Store[T]) Get(key string) (Entry[T], bool) {
	s.mu.Lock()
	now := s.now()
	e, shortHit := s.short.lookup(key, now)
	longHit := false
	if !shortHit {
		e, longHit = s.long.lookup(key, now)
	}
	s.mu.Unlock()

	if s.recorder != nil {
		switch {
		case shortHit:
			s.recorder.IncrementCache(1, 0, 0)
		case longHit:
			s.recorder.IncrementCache(0, 1, 0)
		default:
			s.recorder.IncrementCache(0, 0, 1)
		}
	}
	return e, shortHit || longHit
}

// Set stores data in the short tier, or the long tier when longTerm is set
func (s *Store[T]) Set(key string, data T, longTerm bool, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &s.short
	if longTerm {
		t = &s.long
	}
	t.entries[key] = Entry[T]{Data: data, Timestamp: s.now(), Source: source}
	if len(t.entries) > s.max {
		t.evictOldest(len(t.entries) - s.max)
	}
}

// Delete removes key from both tiers
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.short.entries, key)
	delete(s.long.entries, key)
}

// Len returns the entry counts of both tiers, expired entries included
func (s *Store[T]) Len() (short, long int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.short.entries), len(s.long.entries)
}

// Cleanup drops expired entries from both tiers
func (s *Store[T]) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.short.sweep(now)
	s.long.sweep(now)
}

// Close stops the periodic sweep
func (s *Store[T]) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store[T]) periodicCleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Cleanup()
		case <-s.stop:
			return
		}
	}
}

func (t *tier[T]) lookup(key string, now time.Time) (Entry[T], bool) {
	e, ok := t.entries[key]
	if !ok {
		return Entry[T]{}, false
	}
	if now.Sub(e.Timestamp) >= t.ttl {
		delete(t.entries, key)
		return Entry[T]{}, false
	}
	return e, true
}

func (t *tier[T]) sweep(now time.Time) {
	for k, e := range t.entries {
		if now.Sub(e.Timestamp) >= t.ttl {
			delete(t.entries, k)
		}
	}
}

func (t *tier[T]) evictOldest(n int) {
	type aged struct {
		key string
		ts  time.Time
	}
	all := make([]aged, 0, len(t.entries))
	for k, e := range t.entries {
		all = append(all, aged{k, e.Timestamp})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ts.Before(all[j].ts) })
	for i := 0; i < n && i < len(all); i++ {
		delete(t.entries, all[i].key)
	}
}
