package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited marks a source call skipped by the gate
var ErrRateLimited = errors.New("cache: source rate limited")

// markerTTL bounds how long a last-call marker is remembered
const markerTTL = 60 * time.Second

// DefaultDelays are the minimum spacings between calls to one source
var DefaultDelays = map[string]time.Duration{
	"google":        2 * time.Second,
	"google_trends": 3 * time.Second,
	"google_paa":    4 * time.Second,
	"bing":          time.Second,
	"duckduckgo":    1500 * time.Millisecond,
	"yahoo":         2 * time.Second,
	"youtube":       time.Second,
	"amazon":        2 * time.Second,
	"reddit":        2 * time.Second,
	"quora":         3 * time.Second,
	"wikipedia":     500 * time.Millisecond,
}

// Gate spaces out calls per source
type Gate struct {
	mu       sync.Mutex
	last     map[string]time.Time
	delays   map[string]time.Duration
	fallback time.Duration
	now      func() time.Time
}

// NewGate creates a Gate. Sources missing from delays use fallback.
func NewGate(delays map[string]time.Duration, fallback time.Duration) *Gate {
	if delays == nil {
		delays = DefaultDelays
	}
	return &Gate{
		last:     make(map[string]time.Time),
		delays:   delays,
		fallback: fallback,
		now:      time.Now,
	}
}

func (g *Gate) delay(source string) time.Duration {
	if d, ok := g.delays[source]; ok {
		return d
	}
	return g.fallback
}

func (g *Gate) limitedLocked(source string, now time.Time) bool {
	last, ok := g.last[source]
	if !ok {
		return false
	}
	if now.Sub(last) >= markerTTL {
		delete(g.last, source)
		return false
	}
	return now.Sub(last) < g.delay(source)
}

// IsRateLimited reports whether source was called less than its delay ago
func (g *Gate) IsRateLimited(source string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limitedLocked(source, g.now())
}

// MarkCalled records a call to source
func (g *Gate) MarkCalled(source string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last[source] = g.now()
}

// TryAcquire checks and marks in one step. It returns false when the
// source is still inside its delay window.
func (g *Gate) TryAcquire(source string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if g.limitedLocked(source, now) {
		return false
	}
	g.last[source] = now
	return true
}
