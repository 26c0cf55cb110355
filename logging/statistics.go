package logging

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Statistics counts visitors and tool requests. It is persisted as JSON.
type Statistics struct {
	UniqueVisitors  map[string]time.Time `json:"uniqueVisitors"` // IP -> last visit
	ToolRequests    map[string]int       `json:"toolRequests"`
	TotalRequests   int                  `json:"totalRequests"`
	ErrorCount      int                  `json:"errorCount"`
	PopularTargets  map[string]int       `json:"popularTargets"`
	AverageLoadTime float64              `json:"averageLoadTime"` // milliseconds
	TotalLoadTime   float64              `json:"totalLoadTime"`
	LastPersisted   time.Time            `json:"lastPersisted"`

	path string
	dev  bool
	now  func() time.Time
	mu   sync.RWMutex
}

// NewStatistics loads statistics from path when it exists. An empty path
// keeps everything in memory. dev exposes popular targets in Snapshot.
func NewStatistics(path string, dev bool) (*Statistics, error) {
	s := &Statistics{
		UniqueVisitors: make(map[string]time.Time),
		ToolRequests:   make(map[string]int),
		PopularTargets: make(map[string]int),
		path:           path,
		dev:            dev,
		now:            time.Now,
	}
	if err := s.load(); err != nil {
		return s, err
	}
	return s, nil
}

// TrackVisitor records a visit from ip
func (s *Statistics) TrackVisitor(ip string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UniqueVisitors[ip] = s.now()
}

// cleanTarget reduces a URL to scheme, host and path, and a keyword to its
// lowercase form. Local and API URLs are not tracked.
func cleanTarget(target string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.Join(strings.Fields(target), " "))
	}
	if strings.Contains(u.Host, "localhost") ||
		strings.Contains(u.Host, "127.0.0.1") ||
		strings.Contains(strings.ToLower(u.Path), "/api/") {
		return ""
	}
	clean := u.Scheme + "://" + u.Host
	if u.Path != "" && u.Path != "/" {
		clean += u.Path
	}
	return strings.TrimSuffix(clean, "/")
}

// TrackTool records one tool request and returns the new request total
func (s *Statistics) TrackTool(tool, target string, took time.Duration, failed bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalRequests++
	s.ToolRequests[tool]++
	if t := cleanTarget(target); t != "" {
		s.PopularTargets[t]++
	}
	if failed {
		s.ErrorCount++
	}
	s.TotalLoadTime += float64(took.Milliseconds())
	s.AverageLoadTime = s.TotalLoadTime / float64(s.TotalRequests)
	return s.TotalRequests
}

func (s *Statistics) uniqueVisitors() int {
	cutoff := s.now().Add(-24 * time.Hour)
	n := 0
	for _, last := range s.UniqueVisitors {
		if last.After(cutoff) {
			n++
		}
	}
	return n
}

// UniqueVisitors24h counts visitors seen in the last 24 hours
func (s *Statistics) UniqueVisitors24h() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uniqueVisitors()
}

// TargetCount is a tracked target and how often it was requested
type TargetCount struct {
	Target string `json:"target"`
	Count  int    `json:"count"`
}

func (s *Statistics) popular(n int) []TargetCount {
	out := make([]TargetCount, 0, len(s.PopularTargets))
	for t, c := range s.PopularTargets {
		out = append(out, TargetCount{Target: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Target < out[j].Target
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Popular returns the n most requested targets, most requested first
func (s *Statistics) Popular(n int) []TargetCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.popular(n)
}

func (s *Statistics) errorRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.ErrorCount) / float64(s.TotalRequests) * 100
}

// ErrorRate is the share of failed requests as a percentage
func (s *Statistics) ErrorRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorRate()
}

// Snapshot is the public view of the statistics. Popular targets and the
// per-tool breakdown are only included in development mode.
func (s *Statistics) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]any{
		"uniqueVisitors24h": s.uniqueVisitors(),
		"totalRequests":     s.TotalRequests,
		"errorRate":         s.errorRate(),
		"averageLoadTime":   s.AverageLoadTime,
	}
	if s.dev {
		tools := make(map[string]int, len(s.ToolRequests))
		for k, v := range s.ToolRequests {
			tools[k] = v
		}
		out["toolRequests"] = tools
		out["popularTargets"] = s.popular(5)
	}
	return out
}

// Save writes the statistics to their file
func (s *Statistics) Save() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastPersisted = s.now()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("logging: encode statistics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("logging: create statistics dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("logging: write statistics: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *Statistics) load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logging: read statistics: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("logging: decode statistics: %w", err)
	}
	if s.UniqueVisitors == nil {
		s.UniqueVisitors = make(map[string]time.Time)
	}
	if s.ToolRequests == nil {
		s.ToolRequests = make(map[string]int)
	}
	if s.PopularTargets == nil {
		s.PopularTargets = make(map[string]int)
	}
	return nil
}
