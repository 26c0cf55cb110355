package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// SourceStats counts calls made to one scraped source
type SourceStats struct {
	Calls   int `json:"calls"`
	Empty   int `json:"empty"`
	Skipped int `json:"skipped"`
}

// MonthlyStats represents cache and source statistics for a specific month
type MonthlyStats struct {
	ShortTierHits int                     `json:"short_hits"`
	LongTierHits  int                     `json:"long_hits"`
	CacheMisses   int                     `json:"misses"`
	Sources       map[string]*SourceStats `json:"sources"`
	LastUpdated   time.Time               `json:"last_updated"`
}

func (m MonthlyStats) copy() MonthlyStats {
	out := m
	out.Sources = make(map[string]*SourceStats, len(m.Sources))
	for k, v := range m.Sources {
		s := *v
		out.Sources[k] = &s
	}
	return out
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	saveMu      sync.Mutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	writeBuffer chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
	logger      *slog.Logger
}

// NewStorage creates a statistics storage persisted under dataDir.
// An empty dataDir keeps statistics in memory only.
func NewStorage(dataDir string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		writeBuffer: make(chan struct{}, 1),
		done:        make(chan struct{}),
		now:         time.Now,
		logger:      logger,
	}
	if dataDir == "" {
		return s, nil
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("stats: create data directory: %w", err)
	}
	s.filePath = filepath.Join(dataDir, "stats.json")

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("stats: load: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// save writes statistics to file through a temp file and rename
func (s *Storage) save() error {
	if s.filePath == "" {
		return nil
	}
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("stats: marshal: %w", err)
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("stats: write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("stats: rename temporary file: %w", err)
	}
	return nil
}

func (s *Storage) backgroundWriter() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
		case <-ticker.C:
		case <-s.done:
			return
		}
		if err := s.save(); err != nil {
			s.logger.Warn("stats: save failed", "error", err)
		}
	}
}

func (s *Storage) monthKey() string {
	return s.now().Format("2006-01")
}

// requestWrite signals that a write to disk is needed
func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
	}
}

// current returns this month's bucket. Caller holds the write lock.
func (s *Storage) current() *MonthlyStats {
	month := s.monthKey()
	m, ok := s.stats[month]
	if !ok {
		m = &MonthlyStats{}
		s.stats[month] = m
	}
	if m.Sources == nil {
		m.Sources = make(map[string]*SourceStats)
	}
	return m
}

func (s *Storage) touched(m *MonthlyStats) {
	m.LastUpdated = s.now()
	if time.Since(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = time.Now()
	}
}

// IncrementCache adds cache lookup outcomes
func (s *Storage) IncrementCache(shortHits, longHits, misses int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.current()
	m.ShortTierHits += shortHits
	m.LongTierHits += longHits
	m.CacheMisses += misses
	s.touched(m)
}

// RecordSource records one call outcome for a source
func (s *Storage) RecordSource(source string, results int, skipped bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	m := s.current()
	st, ok := m.Sources[source]
	if !ok {
		st = &SourceStats{}
		m.Sources[source] = st
	}
	switch {
	case skipped:
		st.Skipped++
	case results == 0:
		st.Calls++
		st.Empty++
	default:
		st.Calls++
	}
	s.touched(m)
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	return s.getMonth(s.monthKey())
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	_, ok := s.stats[yearMonth]
	s.mutex.RUnlock()
	if !ok {
		return MonthlyStats{}, false
	}
	return s.getMonth(yearMonth), true
}

func (s *Storage) getMonth(key string) MonthlyStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if m, ok := s.stats[key]; ok {
		return m.copy()
	}
	return MonthlyStats{Sources: map[string]*SourceStats{}}
}

// Cleanup removes statistics older than retainMonths (current month included)
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	keep := make(map[string]bool, retainMonths)
	for i := 0; i < retainMonths; i++ {
		keep[first.AddDate(0, -i, 0).Format("2006-01")] = true
	}

	s.mutex.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
	s.logger.Debug("stats: cleanup", "retained_months", retainMonths)
}

// GetAllMonths returns all months that have statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Shutdown stops the background writer and flushes to disk
func (s *Storage) Shutdown() error {
	s.stopOnce.Do(func() { close(s.done) })
	return s.save()
}
