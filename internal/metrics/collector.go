// Package metrics aggregates translation latency, failures and cache counters.
package metrics

import (
	"slices"
	"sort"
	"sync"
	"time"
)

const (
	DefaultRetention   = 24 * time.Hour
	DefaultErrorLimit  = 10
	summaryErrorsLimit = 5
)

// Record is one translation attempt.
type Record struct {
	Key       string        `json:"key"`
	Language  string        `json:"language"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ErrorCount is the number of failures observed for a key.
type ErrorCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Summary bundles the headline aggregates.
type Summary struct {
	TotalCount      int           `json:"totalCount"`
	AverageTime     time.Duration `json:"averageTime"`
	ErrorRate       float64       `json:"errorRate"`
	CacheEfficiency float64       `json:"cacheEfficiency"`
	CacheSize       int           `json:"cacheSize"`
	TopErrors       []ErrorCount  `json:"topErrors"`
}

// Sink mirrors every recorded event to an external metrics backend.
type Sink interface {
	Translation(key, language string, duration time.Duration, success bool)
	CacheHit()
	CacheMiss()
	CacheSize(size int)
}

// Option configures a Collector.
type Option func(*Collector)

// WithRetention sets how long records are kept. Non-positive keeps the default.
func WithRetention(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.retention = d
		}
	}
}

// WithClock overrides time.Now for RecordTranslation.
func WithClock(clock func() time.Time) Option {
	return func(c *Collector) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithSink mirrors events to sink.
func WithSink(sink Sink) Option {
	return func(c *Collector) {
		c.sink = sink
	}
}

// Collector keeps a time-ordered series of translation records plus global
// cache counters. Aggregates are computed on read.
type Collector struct {
	mu        sync.Mutex
	records   []Record
	hits      int
	misses    int
	cacheSize int
	retention time.Duration
	now       func() time.Time
	sink      Sink
}

// NewCollector constructs an empty collector.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{
		retention: DefaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// RecordTranslation appends a record stamped with the collector clock.
func (c *Collector) RecordTranslation(key, language string, duration time.Duration, success bool, err error) {
	c.RecordTranslationAt(c.now(), key, language, duration, success, err)
}

// RecordTranslationAt appends a record stamped with now and drops records
// older than the retention window relative to now.
func (c *Collector) RecordTranslationAt(now time.Time, key, language string, duration time.Duration, success bool, err error) {
	record := Record{
		Key:       key,
		Language:  language,
		Duration:  duration,
		Success:   success,
		Timestamp: now,
	}
	if err != nil {
		record.Error = err.Error()
	}

	c.mu.Lock()
	// keep the series ordered; records normally arrive in order
	i := len(c.records)
	for i > 0 && c.records[i-1].Timestamp.After(now) {
		i--
	}
	c.records = slices.Insert(c.records, i, record)
	c.prune(now)
	c.mu.Unlock()

	if c.sink != nil {
		c.sink.Translation(key, language, duration, success)
	}
}

func (c *Collector) prune(now time.Time) {
	cutoff := now.Add(-c.retention)
	drop := sort.Search(len(c.records), func(i int) bool {
		return !c.records[i].Timestamp.Before(cutoff)
	})
	if drop > 0 {
		c.records = slices.Delete(c.records, 0, drop)
	}
}

// RecordCacheHit increments the global hit counter.
func (c *Collector) RecordCacheHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	if c.sink != nil {
		c.sink.CacheHit()
	}
}

// RecordCacheMiss increments the global miss counter.
func (c *Collector) RecordCacheMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	if c.sink != nil {
		c.sink.CacheMiss()
	}
}

// UpdateCacheSize sets the cache size gauge.
func (c *Collector) UpdateCacheSize(size int) {
	c.mu.Lock()
	c.cacheSize = size
	c.mu.Unlock()
	if c.sink != nil {
		c.sink.CacheSize(size)
	}
}

// AverageTranslationTime is the mean duration of successful records for
// language, or for all languages when language is empty. Zero without data.
func (c *Collector) AverageTranslationTime(language string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.averageLocked(language)
}

func (c *Collector) averageLocked(language string) time.Duration {
	var total time.Duration
	count := 0
	for _, r := range c.records {
		if !r.Success || (language != "" && r.Language != language) {
			continue
		}
		total += r.Duration
		count++
	}
	if count == 0 {
		return 0
	}
	return total / time.Duration(count)
}

// ErrorRate is failed/total over records for language ("" for all).
func (c *Collector) ErrorRate(language string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorRateLocked(language)
}

func (c *Collector) errorRateLocked(language string) float64 {
	total, failed := 0, 0
	for _, r := range c.records {
		if language != "" && r.Language != language {
			continue
		}
		total++
		if !r.Success {
			failed++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(failed) / float64(total)
}

// CacheEfficiency is hits/(hits+misses), zero before any cache access.
func (c *Collector) CacheEfficiency() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.efficiencyLocked()
}

func (c *Collector) efficiencyLocked() float64 {
	if c.hits+c.misses == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.hits+c.misses)
}

// MostFrequentErrors groups failures by key, most frequent first. Keys with
// equal counts keep the order in which they first failed. A non-positive
// limit uses DefaultErrorLimit.
func (c *Collector) MostFrequentErrors(limit int) []ErrorCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frequentErrorsLocked(limit)
}

func (c *Collector) frequentErrorsLocked(limit int) []ErrorCount {
	if limit <= 0 {
		limit = DefaultErrorLimit
	}
	index := map[string]int{}
	var counts []ErrorCount
	for _, r := range c.records {
		if r.Success {
			continue
		}
		if i, ok := index[r.Key]; ok {
			counts[i].Count++
			continue
		}
		index[r.Key] = len(counts)
		counts = append(counts, ErrorCount{Key: r.Key, Count: 1})
	}
	slices.SortStableFunc(counts, func(a, b ErrorCount) int {
		return b.Count - a.Count
	})
	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// Summary returns the headline aggregates in one consistent snapshot.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summary{
		TotalCount:      len(c.records),
		AverageTime:     c.averageLocked(""),
		ErrorRate:       c.errorRateLocked(""),
		CacheEfficiency: c.efficiencyLocked(),
		CacheSize:       c.cacheSize,
		TopErrors:       c.frequentErrorsLocked(summaryErrorsLimit),
	}
}

// Records returns a copy of the retained series, oldest first.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// Reset zeroes every record and counter.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.hits = 0
	c.misses = 0
	c.cacheSize = 0
}
