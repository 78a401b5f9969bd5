// Package cache holds resolved translation strings keyed by language and key.
package cache

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-lingo/internal/logging"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

const (
	DefaultMaxSize = 1000
	DefaultTTL     = time.Hour
)

// Recorder receives cache counters. The metrics collector satisfies it.
type Recorder interface {
	RecordCacheHit()
	RecordCacheMiss()
	UpdateCacheSize(size int)
	CacheEfficiency() float64
}

// Entry is a cached value and its lifetime.
type Entry struct {
	Key       string
	Language  string
	Value     string
	CreatedAt time.Time
	ExpiresAt time.Time

	seq uint64
}

// Expired reports whether the entry is past its expiry at now.
func (e Entry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Stats is a read-only snapshot of the cache.
type Stats struct {
	Size           int           `json:"size"`
	HitRate        float64       `json:"hitRate"`
	AverageAge     time.Duration `json:"averageAge"`
	OldestEntryAge time.Duration `json:"oldestEntryAge"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithMaxSize bounds the number of entries. Non-positive values keep the default.
func WithMaxSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithDefaultTTL sets the lifetime used by Set. Non-positive values keep the default.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.defaultTTL = ttl
		}
	}
}

// WithClock overrides time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithMetrics wires hit/miss counters and the size gauge.
func WithMetrics(recorder Recorder) Option {
	return func(c *Cache) {
		c.metrics = recorder
	}
}

// WithLogger sets the logger used for eviction and clear events.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Cache) {
		c.logger = logging.Ensure(logger)
	}
}

// Cache is a bounded TTL cache. When full, inserting a new pair evicts the
// entry with the oldest creation time; reads do not affect eviction order.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	seq        uint64
	maxSize    int
	defaultTTL time.Duration
	now        func() time.Time
	metrics    Recorder
	logger     interfaces.Logger
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[string]*Entry),
		maxSize:    DefaultMaxSize,
		defaultTTL: DefaultTTL,
		now:        time.Now,
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func compositeKey(key, language string) string {
	return language + ":" + key
}

// Get returns the cached value. Expired entries are dropped and count as a miss.
func (c *Cache) Get(key, language string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := compositeKey(key, language)
	entry, ok := c.entries[id]
	if ok && entry.Expired(c.now()) {
		delete(c.entries, id)
		c.reportSize()
		ok = false
	}
	if !ok {
		if c.metrics != nil {
			c.metrics.RecordCacheMiss()
		}
		return "", false
	}
	if c.metrics != nil {
		c.metrics.RecordCacheHit()
	}
	return entry.Value, true
}

// Set stores value with the default TTL.
func (c *Cache) Set(key, language, value string) {
	c.SetWithTTL(key, language, value, 0)
}

// SetWithTTL stores value with ttl, or the default TTL when ttl <= 0.
// Overwriting an existing pair refreshes its creation and expiry times.
func (c *Cache) SetWithTTL(key, language, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := compositeKey(key, language)
	if _, exists := c.entries[id]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	c.seq++
	c.entries[id] = &Entry{
		Key:       key,
		Language:  language,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		seq:       c.seq,
	}
	c.reportSize()
}

// evictOldest drops the entry with the smallest creation time. Entries
// created at the same instant are ordered by insertion.
func (c *Cache) evictOldest() {
	var oldest *Entry
	var oldestID string
	for id, entry := range c.entries {
		if oldest == nil ||
			entry.CreatedAt.Before(oldest.CreatedAt) ||
			(entry.CreatedAt.Equal(oldest.CreatedAt) && entry.seq < oldest.seq) {
			oldest, oldestID = entry, id
		}
	}
	if oldest == nil {
		return
	}
	delete(c.entries, oldestID)
	c.logger.Debug("cache.evict", "key", oldest.Key, "language", oldest.Language)
}

// Clear removes every entry for language, or all entries when language is empty.
func (c *Cache) Clear(language string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	if language == "" {
		removed = len(c.entries)
		clear(c.entries)
	} else {
		prefix := language + ":"
		for id := range c.entries {
			if strings.HasPrefix(id, prefix) {
				delete(c.entries, id)
				removed++
			}
		}
	}
	c.reportSize()
	c.logger.Info("cache.clear", "language", language, "removed", removed)
}

// Invalidate removes the entries of one namespace. An empty language matches
// every language.
func (c *Cache) Invalidate(language, namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, entry := range c.entries {
		if language != "" && entry.Language != language {
			continue
		}
		if entry.Key == namespace || strings.HasPrefix(entry.Key, namespace+".") {
			delete(c.entries, id)
			removed++
		}
	}
	c.reportSize()
	c.logger.Info("cache.invalidate", "language", language, "namespace", namespace, "removed", removed)
}

// Stats returns size, hit rate and entry ages. The hit rate comes from the
// metrics recorder and is zero without one.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{Size: len(c.entries)}
	if c.metrics != nil {
		stats.HitRate = c.metrics.CacheEfficiency()
	}
	if len(c.entries) == 0 {
		return stats
	}

	now := c.now()
	var total time.Duration
	for _, entry := range c.entries {
		age := now.Sub(entry.CreatedAt)
		total += age
		if age > stats.OldestEntryAge {
			stats.OldestEntryAge = age
		}
	}
	stats.AverageAge = total / time.Duration(len(c.entries))
	return stats
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the composite "language:key" identifiers, sorted.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.entries))
	for id := range c.entries {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (c *Cache) reportSize() {
	if c.metrics != nil {
		c.metrics.UpdateCacheSize(len(c.entries))
	}
}
