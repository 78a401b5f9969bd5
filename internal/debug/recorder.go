// Package debug keeps an opt-in ring buffer of translation resolutions.
package debug

import (
	"encoding/json"
	"slices"
	"sync"
	"time"

	"github.com/goliatone/go-lingo/internal/logging"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

const (
	DefaultMaxLogSize    = 1000
	DefaultSlowThreshold = 100 * time.Millisecond
	frequentKeysLimit    = 10
)

// Source tags where a resolved value came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceLoader   Source = "loader"
	SourceFallback Source = "fallback"
)

// Performance holds timing for a single resolution.
type Performance struct {
	LoadTime time.Duration
	CacheHit bool
}

func (p Performance) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		LoadTimeMs float64 `json:"loadTimeMs"`
		CacheHit   bool    `json:"cacheHit"`
	}{
		LoadTimeMs: float64(p.LoadTime) / float64(time.Millisecond),
		CacheHit:   p.CacheHit,
	})
}

// Context carries the inputs of a resolution.
type Context struct {
	Interpolation map[string]any `json:"interpolation,omitempty"`
	Namespace     string         `json:"namespace,omitempty"`
}

// Event describes one resolution. Value is nil when nothing was found.
type Event struct {
	Key         string      `json:"key"`
	Language    string      `json:"language"`
	Value       *string     `json:"value"`
	Source      Source      `json:"source"`
	Performance Performance `json:"performance"`
	Context     Context     `json:"context"`
}

// Entry is a recorded Event.
type Entry struct {
	Event
	Timestamp time.Time `json:"timestamp"`
}

// KeyCount is the number of buffered entries for a key.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Stats summarises the buffered entries.
type Stats struct {
	TotalTranslations    int            `json:"totalTranslations"`
	CacheHitRate         float64        `json:"cacheHitRate"`
	AverageLoadTime      time.Duration  `json:"averageLoadTime"`
	LanguageDistribution map[string]int `json:"languageDistribution"`
	MostFrequentKeys     []KeyCount     `json:"mostFrequentKeys"`
}

// Export is the document produced by ExportDebugData.
type Export struct {
	Log                 []Entry   `json:"log"`
	Stats               Stats     `json:"stats"`
	MissingTranslations []Entry   `json:"missingTranslations"`
	SlowTranslations    []Entry   `json:"slowTranslations"`
	Timestamp           time.Time `json:"timestamp"`
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMaxLogSize bounds the ring buffer. Values below 1 keep the default.
func WithMaxLogSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.maxLogSize = n
		}
	}
}

// WithClock overrides the entry timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(r *Recorder) {
		if clock != nil {
			r.now = clock
		}
	}
}

// WithLogger sets the logger for mode changes and recorded translations.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Recorder) {
		r.logger = logging.Ensure(logger)
	}
}

// WithSlowThreshold sets the default threshold for SlowTranslations.
func WithSlowThreshold(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.slowThreshold = d
		}
	}
}

// WithEnabled starts the recorder enabled.
func WithEnabled(enabled bool) Option {
	return func(r *Recorder) {
		r.enabled = enabled
	}
}

// Recorder is inert until enabled. Entries are kept newest first and the
// oldest are dropped beyond the configured size.
type Recorder struct {
	mu            sync.RWMutex
	enabled       bool
	entries       []Entry
	maxLogSize    int
	slowThreshold time.Duration
	now           func() time.Time
	logger        interfaces.Logger
}

// NewRecorder constructs a disabled recorder.
func NewRecorder(opts ...Option) *Recorder {
	r := &Recorder{
		maxLogSize:    DefaultMaxLogSize,
		slowThreshold: DefaultSlowThreshold,
		now:           time.Now,
		logger:        logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Recorder) Enable() {
	r.mu.Lock()
	r.enabled = true
	r.mu.Unlock()
	r.logger.Info("debug.enabled")
}

// Disable stops recording and drops every buffered entry.
func (r *Recorder) Disable() {
	r.mu.Lock()
	r.enabled = false
	r.entries = nil
	r.mu.Unlock()
	r.logger.Info("debug.disabled")
}

func (r *Recorder) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// LogTranslation buffers event when enabled.
func (r *Recorder) LogTranslation(event Event) {
	r.mu.Lock()
	if !r.enabled {
		r.mu.Unlock()
		return
	}
	entry := Entry{Event: event, Timestamp: r.now()}
	r.entries = slices.Insert(r.entries, 0, entry)
	if len(r.entries) > r.maxLogSize {
		r.entries = r.entries[:r.maxLogSize]
	}
	r.mu.Unlock()

	r.logger.Debug("lingo.debug.translation",
		"key", event.Key,
		"language", event.Language,
		"source", string(event.Source),
		"load_ms", event.Performance.LoadTime.Milliseconds(),
		"cache_hit", event.Performance.CacheHit,
		"found", event.Value != nil,
	)
}

// Entries returns a copy of the buffer, newest first.
func (r *Recorder) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries)
}

// TranslationStats derives statistics from the buffered entries.
func (r *Recorder) TranslationStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return statsOf(r.entries)
}

func statsOf(entries []Entry) Stats {
	stats := Stats{
		TotalTranslations:    len(entries),
		LanguageDistribution: map[string]int{},
		MostFrequentKeys:     []KeyCount{},
	}
	if len(entries) == 0 {
		return stats
	}

	hits := 0
	var load time.Duration
	index := map[string]int{}
	for _, e := range entries {
		if e.Performance.CacheHit {
			hits++
		}
		load += e.Performance.LoadTime
		stats.LanguageDistribution[e.Language]++
		if i, ok := index[e.Key]; ok {
			stats.MostFrequentKeys[i].Count++
			continue
		}
		index[e.Key] = len(stats.MostFrequentKeys)
		stats.MostFrequentKeys = append(stats.MostFrequentKeys, KeyCount{Key: e.Key, Count: 1})
	}
	stats.CacheHitRate = float64(hits) / float64(len(entries))
	stats.AverageLoadTime = load / time.Duration(len(entries))

	slices.SortStableFunc(stats.MostFrequentKeys, func(a, b KeyCount) int {
		return b.Count - a.Count
	})
	if len(stats.MostFrequentKeys) > frequentKeysLimit {
		stats.MostFrequentKeys = stats.MostFrequentKeys[:frequentKeysLimit]
	}
	return stats
}

// MissingTranslations returns entries with no value or a fallback source.
func (r *Recorder) MissingTranslations() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return missingOf(r.entries)
}

func missingOf(entries []Entry) []Entry {
	out := []Entry{}
	for _, e := range entries {
		if e.Value == nil || e.Source == SourceFallback {
			out = append(out, e)
		}
	}
	return out
}

// SlowTranslations returns entries whose load time exceeds threshold. A
// non-positive threshold uses the configured default.
func (r *Recorder) SlowTranslations(threshold time.Duration) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.slowOf(r.entries, threshold)
}

func (r *Recorder) slowOf(entries []Entry, threshold time.Duration) []Entry {
	if threshold <= 0 {
		threshold = r.slowThreshold
	}
	out := []Entry{}
	for _, e := range entries {
		if e.Performance.LoadTime > threshold {
			out = append(out, e)
		}
	}
	return out
}

// ExportDebugData renders the buffer and derived views as JSON.
func (r *Recorder) ExportDebugData() ([]byte, error) {
	return json.MarshalIndent(r.Snapshot(), "", "  ")
}

// Snapshot returns the export document without encoding it.
func (r *Recorder) Snapshot() Export {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := slices.Clone(r.entries)
	if entries == nil {
		entries = []Entry{}
	}
	return Export{
		Log:                 entries,
		Stats:               statsOf(entries),
		MissingTranslations: missingOf(entries),
		SlowTranslations:    r.slowOf(entries, 0),
		Timestamp:           r.now(),
	}
}

// StringValue is a helper for building Events with a found value.
func StringValue(s string) *string {
	return &s
}
