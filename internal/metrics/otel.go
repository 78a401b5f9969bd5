package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument names exported by OTelSink.
const (
	InstrumentTranslations        = "lingo.translations"
	InstrumentTranslationDuration = "lingo.translation.duration"
	InstrumentCacheHits           = "lingo.cache.hits"
	InstrumentCacheMisses         = "lingo.cache.misses"
	InstrumentCacheSize           = "lingo.cache.size"
)

// OTelSink forwards collector events to OpenTelemetry instruments.
type OTelSink struct {
	translations metric.Int64Counter
	duration     metric.Float64Histogram
	hits         metric.Int64Counter
	misses       metric.Int64Counter
	size         metric.Int64UpDownCounter

	mu       sync.Mutex
	lastSize int64
}

var _ Sink = (*OTelSink)(nil)

// NewOTelSink registers the lingo instruments on meter.
func NewOTelSink(meter metric.Meter) (*OTelSink, error) {
	s := &OTelSink{}
	var err error
	if s.translations, err = meter.Int64Counter(InstrumentTranslations,
		metric.WithDescription("Translation lookups by language and outcome")); err != nil {
		return nil, err
	}
	if s.duration, err = meter.Float64Histogram(InstrumentTranslationDuration,
		metric.WithDescription("Translation resolution latency"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	if s.hits, err = meter.Int64Counter(InstrumentCacheHits,
		metric.WithDescription("Translation cache hits")); err != nil {
		return nil, err
	}
	if s.misses, err = meter.Int64Counter(InstrumentCacheMisses,
		metric.WithDescription("Translation cache misses")); err != nil {
		return nil, err
	}
	if s.size, err = meter.Int64UpDownCounter(InstrumentCacheSize,
		metric.WithDescription("Entries held by the translation cache")); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *OTelSink) Translation(_ string, language string, duration time.Duration, success bool) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("language", language),
		attribute.Bool("success", success),
	)
	s.translations.Add(ctx, 1, attrs)
	s.duration.Record(ctx, float64(duration)/float64(time.Millisecond), attrs)
}

func (s *OTelSink) CacheHit()  { s.hits.Add(context.Background(), 1) }
func (s *OTelSink) CacheMiss() { s.misses.Add(context.Background(), 1) }

// CacheSize converts the absolute gauge value into an up/down delta.
func (s *OTelSink) CacheSize(size int) {
	s.mu.Lock()
	delta := int64(size) - s.lastSize
	s.lastSize = int64(size)
	s.mu.Unlock()
	if delta != 0 {
		s.size.Add(context.Background(), delta)
	}
}
