package metrics

import (
	"errors"
	"math"
	"testing"
	"time"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestAggregation(t *testing.T) {
	c := NewCollector(WithClock(func() time.Time { return base }))

	c.RecordTranslation("common.submit", "en", 100*time.Millisecond, true, nil)
	c.RecordTranslation("common.submit", "fr", 150*time.Millisecond, true, nil)

	if got := c.AverageTranslationTime(""); got != 125*time.Millisecond {
		t.Fatalf("expected 125ms average, got %v", got)
	}

	c.RecordTranslation("common.missing", "fr", 10*time.Millisecond, false, errors.New("not found"))

	if got := c.ErrorRate(""); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Fatalf("expected error rate 1/3, got %v", got)
	}
	if got := c.AverageTranslationTime(""); got != 125*time.Millisecond {
		t.Fatalf("expected failures to be excluded from the average, got %v", got)
	}
	if got := c.AverageTranslationTime("fr"); got != 150*time.Millisecond {
		t.Fatalf("expected fr average 150ms, got %v", got)
	}
	if got := c.ErrorRate("fr"); got != 0.5 {
		t.Fatalf("expected fr error rate 0.5, got %v", got)
	}
	if got := c.ErrorRate("de"); got != 0 {
		t.Fatalf("expected zero error rate without records, got %v", got)
	}
	if got := c.AverageTranslationTime("de"); got != 0 {
		t.Fatalf("expected zero average without records, got %v", got)
	}
}

func TestRetentionPrunesRelativeToExplicitNow(t *testing.T) {
	c := NewCollector(WithRetention(time.Hour))

	c.RecordTranslationAt(base, "a", "en", time.Millisecond, true, nil)
	c.RecordTranslationAt(base.Add(30*time.Minute), "b", "en", time.Millisecond, true, nil)
	if got := len(c.Records()); got != 2 {
		t.Fatalf("expected 2 records within retention, got %d", got)
	}

	c.RecordTranslationAt(base.Add(61*time.Minute), "c", "en", time.Millisecond, true, nil)
	records := c.Records()
	if len(records) != 2 || records[0].Key != "b" || records[1].Key != "c" {
		t.Fatalf("expected oldest record pruned, got %+v", records)
	}
}

func TestRecordsStayOrderedWhenOutOfOrder(t *testing.T) {
	c := NewCollector()
	c.RecordTranslationAt(base.Add(2*time.Second), "late", "en", 0, true, nil)
	c.RecordTranslationAt(base.Add(time.Second), "early", "en", 0, true, nil)

	records := c.Records()
	if records[0].Key != "early" || records[1].Key != "late" {
		t.Fatalf("expected timestamp order, got %+v", records)
	}
}

func TestCacheEfficiency(t *testing.T) {
	c := NewCollector()
	if c.CacheEfficiency() != 0 {
		t.Fatal("expected zero efficiency before cache access")
	}
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()
	if got := c.CacheEfficiency(); got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
}

func TestMostFrequentErrorsStableOrder(t *testing.T) {
	c := NewCollector(WithClock(func() time.Time { return base }))
	fail := errors.New("not found")

	for _, key := range []string{"b", "a", "c", "a", "b", "d"} {
		c.RecordTranslation(key, "en", 0, false, fail)
	}
	c.RecordTranslation("ok", "en", 0, true, nil)

	got := c.MostFrequentErrors(3)
	want := []ErrorCount{{Key: "b", Count: 2}, {Key: "a", Count: 2}, {Key: "c", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}

	if all := c.MostFrequentErrors(0); len(all) != 4 {
		t.Fatalf("expected default limit to include all 4 keys, got %+v", all)
	}
}

func TestSummaryAndReset(t *testing.T) {
	c := NewCollector(WithClock(func() time.Time { return base }))
	for i := range 7 {
		c.RecordTranslation(string(rune('a'+i)), "en", 0, false, errors.New("x"))
	}
	c.RecordTranslation("ok", "en", 40*time.Millisecond, true, nil)
	c.RecordCacheMiss()
	c.UpdateCacheSize(12)

	s := c.Summary()
	if s.TotalCount != 8 || s.CacheSize != 12 || s.AverageTime != 40*time.Millisecond {
		t.Fatalf("unexpected summary %+v", s)
	}
	if len(s.TopErrors) != 5 {
		t.Fatalf("expected top 5 errors, got %d", len(s.TopErrors))
	}

	c.Reset()
	s = c.Summary()
	if s.TotalCount != 0 || s.CacheSize != 0 || s.CacheEfficiency != 0 || len(s.TopErrors) != 0 {
		t.Fatalf("expected zeroed summary, got %+v", s)
	}
}

type countingSink struct {
	translations, hits, misses int
	size                       int
}

func (s *countingSink) Translation(string, string, time.Duration, bool) { s.translations++ }
func (s *countingSink) CacheHit()                                       { s.hits++ }
func (s *countingSink) CacheMiss()                                      { s.misses++ }
func (s *countingSink) CacheSize(n int)                                 { s.size = n }

func TestSinkReceivesEvents(t *testing.T) {
	sink := &countingSink{}
	c := NewCollector(WithSink(sink))

	c.RecordTranslation("a", "en", time.Millisecond, true, nil)
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.UpdateCacheSize(3)

	if sink.translations != 1 || sink.hits != 1 || sink.misses != 1 || sink.size != 3 {
		t.Fatalf("unexpected sink state %+v", sink)
	}
}
