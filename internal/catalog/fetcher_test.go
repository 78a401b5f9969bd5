package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/loader"
)

func TestFetcherServesLoader(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	set := bundle.Set{}
	set.Put("en", "common", sampleTree("Save"))
	set.Put("fr", "common", sampleTree("Enregistrer"))
	written, err := Import(ctx, repo, set)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if written != 2 {
		t.Fatalf("expected 2 documents written, got %d", written)
	}

	l := loader.New(NewFetcher(repo))
	tree, err := l.Load(ctx, "fr", "common")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if value, _ := tree.LookupString("save"); value != "Enregistrer" {
		t.Fatalf("unexpected value %q", value)
	}

	// ja is absent and falls back to en
	tree, err = l.Load(ctx, "ja", "common")
	if err != nil {
		t.Fatalf("Load() fallback error = %v", err)
	}
	if value, _ := tree.LookupString("save"); value != "Save" {
		t.Fatalf("unexpected fallback value %q", value)
	}
}

func TestFetcherReportsMissingBundle(t *testing.T) {
	_, err := NewFetcher(NewMemoryRepository()).Fetch(context.Background(), "en", "common")
	if !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound, got %v", err)
	}
}

type invalidations struct {
	mu    sync.Mutex
	calls [][2]string
	seen  chan struct{}
}

func (i *invalidations) Invalidate(language, namespace string) {
	i.mu.Lock()
	i.calls = append(i.calls, [2]string{language, namespace})
	i.mu.Unlock()
	i.seen <- struct{}{}
}

func TestInvalidatorForwardsChanges(t *testing.T) {
	repo := NewMemoryRepository()
	target := &invalidations{seen: make(chan struct{}, 4)}
	inv := NewInvalidator(repo, nil, target)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- inv.Run(ctx) }()

	// wait for the subscription to exist before writing
	deadline := time.Now().Add(time.Second)
	for {
		repo.broadcaster.mu.Lock()
		n := len(repo.broadcaster.watchers)
		repo.broadcaster.mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("invalidator never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := repo.Upsert(ctx, "errors", "de", sampleTree("Speichern")); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	select {
	case <-target.seen:
	case <-time.After(time.Second):
		t.Fatalf("expected invalidation")
	}

	target.mu.Lock()
	got := target.calls[0]
	target.mu.Unlock()
	if got != [2]string{"de", "errors"} {
		t.Fatalf("unexpected invalidation %v", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("invalidator did not stop")
	}
}
