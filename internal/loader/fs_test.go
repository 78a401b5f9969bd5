package loader

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
)

func TestFSFetcherReadsFirstMatchingExtension(t *testing.T) {
	fsys := fstest.MapFS{
		"common/en.json": {Data: []byte(`{"title": "From JSON"}`)},
		"common/en.yaml": {Data: []byte("title: From YAML\n")},
		"common/fr.toml": {Data: []byte("title = \"Bonjour\"\n")},
	}
	fetcher := NewFSFetcher(fsys)

	tree, err := fetcher.Fetch(context.Background(), "en", "common")
	if err != nil {
		t.Fatalf("fetch en: %v", err)
	}
	if value, _ := tree.LookupString("title"); value != "From JSON" {
		t.Fatalf("expected json document to win, got %q", value)
	}

	tree, err = fetcher.Fetch(context.Background(), "fr", "common")
	if err != nil {
		t.Fatalf("fetch fr: %v", err)
	}
	if value, _ := tree.LookupString("title"); value != "Bonjour" {
		t.Fatalf("unexpected fr title %q", value)
	}
}

func TestFSFetcherMissingAndInvalidAddresses(t *testing.T) {
	fetcher := NewFSFetcher(fstest.MapFS{})

	if _, err := fetcher.Fetch(context.Background(), "de", "common"); !errors.Is(err, ErrBundleNotFound) {
		t.Fatalf("expected ErrBundleNotFound, got %v", err)
	}
	for _, pair := range [][2]string{{"../en", "common"}, {"en", ".."}, {"", "common"}} {
		if _, err := fetcher.Fetch(context.Background(), pair[0], pair[1]); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("%v: expected ErrInvalidAddress, got %v", pair, err)
		}
	}
}

func TestFSFetcherHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewFSFetcher(fstest.MapFS{}).Fetch(ctx, "en", "common"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
