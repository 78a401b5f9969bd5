package catalog

import (
	"context"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/loader"
)

// Fetcher serves loader requests from a Repository.
type Fetcher struct {
	repo Repository
}

var _ loader.Fetcher = (*Fetcher)(nil)

// NewFetcher adapts repo to loader.Fetcher.
func NewFetcher(repo Repository) *Fetcher {
	return &Fetcher{repo: repo}
}

func (f *Fetcher) Fetch(ctx context.Context, language, namespace string) (*bundle.Node, error) {
	record, err := f.repo.Get(ctx, namespace, language)
	if err != nil {
		return nil, err
	}
	return record.Tree()
}

// Import stores every document of set in repo. Unchanged documents are
// skipped by the repository.
func Import(ctx context.Context, repo Repository, set bundle.Set) (int, error) {
	written := 0
	for _, language := range set.Languages() {
		root := set[language]
		for _, namespace := range root.Keys() {
			tree, _ := root.Child(namespace)
			if !tree.IsTree() {
				continue
			}
			if _, err := repo.Upsert(ctx, namespace, language, tree); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}
