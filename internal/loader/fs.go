package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/goliatone/go-lingo/internal/bundle"
)

var (
	ErrBundleNotFound = errors.New("loader: bundle not found")
	ErrInvalidAddress = errors.New("loader: invalid bundle address")
)

// FSFetcher reads {namespace}/{language}.{ext} documents from a file system.
// Extensions are tried in bundle.Extensions order and the first file found
// is used.
type FSFetcher struct {
	fsys fs.FS
}

var _ Fetcher = (*FSFetcher)(nil)

// NewFSFetcher wraps fsys, typically os.DirFS or an embed.FS.
func NewFSFetcher(fsys fs.FS) *FSFetcher {
	return &FSFetcher{fsys: fsys}
}

func (f *FSFetcher) Fetch(ctx context.Context, language, namespace string) (*bundle.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validSegment(language) || !validSegment(namespace) {
		return nil, fmt.Errorf("%w: %q/%q", ErrInvalidAddress, namespace, language)
	}

	for _, ext := range bundle.Extensions {
		name := path.Join(namespace, language+ext)
		data, err := fs.ReadFile(f.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loader: read %s: %w", name, err)
		}
		format, err := bundle.FormatFromPath(name)
		if err != nil {
			return nil, err
		}
		return bundle.Decode(format, data)
	}
	return nil, fmt.Errorf("%w: %s/%s", ErrBundleNotFound, namespace, language)
}

func validSegment(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`)
}
