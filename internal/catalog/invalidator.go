package catalog

import (
	"context"

	"github.com/goliatone/go-lingo/internal/loader"
	"github.com/goliatone/go-lingo/internal/logging"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// Invalidator forwards repository change events to loader-side invalidators
// (the loader's bundle map and the resolved-string cache).
type Invalidator struct {
	repo    Repository
	targets []loader.Invalidator
	logger  interfaces.Logger
}

// NewInvalidator wires repo events to targets.
func NewInvalidator(repo Repository, logger interfaces.Logger, targets ...loader.Invalidator) *Invalidator {
	return &Invalidator{
		repo:    repo,
		targets: targets,
		logger:  logging.Ensure(logger),
	}
}

// Run consumes events until ctx ends or the subscription closes.
func (i *Invalidator) Run(ctx context.Context) error {
	events, err := i.repo.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			i.logger.Info("catalog.bundle.changed",
				"change", string(evt.Type),
				"language", evt.Language,
				"namespace", evt.Namespace,
			)
			for _, target := range i.targets {
				if target != nil {
					target.Invalidate(evt.Language, evt.Namespace)
				}
			}
		}
	}
}
