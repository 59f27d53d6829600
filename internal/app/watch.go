package app

import (
	"context"
	"fmt"
	"strings"

	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/domain"
)

// Watch runs the targets and runs them again whenever a declared input or a build file
// changes, until ctx is done. Failed builds are reported and do not end the watch.
func (a *App) Watch(ctx context.Context, targetNames []string, opts RunOptions) error {
	if a.watcher == nil || a.index == nil {
		return domain.ErrWatchUnavailable
	}
	if len(targetNames) == 0 {
		return domain.ErrNoTargetsSpecified
	}

	root, err := a.loader.DiscoverRoot(opts.dir())
	if err != nil {
		return err
	}

	loaded := a.runWatched(ctx, targetNames, opts)

	if err := a.watcher.Start(ctx, root); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	batches := make(chan []string)
	debouncer := watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		select {
		case batches <- paths:
		case <-ctx.Done():
		}
	})
	go func() {
		for event := range a.watcher.Events() {
			debouncer.Add(event.Path)
		}
	}()

	a.logger.Info("waiting for changes to input files...")
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-batches:
			inv := a.index.Invalidate(paths)
			if !loaded {
				// Without a graph there is no index, so any change may fix the configuration.
				inv.Reload = true
			}
			if inv.Empty() {
				continue
			}
			a.logger.Info(describeInvalidation(inv))
			loaded = a.runWatched(ctx, targetNames, opts)
			if ctx.Err() == nil {
				a.logger.Info("waiting for changes to input files...")
			}
		}
	}
}

// runWatched runs one build and refreshes the input index from the loaded graph.
// It reports whether the graph could be loaded.
func (a *App) runWatched(ctx context.Context, targetNames []string, opts RunOptions) bool {
	graph, err := a.build(ctx, targetNames, opts)
	if graph != nil {
		a.index.Rebuild(graph)
	}
	if err != nil && !isBuildFailure(err) && ctx.Err() == nil {
		a.logger.Error(err)
	}
	return graph != nil
}

func describeInvalidation(inv watcher.Invalidation) string {
	if inv.Reload {
		return "build configuration changed, rebuilding"
	}
	paths := make([]string, len(inv.Tasks))
	for i, id := range inv.Tasks {
		paths[i] = id.Path()
	}
	return fmt.Sprintf("inputs of %s changed, rebuilding", strings.Join(paths, ", "))
}
