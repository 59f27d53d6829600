package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// CleanOptions configuration for the Clean method.
type CleanOptions struct {
	Dir     string
	History bool
	Cache   bool
}

// Clean removes the execution history and the build cache of the workspace.
func (a *App) Clean(_ context.Context, options CleanOptions) error {
	root, settings, err := a.prepare(RunOptions{Dir: options.Dir})
	if err != nil {
		return err
	}

	var errs error
	remove := func(path string, name string) {
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			return
		}
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	if options.History {
		remove(filepath.Join(root, domain.DefaultHistoryPath()), "execution history")
		remove(filepath.Join(root, domain.DefaultHistoryDBPath()), "execution history database")
	}
	if options.Cache {
		remove(settings.Cache.Dir, "build cache")
	}
	return errs
}

// PruneOptions configuration for the PruneCache method.
type PruneOptions struct {
	Dir string
	// MaxSize and TargetSize override the configured limits when positive.
	MaxSize    int64
	TargetSize int64
}

// PruneCache evicts the least recently used build cache entries.
func (a *App) PruneCache(ctx context.Context, options PruneOptions) (domain.PruneReport, error) {
	_, settings, err := a.prepare(RunOptions{Dir: options.Dir})
	if err != nil {
		return domain.PruneReport{}, err
	}

	maxSize, targetSize := settings.Cache.MaxSize, settings.Cache.TargetSize
	if options.MaxSize > 0 {
		maxSize = options.MaxSize
		if targetSize > maxSize {
			targetSize = maxSize
		}
	}
	if options.TargetSize > 0 {
		targetSize = options.TargetSize
	}
	if maxSize > 0 && targetSize > maxSize {
		return domain.PruneReport{}, zerr.With(zerr.With(domain.ErrInvalidSize, "max_size", maxSize), "target_size", targetSize)
	}

	report, err := a.caches.Prune(ctx, settings.Cache.Dir, maxSize, targetSize)
	if err != nil {
		return report, err
	}
	a.logger.Info(formatPrune(report))
	return report, nil
}
