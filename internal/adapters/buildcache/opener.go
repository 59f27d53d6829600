package buildcache

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.BuildCacheOpener = (*Opener)(nil)

// Opener opens directory caches and prunes them.
type Opener struct {
	pruner *Pruner
}

// NewOpener creates a new Opener.
func NewOpener() *Opener {
	return &Opener{pruner: NewPruner()}
}

// OpenCache implements ports.BuildCacheOpener.
func (o *Opener) OpenCache(settings domain.CacheSettings) (ports.BuildCache, error) {
	return NewDirCache(settings.Dir, settings.Compression, settings.FailedRetry)
}

// Prune implements ports.BuildCacheOpener.
func (o *Opener) Prune(ctx context.Context, dir string, maxSize, targetSize int64) (domain.PruneReport, error) {
	return o.pruner.Prune(ctx, dir, maxSize, targetSize)
}
