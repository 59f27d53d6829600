package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// CacheOutputs describes the output locations of a task for the build cache.
type CacheOutputs struct {
	// Task is the task path recorded in the entry metadata.
	Task string
	// Root is the directory the output paths are relative to.
	Root string
	// Outputs are the declared output properties.
	Outputs []domain.OutputFiles
}

// BuildCache is a content addressed store of task outputs keyed by CacheKey.
// Implementations must be safe for concurrent use and never expose a partially written entry.
//
//go:generate go run go.uber.org/mock/mockgen -source=build_cache.go -destination=mocks/mock_build_cache.go -package=mocks
type BuildCache interface {
	// Contains reports whether an entry exists for key.
	Contains(ctx context.Context, key domain.CacheKey) (bool, error)

	// Load unpacks the entry for key into the output locations, overwriting existing content.
	// It returns false, nil if there is no entry.
	Load(ctx context.Context, key domain.CacheKey, target CacheOutputs) (bool, error)

	// Store packs the output locations into a new entry for key.
	Store(ctx context.Context, key domain.CacheKey, source CacheOutputs) error
}

// BuildCacheOpener opens and maintains build cache directories.
type BuildCacheOpener interface {
	// OpenCache opens the cache described by settings. settings.Dir must be absolute.
	OpenCache(settings domain.CacheSettings) (BuildCache, error)

	// Prune evicts the least recently accessed entries of the cache directory until it is
	// no larger than targetSize. Nothing is evicted while the cache is below maxSize.
	Prune(ctx context.Context, dir string, maxSize, targetSize int64) (domain.PruneReport, error)
}
