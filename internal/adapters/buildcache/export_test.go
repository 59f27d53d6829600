package buildcache

import (
	"time"

	"go.trai.ch/kiln/internal/core/domain"
)

// EntryPath exposes the on-disk location of an entry.
func (c *DirCache) EntryPath(key domain.CacheKey) string {
	return c.entryPath(key)
}

// FailedPath exposes the failure marker location of an entry.
func (c *DirCache) FailedPath(key domain.CacheKey) string {
	return c.failedPath(key)
}

// SetClock replaces the clock of the cache.
func (c *DirCache) SetClock(now func() time.Time) {
	c.now = now
}
