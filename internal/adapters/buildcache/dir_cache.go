// Package buildcache implements a local, content addressed build cache.
package buildcache

import (
	"archive/tar"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	entrySuffix = ".kiln"
	tmpInfix    = ".tmp-"
)

var _ ports.BuildCache = (*DirCache)(nil)

// DirCache stores each entry as a compressed tar archive at <dir>/<key[:2]>/<key>.kiln.
// Entries are written to a temporary sibling and renamed into place, so readers never
// observe a partial entry.
type DirCache struct {
	dir         string
	compression string
	failedRetry time.Duration
	now         func() time.Time
}

// NewDirCache creates the cache directory if needed.
func NewDirCache(dir, compression string, failedRetry time.Duration) (*DirCache, error) {
	switch compression {
	case domain.CompressionGzip, domain.CompressionXZ:
	case "":
		compression = domain.CompressionGzip
	default:
		return nil, zerr.With(domain.ErrUnknownCompression, "compression", compression)
	}
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheCreateFailed.Error()), "path", dir)
	}
	return &DirCache{dir: dir, compression: compression, failedRetry: failedRetry, now: time.Now}, nil
}

// Dir returns the cache directory.
func (c *DirCache) Dir() string {
	return c.dir
}

// Contains reports whether an entry exists for key.
func (c *DirCache) Contains(_ context.Context, key domain.CacheKey) (bool, error) {
	_, err := os.Stat(c.entryPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key.String())
	}
	return true, nil
}

// Load unpacks the entry for key below target.Root. Declared output locations are removed
// first, so the restored tree is exactly the cached one.
func (c *DirCache) Load(ctx context.Context, key domain.CacheKey, target ports.CacheOutputs) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	entry := c.entryPath(key)
	f, err := os.Open(entry) //nolint:gosec // Path is derived from the cache key
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key.String())
	}
	defer f.Close() //nolint:errcheck // Read-only

	r, err := decompressor(f)
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrCacheEntryInvalid.Error()), "key", key.String())
	}
	tr := tar.NewReader(r)
	if _, err := readMetadata(tr); err != nil {
		return false, zerr.With(err, "key", key.String())
	}

	for _, out := range target.Outputs {
		for _, p := range out.Paths {
			abs, err := safeJoin(target.Root, p)
			if err != nil {
				return false, err
			}
			if err := os.RemoveAll(abs); err != nil {
				return false, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "path", abs)
			}
		}
	}

	if err := extract(tr, target.Root); err != nil {
		return false, zerr.With(zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key.String()), "task", target.Task)
	}

	// Record the access for pruning; relatime mounts do not update atime on every read.
	now := c.now()
	if info, err := f.Stat(); err == nil {
		_ = os.Chtimes(entry, now, info.ModTime())
	}
	return true, nil
}

// Store packs the output locations into a new entry for key. An existing entry is
// never overwritten. A failed write leaves a .failed marker that suppresses further
// attempts for the same key until the retry interval has passed.
func (c *DirCache) Store(ctx context.Context, key domain.CacheKey, source ports.CacheOutputs) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := c.entryPath(key)
	if _, err := os.Stat(entry); err == nil {
		return nil
	}
	if c.recentlyFailed(key) {
		return nil
	}

	if err := c.write(key, entry, source); err != nil {
		c.markFailed(key, err)
		return zerr.With(zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key.String()), "task", source.Task)
	}
	_ = os.Remove(c.failedPath(key))
	return nil
}

func (c *DirCache) write(key domain.CacheKey, entry string, source ports.CacheOutputs) error {
	if err := os.MkdirAll(filepath.Dir(entry), domain.DirPerm); err != nil {
		return err
	}
	tmpPath := entry + tmpInfix + uuid.NewString()
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm) //nolint:gosec // Path is derived from the cache key
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath) //nolint:errcheck // Gone after a successful rename

	cw, err := compressor(tmp, c.compression)
	if err != nil {
		_ = tmp.Close()
		return err
	}
	meta := Metadata{Task: source.Task, Key: key, Created: c.now().UTC()}
	if _, err := writeArchive(cw, meta, source.Root, source.Outputs); err != nil {
		_ = cw.Close()
		_ = tmp.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, entry)
}

func (c *DirCache) recentlyFailed(key domain.CacheKey) bool {
	info, err := os.Stat(c.failedPath(key))
	if err != nil {
		return false
	}
	return c.now().Sub(info.ModTime()) < c.failedRetry
}

func (c *DirCache) markFailed(key domain.CacheKey, cause error) {
	marker := c.failedPath(key)
	if err := os.MkdirAll(filepath.Dir(marker), domain.DirPerm); err != nil {
		return
	}
	_ = os.WriteFile(marker, []byte(cause.Error()+"\n"), domain.FilePerm)
}

func (c *DirCache) entryPath(key domain.CacheKey) string {
	k := key.String()
	if len(k) < 2 {
		return filepath.Join(c.dir, k+entrySuffix)
	}
	return filepath.Join(c.dir, k[:2], k+entrySuffix)
}

func (c *DirCache) failedPath(key domain.CacheKey) string {
	return c.entryPath(key) + domain.FailedMarkerSuffix
}
