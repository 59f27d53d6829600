package buildcache

import (
	"cmp"
	"context"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/djherbis/atime"
	"github.com/karrick/godirwalk"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// accessTimeGracePeriod is the window within which two entries are considered
	// equally recent; larger entries are evicted first among them.
	accessTimeGracePeriod = 10 * time.Minute

	// staleTmpAge is how old an orphaned temporary file must be before pruning removes it.
	staleTmpAge = time.Hour
)

type cacheEntry struct {
	path  string
	size  int64
	atime time.Time
}

// Pruner evicts least recently accessed build cache entries.
type Pruner struct {
	now func() time.Time
}

// NewPruner creates a new Pruner.
func NewPruner() *Pruner {
	return &Pruner{now: time.Now}
}

// Prune shrinks the cache at dir to targetSize once it exceeds maxSize.
// Orphaned temporary files from interrupted writes are always removed.
func (p *Pruner) Prune(ctx context.Context, dir string, maxSize, targetSize int64) (domain.PruneReport, error) {
	var report domain.PruneReport
	entries, err := p.scan(dir)
	if err != nil {
		return report, err
	}

	report.Entries = len(entries)
	for _, e := range entries {
		report.SizeBefore += e.size
	}
	report.SizeAfter = report.SizeBefore

	if maxSize <= 0 || report.SizeBefore <= maxSize {
		return report, nil
	}

	slices.SortFunc(entries, func(a, b cacheEntry) int {
		diff := a.atime.Sub(b.atime)
		if diff > -accessTimeGracePeriod && diff < accessTimeGracePeriod {
			return cmp.Compare(b.size, a.size)
		}
		return a.atime.Compare(b.atime)
	})

	for _, e := range entries {
		if report.SizeAfter <= targetSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		// Rename first so a concurrent reader never opens a half-deleted entry.
		doomed := e.path + tmpInfix + "prune"
		if err := os.Rename(e.path, doomed); err != nil {
			continue
		}
		if err := os.Remove(doomed); err != nil {
			continue
		}
		report.Removed++
		report.RemovedBytes += e.size
		report.SizeAfter -= e.size
	}

	return report, nil
}

func (p *Pruner) scan(dir string) ([]cacheEntry, error) {
	var entries []cacheEntry
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			name := de.Name()
			info, err := os.Stat(path)
			if err != nil {
				return nil //nolint:nilerr // Entry vanished under a concurrent prune
			}

			switch {
			case strings.Contains(name, tmpInfix):
				if p.now().Sub(info.ModTime()) > staleTmpAge {
					_ = os.Remove(path)
				}
			case strings.HasSuffix(name, entrySuffix):
				entries = append(entries, cacheEntry{path: path, size: info.Size(), atime: atime.Get(info)})
			}
			return nil
		},
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "path", dir)
	}
	return entries, nil
}
