package buildcache_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/buildcache"
	"go.trai.ch/kiln/internal/core/domain"
)

func writeEntry(t *testing.T, dir, key string, size int, accessed time.Time) string {
	t.Helper()
	path := filepath.Join(dir, key[:2], key+".kiln")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), domain.FilePerm))
	require.NoError(t, os.Chtimes(path, accessed, accessed))
	return path
}

func TestPruner_EvictsLeastRecentlyAccessed(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	oldest := writeEntry(t, dir, "aa01", 100, now.Add(-72*time.Hour))
	older := writeEntry(t, dir, "bb02", 100, now.Add(-48*time.Hour))
	recent := writeEntry(t, dir, "cc03", 100, now)

	report, err := buildcache.NewPruner().Prune(context.Background(), dir, 250, 150)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Entries)
	assert.Equal(t, 2, report.Removed)
	assert.Equal(t, int64(300), report.SizeBefore)
	assert.Equal(t, int64(100), report.SizeAfter)
	assert.Equal(t, int64(200), report.RemovedBytes)
	assert.NoFileExists(t, oldest)
	assert.NoFileExists(t, older)
	assert.FileExists(t, recent)
}

func TestPruner_BelowMaxSize(t *testing.T) {
	dir := t.TempDir()
	entry := writeEntry(t, dir, "aa01", 100, time.Now().Add(-72*time.Hour))

	report, err := buildcache.NewPruner().Prune(context.Background(), dir, 1000, 10)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Removed)
	assert.FileExists(t, entry)
}

func TestPruner_RemovesStaleTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "aa", "aa01.kiln.tmp-123")
	fresh := filepath.Join(dir, "aa", "aa02.kiln.tmp-456")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), domain.DirPerm))
	require.NoError(t, os.WriteFile(stale, []byte("partial"), domain.FilePerm))
	require.NoError(t, os.WriteFile(fresh, []byte("partial"), domain.FilePerm))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	_, err := buildcache.NewPruner().Prune(context.Background(), dir, 0, 0)
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}

func TestPruner_MissingDirectory(t *testing.T) {
	report, err := buildcache.NewPruner().Prune(context.Background(), filepath.Join(t.TempDir(), "none"), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Entries)
}
