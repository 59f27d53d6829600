package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
)

// Golden xxhash values. If these change, every persisted history entry and cache key
// is invalidated. Validate the change carefully before updating them.
const (
	goldenLF   = "81d8b12beeb78c2b" // "line one\nline two\n"
	goldenCRLF = "3ddb8b0e5d3b25d2" // "line one\r\nline two\r\n"
)

func TestHasher_Golden(t *testing.T) {
	dir := t.TempDir()
	lf := mustWriteFile(t, dir, "lf.txt", "line one\nline two\n")
	crlf := mustWriteFile(t, dir, "crlf.txt", "line one\r\nline two\r\n")
	cr := mustWriteFile(t, dir, "cr.txt", "line one\rline two\r")

	h := fs.NewHasherWithoutXattr()

	got, err := h.HashFile(lf)
	require.NoError(t, err)
	assert.Equal(t, goldenLF, got)

	got, err = h.HashFile(crlf)
	require.NoError(t, err)
	assert.Equal(t, goldenCRLF, got)

	for _, path := range []string{lf, crlf, cr} {
		got, err = h.HashNormalized(path)
		require.NoError(t, err)
		assert.Equal(t, goldenLF, got, filepath.Base(path))
	}
}

func TestHasher_NormalizedKeepsBinaryRaw(t *testing.T) {
	dir := t.TempDir()
	bin := mustWriteFile(t, dir, "blob.bin", "a\x00b\r\nc")

	h := fs.NewHasherWithoutXattr()
	raw, err := h.HashFile(bin)
	require.NoError(t, err)
	normalized, err := h.HashNormalized(bin)
	require.NoError(t, err)

	assert.Equal(t, raw, normalized)
}

func TestHasher_ContentChange(t *testing.T) {
	dir := t.TempDir()
	file := mustWriteFile(t, dir, "file.txt", "content1")

	h := fs.NewHasher()
	hash1, err := h.HashFile(file)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(file, []byte("content2-longer"), domain.PrivateFilePerm))
	hash2, err := h.HashFile(file)
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2, "Hash should change when content changes")
}

func TestHasher_MetadataChange(t *testing.T) {
	dir := t.TempDir()
	file := mustWriteFile(t, dir, "file.txt", "content")

	h := fs.NewHasher()
	hash1, err := h.HashFile(file)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(file, future, future))

	hash2, err := h.HashFile(file)
	require.NoError(t, err)

	assert.Equal(t, hash1, hash2, "Hash should NOT change when only mtime changes")
}

func TestHasher_MissingFile(t *testing.T) {
	h := fs.NewHasherWithoutXattr()
	_, err := h.HashFile(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
