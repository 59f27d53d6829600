package fs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/xattr"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileHasher = (*Hasher)(nil)

const (
	// xattrRaw and xattrNormalized hold the memoized content hash of a file.
	xattrRaw        = "user.kiln_hash"
	xattrNormalized = "user.kiln_hash_eol"

	// binarySniffLen is how much of a file is inspected for NUL bytes.
	binarySniffLen = 8000
)

type memoKey struct {
	path       string
	normalized bool
}

type memoEntry struct {
	stamp string
	hash  string
}

// Hasher hashes file contents with xxhash.
// Hashes are memoized in memory and, where the file system supports it, in an
// extended attribute keyed by modification time and size.
type Hasher struct {
	mu       sync.Mutex
	memo     map[memoKey]memoEntry
	useXattr bool
}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{
		memo:     make(map[memoKey]memoEntry),
		useXattr: true,
	}
}

// NewHasherWithoutXattr creates a Hasher that never touches extended attributes.
func NewHasherWithoutXattr() *Hasher {
	h := NewHasher()
	h.useXattr = false
	return h
}

// HashFile returns the xxhash of the raw content of a file.
func (h *Hasher) HashFile(path string) (string, error) {
	return h.hash(path, false)
}

// HashNormalized returns the xxhash of a file with CRLF and CR line endings turned into LF.
// Files containing a NUL byte near their start are treated as binary and hashed raw.
func (h *Hasher) HashNormalized(path string) (string, error) {
	return h.hash(path, true)
}

func (h *Hasher) hash(path string, normalized bool) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}
	stamp := strconv.FormatInt(info.ModTime().UnixNano(), 10) + ":" + strconv.FormatInt(info.Size(), 10)
	key := memoKey{path: path, normalized: normalized}

	h.mu.Lock()
	cached, ok := h.memo[key]
	h.mu.Unlock()
	if ok && cached.stamp == stamp {
		return cached.hash, nil
	}

	attr := xattrRaw
	if normalized {
		attr = xattrNormalized
	}
	if hash, ok := h.readXattr(path, attr, stamp); ok {
		h.remember(key, stamp, hash)
		return hash, nil
	}

	hash, err := computeHash(path, normalized)
	if err != nil {
		return "", err
	}
	h.remember(key, stamp, hash)
	h.writeXattr(path, attr, stamp, hash)
	return hash, nil
}

func (h *Hasher) remember(key memoKey, stamp, hash string) {
	h.mu.Lock()
	h.memo[key] = memoEntry{stamp: stamp, hash: hash}
	h.mu.Unlock()
}

func (h *Hasher) readXattr(path, attr, stamp string) (string, bool) {
	if !h.useXattr {
		return "", false
	}
	value, err := xattr.LGet(path, attr)
	if err != nil {
		return "", false
	}
	prefix := stamp + ":"
	if !bytes.HasPrefix(value, []byte(prefix)) {
		return "", false
	}
	return string(value[len(prefix):]), true
}

// writeXattr is best effort; read-only trees and file systems without xattr support
// simply miss the memo.
func (h *Hasher) writeXattr(path, attr, stamp, hash string) {
	if !h.useXattr {
		return
	}
	_ = xattr.LSet(path, attr, []byte(stamp+":"+hash))
}

func computeHash(path string, normalized bool) (string, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := xxhash.New()
	r := bufio.NewReader(f)

	if normalized {
		head, _ := r.Peek(binarySniffLen)
		if bytes.IndexByte(head, 0) < 0 {
			if err := copyNormalized(digest, r); err != nil {
				return "", zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
			}
			return formatHash(digest.Sum64()), nil
		}
	}

	if _, err := io.Copy(digest, r); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}
	return formatHash(digest.Sum64()), nil
}

// copyNormalized writes r to w with CRLF and lone CR replaced by LF.
func copyNormalized(w io.Writer, r *bufio.Reader) error {
	out := bufio.NewWriter(w)
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			return out.Flush()
		}
		if err != nil {
			return err
		}
		if b == '\r' {
			if next, err := r.Peek(1); err == nil && next[0] == '\n' {
				continue
			}
			b = '\n'
		}
		if err := out.WriteByte(b); err != nil {
			return err
		}
	}
}

func formatHash(sum uint64) string {
	return fmt.Sprintf("%016x", sum)
}
