package domain

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest accumulates length-prefixed fields into a BLAKE3-256 hash.
// Prefixing every field keeps ("ab", "c") and ("a", "bc") apart.
type Digest struct {
	h *blake3.Hasher
}

// NewDigest creates an empty Digest.
func NewDigest() *Digest {
	return &Digest{h: blake3.New()}
}

// Field appends a field.
func (d *Digest) Field(b []byte) *Digest {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = d.h.Write(n[:])
	_, _ = d.h.Write(b)
	return d
}

// Text appends a string field.
func (d *Digest) Text(s string) *Digest {
	return d.Field([]byte(s))
}

// Flag appends a boolean field.
func (d *Digest) Flag(v bool) *Digest {
	if v {
		return d.Field([]byte{1})
	}
	return d.Field([]byte{0})
}

// Hex returns the lowercase hex digest.
func (d *Digest) Hex() string {
	return hex.EncodeToString(d.h.Sum(nil))
}
