package domain

import "bytes"

// EntryKind distinguishes fingerprint entries.
type EntryKind uint8

const (
	// EntryFile is a regular file (or archive member).
	EntryFile EntryKind = iota
	// EntryDirectory is a directory.
	EntryDirectory
)

// FingerprintEntry is one normalized identity and the hash of its content.
type FingerprintEntry struct {
	Identity string    `json:"identity"`
	Hash     string    `json:"hash,omitempty"`
	Kind     EntryKind `json:"kind,omitempty"`
}

// FileFingerprint is the fingerprint of one file input property.
// Entries are ordered: sorted by identity, except for classpath inputs which keep
// classpath order.
type FileFingerprint struct {
	Strategy string             `json:"strategy"`
	Entries  []FingerprintEntry `json:"entries"`
}

// Hash returns the digest of the strategy tag and the ordered entries.
func (f FileFingerprint) Hash() string {
	d := NewDigest().Text(f.Strategy)
	for _, e := range f.Entries {
		d.Text(e.Identity).Text(e.Hash).Flag(e.Kind == EntryDirectory)
	}
	return d.Hex()
}

// ValueSnapshot is the serialized form of a value input.
type ValueSnapshot struct {
	Type  string `json:"type"`
	Bytes []byte `json:"bytes"`
}

// Equal compares two value snapshots by type and exact bytes.
// Values whose serialized bytes differ are different, even if they would compare equal
// in some other representation.
func (v ValueSnapshot) Equal(other ValueSnapshot) bool {
	return v.Type == other.Type && bytes.Equal(v.Bytes, other.Bytes)
}

// Hash returns the digest of the snapshot.
func (v ValueSnapshot) Hash() string {
	return NewDigest().Text(v.Type).Field(v.Bytes).Hex()
}

// CacheKey identifies an exactly reproducible execution.
type CacheKey string

// String implements fmt.Stringer.
func (k CacheKey) String() string {
	return string(k)
}

// TaskFingerprint is everything computed about a task before it runs.
type TaskFingerprint struct {
	Implementation ImplementationHash
	Inputs         map[string]FileFingerprint
	Values         map[string]ValueSnapshot
	OutputNames    []string
	Key            CacheKey
}
