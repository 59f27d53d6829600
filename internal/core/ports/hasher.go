package ports

// FileHasher defines the interface for hashing file contents.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type FileHasher interface {
	// HashFile returns the hash of the raw content of a file.
	HashFile(path string) (string, error)

	// HashNormalized returns the hash of a file with line endings normalized to LF.
	// Binary files are hashed raw.
	HashNormalized(path string) (string, error)
}
