package ports

import "go.trai.ch/kiln/internal/core/domain"

// OutputSnapshotter observes the current state of output locations.
//
//go:generate go run go.uber.org/mock/mockgen -source=snapshotter.go -destination=mocks/mock_snapshotter.go -package=mocks
type OutputSnapshotter interface {
	// Snapshot hashes every file below the output paths. Missing outputs have no entries.
	Snapshot(root string, outputs []domain.OutputFiles) (domain.OutputSnapshot, error)
}
