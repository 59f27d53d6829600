package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Fingerprinter computes the fingerprint and cache key of a task.
//
//go:generate go run go.uber.org/mock/mockgen -source=fingerprinter.go -destination=mocks/mock_fingerprinter.go -package=mocks
type Fingerprinter interface {
	// Fingerprint fingerprints the inputs of a task whose properties are finalized.
	Fingerprint(ctx context.Context, task *domain.Task) (domain.TaskFingerprint, error)
}
