package ports

import (
	"time"

	"go.trai.ch/kiln/internal/core/domain"
)

// Metrics records build metrics.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// TaskFinished records the outcome and duration of a task.
	TaskFinished(outcome domain.Outcome, d time.Duration)
	// CacheLookup records a build cache lookup.
	CacheLookup(hit bool)
	// CacheStored records a build cache write.
	CacheStored(ok bool)
	// LeasesActive records the number of held worker leases.
	LeasesActive(n int)
	// WriteFile writes the collected metrics to path in the Prometheus text format.
	WriteFile(path string) error
}
