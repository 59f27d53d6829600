package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// ExecutionHistoryStore persists the last recorded execution of every task.
// Implementations must be safe for concurrent use.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ExecutionHistoryStore interface {
	// Load retrieves the history entry of a task.
	// Returns nil, nil if not found.
	Load(ctx context.Context, id domain.TaskIdentity) (*domain.HistoryEntry, error)

	// Store overwrites the history entry of a task.
	Store(ctx context.Context, id domain.TaskIdentity, entry domain.HistoryEntry) error

	// Remove deletes the history entry of a task.
	Remove(ctx context.Context, id domain.TaskIdentity) error

	// Close releases the resources of the store.
	Close() error
}

// HistoryOpener opens the execution history store of a workspace.
type HistoryOpener interface {
	// OpenHistory opens the store below the workspace root using the named backend.
	OpenHistory(root string, backend string) (ExecutionHistoryStore, error)
}
