package history

import (
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.HistoryOpener = (*Opener)(nil)

// Opener opens the history store of a workspace with the configured backend.
type Opener struct{}

// NewOpener creates a new Opener.
func NewOpener() *Opener {
	return &Opener{}
}

// OpenHistory implements ports.HistoryOpener.
func (o *Opener) OpenHistory(root, backend string) (ports.ExecutionHistoryStore, error) {
	switch backend {
	case domain.HistoryBackendJSON, "":
		return NewJSONStore(filepath.Join(root, domain.DefaultHistoryPath()))
	case domain.HistoryBackendSQLite:
		return OpenSQLite(filepath.Join(root, domain.DefaultHistoryDBPath()))
	default:
		return nil, zerr.With(domain.ErrUnknownHistoryBackend, "backend", backend)
	}
}
