// Package history implements the execution history store.
package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ExecutionHistoryStore = (*JSONStore)(nil)

// JSONStore implements ports.ExecutionHistoryStore using a file-per-task strategy.
// Files are named after the hash of the task key and replaced atomically.
type JSONStore struct {
	dir string
}

// NewJSONStore creates a JSONStore backed by the directory at the given path.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryCreateFailed.Error()), "path", dir)
	}
	return &JSONStore{dir: dir}, nil
}

// Load retrieves the history entry of a task.
func (s *JSONStore) Load(_ context.Context, id domain.TaskIdentity) (*domain.HistoryEntry, error) {
	filename := s.filename(id)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrHistoryReadFailed.Error())
	}

	var entry domain.HistoryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryCorrupt.Error()), "task", id.Path())
	}
	if entry.Task != id.Key() {
		return nil, zerr.With(zerr.With(domain.ErrHistoryCorrupt, "task", id.Path()), "recorded", entry.Task)
	}

	return &entry, nil
}

// Store overwrites the history entry of a task.
func (s *JSONStore) Store(_ context.Context, id domain.TaskIdentity, entry domain.HistoryEntry) error {
	entry.Task = id.Key()
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // Gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	if err := os.Rename(tmpName, s.filename(id)); err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}

	return nil
}

// Remove deletes the history entry of a task.
func (s *JSONStore) Remove(_ context.Context, id domain.TaskIdentity) error {
	if err := os.Remove(s.filename(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	return nil
}

// Close implements ports.ExecutionHistoryStore.
func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) filename(id domain.TaskIdentity) string {
	hash := sha256.Sum256([]byte(id.Key()))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:])+".json")
}
