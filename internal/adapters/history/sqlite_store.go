package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

var _ ports.ExecutionHistoryStore = (*SQLiteStore)(nil)

// SQLiteStore implements ports.ExecutionHistoryStore on a SQLite database in WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the history database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryCreateFailed.Error()), "path", path)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryCreateFailed.Error()), "path", path)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryCreateFailed.Error()), "path", path)
	}
	return s, nil
}

// migrate runs idempotent schema migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS history (
			task_key   TEXT PRIMARY KEY,
			cache_key  TEXT NOT NULL,
			success    BOOLEAN NOT NULL,
			entry      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Load retrieves the history entry of a task.
func (s *SQLiteStore) Load(ctx context.Context, id domain.TaskIdentity) (*domain.HistoryEntry, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT entry FROM history WHERE task_key = ?`, id.Key()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrHistoryReadFailed.Error())
	}

	var entry domain.HistoryEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrHistoryCorrupt.Error()), "task", id.Path())
	}
	return &entry, nil
}

// Store overwrites the history entry of a task.
func (s *SQLiteStore) Store(ctx context.Context, id domain.TaskIdentity, entry domain.HistoryEntry) error {
	entry.Task = id.Key()
	data, err := json.Marshal(entry)
	if err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO history (task_key, cache_key, success, entry, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(task_key) DO UPDATE SET
		   cache_key = excluded.cache_key,
		   success = excluded.success,
		   entry = excluded.entry,
		   updated_at = excluded.updated_at`,
		entry.Task, entry.CacheKey.String(), entry.Success, data, entry.RecordedAt.UnixMilli(),
	)
	if err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	return nil
}

// Remove deletes the history entry of a task.
func (s *SQLiteStore) Remove(ctx context.Context, id domain.TaskIdentity) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE task_key = ?`, id.Key()); err != nil {
		return zerr.Wrap(err, domain.ErrHistoryWriteFailed.Error())
	}
	return nil
}

// Close cleanly shuts down the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
