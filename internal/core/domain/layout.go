package domain

import "path/filepath"

const (
	// KilnDirName is the name of the internal workspace directory.
	KilnDirName = ".kiln"

	// HistoryDirName is the name of the execution history directory.
	HistoryDirName = "history"

	// HistoryDBName is the name of the SQLite execution history database.
	HistoryDBName = "history.db"

	// CacheDirName is the name of the local build cache directory.
	CacheDirName = "cache"

	// BuildFileName is the name of the build file.
	BuildFileName = "kiln.yaml"

	// SettingsFileName is the name of the optional settings file.
	SettingsFileName = "kiln.toml"

	// FailedMarkerSuffix marks a build cache entry whose last write failed.
	FailedMarkerSuffix = ".failed"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultHistoryPath returns the default directory of the JSON execution history store.
// It joins .kiln and history.
func DefaultHistoryPath() string {
	return filepath.Join(KilnDirName, HistoryDirName)
}

// DefaultHistoryDBPath returns the default path of the SQLite execution history database.
func DefaultHistoryDBPath() string {
	return filepath.Join(KilnDirName, HistoryDBName)
}

// DefaultCachePath returns the default path of the local build cache.
// It joins .kiln and cache.
func DefaultCachePath() string {
	return filepath.Join(KilnDirName, CacheDirName)
}
