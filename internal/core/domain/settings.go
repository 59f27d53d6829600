package domain

import (
	"time"

	"go.trai.ch/zerr"
)

const (
	// HistoryBackendJSON stores one JSON document per task.
	HistoryBackendJSON = "json"
	// HistoryBackendSQLite stores history in a SQLite database.
	HistoryBackendSQLite = "sqlite"

	// CompressionGzip compresses build cache entries with gzip.
	CompressionGzip = "gzip"
	// CompressionXZ compresses build cache entries with xz.
	CompressionXZ = "xz"

	// LogFormatPretty renders colored human readable logs.
	LogFormatPretty = "pretty"
	// LogFormatJSON renders one JSON object per log record.
	LogFormatJSON = "json"

	// EnvLogFormat overrides the log format of the settings file.
	EnvLogFormat = "KILN_LOG_FORMAT"
	// EnvLogLevel overrides the log level of the settings file.
	EnvLogLevel = "KILN_LOG_LEVEL"
)

// Settings are the workspace settings after defaults and overrides are applied.
type Settings struct {
	// MaxWorkers bounds concurrent task execution. Zero means GOMAXPROCS.
	MaxWorkers int
	// FailFast stops dispatching new tasks after the first failure.
	FailFast bool
	// HistoryBackend selects the execution history store.
	HistoryBackend string

	Cache CacheSettings

	LogFormat string
	LogLevel  LogLevel

	// MetricsFile receives Prometheus text metrics after each build when set.
	MetricsFile string
}

// CacheSettings configure the local build cache.
type CacheSettings struct {
	Enabled bool
	// Dir is the cache directory. Relative paths are resolved against the workspace root.
	Dir         string
	Compression string
	// MaxSize triggers pruning once the cache grows beyond it. Zero disables pruning.
	MaxSize int64
	// TargetSize is the size pruning shrinks the cache to.
	TargetSize int64
	// FailedRetry is how long a failed write blocks further writes of the same key.
	FailedRetry time.Duration
}

// DefaultSettings returns the settings used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		HistoryBackend: HistoryBackendJSON,
		Cache: CacheSettings{
			Enabled:     true,
			Dir:         DefaultCachePath(),
			Compression: CompressionGzip,
			MaxSize:     10 << 30,
			TargetSize:  8 << 30,
			FailedRetry: time.Hour,
		},
		LogFormat: LogFormatPretty,
		LogLevel:  LogLevelInfo,
	}
}

// Validate checks enumerated settings.
func (s Settings) Validate() error {
	switch s.HistoryBackend {
	case HistoryBackendJSON, HistoryBackendSQLite:
	default:
		return zerr.With(ErrUnknownHistoryBackend, "backend", s.HistoryBackend)
	}
	switch s.Cache.Compression {
	case CompressionGzip, CompressionXZ:
	default:
		return zerr.With(ErrUnknownCompression, "compression", s.Cache.Compression)
	}
	if s.Cache.TargetSize > s.Cache.MaxSize && s.Cache.MaxSize > 0 {
		return zerr.With(zerr.With(ErrInvalidSize, "max_size", s.Cache.MaxSize), "target_size", s.Cache.TargetSize)
	}
	if s.MaxWorkers < 0 {
		return zerr.With(ErrInvalidSize, "max_workers", s.MaxWorkers)
	}
	return nil
}

// PruneReport summarizes a build cache pruning pass.
type PruneReport struct {
	Entries      int
	Removed      int
	SizeBefore   int64
	SizeAfter    int64
	RemovedBytes int64
}
