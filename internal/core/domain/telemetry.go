package domain

import "strings"

// Span attribute keys shared by the pipeline and the renderer bridge.
const (
	// AttrOutcome carries the Outcome string of a task span.
	AttrOutcome = "kiln.outcome"
	// AttrSkipReason carries the SkipReason of a skipped task.
	AttrSkipReason = "kiln.skip_reason"
	// AttrRebuildReason carries the RebuildReason of an executed task.
	AttrRebuildReason = "kiln.rebuild_reason"
	// AttrCacheKey carries the CacheKey of a task.
	AttrCacheKey = "kiln.cache_key"
	// AttrTaskPath marks a span as a task span and carries its path.
	AttrTaskPath = "kiln.task"
)

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLogLevel converts a level name to a LogLevel, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(s) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}
