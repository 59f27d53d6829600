package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task whose identity is already in the graph.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a task that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrInvalidTaskPath is returned when a task path cannot be parsed.
	ErrInvalidTaskPath = zerr.New("invalid task path")

	// ErrNoTargetsSpecified is returned when no targets are specified for a build.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrPropertiesFinalized is returned when a task property is mutated after finalization.
	ErrPropertiesFinalized = zerr.New("task properties are finalized and cannot be changed")

	// ErrDuplicateProperty is returned when two properties of a task share a name.
	ErrDuplicateProperty = zerr.New("duplicate property name")

	// ErrOutputPathOutsideRoot is returned when an output path is outside the project directory.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside project directory")

	// ErrInputNotFound is returned when a declared input file or pattern matches nothing.
	ErrInputNotFound = zerr.New("input not found")

	// ErrBuildExecutionFailed is returned when one or more tasks of a build failed.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrTaskExecutionFailed is returned when a task execution fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrActionFailed is returned when a task action fails.
	ErrActionFailed = zerr.New("task action failed")

	// ErrActionPanicked is returned when a task action panics.
	ErrActionPanicked = zerr.New("task action panicked")

	// ErrSchedulerPanicked is returned when the scheduler of a build panics.
	ErrSchedulerPanicked = zerr.New("scheduler panicked")

	// ErrInputResolutionFailed is returned when input resolution fails.
	ErrInputResolutionFailed = zerr.New("failed to resolve inputs")

	// ErrFingerprintFailed is returned when input fingerprinting fails.
	ErrFingerprintFailed = zerr.New("failed to fingerprint inputs")

	// ErrSnapshotFailed is returned when output snapshotting fails.
	ErrSnapshotFailed = zerr.New("failed to snapshot outputs")

	// ErrFailedToCleanOutput is returned when removing a stale output fails.
	ErrFailedToCleanOutput = zerr.New("failed to clean stale output")

	// ErrHistoryCreateFailed is returned when the history store location cannot be created.
	ErrHistoryCreateFailed = zerr.New("failed to create execution history store")

	// ErrHistoryReadFailed is returned when an execution history entry cannot be read.
	ErrHistoryReadFailed = zerr.New("failed to read execution history")

	// ErrHistoryCorrupt is returned when an execution history entry cannot be decoded.
	ErrHistoryCorrupt = zerr.New("execution history entry is corrupt")

	// ErrHistoryWriteFailed is returned when an execution history entry cannot be written.
	ErrHistoryWriteFailed = zerr.New("failed to write execution history")

	// ErrCacheCreateFailed is returned when the build cache directory cannot be created.
	ErrCacheCreateFailed = zerr.New("failed to create build cache directory")

	// ErrCacheReadFailed is returned when a build cache entry cannot be read.
	ErrCacheReadFailed = zerr.New("failed to read build cache entry")

	// ErrCacheWriteFailed is returned when a build cache entry cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write build cache entry")

	// ErrCacheEntryInvalid is returned when a build cache archive is malformed.
	ErrCacheEntryInvalid = zerr.New("invalid build cache entry")

	// ErrUnknownCompression is returned when the configured cache compression is not supported.
	ErrUnknownCompression = zerr.New("unknown cache compression, expected 'gzip' or 'xz'")

	// ErrUnknownHistoryBackend is returned when the configured history backend is not supported.
	ErrUnknownHistoryBackend = zerr.New("unknown history backend, expected 'json' or 'sqlite'")

	// ErrConfigReadFailed is returned when a configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when a configuration file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigNotFound is returned when the build file cannot be found.
	ErrConfigNotFound = zerr.New("could not find kiln.yaml")

	// ErrInvalidNormalization is returned when an input normalization name is unknown.
	ErrInvalidNormalization = zerr.New("invalid input normalization")

	// ErrInvalidSize is returned when a configured byte size cannot be parsed.
	ErrInvalidSize = zerr.New("invalid size")

	// ErrLeaseUnavailable is returned when a worker lease cannot be acquired.
	ErrLeaseUnavailable = zerr.New("worker lease unavailable")

	// ErrResourceLockFailed is returned when a shared resource lock cannot be acquired.
	ErrResourceLockFailed = zerr.New("failed to acquire resource lock")

	// ErrCommandFailed is returned when a command action exits unsuccessfully.
	ErrCommandFailed = zerr.New("command failed")

	// ErrNestedBuildUnavailable is returned when an action requests a nested build but none can run.
	ErrNestedBuildUnavailable = zerr.New("nested builds are not available")

	// ErrMissingProjectName is returned when a project file does not declare its name.
	ErrMissingProjectName = zerr.New("project name is missing")

	// ErrInvalidProjectName is returned when a project name contains invalid characters.
	ErrInvalidProjectName = zerr.New("invalid project name")

	// ErrDuplicateProjectName is returned when two project files declare the same name.
	ErrDuplicateProjectName = zerr.New("duplicate project name")

	// ErrInvalidTaskName is returned when a task name contains invalid characters.
	ErrInvalidTaskName = zerr.New("invalid task name")

	// ErrInvalidAction is returned when an action declares neither or both of a command and a build.
	ErrInvalidAction = zerr.New("action must declare exactly one of 'run' or 'build'")

	// ErrUnknownBuild is returned when a build action names a build that is not declared.
	ErrUnknownBuild = zerr.New("unknown nested build")

	// ErrWatchUnavailable is returned when a continuous build is requested without a file watcher.
	ErrWatchUnavailable = zerr.New("continuous builds are not available")
)
