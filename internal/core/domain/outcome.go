package domain

import (
	"strings"
	"time"
)

// Outcome is the result of passing a task through the execution pipeline.
type Outcome uint8

const (
	// OutcomeExecuted means the actions ran and succeeded.
	OutcomeExecuted Outcome = iota
	// OutcomeUpToDate means the last recorded execution is still valid.
	OutcomeUpToDate
	// OutcomeFromCache means the outputs were restored from the build cache.
	OutcomeFromCache
	// OutcomeSkipped means the task did not run.
	OutcomeSkipped
	// OutcomeFailed means the task failed.
	OutcomeFailed
)

var outcomeNames = [...]string{
	OutcomeExecuted:  "EXECUTED",
	OutcomeUpToDate:  "UP_TO_DATE",
	OutcomeFromCache: "FROM_CACHE",
	OutcomeSkipped:   "SKIPPED",
	OutcomeFailed:    "FAILED",
}

// Outcomes lists every outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeExecuted, OutcomeUpToDate, OutcomeFromCache, OutcomeSkipped, OutcomeFailed}
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "UNKNOWN"
}

// ParseOutcome converts the string form back into an Outcome.
func ParseOutcome(s string) (Outcome, bool) {
	for i, name := range outcomeNames {
		if strings.EqualFold(name, s) {
			return Outcome(i), true
		}
	}
	return 0, false
}

// Succeeded reports whether the outcome counts as success for the build.
func (o Outcome) Succeeded() bool {
	return o != OutcomeFailed
}

// DidWork reports whether the outcome changed the outputs of the task or tried to.
func (o Outcome) DidWork() bool {
	return o == OutcomeExecuted || o == OutcomeFromCache || o == OutcomeFailed
}

// State maps the outcome to the terminal task state it implies.
func (o Outcome) State() TaskState {
	switch o {
	case OutcomeExecuted:
		return StateExecuted
	case OutcomeFailed:
		return StateFailed
	default:
		return StateSkipped
	}
}

// TaskState is the lifecycle state of a task within one build.
type TaskState uint8

const (
	// StatePending means the task waits for its dependencies or a worker.
	StatePending TaskState = iota
	// StateExecuting means the task holds a lease and is in the pipeline.
	StateExecuting
	// StateExecuted means the task ran.
	StateExecuted
	// StateSkipped means the task did not run, including up-to-date and cached tasks.
	StateSkipped
	// StateFailed means the task failed.
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateExecuting:
		return "EXECUTING"
	case StateExecuted:
		return "EXECUTED"
	case StateSkipped:
		return "SKIPPED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether the state is final for the build.
func (s TaskState) IsTerminal() bool {
	return s == StateExecuted || s == StateSkipped || s == StateFailed
}

// SkipReason explains why a task was skipped.
type SkipReason string

const (
	// SkipDisabled is used for tasks whose enabled flag is false.
	SkipDisabled SkipReason = "disabled"
	// SkipNoActions is used for tasks without actions.
	SkipNoActions SkipReason = "no actions"
	// SkipDependencyFailed is used when a hard dependency failed or was blocked.
	SkipDependencyFailed SkipReason = "dependency failed"
	// SkipCancelled is used for tasks that never started because the build was cancelled.
	SkipCancelled SkipReason = "cancelled"
	// SkipFinalizedDidNoWork is used for finalizers whose finalized tasks did no work.
	SkipFinalizedDidNoWork SkipReason = "finalized task did no work"
)

// Result is the outcome of one task.
type Result struct {
	Task          TaskIdentity
	Outcome       Outcome
	SkipReason    SkipReason
	RebuildReason RebuildReason
	Key           CacheKey
	Err           error
	Duration      time.Duration
}

// Failed creates a FAILED result.
func Failed(id TaskIdentity, err error) Result {
	return Result{Task: id, Outcome: OutcomeFailed, Err: err}
}

// Skipped creates a SKIPPED result.
func Skipped(id TaskIdentity, reason SkipReason) Result {
	return Result{Task: id, Outcome: OutcomeSkipped, SkipReason: reason}
}
