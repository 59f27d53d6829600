package domain

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

// BuildReport collects the results of every task of a build.
type BuildReport struct {
	mu       sync.RWMutex
	order    []TaskIdentity
	results  map[TaskIdentity]Result
	Started  time.Time
	Duration time.Duration
}

// NewBuildReport creates an empty report.
func NewBuildReport(started time.Time) *BuildReport {
	return &BuildReport{
		results: make(map[TaskIdentity]Result),
		Started: started,
	}
}

// Add records the result of a task. A later result for the same task replaces the
// earlier one but keeps its position.
func (r *BuildReport) Add(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.results[res.Task]; !ok {
		r.order = append(r.order, res.Task)
	}
	r.results[res.Task] = res
}

// Get returns the result of a task.
func (r *BuildReport) Get(id TaskIdentity) (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[id]
	return res, ok
}

// Results returns every result in completion order.
func (r *BuildReport) Results() []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Result, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.results[id])
	}
	return out
}

// Failed returns the failed results in completion order.
func (r *BuildReport) Failed() []Result {
	var failed []Result
	for _, res := range r.Results() {
		if res.Outcome == OutcomeFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Counts returns the number of tasks per outcome.
func (r *BuildReport) Counts() map[Outcome]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[Outcome]int, len(outcomeNames))
	for _, res := range r.results {
		counts[res.Outcome]++
	}
	return counts
}

// Err returns a *BuildFailure when any task failed, and nil otherwise.
func (r *BuildReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	return NewBuildFailure(failed)
}

// TaskFailure is the cause of one failed task.
type TaskFailure struct {
	Task TaskIdentity
	Err  error
}

func (f *TaskFailure) Error() string {
	if f.Err == nil {
		return f.Task.Path() + ": " + ErrTaskExecutionFailed.Error()
	}
	return f.Task.Path() + ": " + f.Err.Error()
}

func (f *TaskFailure) Unwrap() error {
	return f.Err
}

// BuildFailure is the aggregate failure report of a build.
// It lists every failed task path with its cause.
type BuildFailure struct {
	merr *multierror.Error
}

// NewBuildFailure creates the aggregate report for the given failed results.
func NewBuildFailure(failed []Result) *BuildFailure {
	var merr *multierror.Error
	for _, res := range failed {
		merr = multierror.Append(merr, &TaskFailure{Task: res.Task, Err: res.Err})
	}
	if merr == nil {
		merr = &multierror.Error{}
	}
	merr.ErrorFormat = formatFailures
	return &BuildFailure{merr: merr}
}

// Failures returns the failure of every task.
func (b *BuildFailure) Failures() []*TaskFailure {
	out := make([]*TaskFailure, 0, len(b.merr.Errors))
	for _, err := range b.merr.Errors {
		if tf, ok := err.(*TaskFailure); ok {
			out = append(out, tf)
		}
	}
	return out
}

// Paths returns the paths of the failed tasks.
func (b *BuildFailure) Paths() []string {
	failures := b.Failures()
	paths := make([]string, len(failures))
	for i, f := range failures {
		paths[i] = f.Task.Path()
	}
	return paths
}

func (b *BuildFailure) Error() string {
	return b.merr.Error()
}

// Unwrap exposes ErrBuildExecutionFailed and every task failure to errors.Is and errors.As.
func (b *BuildFailure) Unwrap() []error {
	return append([]error{ErrBuildExecutionFailed}, b.merr.Errors...)
}

func formatFailures(errs []error) string {
	var sb strings.Builder
	noun := "task"
	if len(errs) != 1 {
		noun = "tasks"
	}
	fmt.Fprintf(&sb, "%s: %d %s failed", ErrBuildExecutionFailed.Error(), len(errs), noun)
	for _, err := range errs {
		sb.WriteString("\n  * ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}
