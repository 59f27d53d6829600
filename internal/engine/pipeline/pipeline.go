// Package pipeline passes every task invocation through an ordered list of stages.
package pipeline

import (
	"context"
	"io"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/lease"
)

// Execution is the state of one task invocation as it moves through the stages.
type Execution struct {
	Task *domain.Task

	// Stdout and Stderr receive the output of the actions.
	Stdout io.Writer
	Stderr io.Writer

	// History is the last recorded execution, or nil.
	History *domain.HistoryEntry
	// Incremental is true when the actions may receive input changes.
	Incremental bool
	// Outputs is the observed state of the outputs after stale output cleanup.
	Outputs domain.OutputSnapshot
	// Fingerprint is computed by the core execution stage.
	Fingerprint domain.TaskFingerprint
	// Changes is passed to the actions.
	Changes domain.InputChanges
}

// Handler runs the rest of the pipeline.
// A returned error is converted into a FAILED result by the failure isolation stage.
type Handler func(ctx context.Context, e *Execution) (domain.Result, error)

// Stage wraps the rest of the pipeline with one concern.
type Stage interface {
	Name() string
	Run(ctx context.Context, e *Execution, next Handler) (domain.Result, error)
}

// Compose chains the stages around inner. The first stage is the outermost.
func Compose(stages []Stage, inner Handler) Handler {
	h := inner
	for i := len(stages) - 1; i >= 0; i-- {
		stage, next := stages[i], h
		h = func(ctx context.Context, e *Execution) (domain.Result, error) {
			return stage.Run(ctx, e, next)
		}
	}
	return h
}

// Options are the per build switches of the pipeline.
type Options struct {
	// Rerun ignores history and the build cache when deciding whether to execute.
	Rerun bool
}

// Deps are the collaborators of the stages.
type Deps struct {
	Tracer        ports.Tracer
	Logger        ports.Logger
	Listeners     *Listeners
	History       ports.ExecutionHistoryStore
	Fingerprinter ports.Fingerprinter
	Snapshotter   ports.OutputSnapshotter
	Leases        *lease.Service

	// Cache is nil when the build cache is disabled.
	Cache ports.BuildCache
	// Metrics may be nil.
	Metrics ports.Metrics
	// Builds runs nested builds for actions. It may be nil.
	Builds domain.BuildInvoker

	BuildID string
	Options Options
	Now     func() time.Time
}

// DefaultStages returns the stages of a build in their fixed order.
func DefaultStages(deps Deps) []Stage {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return []Stage{
		&EventFiring{tracer: deps.Tracer, listeners: deps.Listeners, metrics: deps.Metrics, now: now},
		FailureIsolation{},
		SkipDisabled{},
		SkipNoActions{},
		&ResolveExecutionMode{history: deps.History, logger: deps.Logger, rerun: deps.Options.Rerun},
		FinalizeProperties{},
		&CleanupStaleOutputs{snapshotter: deps.Snapshotter},
		&CoreExecution{
			fingerprinter: deps.Fingerprinter,
			snapshotter:   deps.Snapshotter,
			history:       deps.History,
			cache:         deps.Cache,
			leases:        deps.Leases,
			logger:        deps.Logger,
			metrics:       deps.Metrics,
			buildID:       deps.BuildID,
			rerun:         deps.Options.Rerun,
			now:           now,
		},
	}
}

// Pipeline executes tasks through the default stages.
type Pipeline struct {
	handler Handler
}

// New creates a Pipeline over the default stages and the action executor.
func New(deps Deps) *Pipeline {
	return &Pipeline{handler: Compose(DefaultStages(deps), ExecuteActions(deps.Builds))}
}

// Execute passes the task through the pipeline exactly once and returns its result.
func (p *Pipeline) Execute(ctx context.Context, task *domain.Task) domain.Result {
	res, err := p.handler(ctx, &Execution{Task: task})
	if err != nil {
		return domain.Failed(task.ID, err)
	}
	res.Task = task.ID
	return res
}
