package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// EventFiring opens the task span, routes action output into it, and notifies listeners.
// It reports every task, including tasks failing deeper in the pipeline.
type EventFiring struct {
	tracer    ports.Tracer
	listeners *Listeners
	metrics   ports.Metrics
	now       func() time.Time
}

// Name implements Stage.
func (s *EventFiring) Name() string { return "event-firing" }

// Run implements Stage.
func (s *EventFiring) Run(ctx context.Context, e *Execution, next Handler) (domain.Result, error) {
	path := e.Task.ID.Path()
	ctx, span := s.tracer.Start(ctx, path, ports.WithTask())
	span.SetAttribute(domain.AttrTaskPath, path)
	if e.Stdout == nil {
		e.Stdout = span
	}
	if e.Stderr == nil {
		e.Stderr = span
	}

	s.listeners.TaskStarted(e.Task.ID)
	start := s.now()

	res, err := next(ctx, e)
	res.Task = e.Task.ID
	res.Duration = s.now().Sub(start)

	if err != nil {
		span.RecordError(err)
	} else if res.Err != nil {
		span.RecordError(res.Err)
	}
	span.SetAttribute(domain.AttrOutcome, res.Outcome.String())
	if res.SkipReason != "" {
		span.SetAttribute(domain.AttrSkipReason, string(res.SkipReason))
	}
	if res.RebuildReason != domain.ReasonNone {
		span.SetAttribute(domain.AttrRebuildReason, string(res.RebuildReason))
	}
	if res.Key != "" {
		span.SetAttribute(domain.AttrCacheKey, res.Key.String())
	}
	span.End()

	if s.metrics != nil {
		s.metrics.TaskFinished(res.Outcome, res.Duration)
	}
	s.listeners.TaskFinished(res)
	return res, err
}

// FailureIsolation turns errors and panics of the inner stages into a FAILED result.
// Nothing unwinds past this stage.
type FailureIsolation struct{}

// Name implements Stage.
func (FailureIsolation) Name() string { return "failure-isolation" }

// Run implements Stage.
func (FailureIsolation) Run(ctx context.Context, e *Execution, next Handler) (res domain.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = domain.Failed(e.Task.ID, zerr.Wrap(fmt.Errorf("%v", r), domain.ErrActionPanicked.Error()))
			res.Key = e.Fingerprint.Key
			err = nil
		}
	}()

	res, err = next(ctx, e)
	if err != nil {
		res.Task = e.Task.ID
		res.Outcome = domain.OutcomeFailed
		res.SkipReason = ""
		res.Err = err
		return res, nil
	}
	return res, nil
}

// SkipDisabled skips tasks whose enabled flag is false.
type SkipDisabled struct{}

// Name implements Stage.
func (SkipDisabled) Name() string { return "skip-disabled" }

// Run implements Stage.
func (SkipDisabled) Run(ctx context.Context, e *Execution, next Handler) (domain.Result, error) {
	if !e.Task.Enabled {
		return domain.Skipped(e.Task.ID, domain.SkipDisabled), nil
	}
	return next(ctx, e)
}

// SkipNoActions skips tasks without actions. Their dependents are still unblocked.
type SkipNoActions struct{}

// Name implements Stage.
func (SkipNoActions) Name() string { return "skip-no-actions" }

// Run implements Stage.
func (SkipNoActions) Run(ctx context.Context, e *Execution, next Handler) (domain.Result, error) {
	if len(e.Task.Actions) == 0 {
		return domain.Skipped(e.Task.ID, domain.SkipNoActions), nil
	}
	return next(ctx, e)
}

// ResolveExecutionMode loads the last recorded execution and decides whether the actions
// may run incrementally. Unreadable history counts as no history.
type ResolveExecutionMode struct {
	history ports.ExecutionHistoryStore
	logger  ports.Logger
	rerun   bool
}

// Name implements Stage.
func (s *ResolveExecutionMode) Name() string { return "resolve-execution-mode" }

// Run implements Stage.
func (s *ResolveExecutionMode) Run(ctx context.Context, e *Execution, next Handler) (domain.Result, error) {
	entry, err := s.history.Load(ctx, e.Task.ID)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("ignoring execution history of %s: %v", e.Task.ID.Path(), err))
		entry = nil
	}
	e.History = entry
	e.Incremental = e.Task.Incremental && entry != nil && entry.Success && !s.rerun
	return next(ctx, e)
}

// FinalizeProperties freezes the task properties before they are fingerprinted.
type FinalizeProperties struct{}

// Name implements Stage.
func (FinalizeProperties) Name() string { return "finalize-properties" }

// Run implements Stage.
func (FinalizeProperties) Run(ctx context.Context, e *Execution, next Handler) (domain.Result, error) {
	e.Task.Properties.Finalize()
	return next(ctx, e)
}
