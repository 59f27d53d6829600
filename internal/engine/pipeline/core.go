package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/fingerprint"
	"go.trai.ch/kiln/internal/engine/lease"
	"go.trai.ch/zerr"
)

// CoreExecution decides between UP_TO_DATE, FROM_CACHE, and running the actions, and
// records the execution afterwards. The resource locks of the task are held throughout.
type CoreExecution struct {
	fingerprinter ports.Fingerprinter
	snapshotter   ports.OutputSnapshotter
	history       ports.ExecutionHistoryStore
	cache         ports.BuildCache
	leases        *lease.Service
	logger        ports.Logger
	metrics       ports.Metrics
	buildID       string
	rerun         bool
	now           func() time.Time
}

// Name implements Stage.
func (s *CoreExecution) Name() string { return "core-execution" }

// Run implements Stage.
func (s *CoreExecution) Run(ctx context.Context, e *Execution, next Handler) (domain.Result, error) {
	task := e.Task
	if s.leases != nil && len(task.Resources) > 0 {
		release, err := s.leases.LockResources(ctx, task.Resources)
		if err != nil {
			return domain.Result{}, err
		}
		defer release()
	}

	fp, err := s.fingerprinter.Fingerprint(ctx, task)
	if err != nil {
		return domain.Result{}, err
	}
	e.Fingerprint = fp
	res := domain.Result{Task: task.ID, Key: fp.Key}

	outputsChanged := e.History != nil && !domain.OutputsEqual(e.History.Outputs, e.Outputs)
	changes, reason := fingerprint.ComputeChanges(e.History, fp, outputsChanged)
	if s.rerun {
		changes, reason = domain.InputChanges{}, domain.ReasonRerun
	}
	if reason == domain.ReasonNone {
		res.Outcome = domain.OutcomeUpToDate
		return res, nil
	}
	res.RebuildReason = reason

	outputs := task.Properties.Outputs()
	target := ports.CacheOutputs{Task: task.ID.Path(), Root: task.ProjectDir, Outputs: outputs}

	if s.cache != nil && task.Cacheable && !s.rerun {
		if hit := s.loadFromCache(ctx, fp.Key, target); hit {
			snapshot, err := s.snapshotter.Snapshot(task.ProjectDir, outputs)
			if err != nil {
				return res, err
			}
			s.record(ctx, task.ID, fp, snapshot, true)
			res.Outcome = domain.OutcomeFromCache
			return res, nil
		}
	}

	if !e.Incremental {
		changes = domain.InputChanges{}
	}
	e.Changes = changes

	if _, err := next(ctx, e); err != nil {
		snapshot, _ := s.snapshotter.Snapshot(task.ProjectDir, outputs)
		s.record(ctx, task.ID, fp, snapshot, false)
		return res, err
	}

	snapshot, err := s.snapshotter.Snapshot(task.ProjectDir, outputs)
	if err != nil {
		s.record(ctx, task.ID, fp, nil, false)
		return res, err
	}
	s.record(ctx, task.ID, fp, snapshot, true)

	if s.cache != nil && task.Cacheable {
		err := s.cache.Store(ctx, fp.Key, target)
		if err != nil {
			s.logger.Warn(fmt.Sprintf("could not store %s in the build cache: %v", task.ID.Path(), err))
		}
		if s.metrics != nil {
			s.metrics.CacheStored(err == nil)
		}
	}

	res.Outcome = domain.OutcomeExecuted
	return res, nil
}

// loadFromCache restores the outputs of key. A failed read removes whatever was partially
// restored so that the actions start from clean output locations.
func (s *CoreExecution) loadFromCache(ctx context.Context, key domain.CacheKey, target ports.CacheOutputs) bool {
	hit, err := s.cache.Load(ctx, key, target)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("could not load %s from the build cache: %v", target.Task, err))
		for _, out := range target.Outputs {
			for _, p := range out.Paths {
				if abs, perr := outputPath(target.Root, p); perr == nil {
					_ = os.RemoveAll(abs)
				}
			}
		}
		hit = false
	}
	if s.metrics != nil {
		s.metrics.CacheLookup(hit)
	}
	return hit
}

func (s *CoreExecution) record(
	ctx context.Context,
	id domain.TaskIdentity,
	fp domain.TaskFingerprint,
	outputs domain.OutputSnapshot,
	success bool,
) {
	entry := domain.HistoryEntry{
		BuildID:        s.buildID,
		CacheKey:       fp.Key,
		Implementation: fp.Implementation,
		Inputs:         fp.Inputs,
		Values:         fp.Values,
		Outputs:        outputs,
		Success:        success,
		RecordedAt:     s.now(),
	}
	if err := s.history.Store(ctx, id, entry); err != nil {
		s.logger.Warn(fmt.Sprintf("could not record execution history of %s: %v", id.Path(), err))
	}
}

// ExecuteActions returns the innermost handler, which runs the actions of the task in
// their declared order and stops at the first failure.
func ExecuteActions(builds domain.BuildInvoker) Handler {
	return func(ctx context.Context, e *Execution) (domain.Result, error) {
		ac := &domain.ActionContext{
			Task:    e.Task,
			Changes: e.Changes,
			Stdout:  e.Stdout,
			Stderr:  e.Stderr,
			Builds:  builds,
		}
		for _, action := range e.Task.Actions {
			if err := action.Run(ctx, ac); err != nil {
				return domain.Result{}, zerr.With(zerr.Wrap(err, domain.ErrActionFailed.Error()), "action", action.Name)
			}
		}
		return domain.Result{Task: e.Task.ID, Outcome: domain.OutcomeExecuted}, nil
	}
}
