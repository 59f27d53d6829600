package scheduler_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/lease"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

// fakeExecutor records the order in which tasks start and finish.
type fakeExecutor struct {
	mu     sync.Mutex
	events []string
	run    func(ctx context.Context, task *domain.Task) domain.Result
}

func (f *fakeExecutor) Execute(ctx context.Context, task *domain.Task) domain.Result {
	f.record("start " + task.ID.Name.String())
	res := domain.Result{Task: task.ID, Outcome: domain.OutcomeExecuted}
	if f.run != nil {
		res = f.run(ctx, task)
	}
	f.record("end " + task.ID.Name.String())
	return res
}

func (f *fakeExecutor) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeExecutor) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.events)
}

// before reports whether event a was recorded before event b.
func (f *fakeExecutor) before(a, b string) bool {
	log := f.log()
	ia, ib := slices.Index(log, a), slices.Index(log, b)
	return ia >= 0 && ib >= 0 && ia < ib
}

func id(name string) domain.TaskIdentity {
	return domain.NewTaskIdentity("", ":", name)
}

func ids(names ...string) []domain.TaskIdentity {
	out := make([]domain.TaskIdentity, len(names))
	for i, n := range names {
		out[i] = id(n)
	}
	return out
}

func noop(context.Context, *domain.ActionContext) error { return nil }

// createGraphHelper constructs a graph from a simple map of hard dependencies.
// deps format: "target" -> ["dep1", "dep2"].
// configure may add further edges before the graph is validated.
func createGraphHelper(t *testing.T, deps map[string][]string, configure func(tasks map[string]*domain.Task)) *domain.Graph {
	t.Helper()
	tasks := make(map[string]*domain.Task)
	get := func(name string) *domain.Task {
		if task, ok := tasks[name]; ok {
			return task
		}
		task := domain.NewTask(id(name), "/tmp/root").DoLast(domain.NewAction("run", "impl", noop))
		tasks[name] = task
		return task
	}
	for name, myDeps := range deps {
		task := get(name)
		for _, d := range myDeps {
			get(d)
			task.DependsOn(id(d))
		}
	}
	if configure != nil {
		configure(tasks)
	}

	g := domain.NewGraph()
	g.SetRoot("/tmp/root")
	for _, task := range tasks {
		require.NoError(t, g.AddTask(task))
	}
	return g
}

func newScheduler(t *testing.T) *scheduler.Scheduler {
	t.Helper()
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, mocks.NewMockSpan(ctrl)
		},
	).AnyTimes()
	return scheduler.NewScheduler(tracer)
}

func options(exec scheduler.Executor, maxWorkers int) scheduler.Options {
	return scheduler.Options{Executor: exec, Leases: lease.NewService(maxWorkers, nil)}
}

func TestScheduler_DiamondDependency(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		// Graph: A -> B, A -> C, B -> D, C -> D
		// Execution Order should be: D -> (B, C parallel) -> A.
		g := createGraphHelper(t, map[string][]string{
			"A": {"B", "C"},
			"B": {"D"},
			"C": {"D"},
		}, nil)
		s := newScheduler(t)
		exec := &fakeExecutor{}

		report, err := s.Run(context.Background(), g, ids("A"), options(exec, 4))
		require.NoError(t, err)

		assert.Len(t, exec.log(), 8)
		assert.True(t, exec.before("end D", "start B"))
		assert.True(t, exec.before("end D", "start C"))
		assert.True(t, exec.before("end B", "start A"))
		assert.True(t, exec.before("end C", "start A"))
		assert.Equal(t, 4, report.Counts()[domain.OutcomeExecuted])

		for task, state := range s.GetTaskStateMap() {
			assert.Equal(t, domain.StateExecuted, state, task.Path())
		}
	})
}

func TestScheduler_FailureIsolation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		// Graph: A -> B, C independent. B fails, A is blocked, C still runs.
		g := createGraphHelper(t, map[string][]string{"A": {"B"}, "C": {}}, nil)
		s := newScheduler(t)
		boom := errors.New("boom")
		exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
			if task.ID == id("B") {
				return domain.Failed(task.ID, boom)
			}
			return domain.Result{Task: task.ID, Outcome: domain.OutcomeExecuted}
		}}

		report, err := s.Run(context.Background(), g, ids("A", "C"), options(exec, 4))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrBuildExecutionFailed)
		assert.ErrorIs(t, err, boom)

		var failure *domain.BuildFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, []string{":B"}, failure.Paths())

		a, _ := report.Get(id("A"))
		assert.Equal(t, domain.OutcomeSkipped, a.Outcome)
		assert.Equal(t, domain.SkipDependencyFailed, a.SkipReason)
		c, _ := report.Get(id("C"))
		assert.Equal(t, domain.OutcomeExecuted, c.Outcome)
		assert.NotContains(t, exec.log(), "start A")

		states := s.GetTaskStateMap()
		assert.Equal(t, domain.StateFailed, states[id("B")])
		assert.Equal(t, domain.StateSkipped, states[id("A")])
		assert.Equal(t, domain.StateExecuted, states[id("C")])
	})
}

func TestScheduler_BlockedTransitively(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"A": {"B"}, "B": {"C"}}, nil)
		s := newScheduler(t)
		exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
			return domain.Failed(task.ID, errors.New("broken"))
		}}

		report, err := s.Run(context.Background(), g, ids("A"), options(exec, 1))
		require.Error(t, err)

		a, _ := report.Get(id("A"))
		assert.Equal(t, domain.SkipDependencyFailed, a.SkipReason)
		assert.Len(t, report.Failed(), 1)
	})
}

func TestScheduler_SkippedDependencyDoesNotBlock(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"A": {"B"}}, nil)
		s := newScheduler(t)
		exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
			if task.ID == id("B") {
				return domain.Skipped(task.ID, domain.SkipNoActions)
			}
			return domain.Result{Task: task.ID, Outcome: domain.OutcomeExecuted}
		}}

		report, err := s.Run(context.Background(), g, ids("A"), options(exec, 1))
		require.NoError(t, err)
		a, _ := report.Get(id("A"))
		assert.Equal(t, domain.OutcomeExecuted, a.Outcome)
	})
}

func TestScheduler_Cancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		// Graph: B -> A. A is running when the build is cancelled.
		g := createGraphHelper(t, map[string][]string{"B": {"A"}}, nil)
		s := newScheduler(t)
		started := make(chan struct{})
		exec := &fakeExecutor{run: func(ctx context.Context, task *domain.Task) domain.Result {
			close(started)
			time.Sleep(time.Minute)
			// Running tasks are not interrupted.
			assert.NoError(t, ctx.Err())
			return domain.Result{Task: task.ID, Outcome: domain.OutcomeExecuted}
		}}

		ctx, cancel := context.WithCancel(context.Background())
		type outcome struct {
			report *domain.BuildReport
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			report, err := s.Run(ctx, g, ids("B"), options(exec, 2))
			done <- outcome{report, err}
		}()

		<-started
		cancel()
		res := <-done

		require.ErrorIs(t, res.err, context.Canceled)
		a, _ := res.report.Get(id("A"))
		assert.Equal(t, domain.OutcomeExecuted, a.Outcome)
		b, _ := res.report.Get(id("B"))
		assert.Equal(t, domain.OutcomeSkipped, b.Outcome)
		assert.Equal(t, domain.SkipCancelled, b.SkipReason)
		assert.NotContains(t, exec.log(), "start B")
	})
}

func TestScheduler_CancelledBeforeStart(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"A": {}, "B": {}}, nil)
		s := newScheduler(t)
		exec := &fakeExecutor{}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		report, err := s.Run(ctx, g, ids("A", "B"), options(exec, 2))

		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, exec.log())
		assert.Equal(t, 2, report.Counts()[domain.OutcomeSkipped])
	})
}

func TestScheduler_LeaseBound(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		deps := make(map[string][]string)
		var targets []string
		for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
			deps[name] = nil
			targets = append(targets, name)
		}
		g := createGraphHelper(t, deps, nil)
		s := newScheduler(t)

		var current, peak atomic.Int32
		exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Second)
			current.Add(-1)
			return domain.Result{Task: task.ID, Outcome: domain.OutcomeExecuted}
		}}

		opts := options(exec, 3)
		report, err := s.Run(context.Background(), g, ids(targets...), opts)
		require.NoError(t, err)

		assert.Equal(t, int32(3), peak.Load())
		assert.Equal(t, 3, opts.Leases.Peak())
		assert.Equal(t, 0, opts.Leases.Active())
		assert.Equal(t, 10, report.Counts()[domain.OutcomeExecuted])
	})
}

func TestScheduler_FailFast(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"A": {}, "B": {}, "C": {}}, nil)
		s := newScheduler(t)
		exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
			time.Sleep(time.Second)
			return domain.Failed(task.ID, errors.New("boom"))
		}}

		opts := options(exec, 1)
		opts.FailFast = true
		report, err := s.Run(context.Background(), g, ids("A", "B", "C"), opts)
		require.Error(t, err)

		assert.Len(t, report.Failed(), 1)
		assert.Equal(t, 2, report.Counts()[domain.OutcomeSkipped])
		for _, res := range report.Results() {
			if res.Outcome == domain.OutcomeSkipped {
				assert.Equal(t, domain.SkipCancelled, res.SkipReason)
			}
		}
	})
}

func TestScheduler_Finalizers(t *testing.T) {
	finalized := func(tasks map[string]*domain.Task) {
		tasks["report"] = domain.NewTask(id("report"), "/tmp/root").DoLast(domain.NewAction("run", "impl", noop))
		tasks["test"].FinalizedBy(id("report"))
	}

	t.Run("runs after the finalized task did work", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"test": {}}, finalized)
			exec := &fakeExecutor{}

			report, err := newScheduler(t).Run(context.Background(), g, ids("test"), options(exec, 2))
			require.NoError(t, err)

			assert.True(t, exec.before("end test", "start report"))
			res, _ := report.Get(id("report"))
			assert.Equal(t, domain.OutcomeExecuted, res.Outcome)
		})
	})

	t.Run("runs after the finalized task failed", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"test": {}}, finalized)
			exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
				if task.ID == id("test") {
					return domain.Failed(task.ID, errors.New("tests failed"))
				}
				return domain.Result{Task: task.ID, Outcome: domain.OutcomeExecuted}
			}}

			report, err := newScheduler(t).Run(context.Background(), g, ids("test"), options(exec, 2))
			require.Error(t, err)
			res, _ := report.Get(id("report"))
			assert.Equal(t, domain.OutcomeExecuted, res.Outcome)
		})
	})

	t.Run("skipped when the finalized task was up to date", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"test": {}}, finalized)
			exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
				return domain.Result{Task: task.ID, Outcome: domain.OutcomeUpToDate}
			}}

			report, err := newScheduler(t).Run(context.Background(), g, ids("test"), options(exec, 2))
			require.NoError(t, err)
			res, _ := report.Get(id("report"))
			assert.Equal(t, domain.OutcomeSkipped, res.Outcome)
			assert.Equal(t, domain.SkipFinalizedDidNoWork, res.SkipReason)
			assert.NotContains(t, exec.log(), "start report")
		})
	})

	t.Run("requested finalizers always run", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"test": {}}, finalized)
			exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
				return domain.Result{Task: task.ID, Outcome: domain.OutcomeUpToDate}
			}}

			_, err := newScheduler(t).Run(context.Background(), g, ids("test", "report"), options(exec, 2))
			require.NoError(t, err)
			assert.True(t, exec.before("end test", "start report"))
		})
	})
}

func TestScheduler_FinalizerDependencies(t *testing.T) {
	withCollect := func(tasks map[string]*domain.Task) {
		tasks["collect"] = domain.NewTask(id("collect"), "/tmp/root").DoLast(domain.NewAction("run", "impl", noop))
		tasks["report"] = domain.NewTask(id("report"), "/tmp/root").
			DependsOn(id("collect")).
			DoLast(domain.NewAction("run", "impl", noop))
		tasks["test"].FinalizedBy(id("report"))
	}

	t.Run("skipped with the finalizer", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"test": {}}, withCollect)
			exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
				return domain.Result{Task: task.ID, Outcome: domain.OutcomeUpToDate}
			}}

			report, err := newScheduler(t).Run(context.Background(), g, ids("test"), options(exec, 2))
			require.NoError(t, err)
			for _, name := range []string{"collect", "report"} {
				res, ok := report.Get(id(name))
				require.True(t, ok, name)
				assert.Equal(t, domain.OutcomeSkipped, res.Outcome, name)
				assert.Equal(t, domain.SkipFinalizedDidNoWork, res.SkipReason, name)
			}
			assert.Equal(t, []string{"start test", "end test"}, exec.log())
		})
	})

	t.Run("run after the finalized task did work", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"test": {}}, withCollect)
			exec := &fakeExecutor{}

			report, err := newScheduler(t).Run(context.Background(), g, ids("test"), options(exec, 2))
			require.NoError(t, err)
			assert.True(t, exec.before("end test", "start collect"))
			assert.True(t, exec.before("end collect", "start report"))
			res, _ := report.Get(id("collect"))
			assert.Equal(t, domain.OutcomeExecuted, res.Outcome)
		})
	})

	t.Run("required dependencies are not gated", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"test": {"collect"}}, withCollect)
			exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
				return domain.Result{Task: task.ID, Outcome: domain.OutcomeUpToDate}
			}}

			report, err := newScheduler(t).Run(context.Background(), g, ids("test"), options(exec, 2))
			require.NoError(t, err)
			res, _ := report.Get(id("collect"))
			assert.Equal(t, domain.OutcomeUpToDate, res.Outcome)
			res, _ = report.Get(id("report"))
			assert.Equal(t, domain.OutcomeSkipped, res.Outcome)
		})
	})
}

func TestScheduler_MustRunAfter(t *testing.T) {
	configure := func(tasks map[string]*domain.Task) {
		tasks["B"].MustRunAfter(id("A"))
	}

	t.Run("orders scheduled tasks", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"A": {}, "B": {}}, configure)
			exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
				time.Sleep(time.Second)
				return domain.Result{Task: task.ID, Outcome: domain.OutcomeExecuted}
			}}

			_, err := newScheduler(t).Run(context.Background(), g, ids("B", "A"), options(exec, 4))
			require.NoError(t, err)
			assert.True(t, exec.before("end A", "start B"))
		})
	})

	t.Run("does not pull tasks into the build", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"A": {}, "B": {}}, configure)
			exec := &fakeExecutor{}

			report, err := newScheduler(t).Run(context.Background(), g, ids("B"), options(exec, 4))
			require.NoError(t, err)
			assert.Equal(t, []string{"start B", "end B"}, exec.log())
			assert.Len(t, report.Results(), 1)
		})
	})

	t.Run("a failed predecessor does not block", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"A": {}, "B": {}}, configure)
			exec := &fakeExecutor{run: func(_ context.Context, task *domain.Task) domain.Result {
				if task.ID == id("A") {
					return domain.Failed(task.ID, errors.New("boom"))
				}
				return domain.Result{Task: task.ID, Outcome: domain.OutcomeExecuted}
			}}

			report, _ := newScheduler(t).Run(context.Background(), g, ids("A", "B"), options(exec, 4))
			b, _ := report.Get(id("B"))
			assert.Equal(t, domain.OutcomeExecuted, b.Outcome)
		})
	})
}

func TestScheduler_ShouldRunAfter(t *testing.T) {
	t.Run("orders scheduled tasks", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			g := createGraphHelper(t, map[string][]string{"A": {}, "B": {}}, func(tasks map[string]*domain.Task) {
				tasks["B"].ShouldRunAfter(id("A"))
			})
			exec := &fakeExecutor{}

			_, err := newScheduler(t).Run(context.Background(), g, ids("B", "A"), options(exec, 4))
			require.NoError(t, err)
			assert.True(t, exec.before("end A", "start B"))
		})
	})

	t.Run("ignored when it would create a cycle", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			// B depends on A, so "A should run after B" cannot be honored.
			g := createGraphHelper(t, map[string][]string{"B": {"A"}}, func(tasks map[string]*domain.Task) {
				tasks["A"].ShouldRunAfter(id("B"))
			})
			exec := &fakeExecutor{}

			report, err := newScheduler(t).Run(context.Background(), g, ids("B"), options(exec, 4))
			require.NoError(t, err)
			assert.True(t, exec.before("end A", "start B"))
			assert.Equal(t, 2, report.Counts()[domain.OutcomeExecuted])
		})
	})
}

func TestScheduler_ConfigurationErrors(t *testing.T) {
	exec := &fakeExecutor{}

	t.Run("cycle", func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"A": {"B"}, "B": {"A"}}, nil)
		_, err := newScheduler(t).Run(context.Background(), g, ids("A"), options(exec, 1))

		var cycle *domain.CycleError
		require.ErrorAs(t, err, &cycle)
		assert.ErrorIs(t, err, domain.ErrCycleDetected)
		assert.ErrorContains(t, err, ":A")
		assert.ErrorContains(t, err, ":B")
	})

	t.Run("unknown target", func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"A": {}}, nil)
		_, err := newScheduler(t).Run(context.Background(), g, ids("missing"), options(exec, 1))
		assert.ErrorContains(t, err, domain.ErrTaskNotFound.Error())
	})

	t.Run("no targets", func(t *testing.T) {
		g := createGraphHelper(t, map[string][]string{"A": {}}, nil)
		_, err := newScheduler(t).Run(context.Background(), g, nil, options(exec, 1))
		assert.ErrorIs(t, err, domain.ErrNoTargetsSpecified)
	})

	assert.Empty(t, exec.log())
}

func TestScheduler_EmitsPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	tracer := mocks.NewMockTracer(ctrl)
	g := createGraphHelper(t, map[string][]string{"A": {"B"}, "C": {}}, nil)

	tracer.EXPECT().EmitPlan(gomock.Any(), []string{":B", ":A"}, map[string][]string{
		":A": {":B"},
		":B": {},
	}, []string{":A"})

	_, err := scheduler.NewScheduler(tracer).Run(context.Background(), g, ids("A"), options(&fakeExecutor{}, 1))
	require.NoError(t, err)
}
