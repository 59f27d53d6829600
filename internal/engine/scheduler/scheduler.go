// Package scheduler orders task execution over the task graph.
package scheduler

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/lease"
	"go.trai.ch/zerr"
)

// Executor runs one task through the execution pipeline.
type Executor interface {
	Execute(ctx context.Context, task *domain.Task) domain.Result
}

// Options configure one build.
type Options struct {
	// Executor runs the dispatched tasks.
	Executor Executor
	// Leases bounds the number of tasks executing at once.
	Leases *lease.Service
	// FailFast stops dispatching new tasks after the first failure.
	FailFast bool
	// Now is used for the build report. It defaults to time.Now.
	Now func() time.Time
}

// Scheduler manages the execution of tasks in the dependency graph.
// The scheduler is the only writer of task states.
type Scheduler struct {
	tracer ports.Tracer

	mu         sync.RWMutex
	taskStates map[domain.TaskIdentity]domain.TaskState
}

// NewScheduler creates a new Scheduler.
func NewScheduler(tracer ports.Tracer) *Scheduler {
	return &Scheduler{
		tracer:     tracer,
		taskStates: make(map[domain.TaskIdentity]domain.TaskState),
	}
}

// initTaskStates sets the planned tasks to PENDING.
func (s *Scheduler) initTaskStates(tasks []domain.TaskIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range tasks {
		s.taskStates[id] = domain.StatePending
	}
}

// updateState updates the state of a task.
func (s *Scheduler) updateState(id domain.TaskIdentity, state domain.TaskState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStates[id] = state
}

// Run executes the targets, their dependencies, and their finalizers.
//
// Configuration errors (unknown targets, cycles) are returned before any task starts.
// Otherwise every planned task reaches a terminal state and is listed in the report. The
// returned error is the aggregate failure report joined with the cancellation cause, or
// nil when the build succeeded.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *domain.Graph,
	targets []domain.TaskIdentity,
	opts Options,
) (*domain.BuildReport, error) {
	if len(targets) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	p, err := newPlan(graph, targets)
	if err != nil {
		return nil, err
	}

	planned := make([]string, 0, len(p.order))
	depMap := make(map[string][]string, len(p.order))
	for _, id := range p.order {
		planned = append(planned, id.Path())
		deps := make([]string, len(p.preds[id]))
		for i, dep := range p.preds[id] {
			deps[i] = dep.Path()
		}
		depMap[id.Path()] = deps
	}
	targetPaths := make([]string, len(targets))
	for i, t := range targets {
		targetPaths[i] = t.Path()
	}
	s.tracer.EmitPlan(ctx, planned, depMap, targetPaths)

	s.initTaskStates(p.order)

	state := newRunState(ctx, s, graph, p, opts)
	state.runExecutionLoop()

	report := state.report
	report.Duration = opts.Now().Sub(report.Started)
	return report, errors.Join(report.Err(), ctx.Err())
}

type runState struct {
	s      *Scheduler
	graph  *domain.Graph
	plan   *plan
	opts   Options
	report *domain.BuildReport

	ctx          context.Context
	dispatchCtx  context.Context
	stopDispatch context.CancelFunc
	inDegree     map[domain.TaskIdentity]int
	ready        []domain.TaskIdentity
	active       int
	resultsCh    chan domain.Result
	outcomes     map[domain.TaskIdentity]domain.Outcome
	blocked      map[domain.TaskIdentity]bool
}

func newRunState(ctx context.Context, s *Scheduler, graph *domain.Graph, p *plan, opts Options) *runState {
	dispatchCtx, stop := context.WithCancel(ctx)
	state := &runState{
		s:            s,
		graph:        graph,
		plan:         p,
		opts:         opts,
		report:       domain.NewBuildReport(opts.Now()),
		ctx:          ctx,
		dispatchCtx:  dispatchCtx,
		stopDispatch: stop,
		inDegree:     make(map[domain.TaskIdentity]int, len(p.order)),
		resultsCh:    make(chan domain.Result, len(p.order)),
		outcomes:     make(map[domain.TaskIdentity]domain.Outcome, len(p.order)),
		blocked:      make(map[domain.TaskIdentity]bool),
	}
	for _, id := range p.order {
		state.inDegree[id] = len(p.preds[id])
		if state.inDegree[id] == 0 {
			state.ready = append(state.ready, id)
		}
	}
	return state
}

func (state *runState) runExecutionLoop() {
	defer state.stopDispatch()
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		res := <-state.resultsCh
		state.active--
		state.handleResult(res)
	}
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

// schedule resolves every ready task, either immediately as skipped or by dispatching it.
func (state *runState) schedule() {
	for len(state.ready) > 0 {
		id := state.ready[0]
		state.ready = state.ready[1:]

		if res, skip := state.skipBeforeDispatch(id); skip {
			state.handleResult(res)
			continue
		}

		state.active++
		task, _ := state.graph.GetTask(id)
		go state.executeTask(task)
	}
}

func (state *runState) skipBeforeDispatch(id domain.TaskIdentity) (domain.Result, bool) {
	if state.dispatchCtx.Err() != nil {
		return domain.Skipped(id, domain.SkipCancelled), true
	}

	task, _ := state.graph.GetTask(id)
	for _, dep := range task.Edges.Hard {
		if state.blocked[dep] {
			return domain.Skipped(id, domain.SkipDependencyFailed), true
		}
	}

	if gate, ok := state.plan.gates[id]; ok && !state.anyDidWork(gate) {
		return domain.Skipped(id, domain.SkipFinalizedDidNoWork), true
	}
	return domain.Result{}, false
}

func (state *runState) anyDidWork(ids []domain.TaskIdentity) bool {
	for _, id := range ids {
		if outcome, ok := state.outcomes[id]; ok && outcome.DidWork() {
			return true
		}
	}
	return false
}

// executeTask waits for a worker lease and runs the task. Tasks that are still waiting
// when dispatch stops are skipped as cancelled. A task that started runs to completion.
func (state *runState) executeTask(task *domain.Task) {
	l, err := state.opts.Leases.StartWorker(state.dispatchCtx)
	if err != nil {
		state.resultsCh <- domain.Skipped(task.ID, domain.SkipCancelled)
		return
	}
	defer l.Finish()

	if state.dispatchCtx.Err() != nil {
		state.resultsCh <- domain.Skipped(task.ID, domain.SkipCancelled)
		return
	}

	state.s.updateState(task.ID, domain.StateExecuting)
	ctx := lease.WithLease(context.WithoutCancel(state.ctx), l)
	res := state.opts.Executor.Execute(ctx, task)
	res.Task = task.ID
	if res.Outcome == domain.OutcomeFailed && state.opts.FailFast {
		// Stop before the lease is returned so no waiting task starts.
		state.stopDispatch()
	}
	state.resultsCh <- res
}

func (state *runState) handleResult(res domain.Result) {
	if res.Outcome == domain.OutcomeFailed && res.Err == nil {
		res.Err = zerr.With(domain.ErrTaskExecutionFailed, "task", res.Task.Path())
	}

	state.s.updateState(res.Task, res.Outcome.State())
	state.outcomes[res.Task] = res.Outcome
	state.report.Add(res)

	if res.Outcome == domain.OutcomeFailed || res.SkipReason == domain.SkipDependencyFailed {
		state.blocked[res.Task] = true
	}
	if res.Outcome == domain.OutcomeFailed && state.opts.FailFast {
		state.stopDispatch()
	}

	for _, dep := range state.plan.succs[res.Task] {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}

// plan is the closure of tasks a build runs and the ordering edges between them.
type plan struct {
	order []domain.TaskIdentity
	preds map[domain.TaskIdentity][]domain.TaskIdentity
	succs map[domain.TaskIdentity][]domain.TaskIdentity
	// gates maps tasks that are only planned for a finalizer to the finalized tasks
	// they wait for. Such a task runs only when one of them did work.
	gates map[domain.TaskIdentity][]domain.TaskIdentity
}

// newPlan collects the targets and their hard dependencies. Finalizers of collected tasks
// and their hard dependencies join the plan too, but a finalizer that is only planned
// because it finalizes another task runs only when one of those tasks did work. The same
// holds for the hard dependencies that only that finalizer needs.
// Should-run-after edges are kept where they do not create a cycle.
func newPlan(graph *domain.Graph, targets []domain.TaskIdentity) (*plan, error) {
	for _, t := range targets {
		if _, ok := graph.GetTask(t); !ok {
			return nil, zerr.With(domain.ErrTaskNotFound, "task", t.Path())
		}
	}

	required := closure(graph, targets, false)
	all := closure(graph, targets, true)

	p := &plan{
		preds: make(map[domain.TaskIdentity][]domain.TaskIdentity, len(all)),
		succs: make(map[domain.TaskIdentity][]domain.TaskIdentity, len(all)),
		gates: make(map[domain.TaskIdentity][]domain.TaskIdentity),
	}
	for task := range graph.Walk() {
		if all[task.ID] {
			p.order = append(p.order, task.ID)
		}
	}

	for _, id := range p.order {
		for _, pred := range graph.StrictPredecessors(id) {
			if all[pred] {
				p.addEdge(pred, id)
			}
		}
	}
	p.addGates(graph, required, all)

	for _, id := range p.order {
		task, _ := graph.GetTask(id)
		soft := slices.Clone(task.Edges.ShouldRunAfter)
		slices.SortFunc(soft, domain.TaskIdentity.Compare)
		for _, pred := range soft {
			if !all[pred] || slices.Contains(p.preds[id], pred) || p.reaches(id, pred) {
				continue
			}
			p.addEdge(pred, id)
		}
	}
	return p, nil
}

// addGates gates every finalizer that is not required, together with its hard
// dependencies that are not required either, on the planned tasks it finalizes. A gated
// task is ordered after those tasks. A finalized task that depends on the gated task
// cannot be waited for and is dropped from its gate.
func (p *plan) addGates(graph *domain.Graph, required, all map[domain.TaskIdentity]bool) {
	for _, id := range p.order {
		if required[id] {
			continue
		}
		var finalized []domain.TaskIdentity
		for _, t := range graph.Finalizes(id) {
			if all[t] {
				finalized = append(finalized, t)
			}
		}
		if len(finalized) == 0 {
			continue
		}
		for member := range closure(graph, []domain.TaskIdentity{id}, false) {
			if !required[member] {
				p.gates[member] = append(p.gates[member], finalized...)
			}
		}
	}

	for _, id := range p.order {
		gate, ok := p.gates[id]
		if !ok {
			continue
		}
		slices.SortFunc(gate, domain.TaskIdentity.Compare)
		gate = slices.Compact(gate)
		kept := gate[:0]
		for _, t := range gate {
			if t == id || p.reaches(id, t) {
				continue
			}
			if !slices.Contains(p.preds[id], t) {
				p.addEdge(t, id)
			}
			kept = append(kept, t)
		}
		if len(kept) == 0 {
			delete(p.gates, id)
			continue
		}
		p.gates[id] = kept
	}
}

func (p *plan) addEdge(pred, succ domain.TaskIdentity) {
	p.preds[succ] = append(p.preds[succ], pred)
	p.succs[pred] = append(p.succs[pred], succ)
}

// reaches reports whether to is reachable from from along successor edges, which would
// make an edge to -> from a cycle.
func (p *plan) reaches(from, to domain.TaskIdentity) bool {
	seen := map[domain.TaskIdentity]bool{from: true}
	stack := []domain.TaskIdentity{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == to {
			return true
		}
		for _, next := range p.succs[cur] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// closure collects the start tasks and their hard dependencies, and with finalizers set,
// the finalizers of every collected task.
func closure(graph *domain.Graph, start []domain.TaskIdentity, finalizers bool) map[domain.TaskIdentity]bool {
	visited := make(map[domain.TaskIdentity]bool)
	queue := slices.Clone(start)
	for _, t := range start {
		visited[t] = true
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		task, _ := graph.GetTask(current)
		next := task.Edges.Hard
		if finalizers {
			next = append(slices.Clone(next), task.Edges.FinalizedBy...)
		}
		for _, dep := range next {
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return visited
}
