// Package domain contains the core domain models and business logic for the task graph.
package domain

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// CycleError reports a cycle in the task graph as an ordered list of tasks.
// The first task is repeated at the end: a -> b -> a.
type CycleError struct {
	Path []TaskIdentity
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.Path()
	}
	return ErrCycleDetected.Error() + ": " + strings.Join(parts, " -> ")
}

// Unwrap returns ErrCycleDetected.
func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// Graph represents a dependency graph of tasks.
type Graph struct {
	tasks          map[TaskIdentity]*Task
	executionOrder []TaskIdentity
	dependents     map[TaskIdentity][]TaskIdentity
	finalizes      map[TaskIdentity][]TaskIdentity
	root           string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks: make(map[TaskIdentity]*Task),
	}
}

// SetRoot sets the root directory of the build.
func (g *Graph) SetRoot(root string) {
	g.root = root
}

// Root returns the root directory of the build.
func (g *Graph) Root() string {
	return g.root
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same identity already exists.
func (g *Graph) AddTask(t *Task) error {
	if _, exists := g.tasks[t.ID]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task", t.ID.Path())
	}
	if t.Properties == nil {
		t.Properties = NewProperties()
	}
	g.tasks[t.ID] = t
	g.executionOrder = nil
	return nil
}

// GetTask returns the task with the given identity.
func (g *Graph) GetTask(id TaskIdentity) (*Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// TaskCount returns the number of tasks in the graph.
func (g *Graph) TaskCount() int {
	return len(g.tasks)
}

// Identities returns every task identity in sorted order.
func (g *Graph) Identities() []TaskIdentity {
	return slices.SortedFunc(maps.Keys(g.tasks), TaskIdentity.Compare)
}

// Validate checks every edge for unknown tasks and rejects cycles formed by hard
// dependencies, must-run-after edges, and finalizer edges.
// It populates the execution order used by Walk if successful.
func (g *Graph) Validate() error {
	g.dependents = make(map[TaskIdentity][]TaskIdentity, len(g.tasks))
	g.finalizes = make(map[TaskIdentity][]TaskIdentity)

	ids := g.Identities()
	for _, id := range ids {
		t := g.tasks[id]
		for _, edges := range [][]TaskIdentity{t.Edges.Hard, t.Edges.MustRunAfter, t.Edges.ShouldRunAfter, t.Edges.FinalizedBy} {
			for _, dep := range edges {
				if _, ok := g.tasks[dep]; !ok {
					return zerr.With(zerr.With(ErrMissingDependency, "dependency", dep.Path()), "task", id.Path())
				}
			}
		}
		for _, dep := range t.Edges.Hard {
			g.dependents[dep] = append(g.dependents[dep], id)
		}
		for _, fin := range t.Edges.FinalizedBy {
			g.finalizes[fin] = append(g.finalizes[fin], id)
		}
	}

	order := make([]TaskIdentity, 0, len(g.tasks))
	visited := make(map[TaskIdentity]int, len(g.tasks)) // 0: unvisited, 1: visiting, 2: visited
	var path []TaskIdentity

	var visit func(u TaskIdentity) error
	visit = func(u TaskIdentity) error {
		visited[u] = 1
		path = append(path, u)

		for _, dep := range g.StrictPredecessors(u) {
			if visited[dep] == 1 {
				return buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		order = append(order, u)
		return nil
	}

	for _, id := range ids {
		if visited[id] == 0 {
			if err := visit(id); err != nil {
				return err
			}
		}
	}

	g.executionOrder = order
	return nil
}

// StrictPredecessors returns the tasks that must finish before id may start when both are
// scheduled: hard dependencies, must-run-after tasks, and the tasks id finalizes.
// The result is sorted and free of duplicates.
func (g *Graph) StrictPredecessors(id TaskIdentity) []TaskIdentity {
	t, ok := g.tasks[id]
	if !ok {
		return nil
	}
	preds := make([]TaskIdentity, 0, len(t.Edges.Hard)+len(t.Edges.MustRunAfter))
	preds = appendUnique(preds, t.Edges.Hard...)
	preds = appendUnique(preds, t.Edges.MustRunAfter...)
	preds = appendUnique(preds, g.finalizes[id]...)
	slices.SortFunc(preds, TaskIdentity.Compare)
	return preds
}

// Dependents returns the tasks that have id as a hard dependency.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Dependents(id TaskIdentity) []TaskIdentity {
	return g.dependents[id]
}

// Finalizes returns the tasks that id is a finalizer of.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Finalizes(id TaskIdentity) []TaskIdentity {
	return g.finalizes[id]
}

// buildCycleError constructs a CycleError from the DFS path and the repeated task.
func buildCycleError(path []TaskIdentity, dep TaskIdentity) error {
	startIdx := slices.Index(path, dep)
	cycle := make([]TaskIdentity, 0, len(path)-startIdx+1)
	cycle = append(cycle, path[startIdx:]...)
	cycle = append(cycle, dep)
	return &CycleError{Path: cycle}
}

// Walk returns an iterator that yields tasks in execution order.
// It assumes Validate() has been called and returned nil.
func (g *Graph) Walk() iter.Seq[*Task] {
	return func(yield func(*Task) bool) {
		for _, id := range g.executionOrder {
			if !yield(g.tasks[id]) {
				return
			}
		}
	}
}
