package domain

import "slices"

// Edges are the relationships of a task to other tasks.
type Edges struct {
	// Hard dependencies must reach a terminal state first and are pulled into the build.
	Hard []TaskIdentity
	// MustRunAfter orders the task after others when both are scheduled.
	MustRunAfter []TaskIdentity
	// ShouldRunAfter orders the task after others unless that would create a cycle.
	ShouldRunAfter []TaskIdentity
	// FinalizedBy tasks run after this task whenever it runs.
	FinalizedBy []TaskIdentity
}

// Task represents a unit of work in the build system.
type Task struct {
	ID      TaskIdentity
	Actions []Action
	Edges   Edges

	// Enabled is false for tasks that are skipped without running.
	Enabled bool
	// Incremental tasks receive input changes instead of treating every input as changed.
	Incremental bool
	// Cacheable tasks may be loaded from and stored in the build cache.
	Cacheable bool

	// ProjectDir is the absolute directory relative paths of the task resolve against.
	ProjectDir string
	// Resources lists shared resources locked around the core execution of the task.
	Resources []string

	Properties *Properties
}

// NewTask creates an enabled, cacheable task with no actions.
func NewTask(id TaskIdentity, projectDir string) *Task {
	return &Task{
		ID:         id,
		Enabled:    true,
		Cacheable:  true,
		ProjectDir: projectDir,
		Properties: NewProperties(),
	}
}

// DependsOn adds hard dependencies.
func (t *Task) DependsOn(ids ...TaskIdentity) *Task {
	t.Edges.Hard = appendUnique(t.Edges.Hard, ids...)
	return t
}

// MustRunAfter adds strict ordering edges.
func (t *Task) MustRunAfter(ids ...TaskIdentity) *Task {
	t.Edges.MustRunAfter = appendUnique(t.Edges.MustRunAfter, ids...)
	return t
}

// ShouldRunAfter adds soft ordering edges.
func (t *Task) ShouldRunAfter(ids ...TaskIdentity) *Task {
	t.Edges.ShouldRunAfter = appendUnique(t.Edges.ShouldRunAfter, ids...)
	return t
}

// FinalizedBy adds finalizer tasks.
func (t *Task) FinalizedBy(ids ...TaskIdentity) *Task {
	t.Edges.FinalizedBy = appendUnique(t.Edges.FinalizedBy, ids...)
	return t
}

// DoFirst prepends an action.
func (t *Task) DoFirst(a Action) *Task {
	t.Actions = slices.Insert(t.Actions, 0, a)
	return t
}

// DoLast appends an action.
func (t *Task) DoLast(a Action) *Task {
	t.Actions = append(t.Actions, a)
	return t
}

// RequireResource declares shared resources the task locks while it executes.
func (t *Task) RequireResource(names ...string) *Task {
	for _, n := range names {
		if !slices.Contains(t.Resources, n) {
			t.Resources = append(t.Resources, n)
		}
	}
	return t
}

// ImplementationHash combines the implementation hashes of the actions in order.
func (t *Task) ImplementationHash() ImplementationHash {
	d := NewDigest().Text("task")
	for _, a := range t.Actions {
		d.Text(a.Name).Text(string(a.Implementation))
	}
	return ImplementationHash(d.Hex())
}

func appendUnique(dst []TaskIdentity, ids ...TaskIdentity) []TaskIdentity {
	for _, id := range ids {
		if !slices.Contains(dst, id) {
			dst = append(dst, id)
		}
	}
	return dst
}
