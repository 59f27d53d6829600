package domain

import (
	"context"
	"io"
)

// ImplementationHash identifies the executable logic of an action.
// It is a lowercase hex BLAKE3-256 digest computed when the action is constructed.
type ImplementationHash string

// NewImplementationHash hashes the kind of an action, its code, and the lineage it was
// defined in. Changing any of them changes the hash.
func NewImplementationHash(kind string, code []byte, lineage ...string) ImplementationHash {
	d := NewDigest().Text(kind).Field(code)
	for _, l := range lineage {
		d.Text(l)
	}
	return ImplementationHash(d.Hex())
}

// BuildInvoker runs a nested build on behalf of an action.
type BuildInvoker interface {
	// InvokeBuild runs the targets of the build file at path.
	InvokeBuild(ctx context.Context, path string, targets []string) error
}

// ActionContext is what an action receives when invoked.
type ActionContext struct {
	Task *Task

	// Changes describes the input changes since the last recorded execution.
	// Changes.Incremental is false when every input must be treated as significant.
	Changes InputChanges

	Stdout io.Writer
	Stderr io.Writer

	// Builds runs nested builds. It is nil when nested builds are unavailable.
	Builds BuildInvoker
}

// ActionFunc is the executable logic of an action.
type ActionFunc func(ctx context.Context, ac *ActionContext) error

// Action is one step of a task.
type Action struct {
	Name           string
	Implementation ImplementationHash
	Run            ActionFunc
}

// NewAction creates an action with an explicit implementation identity.
func NewAction(name string, impl ImplementationHash, fn ActionFunc) Action {
	return Action{Name: name, Implementation: impl, Run: fn}
}
