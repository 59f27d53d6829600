package domain

// PropertyChanges lists the entries of one input property that changed.
type PropertyChanges struct {
	Added    []string
	Modified []string
	Removed  []string
}

// Empty reports whether nothing changed.
func (c PropertyChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Removed) == 0
}

// InputChanges describes how the inputs of a task changed since its last execution.
type InputChanges struct {
	// Incremental is true when Properties is accurate. When false, every input must be
	// treated as changed.
	Incremental bool
	Properties  map[string]PropertyChanges
}

// For returns the changes of one property.
func (c InputChanges) For(property string) PropertyChanges {
	return c.Properties[property]
}

// RebuildReason explains why a task was not up-to-date.
type RebuildReason string

const (
	// ReasonNone is used for tasks that did not rebuild.
	ReasonNone RebuildReason = ""
	// ReasonNoHistory means the task has no recorded execution.
	ReasonNoHistory RebuildReason = "no history is available"
	// ReasonPreviousFailure means the last execution failed.
	ReasonPreviousFailure RebuildReason = "the previous execution failed"
	// ReasonImplementationChanged means the actions changed.
	ReasonImplementationChanged RebuildReason = "the task implementation changed"
	// ReasonValueChanged means a value input changed.
	ReasonValueChanged RebuildReason = "a value input changed"
	// ReasonInputChanged means a file input changed.
	ReasonInputChanged RebuildReason = "a file input changed"
	// ReasonPropertiesChanged means inputs or outputs were added or removed.
	ReasonPropertiesChanged RebuildReason = "the declared properties changed"
	// ReasonOutputChanged means the outputs were modified since the last execution.
	ReasonOutputChanged RebuildReason = "the outputs changed since the last execution"
	// ReasonRerun means the build forced every task to run.
	ReasonRerun RebuildReason = "tasks were forced to rerun"
)
