package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

const (
	// PathSeparator separates build, project, and task segments of a task path.
	PathSeparator = ":"

	// RootProject is the project path of the root project of a build.
	RootProject = ":"

	keySeparator = "|"
)

// TaskIdentity uniquely identifies a task across the whole build tree.
// Equality is by the (build, project, name) tuple, never by task content.
type TaskIdentity struct {
	Build   InternedString
	Project InternedString
	Name    InternedString
}

// NewTaskIdentity creates a TaskIdentity.
// An empty build denotes the root build and an empty project denotes the root project.
func NewTaskIdentity(build, project, name string) TaskIdentity {
	if project == "" {
		project = RootProject
	}
	return TaskIdentity{
		Build:   NewInternedString(build),
		Project: NewInternedString(project),
		Name:    NewInternedString(name),
	}
}

// ParseTaskPath resolves a task reference inside a build.
// A reference starting with ":" is absolute within the build (":app:compile", ":test").
// Any other reference is relative to the given project.
func ParseTaskPath(build, project, ref string) (TaskIdentity, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasSuffix(ref, PathSeparator) || strings.Contains(ref, PathSeparator+PathSeparator) {
		return TaskIdentity{}, zerr.With(ErrInvalidTaskPath, "path", ref)
	}

	if !strings.HasPrefix(ref, PathSeparator) {
		if strings.Contains(ref, PathSeparator) {
			return TaskIdentity{}, zerr.With(ErrInvalidTaskPath, "path", ref)
		}
		return NewTaskIdentity(build, project, ref), nil
	}

	idx := strings.LastIndex(ref, PathSeparator)
	projectPath := ref[:idx]
	if projectPath == "" {
		projectPath = RootProject
	}
	return NewTaskIdentity(build, projectPath, ref[idx+1:]), nil
}

// Path returns the display path of the task, for example ":app:compile".
// Tasks of a nested build are prefixed with the build path (":included:app:compile").
func (id TaskIdentity) Path() string {
	var b strings.Builder
	b.WriteString(id.Build.String())
	project := id.Project.String()
	if project != RootProject {
		b.WriteString(project)
	}
	b.WriteString(PathSeparator)
	b.WriteString(id.Name.String())
	return b.String()
}

// Key returns the stable storage form of the identity.
func (id TaskIdentity) Key() string {
	return id.Build.String() + keySeparator + id.Project.String() + keySeparator + id.Name.String()
}

// String implements fmt.Stringer.
func (id TaskIdentity) String() string {
	return id.Path()
}

// IsZero reports whether the identity is unset.
func (id TaskIdentity) IsZero() bool {
	return id.Name.IsZero()
}

// Compare orders identities by build, then project, then name.
func (id TaskIdentity) Compare(other TaskIdentity) int {
	if c := id.Build.Compare(other.Build); c != 0 {
		return c
	}
	if c := id.Project.Compare(other.Project); c != 0 {
		return c
	}
	return id.Name.Compare(other.Name)
}
