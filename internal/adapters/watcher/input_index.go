package watcher

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unique"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Invalidation is what a batch of changed paths affects.
type Invalidation struct {
	// Tasks whose declared inputs contain a changed path.
	Tasks []domain.TaskIdentity
	// Reload is set when a build file changed and the graph must be loaded again.
	Reload bool
}

// Empty reports whether the change batch affects nothing.
func (i Invalidation) Empty() bool {
	return len(i.Tasks) == 0 && !i.Reload
}

// InputIndex maps input files and directories to the tasks declaring them, so a watch
// loop can tell changes that matter from noise such as editor swap files.
type InputIndex struct {
	resolver ports.InputResolver

	mu          sync.RWMutex
	pathToTasks map[unique.Handle[string]][]domain.TaskIdentity
	buildFiles  map[unique.Handle[string]]struct{}
}

// NewInputIndex creates an empty index.
func NewInputIndex(resolver ports.InputResolver) *InputIndex {
	return &InputIndex{
		resolver:    resolver,
		pathToTasks: make(map[unique.Handle[string]][]domain.TaskIdentity),
		buildFiles:  make(map[unique.Handle[string]]struct{}),
	}
}

// Rebuild replaces the index with the inputs of every task in graph.
func (x *InputIndex) Rebuild(graph *domain.Graph) {
	pathToTasks := make(map[unique.Handle[string]][]domain.TaskIdentity)
	buildFiles := make(map[unique.Handle[string]]struct{})

	buildFiles[unique.Make(filepath.Join(graph.Root(), domain.BuildFileName))] = struct{}{}
	buildFiles[unique.Make(filepath.Join(graph.Root(), domain.SettingsFileName))] = struct{}{}

	for task := range graph.Walk() {
		buildFiles[unique.Make(filepath.Join(task.ProjectDir, domain.BuildFileName))] = struct{}{}

		for _, in := range task.Properties.InputFiles() {
			for _, pattern := range in.Patterns {
				resolved, err := x.resolver.ResolveInputs([]string{pattern}, task.ProjectDir)
				if err != nil {
					// Inputs that do not exist yet are watched through their directory.
					resolved = []string{staticPrefix(task.ProjectDir, pattern)}
				}
				for _, path := range resolved {
					h := unique.Make(path)
					if !slices.Contains(pathToTasks[h], task.ID) {
						pathToTasks[h] = append(pathToTasks[h], task.ID)
					}
				}
			}
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.pathToTasks = pathToTasks
	x.buildFiles = buildFiles
}

// Invalidate returns the tasks affected by the changed paths. A path that is not indexed
// itself, such as a newly created file, affects the tasks of its nearest indexed parent
// directory.
func (x *InputIndex) Invalidate(paths []string) Invalidation {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var inv Invalidation
	seen := make(map[domain.TaskIdentity]struct{})
	for _, path := range paths {
		path = filepath.Clean(path)
		if _, ok := x.buildFiles[unique.Make(path)]; ok {
			inv.Reload = true
			continue
		}
		for _, id := range x.lookupLocked(path) {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				inv.Tasks = append(inv.Tasks, id)
			}
		}
	}
	slices.SortFunc(inv.Tasks, domain.TaskIdentity.Compare)
	return inv
}

func (x *InputIndex) lookupLocked(path string) []domain.TaskIdentity {
	for {
		if tasks, ok := x.pathToTasks[unique.Make(path)]; ok {
			return tasks
		}
		parent := filepath.Dir(path)
		if parent == path {
			return nil
		}
		path = parent
	}
}

// staticPrefix returns the longest leading directory of pattern without glob characters.
func staticPrefix(root, pattern string) string {
	path := pattern
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, pattern)
	}
	if !strings.ContainsAny(path, "*?[") {
		return filepath.Dir(path)
	}
	for strings.ContainsAny(path, "*?[") {
		path = filepath.Dir(path)
	}
	return path
}
