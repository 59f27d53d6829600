// Package config loads kiln.yaml build files and kiln.toml settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/adapters/shell"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using YAML build files.
type Loader struct {
	Logger ports.Logger
	Runner ports.CommandRunner
	FS     FileSystem
	// Getenv looks up settings overrides. Nil means os.Getenv.
	Getenv func(string) string
}

// NewLoader creates a new Loader reading from the OS filesystem.
func NewLoader(logger ports.Logger, runner ports.CommandRunner) *Loader {
	return &Loader{Logger: logger, Runner: runner, FS: NewOSFS()}
}

var validNameRegex = regexp.MustCompile("^[a-zA-Z0-9_.-]+$")

// DiscoverRoot walks up from cwd to the nearest build file that is not a project file.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	currentDir := filepath.Clean(cwd)
	for {
		path := filepath.Join(currentDir, domain.BuildFileName)
		if _, err := l.FS.Stat(path); err == nil {
			bf, err := l.readBuildFile(path)
			if err != nil {
				return "", err
			}
			if bf.Project == "" {
				return currentDir, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", zerr.With(domain.ErrConfigNotFound, "cwd", cwd)
}

// Load discovers the build file from cwd and returns its task graph.
func (l *Loader) Load(cwd string) (*domain.Graph, error) {
	root, err := l.DiscoverRoot(cwd)
	if err != nil {
		return nil, err
	}
	return l.load(filepath.Join(root, domain.BuildFileName), "")
}

// LoadBuild reads the build file at path, or in the directory path, as the nested build
// with the given build path.
func (l *Loader) LoadBuild(path, build string) (*domain.Graph, error) {
	if dir, err := isDir(l.FS, path); err == nil && dir {
		path = filepath.Join(path, domain.BuildFileName)
	}
	return l.load(path, build)
}

// buildContext carries what every project of a build shares.
type buildContext struct {
	build  string
	graph  *domain.Graph
	builds map[string]string
	env    map[string]string
}

func (l *Loader) load(configPath, build string) (*domain.Graph, error) {
	bf, err := l.readBuildFile(configPath)
	if err != nil {
		return nil, err
	}
	if bf.Project != "" {
		l.Logger.Warn(fmt.Sprintf("'project' defined in the build file %s has no effect", configPath))
	}

	root := filepath.Clean(filepath.Dir(configPath))
	bc := &buildContext{
		build:  build,
		graph:  domain.NewGraph(),
		builds: make(map[string]string, len(bf.Builds)),
		env:    bf.Env,
	}
	bc.graph.SetRoot(root)

	for _, b := range bf.Builds {
		dir := filepath.Clean(filepath.Join(root, b))
		name := filepath.Base(dir)
		if existing, ok := bc.builds[name]; ok && existing != dir {
			return nil, zerr.With(zerr.With(domain.ErrDuplicateProjectName, "build", name), "directory", dir)
		}
		bc.builds[name] = dir
	}

	if err := l.addTasks(bc, domain.RootProject, root, bf.Tasks); err != nil {
		return nil, err
	}

	projectDirs, err := l.resolveProjectPaths(root, bf.Projects)
	if err != nil {
		return nil, err
	}
	projectNames := make(map[string]string)
	for _, dir := range projectDirs {
		if err := l.processProject(bc, root, dir, projectNames); err != nil {
			return nil, err
		}
	}

	if err := bc.graph.Validate(); err != nil {
		return nil, err
	}
	return bc.graph, nil
}

func (l *Loader) resolveProjectPaths(root string, patterns []string) ([]string, error) {
	// Deduplicate paths matched by more than one pattern.
	projectPaths := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := l.FS.Glob(filepath.Join(root, pattern))
		if err != nil {
			return nil, zerr.Wrap(err, "glob pattern failed: "+pattern)
		}
		for _, match := range matches {
			projectPaths[match] = struct{}{}
		}
	}

	sortedPaths := make([]string, 0, len(projectPaths))
	for p := range projectPaths {
		sortedPaths = append(sortedPaths, p)
	}
	slices.Sort(sortedPaths)
	return sortedPaths, nil
}

func (l *Loader) processProject(bc *buildContext, root, projectPath string, projectNames map[string]string) error {
	relPath, _ := filepath.Rel(root, projectPath)

	dir, err := isDir(l.FS, projectPath)
	if err != nil {
		return err
	}
	if !dir {
		return nil
	}

	path := filepath.Join(projectPath, domain.BuildFileName)
	if _, err := l.FS.Stat(path); os.IsNotExist(err) {
		l.Logger.Warn(fmt.Sprintf("%s missing in project %s, skipping", domain.BuildFileName, relPath))
		return nil
	}

	bf, err := l.readBuildFile(path)
	if err != nil {
		return zerr.With(err, "directory", relPath)
	}
	if bf.Project == "" {
		return zerr.With(domain.ErrMissingProjectName, "directory", relPath)
	}
	if !validNameRegex.MatchString(bf.Project) {
		return zerr.With(zerr.With(domain.ErrInvalidProjectName, "project_name", bf.Project), "directory", relPath)
	}
	if existing, ok := projectNames[bf.Project]; ok {
		err := zerr.With(domain.ErrDuplicateProjectName, "project_name", bf.Project)
		err = zerr.With(err, "first_occurrence", existing)
		return zerr.With(err, "duplicate_at", relPath)
	}
	projectNames[bf.Project] = relPath

	if len(bf.Projects) > 0 || len(bf.Builds) > 0 {
		l.Logger.Warn(fmt.Sprintf("'projects' and 'builds' defined in project %s are ignored", relPath))
	}

	return l.addTasks(bc, domain.PathSeparator+bf.Project, projectPath, bf.Tasks)
}

func (l *Loader) addTasks(bc *buildContext, project, projectDir string, tasks map[string]*TaskDTO) error {
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := validateTaskName(name); err != nil {
			return err
		}
		task, err := l.buildTask(bc, project, projectDir, name, tasks[name])
		if err != nil {
			return zerr.With(err, "task", domain.NewTaskIdentity(bc.build, project, name).Path())
		}
		if err := bc.graph.AddTask(task); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) buildTask(bc *buildContext, project, projectDir, name string, dto *TaskDTO) (*domain.Task, error) {
	task := domain.NewTask(domain.NewTaskIdentity(bc.build, project, name), projectDir)
	if dto == nil {
		return task, nil
	}

	task.Incremental = dto.Incremental
	if dto.Cacheable != nil {
		task.Cacheable = *dto.Cacheable
	}
	if dto.Enabled != nil {
		task.Enabled = *dto.Enabled
	}
	task.RequireResource(dto.Resources...)

	edges := []struct {
		refs []string
		add  func(...domain.TaskIdentity) *domain.Task
	}{
		{dto.DependsOn, task.DependsOn},
		{dto.MustRunAfter, task.MustRunAfter},
		{dto.ShouldRunAfter, task.ShouldRunAfter},
		{dto.FinalizedBy, task.FinalizedBy},
	}
	for _, e := range edges {
		ids, err := parseRefs(bc.build, project, e.refs)
		if err != nil {
			return nil, err
		}
		e.add(ids...)
	}

	if err := l.addActions(bc, task, dto); err != nil {
		return nil, err
	}
	if err := addProperties(task.Properties, dto); err != nil {
		return nil, err
	}
	return task, nil
}

func (l *Loader) addActions(bc *buildContext, task *domain.Task, dto *TaskDTO) error {
	actions := dto.Actions
	if len(dto.Run) > 0 {
		actions = append([]ActionDTO{{Run: dto.Run}}, actions...)
	}

	for _, a := range actions {
		switch {
		case len(a.Run) > 0 && a.Build == "":
			env := mergeEnv(bc.env, dto.Env, a.Env)
			task.DoLast(shell.CommandAction(l.Runner, a.Run, env))
		case len(a.Run) == 0 && a.Build != "":
			dir, ok := bc.builds[a.Build]
			if !ok {
				return zerr.With(domain.ErrUnknownBuild, "build", a.Build)
			}
			task.DoLast(buildAction(a.Build, dir, a.Targets))
		default:
			return domain.ErrInvalidAction
		}
	}
	return nil
}

func addProperties(props *domain.Properties, dto *TaskDTO) error {
	for _, name := range sortedKeys(dto.Inputs) {
		in := dto.Inputs[name]
		norm, err := domain.ParseNormalization(in.Normalization, in.IgnoreDirectories, in.NormalizeLineEndings)
		if err != nil {
			return zerr.With(err, "property", name)
		}
		if err := props.AddInputFiles(domain.InputFiles{
			Name:          name,
			Patterns:      in.Paths,
			Normalization: norm,
			Ignore:        in.Ignore,
		}); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(dto.Values) {
		node := dto.Values[name]
		value, err := valueSnapshot(&node)
		if err != nil {
			return zerr.With(err, "property", name)
		}
		if err := props.AddInputValue(name, value); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(dto.Outputs) {
		if err := props.AddOutput(domain.OutputFiles{Name: name, Paths: dto.Outputs[name]}); err != nil {
			return err
		}
	}
	return nil
}

// valueSnapshot serializes a value input. Scalars keep their literal text, so "1.0" and
// "1" are different values.
func valueSnapshot(node *yaml.Node) (domain.ValueSnapshot, error) {
	if node.Kind == yaml.ScalarNode {
		return domain.ValueSnapshot{Type: node.ShortTag(), Bytes: []byte(node.Value)}, nil
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return domain.ValueSnapshot{}, zerr.Wrap(err, domain.ErrConfigParseFailed.Error())
	}
	return domain.ValueSnapshot{Type: node.ShortTag(), Bytes: out}, nil
}

func parseRefs(build, project string, refs []string) ([]domain.TaskIdentity, error) {
	ids := make([]domain.TaskIdentity, 0, len(refs))
	for _, ref := range refs {
		id, err := domain.ParseTaskPath(build, project, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// mergeEnv merges environment maps, later maps overriding earlier ones, into sorted
// KEY=VALUE entries.
func mergeEnv(maps ...map[string]string) []string {
	merged := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	env := make([]string, 0, len(merged))
	for _, k := range sortedKeys(merged) {
		env = append(env, k+"="+merged[k])
	}
	return env
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (l *Loader) readBuildFile(path string) (*BuildFile, error) {
	data, err := l.FS.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "file", path)
	}

	var bf BuildFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "file", path)
	}
	return &bf, nil
}

// validateTaskName checks that the task name contains only valid characters.
func validateTaskName(name string) error {
	if strings.Contains(name, domain.PathSeparator) || !validNameRegex.MatchString(name) {
		return zerr.With(domain.ErrInvalidTaskName, "task_name", name)
	}
	return nil
}
