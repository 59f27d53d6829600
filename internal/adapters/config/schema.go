package config

import "gopkg.in/yaml.v3"

// BuildFile represents the structure of a kiln.yaml file.
//
// The build file at the root of a build declares the tasks of the root project, the
// project directories of the build, and the nested builds its actions may invoke. A
// project file declares its project name and its tasks.
type BuildFile struct {
	Version  string              `yaml:"version"`
	Project  string              `yaml:"project"`
	Projects []string            `yaml:"projects"`
	Builds   []string            `yaml:"builds"`
	Env      map[string]string   `yaml:"env"`
	Tasks    map[string]*TaskDTO `yaml:"tasks"`
}

// TaskDTO represents a task definition in the configuration.
type TaskDTO struct {
	// Run is a shorthand for a single command action.
	Run     []string          `yaml:"run"`
	Actions []ActionDTO       `yaml:"actions"`
	Env     map[string]string `yaml:"env"`

	Inputs  map[string]InputDTO  `yaml:"inputs"`
	Values  map[string]yaml.Node `yaml:"values"`
	Outputs map[string][]string  `yaml:"outputs"`

	DependsOn      []string `yaml:"dependsOn"`
	MustRunAfter   []string `yaml:"mustRunAfter"`
	ShouldRunAfter []string `yaml:"shouldRunAfter"`
	FinalizedBy    []string `yaml:"finalizedBy"`
	Resources      []string `yaml:"resources"`

	Incremental bool  `yaml:"incremental"`
	Cacheable   *bool `yaml:"cacheable"`
	Enabled     *bool `yaml:"enabled"`
}

// ActionDTO is one action of a task: either a command or a nested build.
type ActionDTO struct {
	Run     []string          `yaml:"run"`
	Env     map[string]string `yaml:"env"`
	Build   string            `yaml:"build"`
	Targets []string          `yaml:"targets"`
}

// InputDTO is a file input property. A plain list of patterns is accepted as a
// shorthand for Paths.
type InputDTO struct {
	Paths                []string `yaml:"paths"`
	Ignore               []string `yaml:"ignore"`
	Normalization        string   `yaml:"normalization"`
	IgnoreDirectories    bool     `yaml:"ignoreDirectories"`
	NormalizeLineEndings bool     `yaml:"normalizeLineEndings"`
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (in *InputDTO) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&in.Paths)
	}
	type plain InputDTO
	return node.Decode((*plain)(in))
}
