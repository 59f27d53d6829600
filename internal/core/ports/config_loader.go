package ports

import "go.trai.ch/kiln/internal/core/domain"

// ConfigLoader defines the interface for loading the build configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load finds the build file from the given working directory and returns the task graph.
	Load(cwd string) (*domain.Graph, error)

	// LoadBuild reads the build file at path as the nested build with the given build path.
	LoadBuild(path, build string) (*domain.Graph, error)

	// DiscoverRoot walks up from cwd to find the directory containing kiln.yaml.
	DiscoverRoot(cwd string) (string, error)

	// LoadSettings reads kiln.toml from the build root, falling back to the defaults.
	LoadSettings(root string) (domain.Settings, error)
}
