package ports

// InputResolver defines the interface for resolving input files.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type InputResolver interface {
	// ResolveInputs resolves the given input patterns to a sorted list of absolute paths.
	// Directories are expanded recursively and listed along with their contents.
	ResolveInputs(inputs []string, root string) ([]string, error)
}
