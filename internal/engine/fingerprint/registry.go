package fingerprint

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Fingerprinter = (*Registry)(nil)

// Registry fingerprints the inputs of a task, choosing a normalizer per input property.
type Registry struct {
	resolver ports.InputResolver
	hasher   ports.FileHasher
}

// NewRegistry creates a new Registry.
func NewRegistry(resolver ports.InputResolver, hasher ports.FileHasher) *Registry {
	return &Registry{resolver: resolver, hasher: hasher}
}

// Fingerprint fingerprints every declared input of the task and derives its CacheKey.
func (r *Registry) Fingerprint(ctx context.Context, task *domain.Task) (domain.TaskFingerprint, error) {
	props := task.Properties
	if props == nil {
		props = domain.NewProperties()
	}

	fp := domain.TaskFingerprint{
		Implementation: task.ImplementationHash(),
		Inputs:         make(map[string]domain.FileFingerprint),
		Values:         make(map[string]domain.ValueSnapshot),
	}
	key := NewKeyBuilder(fp.Implementation)

	for _, input := range props.InputFiles() {
		if err := ctx.Err(); err != nil {
			return domain.TaskFingerprint{}, err
		}
		files, err := r.fingerprintInput(task.ProjectDir, input)
		if err != nil {
			return domain.TaskFingerprint{}, zerr.With(
				zerr.With(zerr.Wrap(err, domain.ErrFingerprintFailed.Error()), "task", task.ID.Path()),
				"property", input.Name,
			)
		}
		fp.Inputs[input.Name] = files
		key.InputFiles(input.Name, files)
	}

	for _, value := range props.InputValues() {
		fp.Values[value.Name] = value.Value
		key.InputValue(value.Name, value.Value)
	}

	for _, output := range props.Outputs() {
		fp.OutputNames = append(fp.OutputNames, output.Name)
	}
	slices.Sort(fp.OutputNames)
	key.Outputs(fp.OutputNames...)

	fp.Key = key.Build()
	return fp, nil
}

func (r *Registry) fingerprintInput(root string, input domain.InputFiles) (domain.FileFingerprint, error) {
	n := input.Normalization
	result := domain.FileFingerprint{Strategy: n.Tag(), Entries: make([]domain.FingerprintEntry, 0)}

	if n.Path == domain.PathClasspath {
		entries, err := r.classpathEntries(root, input)
		if err != nil {
			return domain.FileFingerprint{}, err
		}
		result.Entries = entries
		return result, nil
	}

	paths, err := r.resolver.ResolveInputs(input.Patterns, root)
	if err != nil {
		return domain.FileFingerprint{}, err
	}

	for _, path := range paths {
		entry, keep, err := r.fileEntry(root, path, n, input.Ignore)
		if err != nil {
			return domain.FileFingerprint{}, err
		}
		if keep {
			result.Entries = append(result.Entries, entry)
		}
	}

	slices.SortFunc(result.Entries, compareEntries)
	return result, nil
}

// fileEntry normalizes one resolved path. keep is false for dropped entries.
func (r *Registry) fileEntry(
	root, path string,
	n domain.Normalization,
	ignores []string,
) (entry domain.FingerprintEntry, keep bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return entry, false, zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
	}
	rel := relSlash(root, path)
	if ignored(rel, ignores) {
		return entry, false, nil
	}

	entry.Identity = identity(root, path, n.Path)
	if info.IsDir() {
		if n.Directories == domain.DirectoriesIgnore {
			return entry, false, nil
		}
		entry.Kind = domain.EntryDirectory
		return entry, true, nil
	}

	entry.Hash, err = r.hashFile(path, n.LineEndings)
	if err != nil {
		return entry, false, err
	}
	return entry, true, nil
}

func (r *Registry) hashFile(path string, eol domain.LineEndingSensitivity) (string, error) {
	if eol == domain.LineEndingsNormalize {
		return r.hasher.HashNormalized(path)
	}
	return r.hasher.HashFile(path)
}

func identity(root, path string, sensitivity domain.PathSensitivity) string {
	switch sensitivity {
	case domain.PathAbsolute:
		return filepath.ToSlash(path)
	case domain.PathNameOnly:
		return filepath.Base(path)
	default:
		return relSlash(root, path)
	}
}

// ignored reports whether a slash separated relative path or any of its segments
// matches an ignore pattern.
func ignored(rel string, ignores []string) bool {
	if len(ignores) == 0 {
		return false
	}
	for _, pattern := range ignores {
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
		for _, segment := range strings.Split(rel, "/") {
			if matched, _ := filepath.Match(pattern, segment); matched {
				return true
			}
		}
	}
	return false
}

func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func compareEntries(a, b domain.FingerprintEntry) int {
	if c := strings.Compare(a.Identity, b.Identity); c != 0 {
		return c
	}
	return strings.Compare(a.Hash, b.Hash)
}
