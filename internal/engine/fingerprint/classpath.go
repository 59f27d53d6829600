package fingerprint

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// archiveExtensions are classpath entries hashed per member.
var archiveExtensions = []string{".jar", ".zip", ".war"}

// ignoredClasspathResources change between otherwise identical archives.
var ignoredClasspathResources = []string{
	"META-INF/MANIFEST.MF",
	"META-INF/INDEX.LIST",
}

// classpathEntries fingerprints a classpath. Roots keep their declared order; the
// location of a root does not matter, only its contents. Archive members are hashed
// individually so timestamps and compression settings are irrelevant.
func (r *Registry) classpathEntries(root string, input domain.InputFiles) ([]domain.FingerprintEntry, error) {
	entries := make([]domain.FingerprintEntry, 0)

	for _, pattern := range input.Patterns {
		paths, err := r.resolver.ResolveInputs([]string{pattern}, root)
		if err != nil {
			return nil, err
		}
		rootEntries, err := r.classpathRoots(paths, input)
		if err != nil {
			return nil, err
		}
		entries = append(entries, rootEntries...)
	}

	return entries, nil
}

// classpathRoots fingerprints the resolved paths of one pattern. A directory root
// yields its files relative to the directory.
func (r *Registry) classpathRoots(paths []string, input domain.InputFiles) ([]domain.FingerprintEntry, error) {
	var entries []domain.FingerprintEntry
	var dirRoot string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to stat input"), "path", path)
		}
		if info.IsDir() {
			if dirRoot == "" || !strings.HasPrefix(path, dirRoot+string(filepath.Separator)) {
				dirRoot = path
			}
			continue
		}

		if dirRoot != "" && strings.HasPrefix(path, dirRoot+string(filepath.Separator)) {
			rel := relSlash(dirRoot, path)
			if ignored(rel, input.Ignore) || ignoredResource(rel) {
				continue
			}
			hash, err := r.hashFile(path, input.Normalization.LineEndings)
			if err != nil {
				return nil, err
			}
			entries = append(entries, domain.FingerprintEntry{Identity: rel, Hash: hash})
			continue
		}

		if isArchive(path) {
			members, err := archiveEntries(path, input.Ignore)
			if err != nil {
				return nil, err
			}
			entries = append(entries, members...)
			continue
		}

		hash, err := r.hashFile(path, input.Normalization.LineEndings)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.FingerprintEntry{Identity: filepath.Base(path), Hash: hash})
	}

	return entries, nil
}

// archiveEntries hashes the members of a zip archive, sorted by name.
func archiveEntries(path string, ignores []string) ([]domain.FingerprintEntry, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open archive"), "path", path)
	}
	defer zr.Close() //nolint:errcheck // Read-only archive

	entries := make([]domain.FingerprintEntry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || ignoredResource(f.Name) || ignored(f.Name, ignores) {
			continue
		}
		hash, err := hashMember(f)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "path", path), "member", f.Name)
		}
		entries = append(entries, domain.FingerprintEntry{Identity: f.Name, Hash: hash})
	}

	slices.SortFunc(entries, compareEntries)
	return entries, nil
}

func hashMember(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", zerr.Wrap(err, "failed to open archive member")
	}
	defer rc.Close() //nolint:errcheck // Read-only member

	digest := xxhash.New()
	if _, err := io.Copy(digest, rc); err != nil { //nolint:gosec // Members are hashed, not extracted
		return "", zerr.Wrap(err, "failed to hash archive member")
	}
	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

func isArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(archiveExtensions, ext)
}

func ignoredResource(name string) bool {
	return slices.Contains(ignoredClasspathResources, name)
}
