package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.OutputSnapshotter = (*Snapshotter)(nil)

// Snapshotter records the files below declared output locations.
type Snapshotter struct {
	walker *Walker
	hasher ports.FileHasher
}

// NewSnapshotter creates a new Snapshotter.
func NewSnapshotter(walker *Walker, hasher ports.FileHasher) *Snapshotter {
	return &Snapshotter{walker: walker, hasher: hasher}
}

// Snapshot hashes every file below the output paths of each property.
// Every property is present in the result; missing locations contribute no entries.
func (s *Snapshotter) Snapshot(root string, outputs []domain.OutputFiles) (domain.OutputSnapshot, error) {
	snapshot := make(domain.OutputSnapshot, len(outputs))

	for _, output := range outputs {
		files := make([]domain.FileSnapshot, 0)
		for _, p := range output.Paths {
			entries, err := s.snapshotPath(root, p)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrSnapshotFailed.Error()), "output", output.Name)
			}
			files = append(files, entries...)
		}
		slices.SortFunc(files, func(a, b domain.FileSnapshot) int {
			return strings.Compare(a.Path, b.Path)
		})
		snapshot[output.Name] = slices.CompactFunc(files, func(a, b domain.FileSnapshot) bool {
			return a.Path == b.Path
		})
	}

	return snapshot, nil
}

func (s *Snapshotter) snapshotPath(root, path string) ([]domain.FileSnapshot, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}

	info, err := os.Stat(abs)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to stat output"), "path", abs)
	}

	if !info.IsDir() {
		entry, err := s.fileEntry(root, abs)
		if err != nil {
			return nil, err
		}
		return []domain.FileSnapshot{entry}, nil
	}

	entries := []domain.FileSnapshot{{Path: relSlash(root, abs), Kind: domain.EntryDirectory}}
	for e := range s.walker.WalkEntries(abs, nil) {
		if e.IsDir {
			entries = append(entries, domain.FileSnapshot{Path: relSlash(root, e.Path), Kind: domain.EntryDirectory})
			continue
		}
		entry, err := s.fileEntry(root, e.Path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Snapshotter) fileEntry(root, path string) (domain.FileSnapshot, error) {
	hash, err := s.hasher.HashFile(path)
	if err != nil {
		return domain.FileSnapshot{}, err
	}
	return domain.FileSnapshot{Path: relSlash(root, path), Hash: hash, Kind: domain.EntryFile}, nil
}

// relSlash returns path relative to root with forward slashes.
// Paths outside root are returned absolute.
func relSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
