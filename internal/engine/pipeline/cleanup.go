package pipeline

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

// CleanupStaleOutputs removes output files that the last recorded execution did not
// produce. Without history every declared output location is removed.
// Failing to clean fails the task.
type CleanupStaleOutputs struct {
	snapshotter ports.OutputSnapshotter
}

// Name implements Stage.
func (s *CleanupStaleOutputs) Name() string { return "cleanup-stale-outputs" }

// Run implements Stage.
func (s *CleanupStaleOutputs) Run(ctx context.Context, e *Execution, next Handler) (domain.Result, error) {
	root := e.Task.ProjectDir
	outputs := e.Task.Properties.Outputs()

	for _, out := range outputs {
		for _, p := range out.Paths {
			if _, err := outputPath(root, p); err != nil {
				return domain.Result{}, err
			}
		}
	}

	if e.History == nil {
		snapshot := make(domain.OutputSnapshot, len(outputs))
		for _, out := range outputs {
			snapshot[out.Name] = nil
			for _, p := range out.Paths {
				abs, _ := outputPath(root, p)
				if err := os.RemoveAll(abs); err != nil {
					return domain.Result{}, zerr.With(zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error()), "file", p)
				}
			}
		}
		e.Outputs = snapshot
		return next(ctx, e)
	}

	current, err := s.snapshotter.Snapshot(root, outputs)
	if err != nil {
		return domain.Result{}, zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error())
	}

	recorded := e.History.Outputs.Paths()
	var stale []string
	for _, files := range current {
		for _, f := range files {
			if _, ok := recorded[f.Path]; !ok {
				stale = append(stale, f.Path)
			}
		}
	}
	slices.Sort(stale)

	for _, rel := range stale {
		if err := os.RemoveAll(filepath.Join(root, filepath.FromSlash(rel))); err != nil {
			return domain.Result{}, zerr.With(zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error()), "file", rel)
		}
	}

	e.Outputs = withoutPaths(current, stale)
	return next(ctx, e)
}

// outputPath returns the absolute form of an output path, which must lie strictly inside root.
func outputPath(root, p string) (string, error) {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, p)
	}
	abs = filepath.Clean(abs)

	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", zerr.With(domain.ErrOutputPathOutsideRoot, "file", p)
	}
	return abs, nil
}

func withoutPaths(snapshot domain.OutputSnapshot, removed []string) domain.OutputSnapshot {
	if len(removed) == 0 {
		return snapshot
	}
	gone := func(path string) bool {
		for _, r := range removed {
			if path == r || strings.HasPrefix(path, r+"/") {
				return true
			}
		}
		return false
	}
	out := make(domain.OutputSnapshot, len(snapshot))
	for name, files := range snapshot {
		kept := make([]domain.FileSnapshot, 0, len(files))
		for _, f := range files {
			if !gone(f.Path) {
				kept = append(kept, f)
			}
		}
		out[name] = kept
	}
	return out
}
