// Package fs provides file system adapters for walking, resolving, hashing, and snapshotting files.
package fs

import (
	"errors"
	"iter"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"go.trai.ch/kiln/internal/core/domain"
)

// errStopWalk ends a walk early when the consumer stops iterating.
var errStopWalk = errors.New("stop walk")

// skipDirectories are never walked.
var skipDirectories = map[string]bool{
	".git":             true,
	".jj":              true,
	domain.KilnDirName: true,
}

// Entry is a walked file system entry.
type Entry struct {
	Path  string
	IsDir bool
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files below root in lexical order, skipping VCS and workspace
// directories and entries whose name matches one of the ignore patterns.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for e := range w.WalkEntries(root, ignores) {
			if e.IsDir {
				continue
			}
			if !yield(e.Path) {
				return
			}
		}
	}
}

// WalkEntries yields all files and directories below root in lexical order.
// The root itself is not yielded.
func (w *Walker) WalkEntries(root string, ignores []string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		_ = godirwalk.Walk(root, &godirwalk.Options{
			Callback: func(path string, de *godirwalk.Dirent) error {
				if path == root {
					return nil
				}
				isDir, err := de.IsDirOrSymlinkToDir()
				if err != nil {
					return err
				}
				if w.shouldSkip(de.Name(), ignores) {
					if isDir {
						return filepath.SkipDir
					}
					return nil
				}
				if !yield(Entry{Path: path, IsDir: isDir}) {
					return errStopWalk
				}
				return nil
			},
			ErrorCallback: func(_ string, err error) godirwalk.ErrorAction {
				if errors.Is(err, errStopWalk) {
					return godirwalk.Halt
				}
				return godirwalk.SkipNode
			},
			FollowSymbolicLinks: false,
			AllowNonDirectory:   true,
		})
	}
}

// shouldSkip reports whether an entry name is excluded from walks.
func (w *Walker) shouldSkip(name string, ignores []string) bool {
	if skipDirectories[name] {
		return true
	}
	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			return true
		}
	}
	return false
}
