package config

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FileSystem is the file access the loader needs. Paths are absolute.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	// Glob returns the paths matching pattern, in the syntax of filepath.Match.
	Glob(pattern string) ([]string, error)
}

// OSFS reads the real filesystem.
type OSFS struct{}

// NewOSFS creates a new OSFS instance.
func NewOSFS() *OSFS {
	return &OSFS{}
}

// Stat implements FileSystem.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	// #nosec G304 -- build files are read from the workspace on purpose
	return os.ReadFile(path)
}

// Glob implements FileSystem.
func (OSFS) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// MountedFS serves an fs.FS as if it were mounted at Root, such as an fstest.MapFS in tests.
// Paths outside Root do not exist.
type MountedFS struct {
	Root string
	FS   fs.FS
}

// NewMountedFS mounts fsys at root.
func NewMountedFS(root string, fsys fs.FS) *MountedFS {
	return &MountedFS{Root: filepath.Clean(root), FS: fsys}
}

// Stat implements FileSystem.
func (m *MountedFS) Stat(path string) (fs.FileInfo, error) {
	name, err := m.name("stat", path)
	if err != nil {
		return nil, err
	}
	return fs.Stat(m.FS, name)
}

// ReadFile implements FileSystem.
func (m *MountedFS) ReadFile(path string) ([]byte, error) {
	name, err := m.name("read", path)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(m.FS, name)
}

// Glob implements FileSystem.
func (m *MountedFS) Glob(pattern string) ([]string, error) {
	name, err := m.name("glob", pattern)
	if err != nil {
		return nil, nil //nolint:nilerr // nothing outside the mount matches
	}
	matches, err := fs.Glob(m.FS, name)
	if err != nil {
		return nil, err
	}
	for i, match := range matches {
		matches[i] = filepath.Join(m.Root, filepath.FromSlash(match))
	}
	return matches, nil
}

// name converts an absolute path below Root to an fs.FS name.
func (m *MountedFS) name(op, path string) (string, error) {
	rel, err := filepath.Rel(m.Root, filepath.Clean(path))
	if err != nil || !filepath.IsLocal(rel) && rel != "." {
		return "", &fs.PathError{Op: op, Path: path, Err: fs.ErrNotExist}
	}
	return filepath.ToSlash(rel), nil
}

func isDir(fsys FileSystem, path string) (bool, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
