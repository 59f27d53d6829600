package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// PathSensitivity selects the identity under which a file contributes to a fingerprint.
type PathSensitivity uint8

const (
	// PathRelative identifies files by their path relative to the project directory.
	// It is the zero value.
	PathRelative PathSensitivity = iota
	// PathAbsolute identifies files by their absolute path.
	PathAbsolute
	// PathNameOnly identifies files by their base name.
	PathNameOnly
	// PathClasspath treats the input as an ordered classpath. Archives are hashed per entry
	// and manifest and timestamp noise is ignored.
	PathClasspath
)

// DirectorySensitivity selects whether directories contribute to a fingerprint.
type DirectorySensitivity uint8

const (
	// DirectoriesDefault records directories as entries.
	DirectoriesDefault DirectorySensitivity = iota
	// DirectoriesIgnore drops directory entries so only files matter.
	DirectoriesIgnore
)

// LineEndingSensitivity selects whether line endings are normalized before hashing.
type LineEndingSensitivity uint8

const (
	// LineEndingsDefault hashes raw bytes.
	LineEndingsDefault LineEndingSensitivity = iota
	// LineEndingsNormalize hashes text files with CRLF and CR turned into LF.
	LineEndingsNormalize
)

// Normalization is the fingerprinting strategy of an input property.
type Normalization struct {
	Path        PathSensitivity
	Directories DirectorySensitivity
	LineEndings LineEndingSensitivity
}

// Tag returns the stable strategy tag that is mixed into the cache key.
func (n Normalization) Tag() string {
	return n.Path.String() + "/" + n.Directories.String() + "/" + n.LineEndings.String()
}

func (p PathSensitivity) String() string {
	switch p {
	case PathAbsolute:
		return "absolute"
	case PathRelative:
		return "relative"
	case PathNameOnly:
		return "name-only"
	case PathClasspath:
		return "classpath"
	default:
		return "unknown"
	}
}

func (d DirectorySensitivity) String() string {
	if d == DirectoriesIgnore {
		return "ignore-directories"
	}
	return "directories"
}

func (l LineEndingSensitivity) String() string {
	if l == LineEndingsNormalize {
		return "normalize-eol"
	}
	return "raw-eol"
}

// ParseNormalization builds a Normalization from its textual parts.
// Empty parts select the defaults: relative paths, directories included, raw line endings.
func ParseNormalization(path string, ignoreDirectories, normalizeLineEndings bool) (Normalization, error) {
	n := Normalization{Path: PathRelative}
	switch strings.ToLower(path) {
	case "", "relative":
		n.Path = PathRelative
	case "absolute":
		n.Path = PathAbsolute
	case "name-only", "name":
		n.Path = PathNameOnly
	case "classpath":
		n.Path = PathClasspath
	default:
		return Normalization{}, zerr.With(ErrInvalidNormalization, "path", path)
	}
	if ignoreDirectories {
		n.Directories = DirectoriesIgnore
	}
	if normalizeLineEndings {
		n.LineEndings = LineEndingsNormalize
	}
	return n, nil
}
