package domain

import (
	"slices"
	"time"
)

// FileSnapshot is the observed state of one output file or directory.
// Path is slash separated and relative to the project directory.
type FileSnapshot struct {
	Path string    `json:"path"`
	Hash string    `json:"hash,omitempty"`
	Kind EntryKind `json:"kind,omitempty"`
}

// OutputSnapshot maps output property names to their observed files, sorted by path.
type OutputSnapshot map[string][]FileSnapshot

// Paths returns the set of every snapshotted path.
func (s OutputSnapshot) Paths() map[string]struct{} {
	paths := make(map[string]struct{})
	for _, files := range s {
		for _, f := range files {
			paths[f.Path] = struct{}{}
		}
	}
	return paths
}

// OutputsEqual reports whether two output snapshots describe the same files with the
// same content.
func OutputsEqual(a, b OutputSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for name, files := range a {
		other, ok := b[name]
		if !ok || !slices.Equal(files, other) {
			return false
		}
	}
	return true
}

// HistoryEntry is the last recorded execution of a task.
type HistoryEntry struct {
	Task           string                     `json:"task"`
	BuildID        string                     `json:"build_id"`
	CacheKey       CacheKey                   `json:"cache_key"`
	Implementation ImplementationHash         `json:"implementation"`
	Inputs         map[string]FileFingerprint `json:"inputs,omitempty"`
	Values         map[string]ValueSnapshot   `json:"values,omitempty"`
	Outputs        OutputSnapshot             `json:"outputs,omitempty"`
	Success        bool                       `json:"success"`
	RecordedAt     time.Time                  `json:"recorded_at"`
}
