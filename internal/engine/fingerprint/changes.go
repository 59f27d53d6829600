package fingerprint

import (
	"maps"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
)

// ComputeChanges compares the current fingerprint of a task with its last recorded
// execution. It returns the input changes handed to incremental actions and the reason
// the task is not up-to-date, or ReasonNone when nothing changed.
//
// Only file input changes are reported incrementally. Every other difference
// requires a full execution and yields non-incremental changes.
func ComputeChanges(
	prev *domain.HistoryEntry,
	current domain.TaskFingerprint,
	outputsChanged bool,
) (domain.InputChanges, domain.RebuildReason) {
	full := domain.InputChanges{}

	switch {
	case prev == nil:
		return full, domain.ReasonNoHistory
	case !prev.Success:
		return full, domain.ReasonPreviousFailure
	case prev.Implementation != current.Implementation:
		return full, domain.ReasonImplementationChanged
	case !sameNames(prev.Inputs, current.Inputs) || !sameNames(prev.Values, current.Values):
		return full, domain.ReasonPropertiesChanged
	}

	for name, value := range current.Values {
		if !value.Equal(prev.Values[name]) {
			return full, domain.ReasonValueChanged
		}
	}

	for name, fp := range current.Inputs {
		if prev.Inputs[name].Strategy != fp.Strategy {
			return full, domain.ReasonPropertiesChanged
		}
	}

	if outputsChanged {
		return full, domain.ReasonOutputChanged
	}

	changes := domain.InputChanges{Incremental: true, Properties: make(map[string]domain.PropertyChanges)}
	changed := false
	for name, fp := range current.Inputs {
		pc := diffEntries(prev.Inputs[name].Entries, fp.Entries)
		if !pc.Empty() {
			changes.Properties[name] = pc
			changed = true
		}
	}
	if changed {
		return changes, domain.ReasonInputChanged
	}

	if prev.CacheKey != current.Key {
		return full, domain.ReasonPropertiesChanged
	}
	return changes, domain.ReasonNone
}

func sameNames[V any](a, b map[string]V) bool {
	if len(a) != len(b) {
		return false
	}
	return slices.Equal(slices.Sorted(maps.Keys(a)), slices.Sorted(maps.Keys(b)))
}

// diffEntries lists added, modified, and removed identities, each sorted.
func diffEntries(prev, current []domain.FingerprintEntry) domain.PropertyChanges {
	before := make(map[string]domain.FingerprintEntry, len(prev))
	for _, e := range prev {
		before[e.Identity] = e
	}
	after := make(map[string]domain.FingerprintEntry, len(current))
	for _, e := range current {
		after[e.Identity] = e
	}

	var pc domain.PropertyChanges
	for id, e := range after {
		old, ok := before[id]
		switch {
		case !ok:
			pc.Added = append(pc.Added, id)
		case old.Hash != e.Hash || old.Kind != e.Kind:
			pc.Modified = append(pc.Modified, id)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			pc.Removed = append(pc.Removed, id)
		}
	}

	slices.Sort(pc.Added)
	slices.Sort(pc.Modified)
	slices.Sort(pc.Removed)
	return pc
}
