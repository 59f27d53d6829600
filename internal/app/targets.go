package app

import (
	"slices"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// resolveTargets maps command line task references to task identities of build.
// An absolute path (":app:compile") names exactly one task. A bare name ("compile")
// selects the task of that name in every project of the build.
func resolveTargets(graph *domain.Graph, build string, refs []string) ([]domain.TaskIdentity, error) {
	if len(refs) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	var targets []domain.TaskIdentity
	for _, ref := range refs {
		if strings.HasPrefix(ref, domain.PathSeparator) {
			id, err := domain.ParseTaskPath(build, domain.RootProject, ref)
			if err != nil {
				return nil, err
			}
			if _, ok := graph.GetTask(id); !ok {
				return nil, zerr.With(domain.ErrTaskNotFound, "task", ref)
			}
			targets = appendUnique(targets, id)
			continue
		}

		if _, err := domain.ParseTaskPath(build, domain.RootProject, ref); err != nil {
			return nil, err
		}
		matched := false
		for _, id := range graph.Identities() {
			if id.Build.String() == build && id.Name.String() == ref {
				targets = appendUnique(targets, id)
				matched = true
			}
		}
		if !matched {
			return nil, zerr.With(domain.ErrTaskNotFound, "task", ref)
		}
	}
	return targets, nil
}

func appendUnique(ids []domain.TaskIdentity, id domain.TaskIdentity) []domain.TaskIdentity {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}
