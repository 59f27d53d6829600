package config

import (
	"context"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// BuildActionKind is the implementation kind of nested build actions.
const BuildActionKind = "build"

// buildAction returns an action running targets of the nested build in dir.
func buildAction(name, dir string, targets []string) domain.Action {
	code := dir + "\x00" + strings.Join(targets, "\x00")
	impl := domain.NewImplementationHash(BuildActionKind, []byte(code))
	return domain.NewAction("build "+name, impl, func(ctx context.Context, ac *domain.ActionContext) error {
		if ac.Builds == nil {
			return zerr.With(domain.ErrNestedBuildUnavailable, "build", name)
		}
		return ac.Builds.InvokeBuild(ctx, dir, targets)
	})
}
