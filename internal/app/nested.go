package app

import (
	"context"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

var _ domain.BuildInvoker = (*nestedBuilds)(nil)

// nestedBuilds runs the build actions of one build. Nested builds share the history,
// the build cache, and the worker pool of the root build.
type nestedBuilds struct {
	session *session
	build   string
}

// InvokeBuild implements domain.BuildInvoker.
// The tasks of the build in dir get the build path of the caller extended by the
// directory name. The calling task gives up its worker lease while the nested build runs.
func (n *nestedBuilds) InvokeBuild(ctx context.Context, dir string, targets []string) error {
	build := n.build + domain.PathSeparator + filepath.Base(dir)

	graph, err := n.session.app.loader.LoadBuild(dir, build)
	if err != nil {
		return zerr.With(err, "build", build)
	}
	ids, err := resolveTargets(graph, build, targets)
	if err != nil {
		return zerr.With(err, "build", build)
	}

	return n.session.leases.Blocking(ctx, func(ctx context.Context) error {
		report, err := n.session.execute(ctx, graph, build, ids)
		if report != nil {
			n.session.app.logger.Debug(build + ": " + formatCounts(report))
		}
		return err
	})
}
