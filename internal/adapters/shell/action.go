package shell

import (
	"context"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// CommandActionKind is the implementation kind of command actions.
const CommandActionKind = "exec"

// CommandAction returns an action running command in the project directory of its task.
// The implementation hash covers the command line and the declared environment, so
// changing either invalidates the outputs of the task.
func CommandAction(runner ports.CommandRunner, command, env []string) domain.Action {
	code := strings.Join(command, "\x00") + "\x01" + strings.Join(env, "\x00")
	impl := domain.NewImplementationHash(CommandActionKind, []byte(code))
	return domain.NewAction(strings.Join(command, " "), impl, func(ctx context.Context, ac *domain.ActionContext) error {
		return runner.Run(ctx, command, ac.Task.ProjectDir, env, ac.Stdout, ac.Stderr)
	})
}
