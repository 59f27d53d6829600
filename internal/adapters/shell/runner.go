// Package shell runs command actions.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Runner implements ports.CommandRunner using os/exec and a pty.
// The pty keeps colored output of tools that check for a terminal. Where no pty is
// available the command writes to plain pipes.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{
		logger: logger,
	}
}

// Run executes the command in dir and waits for it to complete. An empty command
// succeeds without doing anything.
func (r *Runner) Run(ctx context.Context, command []string, dir string, env []string, stdout, stderr io.Writer) error {
	if len(command) == 0 {
		return nil
	}

	name := command[0]
	cmdEnv := resolveEnvironment(os.Environ(), env)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, command[1:]...) //nolint:gosec // user provided command
	cmd.Args[0] = name
	cmd.Dir = dir
	cmd.Env = cmdEnv

	if r.logger != nil {
		r.logger.Debug(fmt.Sprintf("running %s in %s", strings.Join(command, " "), dir))
	}

	if err := r.start(cmd, stdout, stderr); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "command", name)
	}
	return nil
}

func (r *Runner) start(cmd *exec.Cmd, stdout, stderr io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if errors.Is(err, pty.ErrUnsupported) {
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		if err := cmd.Run(); err != nil {
			return withExitCode(err)
		}
		return nil
	}
	if err != nil {
		return zerr.Wrap(err, "failed to start pty")
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// The pty merges stdout and stderr.
		_, _ = io.Copy(stdout, ptmx)
	}()

	waitErr := cmd.Wait()
	// Reading from the pty master fails with EIO once the child side is closed,
	// which ends the copy after the remaining output was read.
	<-ioDone
	_ = ptmx.Close()

	if waitErr != nil {
		return withExitCode(waitErr)
	}
	return nil
}

func withExitCode(err error) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return zerr.With(err, "exit_code", exitCode)
}

// allowListedEnvVars are the system environment variables that are allowed to be
// inherited by a command. Everything else a command sees is declared by the build.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
	"TMPDIR": {},
}

// resolveEnvironment merges the allow-listed system environment with the declared
// variables. A declared PATH is prepended to the system PATH.
func resolveEnvironment(sysEnv, declared []string) []string {
	envMap := filterSystemEnv(sysEnv)

	for _, entry := range declared {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == "PATH" {
			if sysPath, exists := envMap["PATH"]; exists && sysPath != "" {
				v = v + string(os.PathListSeparator) + sysPath
			}
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if ok {
			if _, allowed := allowListedEnvVars[k]; allowed {
				envMap[k] = v
			}
		}
	}
	return envMap
}

// lookPath searches for an executable in the directories named by the PATH of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
