// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
)

// CommandRunner defines the interface for running command actions.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type CommandRunner interface {
	// Run executes the command in dir.
	//
	// The env parameter contains additional environment variables in "KEY=VALUE" format.
	// It returns an error if the command cannot be started or exits unsuccessfully.
	Run(ctx context.Context, cmd []string, dir string, env []string, stdout, stderr io.Writer) error
}
