package logger

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Logger, error) {
			return newFromEnv(os.Getenv), nil
		},
	})
}

// newFromEnv creates a Logger honoring the environment overrides before the workspace
// settings are loaded.
func newFromEnv(getenv func(string) string) *Logger {
	l := New().(*Logger)
	format, level := getenv(domain.EnvLogFormat), getenv(domain.EnvLogLevel)
	if format == "" && level == "" {
		return l
	}
	if format == "" {
		format = domain.LogFormatPretty
	}
	l.Configure(format, domain.ParseLogLevel(level))
	return l
}
