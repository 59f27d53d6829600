package logger_test

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/logger"
)

func newHandler(t *testing.T, level slog.Leveler) (*logger.PrettyHandler, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	buf := &bytes.Buffer{}
	return logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: level}), buf
}

func TestPrettyHandler_Handle_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  string
	}{
		{name: "debug", level: slog.LevelDebug, want: "○ debug message\n"},
		{name: "info", level: slog.LevelInfo, want: "info message\n"},
		{name: "warn", level: slog.LevelWarn, want: "! warn message\n"},
		{name: "error", level: slog.LevelError, want: "✗ error message\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, buf := newHandler(t, slog.LevelDebug)
			slog.New(handler).Log(t.Context(), tt.level, tt.name+" message")
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Attributes(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h slog.Handler) slog.Handler
		attrs []any
		want  string
	}{
		{
			name:  "record attributes",
			setup: func(h slog.Handler) slog.Handler { return h },
			attrs: []any{"count", 42, "enabled", true},
			want:  "msg count=42 enabled=true\n",
		},
		{
			name: "handler attributes first",
			setup: func(h slog.Handler) slog.Handler {
				return h.WithAttrs([]slog.Attr{slog.String("hkey", "hval")})
			},
			attrs: []any{"rkey", "rval"},
			want:  "msg hkey=hval rkey=rval\n",
		},
		{
			name:  "nested groups",
			setup: func(h slog.Handler) slog.Handler { return h.WithGroup("a").WithGroup("b") },
			attrs: []any{"k", "v"},
			want:  "msg a.b.k=v\n",
		},
		{
			name:  "empty group name",
			setup: func(h slog.Handler) slog.Handler { return h.WithGroup("") },
			attrs: []any{"k", "v"},
			want:  "msg k=v\n",
		},
		{
			name:  "group attribute",
			setup: func(h slog.Handler) slog.Handler { return h },
			attrs: []any{slog.Group("task", slog.String("path", ":app:build"), slog.Int("n", 1))},
			want:  "msg task.path=:app:build task.n=1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, buf := newHandler(t, slog.LevelInfo)
			slog.New(tt.setup(handler)).Info("msg", tt.attrs...)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrettyHandler_Enabled(t *testing.T) {
	level := &slog.LevelVar{}
	handler, _ := newHandler(t, level)

	assert.False(t, handler.Enabled(t.Context(), slog.LevelDebug))
	assert.True(t, handler.Enabled(t.Context(), slog.LevelInfo))

	level.Set(slog.LevelDebug)
	assert.True(t, handler.Enabled(t.Context(), slog.LevelDebug))

	level.Set(slog.LevelError)
	assert.False(t, handler.Enabled(t.Context(), slog.LevelWarn))
}

func TestPrettyHandler_NilWriter(t *testing.T) {
	require.NotPanics(t, func() {
		_ = logger.NewPrettyHandler(nil, nil)
	})
}

func TestPrettyHandler_Handle_ReturnsError(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	handler := logger.NewPrettyHandler(&brokenWriter{}, nil)

	err := handler.Handle(t.Context(), slog.NewRecord(time.Time{}, slog.LevelInfo, "lost", 0))
	assert.ErrorIs(t, err, assert.AnError)
}

type brokenWriter struct{}

func (bw *brokenWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}
