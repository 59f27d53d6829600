package config_test

import (
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestLoadSettings_Defaults(t *testing.T) {
	loader, _, _ := newLoader(t, fstest.MapFS{})

	got, err := loader.LoadSettings(root)
	require.NoError(t, err)

	want := domain.DefaultSettings()
	want.Cache.Dir = filepath.Join(root, ".kiln", "cache")
	assert.Equal(t, want, got)
}

func TestLoadSettings_File(t *testing.T) {
	loader, _, _ := newLoader(t, fstest.MapFS{
		"kiln.toml": file(`
[execution]
max_workers = 3
fail_fast = true

[history]
backend = "sqlite"

[cache]
enabled = false
dir = "/var/cache/kiln"
compression = "xz"
max_size = "2 GiB"
target_size = "1GiB"
failed_retry = "15m"

[logging]
format = "json"
level = "debug"

[metrics]
file = "out/metrics.prom"
`),
	})

	got, err := loader.LoadSettings(root)
	require.NoError(t, err)
	assert.Equal(t, domain.Settings{
		MaxWorkers:     3,
		FailFast:       true,
		HistoryBackend: domain.HistoryBackendSQLite,
		Cache: domain.CacheSettings{
			Enabled:     false,
			Dir:         "/var/cache/kiln",
			Compression: domain.CompressionXZ,
			MaxSize:     2 << 30,
			TargetSize:  1 << 30,
			FailedRetry: 15 * time.Minute,
		},
		LogFormat:   domain.LogFormatJSON,
		LogLevel:    domain.LogLevelDebug,
		MetricsFile: filepath.Join(root, "out", "metrics.prom"),
	}, got)
}

func TestLoadSettings_EnvironmentOverridesFile(t *testing.T) {
	env := map[string]string{
		domain.EnvLogFormat: "json",
		domain.EnvLogLevel:  "warn",
	}
	for name, files := range map[string]fstest.MapFS{
		"without file": {},
		"with file":    {"kiln.toml": file("[logging]\nformat = \"pretty\"\nlevel = \"debug\"\n")},
	} {
		t.Run(name, func(t *testing.T) {
			loader, _, _ := newLoader(t, files)
			loader.Getenv = func(key string) string { return env[key] }

			got, err := loader.LoadSettings(root)
			require.NoError(t, err)
			assert.Equal(t, domain.LogFormatJSON, got.LogFormat)
			assert.Equal(t, domain.LogLevelWarn, got.LogLevel)
		})
	}
}

func TestLoadSettings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "malformed", content: "[cache", wantErr: domain.ErrConfigParseFailed},
		{name: "bad size", content: "[cache]\nmax_size = \"lots\"\n", wantErr: domain.ErrInvalidSize},
		{name: "bad duration", content: "[cache]\nfailed_retry = \"soon\"\n", wantErr: domain.ErrConfigParseFailed},
		{name: "unknown backend", content: "[history]\nbackend = \"redis\"\n", wantErr: domain.ErrUnknownHistoryBackend},
		{name: "unknown compression", content: "[cache]\ncompression = \"zstd\"\n", wantErr: domain.ErrUnknownCompression},
		{name: "target above max", content: "[cache]\nmax_size = \"1MB\"\ntarget_size = \"2MB\"\n", wantErr: domain.ErrInvalidSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _, _ := newLoader(t, fstest.MapFS{"kiln.toml": file(tt.content)})
			_, err := loader.LoadSettings(root)
			assert.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}
