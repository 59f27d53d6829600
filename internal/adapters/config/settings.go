package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// settingsFile represents the structure of a kiln.toml file.
type settingsFile struct {
	Execution struct {
		MaxWorkers *int  `toml:"max_workers"`
		FailFast   *bool `toml:"fail_fast"`
	} `toml:"execution"`
	History struct {
		Backend string `toml:"backend"`
	} `toml:"history"`
	Cache struct {
		Enabled     *bool  `toml:"enabled"`
		Dir         string `toml:"dir"`
		Compression string `toml:"compression"`
		MaxSize     string `toml:"max_size"`
		TargetSize  string `toml:"target_size"`
		FailedRetry string `toml:"failed_retry"`
	} `toml:"cache"`
	Logging struct {
		Format string `toml:"format"`
		Level  string `toml:"level"`
	} `toml:"logging"`
	Metrics struct {
		File string `toml:"file"`
	} `toml:"metrics"`
}

// LoadSettings reads kiln.toml from root. A missing file yields the default settings.
// The KILN_LOG_FORMAT and KILN_LOG_LEVEL environment variables override the file.
// Relative directories are resolved against root.
func (l *Loader) LoadSettings(root string) (domain.Settings, error) {
	settings := domain.DefaultSettings()
	path := filepath.Join(root, domain.SettingsFileName)

	data, err := l.FS.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		settings.Cache.Dir = filepath.Join(root, settings.Cache.Dir)
		applyEnv(&settings, l.getenv())
		return settings, settings.Validate()
	}
	if err != nil {
		return settings, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "file", path)
	}

	var sf settingsFile
	if _, err := toml.Decode(string(data), &sf); err != nil {
		return settings, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "file", path)
	}
	if err := applySettings(&settings, &sf); err != nil {
		return settings, zerr.With(err, "file", path)
	}
	applyEnv(&settings, l.getenv())

	if !filepath.IsAbs(settings.Cache.Dir) {
		settings.Cache.Dir = filepath.Join(root, settings.Cache.Dir)
	}
	if settings.MetricsFile != "" && !filepath.IsAbs(settings.MetricsFile) {
		settings.MetricsFile = filepath.Join(root, settings.MetricsFile)
	}
	return settings, settings.Validate()
}

func applySettings(s *domain.Settings, sf *settingsFile) error {
	if sf.Execution.MaxWorkers != nil {
		s.MaxWorkers = *sf.Execution.MaxWorkers
	}
	if sf.Execution.FailFast != nil {
		s.FailFast = *sf.Execution.FailFast
	}
	if sf.History.Backend != "" {
		s.HistoryBackend = sf.History.Backend
	}

	if sf.Cache.Enabled != nil {
		s.Cache.Enabled = *sf.Cache.Enabled
	}
	if sf.Cache.Dir != "" {
		s.Cache.Dir = sf.Cache.Dir
	}
	if sf.Cache.Compression != "" {
		s.Cache.Compression = sf.Cache.Compression
	}
	if err := parseSize(sf.Cache.MaxSize, "max_size", &s.Cache.MaxSize); err != nil {
		return err
	}
	if err := parseSize(sf.Cache.TargetSize, "target_size", &s.Cache.TargetSize); err != nil {
		return err
	}
	if sf.Cache.FailedRetry != "" {
		d, err := time.ParseDuration(sf.Cache.FailedRetry)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "failed_retry", sf.Cache.FailedRetry)
		}
		s.Cache.FailedRetry = d
	}

	if sf.Logging.Format != "" {
		s.LogFormat = sf.Logging.Format
	}
	if sf.Logging.Level != "" {
		s.LogLevel = domain.ParseLogLevel(sf.Logging.Level)
	}
	if sf.Metrics.File != "" {
		s.MetricsFile = sf.Metrics.File
	}
	return nil
}

func applyEnv(s *domain.Settings, getenv func(string) string) {
	if format := getenv(domain.EnvLogFormat); format != "" {
		s.LogFormat = format
	}
	if level := getenv(domain.EnvLogLevel); level != "" {
		s.LogLevel = domain.ParseLogLevel(level)
	}
}

func (l *Loader) getenv() func(string) string {
	if l.Getenv != nil {
		return l.Getenv
	}
	return os.Getenv
}

// parseSize parses human readable sizes such as "10GB" or "512 MiB".
func parseSize(value, key string, dst *int64) error {
	if value == "" {
		return nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil || n > 1<<62 {
		return zerr.With(domain.ErrInvalidSize, key, value)
	}
	*dst = int64(n)
	return nil
}
