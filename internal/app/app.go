// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/adapters/watcher"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/lease"
	"go.trai.ch/kiln/internal/engine/pipeline"
	"go.trai.ch/kiln/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	loader        ports.ConfigLoader
	logger        ports.Logger
	renderer      ports.Renderer
	metrics       ports.Metrics
	histories     ports.HistoryOpener
	caches        ports.BuildCacheOpener
	fingerprinter ports.Fingerprinter
	snapshotter   ports.OutputSnapshotter
	watcher       ports.Watcher
	index         *watcher.InputIndex

	now        func() time.Time
	newBuildID func() string
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	renderer ports.Renderer,
	metrics ports.Metrics,
	histories ports.HistoryOpener,
	caches ports.BuildCacheOpener,
	fingerprinter ports.Fingerprinter,
	snapshotter ports.OutputSnapshotter,
) *App {
	return &App{
		loader:        loader,
		logger:        log,
		renderer:      renderer,
		metrics:       metrics,
		histories:     histories,
		caches:        caches,
		fingerprinter: fingerprinter,
		snapshotter:   snapshotter,
		now:           time.Now,
		newBuildID:    uuid.NewString,
	}
}

// WithWatcher enables continuous builds with the given file watcher and input index.
func (a *App) WithWatcher(w ports.Watcher, index *watcher.InputIndex) *App {
	a.watcher = w
	a.index = index
	return a
}

// WithClock replaces the clock used for build reports and history entries.
// This is primarily used for testing.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// Dir is the directory the workspace is discovered from. It defaults to ".".
	Dir string
	// Rerun ignores history and build cache reads.
	Rerun bool
	// NoBuildCache disables build cache reads and writes.
	NoBuildCache bool
	// FailFast stops dispatching new tasks after the first failure.
	FailFast bool
	// MaxWorkers overrides the configured worker count when positive.
	MaxWorkers int
	// LogFormat and LogLevel override the configured logging when set.
	LogFormat string
	LogLevel  string
	// MetricsFile overrides the configured metrics file when set.
	MetricsFile string
}

func (o RunOptions) dir() string {
	if o.Dir == "" {
		return "."
	}
	return o.Dir
}

// configurableLogger is implemented by loggers whose format and level follow the settings.
type configurableLogger interface {
	Configure(format string, level domain.LogLevel)
}

// Run executes the build process for the specified targets.
// A failed build returns an error wrapping domain.ErrBuildExecutionFailed after the failure
// report has been logged.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	_, err := a.build(ctx, targetNames, opts)
	return err
}

// build runs one build and returns the loaded graph, which is nil when loading failed.
//
//nolint:cyclop // orchestration function
func (a *App) build(ctx context.Context, targetNames []string, opts RunOptions) (*domain.Graph, error) {
	if len(targetNames) == 0 {
		return nil, domain.ErrNoTargetsSpecified
	}

	// 1. Workspace and settings
	root, settings, err := a.prepare(opts)
	if err != nil {
		return nil, err
	}

	// 2. Load the graph
	graph, err := a.loader.Load(opts.dir())
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	targets, err := resolveTargets(graph, "", targetNames)
	if err != nil {
		return graph, err
	}

	// 3. Open the stores
	history, err := a.histories.OpenHistory(root, settings.HistoryBackend)
	if err != nil {
		return graph, err
	}
	defer func() {
		if cerr := history.Close(); cerr != nil {
			a.logger.Warn(fmt.Sprintf("could not close execution history: %v", cerr))
		}
	}()

	var cache ports.BuildCache
	if settings.Cache.Enabled && !opts.NoBuildCache {
		cache, err = a.caches.OpenCache(settings.Cache)
		if err != nil {
			a.logger.Warn(fmt.Sprintf("build cache disabled: %v", err))
			cache = nil
		}
	}

	// 4. Initialize Telemetry
	// The tracer streams task output and, through the bridge, task starts and outcomes,
	// so every task's output reaches the renderer before its outcome.
	tp := setupOTel()
	tracer := telemetry.NewOTelTracer("kiln").WithRenderer(a.renderer)
	tp.RegisterSpanProcessor(telemetry.NewBridge(tracer))
	defer func() {
		_ = tracer.Shutdown(context.WithoutCancel(ctx))
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()

	s := &session{
		app:       a,
		history:   history,
		cache:     cache,
		leases:    lease.NewService(settings.MaxWorkers, a.metrics),
		tracer:    tracer,
		listeners: pipeline.NewListeners(),
		buildID:   a.newBuildID(),
		rerun:     opts.Rerun,
		failFast:  settings.FailFast,
	}
	unregister := s.listeners.Register(newLogListener(a.logger))
	defer unregister()

	// 5. Run Renderer and Scheduler concurrently
	var report *domain.BuildReport
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.renderer.Start(gctx); err != nil {
			return err
		}
		return a.renderer.Wait()
	})

	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = zerr.Wrap(fmt.Errorf("%v", r), domain.ErrSchedulerPanicked.Error())
			}
			// Deliver the queued task output and outcomes before the summary.
			_ = tracer.Shutdown(context.WithoutCancel(gctx))
			_ = a.renderer.Stop()
		}()

		var runErr error
		report, runErr = s.execute(gctx, graph, "", targets)
		if report == nil {
			return runErr
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return graph, err
	}

	// 6. Report
	a.summarize(report)
	a.afterBuild(ctx, settings, cache != nil)

	if err := report.Err(); err != nil {
		return graph, err
	}
	if ctx.Err() != nil {
		return graph, zerr.Wrap(context.Cause(ctx), "build cancelled")
	}
	return graph, nil
}

// prepare discovers the workspace root and loads its settings with opts applied.
func (a *App) prepare(opts RunOptions) (string, domain.Settings, error) {
	root, err := a.loader.DiscoverRoot(opts.dir())
	if err != nil {
		return "", domain.Settings{}, err
	}
	settings, err := a.loader.LoadSettings(root)
	if err != nil {
		return "", domain.Settings{}, err
	}

	if opts.FailFast {
		settings.FailFast = true
	}
	if opts.MaxWorkers > 0 {
		settings.MaxWorkers = opts.MaxWorkers
	}
	if opts.LogFormat != "" {
		settings.LogFormat = opts.LogFormat
	}
	if opts.LogLevel != "" {
		settings.LogLevel = domain.ParseLogLevel(opts.LogLevel)
	}
	if opts.MetricsFile != "" {
		settings.MetricsFile = opts.MetricsFile
	}
	if err := settings.Validate(); err != nil {
		return "", domain.Settings{}, err
	}

	if l, ok := a.logger.(configurableLogger); ok {
		l.Configure(settings.LogFormat, settings.LogLevel)
	}
	return root, settings, nil
}

// afterBuild prunes the build cache and exports metrics. Failures are only logged because
// the build itself is complete.
func (a *App) afterBuild(ctx context.Context, settings domain.Settings, cacheUsed bool) {
	if cacheUsed && settings.Cache.MaxSize > 0 {
		report, err := a.caches.Prune(ctx, settings.Cache.Dir, settings.Cache.MaxSize, settings.Cache.TargetSize)
		if err != nil {
			a.logger.Warn(fmt.Sprintf("could not prune the build cache: %v", err))
		} else if report.Removed > 0 {
			a.logger.Debug(formatPrune(report))
		}
	}

	if settings.MetricsFile != "" && a.metrics != nil {
		if err := a.metrics.WriteFile(settings.MetricsFile); err != nil {
			a.logger.Warn(fmt.Sprintf("could not write metrics to %s: %v", settings.MetricsFile, err))
		}
	}
}

// session is what the root build and its nested builds share.
type session struct {
	app       *App
	history   ports.ExecutionHistoryStore
	cache     ports.BuildCache
	leases    *lease.Service
	tracer    ports.Tracer
	listeners *pipeline.Listeners
	buildID   string
	rerun     bool
	failFast  bool
}

// execute runs the targets of one build through a fresh scheduler and pipeline.
func (s *session) execute(
	ctx context.Context,
	graph *domain.Graph,
	build string,
	targets []domain.TaskIdentity,
) (*domain.BuildReport, error) {
	p := pipeline.New(pipeline.Deps{
		Tracer:        s.tracer,
		Logger:        s.app.logger,
		Listeners:     s.listeners,
		History:       s.history,
		Fingerprinter: s.app.fingerprinter,
		Snapshotter:   s.app.snapshotter,
		Leases:        s.leases,
		Cache:         s.cache,
		Metrics:       s.app.metrics,
		Builds:        &nestedBuilds{session: s, build: build},
		BuildID:       s.buildID,
		Options:       pipeline.Options{Rerun: s.rerun},
		Now:           s.app.now,
	})

	sched := scheduler.NewScheduler(s.tracer)
	return sched.Run(ctx, graph, targets, scheduler.Options{
		Executor: p,
		Leases:   s.leases,
		FailFast: s.failFast,
		Now:      s.app.now,
	})
}

// setupOTel installs a fresh OpenTelemetry tracer provider. The renderer bridge is
// registered once the tracer it forwards to exists.
func setupOTel() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp
}

// isBuildFailure reports whether err is a failed build whose report was already logged.
func isBuildFailure(err error) bool {
	return errors.Is(err, domain.ErrBuildExecutionFailed)
}
