package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/testgrid/internal/analyzer"
	"github.com/specialistvlad/testgrid/internal/config"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/engine"
	"github.com/specialistvlad/testgrid/internal/graph"
	"github.com/specialistvlad/testgrid/internal/metrics"
	"github.com/specialistvlad/testgrid/internal/pipeline"
	"github.com/specialistvlad/testgrid/internal/registry"
	"github.com/specialistvlad/testgrid/internal/storage"
	"github.com/specialistvlad/testgrid/internal/textgen"
	"github.com/specialistvlad/testgrid/internal/tracing"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *config.Model
	registry *registry.Registry
	metrics  *metrics.Engine
	tracing  *tracing.Provider
	backend  textgen.Generator
	graph    *graph.Graph
	executor *engine.Executor
}

// NewApp is the constructor for the main application. Results go to outW,
// logs and exported spans to logW. Any configuration or wiring failure is
// fatal at startup and panics; the entrypoint recovers it.
func NewApp(outW, logW io.Writer, appConfig *Config, loader Loader, modules ...registry.Module) *App {
	bootstrap := newLogger("info", "text", logW)
	cfg, err := loader.Load(ctxlog.WithLogger(context.Background(), bootstrap), appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.New(modules...)
	logger.Debug("All backend modules registered.", "count", len(modules), "backends", reg.Generators())

	backend, err := reg.Generator(cfg.Generator.Name, cfg.Generator.Params)
	if err != nil {
		panic(fmt.Errorf("failed to create generator '%s': %w", cfg.Generator.Name, err))
	}

	m := metrics.New()
	tp, err := tracing.NewProvider(cfg.TraceExporter, logW)
	if err != nil {
		panic(err)
	}

	store, err := storage.NewLocal(cfg.StorageRoot, m)
	if err != nil {
		panic(err)
	}

	gen := textgen.Instrument(cfg.Generator.Name, backend, m)
	g, err := pipeline.New(pipeline.Config{
		Storage:   store,
		Analyzer:  analyzer.New(cfg.Exclude),
		Generator: gen,
		Filter:    pipeline.MarkerFilter(cfg.FilterMarker),
		Pattern:   cfg.Pattern,
	})
	if err != nil {
		// The pipeline shape is fixed at compile time, so this is a programmer error.
		panic(fmt.Errorf("failed to compile pipeline: %w", err))
	}
	logger.Debug("Pipeline compiled.", "stages", g.Order())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		metrics:  m,
		tracing:  tp,
		backend:  backend,
		graph:    g,
		executor: engine.New(
			engine.WithMaxParallel(cfg.MaxParallel),
			engine.WithMetrics(m),
			engine.WithTracer(tp.Tracer()),
		),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Metrics returns the application's collectors. This is primarily for testing.
func (a *App) Metrics() *metrics.Engine {
	return a.metrics
}
