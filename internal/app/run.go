package app

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/model"
	"github.com/specialistvlad/testgrid/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Run executes the pipeline once for the folders in appConfig and prints the
// resulting artifact set as YAML.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithRunID(ctxlog.WithLogger(ctx, a.logger), uuid.NewString())
	logger := ctxlog.FromContext(ctx)
	logger.Debug("App.Run method started.", "source", appConfig.SourceFolder, "target", appConfig.TargetFolder)
	defer a.shutdown(ctx)

	logger.Info("🚀 Generating tests...", "storage_root", a.config.StorageRoot, "generator", a.config.Generator.Name)
	out, err := a.executor.Run(ctx, a.graph, pipeline.Input(appConfig.SourceFolder, appConfig.TargetFolder))
	if mErr := a.metrics.WriteTextfile(a.config.MetricsTextfile); mErr != nil {
		logger.Warn("Failed to write metrics textfile.", "path", a.config.MetricsTextfile, "error", mErr)
	}
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	artifacts := pipeline.Result(out)
	logger.Info("🏁 Tests generated.", "artifacts", len(artifacts))
	return printArtifacts(a.outW, artifacts)
}

func printArtifacts(w io.Writer, artifacts []model.OutputArtifact) error {
	if artifacts == nil {
		artifacts = []model.OutputArtifact{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(artifacts); err != nil {
		return fmt.Errorf("failed to print artifacts: %w", err)
	}
	return enc.Close()
}

// shutdown flushes spans and releases backend connections.
func (a *App) shutdown(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	if err := a.tracing.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("Tracer shutdown failed.", "error", err)
	}
	if c, ok := a.backend.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("Generator backend close failed.", "error", err)
		}
	}
	logger.Debug("App.Run method finished.")
}
