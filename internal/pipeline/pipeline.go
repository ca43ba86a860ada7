package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/testgrid/internal/analyzer"
	"github.com/specialistvlad/testgrid/internal/channel"
	"github.com/specialistvlad/testgrid/internal/graph"
	"github.com/specialistvlad/testgrid/internal/model"
	"github.com/specialistvlad/testgrid/internal/storage"
	"github.com/specialistvlad/testgrid/internal/textgen"
)

// Channel names shared across the pipeline graphs.
const (
	SourceFolder = "source_folder"
	TargetFolder = "target_folder"
	Items        = "items"
	Units        = "units"
	Artifacts    = "artifacts"
	Outputs      = "outputs"

	Unit         = "unit"
	Source       = "source"
	Code         = "code"
	Conversation = "conversation"
)

var (
	sourceFolderCh = channel.Scalar[string](SourceFolder)
	targetFolderCh = channel.Scalar[string](TargetFolder)
	itemsCh        = channel.LogOf[model.SourceItem](Items)
	unitsCh        = channel.LogOf[model.WorkUnit](Units)
	artifactsCh    = channel.LogOf[model.GeneratedArtifact](Artifacts)
	outputsCh      = channel.LogOf[model.OutputArtifact](Outputs)

	unitCh         = channel.Scalar[model.WorkUnit](Unit)
	sourceCh       = channel.Scalar[model.SourceItem](Source)
	codeCh         = channel.Scalar[string](Code)
	conversationCh = channel.LogOf[model.Message](Conversation)
)

// Storage lists source files and persists output files.
type Storage interface {
	List(ctx context.Context, folder, pattern string) ([]model.SourceItem, error)
	Write(ctx context.Context, folder string, artifacts []model.OutputArtifact) error
}

// Config holds the collaborators of one pipeline instance.
type Config struct {
	Storage   Storage
	Analyzer  analyzer.Analyzer
	Generator textgen.Generator

	// Consolidator merges groups of two or more artifacts. Defaults to a
	// TextConsolidator over Generator.
	Consolidator Consolidator
	// Filter decides which listed items are processed. Defaults to keeping
	// everything.
	Filter Filter
	// Namer derives output ids. Defaults to DefaultNamer.
	Namer Namer
	// Pattern is the glob used to list sources. Defaults to storage.DefaultPattern.
	Pattern string
}

func (c Config) withDefaults() (Config, error) {
	var errs []error
	if c.Storage == nil {
		errs = append(errs, errors.New("storage is required"))
	}
	if c.Analyzer == nil {
		errs = append(errs, errors.New("analyzer is required"))
	}
	if c.Generator == nil {
		errs = append(errs, errors.New("text generator is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return c, fmt.Errorf("invalid pipeline config: %w", err)
	}
	if c.Consolidator == nil {
		c.Consolidator = &TextConsolidator{Generator: c.Generator}
	}
	if c.Filter == nil {
		c.Filter = KeepAll
	}
	if c.Namer == nil {
		c.Namer = DefaultNamer
	}
	if c.Pattern == "" {
		c.Pattern = storage.DefaultPattern
	}
	return c, nil
}

// New compiles the Main graph: Scan, Generate and Write in sequence. Its
// inputs are source_folder and target_folder; its output is the outputs log.
func New(cfg Config) (*graph.Graph, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	scanner, err := NewScanner(cfg.Storage, cfg.Pattern, cfg.Filter)
	if err != nil {
		return nil, err
	}
	processor, err := NewProcessor(cfg.Generator)
	if err != nil {
		return nil, err
	}
	generator, err := NewGenerator(cfg.Analyzer, processor, cfg.Consolidator, cfg.Namer)
	if err != nil {
		return nil, err
	}
	writer, err := NewWriter(cfg.Storage)
	if err != nil {
		return nil, err
	}

	return graph.New("Main").
		Input(sourceFolderCh, targetFolderCh).
		Internal(itemsCh).
		Output(outputsCh).
		AddSubgraph("Scan", scanner).
		AddSubgraph("Generate", generator).
		AddSubgraph("Write", writer).
		AddEdge(graph.Start, "Scan").
		AddEdge("Scan", "Generate").
		AddEdge("Generate", "Write").
		AddEdge("Write", graph.End).
		Compile()
}

// Input builds the input map of the Main graph.
func Input(sourceFolder, targetFolder string) map[string]any {
	return map[string]any{SourceFolder: sourceFolder, TargetFolder: targetFolder}
}

// Result extracts the output artifacts from a Main run.
func Result(out map[string]any) []model.OutputArtifact {
	arts, _ := out[Outputs].([]model.OutputArtifact)
	return arts
}
