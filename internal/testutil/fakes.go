package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/specialistvlad/testgrid/internal/model"
	"github.com/specialistvlad/testgrid/internal/textgen"
)

// Generator is a textgen.Generator that records every request. Respond
// decides the answer; when nil the step name is returned.
type Generator struct {
	Respond func(ctx context.Context, req textgen.Request) (string, error)

	mu       sync.Mutex
	requests []textgen.Request
}

// Generate implements textgen.Generator.
func (g *Generator) Generate(ctx context.Context, req textgen.Request) (string, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if g.Respond == nil {
		return "generated by " + req.Step, nil
	}
	return g.Respond(ctx, req)
}

// Requests returns every request received so far.
func (g *Generator) Requests() []textgen.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.requests)
}

// Count returns how many requests were made for a step.
func (g *Generator) Count(step string) int {
	n := 0
	for _, r := range g.Requests() {
		if r.Step == step {
			n++
		}
	}
	return n
}

// Analyzer returns canned units or errors per item id. Unknown items yield
// no units.
type Analyzer struct {
	Units map[string][]model.WorkUnit
	Errs  map[string]error
}

// ExtractUnits implements analyzer.Analyzer.
func (a *Analyzer) ExtractUnits(ctx context.Context, item model.SourceItem) ([]model.WorkUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := a.Errs[item.ID]; ok {
		return nil, err
	}
	return slices.Clone(a.Units[item.ID]), nil
}

// Write is one recorded Storage.Write call.
type Write struct {
	Folder    string
	Artifacts []model.OutputArtifact
}

// Storage is an in-memory pipeline.Storage. List ignores folder and pattern
// and returns Sources.
type Storage struct {
	Sources  []model.SourceItem
	ListErr  error
	WriteErr error

	mu     sync.Mutex
	writes []Write
}

// List implements pipeline.Storage.
func (s *Storage) List(ctx context.Context, folder, pattern string) ([]model.SourceItem, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	return slices.Clone(s.Sources), ctx.Err()
}

// Write implements pipeline.Storage.
func (s *Storage) Write(ctx context.Context, folder string, artifacts []model.OutputArtifact) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, Write{Folder: folder, Artifacts: slices.Clone(artifacts)})
	return ctx.Err()
}

// Writes returns the recorded Write calls.
func (s *Storage) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.writes)
}
