// Package echo is an offline text generation backend. It answers every request
// with a deterministic transformation of the prompt, which makes the whole
// pipeline runnable without network access.
package echo

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/testgrid/internal/registry"
	"github.com/specialistvlad/testgrid/internal/textgen"
)

// Name is the selector used in configuration.
const Name = "echo"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Generator echoes the prompt back, prefixed with a comment naming the step.
type Generator struct {
	Comment string
}

// Generate implements textgen.Generator.
func (g *Generator) Generate(ctx context.Context, req textgen.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	prompt := strings.TrimSpace(req.Prompt())
	if prompt == "" {
		return "", textgen.ErrEmptyResponse
	}
	return fmt.Sprintf("%s %s\n%s\n", g.Comment, req.Step, prompt), nil
}

// Register registers the backend with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterGenerator(Name, func(p registry.Params) (textgen.Generator, error) {
		return &Generator{Comment: p.Get("comment", "#")}, nil
	})
}
