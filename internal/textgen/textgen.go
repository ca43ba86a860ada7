// Package textgen defines the boundary between the pipeline and whatever
// produces text: a remote model, a socket service or a deterministic stub.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/metrics"
	"github.com/specialistvlad/testgrid/internal/model"
)

// Steps that issue generation requests. Backends may use them for routing or
// logging; they carry no semantics of their own.
const (
	StepFormat      = "format"
	StepExplain     = "explain"
	StepPlan        = "plan"
	StepGenerate    = "generate"
	StepConsolidate = "consolidate"
)

// Request is one generation call: a conversation to continue.
type Request struct {
	Step     string
	Messages []model.Message
}

// Prompt returns the content of the last message, which is what single-turn
// backends answer.
func (r Request) Prompt() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// Generator produces text for a request. Implementations must be safe for
// concurrent use; every fan-out branch shares one.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Func adapts a plain function to Generator.
type Func func(ctx context.Context, req Request) (string, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrEmptyResponse is returned when a backend answers with no text.
var ErrEmptyResponse = errors.New("empty response")

// GenerationError reports a failed generation call. It is never retried.
type GenerationError struct {
	Backend string
	Step    string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (backend %s, step %s): %v", e.Backend, e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Instrument wraps a backend so every failure surfaces as a *GenerationError
// and every call is logged and counted.
func Instrument(backend string, g Generator, m *metrics.Engine) Generator {
	return &instrumented{backend: backend, next: g, metrics: m}
}

type instrumented struct {
	backend string
	next    Generator
	metrics *metrics.Engine
}

func (i *instrumented) Generate(ctx context.Context, req Request) (string, error) {
	logger := ctxlog.FromContext(ctx).With("backend", i.backend, "step", req.Step)
	start := time.Now()

	text, err := i.next.Generate(ctx, req)
	if err == nil && text == "" {
		err = ErrEmptyResponse
	}
	i.metrics.ObserveGeneration(i.backend, err)
	if err != nil {
		logger.Warn("Generation call failed.", "error", err, "elapsed", time.Since(start))
		var ge *GenerationError
		if errors.As(err, &ge) {
			return "", err
		}
		return "", &GenerationError{Backend: i.backend, Step: req.Step, Err: err}
	}
	logger.Debug("Generation call succeeded.", "chars", len(text), "elapsed", time.Since(start))
	return text, nil
}
