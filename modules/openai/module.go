// Package openai talks to any OpenAI-compatible chat completions endpoint.
package openai

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/registry"
	"github.com/specialistvlad/testgrid/internal/textgen"
	"resty.dev/v3"
)

// Name is the selector used in configuration.
const Name = "openai"

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generator is a chat completions client. It is safe for concurrent use.
type Generator struct {
	client      *resty.Client
	model       string
	temperature *float64
}

// New builds a Generator from generator block parameters.
func New(p registry.Params) (*Generator, error) {
	key, err := p.Require("api_key")
	if err != nil {
		return nil, err
	}
	timeout := defaultTimeout
	if raw := p.Get("timeout", ""); raw != "" {
		if timeout, err = time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", raw, err)
		}
	}
	var temperature *float64
	if raw := p.Get("temperature", ""); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid temperature %q: %w", raw, err)
		}
		temperature = &v
	}

	client := resty.New().
		SetBaseURL(p.Get("base_url", defaultBaseURL)).
		SetAuthToken(key).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	return &Generator{client: client, model: p.Get("model", defaultModel), temperature: temperature}, nil
}

// Generate implements textgen.Generator.
func (g *Generator) Generate(ctx context.Context, req textgen.Request) (string, error) {
	logger := ctxlog.FromContext(ctx).With("backend", Name, "model", g.model)

	body := chatRequest{Model: g.model, Temperature: g.temperature}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	var out chatResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat completion returned %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", textgen.ErrEmptyResponse
	}
	logger.Debug("Chat completion received.", "status", resp.StatusCode())
	return out.Choices[0].Message.Content, nil
}

// Close releases the underlying HTTP client.
func (g *Generator) Close() error {
	return g.client.Close()
}

// Register registers the backend with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterGenerator(Name, func(p registry.Params) (textgen.Generator, error) {
		return New(p)
	})
}
