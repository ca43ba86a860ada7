// Package socketio is a text generation backend that delegates to a service
// reachable over Socket.IO. Each request opens a connection, emits the
// conversation and waits for the matching reply.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/registry"
	"github.com/specialistvlad/testgrid/internal/textgen"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Name is the selector used in configuration.
const Name = "socketio"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config holds the parsed generator block parameters.
type Config struct {
	BaseURL            string
	Path               string
	Namespace          string
	EmitEvent          string
	OnEvent            string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// ParseConfig validates generator block parameters.
func ParseConfig(p registry.Params) (Config, error) {
	raw, err := p.Require("url")
	if err != nil {
		return Config{}, err
	}
	parsedURL, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return Config{}, fmt.Errorf("url %q must be absolute", raw)
	}

	cfg := Config{
		BaseURL:   fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host),
		Path:      parsedURL.Path,
		Namespace: p.Get("namespace", "/"),
		EmitEvent: p.Get("emit_event", "generate"),
		OnEvent:   p.Get("on_event", "generated"),
		Timeout:   60 * time.Second,
	}
	if t := p.Get("timeout", ""); t != "" {
		if cfg.Timeout, err = time.ParseDuration(t); err != nil {
			return Config{}, fmt.Errorf("invalid timeout %q: %w", t, err)
		}
	}
	if v := p.Get("insecure_skip_verify", ""); v != "" {
		if cfg.InsecureSkipVerify, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid insecure_skip_verify %q: %w", v, err)
		}
	}
	return cfg, nil
}

// Generator sends requests over Socket.IO.
type Generator struct {
	cfg Config
}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	text string
	err  error
}

// Generate implements textgen.Generator.
func (g *Generator) Generate(ctx context.Context, req textgen.Request) (string, error) {
	requestID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("backend", Name, "url", g.cfg.BaseURL, "requestID", requestID)
	logger.Debug("Generation request started.")
	defer logger.Debug("Generation request finished.")

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	report := func(r opResult) {
		select {
		case done <- r:
		default:
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	opts.SetPath(g.cfg.Path)
	if g.cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(g.cfg.BaseURL, opts)
	io := manager.Socket(g.cfg.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Debug("Connected, emitting request.", "event", g.cfg.EmitEvent)
		io.Emit(g.cfg.EmitEvent, encodeRequest(requestID, req))
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		report(opResult{err: err})
	})

	io.On(types.EventName(g.cfg.OnEvent), func(data ...any) {
		text, mine, err := decodeReply(requestID, data)
		if !mine {
			return
		}
		report(opResult{text: text, err: err})
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if isConnected.Load() {
			return "", fmt.Errorf("timed out after connecting while waiting for event '%s'", g.cfg.OnEvent)
		}
		return "", fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		return res.text, res.err
	}
}

// encodeRequest builds the payload emitted to the service.
func encodeRequest(id string, req textgen.Request) map[string]any {
	msgs := make([]map[string]any, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = map[string]any{"role": string(m.Role), "content": m.Content}
	}
	return map[string]any{"id": id, "step": req.Step, "messages": msgs}
}

// decodeReply interprets a reply event. mine is false when the reply belongs
// to another request sharing the namespace.
func decodeReply(id string, data []any) (text string, mine bool, err error) {
	if len(data) == 0 {
		return "", true, fmt.Errorf("reply carried no data")
	}
	switch v := data[0].(type) {
	case string:
		return v, true, nil
	case map[string]any:
		if rid, ok := v["id"].(string); ok && rid != id {
			return "", false, nil
		}
		if msg, ok := v["error"].(string); ok && msg != "" {
			return "", true, fmt.Errorf("service error: %s", msg)
		}
		text, _ := v["text"].(string)
		return text, true, nil
	default:
		return "", true, fmt.Errorf("unexpected reply payload %T", data[0])
	}
}

// Register registers the backend with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterGenerator(Name, func(p registry.Params) (textgen.Generator, error) {
		cfg, err := ParseConfig(p)
		if err != nil {
			return nil, err
		}
		return &Generator{cfg: cfg}, nil
	})
}
