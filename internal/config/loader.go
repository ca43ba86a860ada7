package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// HomeEnv names the variable holding the application home directory.
const HomeEnv = "TG_HOME"

// DefaultPath returns $TG_HOME/config/config.hcl, falling back to the
// working directory when TG_HOME is unset.
func DefaultPath() string {
	home := os.Getenv(HomeEnv)
	if home == "" {
		home = "."
	}
	return filepath.Join(home, "config", "config.hcl")
}

// fileRoot mirrors the file layout for gohcl.
type fileRoot struct {
	StorageRoot     string            `hcl:"storage_root"`
	Pattern         *string           `hcl:"pattern,optional"`
	FilterMarker    *string           `hcl:"filter_marker,optional"`
	MaxParallel     *int              `hcl:"max_parallel,optional"`
	Exclude         []string          `hcl:"exclude,optional"`
	LogLevel        *string           `hcl:"log_level,optional"`
	LogFormat       *string           `hcl:"log_format,optional"`
	MetricsTextfile *string           `hcl:"metrics_textfile,optional"`
	TraceExporter   *string           `hcl:"trace_exporter,optional"`
	Generators      []*generatorBlock `hcl:"generator,block"`
}

type generatorBlock struct {
	Name   string         `hcl:"name,label"`
	Params hcl.Expression `hcl:"params,optional"`
}

// Loader reads configuration files. Env supplies the `env` object visible
// to expressions; it defaults to the process environment.
type Loader struct {
	Env func() []string
}

// NewLoader creates a loader reading the process environment.
func NewLoader() *Loader {
	return &Loader{Env: os.Environ}
}

// Load parses, decodes and validates the file at path.
func (l *Loader) Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Config loader started.", "path", path)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	m, err := l.Parse(src, path)
	if err != nil {
		return nil, err
	}
	logger.Debug("Config loaded.", "storage_root", m.StorageRoot, "generator", m.Generator.Name)
	return m, nil
}

// Parse decodes configuration source. filename is used in diagnostics only.
func (l *Loader) Parse(src []byte, filename string) (*Model, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, diags)
	}

	evalCtx := l.evalContext()
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", filename, diags)
	}

	m := &Model{
		StorageRoot:     root.StorageRoot,
		Pattern:         deref(root.Pattern, DefaultPattern),
		FilterMarker:    deref(root.FilterMarker, ""),
		MaxParallel:     deref(root.MaxParallel, DefaultMaxParallel),
		Exclude:         root.Exclude,
		LogLevel:        strings.ToLower(deref(root.LogLevel, DefaultLogLevel)),
		LogFormat:       strings.ToLower(deref(root.LogFormat, DefaultLogFormat)),
		MetricsTextfile: deref(root.MetricsTextfile, ""),
		TraceExporter:   strings.ToLower(deref(root.TraceExporter, DefaultTraceExporter)),
		Generator:       Generator{Name: DefaultGenerator, Params: map[string]string{}},
	}

	switch len(root.Generators) {
	case 0:
	case 1:
		g := root.Generators[0]
		params, err := decodeParams(g.Params, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("generator '%s': %w", g.Name, err)
		}
		m.Generator = Generator{Name: g.Name, Params: params}
	default:
		return nil, fmt.Errorf("config file %s declares %d generator blocks, expected at most one", filename, len(root.Generators))
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return m, nil
}

func (l *Loader) evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	if l.Env != nil {
		for _, kv := range l.Env() {
			if k, v, ok := strings.Cut(kv, "="); ok && hclsyntax.ValidIdentifier(k) {
				vars[k] = cty.StringVal(v)
			}
		}
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"env": env}}
}

// decodeParams flattens a params object into strings. Numbers and bools are
// converted; nested values are rejected.
func decodeParams(expr hcl.Expression, evalCtx *hcl.EvalContext) (map[string]string, error) {
	out := make(map[string]string)
	if expr == nil {
		return out, nil
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return out, nil
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("params must be an object, got %s", val.Type().FriendlyName())
	}
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		key := k.AsString()
		sv, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("param '%s': %w", key, err)
		}
		if sv.IsNull() {
			continue
		}
		var s string
		if err := gocty.FromCtyValue(sv, &s); err != nil {
			return nil, fmt.Errorf("param '%s': %w", key, err)
		}
		out[key] = s
	}
	return out, nil
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
