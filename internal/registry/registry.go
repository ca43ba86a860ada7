package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/specialistvlad/testgrid/internal/textgen"
)

// Module is the interface that all backend modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Params are the free-form settings from a generator block.
type Params map[string]string

// Get returns a parameter or a fallback when it is unset or empty.
func (p Params) Get(key, fallback string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Require returns a parameter or an error naming the missing key.
func (p Params) Require(key string) (string, error) {
	if v, ok := p[key]; ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("missing required parameter '%s'", key)
}

// GeneratorFactory builds a text generation backend from its parameters.
type GeneratorFactory func(params Params) (textgen.Generator, error)

// Registry holds every registered backend factory for one application instance.
type Registry struct {
	generators map[string]GeneratorFactory
}

// New creates a registry and registers the given modules into it.
func New(modules ...Module) *Registry {
	r := &Registry{generators: make(map[string]GeneratorFactory)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterGenerator registers a backend under a selector. Registering the same
// selector twice is a programming error.
func (r *Registry) RegisterGenerator(name string, factory GeneratorFactory) {
	if _, exists := r.generators[name]; exists {
		panic(fmt.Sprintf("generator backend with name '%s' already registered", name))
	}
	slog.Debug("Registering generator backend.", "name", name)
	r.generators[name] = factory
}

// Generator builds the backend registered under name.
func (r *Registry) Generator(name string, params Params) (textgen.Generator, error) {
	factory, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("unknown generator backend '%s' (available: %v)", name, r.Generators())
	}
	g, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("configure generator backend '%s': %w", name, err)
	}
	return g, nil
}

// Generators lists the registered selectors in sorted order.
func (r *Registry) Generators() []string {
	return slices.Sorted(maps.Keys(r.generators))
}
