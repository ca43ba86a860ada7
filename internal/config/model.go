package config

import (
	"errors"
	"fmt"
	"slices"
)

// Defaults applied to attributes the file leaves out.
const (
	DefaultPattern       = "**/*.py"
	DefaultMaxParallel   = 8
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultTraceExporter = "none"
	DefaultGenerator     = "echo"
)

// Model is the validated application configuration.
type Model struct {
	StorageRoot     string
	Pattern         string
	FilterMarker    string
	MaxParallel     int
	Exclude         []string
	LogLevel        string
	LogFormat       string
	MetricsTextfile string
	TraceExporter   string
	Generator       Generator
}

// Generator selects a text generation backend.
type Generator struct {
	Name   string
	Params map[string]string
}

// Validate reports every invalid field at once.
func (m *Model) Validate() error {
	var errs []error
	if m.StorageRoot == "" {
		errs = append(errs, errors.New("storage_root must not be empty"))
	}
	if m.MaxParallel < 1 {
		errs = append(errs, fmt.Errorf("max_parallel must be at least 1, got %d", m.MaxParallel))
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, m.LogLevel) {
		errs = append(errs, fmt.Errorf("invalid log_level '%s': must be 'debug', 'info', 'warn', or 'error'", m.LogLevel))
	}
	if m.LogFormat != "text" && m.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log_format '%s': must be 'text' or 'json'", m.LogFormat))
	}
	if m.TraceExporter != "none" && m.TraceExporter != "stdout" {
		errs = append(errs, fmt.Errorf("invalid trace_exporter '%s': must be 'none' or 'stdout'", m.TraceExporter))
	}
	if m.Generator.Name == "" {
		errs = append(errs, errors.New("generator label must not be empty"))
	}
	return errors.Join(errs...)
}
