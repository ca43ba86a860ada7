// Package registry provides the central "glue" for the backend system.
//
// The Registry maps the selector used in configuration (e.g. the label of a
// `generator "openai" { ... }` block) to the compiled Go factory that builds
// that backend. Backends live in the top-level modules/ directory and add
// themselves through the Module interface; the application decides which
// modules are compiled in.
package registry
