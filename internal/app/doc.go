// Package app contains the core application logic. It wires configuration,
// backends, storage and the pipeline graph into an App and runs it once,
// decoupled from any specific entrypoint like a CLI.
package app
