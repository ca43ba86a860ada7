// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates the two positional folders into the application's
// configuration; everything else comes from the configuration file.
package cli
