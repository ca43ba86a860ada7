package cli

import (
	"errors"
	"io"
	"log/slog"

	"github.com/specialistvlad/testgrid/internal/app"
	"github.com/specialistvlad/testgrid/internal/config"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageCode is the conventional exit code for invalid invocations.
const usageCode = 2

// NewRootCmd builds the root command. On a valid invocation it stores the
// resulting configuration in *out instead of running anything, so parsing
// stays separate from execution.
func NewRootCmd(output io.Writer, out **app.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testgrid <source_folder> <target_folder>",
		Short: "Generate unit tests for every source file in a folder",
		Long: `testgrid scans <source_folder> for source files, generates a unit test
file for each of them with the configured text generator and writes the
results to <target_folder>. Both folders are resolved against the storage
root from the configuration file ($TG_HOME/config/config.hcl).`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := app.NewConfig(app.Config{
				ConfigPath:   config.DefaultPath(),
				SourceFolder: args[0],
				TargetFolder: args[1],
			})
			if err != nil {
				return err
			}
			*out = cfg
			return nil
		},
	}
	cmd.SetOut(output)
	cmd.SetErr(output)
	return cmd
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var cfg *app.Config
	cmd := NewRootCmd(output, &cfg)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: usageCode, Message: err.Error()}
	}

	// Help and version requests return without running the command.
	if cfg == nil {
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}
