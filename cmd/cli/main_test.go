package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/testgrid/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeHome lays out $TG_HOME/config/config.hcl with the given content.
func writeHome(t *testing.T, hcl string) string {
	t.Helper()
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(home, "config", "config.hcl"), []byte(hcl), 0o600))
	return home
}

func TestRun_PanicRecovery(t *testing.T) {
	// --- Arrange ---
	// An unterminated block is guaranteed to fail loading inside app.NewApp().
	t.Setenv("TG_HOME", writeHome(t, "generator \"echo\" {\n"))
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, errOut, []string{"src", "tests"})

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	assert.Contains(t, runErr.Error(), "application startup panicked")
	assert.Contains(t, runErr.Error(), "failed to parse")
	assert.Empty(t, out.String())
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"only-one"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "accepts 2 arg(s), received 1")
}

func TestRun_GeneratesTests(t *testing.T) {
	// --- Arrange ---
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "calc.py"), []byte("def add(a, b):\n    return a + b\n"), 0o644))
	t.Setenv("TG_HOME", writeHome(t, `storage_root = "`+root+`"`+"\n"))
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"src", "tests"})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "- id: test_calc.py\n  source: calc.py\n", out.String())
	assert.FileExists(t, filepath.Join(root, "tests", "test_calc.py"))
}
