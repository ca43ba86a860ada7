package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/metrics"
	"github.com/specialistvlad/testgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocal_List(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "b3.py"), "def b(): pass\n")
	writeFile(t, filepath.Join(root, "src", "a.py"), "def a(): pass\n")
	writeFile(t, filepath.Join(root, "src", "pkg", "c.py"), "def c(): pass\n")
	writeFile(t, filepath.Join(root, "src", "notes.txt"), "ignored")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "dir.py"), 0o755))

	s, err := NewLocal(root, nil)
	require.NoError(t, err)

	items, err := s.List(testContext(), "src", "")
	require.NoError(t, err)

	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"a.py", "b3.py", "pkg/c.py"}, ids)
	assert.Equal(t, "def a(): pass\n", items[0].Content)
	assert.Empty(t, items[0].Units)

	items, err = s.List(testContext(), "src", "*.txt")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "notes.txt", items[0].ID)
}

func TestLocal_ListAccessErrors(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "file.py"), "x = 1\n")
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.py"), "def secret(): pass\n")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))
	s, err := NewLocal(root, nil)
	require.NoError(t, err)

	cases := map[string]error{
		"../outside": ErrOutsideRoot,
		"link":       ErrOutsideRoot,
		"link/sub":   ErrOutsideRoot,
		"missing":    ErrNotDirectory,
		"file.py":    ErrNotDirectory,
	}
	for folder, want := range cases {
		_, err := s.List(testContext(), folder, "")
		var ae *AccessError
		require.ErrorAs(t, err, &ae, folder)
		assert.Equal(t, folder, ae.Folder)
		assert.ErrorIs(t, err, want, folder)
	}

	_, err = s.List(testContext(), "", "[")
	assert.ErrorContains(t, err, "invalid glob pattern")
}

func TestLocal_Write(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	m := metrics.New()
	s, err := NewLocal(root, m)
	require.NoError(t, err)

	err = s.Write(testContext(), "out", []model.OutputArtifact{
		{ID: "test_a.py", SourceID: "a.py", Text: "A"},
		{ID: "pkg/test_c.py", SourceID: "pkg/c.py", Text: "C"},
	})
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(root, "out", "pkg", "test_c.py"))
	require.NoError(t, err)
	assert.Equal(t, "C", string(got))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Written()))
}

func TestLocal_WriteEmptyBatch(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := NewLocal(root, nil)
	require.NoError(t, err)

	require.NoError(t, s.Write(testContext(), "out", nil))
	_, err = os.Stat(filepath.Join(root, "out"))
	assert.True(t, os.IsNotExist(err), "empty batch must not touch storage")
}

func TestLocal_WriteStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := NewLocal(root, nil)
	require.NoError(t, err)
	// A directory where the second file should go makes its write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "out", "test_b.py"), 0o755))

	err = s.Write(testContext(), "out", []model.OutputArtifact{
		{ID: "test_a.py", Text: "A"},
		{ID: "test_b.py", Text: "B"},
		{ID: "test_c.py", Text: "C"},
	})
	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, "test_b.py", we.Item)
	assert.Equal(t, []string{"test_a.py"}, we.Written)
	assert.Contains(t, err.Error(), "already written: test_a.py")

	_, err = os.Stat(filepath.Join(root, "out", "test_a.py"))
	assert.NoError(t, err, "partial output is kept")
	_, err = os.Stat(filepath.Join(root, "out", "test_c.py"))
	assert.True(t, os.IsNotExist(err), "writes after the failure are skipped")
}

func TestLocal_WriteConfined(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := NewLocal(root, nil)
	require.NoError(t, err)

	err = s.Write(testContext(), "../escape", []model.OutputArtifact{{ID: "x"}})
	var ae *AccessError
	require.ErrorAs(t, err, &ae)

	err = s.Write(testContext(), "out", []model.OutputArtifact{{ID: "../../x"}})
	var we *WriteError
	require.ErrorAs(t, err, &we)
	assert.True(t, errors.Is(err, ErrOutsideRoot))
}

func TestLocal_WriteThroughSymlink(t *testing.T) {
	t.Parallel()

	root, outside := t.TempDir(), t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "out"), 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "out", "pkg")))
	s, err := NewLocal(root, nil)
	require.NoError(t, err)

	t.Run("target folder", func(t *testing.T) {
		err := s.Write(testContext(), "link/new", []model.OutputArtifact{{ID: "test_a.py", Text: "A"}})
		var ae *AccessError
		require.ErrorAs(t, err, &ae)
		assert.ErrorIs(t, err, ErrOutsideRoot)
		_, statErr := os.Stat(filepath.Join(outside, "new"))
		assert.True(t, os.IsNotExist(statErr), "nothing is created outside the root")
	})

	t.Run("artifact directory", func(t *testing.T) {
		err := s.Write(testContext(), "out", []model.OutputArtifact{
			{ID: "test_a.py", Text: "A"},
			{ID: "pkg/test_b.py", Text: "B"},
		})
		var we *WriteError
		require.ErrorAs(t, err, &we)
		assert.Equal(t, "pkg/test_b.py", we.Item)
		assert.ErrorIs(t, err, ErrOutsideRoot)
		_, statErr := os.Stat(filepath.Join(outside, "test_b.py"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("symlink inside the root", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
		require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "alias")))
		require.NoError(t, s.Write(testContext(), "alias", []model.OutputArtifact{{ID: "test_c.py", Text: "C"}}))
		got, err := os.ReadFile(filepath.Join(root, "real", "test_c.py"))
		require.NoError(t, err)
		assert.Equal(t, "C", string(got))
	})
}
