// Package storage reads source files from and writes generated files to a
// directory tree confined to a single root.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/metrics"
	"github.com/specialistvlad/testgrid/internal/model"
)

// DefaultPattern matches every Python file below the scanned folder.
const DefaultPattern = "**/*.py"

// Local is a Storage backed by the local filesystem.
type Local struct {
	root    string
	metrics *metrics.Engine
}

// NewLocal creates a storage rooted at root. The root itself need not exist
// until something is listed from it.
func NewLocal(root string, m *metrics.Engine) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root '%s': %w", root, err)
	}
	return &Local{root: abs, metrics: m}, nil
}

// Root returns the absolute storage root.
func (l *Local) Root() string { return l.root }

// resolve joins folder onto the root and rejects anything that escapes it,
// either lexically or once symlinks are followed.
func (l *Local) resolve(folder string) (string, error) {
	base := filepath.Join(l.root, filepath.FromSlash(folder))
	if !within(l.root, base) {
		return "", &AccessError{Folder: folder, Err: ErrOutsideRoot}
	}
	ok, err := l.confined(base)
	if err != nil {
		return "", &AccessError{Folder: folder, Err: err}
	}
	if !ok {
		return "", &AccessError{Folder: folder, Err: ErrOutsideRoot}
	}
	return base, nil
}

// confined reports whether path stays below the root after symlinks in
// both are evaluated. path need not exist yet.
func (l *Local) confined(path string) (bool, error) {
	root, err := realPath(l.root)
	if err != nil {
		return false, err
	}
	resolved, err := realPath(path)
	if err != nil {
		return false, err
	}
	return within(root, resolved), nil
}

// realPath evaluates symlinks in the deepest existing ancestor of path and
// joins the missing remainder back on.
func realPath(path string) (string, error) {
	var missing []string
	for {
		resolved, err := filepath.EvalSymlinks(path)
		if err == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(path)
		if parent == path {
			return filepath.Join(append([]string{path}, missing...)...), nil
		}
		missing = append([]string{filepath.Base(path)}, missing...)
		path = parent
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// List returns every regular file under folder matching pattern, with ids
// relative to folder in slash form, sorted by id.
func (l *Local) List(ctx context.Context, folder, pattern string) ([]model.SourceItem, error) {
	logger := ctxlog.FromContext(ctx).With("folder", folder, "pattern", pattern)
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern '%s'", pattern)
	}

	base, err := l.resolve(folder)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return nil, &AccessError{Folder: folder, Err: ErrNotDirectory}
	}

	matches, err := doublestar.Glob(os.DirFS(base), pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
	if err != nil {
		return nil, fmt.Errorf("failed to list '%s': %w", folder, err)
	}
	slices.Sort(matches)

	items := make([]model.SourceItem, 0, len(matches))
	for _, id := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(filepath.Join(base, filepath.FromSlash(id)))
		if err != nil {
			return nil, fmt.Errorf("failed to read '%s': %w", id, err)
		}
		items = append(items, model.SourceItem{ID: id, Content: string(content)})
	}
	logger.Debug("Listed source files.", "count", len(items))
	return items, nil
}

// Write persists artifacts below folder, creating directories as needed. It
// stops at the first failure; files already written stay on disk.
func (l *Local) Write(ctx context.Context, folder string, artifacts []model.OutputArtifact) error {
	logger := ctxlog.FromContext(ctx).With("folder", folder)
	if len(artifacts) == 0 {
		logger.Warn("No files to write.")
		return nil
	}

	base, err := l.resolve(folder)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return &WriteError{Item: artifacts[0].ID, Err: err}
	}
	logger.Debug("Storage path created.", "path", base)

	var written []string
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return &WriteError{Item: a.ID, Written: written, Err: err}
		}
		path := filepath.Join(base, filepath.FromSlash(a.ID))
		if !within(base, path) {
			return &WriteError{Item: a.ID, Written: written, Err: ErrOutsideRoot}
		}
		if ok, err := l.confined(filepath.Dir(path)); err != nil || !ok {
			if err == nil {
				err = ErrOutsideRoot
			}
			return &WriteError{Item: a.ID, Written: written, Err: err}
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return &WriteError{Item: a.ID, Written: written, Err: err}
		}
		if err := os.WriteFile(path, []byte(a.Text), 0o644); err != nil {
			logger.Error("Error writing file.", "item", a.ID, "error", err)
			return &WriteError{Item: a.ID, Written: written, Err: err}
		}
		written = append(written, a.ID)
		l.metrics.ObserveWritten(1)
		logger.Debug("File written.", "item", a.ID, "path", path)
	}

	logger.Info("All files have been written.", "count", len(written), "path", base)
	return nil
}
