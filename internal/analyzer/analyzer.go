// Package analyzer splits source files into work units: the functions and
// methods a test generator can handle one at a time.
package analyzer

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/specialistvlad/testgrid/internal/model"
)

// DefaultExclude lists unit names skipped unless configured otherwise.
var DefaultExclude = []string{"__init__"}

// ExtractionError reports a source item that could not be decomposed. It is
// scoped to that item; the run carries on without it.
type ExtractionError struct {
	Item string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract units from '%s': %v", e.Item, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Analyzer extracts work units from one source item.
type Analyzer interface {
	ExtractUnits(ctx context.Context, item model.SourceItem) ([]model.WorkUnit, error)
}

// ByExtension dispatches to an Analyzer chosen by file extension.
type ByExtension map[string]Analyzer

// New returns the default dispatcher: Go sources through go/parser and
// Python sources through the line scanner. exclude names are skipped by both.
func New(exclude []string) ByExtension {
	if exclude == nil {
		exclude = DefaultExclude
	}
	return ByExtension{
		".go": &Go{Exclude: exclude},
		".py": &Python{Exclude: exclude},
	}
}

// ExtractUnits implements Analyzer.
func (b ByExtension) ExtractUnits(ctx context.Context, item model.SourceItem) ([]model.WorkUnit, error) {
	ext := strings.ToLower(path.Ext(item.ID))
	a, ok := b[ext]
	if !ok {
		return nil, &ExtractionError{Item: item.ID, Err: fmt.Errorf("no analyzer for extension '%s'", ext)}
	}
	return a.ExtractUnits(ctx, item)
}

// Extensions returns the registered extensions in sorted order.
func (b ByExtension) Extensions() []string {
	exts := make([]string, 0, len(b))
	for ext := range b {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func excluded(exclude []string, name string) bool {
	return slices.Contains(exclude, name)
}
