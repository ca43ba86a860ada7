package pipeline

import (
	"cmp"
	"context"
	"path"
	"slices"
	"strings"

	"github.com/specialistvlad/testgrid/internal/channel"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/graph"
	"github.com/specialistvlad/testgrid/internal/model"
	"github.com/specialistvlad/testgrid/internal/prompt"
	"github.com/specialistvlad/testgrid/internal/textgen"
)

// Namer derives the output id for a source item id.
type Namer func(sourceID string) string

// DefaultNamer places the output beside its source: "pkg/a.py" becomes
// "pkg/test_a.py". Go sources become "<stem>_test.go" instead, the only
// form the Go toolchain compiles as tests.
func DefaultNamer(sourceID string) string {
	dir, base := path.Split(sourceID)
	if stem, ok := strings.CutSuffix(base, ".go"); ok {
		return dir + stem + "_test.go"
	}
	return dir + "test_" + base
}

// Consolidator merges the artifacts of one item into a single text. It is
// only called with two or more artifacts, ordered by unit discovery.
type Consolidator interface {
	Consolidate(ctx context.Context, item model.SourceItem, group []model.GeneratedArtifact) (string, error)
}

// TextConsolidator consolidates with one text generation call.
type TextConsolidator struct {
	Generator textgen.Generator
}

// Consolidate implements Consolidator.
func (c *TextConsolidator) Consolidate(ctx context.Context, item model.SourceItem, group []model.GeneratedArtifact) (string, error) {
	texts := make([]string, len(group))
	for i, a := range group {
		texts[i] = strings.TrimSpace(a.Text)
	}
	msgs, err := prompt.Consolidate(prompt.LanguageOf(item.ID), texts)
	if err != nil {
		return "", err
	}
	text, err := c.Generator.Generate(ctx, textgen.Request{Step: textgen.StepConsolidate, Messages: msgs})
	if err != nil {
		return "", err
	}
	return prompt.ExtractCode(text), nil
}

// Consolidate produces the output text for one item's group. A single
// artifact is used verbatim; larger groups go through c once, sorted by
// unit index. An empty group is a MergeInvariantError.
func Consolidate(ctx context.Context, c Consolidator, item model.SourceItem, group []model.GeneratedArtifact) (string, error) {
	switch len(group) {
	case 0:
		return "", &MergeInvariantError{Item: item.ID, Reason: "no generated artifacts to merge"}
	case 1:
		return group[0].Text, nil
	}
	ordered := slices.Clone(group)
	slices.SortStableFunc(ordered, func(a, b model.GeneratedArtifact) int {
		return cmp.Compare(a.UnitIndex, b.UnitIndex)
	})
	return c.Consolidate(ctx, item, ordered)
}

// merge groups artifacts by owning item and emits one output per item.
func merge(c Consolidator, name Namer) graph.NodeFunc {
	return func(ctx context.Context, in channel.View) (channel.Update, error) {
		items, err := channel.Entries[model.SourceItem](in, Items)
		if err != nil {
			return nil, err
		}
		arts, err := channel.Entries[model.GeneratedArtifact](in, Artifacts)
		if err != nil {
			return nil, err
		}

		groups := make(map[string][]model.GeneratedArtifact, len(items))
		for _, item := range items {
			groups[item.ID] = nil
		}
		for _, a := range arts {
			if _, ok := groups[a.ItemID]; !ok {
				return nil, &MergeInvariantError{Item: a.ItemID, Reason: "artifact for unit '" + a.UnitID + "' has no owning item"}
			}
			groups[a.ItemID] = append(groups[a.ItemID], a)
		}

		outputs := make([]model.OutputArtifact, 0, len(items))
		for _, item := range items {
			group := groups[item.ID]
			text, err := Consolidate(ctx, c, item, group)
			if err != nil {
				return nil, err
			}
			out := model.OutputArtifact{ID: name(item.ID), SourceID: item.ID, Text: text}
			ctxlog.FromContext(ctx).Debug("Item merged.", "item", item.ID, "artifacts", len(group), "output", out.ID)
			outputs = append(outputs, out)
		}
		return channel.Update{Outputs: channel.UpsertOf(outputs...)}, nil
	}
}
