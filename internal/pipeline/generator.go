package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/testgrid/internal/analyzer"
	"github.com/specialistvlad/testgrid/internal/channel"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/graph"
	"github.com/specialistvlad/testgrid/internal/model"
)

// NewGenerator compiles the Generator graph. Describe attaches units to the
// items, the Processor graph runs once per unit, and Merge turns the
// per-unit artifacts into one output per item once every branch is done.
func NewGenerator(a analyzer.Analyzer, processor *graph.Graph, c Consolidator, name Namer) (*graph.Graph, error) {
	return graph.New("Generator").
		Input(itemsCh).
		Internal(unitsCh, artifactsCh).
		Output(itemsCh, outputsCh).
		AddNode("Describe", describe(a), graph.Reads(Items), graph.Writes(Items, Units)).
		AddSubgraph("Processor", processor).
		AddNode("Merge", merge(c, name), graph.Reads(Items, Artifacts), graph.Writes(Outputs)).
		AddEdge(graph.Start, "Describe").
		AddFanOut("Describe", "Processor", scatter, Items, Units).
		AddEdge("Processor", "Merge").
		AddEdge("Merge", graph.End).
		Compile()
}

// describe extracts the units of every item. Items that fail extraction or
// have no units are removed and the run goes on without them.
func describe(a analyzer.Analyzer) graph.NodeFunc {
	return func(ctx context.Context, in channel.View) (channel.Update, error) {
		items, err := channel.Entries[model.SourceItem](in, Items)
		if err != nil {
			return nil, err
		}

		var (
			described []model.SourceItem
			units     []model.WorkUnit
			dropped   []string
		)
		for _, item := range items {
			logger := ctxlog.FromContext(ctx).With("item", item.ID)
			found, err := a.ExtractUnits(ctx, item)
			if err == nil {
				found, err = normalize(item.ID, found)
			}
			if err != nil {
				var ee *analyzer.ExtractionError
				if !errors.As(err, &ee) {
					return nil, err
				}
				logger.Warn("Skipping item, extraction failed.", "error", err)
				dropped = append(dropped, item.ID)
				continue
			}
			if len(found) == 0 {
				logger.Warn("Skipping item, no units found.")
				dropped = append(dropped, item.ID)
				continue
			}
			logger.Debug("Item described.", "units", len(found))
			described = append(described, item.WithUnits(found))
			units = append(units, found...)
		}

		ctxlog.FromContext(ctx).Info("Described source items.", "items", len(described), "units", len(units), "skipped", len(dropped))
		upd := channel.Update{Units: channel.UpsertOf(units...)}
		batch := channel.Batch{channel.UpsertOf(described...)}
		if len(dropped) > 0 {
			batch = append(batch, channel.RemoveOf(dropped...))
		}
		upd[Items] = batch
		return upd, nil
	}
}

// normalize stamps owner and discovery index onto units and rejects
// duplicate ids.
func normalize(itemID string, units []model.WorkUnit) ([]model.WorkUnit, error) {
	out := make([]model.WorkUnit, len(units))
	seen := make(map[string]bool, len(units))
	for i, u := range units {
		if seen[u.ID] {
			return nil, &analyzer.ExtractionError{Item: itemID, Err: fmt.Errorf("duplicate unit id '%s'", u.ID)}
		}
		seen[u.ID] = true
		u.ItemID = itemID
		u.Index = i
		out[i] = u
	}
	return out, nil
}

// scatter emits one Processor branch per unit, in item then unit order.
func scatter(in channel.View) ([]graph.Branch, error) {
	items, err := channel.Entries[model.SourceItem](in, Items)
	if err != nil {
		return nil, err
	}
	units, err := channel.Entries[model.WorkUnit](in, Units)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.SourceItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	branches := make([]graph.Branch, 0, len(units))
	for _, u := range units {
		item, ok := byID[u.ItemID]
		if !ok {
			continue
		}
		branches = append(branches, graph.Branch{Seed: map[string]any{Unit: u, Source: item}})
	}
	return branches, nil
}
