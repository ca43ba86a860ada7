package pipeline

import (
	"context"
	"strings"

	"github.com/specialistvlad/testgrid/internal/channel"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/graph"
	"github.com/specialistvlad/testgrid/internal/model"
)

// Filter reports whether an item should be processed.
type Filter func(item model.SourceItem) bool

// KeepAll keeps every item.
func KeepAll(model.SourceItem) bool { return true }

// MarkerFilter drops items whose id contains marker. An empty marker keeps
// everything.
func MarkerFilter(marker string) Filter {
	if marker == "" {
		return KeepAll
	}
	return func(item model.SourceItem) bool {
		return !strings.Contains(item.ID, marker)
	}
}

// NewScanner compiles the Scanner graph: List, then Filter.
func NewScanner(s Storage, pattern string, keep Filter) (*graph.Graph, error) {
	list := func(ctx context.Context, in channel.View) (channel.Update, error) {
		folder, err := channel.Value[string](in, SourceFolder)
		if err != nil {
			return nil, err
		}
		items, err := s.List(ctx, folder, pattern)
		if err != nil {
			return nil, err
		}
		ctxlog.FromContext(ctx).Info("Scanned source folder.", "folder", folder, "items", len(items))
		return channel.Update{Items: channel.UpsertOf(items...)}, nil
	}

	filter := func(ctx context.Context, in channel.View) (channel.Update, error) {
		items, err := channel.Entries[model.SourceItem](in, Items)
		if err != nil {
			return nil, err
		}
		logger := ctxlog.FromContext(ctx)
		var drop []string
		for _, item := range items {
			if !keep(item) {
				logger.Debug("Item filtered out.", "item", item.ID)
				drop = append(drop, item.ID)
			}
		}
		logger.Info("Filtered source items.", "kept", len(items)-len(drop), "dropped", len(drop))
		if len(drop) == 0 {
			return nil, nil
		}
		return channel.Update{Items: channel.RemoveOf(drop...)}, nil
	}

	return graph.New("Scanner").
		Input(sourceFolderCh).
		Output(itemsCh).
		AddNode("List", list, graph.Reads(SourceFolder), graph.Writes(Items)).
		AddNode("Filter", filter, graph.Reads(Items), graph.Writes(Items)).
		AddEdge(graph.Start, "List").
		AddEdge("List", "Filter").
		AddEdge("Filter", graph.End).
		Compile()
}
