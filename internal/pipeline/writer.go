package pipeline

import (
	"context"

	"github.com/specialistvlad/testgrid/internal/channel"
	"github.com/specialistvlad/testgrid/internal/graph"
	"github.com/specialistvlad/testgrid/internal/model"
)

// NewWriter compiles the Writer graph. It persists the outputs log and hands
// it back unchanged.
func NewWriter(s Storage) (*graph.Graph, error) {
	write := func(ctx context.Context, in channel.View) (channel.Update, error) {
		folder, err := channel.Value[string](in, TargetFolder)
		if err != nil {
			return nil, err
		}
		outputs, err := channel.Entries[model.OutputArtifact](in, Outputs)
		if err != nil {
			return nil, err
		}
		return nil, s.Write(ctx, folder, outputs)
	}

	return graph.New("Writer").
		Input(targetFolderCh, outputsCh).
		Output(outputsCh).
		AddNode("Write", write, graph.Reads(TargetFolder, Outputs)).
		AddEdge(graph.Start, "Write").
		AddEdge("Write", graph.End).
		Compile()
}
