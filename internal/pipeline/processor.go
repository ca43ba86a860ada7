package pipeline

import (
	"context"

	"github.com/specialistvlad/testgrid/internal/channel"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/graph"
	"github.com/specialistvlad/testgrid/internal/model"
	"github.com/specialistvlad/testgrid/internal/prompt"
	"github.com/specialistvlad/testgrid/internal/textgen"
)

// NewProcessor compiles the Processor graph, run once per work unit:
// Format, Explain, Plan and GenerateText. Each step makes one generation
// call; the conversation log carries context from Explain onwards.
func NewProcessor(gen textgen.Generator) (*graph.Graph, error) {
	p := &processor{gen: gen}
	return graph.New("Processor").
		Input(unitCh, sourceCh).
		Internal(codeCh, conversationCh).
		Output(artifactsCh).
		AddNode("Format", p.format, graph.Reads(Unit, Source), graph.Writes(Code)).
		AddNode("Explain", p.explain, graph.Reads(Code, Source), graph.Writes(Conversation)).
		AddNode("Plan", p.plan, graph.Reads(Conversation, Source), graph.Writes(Conversation)).
		AddNode("GenerateText", p.generate, graph.Reads(Conversation, Unit, Source), graph.Writes(Artifacts)).
		AddEdge(graph.Start, "Format").
		AddEdge("Format", "Explain").
		AddEdge("Explain", "Plan").
		AddEdge("Plan", "GenerateText").
		AddEdge("GenerateText", graph.End).
		Compile()
}

type processor struct {
	gen textgen.Generator
}

// format dispatches on the unit kind. Kinds without a prompt keep their raw
// text and cost no generation call.
func (p *processor) format(ctx context.Context, in channel.View) (channel.Update, error) {
	unit, err := channel.Value[model.WorkUnit](in, Unit)
	if err != nil {
		return nil, err
	}
	src, err := channel.Value[model.SourceItem](in, Source)
	if err != nil {
		return nil, err
	}

	msgs, ok, err := prompt.Format(src, unit)
	if err != nil {
		return nil, err
	}
	if !ok {
		ctxlog.FromContext(ctx).Debug("No format prompt for unit kind, keeping raw text.", "unit", unit.ID, "kind", unit.Kind)
		return channel.Update{Code: unit.Text}, nil
	}
	text, err := p.gen.Generate(ctx, textgen.Request{Step: textgen.StepFormat, Messages: msgs})
	if err != nil {
		return nil, err
	}
	return channel.Update{Code: prompt.ExtractCode(text)}, nil
}

func (p *processor) explain(ctx context.Context, in channel.View) (channel.Update, error) {
	code, err := channel.Value[string](in, Code)
	if err != nil {
		return nil, err
	}
	src, err := channel.Value[model.SourceItem](in, Source)
	if err != nil {
		return nil, err
	}

	msgs, err := prompt.Explain(src, code)
	if err != nil {
		return nil, err
	}
	return p.reply(ctx, textgen.StepExplain, msgs, msgs)
}

func (p *processor) plan(ctx context.Context, in channel.View) (channel.Update, error) {
	conv, err := channel.Entries[model.Message](in, Conversation)
	if err != nil {
		return nil, err
	}
	src, err := channel.Value[model.SourceItem](in, Source)
	if err != nil {
		return nil, err
	}

	ask, err := prompt.Plan(prompt.LanguageOf(src.ID))
	if err != nil {
		return nil, err
	}
	msgs := append(append([]model.Message(nil), conv...), ask)
	return p.reply(ctx, textgen.StepPlan, msgs, []model.Message{ask})
}

// reply sends msgs and appends fresh plus the answer to the conversation.
func (p *processor) reply(ctx context.Context, step string, msgs, fresh []model.Message) (channel.Update, error) {
	text, err := p.gen.Generate(ctx, textgen.Request{Step: step, Messages: msgs})
	if err != nil {
		return nil, err
	}
	added := append(append([]model.Message(nil), fresh...), model.NewMessage(model.RoleAssistant, text))
	return channel.Update{Conversation: channel.UpsertOf(added...)}, nil
}

func (p *processor) generate(ctx context.Context, in channel.View) (channel.Update, error) {
	conv, err := channel.Entries[model.Message](in, Conversation)
	if err != nil {
		return nil, err
	}
	unit, err := channel.Value[model.WorkUnit](in, Unit)
	if err != nil {
		return nil, err
	}
	src, err := channel.Value[model.SourceItem](in, Source)
	if err != nil {
		return nil, err
	}

	msgs, err := prompt.Generate(prompt.LanguageOf(src.ID), conv)
	if err != nil {
		return nil, err
	}
	text, err := p.gen.Generate(ctx, textgen.Request{Step: textgen.StepGenerate, Messages: msgs})
	if err != nil {
		return nil, err
	}
	art := model.GeneratedArtifact{ItemID: unit.ItemID, UnitID: unit.ID, UnitIndex: unit.Index, Text: prompt.ExtractCode(text)}
	return channel.Update{Artifacts: channel.UpsertOf(art)}, nil
}
