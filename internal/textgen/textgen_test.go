package textgen

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/metrics"
	"github.com/specialistvlad/testgrid/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_Prompt(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Request{}.Prompt())
	req := Request{Messages: []model.Message{
		model.NewMessage(model.RoleSystem, "sys"),
		model.NewMessage(model.RoleUser, "last"),
	}}
	assert.Equal(t, "last", req.Prompt())
}

func TestInstrument(t *testing.T) {
	t.Parallel()
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("passes text through", func(t *testing.T) {
		m := metrics.New()
		g := Instrument("stub", Func(func(context.Context, Request) (string, error) { return "ok", nil }), m)

		text, err := g.Generate(ctx, Request{Step: StepPlan})
		require.NoError(t, err)
		assert.Equal(t, "ok", text)
	})

	t.Run("wraps failures", func(t *testing.T) {
		boom := errors.New("503")
		g := Instrument("stub", Func(func(context.Context, Request) (string, error) { return "", boom }), nil)

		_, err := g.Generate(ctx, Request{Step: StepExplain})
		var ge *GenerationError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, "stub", ge.Backend)
		assert.Equal(t, StepExplain, ge.Step)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("empty text is a failure", func(t *testing.T) {
		m := metrics.New()
		g := Instrument("stub", Func(func(context.Context, Request) (string, error) { return "", nil }), m)

		_, err := g.Generate(ctx, Request{Step: StepGenerate})
		assert.ErrorIs(t, err, ErrEmptyResponse)
		n, err := testutil.GatherAndCount(m.Registry(), "testgrid_generation_calls_total")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
