package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/specialistvlad/testgrid/internal/ctxlog"
	"github.com/specialistvlad/testgrid/internal/model"
	"github.com/specialistvlad/testgrid/internal/registry"
	"github.com/specialistvlad/testgrid/internal/textgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"def test_f(): pass"}}]}`)
	}))
	t.Cleanup(srv.Close)

	g, err := New(registry.Params{"api_key": "secret", "base_url": srv.URL + "/v1", "model": "m1", "temperature": "0.2"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })

	// --- Act ---
	text, err := g.Generate(testContext(), textgen.Request{
		Step: textgen.StepGenerate,
		Messages: []model.Message{
			model.NewMessage(model.RoleSystem, "you write tests"),
			model.NewMessage(model.RoleUser, "def f(): pass"),
		},
	})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "def test_f(): pass", text)
	assert.Equal(t, "m1", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, 0.2, *got.Temperature, 1e-9)
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("http error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		t.Cleanup(srv.Close)

		g, err := New(registry.Params{"api_key": "k", "base_url": srv.URL})
		require.NoError(t, err)
		_, err = g.Generate(testContext(), textgen.Request{})
		assert.ErrorContains(t, err, "429")
	})

	t.Run("no choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"choices":[]}`)
		}))
		t.Cleanup(srv.Close)

		g, err := New(registry.Params{"api_key": "k", "base_url": srv.URL})
		require.NoError(t, err)
		_, err = g.Generate(testContext(), textgen.Request{})
		assert.ErrorIs(t, err, textgen.ErrEmptyResponse)
	})
}

func TestNew_Params(t *testing.T) {
	t.Parallel()

	_, err := New(registry.Params{})
	assert.ErrorContains(t, err, "api_key")

	_, err = New(registry.Params{"api_key": "k", "timeout": "soon"})
	assert.ErrorContains(t, err, "invalid timeout")

	_, err = New(registry.Params{"api_key": "k", "temperature": "hot"})
	assert.ErrorContains(t, err, "invalid temperature")

	r := registry.New(&Module{})
	_, err = r.Generator(Name, registry.Params{"api_key": "k"})
	assert.NoError(t, err)
}
