package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	t.Parallel()

	t.Run("rejects duplicate names", func(t *testing.T) {
		_, err := NewState(Scalar[string]("x"), Scalar[int]("x"))
		assert.ErrorContains(t, err, "declared twice")
	})

	t.Run("logs start populated, scalars do not", func(t *testing.T) {
		s, err := NewState(Scalar[string]("folder"), LogOf[rec]("items"))
		require.NoError(t, err)

		assert.False(t, s.Populated("folder"))
		assert.True(t, s.Populated("items"))

		v, ok := s.Get("items")
		require.True(t, ok)
		assert.Empty(t, v)
	})
}

func TestState_Apply(t *testing.T) {
	t.Parallel()

	t.Run("overwrite and upsert", func(t *testing.T) {
		// --- Arrange ---
		s, err := NewState(Scalar[string]("folder"), LogOf[rec]("items"))
		require.NoError(t, err)

		// --- Act ---
		err = s.Apply(Update{"folder": "src", "items": UpsertOf(rec{"a", 1})})
		require.NoError(t, err)
		err = s.Apply(Update{"folder": "other"})
		require.NoError(t, err)

		// --- Assert ---
		v, ok := s.Get("folder")
		require.True(t, ok)
		assert.Equal(t, "other", v)
		items, _ := s.Get("items")
		assert.Equal(t, []rec{{"a", 1}}, items)
	})

	t.Run("batch applies in order", func(t *testing.T) {
		s, err := NewState(LogOf[rec]("items"))
		require.NoError(t, err)
		require.NoError(t, s.Apply(Update{"items": UpsertOf(rec{"a", 1}, rec{"b", 1})}))

		err = s.Apply(Update{"items": Batch{UpsertOf(rec{"b", 2}, rec{"c", 1}), RemoveOf("a")}})
		require.NoError(t, err)

		items, _ := s.Get("items")
		assert.Equal(t, []rec{{"b", 2}, {"c", 1}}, items)
	})

	t.Run("undeclared channel", func(t *testing.T) {
		s, err := NewState(Scalar[string]("folder"))
		require.NoError(t, err)

		err = s.Apply(Update{"nope": 1})
		assert.ErrorIs(t, err, ErrUndeclared)
	})

	t.Run("wrong delta type commits nothing", func(t *testing.T) {
		s, err := NewState(Scalar[string]("a"), Scalar[string]("b"))
		require.NoError(t, err)

		err = s.Apply(Update{"a": "ok", "b": 42})
		require.ErrorIs(t, err, ErrDeltaType)
		assert.False(t, s.Populated("a"))
	})
}

func TestView(t *testing.T) {
	t.Parallel()

	s, err := NewState(Scalar[string]("folder"), LogOf[rec]("items"))
	require.NoError(t, err)
	require.NoError(t, s.Apply(Update{"items": UpsertOf(rec{"a", 1})}))

	v := s.View("folder", "items")
	assert.Equal(t, []string{"items"}, v.Names())

	_, err = Value[string](v, "folder")
	assert.ErrorIs(t, err, ErrNotPopulated)

	items, err := Entries[rec](v, "items")
	require.NoError(t, err)
	assert.Equal(t, []rec{{"a", 1}}, items)

	_, err = Value[int](v, "items")
	assert.ErrorIs(t, err, ErrDeltaType)

	// later writes do not leak into an existing view
	require.NoError(t, s.Apply(Update{"items": UpsertOf(rec{"b", 2})}))
	items, err = Entries[rec](v, "items")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSpec_Compatible(t *testing.T) {
	t.Parallel()

	assert.True(t, Scalar[string]("a").Compatible(Scalar[string]("b")))
	assert.False(t, Scalar[string]("a").Compatible(Scalar[int]("a")))
	assert.False(t, LogOf[rec]("a").Compatible(Scalar[[]rec]("a")))
}
