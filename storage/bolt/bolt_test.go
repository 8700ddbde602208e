package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/storage"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func TestImpl(t *testing.T) {
	var _ storage.Storage = &Storage{}
}

func open(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "worlds.db"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	t.Cleanup(func() {
		require.NoError(t, s.Close(ctx))
	})
	return s
}

func TestBasics(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	w := world.NewSeeded(world.SeedFromString("simpsons")).
		Set(core.Path{"likes"}, value.Str("tacos")).
		Set(core.Path{"friends", "homer"}, value.List{value.Num(1), value.Bool(true)})
	require.NoError(t, s.Save(ctx, "a", w))
	require.NoError(t, s.Save(ctx, "b", world.New()))

	got, err := s.Load(ctx, "a")
	require.NoError(t, err)
	assert.True(t, w.Equal(got))

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	js, err := s.Raw(ctx, "a")
	require.NoError(t, err)
	assert.Contains(t, string(js), "tacos")

	require.NoError(t, s.Delete(ctx, "b"))
	assert.ErrorIs(t, s.Delete(ctx, "b"), storage.ErrNotFound)
	_, err = s.Load(ctx, "b")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRandomContinues(t *testing.T) {
	ctx := context.Background()
	s := open(t)

	w := world.NewSeeded(world.SeedFromString("rng"))
	_, w = w.NextRandom()
	require.NoError(t, s.Save(ctx, "r", w))

	want, _ := w.NextRandom()
	loaded, err := s.Load(ctx, "r")
	require.NoError(t, err)
	got, _ := loaded.NextRandom()
	assert.Equal(t, want, got)
}
