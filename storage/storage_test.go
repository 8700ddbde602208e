package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/syntax"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func exercise(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	defer func() {
		require.NoError(t, s.Close(ctx))
	}()

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	w := world.NewSeeded(world.SeedFromString("store")).
		Set(core.Path{"player", "score"}, value.Num(42)).
		Set(core.Path{"where"}, value.Path(core.Path{"player", "score"}))
	require.NoError(t, s.Save(ctx, "one", w))
	require.NoError(t, s.Save(ctx, "two", world.New()))

	got, err := s.Load(ctx, "one")
	require.NoError(t, err)
	assert.True(t, w.Equal(got), "%s", got)

	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, names)

	// Overwrite.
	w = w.Set(core.Path{"player", "score"}, value.Num(43))
	require.NoError(t, s.Save(ctx, "one", w))
	got, err = s.Load(ctx, "one")
	require.NoError(t, err)
	x, _ := got.Get(core.Path{"player", "score"})
	assert.True(t, value.Equal(x, value.Num(43)))

	require.NoError(t, s.Delete(ctx, "two"))
	assert.ErrorIs(t, s.Delete(ctx, "two"), ErrNotFound)
	_, err = s.Load(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestJSONStore(t *testing.T) {
	s := NewJSONStore(t.TempDir())
	s.Indent = true
	exercise(t, s)
}

func TestJSONStoreNames(t *testing.T) {
	ctx := context.Background()
	s := NewJSONStore(t.TempDir())
	require.NoError(t, s.Open(ctx))
	for _, name := range []string{"", "../x", "a/b", ".hidden"} {
		assert.Error(t, s.Save(ctx, name, world.New()), name)
	}
}

func TestEncodeLambda(t *testing.T) {
	body, err := syntax.ParseOne("test", `(+ (get x) (get y))`)
	require.NoError(t, err)
	f := &value.Lambda{
		Params: &ast.ParamList{Required: []string{"x"}},
		Body:   body,
		Env:    value.NewEnv(map[string]value.Value{"y": value.Num(1)}),
	}
	w := world.New().Set(core.Path{"f"}, f)

	js, err := Encode(w)
	require.NoError(t, err)
	w, err = Decode(js)
	require.NoError(t, err)

	x, _ := w.Get(core.Path{"f"})
	g, is := x.(*value.Lambda)
	require.True(t, is, "%T", x)
	assert.Equal(t, []string{"x"}, g.Params.Required)
	assert.Equal(t, body.String(), g.Body.String())
	y, _ := g.Env.Lookup("y")
	assert.True(t, value.Equal(y, value.Num(1)))
}

func TestEncodeLambdaPaths(t *testing.T) {
	for _, seg := range []string{"a b", "a.b", "true", "nil", "false", "42", "-x", `q"uote`, "(", "plain"} {
		t.Run(seg, func(t *testing.T) {
			p := core.Path{"top", seg}
			f := &value.Lambda{
				Params: &ast.ParamList{},
				Body:   ast.Call(core.Span{}, "core/get", &ast.PathExpr{Path: p}),
				Env:    value.NewEnv(nil),
			}
			js, err := Encode(world.New().Set(core.Path{"f"}, f))
			require.NoError(t, err)
			w, err := Decode(js)
			require.NoError(t, err)

			x, _ := w.Get(core.Path{"f"})
			g, is := x.(*value.Lambda)
			require.True(t, is, "%T", x)
			call, is := g.Body.(*ast.List)
			require.True(t, is, "%T", g.Body)
			require.Len(t, call.Items, 2)
			pe, is := call.Items[1].(*ast.PathExpr)
			require.True(t, is, "%T", call.Items[1])
			assert.Equal(t, p, pe.Path)
		})
	}
}
