package crew

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/pipeline"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func newEngine(t *testing.T) *pipeline.Engine {
	t.Helper()
	e, err := pipeline.Standard(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestSessionProcess(t *testing.T) {
	ctx := context.Background()
	s, err := NewSession(newEngine(t), world.NewSeeded(world.SeedFromString("crew")))
	require.NoError(t, err)
	require.NotEmpty(t, s.Id)

	r := s.Process(ctx, "one", `(set! n 1) (println "n is" (get n)) (get n)`)
	require.NoError(t, r.Error)
	assert.True(t, value.Equal(r.Value, value.Num(1)))
	assert.Equal(t, []string{"n is 1\n"}, r.Output)
	assert.Equal(t, 1, s.Processed)

	r = s.Process(ctx, "two", `(inc! n) (get n)`)
	require.NoError(t, r.Error)
	assert.True(t, value.Equal(r.Value, value.Num(2)))
}

func TestSessionErrorKeepsWorld(t *testing.T) {
	ctx := context.Background()
	s, err := NewSession(newEngine(t), nil)
	require.NoError(t, err)

	r := s.Process(ctx, "setup", `(set! n 1)`)
	require.NoError(t, r.Error)
	before := s.Current()

	r = s.Process(ctx, "bad", `(set! n 2) (print "partial") (/ 1 0)`)
	require.Error(t, r.Error)
	assert.ErrorIs(t, r.Error, core.ErrDivisionByZero)
	assert.Equal(t, []string{"partial"}, r.Output)
	assert.Contains(t, r.Diag, "EVAL ERROR")
	assert.Contains(t, r.Diag, "division by zero")

	assert.True(t, before.Equal(s.Current()))
	got, _ := s.Current().Get(core.Path{"n"})
	assert.True(t, value.Equal(got, value.Num(1)))
	assert.Equal(t, 1, s.Processed)
}

func TestResultJSON(t *testing.T) {
	s, err := NewSession(newEngine(t), nil)
	require.NoError(t, err)

	r := s.Process(context.Background(), "json", `(list 1 "two")`)
	js, err := json.Marshal(r)
	require.NoError(t, err)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(js, &got))
	assert.Equal(t, []interface{}{1.0, "two"}, got["value"])
	assert.Equal(t, s.Id, got["session"])

	r = s.Process(context.Background(), "json", `(nope)`)
	js, err = json.Marshal(r)
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal(js, &got))
	e, is := got["error"].(map[string]interface{})
	require.True(t, is, "%s", js)
	assert.Equal(t, "validation", e["kind"])
	assert.Equal(t, "unknown-atom", e["code"])
}

func TestCrew(t *testing.T) {
	c := NewCrew("test", newEngine(t))

	s, err := c.Open(nil)
	require.NoError(t, err)

	got, err := c.Get(s.Id)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = c.Add(s.Id, world.New())
	assert.ErrorIs(t, err, ErrSessionExists)

	_, err = c.Add("fixed", world.NewSeeded(world.SeedFromString("fixed")))
	require.NoError(t, err)
	assert.Len(t, c.Ids(), 2)
	assert.Contains(t, c.Ids(), "fixed")

	require.NoError(t, c.Remove("fixed"))
	assert.ErrorIs(t, c.Remove("fixed"), ErrNoSuchSession)
	_, err = c.Get("fixed")
	assert.ErrorIs(t, err, ErrNoSuchSession)
}

func TestCrewCopy(t *testing.T) {
	ctx := context.Background()
	c := NewCrew("test", newEngine(t))
	s, err := c.Add("a", world.NewSeeded(world.SeedFromString("a")))
	require.NoError(t, err)

	snapshot := c.Copy()
	r := s.Process(ctx, "a", `(set! x 1)`)
	require.NoError(t, r.Error)

	old, err := snapshot.Get("a")
	require.NoError(t, err)
	assert.False(t, old.Current().Exists(core.Path{"x"}))
	assert.True(t, c.Worlds()["a"].Exists(core.Path{"x"}))
}

func TestConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	c := NewCrew("test", newEngine(t))
	s, err := c.Open(world.NewSeeded(world.SeedFromString("c")))
	require.NoError(t, err)
	require.NoError(t, s.Process(ctx, "zero", `(set! n 0)`).Error)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Process(ctx, "inc", `(inc! n)`)
		}()
	}
	wg.Wait()

	got, _ := s.Current().Get(core.Path{"n"})
	assert.True(t, value.Equal(got, value.Num(20)), "%s", got)
	assert.Equal(t, 21, s.Processed)
}
