package pipeline

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func newEngine(t *testing.T, conf *Conf) *Engine {
	t.Helper()
	e, err := Standard(context.Background(), conf)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func exec(t *testing.T, e *Engine, src string) (value.Value, *world.World, error) {
	t.Helper()
	w := world.NewSeeded(world.SeedFromString("pipeline"))
	return e.Exec(context.Background(), "test", src, w, nil)
}

func TestExec(t *testing.T) {
	e := newEngine(t, nil)
	v, w, err := exec(t, e, `(set! score 5) (add! score 10) (get score)`)
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Num(15)) {
		t.Fatal(v)
	}
	if got, _ := w.Get(core.Path{"score"}); !value.Equal(got, value.Num(15)) {
		t.Fatal(got)
	}
}

func TestProgramDefinitions(t *testing.T) {
	e := newEngine(t, nil)
	src := `
;; Double the number at p.
(define (double! p) (mul! p 2))
(set! x 4)
(double! x)
(get x)`
	v, _, err := exec(t, e, src)
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Num(8)) {
		t.Fatal(v)
	}

	p, err := e.Compile("test", src)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Defined) != 1 || p.Defined[0] != "double!" {
		t.Fatal(p.Defined)
	}
	m, _ := p.Macros.Lookup("double!")
	if m.Doc() != "Double the number at p." {
		t.Fatal(m.Doc())
	}
	// The Engine's registry isn't changed.
	if e.Macros.Has("double!") {
		t.Fatal("leaked definition")
	}
	if len(p.Forms) != 3 || len(p.Original) != 3 {
		t.Fatal(p.Forms)
	}
}

func TestDuplicateDefinition(t *testing.T) {
	e := newEngine(t, nil)
	_, _, err := exec(t, e, "(define (f x) x)\n(define (f y) y)")
	ce, is := core.AsError(err)
	if !is || ce.Code != core.DuplicateName {
		t.Fatal(err)
	}
	if len(ce.Related) != 1 || ce.Related[0].Span.Start != 0 {
		t.Fatal(ce.Related)
	}
	if ce.Origin != "test" || ce.Snippet != "(define (f y) y)" {
		t.Fatal(ce)
	}
}

func TestErrorEnrichment(t *testing.T) {
	e := newEngine(t, nil)

	_, _, err := exec(t, e, "(set! a 1)\n(prnt 1)")
	ce, is := core.AsError(err)
	if !is || ce.Kind != core.ValidationKind || ce.Code != core.UnknownAtom {
		t.Fatal(err)
	}
	if ce.Snippet != "(prnt 1)" || ce.Origin != "test" {
		t.Fatal(ce)
	}

	_, _, err = exec(t, e, "(set! a 1)\n(inc! a 2)")
	if ce, is = core.AsError(err); !is || ce.Kind != core.MacroKind || ce.Code != core.Arity {
		t.Fatal(err)
	}
	if ce.Snippet != "(inc! a 2)" {
		t.Fatal(ce.Snippet)
	}

	_, _, err = exec(t, e, "(set! a 1)\n(/ (get a) 0)")
	if ce, is = core.AsError(err); !is || ce.Kind != core.EvalKind || ce.Code != core.DivisionByZero {
		t.Fatal(err)
	}
	if ce.Snippet != "(/ (get a) 0)" {
		t.Fatal(ce.Snippet)
	}

	_, _, err = exec(t, e, "(set! a")
	if ce, is = core.AsError(err); !is || ce.Kind != core.ParseKind {
		t.Fatal(err)
	}
}

func TestNoValidation(t *testing.T) {
	conf := DefaultConf()
	conf.Validate = false
	e := newEngine(t, conf)

	// Without validation, output happens before the error.
	out := core.NewBuffer()
	w := world.NewSeeded(world.SeedFromString("pipeline"))
	_, _, err := e.Exec(context.Background(), "test", `(println "hi") (prnt 1)`, w, out)
	ce, is := core.AsError(err)
	if !is || ce.Kind != core.EvalKind {
		t.Fatal(err)
	}
	if out.String() != "hi\n" {
		t.Fatal(out.String())
	}
}

func TestCache(t *testing.T) {
	e := newEngine(t, nil)
	p1, err := e.Compile("test", "(+ 1 2)")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := e.Compile("test", "(+ 1 2)")
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Fatal("not cached")
	}

	conf := DefaultConf()
	conf.CacheTTL = 0
	e = newEngine(t, conf)
	if p1, err = e.Compile("test", "(+ 1 2)"); err != nil {
		t.Fatal(err)
	}
	if p2, err = e.Compile("test", "(+ 1 2)"); err != nil {
		t.Fatal(err)
	}
	if p1 == p2 {
		t.Fatal("cached")
	}
}

func TestRunCanceled(t *testing.T) {
	e := newEngine(t, nil)
	p, err := e.Compile("test", "(+ 1 2)")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err = e.Run(ctx, p, world.New(), nil); err != context.Canceled {
		t.Fatal(err)
	}
}

func TestDepthConf(t *testing.T) {
	conf := DefaultConf()
	conf.MaxEvalDepth = 20
	e := newEngine(t, conf)
	_, _, err := exec(t, e, `(set! f (lambda (n) (call (get f) (get n)))) (call (get f) 1)`)
	if ce, is := core.AsError(err); !is || ce.Code != core.RecursionLimit {
		t.Fatal(err)
	}

	conf = DefaultConf()
	conf.MaxExpandDepth = 5
	e = newEngine(t, conf)
	_, _, err = exec(t, e, `(define (loop x) (loop x)) (loop 1)`)
	ce, is := core.AsError(err)
	if !is || ce.Code != core.RecursionLimit || ce.Kind != core.MacroKind || ce.Callee != "loop" {
		t.Fatal(err)
	}
}

func TestParseConf(t *testing.T) {
	c, err := ParseConf([]byte(`
maxEvalDepth: 100
seed: "0102"
cacheTTL: 1m
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.MaxEvalDepth != 100 || c.MaxExpandDepth != 64 || !c.Validate || c.CacheTTL != time.Minute {
		t.Fatal(c)
	}
	seed, have, err := c.ParseSeed()
	if err != nil || !have || seed[0] != 1 || seed[1] != 2 || seed[2] != 0 {
		t.Fatal(seed, have, err)
	}

	w1, err := c.NewWorld()
	if err != nil {
		t.Fatal(err)
	}
	w2, _ := c.NewWorld()
	if !w1.Equal(w2) {
		t.Fatal("seeded worlds differ")
	}

	if _, err = ParseConf([]byte(`seed: xyz`)); err == nil {
		t.Fatal("bad seed accepted")
	}
	if _, err = ParseConf([]byte(`maxEvalDepth: [1]`)); err == nil {
		t.Fatal("bad conf accepted")
	}
}

func TestStandardFiles(t *testing.T) {
	dir, err := ioutil.TempDir("", "pipeline")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	macros := filepath.Join(dir, "more.sutra")
	if err = ioutil.WriteFile(macros, []byte(`(define (triple! p) (mul! p 3))`), 0644); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, "more.js")
	if err = ioutil.WriteFile(script, []byte(`return {shout: function(s) { return s.toUpperCase(); }};`), 0644); err != nil {
		t.Fatal(err)
	}

	conf := DefaultConf()
	conf.MacroFiles = []string{macros}
	conf.Scripts = []string{script}
	e := newEngine(t, conf)

	v, _, err := exec(t, e, `(set! x 2) (triple! x) (shout (str "n=" (get x)))`)
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Str("N=6")) {
		t.Fatal(v)
	}

	conf.MacroFiles = []string{filepath.Join(dir, "missing.sutra")}
	if _, err = Standard(context.Background(), conf); err == nil {
		t.Fatal("missing file accepted")
	}
}
