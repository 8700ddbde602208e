package macro

import (
	"errors"
	"strings"
	"testing"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/syntax"
	. "github.com/Comcast/sutra/util/testutil"
)

func parse1(t *testing.T, src string) ast.Expr {
	t.Helper()
	x, err := syntax.ParseOne("test", src)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func expandWith(t *testing.T, r *Registry, src string) (ast.Expr, error) {
	t.Helper()
	return NewExpander(r).Expand(parse1(t, src))
}

func mustExpand(t *testing.T, r *Registry, src string) string {
	t.Helper()
	y, err := expandWith(t, r, src)
	if err != nil {
		t.Fatal(err)
	}
	return y.String()
}

func withDefs(t *testing.T, defs string) *Registry {
	t.Helper()
	r := Standard()
	if err := Load(r, "defs", defs, nil); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestExpandIncrement(t *testing.T) {
	got := mustExpand(t, Standard(), `(inc! score)`)
	want := Squash(`(core/set! (path score)
	                  (+ (core/get (path score)) 1))`)
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestExpandStandard(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`(get player.hp)`, `(core/get (path player hp))`},
		{`(get "a.b")`, `(core/get (path a b))`},
		{`(get (path a b))`, `(core/get (path a b))`},
		{`(get (f))`, `(core/get (f))`},
		{`(set! score 5)`, `(core/set! (path score) 5)`},
		{`(del! a.b)`, `(core/del! (path a b))`},
		{`(exists? a)`, `(core/exists? (path a))`},
		{`(add! score 10)`, `(core/set! (path score) (+ (core/get (path score)) 10))`},
		{`(dec! n)`, `(core/set! (path n) (- (core/get (path n)) 1))`},
		{`(when (gt? 1 0) (println "a") (println "b"))`,
			`(if (gt? 1 0) (do (println "a") (println "b")) nil)`},
		{`(unless c (f))`, `(if c nil (f))`},
		{`(toggle! flag)`, `(core/set! (path flag) (not (core/get (path flag))))`},
		{`(push! xs 1)`, `(core/set! (path xs) (append (core/get (path xs)) 1))`},
		{`(say "a" 1)`, `(println "a" 1)`},
		{`(if (exists? a) (inc! a) (set! a 0))`,
			`(if (core/exists? (path a)) (core/set! (path a) (+ (core/get (path a)) 1)) (core/set! (path a) 0))`},
		{`'(inc! x)`, `(quote (inc! x))`},
		{`(f ...(list (inc! x)))`, `(f ...(list (core/set! (path x) (+ (core/get (path x)) 1))))`},
	}

	r := Standard()
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			if got := mustExpand(t, r, test.src); got != test.want {
				t.Fatalf("got  %s\nwant %s", got, test.want)
			}
		})
	}
}

func TestExpandCond(t *testing.T) {
	got := mustExpand(t, Standard(), `(cond ((p1) e1) ((p2) e2) (else e3))`)
	if want := `(if (p1) e1 (if (p2) e2 e3))`; got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}

	y, err := expandWith(t, Standard(), `(cond ((p1) e1) ((p2) e2) (else e3))`)
	if err != nil {
		t.Fatal(err)
	}
	outer, is := y.(*ast.If)
	if !is {
		t.Fatalf("%T", y)
	}
	inner, is := outer.Else.(*ast.If)
	if !is {
		t.Fatalf("%T", outer.Else)
	}
	if !ast.IsSymbol(inner.Else, "e3") {
		t.Fatal(inner.Else)
	}

	got = mustExpand(t, Standard(), `(cond ((a) b))`)
	if want := `(if (a) b nil)`; got != want {
		t.Fatal(got)
	}
}

func TestExpandCondErrors(t *testing.T) {
	for _, src := range []string{
		`(cond)`,
		`(cond (else 1) ((a) 2))`,
		`(cond x)`,
		`(cond ((a)))`,
	} {
		t.Run(src, func(t *testing.T) {
			if _, err := expandWith(t, Standard(), src); err == nil {
				t.Fatal("expected an error")
			} else if e, _ := core.AsError(err); e == nil || e.Kind != core.MacroKind {
				t.Fatal(err)
			}
		})
	}
}

func TestExpandForwarding(t *testing.T) {
	r := withDefs(t, `
(define (fwd x ...rest) (f x rest))
(define (fwd2 x ...rest) (f x ...rest))
(define (wrap ...rest) (g rest))
(define (bare x ...rest) (if x rest nil))
`)
	tests := []struct {
		src  string
		want string
	}{
		{`(fwd 1 2 3)`, `(f 1 2 3)`},
		{`(fwd 1)`, `(f 1)`},
		{`(fwd2 1 2 3)`, `(f 1 2 3)`},
		{`(wrap (a) (b))`, `(g (a) (b))`},
		{`(bare c 1 2)`, `(if c (1 2) nil)`},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			if got := mustExpand(t, r, test.src); got != test.want {
				t.Fatalf("got %s want %s", got, test.want)
			}
		})
	}
}

func TestExpandArity(t *testing.T) {
	r := withDefs(t, `
(define (two a b) (f a b))
(define (some a ...more) (f a more))
`)
	tests := []struct {
		src      string
		callee   string
		expected string
		actual   string
	}{
		{`(two 1)`, "two", "exactly 2", "1"},
		{`(two 1 2 3)`, "two", "exactly 2", "3"},
		{`(some)`, "some", "at least 1", "0"},
		{`(inc!)`, "inc!", "exactly 1", "0"},
		{`(set! x)`, "set!", "exactly 2", "1"},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			_, err := expandWith(t, r, test.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, core.ErrArity) {
				t.Fatal(err)
			}
			e, _ := core.AsError(err)
			if e.Kind != core.MacroKind || e.Callee != test.callee ||
				e.Expected != test.expected || e.Actual != test.actual {
				t.Fatalf("%#v", e)
			}
			if !strings.Contains(e.Msg, "expects "+test.expected) {
				t.Fatal(e.Msg)
			}
			if e.Span == nil || e.Span.Start != 0 {
				t.Fatal("span should be the call site")
			}
		})
	}
}

func TestExpandRecursionLimit(t *testing.T) {
	r := withDefs(t, `
(define (loop x) (loop x))
(define (ping x) (pong x))
(define (pong x) (ping x))
(define (grow x) (list (grow x)))
`)
	for _, src := range []string{`(loop 1)`, `(ping 1)`, `(grow 1)`} {
		t.Run(src, func(t *testing.T) {
			_, err := expandWith(t, r, src)
			if !errors.Is(err, core.ErrRecursionLimit) {
				t.Fatal(err)
			}
			e, _ := core.AsError(err)
			if e.Kind != core.MacroKind || e.Callee == "" {
				t.Fatalf("%#v", e)
			}
		})
	}

	x := &Expander{Macros: r, MaxDepth: 3}
	_, err := x.Expand(parse1(t, `(loop 1)`))
	e, _ := core.AsError(err)
	if e == nil || e.Callee != "loop" {
		t.Fatal(err)
	}
}

func TestExpandDeepNesting(t *testing.T) {
	// Nesting in author code isn't recursion.
	for _, tmpl := range []string{`(when true %s)`, `(do (inc! n) %s)`, `(cond (false 1) (else %s))`} {
		src := "1"
		for i := 0; i < 2*DefaultMaxDepth; i++ {
			src = strings.Replace(tmpl, "%s", src, 1)
		}
		x := &Expander{Macros: Standard(), MaxDepth: 8}
		if _, err := x.Expand(parse1(t, src)); err != nil {
			t.Fatalf("%s: %v", tmpl, err)
		}
	}

	r := withDefs(t, `(define (id x) x)`)
	src := "(loop 1)"
	for i := 0; i < 100; i++ {
		src = "(id " + src + ")"
	}
	r2 := withDefs(t, `(define (id x) x) (define (loop x) (loop x))`)
	if _, err := expandWith(t, r, src); err != nil {
		t.Fatal(err)
	}
	if _, err := expandWith(t, r2, src); !errors.Is(err, core.ErrRecursionLimit) {
		t.Fatal(err)
	}
}

func TestExpandIdempotent(t *testing.T) {
	r := Standard()
	for _, src := range []string{
		`(inc! score)`,
		`(do (set! score 5) (add! score 10) (get score))`,
		`(cond ((p1) e1) ((p2) e2) (else e3))`,
		`(swap! a b)`,
		`(+ 1 2)`,
	} {
		t.Run(src, func(t *testing.T) {
			x := NewExpander(r)
			once, err := x.Expand(parse1(t, src))
			if err != nil {
				t.Fatal(err)
			}
			twice, err := x.Expand(once)
			if err != nil {
				t.Fatal(err)
			}
			if twice != once {
				t.Fatal("expected the same tree")
			}
			if !ast.Equal(once, twice) {
				t.Fatalf("%s != %s", once, twice)
			}
		})
	}
}

func TestExpandSpans(t *testing.T) {
	src := `(do (add! score (f)))`
	y, err := expandWith(t, Standard(), src)
	if err != nil {
		t.Fatal(err)
	}
	call := y.(*ast.List).Items[1].(*ast.List)
	callSpan := core.NewSpan(4, 20)
	if call.Pos != callSpan {
		t.Fatalf("template node span %s", call.Pos)
	}
	// (core/set! (path score) (+ (core/get (path score)) (f)))
	plus := call.Items[2].(*ast.List)
	arg := plus.Items[2]
	if got := src[arg.Span().Start:arg.Span().End]; got != "(f)" {
		t.Fatalf("argument span covers %q", got)
	}
	if plus.Pos != callSpan {
		t.Fatal(plus.Pos)
	}
}

func TestExpandHygiene(t *testing.T) {
	r := Standard()
	got := mustExpand(t, r, `(swap! tmp other)`)
	// The caller's tmp must survive, and the macro's tmp must not
	// be called tmp.
	if !strings.Contains(got, "(core/get (path tmp))") {
		t.Fatal(got)
	}
	if !strings.Contains(got, "(let ((tmp#") {
		t.Fatal(got)
	}

	second := mustExpand(t, r, `(swap! tmp other)`)
	if second == got {
		t.Fatal("renaming should be fresh per expansion")
	}

	plain := withDefs(t, `(define (swap2! a b) (let ((tmp (get a))) (set! a (get b)) (set! b (get tmp))))`)
	got = mustExpand(t, plain, `(swap2! x y)`)
	if !strings.Contains(got, "(let ((tmp (core/get (path x))))") {
		t.Fatal(got)
	}
}

func TestCounterHygiene(t *testing.T) {
	h := &CounterHygiene{}
	a, b := h.Rename("x"), h.Rename("x")
	if a == b || !strings.HasPrefix(a, "x#") {
		t.Fatal(a, b)
	}
	if _, err := syntax.ParseAll("test", a); err == nil {
		t.Fatal("authors shouldn't be able to write a generated name")
	}
}

func TestExpandNestedDefine(t *testing.T) {
	d, err := ParseDefinition(parse1(t, `(define (f x) x)`))
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewExpander(Standard()).Expand(ast.Call(core.Span{}, "do", d))
	e, _ := core.AsError(err)
	if e == nil || e.Code != core.InvalidDefinition {
		t.Fatal(err)
	}
}
