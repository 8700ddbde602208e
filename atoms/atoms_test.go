package atoms

import (
	"errors"
	"strings"
	"testing"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/macro"
	"github.com/Comcast/sutra/syntax"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

var testSeed = world.SeedFromString("atoms")

// run reads, expands, and evaluates src against w.
func run(t *testing.T, w *world.World, src string, out core.Output, maxDepth int) (value.Value, *world.World, error) {
	t.Helper()
	xs, err := syntax.ParseAll("test", src)
	if err != nil {
		t.Fatal(err)
	}
	ys, err := macro.NewExpander(macro.Standard()).ExpandAll(xs)
	if err != nil {
		return nil, nil, err
	}
	opts := eval.Options{
		Atoms:    Standard(),
		MaxDepth: maxDepth,
	}
	var v value.Value = value.Nil{}
	for _, y := range ys {
		if v, w, err = eval.Evaluate(y, w, out, opts); err != nil {
			return nil, nil, err
		}
	}
	return v, w, nil
}

func mustRun(t *testing.T, src string) value.Value {
	t.Helper()
	v, _, err := run(t, world.NewSeeded(testSeed), src, nil, 0)
	if err != nil {
		t.Fatalf("%s: %s", src, err)
	}
	return v
}

func mustFail(t *testing.T, src string, code core.Code) *core.Error {
	t.Helper()
	_, _, err := run(t, world.NewSeeded(testSeed), src, nil, 0)
	if err == nil {
		t.Fatalf("%s: expected an error", src)
	}
	e, is := core.AsError(err)
	if !is {
		t.Fatalf("%s: %#v", src, err)
	}
	if e.Code != code {
		t.Fatalf("%s: %s (wanted %s)", src, e, code)
	}
	return e
}

func TestAtoms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		// Stored state.
		{`(do (set! score 5) (add! score 10) (get score))`, "15"},
		{`(do (set! score 5) (inc! score) (get score))`, "6"},
		{`(get nothing.here)`, "nil"},
		{`(do (set! a.b 1) (del! a.b) (exists? a))`, "false"},
		{`(do (set! a 1) (set! b 2) (swap! a b) (list (get a) (get b)))`, "(2 1)"},
		{`(do (push! xs 1) (push! xs 2) (get xs))`, "(1 2)"},
		{`(do (set! on true) (toggle! on) (get on))`, "false"},
		{`(do (default! hp 10) (default! hp 20) (get hp))`, "10"},

		// Conditionals.
		{`(if (gt? 10 5) 1 2)`, "1"},
		{`(if (gt? 3 5) 1 2)`, "2"},
		{`(if (> 3 5) 1)`, "nil"},
		{`(cond ((lt? 1 0) "a") ((eq? 1 1) "b") (else "c"))`, "b"},
		{`(when true 1 2)`, "2"},
		{`(unless true 1)`, "nil"},
		{`(or true (error "boom"))`, "true"},
		{`(and false (error "boom"))`, "false"},
		{`(and)`, "true"},
		{`(or)`, "false"},
		{`(not false)`, "true"},

		// Arithmetic and comparison.
		{`(+)`, "0"},
		{`(+ 1 2 3.5)`, "6.5"},
		{`(- 5)`, "-5"},
		{`(- 10 1 2)`, "7"},
		{`(* 2 3 4)`, "24"},
		{`(/ 12 2 3)`, "2"},
		{`(mod 7 3)`, "1"},
		{`(abs -3)`, "3"},
		{`(min 3 1 2)`, "1"},
		{`(max 3 1 2)`, "3"},
		{`(= (list 1 "a") (list 1 "a"))`, "true"},
		{`(!= 1 2)`, "true"},
		{`(lt? "a" "b" "c")`, "true"},
		{`(gte? 3 3 1)`, "true"},
		{`(lte? 1 2 1)`, "false"},

		// Lexical variables and lambdas.
		{`(let ((x 1) (y (+ (get x) 1))) (get y))`, "2"},
		{`(let ((m (hash-map "a" 1))) (get m.a))`, "1"},
		{`(let ((x 1)) (exists? x))`, "true"},
		{`(call (lambda (x) (* (get x) 2)) 21)`, "42"},
		{`(call (lambda (x ...more) (len (get more))) 1 2 3)`, "2"},
		{`(let ((n 10)) (call (lambda (x) (+ (get x) (get n))) 1))`, "11"},
		{`(call "+" 1 2)`, "3"},
		{`(invoke + 1 2)`, "3"},
		{`(apply + 1 (list 2 3))`, "6"},
		{`(map (lambda (x) (* (get x) (get x))) (list 1 2 3))`, "(1 4 9)"},
		{`(filter (lambda (x) (gt? (get x) 1)) (list 1 2 3))`, "(2 3)"},
		{`(reduce + 0 (list 1 2 3))`, "6"},
		{`(do (set! total 0) (for-each (lambda (x) (add! total (get x))) (list 1 2 3)) (get total))`, "6"},
		{`(do (set! f (lambda (x) (+ (get x) 1))) (call (get f) 1))`, "2"},

		// Collections.
		{`(list)`, "()"},
		{`()`, "()"},
		{`(len (list 1 2))`, "2"},
		{`(len "héllo")`, "5"},
		{`(len nil)`, "0"},
		{`(first (list 1 2))`, "1"},
		{`(first (list))`, "nil"},
		{`(rest (list 1 2 3))`, "(2 3)"},
		{`(nth (list 1 2 3) 1)`, "2"},
		{`(nth (list 1 2 3) 5)`, "nil"},
		{`(cons 0 (list 1))`, "(0 1)"},
		{`(append nil 1 2)`, "(1 2)"},
		{`(concat (list 1) nil (list 2 3))`, "(1 2 3)"},
		{`(reverse (list 1 2 3))`, "(3 2 1)"},
		{`(range 3)`, "(0 1 2)"},
		{`(range 1 7 2)`, "(1 3 5)"},
		{`(range 3 0 -1)`, "(3 2 1)"},
		{`(keys (hash-map "b" 1 "a" 2))`, `("a" "b")`},
		{`(has-key? (hash-map "a" 1) "a")`, "true"},
		{`(str "n=" 1 " " true)`, "n=1 true"},

		// Types.
		{`(type-of 1)`, "number"},
		{`(type-of (path a b))`, "path"},
		{`(lambda? (lambda (x) nil))`, "true"},
		{`(string? 'x)`, "true"},
		{`(nil? nil)`, "true"},
		{`'(if a b c)`, `("if" "a" "b" "c")`},

		// Domain.
		{`(len (match (hash-map "a" "?x") (hash-map "a" 1 "b" 2)))`, "1"},
		{`(cron-next "0 0 * * *" "2020-01-01T10:00:00Z")`, "2020-01-02T00:00:00Z"},
		{`(cron-next "0 0 * * *" 1577872800)`, "1577923200"},
	}
	for _, test := range tests {
		got := mustRun(t, test.src)
		if got.String() != test.want {
			t.Fatalf("%s: got %s, wanted %s", test.src, got, test.want)
		}
	}
}

func TestMatchAtom(t *testing.T) {
	got := mustRun(t, `(match (hash-map "a" "?x") (hash-map "a" 1) (hash-map "?y" 2))`)
	want := value.List{value.Map{"?x": value.Num(1), "?y": value.Num(2)}}
	if !value.Equal(got, want) {
		t.Fatal(got)
	}
}

func TestDivisionByZero(t *testing.T) {
	e := mustFail(t, `(/ 10 0)`, core.DivisionByZero)
	if e.Span == nil || *e.Span != core.NewSpan(6, 7) {
		t.Fatal(e.Span)
	}
	if e.Kind != core.EvalKind || e.Callee != "/" {
		t.Fatal(e)
	}
	if !errors.Is(e, core.ErrDivisionByZero) {
		t.Fatal(e)
	}
	mustFail(t, `(mod 1 0)`, core.DivisionByZero)
}

func TestErrors(t *testing.T) {
	e := mustFail(t, `(not true false)`, core.Arity)
	if e.Callee != "not" || e.Expected != "exactly 1" || e.Actual != "2" {
		t.Fatal(e)
	}

	e = mustFail(t, `(+ 1 "a")`, core.TypeMismatch)
	if *e.Span != core.NewSpan(5, 8) {
		t.Fatal(e.Span)
	}

	e = mustFail(t, `(prnt 1)`, core.UnknownAtom)
	if !strings.Contains(e.Suggestion, "print") {
		t.Fatal(e.Suggestion)
	}

	mustFail(t, `(if 1 2 3)`, core.TypeMismatch)
	mustFail(t, `(and 1 true)`, core.TypeMismatch)
	mustFail(t, `(filter (lambda (x) 1) (list 1))`, core.TypeMismatch)
	mustFail(t, `(apply + 1 2)`, core.TypeMismatch)
	mustFail(t, `(apply + ...(list))`, core.Arity)
	mustFail(t, `(apply + ...nil)`, core.Arity)
	if v := mustRun(t, `(apply + ...(list 1 (list 2 3)))`); !value.Equal(v, value.Num(6)) {
		t.Fatal(v)
	}
	mustFail(t, `(call (lambda (x) nil))`, core.Arity)
	mustFail(t, `(hash-map "a")`, core.Arity)
	mustFail(t, `(range 0 1 0)`, core.InvalidForm)
	mustFail(t, `(rand 0)`, core.TypeMismatch)
	mustFail(t, `(cron-next "bogus" 0)`, core.InvalidForm)
	mustFail(t, `(1 2)`, core.NotAnAtom)
	mustFail(t, `(+ x 1)`, core.BareSymbol)

	e = mustFail(t, `(error "bad" 42)`, core.UserError)
	if e.Msg != "bad 42" {
		t.Fatal(e.Msg)
	}
}

func TestErrorLeavesWorld(t *testing.T) {
	w := world.NewSeeded(testSeed).Set(core.Path{"score"}, value.Num(1))
	if _, _, err := run(t, w, `(do (set! score 2) (/ 1 0))`, nil, 0); err == nil {
		t.Fatal("expected an error")
	}
	if v, _ := w.Get(core.Path{"score"}); !value.Equal(v, value.Num(1)) {
		t.Fatal(v)
	}
}

func TestRecursionLimit(t *testing.T) {
	src := `(do (set! f (lambda (n) (call (get f) (get n)))) (call (get f) 1))`
	_, _, err := run(t, world.NewSeeded(testSeed), src, nil, 50)
	e, is := core.AsError(err)
	if !is || e.Code != core.RecursionLimit {
		t.Fatal(err)
	}
	if e.Node == "" {
		t.Fatal(e)
	}
}

func TestOutput(t *testing.T) {
	out := core.NewBuffer()
	v, _, err := run(t, world.NewSeeded(testSeed), `(do (print "a" 1) (println "b") (say "c" 2) (output "d"))`, out, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v.String() != "d" {
		t.Fatal(v)
	}
	want := []string{"a 1", "b\n", "c 2\n", "d"}
	got := out.Texts()
	if len(got) != len(want) {
		t.Fatal(got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatal(got)
		}
	}
	if out.Emitted[0].Span == nil {
		t.Fatal("no span")
	}
}

func TestRand(t *testing.T) {
	w := world.NewSeeded(testSeed)
	src := `(list (rand 100) (rand 100) (rand))`

	v1, w1, err := run(t, w, src, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	v2, w2, err := run(t, w, src, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v1, v2) || !w1.Equal(w2) {
		t.Fatal(v1, v2)
	}
	if w1.Equal(w) {
		t.Fatal("generator didn't advance")
	}
	for _, x := range v1.(value.List) {
		n := float64(x.(value.Num))
		if n < 0 || 100 <= n {
			t.Fatal(v1)
		}
	}

	v3, _, err := run(t, w1, src, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if value.Equal(v1, v3) {
		t.Fatal("same draws from a different generator state")
	}
}

func TestStandardAtomsDocumented(t *testing.T) {
	r := Standard()
	for _, name := range r.Names() {
		a, _ := r.Lookup(name)
		if a.Doc() == "" {
			t.Fatalf("%s has no doc", name)
		}
	}
}

func TestCatalogue(t *testing.T) {
	r := Standard()
	for _, name := range []string{
		"+", "-", "*", "/", "mod", "abs", "min", "max",
		"eq?", "gt?", "lt?", "gte?", "lte?", "=", ">", "<", ">=", "<=",
		"not", "list", "len",
		"core/set!", "core/get", "core/del!",
		"do", "error", "apply", "for-each",
		"print", "println", "output", "rand",
	} {
		if _, have := r.Lookup(name); !have {
			t.Fatal(name)
		}
	}
	for name, conv := range map[string]eval.Convention{
		"+":        eval.PureConvention,
		"core/get": eval.StatefulConvention,
		"rand":     eval.StatefulConvention,
		"let":      eval.SpecialConvention,
		"and":      eval.SpecialConvention,
	} {
		a, _ := r.Lookup(name)
		if a.Convention() != conv {
			t.Fatalf("%s is %s", name, a.Convention())
		}
	}
}
