package eval

import (
	"testing"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/syntax"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func testAtoms() *Registry {
	r := NewRegistry()
	r.Register(Pure("+", AtLeast(0), func(args *Args) (value.Value, error) {
		var acc float64
		for i := range args.Values {
			n, err := args.Num(i)
			if err != nil {
				return nil, err
			}
			acc += n
		}
		return value.Num(acc), nil
	}))
	r.Register(Pure("list", AtLeast(0), func(args *Args) (value.Value, error) {
		return value.List(args.Values), nil
	}))
	r.Register(Stateful("var", Exactly(1), func(st *State, args *Args) (value.Value, *world.World, error) {
		name, is := args.Values[0].(value.Str)
		if !is {
			return nil, nil, args.TypeError(0, "string")
		}
		v, have := st.Env.Lookup(string(name))
		if !have {
			return nil, nil, args.Errorf(0, core.InvalidForm, "no variable %s", name)
		}
		return v, st.World, nil
	}))
	r.Register(Special("do", AtLeast(0), func(c *Context, w *world.World, args []ast.Expr, _ core.Span) (value.Value, *world.World, error) {
		return c.EvalBody(args, w)
	}))
	r.Register(Special("call", AtLeast(1), func(c *Context, w *world.World, args []ast.Expr, call core.Span) (value.Value, *world.World, error) {
		f, w, err := c.Callable(args[0], w)
		if err != nil {
			return nil, nil, err
		}
		vals, spans, w, err := c.EvalArgs(args[1:], w)
		if err != nil {
			return nil, nil, err
		}
		return c.Apply(f, vals, spans, call, w)
	}).WithShape(0, CallableShape).WithSpread(1))
	return r
}

func parse1(t *testing.T, src string) ast.Expr {
	t.Helper()
	x, err := syntax.ParseOne("test", src)
	if err != nil {
		t.Fatal(err)
	}
	return x
}

func wantCode(t *testing.T, err error, code core.Code) *core.Error {
	t.Helper()
	e, is := core.AsError(err)
	if !is {
		t.Fatalf("%#v", err)
	}
	if e.Code != code {
		t.Fatalf("%s (wanted %s)", e, code)
	}
	return e
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		src      string
		required []string
		rest     string
		code     core.Code
	}{
		{`()`, nil, "", core.Unspecified},
		{`(x y)`, []string{"x", "y"}, "", core.Unspecified},
		{`(x ...more)`, []string{"x"}, "more", core.Unspecified},
		{`(...all)`, nil, "all", core.Unspecified},
		{`x`, nil, "", core.InvalidForm},
		{`(x 1)`, nil, "", core.InvalidForm},
		{`(...more x)`, nil, "", core.InvalidForm},
		{`(x ...(list))`, nil, "", core.InvalidForm},
		{`(x y x)`, nil, "", core.DuplicateName},
		{`(x ...x)`, nil, "", core.DuplicateName},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			ps, err := ParseParams(parse1(t, test.src))
			if test.code != core.Unspecified {
				wantCode(t, err, test.code)
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(ps.Required) != len(test.required) {
				t.Fatal(ps.Required)
			}
			for i, name := range test.required {
				if ps.Required[i] != name {
					t.Fatal(ps.Required)
				}
			}
			if ps.Rest != test.rest {
				t.Fatal(ps.Rest)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	v, err := Quote(parse1(t, `(if a (path x y) "s")`))
	if err != nil {
		t.Fatal(err)
	}
	want := value.List{value.Str("if"), value.Str("a"), value.Path{"x", "y"}, value.Str("s")}
	if !value.Equal(v, want) {
		t.Fatal(v)
	}

	_, err = Quote(&ast.ParamList{Required: []string{"x"}})
	wantCode(t, err, core.Unquotable)

	_, err = Quote(&ast.Define{Name: "f"})
	wantCode(t, err, core.Unquotable)
}

func TestCallLambda(t *testing.T) {
	c := NewContext(nil, Options{Atoms: testAtoms()})
	body := parse1(t, `(list (var "x") (var "more"))`)
	w := world.New()

	tests := []struct {
		params   string
		args     int
		want     value.Value
		expected string
	}{
		{`(x ...more)`, 3, value.List{value.Num(1), value.List{value.Num(2), value.Num(3)}}, ""},
		{`(x ...more)`, 1, value.List{value.Num(1), value.List{}}, ""},
		{`(x ...more)`, 0, nil, "at least 1"},
		{`(x more)`, 2, value.List{value.Num(1), value.Num(2)}, ""},
		{`(x more)`, 3, nil, "exactly 2"},
	}
	for _, test := range tests {
		l, err := c.Lambda(parse1(t, test.params), []ast.Expr{body}, core.Span{})
		if err != nil {
			t.Fatal(err)
		}
		vals := make([]value.Value, test.args)
		for i := range vals {
			vals[i] = value.Num(i + 1)
		}
		v, _, err := c.CallLambda(l, vals, core.Span{}, w)
		if test.expected != "" {
			e := wantCode(t, err, core.Arity)
			if e.Expected != test.expected {
				t.Fatalf("%s %d: %s", test.params, test.args, e)
			}
			continue
		}
		if err != nil {
			t.Fatal(err)
		}
		if !value.Equal(v, test.want) {
			t.Fatalf("%s %d: %s", test.params, test.args, v)
		}
	}
}

func TestSpreadArgs(t *testing.T) {
	atoms := testAtoms()
	w := world.New()
	v, _, err := Evaluate(parse1(t, `(+ 1 ...(list 2 3) ...nil)`), w, nil, Options{Atoms: atoms})
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Num(6)) {
		t.Fatal(v)
	}

	v, _, err = Evaluate(parse1(t, `(call + ...(list 2 3))`), w, nil, Options{Atoms: atoms})
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Num(5)) {
		t.Fatal(v)
	}

	_, _, err = Evaluate(parse1(t, `(+ ...1)`), w, nil, Options{Atoms: atoms})
	wantCode(t, err, core.TypeMismatch)
}

func TestValidateSpreads(t *testing.T) {
	atoms := testAtoms()
	tests := []struct {
		src  string
		code core.Code
	}{
		{`(+ 1 ...(list 2))`, core.Unspecified},
		{`(call + ...(list 2))`, core.Unspecified},
		{`(do ...(list 1))`, core.InvalidForm},
		{`(call ...(list +))`, core.InvalidForm},
		{`(+ x)`, core.BareSymbol},
		{`(nope 1)`, core.UnknownAtom},
	}
	for _, test := range tests {
		t.Run(test.src, func(t *testing.T) {
			err := Validate(parse1(t, test.src), atoms)
			if test.code == core.Unspecified {
				if err != nil {
					t.Fatal(err)
				}
				return
			}
			e := wantCode(t, err, test.code)
			if e.Kind != core.ValidationKind {
				t.Fatal(e.Kind)
			}
		})
	}
}

func TestDepthGuard(t *testing.T) {
	src := "1"
	for i := 0; i < 20; i++ {
		src = "(do " + src + ")"
	}
	x := parse1(t, src)
	if _, _, err := Evaluate(x, world.New(), nil, Options{Atoms: testAtoms(), MaxDepth: 30}); err != nil {
		t.Fatal(err)
	}
	_, _, err := Evaluate(x, world.New(), nil, Options{Atoms: testAtoms(), MaxDepth: 10})
	e := wantCode(t, err, core.RecursionLimit)
	if e.Node == "" {
		t.Fatal(e)
	}
}
