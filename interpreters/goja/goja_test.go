package goja

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/syntax"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func load(t *testing.T, i *Interpreter, src interface{}) *Script {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s, err := i.Load(ctx, "test.js", src)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func call(t *testing.T, s *Script, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	return s.Call(context.Background(), name, args)
}

func TestScriptSimple(t *testing.T) {
	s := load(t, NewInterpreter(), `return {likes: function() { return "chips"; }};`)
	v, err := call(t, s, "likes")
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Str("chips")) {
		t.Fatalf("didn't want %s", v)
	}
}

func TestScriptArgs(t *testing.T) {
	s := load(t, NewInterpreter(), `
return {
  double: function(x) { return 2*x; },
  keys: function(m) { return Object.keys(m).sort(); },
  first: function(p) { return p._path[0]; },
};`)

	v, err := call(t, s, "double", value.Num(21))
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Num(42)) {
		t.Fatal(v)
	}

	if v, err = call(t, s, "keys", value.Map{"b": value.Num(1), "a": value.Nil{}}); err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.List{value.Str("a"), value.Str("b")}) {
		t.Fatal(v)
	}

	if v, err = call(t, s, "first", value.Path{"player", "hp"}); err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Str("player")) {
		t.Fatal(v)
	}

	if got := s.Names(); len(got) != 3 || got[0] != "double" {
		t.Fatal(got)
	}
}

func TestScriptTimeout(t *testing.T) {
	i := NewInterpreter()
	i.Testing = true
	i.Timeout = 50 * time.Millisecond
	s := load(t, i, `return {
  spin: function() { for (;;) { sleep(10); } },
  ok: function() { return true; },
};`)

	_, err := call(t, s, "spin")
	if err == nil {
		t.Fatal("didn't timeout")
	}
	if msg := err.Error(); msg != InterruptedMessage {
		t.Fatalf("surprised by \"%s\"", msg)
	}

	// The runtime is still usable.
	v, err := call(t, s, "ok")
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Bool(true)) {
		t.Fatal(v)
	}
}

func TestScriptError(t *testing.T) {
	s := load(t, NewInterpreter(), `return {bad: function() { return likes + tacos; }};`)
	if _, err := call(t, s, "bad"); err == nil {
		t.Fatal("didn't protest")
	}
	if _, err := call(t, s, "missing"); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestScriptLoadErrors(t *testing.T) {
	ctx := context.Background()
	i := NewInterpreter()
	for _, src := range []interface{}{
		`return 1 +;`,
		`return {x: 1};`,
		`var x = 1;`,
		42,
	} {
		if _, err := i.Load(ctx, "bad.js", src); err == nil {
			t.Fatalf("%v: didn't protest", src)
		}
	}
}

func TestScriptCronNext(t *testing.T) {
	s := load(t, NewInterpreter(), `return {next: function(from) { return _.cronNext("0 0 * * *", from); }};`)
	v, err := call(t, s, "next", value.Str("2020-01-01T10:00:00Z"))
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Str("2020-01-02T00:00:00Z")) {
		t.Fatal(v)
	}

	s = load(t, NewInterpreter(), `return {next: function() { return _.cronNext("bad", "2020-01-01T10:00:00Z"); }};`)
	if _, err = call(t, s, "next"); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestScriptMatch(t *testing.T) {
	s := load(t, NewInterpreter(), `return {
  who: function(m) {
    var bss = _.match({to: "?who"}, m);
    return bss.length == 1 ? bss[0]["?who"] : null;
  },
};`)
	v, err := call(t, s, "who", value.Map{"to": value.Str("homer")})
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Str("homer")) {
		t.Fatal(v)
	}
}

func TestScriptRequireSimple(t *testing.T) {
	code := map[string]interface{}{
		"requires": []interface{}{"foo", "bar"},
		"code":     `return {likes: function() { return foo() + bar(); }};`,
	}

	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"foo": `
function foo() {
  var acc = [];
  for (var i = 0; i < 10; i++) {
      acc.push(i);
  }
  return "chips";
}
`,
		"bar": `
function bar() { return "queso"}
`,
	})

	v, err := call(t, load(t, i, code), "likes")
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Str("chipsqueso")) {
		t.Fatal(v)
	}
}

func TestScriptLibraryCompileError(t *testing.T) {
	i := NewInterpreter()
	i.LibraryProvider = MakeMapLibraryProvider(map[string]string{
		"foo": `
function foo() this cond won't compile { return 0; }
`,
	})
	code := map[interface{}]interface{}{
		"requires": "foo",
		"code":     `return {};`,
	}
	if _, err := i.Load(context.Background(), "test.js", code); err == nil {
		t.Fatal("didn't protest")
	}
}

func TestScriptRequireHTTP(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `
function foo() { return "queso"; }
`)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	code := map[string]interface{}{
		"requires": []interface{}{server.URL},
		"code":     `return {wants: foo};`,
	}

	v, err := call(t, load(t, NewInterpreter(), code), "wants")
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Str("queso")) {
		t.Fatal(v)
	}
}

func TestScriptAtoms(t *testing.T) {
	r := eval.NewRegistry()
	i := NewInterpreter()
	if _, err := i.LoadAtoms(context.Background(), r, "test.js", `return {
  double: function(x) { return 2*x; },
  oops: function() { throw "oops"; },
};`); err != nil {
		t.Fatal(err)
	}

	x, err := syntax.ParseOne("test", `(double 21)`)
	if err != nil {
		t.Fatal(err)
	}
	v, _, err := eval.Evaluate(x, world.New(), nil, eval.Options{Atoms: r})
	if err != nil {
		t.Fatal(err)
	}
	if !value.Equal(v, value.Num(42)) {
		t.Fatal(v)
	}

	if x, err = syntax.ParseOne("test", `(oops)`); err != nil {
		t.Fatal(err)
	}
	_, _, err = eval.Evaluate(x, world.New(), nil, eval.Options{Atoms: r})
	e, is := core.AsError(err)
	if !is || e.Code != core.ScriptError || e.Callee != "oops" {
		t.Fatal(err)
	}
}
