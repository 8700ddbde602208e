package tools

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/atoms"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/macro"
	"github.com/Comcast/sutra/syntax"
)

func expand(t *testing.T, src string) ([]ast.Expr, *eval.Registry) {
	t.Helper()
	xs, err := syntax.ParseAll("test", src)
	if err != nil {
		t.Fatal(err)
	}
	ys, err := macro.NewExpander(macro.Standard()).ExpandAll(xs)
	if err != nil {
		t.Fatal(err)
	}
	return ys, atoms.Standard()
}

type closer struct {
	bytes.Buffer
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func TestAnalysis(t *testing.T) {
	forms, as := expand(t, `
(set! x 1)
(add! y 2)
(print (get z) '(a b))
(frob 3)
(call (lambda (n) (* (get n) 2)) 4)`)

	a, err := Analyze(forms, as)
	if err != nil {
		t.Fatal(err)
	}
	if a.Forms != 5 {
		t.Fatal(a.Forms)
	}
	if got := strings.Join(a.Writes, ","); got != "x,y" {
		t.Fatal(got)
	}
	if got := strings.Join(a.Reads, ","); got != "n,y,z" {
		t.Fatal(got)
	}
	if got := strings.Join(a.UnknownAtoms, ","); got != "frob" {
		t.Fatal(got)
	}
	if a.Quotes != 1 || a.Lambdas != 1 {
		t.Fatal(a.Quotes, a.Lambdas)
	}
	if a.Calls["core/set!"] != 2 {
		t.Fatal(a.Calls)
	}
	if a.Conventions["stateful"] < 5 || a.Conventions["special"] < 1 {
		t.Fatal(a.Conventions)
	}
	if a.MaxDepth < 4 {
		t.Fatal(a.MaxDepth)
	}
}

func TestDot(t *testing.T) {
	forms, as := expand(t, `(when (> (get hp) 0) (print "alive" '(a "b")))`)

	out := &closer{}
	if err := Dot(forms, as, out); err != nil {
		t.Fatal(err)
	}
	if !out.closed {
		t.Fatal("not closed")
	}
	s := out.String()
	for _, want := range []string{
		"digraph G {",
		`label="if"`,
		`label="core/get"`,
		`fillcolor="` + conventionFills[eval.StatefulConvention] + `"`,
		`label="'[a, b]"`,
		"n1 -> n2",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("no %s in\n%s", want, s)
		}
	}
}

func TestMermaid(t *testing.T) {
	forms, as := expand(t, `(set! x (frob 1))`)

	out := &closer{}
	if err := Mermaid(forms, as, out, nil); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	for _, want := range []string{
		"graph TB",
		`n1("core/set!")`,
		"style n1 fill:#f9c784",
		`n3("frob")`,
		"style n3 fill:#f98b8b",
		"n1 -- 2 --> n3",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("no %s in\n%s", want, s)
		}
	}
}

func TestCatalog(t *testing.T) {
	es := Catalog(atoms.Standard(), macro.Standard())

	byName := make(map[string]*Entry, len(es))
	for _, e := range es {
		byName[e.Name] = e
	}

	add, have := byName["add!"]
	if !have {
		t.Fatal("no add!")
	}
	if add.Kind != "macro" || add.Signature() != "(add! p n)" || !add.IsMacro() {
		t.Fatal(add)
	}
	plus, have := byName["+"]
	if !have || plus.Kind != "pure" || plus.Arity != "at least 0" {
		t.Fatal(plus)
	}
	if get := byName["get"]; get == nil || get.Kind != "native macro" {
		t.Fatal(get)
	}

	var page bytes.Buffer
	if err := RenderCatalogPage("Atoms & macros", es, &page, nil); err != nil {
		t.Fatal(err)
	}
	s := page.String()
	for _, want := range []string{
		"<title>Atoms &amp; macros</title>",
		`<span id="entry-add!" class="entryName">add!</span>`,
		"<p>Add n to the number at path p.</p>",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("no %s", want)
		}
	}

	var text bytes.Buffer
	RenderCatalogText(es, &text)
	if !strings.Contains(text.String(), "(add! p n) (macro)\n    Add n to the number at path p.\n") {
		t.Fatal(text.String())
	}
}

func TestInclude(t *testing.T) {
	files := map[string]string{
		"a": `(set! a 1) (include "b")`,
		"b": `(set! b 2)`,
		"c": `(include "d")`,
		"d": `(include "c")`,
	}
	find := func(name string) ([]byte, error) {
		s, have := files[name]
		if !have {
			return nil, os.ErrNotExist
		}
		return []byte(s), nil
	}

	got, err := Include("main", []byte(`(include "a") (get b)`), find)
	if err != nil {
		t.Fatal(err)
	}
	if want := `(set! a 1) (set! b 2) (get b)`; string(got) != want {
		t.Fatalf("got %s", got)
	}

	_, err = Include("c", []byte(files["c"]), find)
	e, is := core.AsError(err)
	if !is || e.Code != core.InvalidForm || !strings.Contains(e.Msg, "c -> d -> c") {
		t.Fatal(err)
	}

	if _, err = Include("main", []byte(`(include "nope")`), find); err == nil {
		t.Fatal("expected an error")
	}

	_, err = Include("main", []byte(`(include x)`), find)
	if e, is := core.AsError(err); !is || e.Code != core.InvalidForm {
		t.Fatal(err)
	}
}

func TestReadFileWithIncludes(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) {
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("lib.sutra", ";; lib\n(define (twice! p) (mul! p 2))\n")
	write("main.sutra", "(include \"lib.sutra\")\n(twice! x)\n")

	got, err := ReadFileWithIncludes(filepath.Join(dir, "main.sutra"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(got), "(define (twice! p)") {
		t.Fatal(string(got))
	}
}
