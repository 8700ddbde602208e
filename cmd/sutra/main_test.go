package main

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"
)

func write(t *testing.T, dir, name, content string) string {
	filename := filepath.Join(dir, name)
	if err := ioutil.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return filename
}

func TestSource(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "lib.sutra", `(define (twice x) (* 2 x))`)
	a := write(t, dir, "a.sutra", `(include "lib.sutra") (twice 2)`)
	b := write(t, dir, "b.sutra", `(twice 3)`)

	name, src, err := source([]string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(name, "(+1)") {
		t.Fatal(name)
	}
	if !strings.Contains(src, "(define (twice x)") || !strings.Contains(src, "(twice 3)") {
		t.Fatal(src)
	}
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	prog := write(t, dir, "prog.sutra", `(set! n 1) (add! n 2)`)
	bad := write(t, dir, "bad.sutra", `(frob 1)`)
	cases := write(t, dir, "cases.yaml", `
cases:
- name: sum
  source: (+ 1 2)
  want: 3
`)
	worldOut := filepath.Join(dir, "world.json")

	for _, args := range [][]string{
		{"run", "-world-out", worldOut, prog},
		{"check", prog},
		{"expand", "-o", prog},
		{"analyze", prog},
		{"mermaid", prog},
		{"doc", "-names", "add!,+"},
		{"test", cases},
	} {
		if err := Commands[args[0]].Run(ctx, args[1:]); err != nil {
			t.Fatal(args, err)
		}
	}

	bs, err := ioutil.ReadFile(worldOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(bs), `"n":3`) {
		t.Fatal(string(bs))
	}

	if err := checkCmd(ctx, []string{bad}); err == nil {
		t.Fatal("expected an error")
	} else if _, is := err.(*sourceError); !is {
		t.Fatal(err)
	}
}
