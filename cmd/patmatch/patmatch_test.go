package main

import (
	"testing"

	"github.com/Comcast/sutra/match"
	"github.com/Comcast/sutra/value"
)

func TestSame(t *testing.T) {
	pattern := parse("pattern", `{"likes":"?liked"}`)
	message := parse("message", `{"likes":["tacos","chips"]}`)

	bss, err := match.Match(pattern, message, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []match.Bindings{{"?liked": value.List{value.Str("tacos"), value.Str("chips")}}}
	if !Same(want, bss, false) {
		t.Fatal(bss)
	}

	want[0]["?liked"] = value.Str("tacos")
	if Same(want, bss, false) {
		t.Fatal("shouldn't be the same")
	}
}

func TestSubset(t *testing.T) {
	x := match.Bindings{"?a": value.Num(1)}
	y := match.Bindings{"?a": value.Num(1), "?b": value.Num(2)}
	if !Subset(x, y, false) {
		t.Fatal("x should be a subset of y")
	}
	if Subset(y, x, false) {
		t.Fatal("y shouldn't be a subset of x")
	}
}
