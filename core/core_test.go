package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPath(t *testing.T) {
	p := ParsePath("player..stats.hp")
	if len(p) != 3 || p.String() != "player.stats.hp" {
		t.Fatal(p)
	}
	if len(ParsePath("")) != 0 {
		t.Fatal("empty")
	}
	if !p.HasPrefix(Path{"player"}) || p.HasPrefix(Path{"stats"}) {
		t.Fatal("prefix")
	}
	if p.Last() != "hp" || !p.Parent().Equal(Path{"player", "stats"}) {
		t.Fatal(p.Parent())
	}

	q := p.Parent().Append("mp")
	if !p.Equal(ParsePath("player.stats.hp")) {
		t.Fatal("Append modified the receiver")
	}
	if q.String() != "player.stats.mp" {
		t.Fatal(q)
	}

	if (Path{"a.b"}).Key() == (Path{"a", "b"}).Key() {
		t.Fatal("ambiguous keys")
	}
}

func TestSpan(t *testing.T) {
	s := NewSpan(5, 2)
	if !s.Valid() || s.Len() != 0 {
		t.Fatal(s)
	}
	j := NewSpan(2, 4).Join(NewSpan(8, 10))
	if j.String() != "2..10" {
		t.Fatal(j)
	}
	if !j.Contains(NewSpan(3, 9)) || j.Contains(NewSpan(1, 3)) {
		t.Fatal("contains")
	}
}

func TestError(t *testing.T) {
	e := NewArityError(ValidationKind, "+", "exactly 1", 2, NewSpan(0, 5).Ptr())
	e.Origin = "test.sutra"
	if got := e.Error(); got != "validation error in test.sutra at 0..5: + expects exactly 1 argument, got 2" {
		t.Fatal(got)
	}

	wrapped := fmt.Errorf("running: %w", NewError(EvalKind, DivisionByZero, nil, "division by zero"))
	if !errors.Is(wrapped, ErrDivisionByZero) {
		t.Fatal("errors.Is")
	}
	if errors.Is(wrapped, ErrRecursionLimit) {
		t.Fatal("wrong code")
	}
	if x, is := AsError(wrapped); !is || x.Code != DivisionByZero {
		t.Fatal(x)
	}

	js, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(js), `"kind":"validation","code":"arity"`) {
		t.Fatal(string(js))
	}

	var k Kind
	if err = k.UnmarshalText([]byte("MACRO")); err != nil || k != MacroKind {
		t.Fatal(k, err)
	}
	var c Code
	if err = c.UnmarshalText([]byte("nope")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestBuffer(t *testing.T) {
	b := NewBuffer()
	b.Emit("a", nil)
	b.Emit("b", NewSpan(1, 2).Ptr())
	if b.String() != "ab" || len(b.Texts()) != 2 {
		t.Fatal(b.Texts())
	}
	b.Reset()
	if b.String() != "" {
		t.Fatal(b.String())
	}

	var acc strings.Builder
	o := &WriterOutput{W: &acc}
	o.Emit("hi", nil)
	if acc.String() != "hi" || o.Err != nil {
		t.Fatal(acc.String())
	}
}
