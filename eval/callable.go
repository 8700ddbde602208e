/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package eval

import (
	"strconv"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

// Callable is something that can be applied to values: a lambda or
// a pure or stateful atom.
type Callable struct {
	Lambda *value.Lambda
	Atom   *Atom
	Name   string
}

func (f *Callable) String() string {
	if f.Lambda != nil {
		return "lambda"
	}
	return f.Name
}

// Callable evaluates x, which should be a symbol naming an atom or an
// expression that evaluates to a lambda or to a string naming an
// atom.
func (c *Context) Callable(x ast.Expr, w *world.World) (*Callable, *world.World, error) {
	if s, is := x.(*ast.Symbol); is {
		a, have := c.Atoms.Lookup(s.Name)
		if !have {
			e := core.NewError(core.EvalKind, core.UnknownAtom, s.Pos.Ptr(), "atom not found: %s", s.Name)
			e.Callee = s.Name
			return nil, nil, e
		}
		return &Callable{Atom: a, Name: s.Name}, w, nil
	}

	v, w1, err := c.Eval(x, w)
	if err != nil {
		return nil, nil, err
	}
	switch vv := v.(type) {
	case *value.Lambda:
		return &Callable{Lambda: vv}, w1, nil
	case value.Str:
		if a, have := c.Atoms.Lookup(string(vv)); have {
			return &Callable{Atom: a, Name: string(vv)}, w1, nil
		}
	}
	return nil, nil, core.NewTypeError("call", 0, "lambda or atom name", v.TypeName(), x.Span().Ptr())
}

// Apply calls f with the given values, threading the World.
func (c *Context) Apply(f *Callable, vals []value.Value, spans []core.Span, call core.Span, w *world.World) (value.Value, *world.World, error) {
	if spans == nil {
		spans = make([]core.Span, len(vals))
		for i := range spans {
			spans[i] = call
		}
	}
	if f.Lambda != nil {
		return c.CallLambda(f.Lambda, vals, call, w)
	}
	return c.invoke(f.Atom, f.Name, vals, spans, call, w)
}

// CallLambda binds the lambda's parameters and evaluates its body in
// its captured environment.
func (c *Context) CallLambda(l *value.Lambda, vals []value.Value, call core.Span, w *world.World) (value.Value, *world.World, error) {
	ps := l.Params
	n := len(ps.Required)
	if (ps.Rest == "" && len(vals) != n) || len(vals) < n {
		expected := "exactly " + strconv.Itoa(n)
		if ps.Rest != "" {
			expected = "at least " + strconv.Itoa(n)
		}
		return nil, nil, core.NewArityError(core.EvalKind, "lambda", expected, len(vals), call.Ptr())
	}
	bs := make(map[string]value.Value, n+1)
	for i, name := range ps.Required {
		bs[name] = vals[i]
	}
	if ps.Rest != "" {
		rest := make(value.List, len(vals)-n)
		copy(rest, vals[n:])
		bs[ps.Rest] = rest
	}
	return c.WithEnv(l.Env.Extend(bs)).Eval(l.Body, w)
}

// ParseParams reads a parameter list like (x y ...rest).
func ParseParams(x ast.Expr) (*ast.ParamList, error) {
	if pl, is := x.(*ast.ParamList); is {
		return pl, nil
	}
	l, is := x.(*ast.List)
	if !is {
		return nil, core.NewError(core.EvalKind, core.InvalidForm, x.Span().Ptr(),
			"expected a parameter list like (x y), got %s", x)
	}
	acc := &ast.ParamList{
		Required: make([]string, 0, len(l.Items)),
		Pos:      l.Pos,
	}
	seen := make(map[string]bool, len(l.Items))
	for i, item := range l.Items {
		var name string
		rest := false
		switch vv := item.(type) {
		case *ast.Symbol:
			name = vv.Name
		case *ast.Spread:
			s, is := vv.Inner.(*ast.Symbol)
			if !is || i != len(l.Items)-1 {
				return nil, core.NewError(core.EvalKind, core.InvalidForm, item.Span().Ptr(),
					"a rest parameter must be a symbol at the end of the parameter list")
			}
			name = s.Name
			rest = true
		default:
			return nil, core.NewError(core.EvalKind, core.InvalidForm, item.Span().Ptr(),
				"parameter must be a symbol, not %s", item)
		}
		if seen[name] {
			return nil, core.NewError(core.EvalKind, core.DuplicateName, item.Span().Ptr(),
				"duplicate parameter %s", name)
		}
		seen[name] = true
		if rest {
			acc.Rest = name
		} else {
			acc.Required = append(acc.Required, name)
		}
	}
	return acc, nil
}

// Lambda makes a closure that captures the Context's environment.
func (c *Context) Lambda(params ast.Expr, body []ast.Expr, span core.Span) (*value.Lambda, error) {
	ps, err := ParseParams(params)
	if err != nil {
		return nil, err
	}
	var b ast.Expr
	switch len(body) {
	case 0:
		b = &ast.Nil{Pos: span}
	case 1:
		b = body[0]
	default:
		b = ast.Call(span, "do", body...)
	}
	// Extend copies, so the lambda gets a snapshot.
	return &value.Lambda{
		Params: ps,
		Body:   b,
		Env:    c.Env.Extend(nil),
	}, nil
}
