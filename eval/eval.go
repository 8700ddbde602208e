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

// Package eval walks expanded expression trees.
//
// Evaluation is like a state machine action: given a World, it returns a
// Value and a new World, and it doesn't do any IO other than writing
// to the Output it's given.  Any error aborts the whole evaluation,
// and since Worlds are never modified in place, an error can't leave
// a World half-updated.
package eval

import (
	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

// DefaultMaxDepth is the default bound on nested evaluation.
var DefaultMaxDepth = 512

// Options for Evaluate.
type Options struct {
	// Atoms is required.
	Atoms *Registry

	// MaxDepth bounds nested evaluation.  Zero means
	// DefaultMaxDepth.
	MaxDepth int

	// Env is the initial lexical environment, which is usually
	// empty.
	Env *value.Env
}

// Context is the state carried through evaluation.
//
// A Context is copied (not modified) for each nested evaluation.
type Context struct {
	Atoms    *Registry
	Output   core.Output
	Env      *value.Env
	Depth    int
	MaxDepth int
}

// NewContext makes a Context.  A nil Output means core.NoOutput.
func NewContext(out core.Output, opts Options) *Context {
	if out == nil {
		out = core.NoOutput{}
	}
	max := opts.MaxDepth
	if max <= 0 {
		max = DefaultMaxDepth
	}
	atoms := opts.Atoms
	if atoms == nil {
		atoms = NewRegistry()
	}
	return &Context{
		Atoms:    atoms,
		Output:   out,
		Env:      opts.Env,
		MaxDepth: max,
	}
}

// Evaluate is the entry point: evaluate x against w.
func Evaluate(x ast.Expr, w *world.World, out core.Output, opts Options) (value.Value, *world.World, error) {
	return NewContext(out, opts).Eval(x, w)
}

// WithEnv returns a copy of the Context with the given lexical
// environment.
func (c *Context) WithEnv(env *value.Env) *Context {
	cc := *c
	cc.Env = env
	return &cc
}

// Eval evaluates x one level deeper than c.
func (c *Context) Eval(x ast.Expr, w *world.World) (value.Value, *world.World, error) {
	if c.MaxDepth <= c.Depth {
		e := core.NewError(core.EvalKind, core.RecursionLimit, x.Span().Ptr(),
			"recursion depth limit (%d) exceeded", c.MaxDepth)
		e.Node = abbreviate(x.String(), 80)
		return nil, nil, e
	}
	cc := *c
	cc.Depth++
	return cc.eval(x, w)
}

func abbreviate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func (c *Context) eval(x ast.Expr, w *world.World) (value.Value, *world.World, error) {
	switch vv := x.(type) {
	case *ast.List:
		if len(vv.Items) == 0 {
			return value.List{}, w, nil
		}
		return c.call(vv, w)

	case *ast.If:
		cond, w1, err := c.Eval(vv.Cond, w)
		if err != nil {
			return nil, nil, err
		}
		b, is := cond.(value.Bool)
		if !is {
			return nil, nil, core.NewTypeError("if", 0, "bool condition", cond.TypeName(), vv.Cond.Span().Ptr())
		}
		if b {
			return c.Eval(vv.Then, w1)
		}
		return c.Eval(vv.Else, w1)

	case *ast.Quote:
		v, err := Quote(vv.Inner)
		if err != nil {
			return nil, nil, err
		}
		return v, w, nil

	case *ast.Str:
		return value.Str(vv.Val), w, nil
	case *ast.Num:
		return value.Num(vv.Val), w, nil
	case *ast.Bool:
		return value.Bool(vv.Val), w, nil
	case *ast.Nil:
		return value.Nil{}, w, nil
	case *ast.PathExpr:
		return value.Path(vv.Path), w, nil

	case *ast.Symbol:
		e := core.NewError(core.EvalKind, core.BareSymbol, vv.Pos.Ptr(),
			"bare symbol %s can't be evaluated", vv.Name)
		e.Node = vv.Name
		return nil, nil, e.WithSuggestion("use (get " + vv.Name + ") to read a value")

	case *ast.Spread:
		return nil, nil, core.NewError(core.EvalKind, core.InvalidForm, vv.Pos.Ptr(),
			"%s is only allowed in an argument list", vv)

	case *ast.Define:
		return nil, nil, core.NewError(core.EvalKind, core.InvalidDefinition, vv.Pos.Ptr(),
			"define of %s is only allowed at top level", vv.Name)

	case *ast.ParamList:
		return nil, nil, core.NewError(core.EvalKind, core.InvalidForm, vv.Pos.Ptr(),
			"parameter list %s can't be evaluated", vv)
	}
	return nil, nil, core.Internal("eval: unknown node type %T", x)
}

func (c *Context) call(l *ast.List, w *world.World) (value.Value, *world.World, error) {
	head, is := l.Items[0].(*ast.Symbol)
	if !is {
		e := core.NewError(core.EvalKind, core.NotAnAtom, l.Items[0].Span().Ptr(),
			"first element must name an atom, not %s", l.Items[0])
		e.Node = abbreviate(l.String(), 80)
		return nil, nil, e
	}
	a, have := c.Atoms.Lookup(head.Name)
	if !have {
		e := core.NewError(core.EvalKind, core.UnknownAtom, head.Pos.Ptr(), "atom not found: %s", head.Name)
		e.Callee = head.Name
		if s, ok := c.Atoms.Closest(head.Name); ok {
			e.WithSuggestion("did you mean " + s + "?")
		}
		return nil, nil, e
	}

	args := l.Items[1:]

	if a.special != nil {
		if !a.arity.Accepts(len(args)) {
			return nil, nil, core.NewArityError(core.EvalKind, head.Name, a.arity.String(), len(args), l.Pos.Ptr())
		}
		v, w1, err := a.special(c, w, args, l.Pos)
		if err != nil {
			return nil, nil, locate(err, head.Name, l.Pos)
		}
		return v, w1, nil
	}

	vals, spans, w1, err := c.EvalArgs(args, w)
	if err != nil {
		return nil, nil, err
	}
	return c.invoke(a, head.Name, vals, spans, l.Pos, w1)
}

// invoke calls a pure or stateful atom with evaluated arguments.
func (c *Context) invoke(a *Atom, name string, vals []value.Value, spans []core.Span, call core.Span, w *world.World) (value.Value, *world.World, error) {
	if !a.arity.Accepts(len(vals)) {
		return nil, nil, core.NewArityError(core.EvalKind, name, a.arity.String(), len(vals), call.Ptr())
	}
	args := &Args{
		Name:   name,
		Values: vals,
		Spans:  spans,
		Call:   call,
	}
	switch {
	case a.pure != nil:
		v, err := a.pure(args)
		if err != nil {
			return nil, nil, locate(err, name, call)
		}
		return orNil(v), w, nil
	case a.stateful != nil:
		st := &State{
			World:  w,
			Env:    c.Env,
			Output: c.Output,
		}
		v, w1, err := a.stateful(st, args)
		if err != nil {
			return nil, nil, locate(err, name, call)
		}
		if w1 == nil {
			w1 = w
		}
		return orNil(v), w1, nil
	}
	e := core.NewError(core.EvalKind, core.InvalidForm, call.Ptr(), "special form %s can't be applied to values", name)
	e.Callee = name
	return nil, nil, e
}

func orNil(v value.Value) value.Value {
	if v == nil {
		return value.Nil{}
	}
	return v
}

// locate makes sure an error from an atom is a *core.Error with a
// span and a callee.
func locate(err error, name string, call core.Span) error {
	e, is := core.AsError(err)
	if !is {
		e = core.NewError(core.EvalKind, core.Unspecified, call.Ptr(), "%s: %s", name, err)
	}
	if e.Span == nil {
		e.Span = call.Ptr()
	}
	if e.Callee == "" {
		e.Callee = name
	}
	return e
}

// EvalArgs evaluates argument expressions left to right, threading
// the World.  A Spread argument must evaluate to a list, which is
// spliced in.
func (c *Context) EvalArgs(args []ast.Expr, w *world.World) ([]value.Value, []core.Span, *world.World, error) {
	vals := make([]value.Value, 0, len(args))
	spans := make([]core.Span, 0, len(args))
	for _, arg := range args {
		if sp, is := arg.(*ast.Spread); is {
			v, w1, err := c.Eval(sp.Inner, w)
			if err != nil {
				return nil, nil, nil, err
			}
			w = w1
			var xs value.List
			switch vv := v.(type) {
			case value.List:
				xs = vv
			case value.Nil:
			default:
				return nil, nil, nil, core.NewTypeError("...", 0, "list", v.TypeName(), sp.Pos.Ptr())
			}
			for _, x := range xs {
				vals = append(vals, x)
				spans = append(spans, sp.Pos)
			}
			continue
		}
		v, w1, err := c.Eval(arg, w)
		if err != nil {
			return nil, nil, nil, err
		}
		w = w1
		vals = append(vals, v)
		spans = append(spans, arg.Span())
	}
	return vals, spans, w, nil
}

// EvalBody evaluates forms in order, threading the World, and returns
// the last value (or nil for no forms).
func (c *Context) EvalBody(forms []ast.Expr, w *world.World) (value.Value, *world.World, error) {
	var v value.Value = value.Nil{}
	for _, x := range forms {
		var err error
		if v, w, err = c.Eval(x, w); err != nil {
			return nil, nil, err
		}
	}
	return v, w, nil
}
