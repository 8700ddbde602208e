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


package atoms

import (
	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func registerControl(r *eval.Registry) {
	r.Register(eval.Special("do", eval.AtLeast(0), do).
		WithDoc("Evaluate the forms in order and return the last value.  (do) is nil."))
	r.Register(eval.Special("and", eval.AtLeast(0), logical(false)).
		WithDoc("True if every operand is true.  Stops at the first false operand."))
	r.Register(eval.Special("or", eval.AtLeast(0), logical(true)).
		WithDoc("True if some operand is true.  Stops at the first true operand."))
	r.Register(eval.Special("let", eval.AtLeast(1), let).
		WithShape(0, eval.BindingsShape).
		WithDoc("Bind names in order, then evaluate the body: (let ((x 1) (y (+ (get x) 1))) (get y))."))
	r.Register(eval.Special("lambda", eval.AtLeast(1), lambda).
		WithShape(0, eval.ParamsShape).
		WithDoc("Make a closure: (lambda (x ...more) body...)."))
	r.Register(eval.Special("call", eval.AtLeast(1), call).
		WithShape(0, eval.CallableShape).
		WithSpread(1).
		WithDoc("Call a lambda or an atom with the given arguments."))
	r.Register(eval.Special("apply", eval.AtLeast(2), apply).
		WithShape(0, eval.CallableShape).
		WithSpread(1).
		WithDoc("Call a lambda or an atom with the given arguments followed by the elements of the last argument, which must be a list."))
	r.Register(eval.Special("for-each", eval.Exactly(2), forEach).
		WithShape(0, eval.CallableShape).
		WithDoc("Call the function on each element of the list for its effects.  Returns nil."))
	r.Register(eval.Special("map", eval.Exactly(2), mapList).
		WithShape(0, eval.CallableShape).
		WithDoc("The list of results of calling the function on each element."))
	r.Register(eval.Special("filter", eval.Exactly(2), filter).
		WithShape(0, eval.CallableShape).
		WithDoc("The elements for which the function returns true."))
	r.Register(eval.Special("reduce", eval.Exactly(3), reduce).
		WithShape(0, eval.CallableShape).
		WithDoc("Fold the list: (reduce f init xs) calls (f acc x) for each element."))
	r.Register(eval.Pure("error", eval.AtLeast(1), raise).
		WithDoc("Abort evaluation with a message made from the arguments."))
}

func do(c *eval.Context, w *world.World, args []ast.Expr, _ core.Span) (value.Value, *world.World, error) {
	return c.EvalBody(args, w)
}

// logical makes and (stop on false) or or (stop on true).
func logical(stop bool) eval.SpecialFunc {
	name := "and"
	if stop {
		name = "or"
	}
	return func(c *eval.Context, w *world.World, args []ast.Expr, _ core.Span) (value.Value, *world.World, error) {
		for i, x := range args {
			v, w1, err := c.Eval(x, w)
			if err != nil {
				return nil, nil, err
			}
			w = w1
			b, is := v.(value.Bool)
			if !is {
				return nil, nil, core.NewTypeError(name, i+1, "bool", v.TypeName(), x.Span().Ptr())
			}
			if bool(b) == stop {
				return b, w, nil
			}
		}
		return value.Bool(!stop), w, nil
	}
}

func let(c *eval.Context, w *world.World, args []ast.Expr, call core.Span) (value.Value, *world.World, error) {
	bs, is := args[0].(*ast.List)
	if !is {
		return nil, nil, core.NewError(core.EvalKind, core.InvalidForm, args[0].Span().Ptr(),
			"expected bindings like ((x 1) (y 2)), got %s", args[0])
	}
	env := c.Env
	for _, b := range bs.Items {
		pair, is := b.(*ast.List)
		if !is || len(pair.Items) != 2 {
			return nil, nil, core.NewError(core.EvalKind, core.InvalidForm, b.Span().Ptr(),
				"binding must be (name expr), not %s", b)
		}
		name, is := pair.Items[0].(*ast.Symbol)
		if !is {
			return nil, nil, core.NewError(core.EvalKind, core.InvalidForm, pair.Items[0].Span().Ptr(),
				"binding name must be a symbol, not %s", pair.Items[0])
		}
		v, w1, err := c.WithEnv(env).Eval(pair.Items[1], w)
		if err != nil {
			return nil, nil, err
		}
		w = w1
		env = env.With(name.Name, v)
	}
	return c.WithEnv(env).EvalBody(args[1:], w)
}

func lambda(c *eval.Context, w *world.World, args []ast.Expr, call core.Span) (value.Value, *world.World, error) {
	l, err := c.Lambda(args[0], args[1:], call)
	if err != nil {
		return nil, nil, err
	}
	return l, w, nil
}

func call(c *eval.Context, w *world.World, args []ast.Expr, span core.Span) (value.Value, *world.World, error) {
	f, w, err := c.Callable(args[0], w)
	if err != nil {
		return nil, nil, err
	}
	vals, spans, w, err := c.EvalArgs(args[1:], w)
	if err != nil {
		return nil, nil, err
	}
	return c.Apply(f, vals, spans, span, w)
}

func apply(c *eval.Context, w *world.World, args []ast.Expr, span core.Span) (value.Value, *world.World, error) {
	f, w, err := c.Callable(args[0], w)
	if err != nil {
		return nil, nil, err
	}
	vals, spans, w, err := c.EvalArgs(args[1:], w)
	if err != nil {
		return nil, nil, err
	}
	if len(vals) == 0 {
		return nil, nil, core.NewArityError(core.EvalKind, "apply", "at least 1 list argument", 0, span.Ptr())
	}
	last := len(vals) - 1
	var tail value.List
	switch vv := vals[last].(type) {
	case value.List:
		tail = vv
	case value.Nil:
	default:
		return nil, nil, core.NewTypeError("apply", len(args)-1, "list", vv.TypeName(), spans[last].Ptr())
	}
	lastSpan := spans[last]
	vals, spans = vals[:last], spans[:last]
	for _, x := range tail {
		vals = append(vals, x)
		spans = append(spans, lastSpan)
	}
	return c.Apply(f, vals, spans, span, w)
}

// each evaluates the function and list arguments of a higher-order
// form and calls g with the result of applying the function to each
// element.  g returns false to stop early.
func each(c *eval.Context, w *world.World, args []ast.Expr, span core.Span, name string,
	g func(x, y value.Value) (bool, error)) (*world.World, error) {

	f, w, err := c.Callable(args[0], w)
	if err != nil {
		return nil, err
	}
	v, w, err := c.Eval(args[1], w)
	if err != nil {
		return nil, err
	}
	var xs value.List
	switch vv := v.(type) {
	case value.List:
		xs = vv
	case value.Nil:
	default:
		return nil, core.NewTypeError(name, 2, "list", v.TypeName(), args[1].Span().Ptr())
	}
	for _, x := range xs {
		y, w1, err := c.Apply(f, []value.Value{x}, nil, span, w)
		if err != nil {
			return nil, err
		}
		w = w1
		more, err := g(x, y)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return w, nil
}

func forEach(c *eval.Context, w *world.World, args []ast.Expr, span core.Span) (value.Value, *world.World, error) {
	w, err := each(c, w, args, span, "for-each", func(_, _ value.Value) (bool, error) {
		return true, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return value.Nil{}, w, nil
}

func mapList(c *eval.Context, w *world.World, args []ast.Expr, span core.Span) (value.Value, *world.World, error) {
	acc := value.List{}
	w, err := each(c, w, args, span, "map", func(_, y value.Value) (bool, error) {
		acc = append(acc, y)
		return true, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return acc, w, nil
}

func filter(c *eval.Context, w *world.World, args []ast.Expr, span core.Span) (value.Value, *world.World, error) {
	acc := value.List{}
	w, err := each(c, w, args, span, "filter", func(x, y value.Value) (bool, error) {
		b, is := y.(value.Bool)
		if !is {
			e := core.NewError(core.EvalKind, core.TypeMismatch, args[0].Span().Ptr(),
				"filter function must return a bool, not %s", y.TypeName())
			e.Expected, e.Actual = "bool", y.TypeName()
			return false, e
		}
		if b {
			acc = append(acc, x)
		}
		return true, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return acc, w, nil
}

func reduce(c *eval.Context, w *world.World, args []ast.Expr, span core.Span) (value.Value, *world.World, error) {
	f, w, err := c.Callable(args[0], w)
	if err != nil {
		return nil, nil, err
	}
	acc, w, err := c.Eval(args[1], w)
	if err != nil {
		return nil, nil, err
	}
	v, w, err := c.Eval(args[2], w)
	if err != nil {
		return nil, nil, err
	}
	var xs value.List
	switch vv := v.(type) {
	case value.List:
		xs = vv
	case value.Nil:
	default:
		return nil, nil, core.NewTypeError("reduce", 3, "list", v.TypeName(), args[2].Span().Ptr())
	}
	for _, x := range xs {
		if acc, w, err = c.Apply(f, []value.Value{acc, x}, nil, span, w); err != nil {
			return nil, nil, err
		}
	}
	return acc, w, nil
}

func raise(args *eval.Args) (value.Value, error) {
	e := core.NewError(core.EvalKind, core.UserError, args.Call.Ptr(), "%s", displayAll(args.Values, " "))
	e.Callee = args.Name
	return nil, e
}
