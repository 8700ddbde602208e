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

package macro

import (
	"strconv"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
)

// DefaultMaxDepth is the default bound on nested macro applications.
var DefaultMaxDepth = 64

// Expander rewrites author syntax into the canonical core language.
//
// After expansion, the only things left are if, quote, literals,
// paths, and calls whose heads should name atoms.
type Expander struct {
	Macros *Registry

	// MaxDepth bounds how many times the output of a macro can be
	// re-expanded.  Zero means DefaultMaxDepth.
	//
	// Depth counts rewrites along one chain.  Arguments passed
	// through a macro keep the depth they had at the call site, so
	// author code can nest macro calls as deeply as it likes.
	MaxDepth int
}

// pass is the state of one Expand.
type pass struct {
	*Expander

	// origins records the depth at which a call site argument
	// was seen.
	origins map[ast.Expr]int
}

// NewExpander makes an Expander.
func NewExpander(r *Registry) *Expander {
	return &Expander{
		Macros:   r,
		MaxDepth: DefaultMaxDepth,
	}
}

// Expand expands x until no macro calls remain.
//
// Expanding a tree that's already fully expanded returns that tree
// unchanged (the same nodes).
func (x *Expander) Expand(e ast.Expr) (ast.Expr, error) {
	p := &pass{
		Expander: x,
		origins:  make(map[ast.Expr]int),
	}
	return p.expand(e, 0, "")
}

// ExpandAll expands each form.
func (x *Expander) ExpandAll(es []ast.Expr) ([]ast.Expr, error) {
	acc := make([]ast.Expr, len(es))
	for i, e := range es {
		y, err := x.Expand(e)
		if err != nil {
			return nil, err
		}
		acc[i] = y
	}
	return acc, nil
}

func (x *Expander) maxDepth() int {
	if x.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return x.MaxDepth
}

// note records the arguments of a call (and the items of list
// arguments, which native macros take apart) at the call's depth.
func (x *pass) note(call *ast.List, depth int) {
	for _, arg := range call.Items[1:] {
		x.noteOne(arg, depth)
		if l, is := arg.(*ast.List); is {
			for _, item := range l.Items {
				x.noteOne(item, depth)
			}
		}
	}
}

func (x *pass) noteOne(e ast.Expr, depth int) {
	if d, have := x.origins[e]; have && d <= depth {
		return
	}
	x.origins[e] = depth
}

func (x *pass) expand(e ast.Expr, depth int, within string) (ast.Expr, error) {
	if d, have := x.origins[e]; have && d < depth {
		depth = d
	}
	switch vv := e.(type) {
	case *ast.List:
		if name, is := ast.Head(vv); is {
			if m, have := x.Macros.Lookup(name); have {
				if x.maxDepth() <= depth {
					err := core.NewError(core.MacroKind, core.RecursionLimit, vv.Pos.Ptr(),
						"macro expansion depth limit (%d) exceeded in %s", x.maxDepth(), name)
					err.Callee = name
					err.Node = vv.String()
					return nil, err
				}
				y, err := x.apply(m, vv)
				if err != nil {
					return nil, err
				}
				x.note(vv, depth)
				return x.expand(y, depth+1, name)
			}
		}
		return x.expandItems(vv, depth, within)

	case *ast.If:
		c, err := x.expand(vv.Cond, depth, within)
		if err != nil {
			return nil, err
		}
		t, err := x.expand(vv.Then, depth, within)
		if err != nil {
			return nil, err
		}
		el, err := x.expand(vv.Else, depth, within)
		if err != nil {
			return nil, err
		}
		if c == vv.Cond && t == vv.Then && el == vv.Else {
			return vv, nil
		}
		return &ast.If{Cond: c, Then: t, Else: el, Pos: vv.Pos}, nil

	case *ast.Spread:
		y, err := x.expand(vv.Inner, depth, within)
		if err != nil {
			return nil, err
		}
		if y == vv.Inner {
			return vv, nil
		}
		return &ast.Spread{Inner: y, Pos: vv.Pos}, nil

	case *ast.Define:
		err := core.NewError(core.MacroKind, core.InvalidDefinition, vv.Pos.Ptr(),
			"define of %s is only allowed at top level", vv.Name)
		err.Callee = within
		return nil, err
	}

	// Quote, literals, symbols, and paths.
	return e, nil
}

func (x *pass) expandItems(l *ast.List, depth int, within string) (ast.Expr, error) {
	var items []ast.Expr
	for i, item := range l.Items {
		y, err := x.expand(item, depth, within)
		if err != nil {
			return nil, err
		}
		if y != item && items == nil {
			items = make([]ast.Expr, len(l.Items))
			copy(items, l.Items[:i])
		}
		if items != nil {
			items[i] = y
		}
	}
	if items == nil {
		return l, nil
	}
	return &ast.List{Items: items, Pos: l.Pos}, nil
}

// Apply applies one macro to a call once without expanding the
// result.
func (x *Expander) Apply(name string, call *ast.List) (ast.Expr, error) {
	m, have := x.Macros.Lookup(name)
	if !have {
		return nil, core.NewError(core.MacroKind, core.InvalidForm, call.Pos.Ptr(), "no macro named %s", name)
	}
	return x.apply(m, call)
}

func (x *Expander) apply(m *Macro, call *ast.List) (ast.Expr, error) {
	if m.native != nil {
		y, err := m.native(call)
		if err != nil {
			if e, is := core.AsError(err); is {
				if e.Span == nil {
					e.Span = call.Pos.Ptr()
				}
				if e.Callee == "" {
					e.Callee = m.name
				}
				return nil, e
			}
			return nil, core.NewError(core.MacroKind, core.InvalidForm, call.Pos.Ptr(), "%s: %s", m.name, err).
				WithCallee(m.name)
		}
		return y, nil
	}
	return instantiate(m.name, m.template, call)
}

// ArityError makes the error for a macro called with the wrong
// number of arguments.
func ArityError(name string, required int, variadic bool, got int, span core.Span) *core.Error {
	expected := "exactly " + strconv.Itoa(required)
	if variadic {
		expected = "at least " + strconv.Itoa(required)
	}
	return core.NewArityError(core.MacroKind, name, expected, got, span.Ptr())
}

// instantiate checks arity, binds parameters, and substitutes.
func instantiate(name string, t *Template, call *ast.List) (ast.Expr, error) {
	args := call.Items[1:]
	required := len(t.Params.Required)
	variadic := t.Params.Rest != ""

	if (variadic && len(args) < required) || (!variadic && len(args) != required) {
		return nil, ArityError(name, required, variadic, len(args), call.Pos)
	}

	s := &substitution{
		bound: make(map[string]ast.Expr, required),
		rest:  t.Params.Rest,
		span:  call.Pos,
	}
	for i, p := range t.Params.Required {
		s.bound[p] = args[i]
	}
	if variadic {
		s.restArgs = args[required:]
	}

	return s.subst(hygienic(t)), nil
}

// substitution replaces parameter references in a template body.
//
// Argument nodes are shared, not copied.  Nodes that come from the
// template body get the call's span.
type substitution struct {
	bound    map[string]ast.Expr
	rest     string
	restArgs []ast.Expr
	span     core.Span
}

func (s *substitution) isRest(x ast.Expr) bool {
	if s.rest == "" {
		return false
	}
	switch vv := x.(type) {
	case *ast.Symbol:
		return vv.Name == s.rest
	case *ast.Spread:
		return ast.IsSymbol(vv.Inner, s.rest)
	}
	return false
}

func (s *substitution) subst(x ast.Expr) ast.Expr {
	switch vv := x.(type) {
	case *ast.Symbol:
		if arg, have := s.bound[vv.Name]; have {
			return arg
		}
		if s.rest != "" && vv.Name == s.rest {
			// A bare reference outside an argument list.
			return &ast.List{Items: s.restArgs, Pos: s.span}
		}
		return &ast.Symbol{Name: vv.Name, Pos: s.span}

	case *ast.List:
		items := make([]ast.Expr, 0, len(vv.Items)+len(s.restArgs))
		for _, item := range vv.Items {
			if s.isRest(item) {
				// Forwarding: splice the rest arguments.
				items = append(items, s.restArgs...)
				continue
			}
			items = append(items, s.subst(item))
		}
		return &ast.List{Items: items, Pos: s.span}

	case *ast.If:
		return &ast.If{
			Cond: s.subst(vv.Cond),
			Then: s.subst(vv.Then),
			Else: s.subst(vv.Else),
			Pos:  s.span,
		}

	case *ast.Quote:
		return &ast.Quote{Inner: s.subst(vv.Inner), Pos: s.span}

	case *ast.Spread:
		return &ast.Spread{Inner: s.subst(vv.Inner), Pos: s.span}
	}
	return ast.Respan(x, s.span)
}
