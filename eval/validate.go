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
	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
)

// Validate checks an expanded tree before evaluation.
//
// Validate reports unknown atoms, argument counts that are wrong
// regardless of what the arguments evaluate to, bare symbols, and
// stray definitions.  These are all things evaluation would report
// anyway, but Validate finds them without running anything and
// before any output is produced.
func Validate(x ast.Expr, atoms *Registry) error {
	v := &validator{atoms: atoms}
	return v.expr(x)
}

// ValidateAll validates each form.
func ValidateAll(xs []ast.Expr, atoms *Registry) error {
	for _, x := range xs {
		if err := Validate(x, atoms); err != nil {
			return err
		}
	}
	return nil
}

type validator struct {
	atoms *Registry
}

func verror(code core.Code, span core.Span, format string, args ...interface{}) *core.Error {
	return core.NewError(core.ValidationKind, code, span.Ptr(), format, args...)
}

func (v *validator) expr(x ast.Expr) error {
	switch vv := x.(type) {
	case *ast.List:
		if len(vv.Items) == 0 {
			return nil
		}
		return v.call(vv)
	case *ast.If:
		for _, y := range []ast.Expr{vv.Cond, vv.Then, vv.Else} {
			if err := v.expr(y); err != nil {
				return err
			}
		}
		return nil
	case *ast.Symbol:
		e := verror(core.BareSymbol, vv.Pos, "bare symbol %s can't be evaluated", vv.Name)
		e.Node = vv.Name
		return e.WithSuggestion("use (get " + vv.Name + ") to read a value")
	case *ast.Spread:
		return verror(core.InvalidForm, vv.Pos, "%s is only allowed in an argument list", vv)
	case *ast.Define:
		return verror(core.InvalidDefinition, vv.Pos, "define of %s is only allowed at top level", vv.Name)
	case *ast.ParamList:
		return verror(core.InvalidForm, vv.Pos, "unexpected parameter list %s", vv)
	}
	return nil
}

func (v *validator) call(l *ast.List) error {
	head, is := l.Items[0].(*ast.Symbol)
	if !is {
		return verror(core.NotAnAtom, l.Items[0].Span(), "first element must name an atom, not %s", l.Items[0])
	}
	a, have := v.atoms.Lookup(head.Name)
	if !have {
		e := verror(core.UnknownAtom, head.Pos, "unknown atom %s", head.Name)
		e.Callee = head.Name
		if s, ok := v.atoms.Closest(head.Name); ok {
			e.WithSuggestion("did you mean " + s + "?")
		}
		return e
	}

	args := l.Items[1:]
	spread := false
	for _, arg := range args {
		if _, is := arg.(*ast.Spread); is {
			spread = true
		}
	}
	if a.special != nil || !spread {
		if !a.arity.Accepts(len(args)) {
			e := core.NewArityError(core.ValidationKind, head.Name, a.arity.String(), len(args), l.Pos.Ptr())
			return e
		}
	}

	for i, arg := range args {
		if sp, is := arg.(*ast.Spread); is && !a.Spreads(i) {
			e := verror(core.InvalidForm, sp.Pos, "%s can't be spread into %s", sp, head.Name)
			e.Callee = head.Name
			return e
		}
		var err error
		switch a.Shape(i, len(args)) {
		case ParamsShape:
			_, err = ParseParams(arg)
			if e, is := core.AsError(err); is {
				e.Kind = core.ValidationKind
			}
		case BindingsShape:
			err = v.bindings(arg)
		case CallableShape:
			err = v.callable(arg)
		default:
			if sp, is := arg.(*ast.Spread); is {
				err = v.expr(sp.Inner)
			} else {
				err = v.expr(arg)
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) bindings(x ast.Expr) error {
	l, is := x.(*ast.List)
	if !is {
		return verror(core.InvalidForm, x.Span(), "expected bindings like ((x 1) (y 2)), got %s", x)
	}
	for _, b := range l.Items {
		pair, is := b.(*ast.List)
		if !is || len(pair.Items) != 2 {
			return verror(core.InvalidForm, b.Span(), "binding must be (name expr), not %s", b)
		}
		if _, is := pair.Items[0].(*ast.Symbol); !is {
			return verror(core.InvalidForm, pair.Items[0].Span(), "binding name must be a symbol, not %s", pair.Items[0])
		}
		if err := v.expr(pair.Items[1]); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) callable(x ast.Expr) error {
	if s, is := x.(*ast.Symbol); is {
		if _, have := v.atoms.Lookup(s.Name); !have {
			e := verror(core.UnknownAtom, s.Pos, "unknown atom %s", s.Name)
			e.Callee = s.Name
			return e
		}
		return nil
	}
	return v.expr(x)
}
