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
	_ "embed"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
)

//go:embed std.sutra
var StdSource string

// Standard returns a new Registry with the native macros and the
// templates from StdSource.  The templates use counter hygiene.
func Standard() *Registry {
	r := NewRegistry()
	RegisterNatives(r)
	if err := Load(r, "std.sutra", StdSource, &CounterHygiene{}); err != nil {
		panic(err)
	}
	return r
}

// RegisterNatives adds the native macros.
func RegisterNatives(r *Registry) {
	r.Register(Native("get", "Read the value at a path: (get score) or (get player.hp).",
		pathCall("core/get", 0)))
	r.Register(Native("set!", "Store a value at a path: (set! score 5).",
		pathCall("core/set!", 1)))
	r.Register(Native("del!", "Remove the value at a path.",
		pathCall("core/del!", 0)))
	r.Register(Native("exists?", "Report whether there's a value at a path.",
		pathCall("core/exists?", 0)))
	r.Register(Native("cond", "Multi-way conditional: (cond (test expr) ... (else expr)).",
		expandCond))
	r.Register(Native("unless", "Evaluate the body when the condition is false.  Otherwise nil.",
		expandUnless))
}

// PathArg turns a path-ish argument into a path node.
//
// A symbol like player.hp or a string literal becomes a path literal.
// A path literal stays as is.  Anything else is left for evaluation,
// which should produce a path or a string.
func PathArg(x ast.Expr) ast.Expr {
	switch vv := x.(type) {
	case *ast.Symbol:
		return &ast.PathExpr{Path: core.ParsePath(vv.Name), Pos: vv.Pos}
	case *ast.Str:
		return &ast.PathExpr{Path: core.ParsePath(vv.Val), Pos: vv.Pos}
	}
	return x
}

// pathCall makes a Transform that rewrites (name p args...) into
// (atom (path ...) args...).  The macro takes exactly extra arguments
// after the path.
func pathCall(atom string, extra int) Transform {
	return func(call *ast.List) (ast.Expr, error) {
		args := call.Items[1:]
		if len(args) != extra+1 {
			name, _ := ast.Head(call)
			return nil, ArityError(name, extra+1, false, len(args), call.Pos)
		}
		acc := make([]ast.Expr, 0, len(args))
		acc = append(acc, PathArg(args[0]))
		acc = append(acc, args[1:]...)
		return ast.Call(call.Pos, atom, acc...), nil
	}
}

func invalidForm(span core.Span, callee string, format string, args ...interface{}) *core.Error {
	e := core.NewError(core.MacroKind, core.InvalidForm, span.Ptr(), format, args...)
	e.Callee = callee
	return e
}

// body makes one expression out of zero or more.
func body(span core.Span, forms []ast.Expr) ast.Expr {
	switch len(forms) {
	case 0:
		return &ast.Nil{Pos: span}
	case 1:
		return forms[0]
	}
	return ast.Call(span, "do", forms...)
}

// expandCond rewrites (cond (t1 e1) (t2 e2) (else e3)) into
// (if t1 e1 (if t2 e2 e3)).
func expandCond(call *ast.List) (ast.Expr, error) {
	clauses := call.Items[1:]
	if len(clauses) == 0 {
		return nil, ArityError("cond", 1, true, 0, call.Pos)
	}

	var acc ast.Expr = &ast.Nil{Pos: call.Pos}
	for i := len(clauses) - 1; 0 <= i; i-- {
		clause, is := clauses[i].(*ast.List)
		if !is || len(clause.Items) == 0 {
			return nil, invalidForm(clauses[i].Span(), "cond",
				"cond clause must be (test expr ...), not %s", clauses[i])
		}
		test := clause.Items[0]
		then := body(clause.Pos, clause.Items[1:])
		if ast.IsSymbol(test, "else") {
			if i != len(clauses)-1 {
				return nil, invalidForm(clause.Pos, "cond", "else must be the last cond clause")
			}
			acc = then
			continue
		}
		if len(clause.Items) == 1 {
			return nil, invalidForm(clause.Pos, "cond", "cond clause %s has no expression", clause)
		}
		acc = &ast.If{Cond: test, Then: then, Else: acc, Pos: clause.Pos}
	}
	return acc, nil
}

// expandUnless rewrites (unless c body...) into (if c nil (do body...)).
func expandUnless(call *ast.List) (ast.Expr, error) {
	if len(call.Items) < 2 {
		return nil, ArityError("unless", 1, true, 0, call.Pos)
	}
	return &ast.If{
		Cond: call.Items[1],
		Then: &ast.Nil{Pos: call.Pos},
		Else: body(call.Pos, call.Items[2:]),
		Pos:  call.Pos,
	}, nil
}
