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
	"github.com/Comcast/sutra/value"
)

// Quote converts a syntactic form to a Value without evaluating it.
//
// Symbols become strings.  Read-time forms become lists again, so
// '(if a b c) is the list ("if" "a" "b" "c").  A parameter list has no
// runtime representation, so quoting one is an error.
func Quote(x ast.Expr) (value.Value, error) {
	switch vv := x.(type) {
	case *ast.Symbol:
		return value.Str(vv.Name), nil
	case *ast.Str:
		return value.Str(vv.Val), nil
	case *ast.Num:
		return value.Num(vv.Val), nil
	case *ast.Bool:
		return value.Bool(vv.Val), nil
	case *ast.Nil:
		return value.Nil{}, nil
	case *ast.PathExpr:
		return value.Path(vv.Path), nil
	case *ast.List:
		return quoteAll(vv.Items)
	case *ast.If:
		return quoteAll([]ast.Expr{&ast.Symbol{Name: "if"}, vv.Cond, vv.Then, vv.Else})
	case *ast.Quote:
		return quoteAll([]ast.Expr{&ast.Symbol{Name: "quote"}, vv.Inner})
	case *ast.Spread:
		return value.Str(vv.String()), nil
	case *ast.ParamList:
		return nil, core.NewError(core.EvalKind, core.Unquotable, vv.Pos.Ptr(),
			"can't quote parameter list %s", vv)
	case *ast.Define:
		return nil, core.NewError(core.EvalKind, core.Unquotable, vv.Pos.Ptr(),
			"can't quote definition of %s", vv.Name)
	}
	return nil, core.Internal("quote: unknown node type %T", x)
}

func quoteAll(xs []ast.Expr) (value.Value, error) {
	acc := make(value.List, len(xs))
	for i, x := range xs {
		v, err := Quote(x)
		if err != nil {
			return nil, err
		}
		acc[i] = v
	}
	return acc, nil
}
