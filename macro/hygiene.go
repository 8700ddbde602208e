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
	"sync/atomic"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/syntax"
)

// Hygiene renames identifiers introduced by a template so they can't
// collide with names supplied at the call site.
//
// Only names bound by literal let forms in a template body are
// renamed.
type Hygiene interface {
	// Rename returns a fresh name based on the given one.
	Rename(name string) string
}

// CounterHygiene appends a unique numeric suffix: tmp becomes tmp#1.
//
// The reader rejects symbols containing '#', so a renamed identifier
// can't be the same as anything an author wrote.  Safe for concurrent
// use.
type CounterHygiene struct {
	n uint64
}

func (h *CounterHygiene) Rename(name string) string {
	n := atomic.AddUint64(&h.n, 1)
	return name + syntax.GensymMarker + strconv.FormatUint(n, 10)
}

// letNames finds the names bound by literal let forms in a template
// body.  Parameter names are excluded since those are replaced by
// call-site arguments anyway.
func letNames(body ast.Expr, params *ast.ParamList) map[string]bool {
	isParam := make(map[string]bool, len(params.Required)+1)
	for _, p := range params.Required {
		isParam[p] = true
	}
	if params.Rest != "" {
		isParam[params.Rest] = true
	}

	acc := make(map[string]bool)
	ast.Walk(body, func(x ast.Expr) bool {
		if _, is := x.(*ast.Quote); is {
			return false
		}
		name, is := ast.Head(x)
		if !is || name != "let" {
			return true
		}
		l := x.(*ast.List)
		if len(l.Items) < 2 {
			return true
		}
		bindings, is := l.Items[1].(*ast.List)
		if !is {
			return true
		}
		for _, b := range bindings.Items {
			pair, is := b.(*ast.List)
			if !is || len(pair.Items) == 0 {
				continue
			}
			if s, is := pair.Items[0].(*ast.Symbol); is && !isParam[s.Name] {
				acc[s.Name] = true
			}
		}
		return true
	})
	return acc
}

// hygienic returns the template body with let-bound names renamed.
func hygienic(t *Template) ast.Expr {
	if t.Hygiene == nil {
		return t.Body
	}
	names := letNames(t.Body, t.Params)
	if len(names) == 0 {
		return t.Body
	}
	renames := make(map[string]string, len(names))
	for name := range names {
		renames[name] = t.Hygiene.Rename(name)
	}
	return rename(t.Body, renames)
}

// rename replaces symbols everywhere outside quotes.  Unchanged
// subtrees are returned as is.
func rename(x ast.Expr, renames map[string]string) ast.Expr {
	switch vv := x.(type) {
	case *ast.Symbol:
		if to, have := renames[vv.Name]; have {
			return &ast.Symbol{Name: to, Pos: vv.Pos}
		}
	case *ast.List:
		var items []ast.Expr
		for i, item := range vv.Items {
			y := rename(item, renames)
			if y != item && items == nil {
				items = make([]ast.Expr, len(vv.Items))
				copy(items, vv.Items[:i])
			}
			if items != nil {
				items[i] = y
			}
		}
		if items != nil {
			return &ast.List{Items: items, Pos: vv.Pos}
		}
	case *ast.If:
		c, t, e := rename(vv.Cond, renames), rename(vv.Then, renames), rename(vv.Else, renames)
		if c != vv.Cond || t != vv.Then || e != vv.Else {
			return &ast.If{Cond: c, Then: t, Else: e, Pos: vv.Pos}
		}
	case *ast.Spread:
		if y := rename(vv.Inner, renames); y != vv.Inner {
			return &ast.Spread{Inner: y, Pos: vv.Pos}
		}
	}
	return x
}
