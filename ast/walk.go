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

package ast

import "github.com/Comcast/sutra/core"

// Children returns the direct sub-nodes of x in source order.
func Children(x Expr) []Expr {
	switch vv := x.(type) {
	case *List:
		return vv.Items
	case *If:
		return []Expr{vv.Cond, vv.Then, vv.Else}
	case *Quote:
		return []Expr{vv.Inner}
	case *Spread:
		return []Expr{vv.Inner}
	case *Define:
		acc := make([]Expr, 0, 2)
		if vv.Params != nil {
			acc = append(acc, vv.Params)
		}
		return append(acc, vv.Body)
	}
	return nil
}

// Walk calls f on x and then on each descendant in depth-first
// order.  If f returns false, Walk doesn't descend into that node.
func Walk(x Expr, f func(Expr) bool) {
	if x == nil || !f(x) {
		return
	}
	for _, c := range Children(x) {
		Walk(c, f)
	}
}

// Equal reports structural equality.  Spans are ignored.
func Equal(x, y Expr) bool {
	switch a := x.(type) {
	case *List:
		b, is := y.(*List)
		if !is || len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case *Symbol:
		b, is := y.(*Symbol)
		return is && a.Name == b.Name
	case *PathExpr:
		b, is := y.(*PathExpr)
		return is && a.Path.Equal(b.Path)
	case *Str:
		b, is := y.(*Str)
		return is && a.Val == b.Val
	case *Num:
		b, is := y.(*Num)
		return is && a.Val == b.Val
	case *Bool:
		b, is := y.(*Bool)
		return is && a.Val == b.Val
	case *Nil:
		_, is := y.(*Nil)
		return is
	case *If:
		b, is := y.(*If)
		return is && Equal(a.Cond, b.Cond) && Equal(a.Then, b.Then) && Equal(a.Else, b.Else)
	case *Quote:
		b, is := y.(*Quote)
		return is && Equal(a.Inner, b.Inner)
	case *Spread:
		b, is := y.(*Spread)
		return is && Equal(a.Inner, b.Inner)
	case *ParamList:
		b, is := y.(*ParamList)
		if !is || a.Rest != b.Rest || len(a.Required) != len(b.Required) {
			return false
		}
		for i, p := range a.Required {
			if b.Required[i] != p {
				return false
			}
		}
		return true
	case *Define:
		b, is := y.(*Define)
		if !is || a.Name != b.Name {
			return false
		}
		if (a.Params == nil) != (b.Params == nil) {
			return false
		}
		if a.Params != nil && !Equal(a.Params, b.Params) {
			return false
		}
		return Equal(a.Body, b.Body)
	}
	return false
}

// Respan returns a copy of x in which every node has the given span.
//
// Macro expansion uses Respan on template bodies so that errors in
// macro-generated code point at the call site.
func Respan(x Expr, span core.Span) Expr {
	switch vv := x.(type) {
	case *List:
		items := make([]Expr, len(vv.Items))
		for i, item := range vv.Items {
			items[i] = Respan(item, span)
		}
		return &List{Items: items, Pos: span}
	case *Symbol:
		return &Symbol{Name: vv.Name, Pos: span}
	case *PathExpr:
		return &PathExpr{Path: vv.Path, Pos: span}
	case *Str:
		return &Str{Val: vv.Val, Pos: span}
	case *Num:
		return &Num{Val: vv.Val, Pos: span}
	case *Bool:
		return &Bool{Val: vv.Val, Pos: span}
	case *Nil:
		return &Nil{Pos: span}
	case *If:
		return &If{
			Cond: Respan(vv.Cond, span),
			Then: Respan(vv.Then, span),
			Else: Respan(vv.Else, span),
			Pos:  span,
		}
	case *Quote:
		return &Quote{Inner: Respan(vv.Inner, span), Pos: span}
	case *Spread:
		return &Spread{Inner: Respan(vv.Inner, span), Pos: span}
	case *ParamList:
		return &ParamList{Required: vv.Required, Rest: vv.Rest, Pos: span}
	case *Define:
		d := &Define{Name: vv.Name, Body: Respan(vv.Body, span), Pos: span}
		if vv.Params != nil {
			d.Params = Respan(vv.Params, span).(*ParamList)
		}
		return d
	}
	return x
}

// Depth is the height of the tree rooted at x.  A leaf has depth 1.
func Depth(x Expr) int {
	max := 0
	for _, c := range Children(x) {
		if d := Depth(c); max < d {
			max = d
		}
	}
	return max + 1
}
