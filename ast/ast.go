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

// Package ast is the expression tree.
//
// Nodes are immutable once built.  Children are plain pointers, and
// expansion shares them freely between trees rather than copying.
// Nobody modifies a node after construction, so sharing is safe.
package ast

import (
	"strconv"
	"strings"

	"github.com/Comcast/sutra/core"
)

// Expr is an expression tree node.
type Expr interface {
	// Span gives the node's location in its source.
	Span() core.Span

	// String renders the node in concrete syntax.
	String() string

	expr()
}

// List is a parenthesized sequence of nodes.
//
// After expansion, a non-empty List is a call: its first element
// should be a Symbol naming an atom.
type List struct {
	Items []Expr
	Pos   core.Span
}

// Symbol is an identifier.
type Symbol struct {
	Name string
	Pos  core.Span
}

// PathExpr is a literal World path.  Renders as (path a b).
type PathExpr struct {
	Path core.Path
	Pos  core.Span
}

// Str is a string literal.
type Str struct {
	Val string
	Pos core.Span
}

// Num is a number literal.
type Num struct {
	Val float64
	Pos core.Span
}

// Bool is a boolean literal.
type Bool struct {
	Val bool
	Pos core.Span
}

// Nil is the nil literal.
type Nil struct {
	Pos core.Span
}

// If is the one conditional form that survives expansion.
type If struct {
	Cond, Then, Else Expr
	Pos              core.Span
}

// Quote prevents evaluation of its inner form.
type Quote struct {
	Inner Expr
	Pos   core.Span
}

// ParamList is the parameter list of a definition or a lambda.
//
// Rest is empty when there's no rest parameter.
type ParamList struct {
	Required []string
	Rest     string
	Pos      core.Span
}

// Spread (...x) splices a list into an argument list.
type Spread struct {
	Inner Expr
	Pos   core.Span
}

// Define is a macro definition.
type Define struct {
	Name   string
	Params *ParamList
	Body   Expr
	Pos    core.Span
}

func (*List) expr()      {}
func (*Symbol) expr()    {}
func (*PathExpr) expr()  {}
func (*Str) expr()       {}
func (*Num) expr()       {}
func (*Bool) expr()      {}
func (*Nil) expr()       {}
func (*If) expr()        {}
func (*Quote) expr()     {}
func (*ParamList) expr() {}
func (*Spread) expr()    {}
func (*Define) expr()    {}

func (x *List) Span() core.Span      { return x.Pos }
func (x *Symbol) Span() core.Span    { return x.Pos }
func (x *PathExpr) Span() core.Span  { return x.Pos }
func (x *Str) Span() core.Span       { return x.Pos }
func (x *Num) Span() core.Span       { return x.Pos }
func (x *Bool) Span() core.Span      { return x.Pos }
func (x *Nil) Span() core.Span       { return x.Pos }
func (x *If) Span() core.Span        { return x.Pos }
func (x *Quote) Span() core.Span     { return x.Pos }
func (x *ParamList) Span() core.Span { return x.Pos }
func (x *Spread) Span() core.Span    { return x.Pos }
func (x *Define) Span() core.Span    { return x.Pos }

func (x *List) String() string {
	parts := make([]string, len(x.Items))
	for i, item := range x.Items {
		parts[i] = item.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (x *Symbol) String() string {
	return x.Name
}

func (x *PathExpr) String() string {
	var b strings.Builder
	b.WriteString("(path")
	for _, seg := range x.Path {
		b.WriteByte(' ')
		if plainSegment(seg) {
			b.WriteString(seg)
		} else {
			b.WriteString(strconv.Quote(seg))
		}
	}
	b.WriteByte(')')
	return b.String()
}

// plainSegment reports whether a path segment reads back as the same
// single segment when written as a bare symbol.
func plainSegment(s string) bool {
	switch s {
	case "", "true", "false", "nil":
		return false
	}
	switch c := s[0]; {
	case '0' <= c && c <= '9', c == '+', c == '-', c == '.':
		return false
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', ' ', '\t', '\n', '\r', ',', '(', ')', '"', ';', '\'', '\\':
			return false
		}
	}
	return true
}

func (x *Str) String() string {
	return strconv.Quote(x.Val)
}

func (x *Num) String() string {
	return FormatNumber(x.Val)
}

func (x *Bool) String() string {
	if x.Val {
		return "true"
	}
	return "false"
}

func (x *Nil) String() string {
	return "nil"
}

func (x *If) String() string {
	return "(if " + x.Cond.String() + " " + x.Then.String() + " " + x.Else.String() + ")"
}

func (x *Quote) String() string {
	return "(quote " + x.Inner.String() + ")"
}

func (x *ParamList) String() string {
	parts := make([]string, 0, len(x.Required)+1)
	parts = append(parts, x.Required...)
	if x.Rest != "" {
		parts = append(parts, "..."+x.Rest)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (x *Spread) String() string {
	return "..." + x.Inner.String()
}

func (x *Define) String() string {
	head := "(" + x.Name
	if x.Params != nil {
		ps := x.Params.String()
		if ps != "()" {
			head += " " + ps[1:len(ps)-1]
		}
	}
	head += ")"
	return "(define " + head + " " + x.Body.String() + ")"
}

// FormatNumber renders a float64 the way the reader reads it: 1
// rather than 1.000000.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Call makes a List whose head is a Symbol.  All nodes get the given
// span.
func Call(span core.Span, name string, args ...Expr) *List {
	items := make([]Expr, 0, len(args)+1)
	items = append(items, &Symbol{Name: name, Pos: span})
	items = append(items, args...)
	return &List{Items: items, Pos: span}
}

// Head returns the name of the Symbol at the head of a list, if
// there is one.
func Head(x Expr) (string, bool) {
	l, is := x.(*List)
	if !is || len(l.Items) == 0 {
		return "", false
	}
	s, is := l.Items[0].(*Symbol)
	if !is {
		return "", false
	}
	return s.Name, true
}

// IsSymbol reports whether x is the Symbol with the given name.
func IsSymbol(x Expr, name string) bool {
	s, is := x.(*Symbol)
	return is && s.Name == name
}
