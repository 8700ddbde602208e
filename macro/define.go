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
	"strings"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/syntax"
)

// IsDefinition reports whether x looks like (define ...).
func IsDefinition(x ast.Expr) bool {
	name, is := ast.Head(x)
	return is && name == "define"
}

func badDefinition(span core.Span, format string, args ...interface{}) *core.Error {
	e := core.NewError(core.MacroKind, core.InvalidDefinition, span.Ptr(), format, args...)
	e.Callee = "define"
	return e
}

// ParseDefinition turns (define (name params...) body...) into an
// ast.Define.  A final parameter written ...rest is the rest
// parameter.  More than one body form gets wrapped in a do.
func ParseDefinition(x ast.Expr) (*ast.Define, error) {
	l, is := x.(*ast.List)
	if !is || !IsDefinition(x) {
		return nil, badDefinition(x.Span(), "expected (define (name params...) body), got %s", x)
	}
	if len(l.Items) < 2 {
		return nil, badDefinition(l.Pos, "define is missing its name and parameters")
	}
	sig, is := l.Items[1].(*ast.List)
	if !is {
		return nil, badDefinition(l.Items[1].Span(),
			"define expects (name params...) but got %s", l.Items[1]).
			WithSuggestion("write (define (name param ...) body)")
	}
	if len(sig.Items) == 0 {
		return nil, badDefinition(sig.Pos, "define is missing a name")
	}
	name, is := sig.Items[0].(*ast.Symbol)
	if !is {
		return nil, badDefinition(sig.Items[0].Span(), "macro name must be a symbol, not %s", sig.Items[0])
	}
	if len(l.Items) < 3 {
		return nil, badDefinition(l.Pos, "define of %s has no body", name.Name)
	}

	params := &ast.ParamList{
		Required: make([]string, 0, len(sig.Items)-1),
		Pos:      sig.Pos,
	}
	seen := make(map[string]core.Span, len(sig.Items))
	for i, item := range sig.Items[1:] {
		var pname string
		rest := false
		switch vv := item.(type) {
		case *ast.Symbol:
			pname = vv.Name
		case *ast.Spread:
			s, is := vv.Inner.(*ast.Symbol)
			if !is {
				return nil, badDefinition(item.Span(), "rest parameter must be a symbol, not %s", vv.Inner)
			}
			pname = s.Name
			rest = true
		default:
			return nil, badDefinition(item.Span(), "parameter must be a symbol, not %s", item)
		}
		if first, have := seen[pname]; have {
			return nil, badDefinition(item.Span(), "duplicate parameter %s in %s", pname, name.Name).
				WithRelated(first, "first declared here")
		}
		seen[pname] = item.Span()
		if rest {
			if i != len(sig.Items)-2 {
				return nil, badDefinition(item.Span(), "rest parameter ...%s must be last", pname)
			}
			params.Rest = pname
			continue
		}
		params.Required = append(params.Required, pname)
	}

	var body ast.Expr
	if len(l.Items) == 3 {
		body = l.Items[2]
	} else {
		forms := l.Items[2:]
		span := forms[0].Span().Join(forms[len(forms)-1].Span())
		body = ast.Call(span, "do", forms...)
	}

	return &ast.Define{
		Name:   name.Name,
		Params: params,
		Body:   body,
		Pos:    l.Pos,
	}, nil
}

// FromDefinition makes a template Macro.  The hygiene is optional.
func FromDefinition(d *ast.Define, doc string, h Hygiene) *Macro {
	return FromTemplate(d.Name, doc, &Template{
		Params:  d.Params,
		Body:    d.Body,
		Hygiene: h,
	}, d.Pos.Ptr())
}

// Load parses src, which should contain only define forms, and
// registers each as a template macro.
//
// Two definitions with the same name in src is a DuplicateName
// error.  A definition with the same name as a macro that's already
// in the Registry replaces it.  Nothing is registered if there's an
// error.
//
// Comment lines starting with ";;" immediately before a definition
// become that macro's doc.
func Load(r *Registry, name, src string, h Hygiene) error {
	xs, err := syntax.ParseAll(name, src)
	if err != nil {
		return err
	}
	local := NewRegistry()
	for _, x := range xs {
		d, err := ParseDefinition(x)
		if err != nil {
			if e, is := core.AsError(err); is {
				e.Origin = name
			}
			return err
		}
		m := FromDefinition(d, DocComment(src, d.Pos.Start), h)
		if err := local.RegisterOrError(m); err != nil {
			if e, is := core.AsError(err); is {
				e.Origin = name
			}
			return err
		}
	}
	for _, n := range local.Names() {
		m, _ := local.Lookup(n)
		r.Register(m)
	}
	return nil
}

// DocComment collects the ";;" lines that end just before offset.
func DocComment(src string, offset int) string {
	if offset > len(src) {
		offset = len(src)
	}
	lines := strings.Split(src[:offset], "\n")
	// The last element is whatever precedes the form on its own line.
	if 0 < len(lines) && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	var acc []string
	for i := len(lines) - 1; 0 <= i; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, ";;") {
			break
		}
		acc = append(acc, strings.TrimSpace(strings.TrimLeft(line, ";")))
	}
	for i, j := 0, len(acc)-1; i < j; i, j = i+1, j-1 {
		acc[i], acc[j] = acc[j], acc[i]
	}
	return strings.Join(acc, "\n")
}
