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

// Package syntax reads source text into expression trees.
//
// The reader knows about a few read-time forms: (if c t e), (if c t),
// (quote x), 'x, (path a b), and ...x.  Everything else is a List, a
// Symbol, or a literal.  Definitions are recognized later by package
// macro.
package syntax

import (
	"strconv"
	"strings"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
)

// GensymMarker appears in names produced by macro hygiene.  Source
// text can't use it in symbols, so generated names never collide with
// names an author wrote.
const GensymMarker = "#"

// Options control the reader.
type Options struct {
	// Gensyms allows GensymMarker in symbols.  That's only
	// appropriate when reading text that the engine itself wrote
	// (for example, a stored lambda).
	Gensyms bool
}

// Parser reads one source text.
type Parser struct {
	Name string
	Src  string
	Pos  int
	Opts Options
}

// NewParser makes a Parser.  The name (usually a filename) is
// reported in errors.
func NewParser(name, src string) *Parser {
	return &Parser{
		Name: name,
		Src:  src,
	}
}

// ParseAll reads every form in src.
func ParseAll(name, src string) ([]ast.Expr, error) {
	return NewParser(name, src).All()
}

// ParseOne reads exactly one form.  Gensym names are allowed.
func ParseOne(name, src string) (ast.Expr, error) {
	p := NewParser(name, src)
	p.Opts.Gensyms = true
	xs, err := p.All()
	if err != nil {
		return nil, err
	}
	if len(xs) != 1 {
		return nil, p.errorf(core.InvalidSyntax, core.NewSpan(0, len(src)),
			"expected one form, found %d", len(xs))
	}
	return xs[0], nil
}

// MustParse is ParseAll that panics on error.  For tests and
// built-in source.
func MustParse(src string) []ast.Expr {
	xs, err := ParseAll("", src)
	if err != nil {
		panic(err)
	}
	return xs
}

// All reads the remaining forms.
func (p *Parser) All() ([]ast.Expr, error) {
	acc := make([]ast.Expr, 0, 8)
	for {
		p.skip()
		if p.Pos >= len(p.Src) {
			return acc, nil
		}
		x, err := p.Next()
		if err != nil {
			return nil, err
		}
		acc = append(acc, x)
	}
}

func (p *Parser) errorf(code core.Code, span core.Span, format string, args ...interface{}) *core.Error {
	e := core.NewError(core.ParseKind, code, span.Ptr(), format, args...)
	e.Origin = p.Name
	return e
}

// skip consumes whitespace and comments.
func (p *Parser) skip() {
	for p.Pos < len(p.Src) {
		c := p.Src[p.Pos]
		switch {
		case c == ';':
			for p.Pos < len(p.Src) && p.Src[p.Pos] != '\n' {
				p.Pos++
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			p.Pos++
		default:
			return
		}
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', '(', ')', '"', ';', '\'':
		return true
	}
	return false
}

// Next reads the next form.
func (p *Parser) Next() (ast.Expr, error) {
	p.skip()
	if p.Pos >= len(p.Src) {
		return nil, p.errorf(core.UnexpectedEOF, core.NewSpan(p.Pos, p.Pos), "unexpected end of input")
	}
	start := p.Pos
	switch p.Src[p.Pos] {
	case '(':
		return p.list()
	case ')':
		p.Pos++
		return nil, p.errorf(core.InvalidSyntax, core.NewSpan(start, p.Pos), "unexpected ')'")
	case '\'':
		p.Pos++
		inner, err := p.Next()
		if err != nil {
			return nil, err
		}
		return &ast.Quote{Inner: inner, Pos: core.NewSpan(start, inner.Span().End)}, nil
	case '"':
		return p.str()
	default:
		return p.atom()
	}
}

func (p *Parser) list() (ast.Expr, error) {
	start := p.Pos
	p.Pos++
	items := make([]ast.Expr, 0, 4)
	for {
		p.skip()
		if p.Pos >= len(p.Src) {
			return nil, p.errorf(core.UnexpectedEOF, core.NewSpan(start, start+1), "unclosed list")
		}
		if p.Src[p.Pos] == ')' {
			p.Pos++
			break
		}
		x, err := p.Next()
		if err != nil {
			return nil, err
		}
		items = append(items, x)
	}
	return p.form(items, core.NewSpan(start, p.Pos))
}

// form recognizes the read-time forms.
func (p *Parser) form(items []ast.Expr, span core.Span) (ast.Expr, error) {
	if len(items) == 0 {
		return &ast.List{Items: items, Pos: span}, nil
	}
	head, is := items[0].(*ast.Symbol)
	if !is {
		return &ast.List{Items: items, Pos: span}, nil
	}
	switch head.Name {
	case "if":
		switch len(items) {
		case 3:
			return &ast.If{
				Cond: items[1],
				Then: items[2],
				Else: &ast.Nil{Pos: core.NewSpan(span.End-1, span.End-1)},
				Pos:  span,
			}, nil
		case 4:
			return &ast.If{Cond: items[1], Then: items[2], Else: items[3], Pos: span}, nil
		}
		e := p.errorf(core.InvalidSyntax, span, "if expects 2 or 3 arguments, got %d", len(items)-1)
		e.Callee = "if"
		return nil, e
	case "quote":
		if len(items) != 2 {
			e := p.errorf(core.InvalidSyntax, span, "quote expects exactly 1 argument, got %d", len(items)-1)
			e.Callee = "quote"
			return nil, e
		}
		return &ast.Quote{Inner: items[1], Pos: span}, nil
	case "path":
		path := make(core.Path, 0, len(items)-1)
		for _, item := range items[1:] {
			switch vv := item.(type) {
			case *ast.Symbol:
				path = append(path, core.ParsePath(vv.Name)...)
			case *ast.Str:
				path = append(path, vv.Val)
			case *ast.Num:
				path = append(path, vv.String())
			default:
				return nil, p.errorf(core.InvalidSyntax, item.Span(),
					"path segment must be a symbol, string, or number, not %s", item)
			}
		}
		return &ast.PathExpr{Path: path, Pos: span}, nil
	}
	return &ast.List{Items: items, Pos: span}, nil
}

func (p *Parser) str() (ast.Expr, error) {
	start := p.Pos
	p.Pos++
	for p.Pos < len(p.Src) {
		switch p.Src[p.Pos] {
		case '\\':
			p.Pos += 2
			continue
		case '"':
			p.Pos++
			raw := p.Src[start:p.Pos]
			// Allow literal newlines in strings.
			raw = strings.ReplaceAll(raw, "\n", `\n`)
			raw = strings.ReplaceAll(raw, "\r", `\r`)
			s, err := strconv.Unquote(raw)
			if err != nil {
				return nil, p.errorf(core.InvalidSyntax, core.NewSpan(start, p.Pos), "bad string literal: %s", err)
			}
			return &ast.Str{Val: s, Pos: core.NewSpan(start, p.Pos)}, nil
		}
		p.Pos++
	}
	p.Pos = len(p.Src)
	return nil, p.errorf(core.UnexpectedEOF, core.NewSpan(start, start+1), "unclosed string")
}

func (p *Parser) atom() (ast.Expr, error) {
	start := p.Pos
	for p.Pos < len(p.Src) && !isDelimiter(p.Src[p.Pos]) {
		p.Pos++
	}
	tok := p.Src[start:p.Pos]
	span := core.NewSpan(start, p.Pos)

	if strings.HasPrefix(tok, "...") {
		if tok == "..." {
			inner, err := p.Next()
			if err != nil {
				return nil, err
			}
			return &ast.Spread{Inner: inner, Pos: core.NewSpan(start, inner.Span().End)}, nil
		}
		inner, err := p.token(tok[3:], core.NewSpan(start+3, p.Pos))
		if err != nil {
			return nil, err
		}
		return &ast.Spread{Inner: inner, Pos: span}, nil
	}
	return p.token(tok, span)
}

func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	c := tok[0]
	if c == '-' || c == '+' {
		if len(tok) == 1 {
			return false
		}
		c = tok[1]
		if c == '.' && 2 < len(tok) {
			c = tok[2]
		}
	} else if c == '.' && 1 < len(tok) {
		c = tok[1]
	}
	return '0' <= c && c <= '9'
}

func (p *Parser) token(tok string, span core.Span) (ast.Expr, error) {
	switch tok {
	case "true":
		return &ast.Bool{Val: true, Pos: span}, nil
	case "false":
		return &ast.Bool{Val: false, Pos: span}, nil
	case "nil":
		return &ast.Nil{Pos: span}, nil
	}
	if looksNumeric(tok) {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, p.errorf(core.InvalidSyntax, span, "bad number %q", tok)
		}
		return &ast.Num{Val: f, Pos: span}, nil
	}
	if !p.Opts.Gensyms && strings.Contains(tok, GensymMarker) {
		return nil, p.errorf(core.InvalidSyntax, span, "symbol %q can't contain %q", tok, GensymMarker)
	}
	return &ast.Symbol{Name: tok, Pos: span}, nil
}
