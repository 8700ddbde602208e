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


// Package diag renders errors for people.
//
// A rendering has a header naming the error kind, the position as
// line:col, the offending source line with carets under the span,
// related spans, and any suggestion.
package diag

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/Comcast/sutra/core"
)

// Renderer renders errors.
type Renderer struct {
	// Color enables ANSI colors.
	Color bool
}

// Render uses a Renderer that colors output unless color.NoColor
// says otherwise.
func Render(err error, src string) string {
	r := &Renderer{Color: !color.NoColor}
	return r.Render(err, src)
}

func (r *Renderer) paint(s string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if r.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

// Header gives a title like "MACRO ERROR".
func Header(k core.Kind) string {
	switch k {
	case core.UnknownKind:
		return "ERROR"
	}
	return strings.ToUpper(k.String()) + " ERROR"
}

// Render renders err, which is usually a *core.Error, given the source
// its spans refer to.
func (r *Renderer) Render(err error, src string) string {
	if err == nil {
		return ""
	}
	e, is := core.AsError(err)
	if !is {
		return r.paint("ERROR", color.FgHiRed, color.Bold) + ": " + err.Error() + "\n"
	}

	var b strings.Builder

	b.WriteString(r.paint(Header(e.Kind), color.FgHiRed, color.Bold))
	if e.Code != core.Unspecified {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Origin != "" {
		fmt.Fprintf(&b, " in %s", e.Origin)
	}
	if e.Span != nil {
		line, col := LineCol(src, e.Span.Start)
		fmt.Fprintf(&b, " at %d:%d", line, col)
	}
	b.WriteString("\n")

	msg := e.Msg
	if e.Callee != "" && !strings.Contains(msg, e.Callee) {
		msg = e.Callee + ": " + msg
	}
	fmt.Fprintf(&b, "  %s\n", r.paint(msg, color.Bold))

	if e.Span != nil {
		r.snippet(&b, src, *e.Span, color.FgHiRed)
	} else if e.Snippet != "" {
		fmt.Fprintf(&b, "  in: %s\n", e.Snippet)
	}

	for _, rel := range e.Related {
		line, col := LineCol(src, rel.Span.Start)
		fmt.Fprintf(&b, "  %s at %d:%d\n", r.paint(rel.Msg, color.FgHiCyan), line, col)
		r.snippet(&b, src, rel.Span, color.FgHiCyan)
	}

	if e.Node != "" && e.Span == nil {
		fmt.Fprintf(&b, "  node: %s\n", e.Node)
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", r.paint("hint:", color.FgHiYellow), e.Suggestion)
	}

	return b.String()
}

// snippet writes the line containing the start of the span with
// carets under the span.
func (r *Renderer) snippet(b *strings.Builder, src string, s core.Span, caretColor color.Attribute) {
	if !s.Valid() || len(src) < s.Start {
		return
	}
	line, col := LineCol(src, s.Start)
	text := Line(src, line)

	n := 1
	if s.End <= len(src) && s.Start < s.End {
		covered := src[s.Start:s.End]
		if i := strings.IndexByte(covered, '\n'); 0 <= i {
			covered = covered[:i]
		}
		if m := utf8.RuneCountInString(covered); 1 < m {
			n = m
		}
	}

	gutter := fmt.Sprintf("%d", line)
	pad := strings.Repeat(" ", len(gutter))
	fmt.Fprintf(b, " %s |\n", pad)
	fmt.Fprintf(b, " %s | %s\n", gutter, text)
	fmt.Fprintf(b, " %s | %s%s\n", pad, strings.Repeat(" ", col-1), r.paint(strings.Repeat("^", n), caretColor))
}

// LineCol converts a byte offset to a 1-based line and a 1-based
// column counted in runes.
func LineCol(src string, offset int) (line, col int) {
	if len(src) < offset {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	if i := strings.LastIndexByte(before, '\n'); 0 <= i {
		before = before[i+1:]
	}
	return line, utf8.RuneCountInString(before) + 1
}

// Line returns the text of the given 1-based line without its
// newline.
func Line(src string, line int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || len(lines) < line {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}
