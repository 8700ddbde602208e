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


package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/eval"
)

type MermaidOpts struct {
	// ShowIndexes labels each edge with the argument position.
	ShowIndexes bool `json:"showIndexes"`

	// StatefulFill is the fill color for calls to stateful atoms.
	// Other calls aren't filled.
	StatefulFill string `json:"statefulFill,omitempty"`

	// UnknownFill is the fill color for calls to unknown atoms.
	UnknownFill string `json:"unknownFill,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given (expanded) forms.
func Mermaid(forms []ast.Expr, atoms *eval.Registry, w io.WriteCloser, opts *MermaidOpts) error {
	if opts == nil {
		opts = &MermaidOpts{
			ShowIndexes:  true,
			StatefulFill: "#f9c784",
			UnknownFill:  "#f98b8b",
		}
	}

	fmt.Fprintf(w, "graph TB\n")

	var process func(g *graphNode)
	process = func(g *graphNode) {
		label := strings.Replace(g.label, `"`, `'`, -1)
		if g.literal {
			fmt.Fprintf(w, "  %s[\"%s\"]\n", g.id, label)
		} else {
			fmt.Fprintf(w, "  %s(\"%s\")\n", g.id, label)
		}
		switch {
		case g.fill == conventionFills[eval.StatefulConvention] && opts.StatefulFill != "":
			fmt.Fprintf(w, "  style %s fill:%s\n", g.id, opts.StatefulFill)
		case g.fill == unknownFill && opts.UnknownFill != "":
			fmt.Fprintf(w, "  style %s fill:%s\n", g.id, opts.UnknownFill)
		}
		for i, c := range g.children {
			process(c)
			if opts.ShowIndexes {
				fmt.Fprintf(w, "  %s -- %d --> %s\n", g.id, i+1, c.id)
			} else {
				fmt.Fprintf(w, "  %s --> %s\n", g.id, c.id)
			}
		}
	}

	for _, g := range graph(forms, atoms) {
		process(g)
	}

	fmt.Fprintf(w, "\n")
	return w.Close()
}
