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

// dot -Tpng g.dot > g.png

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/value"
)

// Fill colors by calling convention.
var conventionFills = map[eval.Convention]string{
	eval.PureConvention:     "#99ddc8",
	eval.StatefulConvention: "#f9c784",
	eval.SpecialConvention:  "#2d93ad",
}

const (
	literalFill = "#eeeeee"
	unknownFill = "#f98b8b"
)

// graphNode is what Dot and Mermaid draw for an expression.
type graphNode struct {
	id       string
	label    string
	fill     string
	literal  bool
	children []*graphNode
}

// graph builds the drawing tree for the forms.  A nil Registry means
// no atom is known.
func graph(forms []ast.Expr, atoms *eval.Registry) []*graphNode {
	n := 0
	var build func(x ast.Expr) *graphNode
	build = func(x ast.Expr) *graphNode {
		n++
		g := &graphNode{
			id:    fmt.Sprintf("n%d", n),
			label: abbrev(x.String(), 30),
			fill:  literalFill,
		}
		switch vv := x.(type) {
		case *ast.List:
			if len(vv.Items) == 0 {
				g.literal = true
				return g
			}
			head, args := vv.Items[0], vv.Items[1:]
			if s, is := head.(*ast.Symbol); is {
				g.label = s.Name
				g.fill = unknownFill
				if atoms != nil {
					if a, have := atoms.Lookup(s.Name); have {
						g.fill = conventionFills[a.Convention()]
					}
				}
			} else {
				args = vv.Items
				g.label = "call"
			}
			for _, y := range args {
				g.children = append(g.children, build(y))
			}
		case *ast.If:
			g.label = "if"
			g.fill = conventionFills[eval.SpecialConvention]
			for _, y := range ast.Children(x) {
				g.children = append(g.children, build(y))
			}
		case *ast.Quote:
			g.literal = true
			if v, err := eval.Quote(vv.Inner); err == nil {
				g.label = "'" + yamlLabel(v)
			}
		case *ast.Spread:
			g.label = "..."
			g.children = append(g.children, build(vv.Inner))
		default:
			g.literal = true
		}
		return g
	}

	acc := make([]*graphNode, len(forms))
	for i, x := range forms {
		acc[i] = build(x)
	}
	return acc
}

// yamlLabel renders a quoted value in YAML's flow style.
func yamlLabel(v value.Value) string {
	wrapper := struct {
		V interface{} `yaml:"v,flow"`
	}{
		V: value.ToInterface(v),
	}
	bs, err := yaml.Marshal(&wrapper)
	if err != nil {
		return v.String()
	}
	s := strings.TrimPrefix(strings.TrimSpace(string(bs)), "v: ")
	return strings.Replace(s, "\n", " ", -1)
}

func abbrev(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Dot makes a Graphviz dot file for the given (expanded) forms.
//
// Calls are colored by the calling convention of their atoms, and
// calls to unknown atoms are red.
func Dot(forms []ast.Expr, atoms *eval.Registry, w io.WriteCloser) error {
	roots := graph(forms, atoms)
	util.Debug("dot", "forms", len(roots))

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "10"]
`)

	var process func(g *graphNode)
	process = func(g *graphNode) {
		shape := "box"
		if g.literal {
			shape = "note"
		}
		fmt.Fprintf(w, "  %s [shape=\"%s\", style=\"filled\", fillcolor=\"%s\", label=\"%s\"]\n",
			g.id, shape, g.fill, escape(g.label))
		for i, c := range g.children {
			process(c)
			fmt.Fprintf(w, "  %s -> %s [label=\"%d\"]\n", g.id, c.id, i+1)
		}
	}

	for i, g := range roots {
		fmt.Fprintf(w, "  subgraph cluster_%d {\n  label=\"form %d\"\n", i, i+1)
		process(g)
		fmt.Fprintf(w, "  }\n")
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(forms []ast.Expr, atoms *eval.Registry, basename string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(forms, atoms, dotfile); err != nil {
		return pngname, err
	}
	if err := exec.Command("dot", "-Tpng", "-o", pngname, dotname).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func escape(s string) string {
	s = strings.Replace(s, `\`, `\\`, -1)
	return strings.Replace(s, `"`, `\"`, -1)
}
