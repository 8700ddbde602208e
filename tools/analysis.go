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
	"sort"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/eval"
)

// Analysis summarizes expanded forms without evaluating them.
type Analysis struct {
	Forms    int
	Nodes    int
	MaxDepth int

	// Calls counts calls by atom name.
	Calls map[string]int

	// Conventions counts calls by calling convention.
	Conventions map[string]int

	UnknownAtoms []string

	// Reads and Writes are the literal paths given to the world
	// atoms.  Paths computed at runtime aren't included.
	Reads  []string
	Writes []string

	Lambdas int
	Quotes  int
}

var (
	readers = map[string]bool{
		"core/get":     true,
		"core/exists?": true,
	}
	writers = map[string]bool{
		"core/set!": true,
		"core/del!": true,
	}
)

// Analyze looks at expanded forms.  A nil Registry means no atom is
// known.
func Analyze(forms []ast.Expr, atoms *eval.Registry) (*Analysis, error) {
	a := &Analysis{
		Forms:       len(forms),
		Calls:       make(map[string]int),
		Conventions: make(map[string]int),
	}

	unknown, reads, writes := make(map[string]bool), make(map[string]bool), make(map[string]bool)

	var walk func(x ast.Expr)
	walk = func(x ast.Expr) {
		a.Nodes++
		switch vv := x.(type) {
		case *ast.Quote:
			a.Quotes++
			return
		case *ast.List:
			name, is := ast.Head(vv)
			if !is {
				break
			}
			a.Calls[name]++
			if name == "lambda" {
				a.Lambdas++
			}
			var at *eval.Atom
			if atoms != nil {
				at, _ = atoms.Lookup(name)
			}
			if at == nil {
				unknown[name] = true
				break
			}
			a.Conventions[at.Convention().String()]++
			args := vv.Items[1:]
			if 0 < len(args) {
				if p, is := args[0].(*ast.PathExpr); is {
					switch {
					case readers[name]:
						reads[p.Path.String()] = true
					case writers[name]:
						writes[p.Path.String()] = true
					}
				}
			}
			a.Nodes++
			for i, arg := range args {
				switch at.Shape(i, len(args)) {
				case eval.ParamsShape:
					a.Nodes++
				case eval.BindingsShape:
					a.Nodes++
					if l, is := arg.(*ast.List); is {
						for _, b := range l.Items {
							a.Nodes++
							if pair, is := b.(*ast.List); is && len(pair.Items) == 2 {
								walk(pair.Items[1])
							}
						}
					}
				default:
					walk(arg)
				}
			}
			return
		}
		for _, c := range ast.Children(x) {
			walk(c)
		}
	}

	for _, x := range forms {
		if d := ast.Depth(x); a.MaxDepth < d {
			a.MaxDepth = d
		}
		walk(x)
	}

	a.UnknownAtoms = keysToStringSlice(unknown)
	a.Reads = keysToStringSlice(reads)
	a.Writes = keysToStringSlice(writes)

	return a, nil
}

// keysToStringSlice returns the map's keys in order.
func keysToStringSlice(m map[string]bool) []string {
	list := make([]string, 0, len(m))
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
