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
	"sort"
	"strconv"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

// Arity is the range of argument counts an atom accepts.  Max is -1
// for a variadic atom.
type Arity struct {
	Min, Max int
}

func Exactly(n int) Arity    { return Arity{n, n} }
func AtLeast(n int) Arity    { return Arity{n, -1} }
func Between(m, n int) Arity { return Arity{m, n} }

// Accepts reports whether n arguments are acceptable.
func (a Arity) Accepts(n int) bool {
	return a.Min <= n && (a.Max < 0 || n <= a.Max)
}

// String gives a phrase like "exactly 2" or "at least 1".
func (a Arity) String() string {
	switch {
	case a.Max < 0:
		return "at least " + strconv.Itoa(a.Min)
	case a.Min == a.Max:
		return "exactly " + strconv.Itoa(a.Min)
	}
	return "between " + strconv.Itoa(a.Min) + " and " + strconv.Itoa(a.Max)
}

// Convention is an atom's calling convention.
type Convention int

const (
	// PureConvention atoms get evaluated arguments and can't see
	// the World.
	PureConvention Convention = iota

	// StatefulConvention atoms get evaluated arguments and the
	// current World, and they return a World.
	StatefulConvention

	// SpecialConvention atoms get unevaluated argument nodes and
	// the evaluation Context.
	SpecialConvention
)

func (c Convention) String() string {
	switch c {
	case PureConvention:
		return "pure"
	case StatefulConvention:
		return "stateful"
	case SpecialConvention:
		return "special"
	}
	return "Convention(" + strconv.Itoa(int(c)) + ")"
}

// State is what a stateful atom can see.
type State struct {
	World  *world.World
	Env    *value.Env
	Output core.Output
}

// PureFunc computes a value from argument values.
type PureFunc func(args *Args) (value.Value, error)

// StatefulFunc computes a value and a new World.
type StatefulFunc func(st *State, args *Args) (value.Value, *world.World, error)

// SpecialFunc gets the unevaluated argument nodes and decides what
// to evaluate.  It must thread the World it's given.
type SpecialFunc func(c *Context, w *world.World, args []ast.Expr, call core.Span) (value.Value, *world.World, error)

// Shape describes the syntax expected at an argument position of a
// special form.  The validator uses shapes to know what to check.
type Shape int

const (
	// ExprShape is an ordinary expression.  The default.
	ExprShape Shape = iota

	// ParamsShape is a parameter list like (x y ...rest).
	ParamsShape

	// BindingsShape is a list of (name expr) pairs.
	BindingsShape

	// CallableShape is either a symbol naming an atom or an
	// expression that evaluates to a lambda.
	CallableShape
)

// Atom is a named primitive operation.
//
// The calling convention is determined by which constructor made the
// Atom: Pure, Stateful, or Special.
type Atom struct {
	name     string
	doc      string
	arity    Arity
	pure     PureFunc
	stateful StatefulFunc
	special  SpecialFunc
	shapes   map[int]Shape

	// spreadFrom is the first argument position of a special form
	// that may be a spread.  Negative means none.
	spreadFrom int
}

// Pure makes a pure atom.
func Pure(name string, arity Arity, f PureFunc) *Atom {
	return &Atom{name: name, arity: arity, pure: f}
}

// Stateful makes a stateful atom.
func Stateful(name string, arity Arity, f StatefulFunc) *Atom {
	return &Atom{name: name, arity: arity, stateful: f}
}

// Special makes a special form.
func Special(name string, arity Arity, f SpecialFunc) *Atom {
	return &Atom{name: name, arity: arity, special: f, spreadFrom: -1}
}

// WithDoc sets the documentation and returns the atom.
func (a *Atom) WithDoc(doc string) *Atom {
	a.doc = doc
	return a
}

// WithShape declares the syntax expected at an argument position of
// a special form.  A negative position counts from the end.
func (a *Atom) WithShape(position int, s Shape) *Atom {
	if a.shapes == nil {
		a.shapes = make(map[int]Shape, 2)
	}
	a.shapes[position] = s
	return a
}

// WithSpread declares that a special form evaluates its arguments
// from the given position on with EvalArgs, so those arguments can
// be spreads.
func (a *Atom) WithSpread(from int) *Atom {
	a.spreadFrom = from
	return a
}

// Spreads reports whether the argument at position i can be a
// spread.  Pure and stateful atoms accept spreads anywhere.
func (a *Atom) Spreads(i int) bool {
	if a.special == nil {
		return true
	}
	return 0 <= a.spreadFrom && a.spreadFrom <= i
}

// Shape returns the shape at argument position i of n.
func (a *Atom) Shape(i, n int) Shape {
	if s, have := a.shapes[i]; have {
		return s
	}
	if s, have := a.shapes[i-n]; have {
		return s
	}
	return ExprShape
}

func (a *Atom) Name() string { return a.name }

func (a *Atom) Doc() string { return a.doc }

func (a *Atom) Arity() Arity { return a.arity }

func (a *Atom) Convention() Convention {
	switch {
	case a.special != nil:
		return SpecialConvention
	case a.stateful != nil:
		return StatefulConvention
	}
	return PureConvention
}

// Registry maps names to Atoms.
//
// A Registry isn't safe for concurrent mutation.  Concurrent reads
// are fine.
type Registry struct {
	atoms map[string]*Atom
}

// NewRegistry makes an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		atoms: make(map[string]*Atom, 128),
	}
}

// Register adds the atom, replacing any atom with the same name.
func (r *Registry) Register(a *Atom) {
	r.atoms[a.name] = a
}

// RegisterOrError is Register except that an existing name is a
// DuplicateName error.
func (r *Registry) RegisterOrError(a *Atom) error {
	if _, have := r.atoms[a.name]; have {
		e := core.NewError(core.ValidationKind, core.DuplicateName, nil, "atom %s is already registered", a.name)
		e.Callee = a.name
		return e
	}
	r.Register(a)
	return nil
}

// Alias registers an existing atom under another name.
func (r *Registry) Alias(alias, name string) error {
	a, have := r.atoms[name]
	if !have {
		return core.NewError(core.InternalKind, core.UnknownAtom, nil, "can't alias unknown atom %s", name)
	}
	r.atoms[alias] = a
	return nil
}

// Lookup finds an atom.
func (r *Registry) Lookup(name string) (*Atom, bool) {
	a, have := r.atoms[name]
	return a, have
}

// Names returns the registered names (including aliases) in sorted
// order.
func (r *Registry) Names() []string {
	acc := make([]string, 0, len(r.atoms))
	for name := range r.atoms {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// Len is the number of names.
func (r *Registry) Len() int {
	return len(r.atoms)
}

// Clone returns a shallow copy.
func (r *Registry) Clone() *Registry {
	acc := NewRegistry()
	for name, a := range r.atoms {
		acc.atoms[name] = a
	}
	return acc
}

// Closest suggests a registered name that's close to the given one.
func (r *Registry) Closest(name string) (string, bool) {
	return closest(name, r.Names())
}

func closest(name string, candidates []string) (string, bool) {
	best, bestD := "", len(name)/2+2
	for _, c := range candidates {
		if d := distance(name, c); d < bestD {
			best, bestD = c, d
		}
	}
	return best, best != ""
}

// distance is the Levenshtein distance.
func distance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
