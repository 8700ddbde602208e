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
	"sort"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
)

// Transform is a native macro.  It gets the whole call (including
// the head) and returns the replacement.  A Transform must be pure.
type Transform func(call *ast.List) (ast.Expr, error)

// Template is a macro defined in source with define.
type Template struct {
	Params *ast.ParamList
	Body   ast.Expr

	// Hygiene is optional.  See Hygiene.
	Hygiene Hygiene
}

// Macro is a registered macro: either a native Transform or a
// Template.
//
// Use Native or FromTemplate to make one.
type Macro struct {
	name     string
	doc      string
	native   Transform
	template *Template

	// pos is where the macro was defined, if it was defined in
	// source.
	pos *core.Span
}

// Native makes a macro from a Transform.
func Native(name string, doc string, f Transform) *Macro {
	return &Macro{
		name:   name,
		doc:    doc,
		native: f,
	}
}

// FromTemplate makes a template macro.  The span is optional.
func FromTemplate(name string, doc string, t *Template, pos *core.Span) *Macro {
	return &Macro{
		name:     name,
		doc:      doc,
		template: t,
		pos:      pos,
	}
}

func (m *Macro) Name() string { return m.name }

func (m *Macro) Doc() string { return m.doc }

// Template returns the macro's Template or nil for a native macro.
func (m *Macro) Template() *Template { return m.template }

// IsNative reports whether the macro is a native Transform.
func (m *Macro) IsNative() bool { return m.native != nil }

// Pos returns the span of the definition, if known.
func (m *Macro) Pos() *core.Span { return m.pos }

// Registry maps names to Macros.
//
// A Registry isn't safe for concurrent mutation.  Concurrent reads
// are fine.
type Registry struct {
	macros map[string]*Macro
}

// NewRegistry makes an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		macros: make(map[string]*Macro, 32),
	}
}

// Register adds the macro, silently replacing any existing macro
// with the same name.
func (r *Registry) Register(m *Macro) {
	r.macros[m.name] = m
}

// RegisterOrError is Register except that an existing macro with the
// same name is a DuplicateName error.
func (r *Registry) RegisterOrError(m *Macro) error {
	if prev, have := r.macros[m.name]; have {
		e := core.NewError(core.MacroKind, core.DuplicateName, m.pos,
			"macro %s is already defined", m.name)
		e.Callee = m.name
		if prev.pos != nil {
			e.WithRelated(*prev.pos, "first defined here")
		}
		return e
	}
	r.Register(m)
	return nil
}

// Lookup finds a macro.
func (r *Registry) Lookup(name string) (*Macro, bool) {
	m, have := r.macros[name]
	return m, have
}

// Has reports whether there's a macro with the given name.
func (r *Registry) Has(name string) bool {
	_, have := r.macros[name]
	return have
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	acc := make([]string, 0, len(r.macros))
	for name := range r.macros {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// Len is the number of registered macros.
func (r *Registry) Len() int {
	return len(r.macros)
}

// Clone returns a shallow copy.  Registering in the copy doesn't
// affect the receiver.
func (r *Registry) Clone() *Registry {
	acc := NewRegistry()
	for name, m := range r.macros {
		acc.macros[name] = m
	}
	return acc
}
