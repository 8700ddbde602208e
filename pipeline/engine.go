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


// Package pipeline ties the stages together: read, register
// definitions, expand, validate, and evaluate.
//
// An Engine is built once with explicit registries and then used to
// compile and run programs.  An Engine is safe for concurrent use
// since compiling doesn't modify the Engine's registries.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/ioutil"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/atoms"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/interpreters/goja"
	"github.com/Comcast/sutra/macro"
	"github.com/Comcast/sutra/syntax"
	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

// Engine compiles and runs programs.
type Engine struct {
	Conf   *Conf
	Atoms  *eval.Registry
	Macros *macro.Registry

	// Hygiene is used for macros defined by programs.
	Hygiene macro.Hygiene

	cache *ttlcache.Cache[string, *Program]
}

// NewEngine makes an Engine with the given registries, which the
// Engine will not modify.  A nil Conf means DefaultConf().
//
// Call Close when done.
func NewEngine(conf *Conf, atoms *eval.Registry, macros *macro.Registry) *Engine {
	if conf == nil {
		conf = DefaultConf()
	}
	e := &Engine{
		Conf:    conf,
		Atoms:   atoms,
		Macros:  macros,
		Hygiene: &macro.CounterHygiene{},
	}
	if 0 < conf.CacheTTL {
		e.cache = ttlcache.New[string, *Program](
			ttlcache.WithTTL[string, *Program](conf.CacheTTL),
			ttlcache.WithDisableTouchOnHit[string, *Program](),
		)
		go e.cache.Start()
	}
	return e
}

// Standard makes an Engine with the standard atoms and macros plus
// whatever the Conf's MacroFiles and Scripts provide.
func Standard(ctx context.Context, conf *Conf) (*Engine, error) {
	if conf == nil {
		conf = DefaultConf()
	}
	as := atoms.Standard()
	ms := macro.Standard()

	for _, filename := range conf.MacroFiles {
		bs, err := ioutil.ReadFile(filename)
		if err != nil {
			return nil, errors.Wrapf(err, "reading macros %s", filename)
		}
		if err = macro.Load(ms, filename, string(bs), &macro.CounterHygiene{}); err != nil {
			return nil, err
		}
		util.Debug("loaded macros", "file", filename)
	}

	i := goja.NewInterpreter()
	for _, filename := range conf.Scripts {
		bs, err := ioutil.ReadFile(filename)
		if err != nil {
			return nil, errors.Wrapf(err, "reading script %s", filename)
		}
		s, err := i.LoadAtoms(ctx, as, filename, string(bs))
		if err != nil {
			return nil, errors.Wrapf(err, "loading script %s", filename)
		}
		util.Debug("loaded script", "file", filename, "atoms", s.Names())
	}

	return NewEngine(conf, as, ms), nil
}

// Close releases the Engine's cache.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Stop()
	}
}

// Program is a compiled program.
type Program struct {
	Name   string
	Source string

	// Forms are the expanded top-level forms other than
	// definitions.
	Forms []ast.Expr

	// Original[i] is the form that expanded into Forms[i].
	Original []ast.Expr

	// Defined lists the macros the program defined.
	Defined []string

	// Macros is the program's macro registry: the Engine's macros
	// plus the program's definitions.
	Macros *macro.Registry
}

func cacheKey(name, src string) string {
	h := sha256.New()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}

// Compile reads, expands, and (optionally) validates a program.
//
// Top-level (define ...) forms are registered as template macros for
// this program only.  A program that defines the same name twice is
// an error.  A definition can replace an Engine macro.
func (e *Engine) Compile(name, src string) (*Program, error) {
	var key string
	if e.cache != nil {
		key = cacheKey(name, src)
		if item := e.cache.Get(key); item != nil {
			return item.Value(), nil
		}
	}

	xs, err := syntax.ParseAll(name, src)
	if err != nil {
		return nil, enrich(err, name, src, nil)
	}

	p := &Program{
		Name:   name,
		Source: src,
		Macros: e.Macros.Clone(),
	}

	defs := macro.NewRegistry()
	forms := make([]ast.Expr, 0, len(xs))
	for _, x := range xs {
		if !macro.IsDefinition(x) {
			forms = append(forms, x)
			continue
		}
		d, err := macro.ParseDefinition(x)
		if err != nil {
			return nil, enrich(err, name, src, x)
		}
		m := macro.FromDefinition(d, macro.DocComment(src, d.Pos.Start), e.Hygiene)
		if err = defs.RegisterOrError(m); err != nil {
			return nil, enrich(err, name, src, x)
		}
	}
	p.Defined = defs.Names()
	for _, n := range p.Defined {
		m, _ := defs.Lookup(n)
		p.Macros.Register(m)
	}

	ex := &macro.Expander{
		Macros:   p.Macros,
		MaxDepth: e.Conf.MaxExpandDepth,
	}
	for _, x := range forms {
		y, err := ex.Expand(x)
		if err != nil {
			return nil, enrich(err, name, src, x)
		}
		if e.Conf.Validate {
			if err = eval.Validate(y, e.Atoms); err != nil {
				return nil, enrich(err, name, src, x)
			}
		}
		p.Forms = append(p.Forms, y)
		p.Original = append(p.Original, x)
	}

	if e.cache != nil {
		e.cache.Set(key, p, ttlcache.DefaultTTL)
	}

	return p, nil
}

// Run evaluates the program's forms in order, threading the World,
// and returns the last value.
//
// On error, the given World is still the current one: nothing the
// program did is kept.
func (e *Engine) Run(ctx context.Context, p *Program, w *world.World, out core.Output) (value.Value, *world.World, error) {
	opts := eval.Options{
		Atoms:    e.Atoms,
		MaxDepth: e.Conf.MaxEvalDepth,
	}
	var v value.Value = value.Nil{}
	for i, x := range p.Forms {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		var err error
		if v, w, err = eval.Evaluate(x, w, out, opts); err != nil {
			return nil, nil, enrich(err, p.Name, p.Source, p.Original[i])
		}
	}
	return v, w, nil
}

// Exec compiles and runs.
func (e *Engine) Exec(ctx context.Context, name, src string, w *world.World, out core.Output) (value.Value, *world.World, error) {
	p, err := e.Compile(name, src)
	if err != nil {
		return nil, nil, err
	}
	return e.Run(ctx, p, w, out)
}

// enrich adds the origin and the text of the top-level form (before
// expansion) to an error.
func enrich(err error, name, src string, form ast.Expr) error {
	e, is := core.AsError(err)
	if !is {
		return errors.Wrap(err, name)
	}
	if e.Origin == "" {
		e.Origin = name
	}
	if form != nil && e.Snippet == "" {
		s := form.Span()
		if s.Valid() && s.End <= len(src) {
			e.Snippet = src[s.Start:s.End]
		}
	}
	return e
}
