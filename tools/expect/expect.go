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


// Package expect runs YAML test cases against an Engine.
//
// A Case has some source, an optional initial World, and what's
// expected: a pattern for the value, a pattern for the final World,
// the exact output, or an error's kind and code.  Patterns are the
// ones package match uses, so
//
//   want: {"score":"?n"}
//
// matches any map with a "score" key.
//
// See ../../cmd/sutra for command-line use.
package expect

import (
	"context"
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"github.com/jsccast/yaml"
	"github.com/pkg/errors"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/match"
	"github.com/Comcast/sutra/pipeline"
	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

// ErrorSpec describes an expected error.  Empty fields match
// anything.
type ErrorSpec struct {
	// Kind is an error kind like "eval".
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Code is an error code like "division-by-zero".
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// Contains must be a substring of the error's message.
	Contains string `json:"contains,omitempty" yaml:"contains,omitempty"`
}

// Case is one program and what it should do.
type Case struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	Name string `json:"name" yaml:"name"`

	Source string `json:"source" yaml:"source"`

	// Seed, if given, seeds the World's PRNG via
	// world.SeedFromString.
	Seed string `json:"seed,omitempty" yaml:"seed,omitempty"`

	// World is the initial root map.
	World interface{} `json:"world,omitempty" yaml:"world,omitempty"`

	// Want is a pattern for the value of the last form.
	Want interface{} `json:"want,omitempty" yaml:"want,omitempty"`

	// WantWorld is a pattern for the final World's root.
	WantWorld interface{} `json:"wantWorld,omitempty" yaml:"wantWorld,omitempty"`

	// WantOutput is the exact sequence of emitted texts.
	WantOutput []string `json:"wantOutput,omitempty" yaml:"wantOutput,omitempty"`

	WantError *ErrorSpec `json:"wantError,omitempty" yaml:"wantError,omitempty"`

	// Timeout is the optional timeout for this case.
	// Suite.DefaultTimeout is the default value.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Suite is mostly a sequence of Cases.
type Suite struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	Cases []*Case `json:"cases" yaml:"cases"`

	// DefaultTimeout is the default timeout for each Case.
	DefaultTimeout time.Duration `json:"defaultTimeout,omitempty" yaml:"defaultTimeout,omitempty"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Report is the result of running a Case.
type Report struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`

	// Problems says what didn't match.
	Problems []string `json:"problems,omitempty"`

	// Bindingss are the results of matching Want.  Just for
	// diagnostics.
	Bindingss []match.Bindings `json:"bs,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

func (r *Report) problem(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Parse reads a Suite from YAML (or JSON).
func Parse(bs []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return nil, errors.Wrap(err, "parsing suite")
	}
	for i, c := range s.Cases {
		if c == nil {
			return nil, errors.Errorf("case %d is empty", i)
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("case%d", i+1)
		}
	}
	return &s, nil
}

// Load reads a Suite from a file.
func Load(filename string) (*Suite, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading suite %s", filename)
	}
	s, err := Parse(bs)
	if err != nil {
		return nil, errors.Wrapf(err, "suite %s", filename)
	}
	return s, nil
}

// Run runs every Case in order.  An error means a Case couldn't be
// run at all (for example, a malformed pattern); failures are in the
// Reports.
func (s *Suite) Run(ctx context.Context, e *pipeline.Engine) ([]*Report, error) {
	acc := make([]*Report, 0, len(s.Cases))
	for _, c := range s.Cases {
		if c.Timeout == 0 {
			c.Timeout = s.DefaultTimeout
		}
		r, err := c.Run(ctx, e)
		if err != nil {
			return acc, errors.Wrapf(err, "case %s", c.Name)
		}
		if s.Verbose {
			util.Info("case", "name", c.Name, "passed", r.Passed, "elapsed", r.Elapsed)
		}
		acc = append(acc, r)
	}
	return acc, nil
}

// Passed reports whether every Report passed.
func Passed(rs []*Report) bool {
	for _, r := range rs {
		if !r.Passed {
			return false
		}
	}
	return true
}

// NewWorld makes the Case's initial World.
func (c *Case) NewWorld(e *pipeline.Engine) (*world.World, error) {
	var w *world.World
	if c.Seed != "" {
		w = world.NewSeeded(world.SeedFromString(c.Seed))
	} else {
		var err error
		if w, err = e.Conf.NewWorld(); err != nil {
			return nil, err
		}
	}
	if c.World == nil {
		return w, nil
	}
	v, err := value.FromInterface(c.World)
	if err != nil {
		return nil, errors.Wrap(err, "world")
	}
	m, is := v.(value.Map)
	if !is {
		return nil, errors.Errorf("world must be a map, not a %s", v.TypeName())
	}
	return w.WithRoot(m), nil
}

// Run runs the Case.
func (c *Case) Run(ctx context.Context, e *pipeline.Engine) (*Report, error) {
	w, err := c.NewWorld(e)
	if err != nil {
		return nil, err
	}

	var want, wantWorld value.Value
	if c.Want != nil {
		if want, err = value.FromInterface(c.Want); err != nil {
			return nil, errors.Wrap(err, "want")
		}
	}
	if c.WantWorld != nil {
		if wantWorld, err = value.FromInterface(c.WantWorld); err != nil {
			return nil, errors.Wrap(err, "wantWorld")
		}
	}

	if 0 < c.Timeout {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	r := &Report{
		Name: c.Name,
	}
	out := core.NewBuffer()
	then := time.Now()
	v, w1, err := e.Exec(ctx, c.Name, c.Source, w, out)
	r.Elapsed = time.Since(then)
	util.Debug("expect", "case", c.Name, "elapsed", r.Elapsed, "err", err)

	if err != nil {
		c.checkError(r, err)
	} else {
		if c.WantError != nil {
			r.problem("wanted an error but got %s", value.Repr(v))
		}
		if want != nil {
			bss, err := match.Match(want, v, nil)
			if err != nil {
				return nil, errors.Wrap(err, "want")
			}
			if len(bss) == 0 {
				r.problem("value %s doesn't match %s", value.Repr(v), value.Repr(want))
			}
			r.Bindingss = bss
		}
		if wantWorld != nil {
			bss, err := match.Match(wantWorld, w1.Root(), nil)
			if err != nil {
				return nil, errors.Wrap(err, "wantWorld")
			}
			if len(bss) == 0 {
				r.problem("world %s doesn't match %s", value.Repr(w1.Root()), value.Repr(wantWorld))
			}
		}
	}

	if c.WantOutput != nil {
		got := out.Texts()
		if !sameStrings(got, c.WantOutput) {
			r.problem("output %q isn't %q", got, c.WantOutput)
		}
	}

	r.Passed = len(r.Problems) == 0
	return r, nil
}

func (c *Case) checkError(r *Report, err error) {
	ws := c.WantError
	if ws == nil {
		r.problem("unexpected error: %s", err)
		return
	}
	e, is := core.AsError(err)
	if !is {
		if ws.Kind != "" || ws.Code != "" {
			r.problem("error %q has no kind or code", err)
		}
	} else {
		if ws.Kind != "" && !strings.EqualFold(ws.Kind, e.Kind.String()) {
			r.problem("error kind %s isn't %s", e.Kind, ws.Kind)
		}
		if ws.Code != "" && !strings.EqualFold(ws.Code, e.Code.String()) {
			r.problem("error code %s isn't %s", e.Code, ws.Code)
		}
	}
	if ws.Contains != "" && !strings.Contains(err.Error(), ws.Contains) {
		r.problem("error %q doesn't contain %q", err, ws.Contains)
	}
}

func sameStrings(xs, ys []string) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i, x := range xs {
		if x != ys[i] {
			return false
		}
	}
	return true
}
