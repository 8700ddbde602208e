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
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/syntax"
	"github.com/Comcast/sutra/util"
)

// Include replaces each top-level (include "NAME") form with the
// source f(NAME), which can itself include other sources.
//
// Including a source that's already being included is an error.
func Include(name string, src []byte, f func(string) ([]byte, error)) ([]byte, error) {
	return include(name, src, f, []string{name})
}

func include(name string, src []byte, f func(string) ([]byte, error), stack []string) ([]byte, error) {
	xs, err := syntax.ParseAll(name, string(src))
	if err != nil {
		return nil, err
	}

	acc := make([]byte, 0, len(src))
	last := 0
	for _, x := range xs {
		target, is, err := includeTarget(x)
		if err != nil {
			e, _ := core.AsError(err)
			e.Origin = name
			return nil, e
		}
		if !is {
			continue
		}
		span := x.Span()
		for _, s := range stack {
			if s == target {
				e := core.NewError(core.MacroKind, core.InvalidForm, span.Ptr(),
					"include cycle: %s -> %s", strings.Join(stack, " -> "), target)
				e.Origin = name
				return nil, e
			}
		}

		bs, err := f(target)
		if err != nil {
			return nil, errors.Wrapf(err, "including %s", target)
		}
		util.Debug("including", "name", target, "in", name)
		if bs, err = include(target, bs, f, append(stack, target)); err != nil {
			return nil, err
		}
		acc = append(acc, src[last:span.Start]...)
		acc = append(acc, bs...)
		last = span.End
	}
	acc = append(acc, src[last:]...)

	return acc, nil
}

// includeTarget recognizes (include "NAME").
func includeTarget(x ast.Expr) (string, bool, error) {
	if name, is := ast.Head(x); !is || name != "include" {
		return "", false, nil
	}
	l := x.(*ast.List)
	if len(l.Items) != 2 {
		return "", false, core.NewArityError(core.MacroKind, "include", "exactly 1", len(l.Items)-1, l.Pos.Ptr())
	}
	s, is := l.Items[1].(*ast.Str)
	if !is {
		return "", false, core.NewError(core.MacroKind, core.InvalidForm, l.Items[1].Span().Ptr(),
			"include wants a string, not %s", l.Items[1])
	}
	return s.Val, true, nil
}

// ReadFileWithIncludes is a replacement for ioutil.ReadFile that
// does Include()ing with names relative to the file's directory.
func ReadFileWithIncludes(filename string) ([]byte, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Include(filename, bs, FileIncluder(filepath.Dir(filename)))
}

// FileIncluder reads included files relative to the given directory.
func FileIncluder(dir string) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		if !filepath.IsAbs(name) {
			name = filepath.Join(dir, name)
		}
		return ioutil.ReadFile(name)
	}
}
