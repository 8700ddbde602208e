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
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/value"
)

// Args are the evaluated arguments given to a pure or stateful atom.
type Args struct {
	// Name is the name the atom was called by.
	Name string

	Values []value.Value

	// Spans[i] locates the expression that produced Values[i].
	Spans []core.Span

	// Call locates the whole call.
	Call core.Span
}

// Len is the number of arguments.
func (a *Args) Len() int {
	return len(a.Values)
}

// Span returns the span of argument i (or the call if there's no
// such argument).
func (a *Args) Span(i int) *core.Span {
	if 0 <= i && i < len(a.Spans) {
		return a.Spans[i].Ptr()
	}
	return a.Call.Ptr()
}

// TypeError reports that argument i isn't what was expected.
func (a *Args) TypeError(i int, expected string) *core.Error {
	actual := "nothing"
	if i < len(a.Values) {
		actual = a.Values[i].TypeName()
	}
	return core.NewTypeError(a.Name, i+1, expected, actual, a.Span(i))
}

// Errorf makes an Eval error located at argument i.
func (a *Args) Errorf(i int, code core.Code, format string, args ...interface{}) *core.Error {
	e := core.NewError(core.EvalKind, code, a.Span(i), format, args...)
	e.Callee = a.Name
	return e
}

// Num gets argument i as a number.
func (a *Args) Num(i int) (float64, error) {
	if n, is := a.Values[i].(value.Num); is {
		return float64(n), nil
	}
	return 0, a.TypeError(i, "number")
}

// Int gets argument i as a number with no fractional part.
func (a *Args) Int(i int) (int, error) {
	f, err := a.Num(i)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, a.TypeError(i, "integer")
	}
	return int(f), nil
}

// Str gets argument i as a string.
func (a *Args) Str(i int) (string, error) {
	if s, is := a.Values[i].(value.Str); is {
		return string(s), nil
	}
	return "", a.TypeError(i, "string")
}

// Bool gets argument i as a bool.
func (a *Args) Bool(i int) (bool, error) {
	if b, is := a.Values[i].(value.Bool); is {
		return bool(b), nil
	}
	return false, a.TypeError(i, "bool")
}

// List gets argument i as a list.  Nil counts as the empty list.
func (a *Args) List(i int) (value.List, error) {
	switch vv := a.Values[i].(type) {
	case value.List:
		return vv, nil
	case value.Nil:
		return value.List{}, nil
	}
	return nil, a.TypeError(i, "list")
}

// Map gets argument i as a map.
func (a *Args) Map(i int) (value.Map, error) {
	if m, is := a.Values[i].(value.Map); is {
		return m, nil
	}
	return nil, a.TypeError(i, "map")
}

// Path gets argument i as a path.  A string is parsed as a dotted
// path, and a list of strings is a list of segments.
func (a *Args) Path(i int) (core.Path, error) {
	p, ok := ToPath(a.Values[i])
	if !ok {
		return nil, a.TypeError(i, "path")
	}
	return p, nil
}

// ToPath converts a path-ish value to a Path.
func ToPath(v value.Value) (core.Path, bool) {
	switch vv := v.(type) {
	case value.Path:
		return core.Path(vv), true
	case value.Str:
		return core.ParsePath(string(vv)), true
	case value.List:
		acc := make(core.Path, len(vv))
		for i, x := range vv {
			switch s := x.(type) {
			case value.Str:
				acc[i] = string(s)
			case value.Num:
				acc[i] = s.String()
			default:
				return nil, false
			}
		}
		return acc, true
	}
	return nil, false
}
