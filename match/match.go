/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package match implements a pattern matcher over values.
//
// A pattern is a Value.  A string starting with '?' is a variable,
// and "?" alone is an anonymous variable that matches anything
// without binding.  A map pattern matches a map that has at least the
// pattern's keys.  A list pattern is a set: each element must match a
// distinct element of the fact, in any order, so matching can
// backtrack and return several sets of bindings.
package match

import (
	"errors"
	"strings"

	"github.com/Comcast/sutra/value"
)

type Matcher struct {
	// AllowPropertyVariables enables support for a variable as
	// the key of a map pattern that has only that one key.
	AllowPropertyVariables bool

	// CheckForBadPropertyVariables reports a property variable in
	// a map pattern with other keys even when matching would fail
	// before reaching it.
	CheckForBadPropertyVariables bool

	// Inequalities enables numeric inequality variables.
	//
	// Given bindings {"?<n":10}, the pattern {"n":"?<n"} matches
	// {"n":3} with bindings {"?<n":10,"?n":3}.  The operators are
	// "<", ">", "<=", ">=", and "!=".
	Inequalities bool
}

var DefaultMatcher = &Matcher{
	AllowPropertyVariables:       true,
	CheckForBadPropertyVariables: true,
	Inequalities:                 true,
}

var (
	// ErrBadPropertyVariable is returned for a map pattern with a
	// variable key and other keys.
	ErrBadPropertyVariable = errors.New("can't have a variable as a key with other keys")

	// ErrMultipleVariables is returned for a list pattern with more
	// than one variable element.
	ErrMultipleVariables = errors.New("multiple variables in a list pattern are not supported")
)

// Bindings is a map from variables (strings starting with a '?') to
// their values.
type Bindings map[string]value.Value

func NewBindings() Bindings {
	return make(Bindings, 8)
}

// Extend adds the binding.  The Bindings are modified.
func (bs Bindings) Extend(p string, v value.Value) Bindings {
	bs[p] = v
	return bs
}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs)+1)
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// Map returns the Bindings as a value.Map.
func (bs Bindings) Map() value.Map {
	acc := make(value.Map, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// IsVariable reports if the string represents a pattern variable.
func (m *Matcher) IsVariable(s string) bool {
	return strings.HasPrefix(s, "?")
}

// IsOptionalVariable reports whether the value is a variable like
// "??x", which is allowed to match nothing in a list pattern.
func (m *Matcher) IsOptionalVariable(x value.Value) bool {
	s, is := x.(value.Str)
	return is && strings.HasPrefix(string(s), "??")
}

// IsAnonymousVariable detects the variable "?".  A binding for an
// anonymous variable shouldn't ever make it into bindings.
func (m *Matcher) IsAnonymousVariable(s string) bool {
	return s == "?"
}

// IsConstant reports if the string isn't a pattern variable.
func (m *Matcher) IsConstant(s string) bool {
	return !m.IsVariable(s)
}

func (m *Matcher) isScalarConstant(x value.Value) bool {
	switch vv := x.(type) {
	case value.Nil, value.Num, value.Bool, value.Path:
		return true
	case value.Str:
		return m.IsConstant(string(vv))
	}
	return false
}

// Matches matches with no initial bindings.
func (m *Matcher) Matches(pattern, fact value.Value) ([]Bindings, error) {
	return m.Match(pattern, fact, NewBindings())
}

// Match attempts to match the fact against the pattern given initial
// bindings, which are not modified.
//
// The result has one Bindings for each way the match succeeded.  No
// match gives an empty result.
func (m *Matcher) Match(pattern, fact value.Value, bindings Bindings) ([]Bindings, error) {
	if bindings == nil {
		bindings = NewBindings()
	}
	return m.match(pattern, fact, bindings.Copy())
}

// match can modify the bindings.
func (m *Matcher) match(pattern, fact value.Value, bs Bindings) ([]Bindings, error) {
	switch p := pattern.(type) {
	case nil, value.Nil:
		switch fact.(type) {
		case nil, value.Nil:
			return []Bindings{bs}, nil
		}
		return nil, nil

	case value.Bool, value.Num, value.Path:
		if value.Equal(p, fact) {
			return []Bindings{bs}, nil
		}
		return nil, nil

	case value.Str:
		s := string(p)
		if m.IsConstant(s) {
			if f, is := fact.(value.Str); is && string(f) == s {
				return []Bindings{bs}, nil
			}
			return nil, nil
		}
		if m.IsAnonymousVariable(s) {
			return []Bindings{bs}, nil
		}
		if using, bss := m.inequal(fact, bs, s); using {
			return bss, nil
		}
		if bound, have := bs[s]; have {
			return m.match(bound, fact, bs)
		}
		bs[s] = fact
		return []Bindings{bs}, nil

	case value.Map:
		f, is := fact.(value.Map)
		if !is {
			return nil, nil
		}
		if len(p) == 0 {
			return []Bindings{bs}, nil
		}
		return m.mapMatch(p, f, bs)

	case value.List:
		f, is := fact.(value.List)
		if !is {
			return nil, nil
		}
		return m.listMatch(p, f, bs)
	}
	return nil, &UnknownPatternType{pattern}
}

func (m *Matcher) mapMatch(pattern, fact value.Map, bs Bindings) ([]Bindings, error) {
	if m.CheckForBadPropertyVariables && 1 < len(pattern) {
		for k := range pattern {
			if m.IsVariable(k) {
				return nil, ErrBadPropertyVariable
			}
		}
	}

	bss := []Bindings{bs}
	// Sorted keys make the order of results deterministic.
	for _, k := range pattern.Keys() {
		v := pattern[k]
		if m.IsVariable(k) {
			if !m.AllowPropertyVariables || 1 < len(pattern) {
				return nil, ErrBadPropertyVariable
			}
			var acc []Bindings
			for _, fk := range fact.Keys() {
				ext, err := m.each(bss, value.Str(k), value.Str(fk))
				if err != nil {
					return nil, err
				}
				if ext, err = m.each(ext, v, fact[fk]); err != nil {
					return nil, err
				}
				acc = append(acc, ext...)
			}
			return acc, nil
		}

		fv, found := fact[k]
		if !found {
			if m.IsOptionalVariable(v) {
				continue
			}
			return nil, nil
		}
		acc, err := m.each(bss, v, fv)
		if err != nil {
			return nil, err
		}
		if len(acc) == 0 {
			return nil, nil
		}
		bss = acc
	}
	return bss, nil
}

// each matches the pattern and fact with a copy of each Bindings.
func (m *Matcher) each(bss []Bindings, pattern, fact value.Value) ([]Bindings, error) {
	acc := make([]Bindings, 0, len(bss))
	for _, bs := range bss {
		got, err := m.match(pattern, fact, bs.Copy())
		if err != nil {
			return nil, err
		}
		acc = append(acc, got...)
	}
	return acc, nil
}

// listMatch treats the pattern and the fact as sets.  The pattern can
// contain at most one variable, which matches any one leftover fact
// element.
func (m *Matcher) listMatch(pattern, fact value.List, bs Bindings) ([]Bindings, error) {
	var variable value.Value
	elems := make([]value.Value, 0, len(pattern))
	for _, x := range pattern {
		if s, is := x.(value.Str); is && m.IsVariable(string(s)) {
			if variable != nil {
				return nil, ErrMultipleVariables
			}
			variable = x
			continue
		}
		elems = append(elems, x)
	}

	used := make([]bool, len(fact))

	// Scalar constants don't need backtracking.
	compound := make([]value.Value, 0, len(elems))
	for _, x := range elems {
		if !m.isScalarConstant(x) {
			compound = append(compound, x)
			continue
		}
		found := false
		for i, f := range fact {
			if !used[i] && value.Equal(x, f) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return nil, nil
		}
	}

	return m.setMatch(compound, variable, fact, used, bs)
}

func (m *Matcher) setMatch(xs []value.Value, variable value.Value, fact value.List, used []bool, bs Bindings) ([]Bindings, error) {
	if len(xs) == 0 {
		if variable == nil {
			return []Bindings{bs}, nil
		}
		var acc []Bindings
		for i, f := range fact {
			if used[i] {
				continue
			}
			got, err := m.match(variable, f, bs.Copy())
			if err != nil {
				return nil, err
			}
			acc = append(acc, got...)
		}
		if len(acc) == 0 && m.IsOptionalVariable(variable) {
			return []Bindings{bs}, nil
		}
		return acc, nil
	}

	var acc []Bindings
	for i, f := range fact {
		if used[i] {
			continue
		}
		got, err := m.match(xs[0], f, bs.Copy())
		if err != nil {
			return nil, err
		}
		for _, b := range got {
			used[i] = true
			more, err := m.setMatch(xs[1:], variable, fact, used, b)
			used[i] = false
			if err != nil {
				return nil, err
			}
			acc = append(acc, more...)
		}
	}
	return acc, nil
}

// UnknownPatternType is an error that includes the thing that's
// causing the trouble.
type UnknownPatternType struct {
	Pattern value.Value
}

func (e *UnknownPatternType) Error() string {
	return "unknown pattern type " + e.Pattern.TypeName()
}

var inequalities = []string{"<=", ">=", "!=", ">", "<"}

// inequal handles inequality variables.  The first result reports
// whether v was used as an inequality variable.
func (m *Matcher) inequal(fact value.Value, bs Bindings, v string) (bool, []Bindings) {
	if !m.Inequalities || len(v) < 3 {
		return false, nil
	}
	bound, have := bs[v]
	if !have {
		return false, nil
	}
	b, is := bound.(value.Num)
	if !is {
		return false, nil
	}
	a, is := fact.(value.Num)
	if !is {
		return false, nil
	}

	var op, plain string
	for _, ie := range inequalities {
		if strings.HasPrefix(v[1:], ie) {
			op = ie
			plain = "?" + v[1+len(ie):]
			break
		}
	}
	if op == "" {
		return false, nil
	}

	var satisfied bool
	switch op {
	case "<":
		satisfied = a < b
	case "<=":
		satisfied = a <= b
	case ">":
		satisfied = a > b
	case ">=":
		satisfied = a >= b
	case "!=":
		satisfied = a != b
	}
	if !satisfied {
		return true, nil
	}

	if prev, given := bs[plain]; given {
		if !value.Equal(prev, a) {
			return true, nil
		}
		return true, []Bindings{bs}
	}
	bs[plain] = a
	return true, []Bindings{bs}
}

// Match uses DefaultMatcher.
func Match(pattern, fact value.Value, bindings Bindings) ([]Bindings, error) {
	return DefaultMatcher.Match(pattern, fact, bindings)
}

// MatchInterface matches generic data (as from encoding/json).
func MatchInterface(pattern, fact interface{}, bindings map[string]interface{}) ([]Bindings, error) {
	p, err := value.FromInterface(pattern)
	if err != nil {
		return nil, err
	}
	f, err := value.FromInterface(fact)
	if err != nil {
		return nil, err
	}
	bs := NewBindings()
	for k, x := range bindings {
		v, err := value.FromInterface(x)
		if err != nil {
			return nil, err
		}
		bs[k] = v
	}
	return Match(p, f, bs)
}
