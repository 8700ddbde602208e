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

// Package value has the runtime values that evaluation produces.
//
// Values are immutable.  Lists and Maps are Go slices and maps, and
// nobody is allowed to modify one after it's been handed out.
// Operations that "change" a collection build a new one.
package value

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
)

// Value is a runtime value.
type Value interface {
	// TypeName is the name used in type errors and by type-of.
	TypeName() string

	// String renders the value for printing.
	String() string

	value()
}

type (
	// Nil is the absence of a value.
	Nil struct{}

	// Num is a double-precision number.
	Num float64

	// Str is a string.
	Str string

	// Bool is true or false.
	Bool bool

	// List is an ordered sequence.
	List []Value

	// Map maps string keys to Values.
	Map map[string]Value

	// Path is a World path as a value.
	Path core.Path
)

// Lambda is a closure.
//
// Env is a snapshot of every lexical binding visible where the
// lambda was made.  Later changes to those bindings (which can't
// happen anyway) wouldn't be visible.
type Lambda struct {
	Params *ast.ParamList
	Body   ast.Expr
	Env    *Env
}

func (Nil) value()     {}
func (Num) value()     {}
func (Str) value()     {}
func (Bool) value()    {}
func (List) value()    {}
func (Map) value()     {}
func (Path) value()    {}
func (*Lambda) value() {}

func (Nil) TypeName() string     { return "nil" }
func (Num) TypeName() string     { return "number" }
func (Str) TypeName() string     { return "string" }
func (Bool) TypeName() string    { return "bool" }
func (List) TypeName() string    { return "list" }
func (Map) TypeName() string     { return "map" }
func (Path) TypeName() string    { return "path" }
func (*Lambda) TypeName() string { return "lambda" }

func (Nil) String() string { return "nil" }

func (n Num) String() string { return ast.FormatNumber(float64(n)) }

// String returns the raw string (unquoted).  Use Repr for the quoted
// form.
func (s Str) String() string { return string(s) }

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (l List) String() string {
	parts := make([]string, len(l))
	for i, x := range l {
		parts[i] = Repr(x)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// String renders the map with sorted keys.
func (m Map) String() string {
	keys := m.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = strconv.Quote(k) + " " + Repr(m[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (p Path) String() string { return core.Path(p).String() }

func (l *Lambda) String() string {
	return "(lambda " + l.Params.String() + " " + l.Body.String() + ")"
}

// Keys returns the map's keys in sorted order.
func (m Map) Keys() []string {
	acc := make([]string, 0, len(m))
	for k := range m {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}

// Repr is like String except that strings are quoted.
func Repr(v Value) string {
	if s, is := v.(Str); is {
		return strconv.Quote(string(s))
	}
	if v == nil {
		return "nil"
	}
	return v.String()
}

// Equal is structural equality.  Lambdas are equal only when they're
// the same Lambda.
func Equal(x, y Value) bool {
	switch a := x.(type) {
	case Nil:
		_, is := y.(Nil)
		return is
	case Num:
		b, is := y.(Num)
		return is && a == b
	case Str:
		b, is := y.(Str)
		return is && a == b
	case Bool:
		b, is := y.(Bool)
		return is && a == b
	case Path:
		b, is := y.(Path)
		return is && core.Path(a).Equal(core.Path(b))
	case List:
		b, is := y.(List)
		if !is || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case Map:
		b, is := y.(Map)
		if !is || len(a) != len(b) {
			return false
		}
		for k, av := range a {
			bv, have := b[k]
			if !have || !Equal(av, bv) {
				return false
			}
		}
		return true
	case *Lambda:
		b, is := y.(*Lambda)
		return is && a == b
	}
	return false
}

// Truthy reports whether v counts as true: everything except nil and
// false.
func Truthy(v Value) bool {
	switch vv := v.(type) {
	case nil, Nil:
		return false
	case Bool:
		return bool(vv)
	}
	return true
}

// Copy returns a shallow copy of a Map.
func (m Map) Copy() Map {
	acc := make(Map, len(m)+1)
	for k, v := range m {
		acc[k] = v
	}
	return acc
}
