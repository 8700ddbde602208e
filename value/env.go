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

package value

import "sort"

// Env is a flat, immutable set of lexical bindings.
//
// There's no parent chain.  Extending an Env copies all of its
// bindings into a new Env, so a Lambda that holds on to an Env holds
// a snapshot.  A nil *Env is a valid empty Env.
type Env struct {
	vars map[string]Value
}

// NewEnv makes an Env from the given bindings, which are copied.
func NewEnv(bs map[string]Value) *Env {
	return (*Env)(nil).Extend(bs)
}

// Lookup finds a binding.
func (e *Env) Lookup(name string) (Value, bool) {
	if e == nil {
		return nil, false
	}
	v, have := e.vars[name]
	return v, have
}

// Extend returns a new Env with the receiver's bindings plus the
// given ones, which shadow.
func (e *Env) Extend(bs map[string]Value) *Env {
	n := len(bs)
	if e != nil {
		n += len(e.vars)
	}
	acc := make(map[string]Value, n)
	if e != nil {
		for k, v := range e.vars {
			acc[k] = v
		}
	}
	for k, v := range bs {
		acc[k] = v
	}
	return &Env{vars: acc}
}

// With returns a new Env with one more binding.
func (e *Env) With(name string, v Value) *Env {
	return e.Extend(map[string]Value{name: v})
}

// Len is the number of bindings.
func (e *Env) Len() int {
	if e == nil {
		return 0
	}
	return len(e.vars)
}

// Names returns the bound names in sorted order.
func (e *Env) Names() []string {
	if e == nil {
		return nil
	}
	acc := make([]string, 0, len(e.vars))
	for k := range e.vars {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}
