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


// Package atoms is the standard catalogue of primitive operations.
//
// Most atoms are pure.  The atoms that read or write the World (and
// the ones that emit output) are stateful.  The atoms that decide what
// to evaluate (and, or, let, lambda, and the higher-order ones) are
// special forms.
package atoms

import (
	"strings"

	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/value"
)

// Standard returns a new Registry with every standard atom.
func Standard() *eval.Registry {
	r := eval.NewRegistry()
	Register(r)
	return r
}

// Register adds the standard atoms to the given Registry, replacing
// any existing atoms with the same names.
func Register(r *eval.Registry) {
	registerMath(r)
	registerCompare(r)
	registerControl(r)
	registerState(r)
	registerCollections(r)
	registerTypes(r)
	registerDomain(r)
}

// alias panics if the target isn't registered.
func alias(r *eval.Registry, alias, name string) {
	if err := r.Alias(alias, name); err != nil {
		panic(err)
	}
}

// Display renders a value for output: strings appear without quotes.
func Display(v value.Value) string {
	if s, is := v.(value.Str); is {
		return string(s)
	}
	return v.String()
}

func displayAll(vs []value.Value, sep string) string {
	acc := make([]string, len(vs))
	for i, v := range vs {
		acc[i] = Display(v)
	}
	return strings.Join(acc, sep)
}
