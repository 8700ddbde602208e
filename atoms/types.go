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


package atoms

import (
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/value"
)

func registerTypes(r *eval.Registry) {
	for _, t := range []struct {
		name, typ string
	}{
		{"nil?", "nil"},
		{"number?", "number"},
		{"string?", "string"},
		{"bool?", "bool"},
		{"list?", "list"},
		{"map?", "map"},
		{"path?", "path"},
		{"lambda?", "lambda"},
	} {
		typ := t.typ
		r.Register(eval.Pure(t.name, eval.Exactly(1), func(args *eval.Args) (value.Value, error) {
			return value.Bool(args.Values[0].TypeName() == typ), nil
		}).WithDoc("Report whether the value is a " + typ + "."))
	}

	r.Register(eval.Pure("type-of", eval.Exactly(1), func(args *eval.Args) (value.Value, error) {
		return value.Str(args.Values[0].TypeName()), nil
	}).WithDoc("The name of the value's type."))
}
