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
	"cmp"

	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/value"
)

func registerCompare(r *eval.Registry) {
	r.Register(eval.Pure("eq?", eval.AtLeast(2), equal(true)).
		WithDoc("Report whether all the arguments are structurally equal."))
	r.Register(eval.Pure("neq?", eval.Exactly(2), equal(false)).
		WithDoc("Report whether the two arguments differ."))
	r.Register(eval.Pure("gt?", eval.AtLeast(2), ordered(func(c int) bool { return c > 0 })).
		WithDoc("Report whether each argument is greater than the next.  Numbers or strings."))
	r.Register(eval.Pure("lt?", eval.AtLeast(2), ordered(func(c int) bool { return c < 0 })).
		WithDoc("Report whether each argument is less than the next.  Numbers or strings."))
	r.Register(eval.Pure("gte?", eval.AtLeast(2), ordered(func(c int) bool { return c >= 0 })).
		WithDoc("Report whether each argument is at least the next.  Numbers or strings."))
	r.Register(eval.Pure("lte?", eval.AtLeast(2), ordered(func(c int) bool { return c <= 0 })).
		WithDoc("Report whether each argument is at most the next.  Numbers or strings."))
	r.Register(eval.Pure("not", eval.Exactly(1), not).
		WithDoc("Negate a bool."))

	alias(r, "=", "eq?")
	alias(r, "!=", "neq?")
	alias(r, ">", "gt?")
	alias(r, "<", "lt?")
	alias(r, ">=", "gte?")
	alias(r, "<=", "lte?")
}

func equal(want bool) eval.PureFunc {
	return func(args *eval.Args) (value.Value, error) {
		for i := 1; i < args.Len(); i++ {
			if !value.Equal(args.Values[0], args.Values[i]) {
				return value.Bool(!want), nil
			}
		}
		return value.Bool(want), nil
	}
}

// compare returns -1, 0, or 1.  Both arguments must be numbers, or
// both must be strings.
func compare(args *eval.Args, i, j int) (int, error) {
	switch x := args.Values[i].(type) {
	case value.Num:
		y, err := args.Num(j)
		if err != nil {
			return 0, err
		}
		return cmp.Compare(float64(x), y), nil
	case value.Str:
		y, err := args.Str(j)
		if err != nil {
			return 0, err
		}
		return cmp.Compare(string(x), y), nil
	}
	return 0, args.TypeError(i, "number or string")
}

func ordered(ok func(int) bool) eval.PureFunc {
	return func(args *eval.Args) (value.Value, error) {
		result := true
		// Check every argument's type even when the answer is known.
		for i := 0; i+1 < args.Len(); i++ {
			c, err := compare(args, i, i+1)
			if err != nil {
				return nil, err
			}
			if !ok(c) {
				result = false
			}
		}
		return value.Bool(result), nil
	}
}

func not(args *eval.Args) (value.Value, error) {
	b, err := args.Bool(0)
	if err != nil {
		return nil, err
	}
	return value.Bool(!b), nil
}
