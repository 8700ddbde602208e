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
	"math"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/value"
)

func registerMath(r *eval.Registry) {
	r.Register(eval.Pure("+", eval.AtLeast(0), add).
		WithDoc("Sum the numbers.  (+) is 0."))
	r.Register(eval.Pure("-", eval.AtLeast(1), sub).
		WithDoc("Subtract the remaining numbers from the first.  With one argument, negate it."))
	r.Register(eval.Pure("*", eval.AtLeast(0), mul).
		WithDoc("Multiply the numbers.  (*) is 1."))
	r.Register(eval.Pure("/", eval.AtLeast(2), div).
		WithDoc("Divide the first number by each of the others.  Dividing by zero is an error."))
	r.Register(eval.Pure("mod", eval.Exactly(2), mod).
		WithDoc("The remainder of dividing the first number by the second, with the sign of the first."))
	r.Register(eval.Pure("abs", eval.Exactly(1), abs).
		WithDoc("The absolute value."))
	r.Register(eval.Pure("min", eval.AtLeast(1), extreme(func(a, b float64) bool { return a < b })).
		WithDoc("The smallest number."))
	r.Register(eval.Pure("max", eval.AtLeast(1), extreme(func(a, b float64) bool { return a > b })).
		WithDoc("The largest number."))
	r.Register(eval.Pure("floor", eval.Exactly(1), unary(math.Floor)).
		WithDoc("The greatest integer not greater than the number."))
	r.Register(eval.Pure("round", eval.Exactly(1), unary(math.Round)).
		WithDoc("The nearest integer, rounding half away from zero."))
}

// nums gets all the arguments as numbers.
func nums(args *eval.Args) ([]float64, error) {
	acc := make([]float64, args.Len())
	for i := range acc {
		n, err := args.Num(i)
		if err != nil {
			return nil, err
		}
		acc[i] = n
	}
	return acc, nil
}

func add(args *eval.Args) (value.Value, error) {
	ns, err := nums(args)
	if err != nil {
		return nil, err
	}
	acc := 0.0
	for _, n := range ns {
		acc += n
	}
	return value.Num(acc), nil
}

func sub(args *eval.Args) (value.Value, error) {
	ns, err := nums(args)
	if err != nil {
		return nil, err
	}
	if len(ns) == 1 {
		return value.Num(-ns[0]), nil
	}
	acc := ns[0]
	for _, n := range ns[1:] {
		acc -= n
	}
	return value.Num(acc), nil
}

func mul(args *eval.Args) (value.Value, error) {
	ns, err := nums(args)
	if err != nil {
		return nil, err
	}
	acc := 1.0
	for _, n := range ns {
		acc *= n
	}
	return value.Num(acc), nil
}

func div(args *eval.Args) (value.Value, error) {
	ns, err := nums(args)
	if err != nil {
		return nil, err
	}
	acc := ns[0]
	for i, n := range ns[1:] {
		if n == 0 {
			return nil, args.Errorf(i+1, core.DivisionByZero, "division by zero")
		}
		acc /= n
	}
	return value.Num(acc), nil
}

func mod(args *eval.Args) (value.Value, error) {
	ns, err := nums(args)
	if err != nil {
		return nil, err
	}
	if ns[1] == 0 {
		return nil, args.Errorf(1, core.DivisionByZero, "modulo by zero")
	}
	return value.Num(math.Mod(ns[0], ns[1])), nil
}

func abs(args *eval.Args) (value.Value, error) {
	n, err := args.Num(0)
	if err != nil {
		return nil, err
	}
	return value.Num(math.Abs(n)), nil
}

func unary(f func(float64) float64) eval.PureFunc {
	return func(args *eval.Args) (value.Value, error) {
		n, err := args.Num(0)
		if err != nil {
			return nil, err
		}
		return value.Num(f(n)), nil
	}
}

func extreme(better func(a, b float64) bool) eval.PureFunc {
	return func(args *eval.Args) (value.Value, error) {
		ns, err := nums(args)
		if err != nil {
			return nil, err
		}
		acc := ns[0]
		for _, n := range ns[1:] {
			if better(n, acc) {
				acc = n
			}
		}
		return value.Num(acc), nil
	}
}
