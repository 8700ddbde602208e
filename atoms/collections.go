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
	"strings"
	"unicode/utf8"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/value"
)

func registerCollections(r *eval.Registry) {
	r.Register(eval.Pure("list", eval.AtLeast(0), list).
		WithDoc("Make a list of the arguments."))
	r.Register(eval.Pure("len", eval.Exactly(1), length).
		WithDoc("The number of elements of a list, entries of a map, or characters of a string.  (len nil) is 0."))
	r.Register(eval.Pure("first", eval.Exactly(1), first).
		WithDoc("The first element of a list, or nil for an empty list."))
	r.Register(eval.Pure("rest", eval.Exactly(1), rest).
		WithDoc("All but the first element of a list."))
	r.Register(eval.Pure("nth", eval.Exactly(2), nth).
		WithDoc("(nth xs i) is the element at index i (from zero), or nil if there isn't one."))
	r.Register(eval.Pure("cons", eval.Exactly(2), cons).
		WithDoc("(cons x xs) is xs with x added at the front."))
	r.Register(eval.Pure("append", eval.AtLeast(1), appendList).
		WithDoc("(append xs y...) is xs with the remaining arguments added at the end.  Nil counts as the empty list."))
	r.Register(eval.Pure("concat", eval.AtLeast(0), concat).
		WithDoc("Join lists."))
	r.Register(eval.Pure("reverse", eval.Exactly(1), reverse).
		WithDoc("The list in reverse order."))
	r.Register(eval.Pure("range", eval.Between(1, 3), rangeList).
		WithDoc("(range n) is (0 ... n-1).  (range a b) starts at a.  (range a b step) counts by step."))
	r.Register(eval.Pure("keys", eval.Exactly(1), keys).
		WithDoc("The keys of a map in sorted order."))
	r.Register(eval.Pure("has-key?", eval.Exactly(2), hasKey).
		WithDoc("Report whether the map has the key."))
	r.Register(eval.Pure("hash-map", eval.AtLeast(0), hashMap).
		WithDoc("Make a map from alternating keys and values: (hash-map \"a\" 1 \"b\" 2)."))
	r.Register(eval.Pure("str", eval.AtLeast(0), str).
		WithDoc("Concatenate the arguments as text."))
}

func list(args *eval.Args) (value.Value, error) {
	acc := make(value.List, args.Len())
	copy(acc, args.Values)
	return acc, nil
}

func length(args *eval.Args) (value.Value, error) {
	switch vv := args.Values[0].(type) {
	case value.List:
		return value.Num(len(vv)), nil
	case value.Map:
		return value.Num(len(vv)), nil
	case value.Str:
		return value.Num(utf8.RuneCountInString(string(vv))), nil
	case value.Nil:
		return value.Num(0), nil
	}
	return nil, args.TypeError(0, "list, map, or string")
}

func first(args *eval.Args) (value.Value, error) {
	xs, err := args.List(0)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return value.Nil{}, nil
	}
	return xs[0], nil
}

func rest(args *eval.Args) (value.Value, error) {
	xs, err := args.List(0)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return value.List{}, nil
	}
	acc := make(value.List, len(xs)-1)
	copy(acc, xs[1:])
	return acc, nil
}

func nth(args *eval.Args) (value.Value, error) {
	xs, err := args.List(0)
	if err != nil {
		return nil, err
	}
	i, err := args.Int(1)
	if err != nil {
		return nil, err
	}
	if i < 0 || len(xs) <= i {
		return value.Nil{}, nil
	}
	return xs[i], nil
}

func cons(args *eval.Args) (value.Value, error) {
	xs, err := args.List(1)
	if err != nil {
		return nil, err
	}
	acc := make(value.List, 0, len(xs)+1)
	acc = append(acc, args.Values[0])
	return append(acc, xs...), nil
}

func appendList(args *eval.Args) (value.Value, error) {
	xs, err := args.List(0)
	if err != nil {
		return nil, err
	}
	// Always copy: lists are shared with the World.
	acc := make(value.List, 0, len(xs)+args.Len()-1)
	acc = append(acc, xs...)
	return append(acc, args.Values[1:]...), nil
}

func concat(args *eval.Args) (value.Value, error) {
	acc := value.List{}
	for i := range args.Values {
		xs, err := args.List(i)
		if err != nil {
			return nil, err
		}
		acc = append(acc, xs...)
	}
	return acc, nil
}

func reverse(args *eval.Args) (value.Value, error) {
	xs, err := args.List(0)
	if err != nil {
		return nil, err
	}
	acc := make(value.List, len(xs))
	for i, x := range xs {
		acc[len(xs)-1-i] = x
	}
	return acc, nil
}

// maxRange bounds the length of a list made by range.
const maxRange = 1 << 20

func rangeList(args *eval.Args) (value.Value, error) {
	ns, err := nums(args)
	if err != nil {
		return nil, err
	}
	from, to, step := 0.0, 0.0, 1.0
	switch len(ns) {
	case 1:
		to = ns[0]
	case 2:
		from, to = ns[0], ns[1]
	case 3:
		from, to, step = ns[0], ns[1], ns[2]
	}
	if step == 0 {
		return nil, args.Errorf(2, core.InvalidForm, "range step can't be zero")
	}
	acc := value.List{}
	for x := from; (0 < step && x < to) || (step < 0 && to < x); x += step {
		if maxRange <= len(acc) {
			return nil, args.Errorf(-1, core.InvalidForm, "range is longer than %d", maxRange)
		}
		acc = append(acc, value.Num(x))
	}
	return acc, nil
}

func keys(args *eval.Args) (value.Value, error) {
	m, err := args.Map(0)
	if err != nil {
		return nil, err
	}
	ks := m.Keys()
	acc := make(value.List, len(ks))
	for i, k := range ks {
		acc[i] = value.Str(k)
	}
	return acc, nil
}

func hasKey(args *eval.Args) (value.Value, error) {
	m, err := args.Map(0)
	if err != nil {
		return nil, err
	}
	k, err := args.Str(1)
	if err != nil {
		return nil, err
	}
	_, have := m[k]
	return value.Bool(have), nil
}

func hashMap(args *eval.Args) (value.Value, error) {
	if args.Len()%2 != 0 {
		return nil, core.NewArityError(core.EvalKind, args.Name, "an even number of", args.Len(), args.Call.Ptr())
	}
	acc := make(value.Map, args.Len()/2)
	for i := 0; i < args.Len(); i += 2 {
		k, err := args.Str(i)
		if err != nil {
			return nil, err
		}
		acc[k] = args.Values[i+1]
	}
	return acc, nil
}

func str(args *eval.Args) (value.Value, error) {
	var b strings.Builder
	for _, v := range args.Values {
		b.WriteString(Display(v))
	}
	return value.Str(b.String()), nil
}
