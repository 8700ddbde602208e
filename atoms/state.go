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
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func registerState(r *eval.Registry) {
	r.Register(eval.Stateful("core/get", eval.Exactly(1), getAtom).
		WithDoc("The value at a path, or nil.  A path that starts with a let or lambda variable reads that variable."))
	r.Register(eval.Stateful("core/set!", eval.Exactly(2), setAtom).
		WithDoc("Store a value at a path in the World.  Returns nil."))
	r.Register(eval.Stateful("core/del!", eval.Exactly(1), delAtom).
		WithDoc("Remove the value at a path in the World.  Empty parent maps are removed, too.  Returns nil."))
	r.Register(eval.Stateful("core/exists?", eval.Exactly(1), existsAtom).
		WithDoc("Report whether there's a value at a path."))
	r.Register(eval.Stateful("print", eval.AtLeast(0), emit(" ", "")).
		WithDoc("Write the arguments separated by spaces."))
	r.Register(eval.Stateful("println", eval.AtLeast(0), emit(" ", "\n")).
		WithDoc("Write the arguments separated by spaces followed by a newline."))
	r.Register(eval.Stateful("output", eval.Exactly(1), output).
		WithDoc("Write the value as a separate emission and return it."))
	r.Register(eval.Stateful("rand", eval.Between(0, 1), random).
		WithDoc("(rand) is a number in [0,1).  (rand n) is an integer in [0,n).  Either advances the World's generator."))
}

// lookup finds the value at p, consulting local variables first.
func lookup(st *eval.State, p core.Path) (value.Value, bool) {
	if 0 < len(p) {
		if v, have := st.Env.Lookup(p[0]); have {
			return descend(v, p[1:])
		}
	}
	return st.World.Get(p)
}

func descend(v value.Value, p core.Path) (value.Value, bool) {
	for _, seg := range p {
		m, is := v.(value.Map)
		if !is {
			return nil, false
		}
		if v, is = m[seg]; !is {
			return nil, false
		}
	}
	return v, true
}

func getAtom(st *eval.State, args *eval.Args) (value.Value, *world.World, error) {
	p, err := args.Path(0)
	if err != nil {
		return nil, nil, err
	}
	if v, have := lookup(st, p); have {
		return v, st.World, nil
	}
	return value.Nil{}, st.World, nil
}

func setAtom(st *eval.State, args *eval.Args) (value.Value, *world.World, error) {
	p, err := args.Path(0)
	if err != nil {
		return nil, nil, err
	}
	return value.Nil{}, st.World.Set(p, args.Values[1]), nil
}

func delAtom(st *eval.State, args *eval.Args) (value.Value, *world.World, error) {
	p, err := args.Path(0)
	if err != nil {
		return nil, nil, err
	}
	return value.Nil{}, st.World.Del(p), nil
}

func existsAtom(st *eval.State, args *eval.Args) (value.Value, *world.World, error) {
	p, err := args.Path(0)
	if err != nil {
		return nil, nil, err
	}
	_, have := lookup(st, p)
	return value.Bool(have), st.World, nil
}

func emit(sep, end string) eval.StatefulFunc {
	return func(st *eval.State, args *eval.Args) (value.Value, *world.World, error) {
		st.Output.Emit(displayAll(args.Values, sep)+end, args.Call.Ptr())
		return value.Nil{}, st.World, nil
	}
}

func output(st *eval.State, args *eval.Args) (value.Value, *world.World, error) {
	st.Output.Emit(Display(args.Values[0]), args.Call.Ptr())
	return args.Values[0], st.World, nil
}

func random(st *eval.State, args *eval.Args) (value.Value, *world.World, error) {
	if args.Len() == 0 {
		f, w := st.World.RandomFloat()
		return value.Num(f), w, nil
	}
	n, err := args.Int(0)
	if err != nil {
		return nil, nil, err
	}
	if n <= 0 {
		return nil, nil, args.Errorf(0, core.TypeMismatch, "rand bound must be positive, not %d", n)
	}
	i, w := st.World.RandomInt(n)
	return value.Num(i), w, nil
}
