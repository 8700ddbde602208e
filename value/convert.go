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

import (
	"fmt"

	"github.com/Comcast/sutra/ast"
	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/syntax"
)

const (
	// PathTag is the key of the single-key map that represents a
	// Path in JSON-ish form.
	PathTag = "_path"

	// LambdaTag is the key of the single-key map that represents a
	// Lambda in JSON-ish form.
	LambdaTag = "_lambda"
)

// ToInterface converts a Value into the generic data that
// encoding/json (and friends) work with.
//
// Paths become {"_path":[segments]}, and Lambdas become
// {"_lambda":{"params":[...],"rest":"...","body":"source","env":{...}}}.
func ToInterface(v Value) interface{} {
	switch vv := v.(type) {
	case nil, Nil:
		return nil
	case Num:
		return float64(vv)
	case Str:
		return string(vv)
	case Bool:
		return bool(vv)
	case List:
		acc := make([]interface{}, len(vv))
		for i, x := range vv {
			acc[i] = ToInterface(x)
		}
		return acc
	case Map:
		acc := make(map[string]interface{}, len(vv))
		for k, x := range vv {
			acc[k] = ToInterface(x)
		}
		return acc
	case Path:
		segs := make([]interface{}, len(vv))
		for i, s := range vv {
			segs[i] = s
		}
		return map[string]interface{}{PathTag: segs}
	case *Lambda:
		env := make(map[string]interface{}, vv.Env.Len())
		for _, name := range vv.Env.Names() {
			x, _ := vv.Env.Lookup(name)
			env[name] = ToInterface(x)
		}
		params := make([]interface{}, len(vv.Params.Required))
		for i, p := range vv.Params.Required {
			params[i] = p
		}
		return map[string]interface{}{
			LambdaTag: map[string]interface{}{
				"params": params,
				"rest":   vv.Params.Rest,
				"body":   vv.Body.String(),
				"env":    env,
			},
		}
	}
	return fmt.Sprintf("%v", v)
}

// FromInterface is the inverse of ToInterface.
//
// Numbers can be any of Go's numeric types.  Unsupported types are an
// error.
func FromInterface(x interface{}) (Value, error) {
	switch vv := x.(type) {
	case nil:
		return Nil{}, nil
	case Value:
		return vv, nil
	case bool:
		return Bool(vv), nil
	case string:
		return Str(vv), nil
	case float64:
		return Num(vv), nil
	case float32:
		return Num(vv), nil
	case int:
		return Num(vv), nil
	case int64:
		return Num(vv), nil
	case int32:
		return Num(vv), nil
	case uint64:
		return Num(vv), nil
	case []interface{}:
		acc := make(List, len(vv))
		for i, y := range vv {
			v, err := FromInterface(y)
			if err != nil {
				return nil, err
			}
			acc[i] = v
		}
		return acc, nil
	case []string:
		acc := make(List, len(vv))
		for i, s := range vv {
			acc[i] = Str(s)
		}
		return acc, nil
	case map[interface{}]interface{}:
		// YAML.
		m := make(map[string]interface{}, len(vv))
		for k, y := range vv {
			s, is := k.(string)
			if !is {
				return nil, fmt.Errorf("map key %#v (%T) isn't a string", k, k)
			}
			m[s] = y
		}
		return FromInterface(m)
	case map[string]interface{}:
		if len(vv) == 1 {
			if segs, have := vv[PathTag]; have {
				return pathFromInterface(segs)
			}
			if spec, have := vv[LambdaTag]; have {
				return lambdaFromInterface(spec)
			}
		}
		acc := make(Map, len(vv))
		for k, y := range vv {
			v, err := FromInterface(y)
			if err != nil {
				return nil, err
			}
			acc[k] = v
		}
		return acc, nil
	}
	return nil, fmt.Errorf("can't make a value from %#v (%T)", x, x)
}

func stringList(x interface{}) ([]string, error) {
	switch vv := x.(type) {
	case nil:
		return nil, nil
	case []string:
		return vv, nil
	case []interface{}:
		acc := make([]string, len(vv))
		for i, y := range vv {
			s, is := y.(string)
			if !is {
				return nil, fmt.Errorf("%#v (%T) isn't a string", y, y)
			}
			acc[i] = s
		}
		return acc, nil
	}
	return nil, fmt.Errorf("%#v (%T) isn't a list of strings", x, x)
}

func pathFromInterface(x interface{}) (Value, error) {
	segs, err := stringList(x)
	if err != nil {
		return nil, err
	}
	return Path(core.Path(segs)), nil
}

func lambdaFromInterface(x interface{}) (Value, error) {
	m, is := x.(map[string]interface{})
	if !is {
		return nil, fmt.Errorf("bad lambda %#v (%T)", x, x)
	}
	required, err := stringList(m["params"])
	if err != nil {
		return nil, err
	}
	rest, _ := m["rest"].(string)
	src, is := m["body"].(string)
	if !is {
		return nil, fmt.Errorf("lambda body %#v (%T) isn't a string", m["body"], m["body"])
	}
	body, err := syntax.ParseOne("lambda", src)
	if err != nil {
		return nil, err
	}
	bs := make(map[string]Value)
	if env, is := m["env"].(map[string]interface{}); is {
		for k, y := range env {
			v, err := FromInterface(y)
			if err != nil {
				return nil, err
			}
			bs[k] = v
		}
	}
	return &Lambda{
		Params: &ast.ParamList{Required: required, Rest: rest},
		Body:   body,
		Env:    NewEnv(bs),
	}, nil
}
