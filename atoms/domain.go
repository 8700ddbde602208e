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
	"time"

	"github.com/gorhill/cronexpr"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/match"
	"github.com/Comcast/sutra/value"
)

func registerDomain(r *eval.Registry) {
	r.Register(eval.Pure("match", eval.Between(2, 3), matchAtom).
		WithDoc("(match pattern fact [bindings]) is the list of binding maps for each way the fact matches the pattern.  " +
			"Strings like \"?x\" in the pattern are variables."))
	r.Register(eval.Pure("cron-next", eval.Exactly(2), cronNext).
		WithDoc("(cron-next expr from) is the first time after from that satisfies the cron expression.  " +
			"from is either an RFC3339 string or Unix seconds, and the result has the same form."))
}

func matchAtom(args *eval.Args) (value.Value, error) {
	bs := match.NewBindings()
	if args.Len() == 3 {
		m, err := args.Map(2)
		if err != nil {
			return nil, err
		}
		for k, v := range m {
			bs[k] = v
		}
	}
	bss, err := match.Match(args.Values[0], args.Values[1], bs)
	if err != nil {
		return nil, args.Errorf(0, core.InvalidForm, "bad pattern: %s", err)
	}
	acc := make(value.List, len(bss))
	for i, b := range bss {
		acc[i] = b.Map()
	}
	return acc, nil
}

func cronNext(args *eval.Args) (value.Value, error) {
	s, err := args.Str(0)
	if err != nil {
		return nil, err
	}
	c, err := cronexpr.Parse(s)
	if err != nil {
		return nil, args.Errorf(0, core.InvalidForm, "bad cron expression: %s", err)
	}
	switch vv := args.Values[1].(type) {
	case value.Num:
		sec := int64(vv)
		next := c.Next(time.Unix(sec, 0).UTC())
		return value.Num(next.Unix()), nil
	case value.Str:
		t, err := time.Parse(time.RFC3339Nano, string(vv))
		if err != nil {
			return nil, args.Errorf(1, core.TypeMismatch, "bad time: %s", err)
		}
		return value.Str(c.Next(t).UTC().Format(time.RFC3339Nano)), nil
	}
	return nil, args.TypeError(1, "RFC3339 string or Unix seconds")
}
