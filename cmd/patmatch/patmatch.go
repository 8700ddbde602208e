/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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


// Package main is a little command-line utility to invoke pattern matching.
//
//   patmatch -p '{"likes":"?liked"}' -m '{"likes":["tacos","chips"]}' -w '[{"?liked":["tacos","chips"]}]'
//
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/Comcast/sutra/match"
	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/value"
)

func main() {
	var (
		messageJS  = flag.String("m", "", "message in JSON")
		patternJS  = flag.String("p", "", "pattern in JSON")
		bindingsJS = flag.String("b", "{}", "bindings in JSON")
		wantJS     = flag.String("w", "", "wanted bindings in JSON")

		bench = flag.Int("bench", 0, "number of times to run (and report time)")

		verbose = flag.Bool("v", false, "verbosity")

		message  value.Value
		pattern  value.Value
		want     []match.Bindings
		wanted   bool
		bindings = match.NewBindings()
	)

	flag.Parse()

	message = parse("message", *messageJS)
	pattern = parse("pattern", *patternJS)

	if *bindingsJS != "" {
		m, is := parse("bindings", *bindingsJS).(value.Map)
		if !is {
			die(fmt.Errorf("bindings must be a JSON object"))
		}
		for k, v := range m {
			bindings[k] = v
		}
	}

	if *wantJS != "" {
		l, is := parse("wanted bindings", *wantJS).(value.List)
		if !is {
			die(fmt.Errorf("wanted bindings must be a JSON array"))
		}
		for _, x := range l {
			m, is := x.(value.Map)
			if !is {
				die(fmt.Errorf("wanted bindings must be JSON objects"))
			}
			bs := match.NewBindings()
			for k, v := range m {
				bs[k] = v
			}
			want = append(want, bs)
		}
		wanted = true
	}

	if 0 < *bench {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		allocs := stats.TotalAlloc
		then := time.Now()
		for i := 0; i < *bench; i++ {
			if _, err := match.Match(pattern, message, bindings); err != nil {
				die(err)
			}
		}
		elapsed := time.Now().Sub(then)
		meanNanos := elapsed.Nanoseconds() / int64(*bench)

		runtime.ReadMemStats(&stats)
		allocated := (stats.TotalAlloc - allocs) / uint64(*bench)

		util.Info("bench", "iterations", *bench, "meanNanos", meanNanos, "meanBytes", allocated)
	}

	bss, err := match.Match(pattern, message, bindings)
	if err != nil {
		die(err)
	}

	if wanted {
		fmt.Println(Same(want, bss, *verbose))
		return
	}

	acc := make([]interface{}, len(bss))
	for i, bs := range bss {
		acc[i] = value.ToInterface(bs.Map())
	}
	bssJS, err := json.Marshal(&acc)
	if err != nil {
		die(err)
	}

	fmt.Printf("%s\n", bssJS)
}

func parse(what, js string) value.Value {
	if js == "" {
		return value.Nil{}
	}
	var x interface{}
	if err := json.Unmarshal([]byte(js), &x); err != nil {
		die(fmt.Errorf("%s: %v", what, err))
	}
	v, err := value.FromInterface(x)
	if err != nil {
		die(fmt.Errorf("%s: %v", what, err))
	}
	return v
}

func die(err error) {
	util.Error("patmatch", "err", err)
	os.Exit(1)
}

// Same reports whether every wanted Bindings appears in what we got.
func Same(want, got []match.Bindings, verbose bool) bool {
WANTED:
	for _, wantedBs := range want {
		for _, haveBs := range got {
			if Subset(wantedBs, haveBs, verbose) && Subset(haveBs, wantedBs, verbose) {
				continue WANTED
			}
		}
		return false
	}
	return true
}

// Subset checks that Bindings x is a subset of Bindings y.
func Subset(x, y match.Bindings, verbose bool) bool {
	for p, bx := range x {
		by, have := y[p]
		if !have {
			return false
		}
		if !value.Equal(bx, by) {
			if verbose {
				fmt.Printf("disagreement at %s: %s != %s\n", p, value.Repr(bx), value.Repr(by))
			}
			return false
		}
	}
	return true
}
