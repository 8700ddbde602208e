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

// Package goja provides atoms written in ECMAScript.
//
// A script is a function body that returns an object whose properties
// are functions.  Each function becomes a pure atom:
//
//	return {
//	  double: function(x) { return 2*x; },
//	};
//
// Arguments and results go through JSON-style data, so a path arrives
// as {"_path":[...]}, and a script can't return a lambda.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/gorhill/cronexpr"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/eval"
	"github.com/Comcast/sutra/match"
	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/value"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned when a script function runs too
	// long.
	Interrupted = errors.New(InterruptedMessage)

	// DefaultTimeout bounds each call of a script function.
	DefaultTimeout = time.Second
)

// Interpreter loads scripts.
type Interpreter struct {

	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// Timeout bounds each call of a script function.  Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// LibraryProvider resolves the names given in a script's
	// "requires".  If nil, DefaultLibraryProvider is used.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into a library.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a provider that supports (barely)
// names that are URLs with protocols of "file", "http", and "https".
// There currently is no additional control when using HTTP/HTTPS.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			if strings.Contains(parts[1], "..") {
				return "", fmt.Errorf("bad library file '%s'", parts[1])
			}
			bs, err := ioutil.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequest("GET", name, nil)
			if err != nil {
				return "", err
			}
			req = req.WithContext(ctx)
			client := http.Client{}
			resp, err := client.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusOK:
				bs, err := ioutil.ReadAll(resp.Body)
				if err != nil {
					return "", err
				}
				return string(bs), nil
			default:
				return "", fmt.Errorf("library fetch status %s %d",
					resp.Status, resp.StatusCode)
			}
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// parseSource looks into the given map to try to find "requires" and
// "code" properties.
func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	x := vv["code"]
	if s, is := x.(string); is {
		code = s
	} else {
		err = errors.New("bad script code")
		return
	}

	x = vv["requires"]
	switch vv := x.(type) {
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			switch vv := x.(type) {
			case string:
				libs = append(libs, vv)
			default:
				err = errors.New("bad library")
				return
			}
		}
	}

	return
}

// AsSource accepts plain code or a map with "code" and "requires".
// A map can come from github.com/jsccast/yaml (map[string]interface{})
// or gopkg.in/yaml.v2 (map[interface{}]interface{}).
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		code = vv
		return
	case map[interface{}]interface{}:
		m := make(map[string]interface{})
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				err = fmt.Errorf("bad src key (%T)", k)
				return
			}
			m[str] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	default:
		err = fmt.Errorf("bad script source (%T)", src)
		return
	}
}

// Compile prepends the required libraries and calls goja.Compile.
//
// This method can block if the interpreter's library Provider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, name string, src interface{}) (*goja.Program, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	code = wrapSrc(libsSrc + code)

	p, err := goja.Compile(name, code, true)
	if err != nil {
		return nil, core.NewError(core.ParseKind, core.ScriptError, nil, "%s: %s", name, err)
	}
	return p, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// Script is a loaded script.
//
// A goja.Runtime isn't safe for concurrent use, so calls are
// serialized.
type Script struct {
	sync.Mutex

	Name    string
	timeout time.Duration
	o       *goja.Runtime
	fns     map[string]goja.Callable
}

// Load compiles and runs a script and collects its functions.
//
// The following properties are available from the runtime at _.
//
//	cronNext(expr, from): The next time (RFC3339) after from.
//	esc(s): URL query-escape the given string.
//	match(pat, obj, bs): Execute the pattern matcher.
//	log(x): Log x as JSON.
//
// For testing only:
//
//	sleep(ms): sleep for the given number of milliseconds.
//
// The Testing flag must be set to see sleep().
func (i *Interpreter) Load(ctx context.Context, name string, src interface{}) (*Script, error) {
	p, err := i.Compile(ctx, name, src)
	if err != nil {
		return nil, err
	}

	o := goja.New()
	env := map[string]interface{}{}
	o.Set("_", env)

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	env["cronNext"] = func(x, from goja.Value) interface{} {
		cronExpr, is := x.Export().(string)
		if !is {
			protest(o, "not a string")
		}
		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			protest(o, err.Error())
		}
		s, is := from.Export().(string)
		if !is {
			protest(o, "not a string")
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(t).UTC().Format(time.RFC3339Nano)
	}

	env["esc"] = func(x goja.Value) interface{} {
		s, is := x.Export().(string)
		if !is {
			protest(o, "not a string")
		}
		return url.QueryEscape(s)
	}

	env["log"] = func(x goja.Value) interface{} {
		js, err := json.Marshal(x.Export())
		if err != nil {
			util.Warn("script log", "script", name, "error", err)
		} else {
			util.Info("script log", "script", name, "value", string(js))
		}
		return x
	}

	// match is a utility that invokes the pattern matcher.
	env["match"] = func(pat, fact, bs goja.Value) interface{} {
		var bindings map[string]interface{}
		if bs != nil && !goja.IsUndefined(bs) && !goja.IsNull(bs) {
			x, err := canonicalize(bs.Export())
			if err != nil {
				protest(o, err.Error())
			}
			var is bool
			if bindings, is = x.(map[string]interface{}); !is {
				protest(o, "bad bindings")
			}
		}
		p, err := canonicalize(pat.Export())
		if err != nil {
			protest(o, err.Error())
		}
		f, err := canonicalize(fact.Export())
		if err != nil {
			protest(o, err.Error())
		}
		bss, err := match.MatchInterface(p, f, bindings)
		if err != nil {
			protest(o, err.Error())
		}
		acc := make([]interface{}, len(bss))
		for j, b := range bss {
			acc[j] = value.ToInterface(b.Map())
		}
		return acc
	}

	s := &Script{
		Name:    name,
		timeout: i.Timeout,
		o:       o,
		fns:     make(map[string]goja.Callable),
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}

	v, err := s.run(ctx, func() (goja.Value, error) {
		return o.RunProgram(p)
	})
	if err != nil {
		return nil, err
	}

	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("script %s didn't return an object", name)
	}
	obj := v.ToObject(o)
	for _, k := range obj.Keys() {
		f, is := goja.AssertFunction(obj.Get(k))
		if !is {
			return nil, fmt.Errorf("script %s property %s isn't a function", name, k)
		}
		s.fns[k] = f
	}

	return s, nil
}

// run calls f with the Runtime, interrupting it if ctx is done or
// the timeout elapses.
func (s *Script) run(ctx context.Context, f func() (goja.Value, error)) (goja.Value, error) {
	ictx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ictx.Done():
			s.o.Interrupt(InterruptedMessage)
		case <-done:
		}
	}()

	v, err := f()
	close(done)
	<-stopped
	s.o.ClearInterrupt()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}
	return v, nil
}

// Names returns the names of the script's functions in sorted order.
func (s *Script) Names() []string {
	acc := make([]string, 0, len(s.fns))
	for name := range s.fns {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// Call calls the named function.
func (s *Script) Call(ctx context.Context, name string, args []value.Value) (value.Value, error) {
	f, have := s.fns[name]
	if !have {
		return nil, fmt.Errorf("script %s has no function %s", s.Name, name)
	}

	s.Lock()
	defer s.Unlock()

	vs := make([]goja.Value, len(args))
	for i, arg := range args {
		vs[i] = s.o.ToValue(value.ToInterface(arg))
	}

	v, err := s.run(ctx, func() (goja.Value, error) {
		return f(goja.Undefined(), vs...)
	})
	if err != nil {
		return nil, err
	}

	x, err := canonicalize(v.Export())
	if err != nil {
		return nil, err
	}
	return value.FromInterface(x)
}

// Atom makes a pure atom for the named function.
func (s *Script) Atom(name string) *eval.Atom {
	return eval.Pure(name, eval.AtLeast(0), func(args *eval.Args) (value.Value, error) {
		v, err := s.Call(context.Background(), name, args.Values)
		if err != nil {
			e := core.NewError(core.EvalKind, core.ScriptError, args.Call.Ptr(), "%s", err)
			e.Callee = name
			return nil, e
		}
		return v, nil
	}).WithDoc("ECMAScript function from " + s.Name + ".")
}

// Register adds an atom for each of the script's functions.
func (s *Script) Register(r *eval.Registry) {
	for _, name := range s.Names() {
		r.Register(s.Atom(name))
	}
}

// LoadAtoms loads a script and registers its functions as atoms.
func (i *Interpreter) LoadAtoms(ctx context.Context, r *eval.Registry, name string, src interface{}) (*Script, error) {
	s, err := i.Load(ctx, name, src)
	if err != nil {
		return nil, err
	}
	s.Register(r)
	return s, nil
}

// canonicalize is an abomination: it round-trips through JSON so that
// numbers are float64s and objects are map[string]interface{}.
func canonicalize(x interface{}) (interface{}, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}
