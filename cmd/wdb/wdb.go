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


// Package main is a command-line shell for stored Worlds.
//
// Each line is a command like "use game", "print score", or
// "run (add! score 1)".  Type "help" for the list.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"regexp"
	"strings"

	"github.com/jsccast/yaml"
	"github.com/pkg/errors"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/crew"
	"github.com/Comcast/sutra/pipeline"
	"github.com/Comcast/sutra/storage"
	"github.com/Comcast/sutra/storage/bolt"
	"github.com/Comcast/sutra/value"
)

type Opts struct {
	dbFilename string
	dir        string
	echo       bool
	autoSave   bool
}

func main() {

	opts := &Opts{}
	flag.StringVar(&opts.dbFilename, "db", "worlds.db", "bbolt database file")
	flag.StringVar(&opts.dir, "dir", "", "directory of JSON worlds (instead of -db)")
	flag.BoolVar(&opts.echo, "e", false, "echo input")
	flag.BoolVar(&opts.autoSave, "a", false, "save after each successful run")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var store storage.Storage
	if opts.dir != "" {
		store = storage.NewJSONStore(opts.dir)
	} else {
		b, err := bolt.NewStorage(opts.dbFilename)
		if err != nil {
			panic(err)
		}
		store = b
	}
	if err := store.Open(ctx); err != nil {
		panic(err)
	}
	defer store.Close(context.Background())

	e, err := pipeline.Standard(ctx, nil)
	if err != nil {
		panic(err)
	}
	defer e.Close()

	if err := opts.run(ctx, e, store, os.Stdin, os.Stdout); err != nil {
		panic(err)
	}
}

var (
	use = regexp.MustCompile("^use +([-a-zA-Z0-9_.]+)$")

	list = regexp.MustCompile("^(ls|list)$")

	print = regexp.MustCompile("^(print|yaml)( +([^ ]+))?$")

	set = regexp.MustCompile("^set +([^ ]+) +(.*)")

	del = regexp.MustCompile("^del +([^ ]+)$")

	run = regexp.MustCompile("^run +(.*)")

	save = regexp.MustCompile("^save$")

	drop = regexp.MustCompile("^drop +([-a-zA-Z0-9_.]+)$")

	load = regexp.MustCompile("^load +(.*)")

	dump = regexp.MustCompile("^dump +(.*)")

	help = regexp.MustCompile("^(help|h|\\?)$")
)

func (opts *Opts) run(ctx context.Context, e *pipeline.Engine, store storage.Storage, in io.Reader, w io.Writer) error {

	var (
		outputPrefix = "# "

		say = func(format string, args ...interface{}) {
			fmt.Fprintf(w, outputPrefix+format+"\n", args...)
		}

		protest = func(format string, args ...interface{}) {
			say("error: "+format, args...)
		}

		name string
		s    *crew.Session
		runs int
	)

	current := func() bool {
		if s == nil {
			protest("no world (try 'use NAME')")
			return false
		}
		return true
	}

	persist := func() {
		if err := store.Save(ctx, name, s.Current()); err != nil {
			protest("%s", err)
			return
		}
		say("saved %s", name)
	}

	r := bufio.NewReader(in)
	for {
		line, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF
		line = strings.TrimSpace(line)

		if opts.echo && line != "" {
			fmt.Fprintln(w, line)
		}

		var ss []string

		switch {
		case line == "", strings.HasPrefix(line, "#"), strings.HasPrefix(line, ";"):

		case help.MatchString(line):
			for _, s := range strings.Split(doc(), "\n") {
				say("%s", s)
			}

		case list.MatchString(line):
			names, err := store.List(ctx)
			if err != nil {
				protest("%s", err)
				break
			}
			for _, n := range names {
				say("%s", n)
			}

		case use.MatchString(line):
			ss = use.FindStringSubmatch(line)
			wd, err := store.Load(ctx, ss[1])
			switch {
			case err == nil:
				say("loaded %s", ss[1])
			case errors.Is(err, storage.ErrNotFound):
				if wd, err = e.Conf.NewWorld(); err != nil {
					protest("%s", err)
					continue
				}
				say("new world %s", ss[1])
			default:
				protest("%s", err)
				continue
			}
			if s, err = crew.NewSession(e, wd); err != nil {
				return err
			}
			name = ss[1]

		case print.MatchString(line):
			if !current() {
				break
			}
			ss = print.FindStringSubmatch(line)
			var v value.Value = s.Current().Root()
			if ss[3] != "" {
				x, have := s.Current().Get(core.ParsePath(ss[3]))
				if !have {
					protest("nothing at %s", ss[3])
					break
				}
				v = x
			}
			x := value.ToInterface(v)
			var bs []byte
			if ss[1] == "yaml" {
				bs, err = yaml.Marshal(&x)
			} else {
				bs, err = json.Marshal(&x)
			}
			if err != nil {
				protest("%s", err)
				break
			}
			say("%s", strings.TrimSpace(string(bs)))

		case set.MatchString(line):
			if !current() {
				break
			}
			ss = set.FindStringSubmatch(line)
			var x interface{}
			if err := json.Unmarshal([]byte(ss[2]), &x); err != nil {
				protest("bad JSON %s: %s", ss[2], err)
				break
			}
			v, err := value.FromInterface(x)
			if err != nil {
				protest("%s", err)
				break
			}
			s.Restore(s.Current().Set(core.ParsePath(ss[1]), v))

		case del.MatchString(line):
			if !current() {
				break
			}
			ss = del.FindStringSubmatch(line)
			s.Restore(s.Current().Del(core.ParsePath(ss[1])))

		case run.MatchString(line):
			if !current() {
				break
			}
			ss = run.FindStringSubmatch(line)
			runs++
			res := s.Process(ctx, fmt.Sprintf("run%d", runs), ss[1])
			for _, text := range res.Output {
				say("out %s", text)
			}
			if res.Error != nil {
				for _, l := range strings.Split(strings.TrimRight(res.Diag, "\n"), "\n") {
					say("%s", l)
				}
				break
			}
			say("%s", value.Repr(res.Value))
			if opts.autoSave {
				persist()
			}

		case save.MatchString(line):
			if current() {
				persist()
			}

		case drop.MatchString(line):
			ss = drop.FindStringSubmatch(line)
			if err := store.Delete(ctx, ss[1]); err != nil {
				protest("%s", err)
				break
			}
			say("dropped %s", ss[1])

		case load.MatchString(line):
			if !current() {
				break
			}
			ss = load.FindStringSubmatch(line)
			bs, err := ioutil.ReadFile(ss[1])
			if err != nil {
				protest("%s", err)
				break
			}
			wd, err := storage.Decode(bs)
			if err != nil {
				protest("%s", err)
				break
			}
			s.Restore(wd)
			say("loaded %s from %s", name, ss[1])

		case dump.MatchString(line):
			if !current() {
				break
			}
			ss = dump.FindStringSubmatch(line)
			bs, err := storage.Encode(s.Current())
			if err != nil {
				protest("%s", err)
				break
			}
			if err = ioutil.WriteFile(ss[1], bs, 0644); err != nil {
				protest("%s", err)
				break
			}
			say("wrote %s", ss[1])

		default:
			protest("unknown command '%s'", line)
		}

		if eof {
			return nil
		}
	}
}

func doc() string {
	return `
  use NAME             Load the stored world with that name (or make a new one)
  list                 List the stored worlds
  print [PATH]         Print the world (or the value at PATH) as JSON
  yaml [PATH]          Print the world (or the value at PATH) as YAML
  set PATH JSON        Set the value at PATH
  del PATH             Delete the value at PATH
  run SOURCE           Run the source against the world
  save                 Store the world
  drop NAME            Delete the stored world with that name
  load FILENAME        Replace the world with the one in this JSON file
  dump FILENAME        Write the world to this JSON file
  help                 Show this documentation
`
}
