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


// Package main is a command-line tool for running, expanding,
// checking, testing, and drawing programs.
//
//   sutra run prog.sutra
//   sutra expand prog.sutra
//   sutra test cases.yaml
//   sutra dot -png prog prog.sutra
//
// Run "sutra help" for the list of commands.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"sort"

	"github.com/Comcast/sutra/diag"
	"github.com/Comcast/sutra/pipeline"
	"github.com/Comcast/sutra/tools"
	"github.com/Comcast/sutra/util"
)

// Command is a subcommand.
type Command struct {
	Doc string
	Run func(ctx context.Context, args []string) error
}

// Commands are the subcommands by name.
var Commands = map[string]*Command{
	"run":     {"evaluate programs", runCmd},
	"expand":  {"print the expanded forms", expandCmd},
	"check":   {"parse, expand, and validate without evaluating", checkCmd},
	"test":    {"run YAML test cases", testCmd},
	"doc":     {"print the atom and macro catalog", docCmd},
	"dot":     {"render expanded forms with Graphviz", dotCmd},
	"mermaid": {"render expanded forms as a Mermaid flowchart", mermaidCmd},
	"analyze": {"summarize expanded forms", analyzeCmd},
	"repl":    {"read and evaluate forms from stdin", replCmd},
}

func Usage() {
	fmt.Fprintf(os.Stderr, "usage: sutra COMMAND [flags] [FILE ...]\n\n")
	names := make([]string, 0, len(Commands))
	for name := range Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", name, Commands[name].Doc)
	}
	fmt.Fprintf(os.Stderr, "\nUse \"sutra COMMAND -h\" for a command's flags.\n")
}

func main() {
	if len(os.Args) < 2 {
		Usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "help", "-h", "-help", "--help":
		Usage()
		return
	}

	cmd, have := Commands[os.Args[1]]
	if !have {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cmd.Run(ctx, os.Args[2:]); err != nil {
		if _, is := err.(*sourceError); !is {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Opts are the flags every command accepts.
type Opts struct {
	ConfFilename string
	Seed         string
	Verbose      bool
	NoValidate   bool
}

func (o *Opts) flags(fs *flag.FlagSet) {
	fs.StringVar(&o.ConfFilename, "conf", "", "optional YAML configuration file")
	fs.StringVar(&o.Seed, "seed", "", "hex PRNG seed for new worlds (overrides -conf)")
	fs.BoolVar(&o.Verbose, "v", false, "verbose")
	fs.BoolVar(&o.NoValidate, "no-validate", false, "skip validation before evaluation")
}

// Engine makes an Engine according to the flags.
func (o *Opts) Engine(ctx context.Context) (*pipeline.Engine, error) {
	util.SetVerbose(o.Verbose)

	conf := pipeline.DefaultConf()
	if o.ConfFilename != "" {
		var err error
		if conf, err = pipeline.LoadConf(o.ConfFilename); err != nil {
			return nil, err
		}
	}
	if o.Seed != "" {
		conf.Seed = o.Seed
		if _, _, err := conf.ParseSeed(); err != nil {
			return nil, err
		}
	}
	if o.NoValidate {
		conf.Validate = false
	}
	return pipeline.Standard(ctx, conf)
}

// sourceError is an error that has already been rendered.
type sourceError struct {
	err error
}

func (e *sourceError) Error() string {
	return e.err.Error()
}

// report renders err against the source and returns an error for
// main to exit with.
func report(err error, src string) error {
	fmt.Fprint(os.Stderr, diag.Render(err, src))
	return &sourceError{err}
}

// source reads the program: the concatenation of the files (with
// includes resolved) or stdin if there are no files.
func source(filenames []string) (string, string, error) {
	if len(filenames) == 0 {
		bs, err := ioutil.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return "stdin", string(bs), nil
	}
	var acc []byte
	for i, filename := range filenames {
		bs, err := tools.ReadFileWithIncludes(filename)
		if err != nil {
			return "", "", err
		}
		if 0 < i {
			acc = append(acc, '\n')
		}
		acc = append(acc, bs...)
	}
	name := filenames[0]
	if 1 < len(filenames) {
		name = fmt.Sprintf("%s (+%d)", name, len(filenames)-1)
	}
	return name, string(acc), nil
}
