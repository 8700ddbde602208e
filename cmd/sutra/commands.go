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


package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/Comcast/sutra/crew"
	"github.com/Comcast/sutra/diag"
	"github.com/Comcast/sutra/pipeline"
	"github.com/Comcast/sutra/sio"
	"github.com/Comcast/sutra/storage"
	"github.com/Comcast/sutra/tools"
	"github.com/Comcast/sutra/tools/expect"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

func runCmd(ctx context.Context, args []string) error {
	var (
		o  Opts
		fs = flag.NewFlagSet("run", flag.ExitOnError)

		worldIn    = fs.String("world", "", "optional JSON file with the initial world")
		worldOut   = fs.String("world-out", "", "optional file for the final world")
		printValue = fs.Bool("p", true, "print the value of the last form")
		asJSON     = fs.Bool("json", false, "print the result as JSON")
	)
	o.flags(fs)
	fs.Parse(args)

	e, err := o.Engine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	name, src, err := source(fs.Args())
	if err != nil {
		return err
	}

	var w *world.World
	if *worldIn != "" {
		bs, err := ioutil.ReadFile(*worldIn)
		if err != nil {
			return err
		}
		if w, err = storage.Decode(bs); err != nil {
			return err
		}
	}

	s, err := crew.NewSession(e, w)
	if err != nil {
		return err
	}
	s.Renderer = &diag.Renderer{Color: !color.NoColor}

	r := s.Process(ctx, name, src)

	if *asJSON {
		js, err := json.Marshal(r)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", js)
	} else {
		fmt.Print(strings.Join(r.Output, ""))
	}

	if r.Error != nil {
		if !*asJSON {
			fmt.Fprint(os.Stderr, r.Diag)
		}
		return &sourceError{r.Error}
	}

	if *printValue && !*asJSON {
		fmt.Println(value.Repr(r.Value))
	}

	if *worldOut != "" {
		bs, err := storage.Encode(s.Current())
		if err != nil {
			return err
		}
		if err = ioutil.WriteFile(*worldOut, bs, 0644); err != nil {
			return err
		}
	}
	return nil
}

// compile is the common part of the commands that don't evaluate.
func compile(ctx context.Context, cmd string, args []string, more func(fs *flag.FlagSet)) (*pipeline.Engine, *pipeline.Program, *flag.FlagSet, error) {
	var (
		o  Opts
		fs = flag.NewFlagSet(cmd, flag.ExitOnError)
	)
	o.flags(fs)
	if more != nil {
		more(fs)
	}
	fs.Parse(args)

	e, err := o.Engine(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	name, src, err := source(fs.Args())
	if err != nil {
		e.Close()
		return nil, nil, nil, err
	}

	p, err := e.Compile(name, src)
	if err != nil {
		e.Close()
		return nil, nil, nil, report(err, src)
	}
	return e, p, fs, nil
}

func expandCmd(ctx context.Context, args []string) error {
	var original bool
	e, p, _, err := compile(ctx, "expand", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&original, "o", false, "also print each form before expansion")
	})
	if err != nil {
		return err
	}
	defer e.Close()

	for i, x := range p.Forms {
		if original {
			fmt.Printf("; %s\n", p.Original[i])
		}
		fmt.Println(x)
	}
	return nil
}

func checkCmd(ctx context.Context, args []string) error {
	e, p, _, err := compile(ctx, "check", args, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	fmt.Printf("%s: %d forms ok", p.Name, len(p.Forms))
	if 0 < len(p.Defined) {
		fmt.Printf(", defines %s", strings.Join(p.Defined, " "))
	}
	fmt.Println()
	return nil
}

func analyzeCmd(ctx context.Context, args []string) error {
	e, p, _, err := compile(ctx, "analyze", args, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := tools.Analyze(p.Forms, e.Atoms)
	if err != nil {
		return err
	}
	js, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", js)
	return nil
}

func dotCmd(ctx context.Context, args []string) error {
	var png string
	e, p, _, err := compile(ctx, "dot", args, func(fs *flag.FlagSet) {
		fs.StringVar(&png, "png", "", "basename for .dot and .png files (requires Graphviz)")
	})
	if err != nil {
		return err
	}
	defer e.Close()

	if png != "" {
		filename, err := tools.PNG(p.Forms, e.Atoms, png)
		if err != nil {
			return err
		}
		fmt.Println(filename)
		return nil
	}
	return tools.Dot(p.Forms, e.Atoms, nopCloser{os.Stdout})
}

// nopCloser keeps the renderers from closing stdout.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error {
	return nil
}

func mermaidCmd(ctx context.Context, args []string) error {
	opts := &tools.MermaidOpts{}
	e, p, _, err := compile(ctx, "mermaid", args, func(fs *flag.FlagSet) {
		fs.BoolVar(&opts.ShowIndexes, "i", true, "label edges with argument indexes")
	})
	if err != nil {
		return err
	}
	defer e.Close()

	return tools.Mermaid(p.Forms, e.Atoms, nopCloser{os.Stdout}, opts)
}

func docCmd(ctx context.Context, args []string) error {
	var (
		o  Opts
		fs = flag.NewFlagSet("doc", flag.ExitOnError)

		html  = fs.Bool("html", false, "render an HTML page")
		title = fs.String("title", "Atoms and macros", "HTML page title")
		css   = fs.String("css", "", "comma-separated CSS files for the HTML page")
		names = fs.String("names", "", "comma-separated names to include (default all)")
	)
	o.flags(fs)
	fs.Parse(args)

	e, err := o.Engine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	es := tools.Catalog(e.Atoms, e.Macros)
	if *names != "" {
		want := make(map[string]bool)
		for _, name := range strings.Split(*names, ",") {
			want[strings.TrimSpace(name)] = true
		}
		acc := es[:0]
		for _, entry := range es {
			if want[entry.Name] {
				acc = append(acc, entry)
			}
		}
		es = acc
	}

	if *html {
		var cssFiles []string
		if *css != "" {
			cssFiles = strings.Split(*css, ",")
		}
		return tools.RenderCatalogPage(*title, es, os.Stdout, cssFiles)
	}
	tools.RenderCatalogText(es, os.Stdout)
	return nil
}

func testCmd(ctx context.Context, args []string) error {
	var (
		o  Opts
		fs = flag.NewFlagSet("test", flag.ExitOnError)

		asJSON = fs.Bool("json", false, "print reports as JSON")
	)
	o.flags(fs)
	fs.Parse(args)

	e, err := o.Engine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if fs.NArg() == 0 {
		return fmt.Errorf("need at least one YAML test file")
	}

	var (
		ok   = color.New(color.FgGreen).SprintFunc()
		bad  = color.New(color.FgHiRed, color.Bold).SprintFunc()
		fail = false
	)

	for _, filename := range fs.Args() {
		s, err := expect.Load(filename)
		if err != nil {
			return err
		}
		s.Verbose = s.Verbose || o.Verbose
		rs, err := s.Run(ctx, e)
		if err != nil {
			return err
		}
		if !expect.Passed(rs) {
			fail = true
		}
		if *asJSON {
			js, err := json.Marshal(rs)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", js)
			continue
		}
		for _, r := range rs {
			if r.Passed {
				fmt.Printf("%s %s %s (%s)\n", ok("PASS"), filename, r.Name, r.Elapsed)
				continue
			}
			fmt.Printf("%s %s %s\n", bad("FAIL"), filename, r.Name)
			for _, problem := range r.Problems {
				fmt.Printf("    %s\n", problem)
			}
		}
	}

	if fail {
		return &sourceError{fmt.Errorf("test failures")}
	}
	return nil
}

func replCmd(ctx context.Context, args []string) error {
	var (
		o  Opts
		fs = flag.NewFlagSet("repl", flag.ExitOnError)

		std       = sio.NewStdio(false)
		worldDir  = fs.String("world-dir", "", "optional directory for the world, read at start and written after each success")
	)
	o.flags(fs)
	fs.BoolVar(&std.EchoInput, "echo", false, "echo input")
	fs.BoolVar(&std.ShellExpand, "sh", false, "shell-expand input")
	fs.BoolVar(&std.Tags, "tags", true, "tag output lines")
	fs.BoolVar(&std.JSON, "json", false, "write results as JSON")
	fs.BoolVar(&std.PrintDiag, "diag", true, "print rendered diagnostics")
	fs.Parse(args)

	e, err := o.Engine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	s, err := crew.NewSession(e, nil)
	if err != nil {
		return err
	}
	s.Renderer = &diag.Renderer{Color: !color.NoColor && !std.JSON}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var store storage.Storage
	if *worldDir != "" {
		js := storage.NewJSONStore(*worldDir)
		js.Indent = true
		if err := js.Open(ctx); err != nil {
			return err
		}
		store = js
	}

	if err := std.Start(ctx); err != nil {
		return err
	}
	r, err := sio.NewRunner(ctx, s, std, store, "repl")
	if err != nil {
		return err
	}
	r.HaltOnInputEOF = true

	if err := r.Loop(ctx); err != nil {
		return err
	}
	cancel()
	return std.Stop(context.Background())
}
