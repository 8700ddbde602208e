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


package sio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/storage"
	"github.com/Comcast/sutra/syntax"
	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

// Stdio is a fairly simple Couplings that uses stdin for input and
// stdout for output.
//
// Input is source text.  A program can span lines: lines accumulate
// until they form complete expressions.  A line that's a JSON object
// is a Request.
type Stdio struct {
	// In is coupled to session input.
	In io.Reader

	// Out is coupled to session output.
	Out io.Writer

	// ShellExpand enables input to include inline shell commands
	// delimited by '<<' and '>>'.  Use at your own risk, of
	// course!
	ShellExpand bool

	// Timestamps prepends a timestamp to each output line.
	Timestamps bool

	// EchoInput writes input lines (prepended with "input") to
	// the output.
	EchoInput bool

	// Tags prefixes tags indicating type of output ("input",
	// "out", "value", "error").
	Tags bool

	// PadTags adds some padding to tags.
	PadTags bool

	// JSON writes each Response as a line of JSON instead.
	JSON bool

	// PrintDiag prints rendered diagnostics for errors.  Otherwise
	// just the error message is printed.
	PrintDiag bool

	// StateInputFilename optionally names a file with a World (as
	// JSON) that Read returns.
	StateInputFilename string

	// InputEOF will be closed on EOF from stdin.
	InputEOF chan bool

	WG sync.WaitGroup

	n int
}

// NewStdio creates a new Stdio.
//
// In and Out are initialized with os.Stdin and os.Stdout
// respectively.
func NewStdio(shellExpand bool) *Stdio {
	return &Stdio{
		In:          os.Stdin,
		Out:         os.Stdout,
		ShellExpand: shellExpand,
		Tags:        true,
		InputEOF:    make(chan bool),
	}
}

// Start does nothing.
func (s *Stdio) Start(ctx context.Context) error {
	return nil
}

// Stop waits until IO is complete or was terminated via its context.
func (s *Stdio) Stop(ctx context.Context) error {
	s.WG.Wait()
	return nil
}

// Read reads s.StateInputFilename if given.
func (s *Stdio) Read(ctx context.Context) (*world.World, error) {
	if s.StateInputFilename == "" {
		return nil, nil
	}
	js, err := ioutil.ReadFile(s.StateInputFilename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", s.StateInputFilename)
	}
	w, err := storage.Decode(js)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", s.StateInputFilename)
	}
	return w, nil
}

func (s *Stdio) printf(tag, format string, args ...interface{}) {
	if s.PadTags {
		tag = fmt.Sprintf("% 6s", tag)
	}
	if s.Tags {
		format = tag + " " + format
	}
	if s.Timestamps {
		ts := fmt.Sprintf("%-31s", time.Now().UTC().Format(time.RFC3339Nano))
		format = ts + " " + format
	}
	fmt.Fprintf(s.Out, format, args...)
}

// complete reports whether src has no unfinished forms and whether
// it has any forms at all.
func complete(src string) (done bool, empty bool) {
	xs, err := syntax.ParseAll("input", src)
	if e, is := core.AsError(err); is && e.Code == core.UnexpectedEOF {
		return false, false
	}
	return true, err == nil && len(xs) == 0
}

func (s *Stdio) name() string {
	s.n++
	return fmt.Sprintf("input%d", s.n)
}

// IO returns channels for reading from stdin and writing to stdout.
func (s *Stdio) IO(ctx context.Context) (chan *Request, chan *Response, chan bool, error) {
	in := make(chan *Request)
	done := make(chan bool)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		defer close(done)
		if s.InputEOF != nil {
			defer close(s.InputEOF)
		}

		send := func(r *Request) bool {
			select {
			case <-ctx.Done():
				return false
			case in <- r:
				return true
			}
		}

		var pending string
		stdin := bufio.NewReader(s.In)
		for {
			line, err := stdin.ReadString('\n')
			if err != nil && err != io.EOF {
				util.Error("stdin", "err", err)
				return
			}
			eof := err == io.EOF
			if !eof && pending == "" && strings.TrimSpace(line) == "quit" {
				return
			}
			if s.EchoInput && line != "" {
				s.printf("input", "%s", line)
			}
			if s.ShellExpand {
				if line, err = ShellExpand(line); err != nil {
					util.Error("stdin", "err", err)
					return
				}
			}

			trimmed := strings.TrimSpace(line)
			switch {
			case pending == "" && strings.HasPrefix(trimmed, "{"):
				r, err := ParseRequest(s.name(), []byte(line))
				if err != nil {
					fmt.Fprintf(os.Stderr, "bad input: %s\n", err)
				} else if !send(r) {
					return
				}
			default:
				pending += line
				done, empty := complete(pending)
				if empty {
					pending = ""
					break
				}
				// Incomplete input waits for more, unless
				// there won't be any more.
				if done || eof {
					if !send(&Request{Name: s.name(), Source: pending}) {
						return
					}
					pending = ""
				}
			}
			if eof {
				return
			}
		}
	}()

	out := make(chan *Response)

	s.WG.Add(1)
	go func() {
		defer s.WG.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-out:
				if r == nil {
					return
				}
				s.write(r)
			}
		}
	}()

	return in, out, done, nil
}

func (s *Stdio) write(r *Response) {
	if s.JSON {
		fmt.Fprintf(s.Out, "%s\n", JS(r))
		return
	}
	for _, text := range r.Output {
		s.printf("out", "%s", text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(s.Out)
		}
	}
	if r.Error != nil {
		if s.PrintDiag && r.Diag != "" {
			s.printf("error", "%s", r.Diag)
		} else {
			s.printf("error", "%s\n", r.Error)
		}
		return
	}
	s.printf("value", "%s\n", value.Repr(r.Value))
}
