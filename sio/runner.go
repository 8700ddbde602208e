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
	"context"

	"github.com/pkg/errors"

	"github.com/Comcast/sutra/crew"
	"github.com/Comcast/sutra/storage"
	"github.com/Comcast/sutra/util"
)

// Runner processes Requests from Couplings with a Session.
type Runner struct {
	Session *crew.Session

	// Store, if not nil, gets the Session's World (under
	// WorldName) after every successful Request.
	Store     storage.Storage
	WorldName string

	// HaltOnInputEOF stops the loop when the Couplings report that
	// their input is exhausted.
	HaltOnInputEOF bool

	// Timers, if not nil, will send their Requests to the Runner's
	// input.
	Timers *Timers

	in   chan *Request
	out  chan *Response
	done chan bool
}

// NewRunner gets the channels from the Couplings and initializes the
// Session's World: from the Store if it has one, else from the
// Couplings' Read.
func NewRunner(ctx context.Context, s *crew.Session, c Couplings, store storage.Storage, worldName string) (*Runner, error) {
	in, out, done, err := c.IO(ctx)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		Session:   s,
		Store:     store,
		WorldName: worldName,
		in:        in,
		out:       out,
		done:      done,
	}

	w, err := c.Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "couplings read")
	}
	if w != nil {
		s.Restore(w)
	}

	if store != nil {
		w, err := store.Load(ctx, worldName)
		switch {
		case err == nil:
			util.Debug("restored world", "name", worldName)
			s.Restore(w)
		case errors.Is(err, storage.ErrNotFound):
		default:
			return nil, errors.Wrapf(err, "loading %s", worldName)
		}
	}

	return r, nil
}

// Inject queues a Request as if it came from the Couplings.
func (r *Runner) Inject(ctx context.Context, req *Request) {
	select {
	case <-ctx.Done():
	case r.in <- req:
	}
}

// Process runs one Request and persists the World on success.
func (r *Runner) Process(ctx context.Context, req *Request) (*Response, error) {
	name := req.Name
	if name == "" {
		name = "input"
	}
	res := r.Session.Process(ctx, name, req.Source)
	if res.Error == nil && r.Store != nil {
		if err := r.Store.Save(ctx, r.WorldName, r.Session.Current()); err != nil {
			return nil, errors.Wrapf(err, "saving %s", r.WorldName)
		}
	}
	return &Response{
		Request: req,
		Result:  res,
	}, nil
}

// Loop starts the input processing loop in the current goroutine.
//
// The loop ends when the context is done, a nil Request arrives, or
// (if HaltOnInputEOF) the Couplings' input is exhausted.
func (r *Runner) Loop(ctx context.Context) error {
	util.Debug("Runner.Loop starting", "session", r.Session.Id)
	if r.Timers != nil {
		r.Timers.Emitter = r.Inject
		if err := r.Timers.Start(ctx); err != nil {
			return err
		}
	}
	done := r.done
LOOP:
	for {
		select {
		case <-done:
			if r.HaltOnInputEOF {
				util.Debug("Runner.Loop shutting down (done)")
				break LOOP
			}
			// A closed channel would spin.
			done = nil
		case <-ctx.Done():
			util.Debug("Runner.Loop shutting down (ctx.Done)")
			break LOOP
		case req := <-r.in:
			if req == nil {
				break LOOP
			}
			res, err := r.Process(ctx, req)
			if err != nil {
				util.Error("Runner.Loop", "err", err)
				return err
			}
			select {
			case <-ctx.Done():
			case r.out <- res:
			}
		}
	}
	util.Debug("Runner.Loop done")
	return nil
}
