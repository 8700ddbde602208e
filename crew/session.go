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


package crew

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/diag"
	"github.com/Comcast/sutra/pipeline"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

// <world,program> → <evaluation> → <world,output>
//
// A Session only advances to the new World when the whole program
// succeeds.

// Session is a World that programs are run against.
type Session struct {
	sync.Mutex

	Id string `json:"id"`

	// Engine compiles and runs programs.
	Engine *pipeline.Engine `json:"-"`

	World *world.World `json:"world"`

	// Processed counts successful programs.
	Processed int `json:"processed"`

	// Renderer, if not nil, is used to render diagnostics.
	Renderer *diag.Renderer `json:"-"`
}

// NewSession makes a Session with a fresh id.  A nil World means the
// Engine's configured World.
func NewSession(e *pipeline.Engine, w *world.World) (*Session, error) {
	if w == nil {
		var err error
		if w, err = e.Conf.NewWorld(); err != nil {
			return nil, err
		}
	}
	return &Session{
		Id:     uuid.New().String(),
		Engine: e,
		World:  w,
	}, nil
}

// Result is what Process reports.
type Result struct {
	// Session is the id of the session.
	Session string `json:"session"`

	Value value.Value `json:"-"`

	// Output is the text emitted by the program, even when the
	// program failed.
	Output []string `json:"output,omitempty"`

	Error error `json:"-"`

	// Diag is the rendered Error.
	Diag string `json:"diag,omitempty"`
}

// MarshalJSON renders Value and Error as generic data.
func (r *Result) MarshalJSON() ([]byte, error) {
	return marshalResult(r)
}

// Process compiles and runs the source against the Session's World.
//
// An error from compiling or running is reported in the Result, not
// returned.  The Session's World is replaced only on success.
func (s *Session) Process(ctx context.Context, name, src string) *Result {
	s.Lock()
	defer s.Unlock()

	out := core.NewBuffer()
	r := &Result{
		Session: s.Id,
	}
	v, w, err := s.Engine.Exec(ctx, name, src, s.World, out)
	r.Output = out.Texts()
	if err != nil {
		r.Error = err
		r.Diag = s.render(err, src)
		return r
	}
	s.World = w
	s.Processed++
	r.Value = v
	return r
}

func (s *Session) render(err error, src string) string {
	if s.Renderer != nil {
		return s.Renderer.Render(err, src)
	}
	return (&diag.Renderer{}).Render(err, src)
}

// Current returns the Session's World.
func (s *Session) Current() *world.World {
	s.Lock()
	w := s.World
	s.Unlock()
	return w
}

// Restore replaces the Session's World.
func (s *Session) Restore(w *world.World) {
	s.Lock()
	s.World = w
	s.Unlock()
}

// Copy returns a new Session with the same id, Engine, and World.
// Worlds are immutable, so nothing is deep-copied.
func (s *Session) Copy() *Session {
	s.Lock()
	defer s.Unlock()
	return &Session{
		Id:        s.Id,
		Engine:    s.Engine,
		World:     s.World,
		Processed: s.Processed,
		Renderer:  s.Renderer,
	}
}
