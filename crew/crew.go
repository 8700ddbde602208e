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


// Package crew manages sessions, each of which has a World that
// programs are run against.
package crew

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/pipeline"
	"github.com/Comcast/sutra/value"
	"github.com/Comcast/sutra/world"
)

var (
	// ErrNoSuchSession is returned for an unknown session id.
	ErrNoSuchSession = errors.New("no such session")

	// ErrSessionExists is returned when adding a session with an
	// id that's already in use.
	ErrSessionExists = errors.New("session already exists")
)

// Crew is a set of sessions that share an Engine.
type Crew struct {
	sync.RWMutex

	Id       string              `json:"id"`
	Engine   *pipeline.Engine    `json:"-"`
	Sessions map[string]*Session `json:"sessions"`
}

// NewCrew makes an empty Crew.
func NewCrew(id string, e *pipeline.Engine) *Crew {
	return &Crew{
		Id:       id,
		Engine:   e,
		Sessions: make(map[string]*Session),
	}
}

// Open makes a new session.  A nil World means the Engine's
// configured World.
func (c *Crew) Open(w *world.World) (*Session, error) {
	s, err := NewSession(c.Engine, w)
	if err != nil {
		return nil, err
	}
	c.Lock()
	c.Sessions[s.Id] = s
	c.Unlock()
	return s, nil
}

// Add adds an existing session, which will use the Crew's Engine.
func (c *Crew) Add(id string, w *world.World) (*Session, error) {
	c.Lock()
	defer c.Unlock()
	if _, have := c.Sessions[id]; have {
		return nil, ErrSessionExists
	}
	s := &Session{
		Id:     id,
		Engine: c.Engine,
		World:  w,
	}
	c.Sessions[id] = s
	return s, nil
}

// Get finds a session.
func (c *Crew) Get(id string) (*Session, error) {
	c.RLock()
	s, have := c.Sessions[id]
	c.RUnlock()
	if !have {
		return nil, ErrNoSuchSession
	}
	return s, nil
}

// Remove removes a session.
func (c *Crew) Remove(id string) error {
	c.Lock()
	defer c.Unlock()
	if _, have := c.Sessions[id]; !have {
		return ErrNoSuchSession
	}
	delete(c.Sessions, id)
	return nil
}

// Ids returns the session ids in order.
func (c *Crew) Ids() []string {
	c.RLock()
	acc := make([]string, 0, len(c.Sessions))
	for id := range c.Sessions {
		acc = append(acc, id)
	}
	c.RUnlock()
	sort.Strings(acc)
	return acc
}

// Worlds returns the current World of every session.
func (c *Crew) Worlds() map[string]*world.World {
	c.RLock()
	acc := make(map[string]*world.World, len(c.Sessions))
	for id, s := range c.Sessions {
		acc[id] = s.Current()
	}
	c.RUnlock()
	return acc
}

// Copy gets a read lock and returns a copy of the crew.
func (c *Crew) Copy() *Crew {
	c.RLock()
	ss := make(map[string]*Session, len(c.Sessions))
	for id, s := range c.Sessions {
		ss[id] = s.Copy()
	}
	acc := &Crew{
		Id:       c.Id,
		Engine:   c.Engine,
		Sessions: ss,
	}
	c.RUnlock()
	return acc
}

type resultJSON struct {
	Session string      `json:"session"`
	Value   interface{} `json:"value,omitempty"`
	Output  []string    `json:"output,omitempty"`
	Error   *errorJSON  `json:"error,omitempty"`
	Diag    string      `json:"diag,omitempty"`
}

type errorJSON struct {
	Kind core.Kind `json:"kind"`
	Code core.Code `json:"code"`
	Msg  string    `json:"msg"`
}

func marshalResult(r *Result) ([]byte, error) {
	acc := &resultJSON{
		Session: r.Session,
		Output:  r.Output,
		Diag:    r.Diag,
	}
	if r.Value != nil {
		acc.Value = value.ToInterface(r.Value)
	}
	if r.Error != nil {
		if e, is := core.AsError(r.Error); is {
			acc.Error = &errorJSON{
				Kind: e.Kind,
				Code: e.Code,
				Msg:  e.Msg,
			}
		} else {
			acc.Error = &errorJSON{
				Msg: r.Error.Error(),
			}
		}
	}
	return json.Marshal(acc)
}
