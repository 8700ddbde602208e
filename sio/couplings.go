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


// Package sio couples a session to the outside world.
//
// Couplings provide a channel of programs to run and a channel for
// their results.  A Runner reads programs, processes them with a
// crew.Session, and writes Responses.
package sio

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Comcast/sutra/crew"
	"github.com/Comcast/sutra/world"
)

// Couplings provide channels for program input, results output, and
// an initial World.
//
// For example, an implementation could couple a session to an MQTT
// broker.
type Couplings interface {
	// Start initializes the Couplings.
	Start(context.Context) error

	// IO returns the input and result channels and a channel
	// that's closed when input is exhausted.
	IO(context.Context) (chan *Request, chan *Response, chan bool, error)

	// Read (optionally) returns an initial World.  A nil World
	// means the Couplings have no opinion.
	Read(context.Context) (*world.World, error)

	// Stop shuts down the Couplings.
	Stop(context.Context) error
}

// Request is a program to run.
type Request struct {
	// Name is the origin reported in diagnostics.
	Name string `json:"name,omitempty"`

	Source string `json:"source"`

	// ReplyTo is an optional destination (an MQTT topic, for
	// example) for the Response.
	ReplyTo string `json:"replyTo,omitempty"`
}

// Response is the result of a Request.
type Response struct {
	Request *Request `json:"-"`
	*crew.Result
}

// ParseRequest reads a Request from a JSON object.  Anything other
// than a JSON object is taken as source text.
func ParseRequest(name string, bs []byte) (*Request, error) {
	s := strings.TrimSpace(string(bs))
	if !strings.HasPrefix(s, "{") {
		return &Request{
			Name:   name,
			Source: string(bs),
		}, nil
	}
	var r Request
	if err := json.Unmarshal(bs, &r); err != nil {
		return nil, err
	}
	if r.Name == "" {
		r.Name = name
	}
	return &r, nil
}
