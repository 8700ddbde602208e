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


// Package storage defines how Worlds are persisted.
//
// A stored World is its JSON representation (see world.World's
// MarshalJSON), which includes the generator state, so a loaded World
// continues its random sequence where it left off.
package storage

import (
	"context"
	"errors"

	"github.com/Comcast/sutra/world"
)

// ErrNotFound is returned by Load and Delete for an unknown name.
var ErrNotFound = errors.New("world not found")

// Storage is a persistence interface for named Worlds.
type Storage interface {
	Open(ctx context.Context) error

	Close(ctx context.Context) error

	// Save writes (or overwrites) the World with the given name.
	Save(ctx context.Context, name string, w *world.World) error

	Load(ctx context.Context, name string) (*world.World, error)

	Delete(ctx context.Context, name string) error

	// List returns the names of the stored Worlds in order.
	List(ctx context.Context) ([]string, error)
}

// Encode renders a World for storage.
func Encode(w *world.World) ([]byte, error) {
	return w.MarshalJSON()
}

// Decode is the inverse of Encode.
func Decode(bs []byte) (*world.World, error) {
	w := world.New()
	if err := w.UnmarshalJSON(bs); err != nil {
		return nil, err
	}
	return w, nil
}
