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

// Package world is the persistent, path-addressed state store.
//
// A World is an immutable snapshot: a Map tree plus the state of a
// pseudo-random generator.  Set and Del copy only the maps on the
// path from the root to the change, and everything else is shared
// with the original World.
//
// Randomness is threaded just like state.  NextRandom doesn't advance
// anything in place.  Instead it returns the number and a new World
// whose generator has advanced.  Drawing twice from the same World
// gives the same number twice.
package world

import (
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/Comcast/sutra/core"
	"github.com/Comcast/sutra/value"
)

// SeedSize is the size of a PRNG seed.
const SeedSize = 32

// Seed is a fixed PRNG seed.
type Seed [SeedSize]byte

// World is a persistent state snapshot.
//
// The zero value isn't useful.  Use New or NewSeeded.
type World struct {
	root value.Map

	// rng is the marshaled state of a ChaCha8 generator.
	rng []byte
}

// New makes an empty World with an entropy-seeded generator.
func New() *World {
	var seed Seed
	if _, err := crand.Read(seed[:]); err != nil {
		panic(fmt.Errorf("world: entropy: %w", err))
	}
	return NewSeeded(seed)
}

// NewSeeded makes an empty World with a reproducible generator.
func NewSeeded(seed Seed) *World {
	bs, err := rand.NewChaCha8(seed).MarshalBinary()
	if err != nil {
		panic(fmt.Errorf("world: marshal generator: %w", err))
	}
	return &World{
		root: value.Map{},
		rng:  bs,
	}
}

// SeedFromString makes a Seed from arbitrary text.  Short strings are
// zero-padded and long ones truncated.
func SeedFromString(s string) Seed {
	var seed Seed
	copy(seed[:], s)
	return seed
}

// WithRoot returns a World with the same generator and the given
// state.
func (w *World) WithRoot(m value.Map) *World {
	if m == nil {
		m = value.Map{}
	}
	return &World{root: m, rng: w.rng}
}

// Root returns the root Map.  Don't modify it.
func (w *World) Root() value.Map {
	return w.root
}

// Get finds the value at the path.  A missing segment at any depth
// is just "not found".  The empty path gives the root.
func (w *World) Get(p core.Path) (value.Value, bool) {
	var at value.Value = w.root
	for _, seg := range p {
		m, is := at.(value.Map)
		if !is {
			return nil, false
		}
		v, have := m[seg]
		if !have {
			return nil, false
		}
		at = v
	}
	return at, true
}

// Exists reports whether Get would find something.
func (w *World) Exists(p core.Path) bool {
	_, have := w.Get(p)
	return have
}

// Set returns a new World with v at the path.
//
// Intermediate segments that aren't Maps are replaced with new empty
// Maps.  The empty path gives a copy of the receiver.
func (w *World) Set(p core.Path, v value.Value) *World {
	if v == nil {
		v = value.Nil{}
	}
	if len(p) == 0 {
		return &World{root: w.root, rng: w.rng}
	}
	return &World{root: setIn(w.root, p, v), rng: w.rng}
}

func setIn(m value.Map, p core.Path, v value.Value) value.Map {
	acc := m.Copy()
	k := p[0]
	if len(p) == 1 {
		acc[k] = v
		return acc
	}
	child, is := m[k].(value.Map)
	if !is {
		child = value.Map{}
	}
	acc[k] = setIn(child, p[1:], v)
	return acc
}

// Del returns a new World without the value at the path.
//
// A Map left empty by the deletion is itself removed from its
// parent, all the way up (but the root is always there).  Deleting
// something that isn't there returns a World equal to the receiver.
func (w *World) Del(p core.Path) *World {
	if len(p) == 0 {
		return &World{root: w.root, rng: w.rng}
	}
	root, _ := delIn(w.root, p)
	return &World{root: root, rng: w.rng}
}

func delIn(m value.Map, p core.Path) (value.Map, bool) {
	k := p[0]
	v, have := m[k]
	if !have {
		return m, false
	}
	acc := m
	if len(p) == 1 {
		acc = m.Copy()
		delete(acc, k)
		return acc, true
	}
	child, is := v.(value.Map)
	if !is {
		return m, false
	}
	child, changed := delIn(child, p[1:])
	if !changed {
		return m, false
	}
	acc = m.Copy()
	if len(child) == 0 {
		delete(acc, k)
	} else {
		acc[k] = child
	}
	return acc, true
}

func (w *World) generator() *rand.ChaCha8 {
	g := &rand.ChaCha8{}
	if err := g.UnmarshalBinary(w.rng); err != nil {
		panic(core.Internal("world: bad generator state: %s", err))
	}
	return g
}

// NextRandom draws a number and returns the World with the advanced
// generator.
func (w *World) NextRandom() (uint64, *World) {
	g := w.generator()
	n := g.Uint64()
	bs, err := g.MarshalBinary()
	if err != nil {
		panic(core.Internal("world: marshal generator: %s", err))
	}
	return n, &World{root: w.root, rng: bs}
}

// RandomFloat draws a float64 in [0,1).
func (w *World) RandomFloat() (float64, *World) {
	n, next := w.NextRandom()
	return float64(n>>11) / (1 << 53), next
}

// RandomInt draws an int in [0,n).  n must be positive.
func (w *World) RandomInt(n int) (int, *World) {
	g := w.generator()
	r := rand.New(g).IntN(n)
	bs, err := g.MarshalBinary()
	if err != nil {
		panic(core.Internal("world: marshal generator: %s", err))
	}
	return r, &World{root: w.root, rng: bs}
}

// Equal reports whether two Worlds have equal state and generator
// state.
func (w *World) Equal(v *World) bool {
	return value.Equal(w.root, v.root) && string(w.rng) == string(v.rng)
}

type serialized struct {
	State interface{} `json:"state"`
	RNG   []byte      `json:"rng,omitempty"`
}

// MarshalJSON includes the generator state so that a stored World
// continues its random sequence when loaded.
func (w *World) MarshalJSON() ([]byte, error) {
	return json.Marshal(&serialized{
		State: value.ToInterface(w.root),
		RNG:   w.rng,
	})
}

func (w *World) UnmarshalJSON(bs []byte) error {
	var s serialized
	if err := json.Unmarshal(bs, &s); err != nil {
		return err
	}
	v, err := value.FromInterface(s.State)
	if err != nil {
		return err
	}
	root, is := v.(value.Map)
	if !is {
		if _, isNil := v.(value.Nil); !isNil {
			return fmt.Errorf("world state is a %s, not a map", v.TypeName())
		}
		root = value.Map{}
	}
	rng := s.RNG
	if len(rng) == 0 {
		rng = New().rng
	} else if err := (&rand.ChaCha8{}).UnmarshalBinary(rng); err != nil {
		return fmt.Errorf("world generator state: %w", err)
	}
	w.root = root
	w.rng = rng
	return nil
}

func (w *World) String() string {
	return w.root.String()
}
