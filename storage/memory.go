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


package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/Comcast/sutra/world"
)

// Memory is a Storage that just keeps Worlds in a map.
//
// Worlds are immutable, so nothing is copied.
type Memory struct {
	sync.RWMutex
	worlds map[string]*world.World
}

func NewMemory() *Memory {
	return &Memory{
		worlds: make(map[string]*world.World),
	}
}

func (s *Memory) Open(ctx context.Context) error {
	return nil
}

func (s *Memory) Close(ctx context.Context) error {
	return nil
}

func (s *Memory) Save(ctx context.Context, name string, w *world.World) error {
	s.Lock()
	s.worlds[name] = w
	s.Unlock()
	return nil
}

func (s *Memory) Load(ctx context.Context, name string) (*world.World, error) {
	s.RLock()
	w, have := s.worlds[name]
	s.RUnlock()
	if !have {
		return nil, ErrNotFound
	}
	return w, nil
}

func (s *Memory) Delete(ctx context.Context, name string) error {
	s.Lock()
	defer s.Unlock()
	if _, have := s.worlds[name]; !have {
		return ErrNotFound
	}
	delete(s.worlds, name)
	return nil
}

func (s *Memory) List(ctx context.Context) ([]string, error) {
	s.RLock()
	acc := make([]string, 0, len(s.worlds))
	for name := range s.worlds {
		acc = append(acc, name)
	}
	s.RUnlock()
	sort.Strings(acc)
	return acc, nil
}
