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
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/world"
)

// JSONStore is a primitive facility to store Worlds as JSON files in
// a directory: one file per World.
//
// Not glamorous or efficient.
type JSONStore struct {
	// Dir is where the files go.
	Dir string

	// Indent makes the files easier for people to read.
	Indent bool

	sync.Mutex
}

const suffix = ".json"

func NewJSONStore(dir string) *JSONStore {
	return &JSONStore{
		Dir: dir,
	}
}

// Open makes the directory if necessary.
func (s *JSONStore) Open(ctx context.Context) error {
	return errors.Wrapf(os.MkdirAll(s.Dir, 0755), "opening %s", s.Dir)
}

func (s *JSONStore) Close(ctx context.Context) error {
	return nil
}

func (s *JSONStore) filename(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", errors.Errorf("bad world name %q", name)
	}
	return filepath.Join(s.Dir, name+suffix), nil
}

func (s *JSONStore) Save(ctx context.Context, name string, w *world.World) error {
	filename, err := s.filename(name)
	if err != nil {
		return err
	}
	js, err := Encode(w)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}
	if s.Indent {
		js = indent(js)
	}

	s.Lock()
	defer s.Unlock()

	// Write a temporary file and rename so a reader never sees a
	// partial World.
	tmp := filename + ".tmp"
	if err = ioutil.WriteFile(tmp, js, 0644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err = os.Rename(tmp, filename); err != nil {
		return errors.Wrapf(err, "renaming %s", tmp)
	}
	util.Debug("saved world", "name", name, "file", filename)
	return nil
}

func (s *JSONStore) Load(ctx context.Context, name string) (*world.World, error) {
	filename, err := s.filename(name)
	if err != nil {
		return nil, err
	}
	js, err := ioutil.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	w, err := Decode(js)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", filename)
	}
	return w, nil
}

func (s *JSONStore) Delete(ctx context.Context, name string) error {
	filename, err := s.filename(name)
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	err = os.Remove(filename)
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	return errors.Wrapf(err, "removing %s", filename)
}

func (s *JSONStore) List(ctx context.Context) ([]string, error) {
	fis, err := ioutil.ReadDir(s.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", s.Dir)
	}
	acc := make([]string, 0, len(fis))
	for _, fi := range fis {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), suffix) {
			continue
		}
		acc = append(acc, strings.TrimSuffix(fi.Name(), suffix))
	}
	sort.Strings(acc)
	return acc, nil
}
