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


// Package bolt is a Storage backed by BoltDB.
//
// All Worlds live in one bucket with one key per World.
package bolt

import (
	"context"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/Comcast/sutra/storage"
	"github.com/Comcast/sutra/util"
	"github.com/Comcast/sutra/world"
)

// DefaultBucket is the default name of the bucket that holds Worlds.
var DefaultBucket = "worlds"

type Storage struct {
	Debug bool

	// Bucket is the name of the bucket for Worlds.
	Bucket string

	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		Bucket:   DefaultBucket,
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return errors.Wrapf(err, "opening %s", s.filename)
	}
	s.db = db

	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(s.Bucket))
		return err
	})
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) logf(msg string, keyvals ...interface{}) {
	if s.Debug {
		util.Logger.Debug("bolt "+msg, keyvals...)
	}
}

func (s *Storage) Save(ctx context.Context, name string, w *world.World) error {
	s.logf("Save", "name", name)
	js, err := storage.Encode(w)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", name)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(s.Bucket)).Put([]byte(name), js)
	})
}

func (s *Storage) Load(ctx context.Context, name string) (*world.World, error) {
	s.logf("Load", "name", name)
	var js []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket([]byte(s.Bucket)).Get([]byte(name))
		if bs == nil {
			return storage.ErrNotFound
		}
		// bs is only valid during the transaction.
		js = append([]byte(nil), bs...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	w, err := storage.Decode(js)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", name)
	}
	return w, nil
}

func (s *Storage) Delete(ctx context.Context, name string) error {
	s.logf("Delete", "name", name)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(s.Bucket))
		if b.Get([]byte(name)) == nil {
			return storage.ErrNotFound
		}
		return b.Delete([]byte(name))
	})
}

// List returns the names in key order.
func (s *Storage) List(ctx context.Context) ([]string, error) {
	acc := make([]string, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(s.Bucket)).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			acc = append(acc, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logf("List", "found", len(acc))
	return acc, nil
}

// Raw returns the stored JSON for a World.
func (s *Storage) Raw(ctx context.Context, name string) ([]byte, error) {
	var js []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket([]byte(s.Bucket)).Get([]byte(name))
		if bs == nil {
			return storage.ErrNotFound
		}
		js = append([]byte(nil), bs...)
		return nil
	})
	return js, err
}
