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


package main

import (
	"context"
	"fmt"

	"github.com/Comcast/sutra/storage"
	"github.com/Comcast/sutra/storage/bolt"
)

// OpenStore makes and opens a Storage.  An empty kind means no
// storage.
func OpenStore(ctx context.Context, kind, path string) (storage.Storage, error) {
	var s storage.Storage
	switch kind {
	case "":
		return nil, nil
	case "json":
		js := storage.NewJSONStore(path)
		js.Indent = true
		s = js
	case "bolt", "bbolt":
		b, err := bolt.NewStorage(path)
		if err != nil {
			return nil, err
		}
		s = b
	case "memory", "mem":
		s = storage.NewMemory()
	default:
		return nil, fmt.Errorf("unknown store: '%s'", kind)
	}
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
