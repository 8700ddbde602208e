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

package core

import "strings"

// PathSeparator separates segments in the dotted form of a Path.
const PathSeparator = "."

// pathKeySeparator can't appear in a dotted path, so Key is
// unambiguous even for segments that contain dots.
const pathKeySeparator = "\x1f"

// Path addresses a location in a World.  A Path is an ordered
// sequence of string segments.
//
// Paths are values: methods never modify the receiver.
type Path []string

// ParsePath splits a dotted string like "player.stats.hp" into a
// Path.  Empty segments are dropped, so "" gives the empty Path.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, PathSeparator)
	acc := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		acc = append(acc, part)
	}
	return acc
}

// String gives the dotted form.
func (p Path) String() string {
	return strings.Join(p, PathSeparator)
}

// Key returns a string that's equal for two paths if and only if the
// paths are Equal.  Use Key to use Paths as map keys.
func (p Path) Key() string {
	return strings.Join(p, pathKeySeparator)
}

// Equal reports structural equality.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i, s := range p {
		if q[i] != s {
			return false
		}
	}
	return true
}

// Append returns a new Path with the given segments added.  The
// receiver is not modified.
func (p Path) Append(segs ...string) Path {
	acc := make(Path, 0, len(p)+len(segs))
	acc = append(acc, p...)
	return append(acc, segs...)
}

// Parent returns the Path without its last segment.  The parent of
// the empty Path is the empty Path.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1 : len(p)-1]
}

// Last returns the last segment or "" for the empty Path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// HasPrefix reports whether q is a prefix of p.
func (p Path) HasPrefix(q Path) bool {
	if len(q) > len(p) {
		return false
	}
	return p[:len(q)].Equal(q)
}
