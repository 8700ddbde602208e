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

import "strconv"

// Span is a half-open byte interval [Start,End) in some source text.
//
// Spans never change once a node has been built.  Line and column
// numbers are not stored here; see package diag.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan makes a Span, clamping End so that the Span is valid.
func NewSpan(start, end int) Span {
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return Span{Start: start, End: end}
}

// Valid reports whether the span is a well-formed interval.
func (s Span) Valid() bool {
	return 0 <= s.Start && s.Start <= s.End
}

// Len is the number of bytes covered.
func (s Span) Len() int {
	return s.End - s.Start
}

// Join returns the smallest span that covers both spans.
func (s Span) Join(t Span) Span {
	acc := s
	if t.Start < acc.Start {
		acc.Start = t.Start
	}
	if acc.End < t.End {
		acc.End = t.End
	}
	return acc
}

// Contains reports whether t lies within s.
func (s Span) Contains(t Span) bool {
	return s.Start <= t.Start && t.End <= s.End
}

// Ptr returns a pointer to a copy of the span.
//
// Handy for the optional span parameters of Output.Emit and Error.
func (s Span) Ptr() *Span {
	return &s
}

func (s Span) String() string {
	return strconv.Itoa(s.Start) + ".." + strconv.Itoa(s.End)
}
